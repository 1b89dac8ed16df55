// Copyright 2022 Dolthub, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dolthub/vortex/dtype"
	"github.com/dolthub/vortex/scalar"
	"github.com/dolthub/vortex/stats"
)

func minMaxRow(col string, min, max int64) StatsRow {
	return StatsRow{
		col: {
			stats.Min: scalar.Int(dtype.I64, min),
			stats.Max: scalar.Int(dtype.I64, max),
		},
	}
}

// TestPruneGreaterThanSkipsNonOverlappingChunk reproduces the reader
// pruning scenario: filter col_a > 10 against three chunks with stats
// {0,5}, {6,12}, {20,30}. Only the first chunk's max proves it can
// never satisfy the predicate.
func TestPruneGreaterThanSkipsNonOverlappingChunk(t *testing.T) {
	filter := Binary{Op: Gt, Left: Col{Name: "col_a"}, Right: Lit{Value: scalar.Int(dtype.I64, 10)}}
	pred := BuildPruningPredicate(filter)

	chunks := []StatsRow{
		minMaxRow("col_a", 0, 5),
		minMaxRow("col_a", 6, 12),
		minMaxRow("col_a", 20, 30),
	}
	want := []bool{true, false, false}
	for i, row := range chunks {
		assert.Equal(t, want[i], pred.Eliminates(row), "chunk %d", i)
	}
}

func TestPruneEqualityOutsideRange(t *testing.T) {
	filter := Binary{Op: Eq, Left: Col{Name: "col_a"}, Right: Lit{Value: scalar.Int(dtype.I64, 100)}}
	pred := BuildPruningPredicate(filter)

	assert.True(t, pred.Eliminates(minMaxRow("col_a", 0, 10)))
	assert.False(t, pred.Eliminates(minMaxRow("col_a", 50, 150)))
}

// TestPruneAndRequiresBothSidesToEliminate: the rewriter ANDs the two
// conjuncts' own elimination conditions, so a chunk only gets pruned
// when each conjunct independently proves unsatisfiable — weaker than
// the theoretical best (either conjunct alone suffices) but never
// unsound.
func TestPruneAndRequiresBothSidesToEliminate(t *testing.T) {
	filter := Binary{
		Op:   And,
		Left: Binary{Op: Gt, Left: Col{Name: "a"}, Right: Lit{Value: scalar.Int(dtype.I64, 10)}},
		Right: Binary{
			Op: Lt, Left: Col{Name: "b"}, Right: Lit{Value: scalar.Int(dtype.I64, 5)},
		},
	}
	pred := BuildPruningPredicate(filter)

	bothEliminate := StatsRow{
		"a": {stats.Min: scalar.Int(dtype.I64, 0), stats.Max: scalar.Int(dtype.I64, 3)},
		"b": {stats.Min: scalar.Int(dtype.I64, 10), stats.Max: scalar.Int(dtype.I64, 20)},
	}
	assert.True(t, pred.Eliminates(bothEliminate))

	onlyOneEliminates := StatsRow{
		"a": {stats.Min: scalar.Int(dtype.I64, 0), stats.Max: scalar.Int(dtype.I64, 3)},
		"b": {stats.Min: scalar.Int(dtype.I64, 0), stats.Max: scalar.Int(dtype.I64, 1)},
	}
	assert.False(t, pred.Eliminates(onlyOneEliminates), "b's conjunct alone can still be satisfied, so the AND-of-eliminations is false")
}

// TestPruneOrRequiresBothSidesToEliminate is the De Morgan counterpart
// of the And case: for `col_a > 10 OR col_b > 10`, a chunk can only be
// eliminated if *both* disjuncts are individually unsatisfiable. If only
// one side eliminates, the other side might still match some row, so
// the OR as a whole might still be satisfied and the chunk must be kept.
func TestPruneOrRequiresBothSidesToEliminate(t *testing.T) {
	filter := Binary{
		Op:   Or,
		Left: Binary{Op: Gt, Left: Col{Name: "col_a"}, Right: Lit{Value: scalar.Int(dtype.I64, 10)}},
		Right: Binary{
			Op: Gt, Left: Col{Name: "col_b"}, Right: Lit{Value: scalar.Int(dtype.I64, 10)},
		},
	}
	pred := BuildPruningPredicate(filter)

	onlyAEliminates := StatsRow{
		"col_a": {stats.Min: scalar.Int(dtype.I64, 0), stats.Max: scalar.Int(dtype.I64, 5)},
		"col_b": {stats.Min: scalar.Int(dtype.I64, 15), stats.Max: scalar.Int(dtype.I64, 20)},
	}
	assert.False(t, pred.Eliminates(onlyAEliminates),
		"col_b's rows in [15,20] satisfy col_b > 10, so the OR is satisfiable and the chunk must not be pruned")

	bothEliminate := StatsRow{
		"col_a": {stats.Min: scalar.Int(dtype.I64, 0), stats.Max: scalar.Int(dtype.I64, 5)},
		"col_b": {stats.Min: scalar.Int(dtype.I64, 0), stats.Max: scalar.Int(dtype.I64, 5)},
	}
	assert.True(t, pred.Eliminates(bothEliminate))
}

func TestPruneReportsStatRefs(t *testing.T) {
	filter := Binary{Op: Gte, Left: Col{Name: "x"}, Right: Lit{Value: scalar.Int(dtype.I64, 1)}}
	pred := BuildPruningPredicate(filter)
	assert.Contains(t, pred.Refs, StatRef{Column: "x", Stat: stats.Min})
	assert.Contains(t, pred.Refs, StatRef{Column: "x", Stat: stats.Max})
}

func TestNilFilterPrunesNothing(t *testing.T) {
	pred := BuildPruningPredicate(nil)
	assert.False(t, pred.Eliminates(minMaxRow("col_a", 0, 0)))
}

func TestUnknownColumnNeverEliminates(t *testing.T) {
	filter := Binary{Op: Gt, Left: Col{Name: "missing"}, Right: Lit{Value: scalar.Int(dtype.I64, 10)}}
	pred := BuildPruningPredicate(filter)
	assert.False(t, pred.Eliminates(minMaxRow("col_a", 0, 5)))
}
