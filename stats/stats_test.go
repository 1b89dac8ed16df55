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

package stats_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dolthub/vortex/dtype"
	"github.com/dolthub/vortex/scalar"
	"github.com/dolthub/vortex/stats"
)

func TestGetOrComputeCachesOnFirstCall(t *testing.T) {
	s := stats.New()
	calls := 0
	compute := func() scalar.Scalar {
		calls++
		return scalar.Int(dtype.I64, 42)
	}
	v1 := s.GetOrCompute(stats.Min, compute)
	v2 := s.GetOrCompute(stats.Min, compute)
	assert.Equal(t, int64(42), v1.AsInt())
	assert.Equal(t, int64(42), v2.AsInt())
	assert.Equal(t, 1, calls)
}

func TestSetIsMonotonic(t *testing.T) {
	s := stats.New()
	s.Set(stats.Max, scalar.Int(dtype.I64, 1))
	s.Set(stats.Max, scalar.Int(dtype.I64, 999))
	v, ok := s.Get(stats.Max)
	require.True(t, ok)
	assert.Equal(t, int64(1), v.AsInt(), "first write wins")
}

func TestSnapshotIsDefensiveCopy(t *testing.T) {
	s := stats.New()
	s.Set(stats.Min, scalar.Int(dtype.I64, 3))
	snap := s.Snapshot()
	snap[stats.Max] = scalar.Int(dtype.I64, 100)
	_, ok := s.Get(stats.Max)
	assert.False(t, ok, "mutating the snapshot must not affect the set")
}

func TestMergeMinMax(t *testing.T) {
	a := map[stats.Stat]scalar.Scalar{
		stats.Min: scalar.Int(dtype.I64, 1),
		stats.Max: scalar.Int(dtype.I64, 10),
	}
	b := map[stats.Stat]scalar.Scalar{
		stats.Min: scalar.Int(dtype.I64, -5),
		stats.Max: scalar.Int(dtype.I64, 20),
	}
	out := stats.Merge(a, b, 5, 5)
	assert.Equal(t, int64(-5), out[stats.Min].AsInt())
	assert.Equal(t, int64(20), out[stats.Max].AsInt())
}

func TestMergeNullCountSums(t *testing.T) {
	a := map[stats.Stat]scalar.Scalar{stats.NullCount: scalar.Uint(dtype.U64, 2)}
	b := map[stats.Stat]scalar.Scalar{stats.NullCount: scalar.Uint(dtype.U64, 3)}
	out := stats.Merge(a, b, 5, 5)
	assert.Equal(t, uint64(5), out[stats.NullCount].AsUint())
}

func TestMergeIsSortedRequiresBoundary(t *testing.T) {
	a := map[stats.Stat]scalar.Scalar{
		stats.IsSorted: scalar.Bool(true),
		stats.Max:      scalar.Int(dtype.I64, 10),
	}
	b := map[stats.Stat]scalar.Scalar{
		stats.IsSorted: scalar.Bool(true),
		stats.Min:      scalar.Int(dtype.I64, 5),
	}
	out := stats.Merge(a, b, 3, 3)
	assert.False(t, out[stats.IsSorted].AsBool(), "boundary 10 > 5 breaks sortedness")
}

func TestMergeIsConstantRequiresSameValue(t *testing.T) {
	a := map[stats.Stat]scalar.Scalar{
		stats.IsConstant: scalar.Bool(true),
		stats.Min:        scalar.Int(dtype.I64, 7),
	}
	b := map[stats.Stat]scalar.Scalar{
		stats.IsConstant: scalar.Bool(true),
		stats.Min:        scalar.Int(dtype.I64, 8),
	}
	out := stats.Merge(a, b, 3, 3)
	assert.False(t, out[stats.IsConstant].AsBool())
}

func TestMergeRunCountClampsAtMax(t *testing.T) {
	a := map[stats.Stat]scalar.Scalar{stats.RunCount: scalar.Uint(dtype.U64, stats.MaxRunCount)}
	b := map[stats.Stat]scalar.Scalar{stats.RunCount: scalar.Uint(dtype.U64, stats.MaxRunCount)}
	out := stats.Merge(a, b, 10, 10)
	assert.Equal(t, uint64(stats.MaxRunCount), out[stats.RunCount].AsUint())
}
