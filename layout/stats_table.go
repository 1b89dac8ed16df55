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

// stats_table.go builds and reads one field's statistics table:
// one row per chunk of that field, with {min, max, null_count,
// true_count, row_offset} columns. Each field's Chunked layout carries
// its own table as children()[0], rather than one table shared across
// every field of the struct — simpler to build incrementally as each
// column is chunked, and the reader only ever needs one field's table
// at a time to prune that field's chunks. It is itself stored as an
// ordinary Struct array, so the same ArrayNode serde that handles data
// chunks handles it.
package layout

import (
	"fmt"

	"github.com/dolthub/vortex/array"
	"github.com/dolthub/vortex/dtype"
	"github.com/dolthub/vortex/scalar"
	"github.com/dolthub/vortex/stats"
	"github.com/dolthub/vortex/validity"
)

const (
	statColMin       = "min"
	statColMax       = "max"
	statColNullCount = "null_count"
	statColTrueCount = "true_count"
	statColRowOffset = "row_offset"
)

// BuildStatsTable materializes one row per chunk of a single field.
// rowOffsets[j] is chunk j's first global row index. Missing stats are
// filled with typed nulls.
func BuildStatsTable(fieldType dtype.DType, perChunk []map[stats.Stat]scalar.Scalar, rowOffsets []uint64) (array.Array, error) {
	n := len(perChunk)
	minVals := make([]scalar.Scalar, n)
	maxVals := make([]scalar.Scalar, n)
	nullVals := make([]scalar.Scalar, n)
	trueVals := make([]scalar.Scalar, n)
	rowOffVals := make([]scalar.Scalar, n)
	for j := 0; j < n; j++ {
		row := perChunk[j]
		minVals[j] = statOrNull(row, stats.Min, fieldType)
		maxVals[j] = statOrNull(row, stats.Max, fieldType)
		nullVals[j] = statOrNull(row, stats.NullCount, dtype.Primitive(dtype.U64, true))
		trueVals[j] = statOrNull(row, stats.TrueCount, dtype.Primitive(dtype.U64, true))
		rowOffVals[j] = scalar.Uint(dtype.U64, rowOffsets[j])
	}

	minArr, err := array.FromScalars(fieldType.WithNullability(true), minVals)
	if err != nil {
		return nil, fmt.Errorf("stats table: min column: %w", err)
	}
	maxArr, err := array.FromScalars(fieldType.WithNullability(true), maxVals)
	if err != nil {
		return nil, fmt.Errorf("stats table: max column: %w", err)
	}
	nullArr, err := array.FromScalars(dtype.Primitive(dtype.U64, true), nullVals)
	if err != nil {
		return nil, err
	}
	trueArr, err := array.FromScalars(dtype.Primitive(dtype.U64, true), trueVals)
	if err != nil {
		return nil, err
	}
	rowOffArr, err := array.FromScalars(dtype.Primitive(dtype.U64, false), rowOffVals)
	if err != nil {
		return nil, err
	}

	names := []string{statColMin, statColMax, statColNullCount, statColTrueCount, statColRowOffset}
	cols := []array.Array{minArr, maxArr, nullArr, trueArr, rowOffArr}
	return array.NewStruct(names, cols, validity.NewNonNullable(), false), nil
}

func statOrNull(row map[stats.Stat]scalar.Scalar, s stats.Stat, dt dtype.DType) scalar.Scalar {
	if row != nil {
		if v, ok := row[s]; ok {
			return v
		}
	}
	return scalar.Null(dt)
}

// FieldStatsRow extracts chunk j's {min, max} from one field's stats
// table, the only entries the pruning predicate reads.
func FieldStatsRow(table array.Array, j int) (map[stats.Stat]scalar.Scalar, error) {
	st, ok := table.(array.Struct)
	if !ok {
		return nil, fmt.Errorf("stats table: expected struct array, got %s", table.Encoding())
	}
	out := make(map[stats.Stat]scalar.Scalar, 2)
	if v, err := structFieldScalarAt(st, statColMin, j); err == nil && !v.IsNull() {
		out[stats.Min] = v
	}
	if v, err := structFieldScalarAt(st, statColMax, j); err == nil && !v.IsNull() {
		out[stats.Max] = v
	}
	return out, nil
}

// RowOffsetAt returns chunk j's first global row index from one field's
// stats table.
func RowOffsetAt(table array.Array, j int) (uint64, error) {
	st, ok := table.(array.Struct)
	if !ok {
		return 0, fmt.Errorf("stats table: expected struct array, got %s", table.Encoding())
	}
	v, err := structFieldScalarAt(st, statColRowOffset, j)
	if err != nil {
		return 0, err
	}
	return v.AsUint(), nil
}

func structFieldScalarAt(st array.Struct, name string, row int) (scalar.Scalar, error) {
	f, ok := st.Field(name)
	if !ok {
		return scalar.Scalar{}, fmt.Errorf("stats table: no column %s", name)
	}
	return f.ScalarAt(row)
}
