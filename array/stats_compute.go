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

// stats_compute.go populates the cheap, always-derivable members of a
// Set: Min, Max, NullCount, TrueCount. It is the "on demand"
// half of the lazy contract stats.Set documents — nothing calls it
// automatically, but the file writer calls it before serializing a
// chunk so the statistics table has something to prune with.
package array

import (
	"github.com/dolthub/vortex/dtype"
	"github.com/dolthub/vortex/scalar"
	"github.com/dolthub/vortex/stats"
)

// PopulateBasicStats fills in Min, Max, NullCount and (for bool arrays)
// TrueCount on a's statistics set, scanning the array once. Entries are
// set monotonically (stats.Set.Set never overwrites), so calling this
// more than once, or on an array that already knows some of its stats
// (e.g. Constant), is harmless.
func PopulateBasicStats(a Array) error {
	n := a.Len()
	st := a.Statistics()
	dt := a.DType()

	if _, ok := a.(Constant); ok {
		st.Set(stats.IsConstant, scalar.Bool(true))
	}

	var nullCount uint64
	var trueCount uint64
	isBool := dt.Kind() == dtype.KindBool
	var min, max scalar.Scalar
	haveMin := false

	for i := 0; i < n; i++ {
		v, err := a.ScalarAt(i)
		if err != nil {
			return err
		}
		if v.IsNull() {
			nullCount++
			continue
		}
		if isBool && v.AsBool() {
			trueCount++
		}
		if !haveMin {
			min, max = v, v
			haveMin = true
			continue
		}
		if scalar.Compare(v, min) < 0 {
			min = v
		}
		if scalar.Compare(v, max) > 0 {
			max = v
		}
	}

	st.Set(stats.NullCount, scalar.Uint(dtype.U64, nullCount))
	if isBool {
		st.Set(stats.TrueCount, scalar.Uint(dtype.U64, trueCount))
	}
	if haveMin {
		st.Set(stats.Min, min)
		st.Set(stats.Max, max)
	}
	return nil
}
