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

// sampling.go implements stratified sampling of a large
// array into a handful of fixed-width slices, concatenated into one
// Chunked array standing in for the whole for candidate scoring.
// Grounded on vortex-sampling-compressor's stratified_slices (the
// original seeds a std rand::StdRng per compression call; here a
// math/rand source seeded the same way gives the same determinism
// property under Config.RNGSeed).
package compress

import (
	"math/rand"

	"github.com/dolthub/vortex/array"
)

// stratifiedSlices partitions [0, n) into count equal-width strata and
// picks one window of width size within each stratum, uniformly at
// random but deterministically under seed. Strata narrower than size
// are taken in full.
func stratifiedSlices(n, size, count int, seed uint64) []struct{ Start, Stop int } {
	rng := rand.New(rand.NewSource(int64(seed)))
	strataWidth := n / count
	if strataWidth == 0 {
		return []struct{ Start, Stop int }{{0, n}}
	}
	out := make([]struct{ Start, Stop int }, 0, count)
	for k := 0; k < count; k++ {
		lo := k * strataWidth
		hi := lo + strataWidth
		if k == count-1 {
			hi = n
		}
		width := hi - lo
		if width <= size {
			out = append(out, struct{ Start, Stop int }{lo, hi})
			continue
		}
		maxStart := width - size
		start := lo + rng.Intn(maxStart+1)
		out = append(out, struct{ Start, Stop int }{start, start + size})
	}
	return out
}

// stratifiedSample builds the sample Chunked array described above,
// already in canonical form so candidates can operate on it uniformly.
func stratifiedSample(a array.Array, size, count int, seed uint64) (array.Array, error) {
	slices := stratifiedSlices(a.Len(), size, count, seed)
	chunks := make([]array.Array, len(slices))
	for i, s := range slices {
		chunks[i] = a.Slice(s.Start, s.Stop)
	}
	chunked := array.NewChunked(a.DType(), chunks)
	canon, err := chunked.IntoCanonical()
	if err != nil {
		return nil, err
	}
	return canon, nil
}
