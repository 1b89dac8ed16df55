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

package array

import (
	"sort"

	"github.com/dolthub/vortex/buffer"
	"github.com/dolthub/vortex/d"
	"github.com/dolthub/vortex/dtype"
	"github.com/dolthub/vortex/errtax"
	"github.com/dolthub/vortex/scalar"
	"github.com/dolthub/vortex/stats"
)

// Chunked is the container encoding: an ordered list of chunks
// with identical dtype, plus an auxiliary non-nullable u64 array of
// chunk-end offsets used for O(log N) lookup by row index.
type Chunked struct {
	dt     dtype.DType
	chunks []Array
	ends   []uint64 // len(chunks); ends[i] = cumulative length through chunk i
	st     *stats.Set
}

// NewChunked validates every chunk shares dtype dt; the chunked array's
// logical length is the sum of its chunks' lengths.
func NewChunked(dt dtype.DType, chunks []Array) Chunked {
	ends := make([]uint64, len(chunks))
	var cum uint64
	for i, c := range chunks {
		d.PanicIfFalse(c.DType().Equal(dt), "chunk %d dtype %s != chunked dtype %s", i, c.DType(), dt)
		cum += uint64(c.Len())
		ends[i] = cum
	}
	return Chunked{dt: dt, chunks: chunks, ends: ends, st: stats.New()}
}

func (c Chunked) DType() dtype.DType { return c.dt }
func (c Chunked) Len() int {
	if len(c.ends) == 0 {
		return 0
	}
	return int(c.ends[len(c.ends)-1])
}
func (c Chunked) IsEmpty() bool       { return c.Len() == 0 }
func (c Chunked) Encoding() string    { return "vortex.chunked" }
func (c Chunked) Chunks() []Array     { return c.chunks }
func (c Chunked) ChunkEnds() []uint64 { return c.ends }

func (c Chunked) Children() []Array {
	out := make([]Array, 0, len(c.chunks)+1)
	out = append(out, NewPrimitiveU64(c.ends))
	out = append(out, c.chunks...)
	return out
}

func (c Chunked) Buffer() (buffer.Buffer, bool) { return buffer.Buffer{}, false }
func (c Chunked) Metadata() []byte              { return nil }
func (c Chunked) Statistics() *stats.Set        { return c.st }
func (c Chunked) NBytes() int64                 { return childrenBytes(c.chunks) + int64(len(c.ends))*8 }

// chunkOf returns the chunk index containing global row i and i's
// position local to that chunk, via binary search over ends.
func (c Chunked) chunkOf(i int) (chunkIdx, local int) {
	u := uint64(i)
	idx := sort.Search(len(c.ends), func(k int) bool { return c.ends[k] > u })
	var start uint64
	if idx > 0 {
		start = c.ends[idx-1]
	}
	return idx, int(u - start)
}

func (c Chunked) ScalarAt(i int) (scalar.Scalar, error) {
	if i < 0 || i >= c.Len() {
		return scalar.Scalar{}, errtax.OutOfBounds(i, 0, c.Len())
	}
	ci, local := c.chunkOf(i)
	return c.chunks[ci].ScalarAt(local)
}

// Slice locates the start/end chunks, slices only those boundary chunks,
// and references interior chunks unchanged.
func (c Chunked) Slice(start, stop int) Array {
	start, stop = clampSlice(start, stop, c.Len())
	if start == stop {
		return NewChunked(c.dt, nil)
	}
	startChunk, startLocal := c.chunkOf(start)
	endChunk, endLocal := c.chunkOf(stop - 1)
	endLocal++ // exclusive stop within endChunk

	if startChunk == endChunk {
		return NewChunked(c.dt, []Array{c.chunks[startChunk].Slice(startLocal, endLocal)})
	}

	out := make([]Array, 0, endChunk-startChunk+1)
	out = append(out, c.chunks[startChunk].Slice(startLocal, c.chunks[startChunk].Len()))
	for i := startChunk + 1; i < endChunk; i++ {
		out = append(out, c.chunks[i])
	}
	out = append(out, c.chunks[endChunk].Slice(0, endLocal))
	return NewChunked(c.dt, out)
}

func (c Chunked) IntoCanonical() (Array, error) {
	return canonicalizeChunked(c)
}

// Take groups indices by chunk (stable within each group) to batch the
// underlying per-chunk take calls, then scatters the results back
// into the caller's requested order so take(take(A,i1),i2) ==
// take(A,take(i1,i2)) holds regardless of whether i1 is sorted.
func (c Chunked) Take(indices []int) (Array, error) {
	if len(indices) == 0 {
		return NewChunked(c.dt, nil), nil
	}
	type slot struct {
		outPos int
		local  int
	}
	byChunk := make(map[int][]slot)
	order := []int{}
	for outPos, idx := range indices {
		if idx < 0 || idx >= c.Len() {
			return nil, errtax.OutOfBounds(idx, 0, c.Len())
		}
		ci, local := c.chunkOf(idx)
		if _, ok := byChunk[ci]; !ok {
			order = append(order, ci)
		}
		byChunk[ci] = append(byChunk[ci], slot{outPos: outPos, local: local})
	}
	sort.Ints(order)

	taken := make([]Array, len(order))
	for gi, ci := range order {
		locals := make([]int, len(byChunk[ci]))
		for k, s := range byChunk[ci] {
			locals[k] = s.local
		}
		t, err := Take(c.chunks[ci], locals)
		if err != nil {
			return nil, err
		}
		taken[gi] = t
	}

	// Build the final output in requested order via one more Take over
	// the concatenation: concatenate taken chunks (chunk order) then
	// permute to outPos order.
	concatOrder := make([]int, 0, len(indices))
	for _, ci := range order {
		for _, s := range byChunk[ci] {
			concatOrder = append(concatOrder, s.outPos)
		}
	}
	canon, err := NewChunked(c.dt, taken).IntoCanonical()
	if err != nil {
		return nil, err
	}
	// permIndices[p] = position within canon of the element that belongs
	// at output slot p.
	permIndices := make([]int, len(indices))
	for pos, outPos := range concatOrder {
		permIndices[outPos] = pos
	}
	return Take(canon, permIndices)
}
