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
	"github.com/dolthub/vortex/buffer"
	"github.com/dolthub/vortex/d"
	"github.com/dolthub/vortex/dtype"
	"github.com/dolthub/vortex/errtax"
	"github.com/dolthub/vortex/scalar"
	"github.com/dolthub/vortex/stats"
)

// Patched is the sparse overlay encoding: a dense base `data`
// plus a strictly-sorted `patchIndices`/`patchValues` pair. Element i
// equals patchValues[j] when patchIndices[j] == i+offset, else data[i].
// The offset lets slice shrink the patch range without rewriting the
// stored index values.
type Patched struct {
	data         Array
	patchIndices Array // unsigned, non-nullable, strictly sorted
	patchValues  Array
	offset       int
	st           *stats.Set
}

// NewPatched validates the construction invariants, aborting on
// violation. It is the convenience constructor for trusted in-process
// callers; callers that can't trust their inputs — chiefly file
// deserialization — must use TryNewPatched instead.
func NewPatched(data, patchIndices, patchValues Array, offset int) Patched {
	p, err := TryNewPatched(data, patchIndices, patchValues, offset)
	d.PanicIfError(err)
	return p
}

// TryNewPatched validates the construction invariants and returns an
// error instead of aborting, for callers that cannot trust their
// inputs: a malformed or adversarial on-disk file must surface
// errtax.MismatchedTypes / errtax.InvalidDType, not crash the reader.
func TryNewPatched(data, patchIndices, patchValues Array, offset int) (Patched, error) {
	if patchIndices.Len() != patchValues.Len() {
		return Patched{}, errtax.InvalidArgument(
			"patch_indices.len() %d != patch_values.len() %d", patchIndices.Len(), patchValues.Len())
	}
	idxDT := patchIndices.DType()
	if idxDT.IsNullable() || idxDT.Kind() != dtype.KindPrimitive || idxDT.Ptype().IsSigned() || idxDT.Ptype().IsFloat() {
		return Patched{}, errtax.InvalidDType(idxDT)
	}
	want := data.DType().WithNullability(patchValues.DType().IsNullable())
	if !want.Equal(patchValues.DType()) {
		return Patched{}, errtax.MismatchedTypes(want, patchValues.DType())
	}
	if !data.DType().IsNullable() && patchValues.DType().IsNullable() {
		return Patched{}, errtax.MismatchedTypes(data.DType(), patchValues.DType())
	}
	return Patched{data: data, patchIndices: patchIndices, patchValues: patchValues, offset: offset, st: stats.New()}, nil
}

func (p Patched) DType() dtype.DType { return patchedDType(p.data, p.patchValues) }

func patchedDType(data, patchValues Array) dtype.DType {
	if patchValues.DType().IsNullable() {
		return data.DType().WithNullability(true)
	}
	return data.DType()
}

func (p Patched) Len() int                      { return p.data.Len() }
func (p Patched) IsEmpty() bool                 { return p.data.Len() == 0 }
func (p Patched) Encoding() string              { return "vortex.patched" }
func (p Patched) Children() []Array             { return []Array{p.data, p.patchIndices, p.patchValues} }
func (p Patched) Buffer() (buffer.Buffer, bool) { return buffer.Buffer{}, false }
func (p Patched) Metadata() []byte              { return nil }
func (p Patched) Statistics() *stats.Set        { return p.st }
func (p Patched) NBytes() int64 {
	return p.data.NBytes() + p.patchIndices.NBytes() + p.patchValues.NBytes()
}
func (p Patched) Offset() int { return p.offset }

// findPatch returns the patch row j with patchIndices[j] == global, or
// (-1, false) if global is unpatched.
func (p Patched) findPatch(global uint64) (int, bool) {
	target := scalar.Uint(dtype.U64, global)
	j, err := SearchSortedLeft(p.patchIndices, target)
	if err != nil || j >= p.patchIndices.Len() {
		return 0, false
	}
	v, err := p.patchIndices.ScalarAt(j)
	if err != nil {
		return 0, false
	}
	if v.AsUint() != global {
		return 0, false
	}
	return j, true
}

func (p Patched) ScalarAt(i int) (scalar.Scalar, error) {
	if i < 0 || i >= p.Len() {
		return scalar.Scalar{}, errtax.OutOfBounds(i, 0, p.Len())
	}
	if j, ok := p.findPatch(uint64(i + p.offset)); ok {
		return p.patchValues.ScalarAt(j)
	}
	return p.data.ScalarAt(i)
}

// Slice: the patch range [lo,hi) bounding local rows
// [s,e) is located by binary search over the (unshifted) patch indices,
// and only offset is adjusted, never the stored index values.
func (p Patched) Slice(start, stop int) Array {
	start, stop = clampSlice(start, stop, p.Len())
	lo, _ := SearchSortedLeft(p.patchIndices, scalar.Uint(dtype.U64, uint64(start+p.offset)))
	hi, _ := SearchSortedLeft(p.patchIndices, scalar.Uint(dtype.U64, uint64(stop+p.offset)))
	return Patched{
		data:         p.data.Slice(start, stop),
		patchIndices: p.patchIndices.Slice(lo, hi),
		patchValues:  p.patchValues.Slice(lo, hi),
		offset:       p.offset + start,
		st:           stats.New(),
	}
}

// IntoCanonical materializes data, then overwrites every patched
// position with its patch value.
func (p Patched) IntoCanonical() (Array, error) {
	canon, err := p.data.IntoCanonical()
	if err != nil {
		return nil, err
	}
	vals := make([]scalar.Scalar, canon.Len())
	for i := 0; i < canon.Len(); i++ {
		v, err := canon.ScalarAt(i)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	for j := 0; j < p.patchIndices.Len(); j++ {
		idxS, err := p.patchIndices.ScalarAt(j)
		if err != nil {
			return nil, err
		}
		local := int(idxS.AsUint()) - p.offset
		if local < 0 || local >= len(vals) {
			continue
		}
		v, err := p.patchValues.ScalarAt(j)
		if err != nil {
			return nil, err
		}
		vals[local] = v
	}
	return arrayFromScalars(p.DType(), vals)
}

// Take decodes the requested rows directly via scalar_at (the binary
// search is cheap per row) rather than materializing the whole array.
func (p Patched) Take(indices []int) (Array, error) {
	vals := make([]scalar.Scalar, len(indices))
	for i, idx := range indices {
		v, err := p.ScalarAt(idx)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	return arrayFromScalars(p.DType(), vals)
}
