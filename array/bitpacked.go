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
	"github.com/dolthub/vortex/dtype"
	"github.com/dolthub/vortex/errtax"
	"github.com/dolthub/vortex/scalar"
	"github.com/dolthub/vortex/stats"
	"github.com/dolthub/vortex/validity"
)

// bitPackedIndexCost is the index half of the assumed byte cost `ex` of
// one exception value in the width-selection objective: an 8-byte row
// index on top of the value's own width.
const bitPackedIndexCost = 8

// BitPacked is the frame-of-reference + bit-packing encoding:
// every value is stored as (value - minVal) in `width` bits; values that
// don't fit are recorded in a Patched side-channel instead.
type BitPacked struct {
	ptype     dtype.Ptype
	nullable  bool
	width     int
	minVal    scalar.Scalar
	rowOffset int
	length    int
	packed    buffer.Buffer
	patches   *Patched
	valid     validity.Validity
	st        *stats.Set
}

func (b BitPacked) DType() dtype.DType            { return dtype.Primitive(b.ptype, b.nullable) }
func (b BitPacked) Len() int                      { return b.length }
func (b BitPacked) IsEmpty() bool                 { return b.length == 0 }
func (b BitPacked) Encoding() string              { return "vortex.bitpacked" }
func (b BitPacked) Buffer() (buffer.Buffer, bool) { return b.packed, true }
func (b BitPacked) Metadata() []byte              { return nil }
func (b BitPacked) Statistics() *stats.Set        { return b.st }
func (b BitPacked) Width() int                    { return b.width }
func (b BitPacked) MinVal() scalar.Scalar         { return b.minVal }

func (b BitPacked) Children() []Array {
	if b.patches == nil {
		return nil
	}
	return []Array{*b.patches}
}

func (b BitPacked) NBytes() int64 {
	n := int64(b.packed.Len())
	if b.patches != nil {
		n += b.patches.NBytes()
	}
	return n
}

func (b BitPacked) getBits(i int) uint64 {
	return bitpackRead(b.packed.Bytes(), (b.rowOffset+i)*b.width, b.width)
}

func (b BitPacked) unshiftedValue(diff uint64) scalar.Scalar {
	switch {
	case b.ptype.IsSigned():
		return scalar.Int(b.ptype, b.minVal.AsInt()+int64(diff))
	default:
		return scalar.Uint(b.ptype, b.minVal.AsUint()+diff)
	}
}

func (b BitPacked) ScalarAt(i int) (scalar.Scalar, error) {
	if i < 0 || i >= b.length {
		return scalar.Scalar{}, errtax.OutOfBounds(i, 0, b.length)
	}
	if b.nullable && !b.valid.IsValid(i) {
		return scalar.Null(b.DType()), nil
	}
	if b.patches != nil {
		if j, ok := b.patches.findPatch(uint64(b.rowOffset + i)); ok {
			return b.patches.patchValues.ScalarAt(j)
		}
	}
	return b.unshiftedValue(b.getBits(i)), nil
}

// Slice keeps the packed buffer and patches shared, adjusting only the
// row offset and length — true O(metadata).
func (b BitPacked) Slice(start, stop int) Array {
	start, stop = clampSlice(start, stop, b.length)
	out := b
	out.rowOffset = b.rowOffset + start
	out.length = stop - start
	out.valid = b.valid.Slice(start, stop)
	out.st = stats.New()
	if b.patches != nil {
		sliced := b.patches.Slice(start, stop).(Patched)
		out.patches = &sliced
	}
	return out
}

func (b BitPacked) IntoCanonical() (Array, error) {
	vals := make([]scalar.Scalar, b.length)
	for i := 0; i < b.length; i++ {
		v, err := b.ScalarAt(i)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	return arrayFromScalars(b.DType(), vals)
}

// EncodeBitPacked implements width selection and packing for a
// canonical unsigned or signed Primitive. Nulls never count toward the
// bit-width histogram and are packed as 0.
func EncodeBitPacked(p Primitive) (Array, error) {
	if p.ptype.IsFloat() {
		return nil, errtax.InvalidArgument("bitpacked: ptype %s is not an integer type", p.ptype)
	}
	n := p.Len()
	if n == 0 {
		return BitPacked{ptype: p.ptype, nullable: p.nullable, minVal: scalar.Uint(p.ptype, 0), valid: validity.NewNonNullable(), st: stats.New()}, nil
	}

	minVal, haveMin := findMin(p)
	if !haveMin {
		// Every row is null: nothing to pack, everything decodes from
		// validity alone.
		return BitPacked{
			ptype: p.ptype, nullable: p.nullable, length: n,
			packed: buffer.Zeroed(0), minVal: scalar.Uint(p.ptype, 0),
			valid: p.valid, st: stats.New(),
		}, nil
	}

	W := p.ptype.BitWidth()
	diffs := make([]uint64, n)
	histogram := make([]int, W+1)
	for i := 0; i < n; i++ {
		if p.nullable && !p.valid.IsValid(i) {
			continue
		}
		diffs[i] = diffFromMin(p, i, minVal)
		histogram[bitsNeeded(diffs[i])]++
	}

	width, _ := chooseBitPackWidth(histogram, n, p.ptype.BitWidth()/8)

	packed := buffer.Zeroed(bitpackWriteWidth(n, width))
	pb := packed.Bytes()

	var patchIdx []uint64
	var patchVals []scalar.Scalar
	for i := 0; i < n; i++ {
		if p.nullable && !p.valid.IsValid(i) {
			continue
		}
		if bitsNeeded(diffs[i]) > width {
			patchIdx = append(patchIdx, uint64(i))
			v, err := p.ScalarAt(i)
			if err != nil {
				return nil, err
			}
			patchVals = append(patchVals, v)
			continue
		}
		bitpackWrite(pb, i*width, width, diffs[i])
	}

	bp := BitPacked{
		ptype: p.ptype, nullable: p.nullable, width: width, minVal: minVal,
		length: n, packed: packed, valid: p.valid, st: stats.New(),
	}
	if len(patchIdx) > 0 {
		idxArr := NewPrimitiveU64(patchIdx)
		valsArr, err := arrayFromScalars(p.DType(), patchVals)
		if err != nil {
			return nil, err
		}
		patches := NewPatched(zeroPlaceholder(p.DType(), n), idxArr, valsArr, 0)
		bp.patches = &patches
	}
	return bp, nil
}

// zeroPlaceholder stands in for Patched's required dense `data` array
// when the base values are never actually read through it (BitPacked
// always answers scalar_at from the packed stream itself, consulting
// patches only to override it, so the placeholder's content is never
// observed).
func zeroPlaceholder(dt dtype.DType, n int) Array {
	return NewConstant(scalar.Null(dt.WithNullability(true)), n)
}

func findMin(p Primitive) (scalar.Scalar, bool) {
	var min scalar.Scalar
	have := false
	for i := 0; i < p.Len(); i++ {
		if p.nullable && !p.valid.IsValid(i) {
			continue
		}
		v, _ := p.ScalarAt(i)
		if !have || scalar.Compare(v, min) < 0 {
			min = v
			have = true
		}
	}
	return min, have
}

func diffFromMin(p Primitive, i int, minVal scalar.Scalar) uint64 {
	if p.ptype.IsSigned() {
		return uint64(p.Int64At(i) - minVal.AsInt())
	}
	return p.Uint64At(i) - minVal.AsUint()
}

// chooseBitPackWidth minimizes
//
//	best = argmin_b ceil(b*N/8) + (sum_{k>b} h[k]) * ex
//
// tie-broken toward the smaller b.
func chooseBitPackWidth(histogram []int, n, origWidthBytes int) (int, int) {
	W := len(histogram) - 1
	ex := origWidthBytes + bitPackedIndexCost

	suffix := make([]int, W+2)
	for k := W; k >= 0; k-- {
		suffix[k] = suffix[k+1] + histogram[k]
	}

	bestB, bestCost, bestExc := 0, -1, 0
	for b := 0; b <= W; b++ {
		exceeding := suffix[b+1]
		cost := (b*n+7)/8 + exceeding*ex
		if bestCost < 0 || cost < bestCost {
			bestCost = cost
			bestB = b
			bestExc = exceeding
		}
	}
	return bestB, bestExc
}
