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
	"math"
	"sort"

	"github.com/dolthub/vortex/buffer"
	"github.com/dolthub/vortex/dtype"
	"github.com/dolthub/vortex/errtax"
	"github.com/dolthub/vortex/scalar"
	"github.com/dolthub/vortex/stats"
	"github.com/dolthub/vortex/validity"
)

// alprdMaxDictSize bounds the left-part dictionary at 8 codes.
const alprdMaxDictSize = 8

// ALPRD is the real-double split encoding, used for floats
// whose integer projection (ALP) doesn't compress well: each value's bit
// pattern is split at a chosen bit into a dictionary-coded `left` part
// and a bit-packed `right` part.
type ALPRD struct {
	ptype      dtype.Ptype
	nullable   bool
	length     int
	rightWidth int // BITS - leftWidth
	leftWidth  int
	dict       []uint16 // code -> left bit pattern, len <= 8
	leftCodes  Array    // u8, one code per row
	exceptions *Patched // Sparse(u16): rows whose left pattern missed the dictionary
	right      buffer.Buffer
	rowOffset  int
	valid      validity.Validity
	st         *stats.Set
}

func (a ALPRD) DType() dtype.DType            { return dtype.Primitive(a.ptype, a.nullable) }
func (a ALPRD) Len() int                      { return a.length }
func (a ALPRD) IsEmpty() bool                 { return a.length == 0 }
func (a ALPRD) Encoding() string              { return "vortex.alprd" }
func (a ALPRD) Buffer() (buffer.Buffer, bool) { return a.right, true }
func (a ALPRD) Metadata() []byte              { return nil }
func (a ALPRD) Statistics() *stats.Set        { return a.st }

func (a ALPRD) Children() []Array {
	cs := []Array{a.leftCodes}
	if a.exceptions != nil {
		cs = append(cs, *a.exceptions)
	}
	return cs
}

func (a ALPRD) NBytes() int64 {
	n := int64(a.right.Len()) + a.leftCodes.NBytes()
	if a.exceptions != nil {
		n += a.exceptions.NBytes()
	}
	return n
}

func (a ALPRD) bitWidth() int { return a.ptype.BitWidth() }

func (a ALPRD) leftPatternAt(i int) uint64 {
	codeS, _ := a.leftCodes.ScalarAt(i)
	code := int(codeS.AsUint())
	pattern := uint64(0)
	if code < len(a.dict) {
		pattern = uint64(a.dict[code])
	}
	if a.exceptions != nil {
		if j, ok := a.exceptions.findPatch(uint64(a.rowOffset + i)); ok {
			v, _ := a.exceptions.patchValues.ScalarAt(j)
			pattern = v.AsUint()
		}
	}
	return pattern
}

func (a ALPRD) ScalarAt(i int) (scalar.Scalar, error) {
	if i < 0 || i >= a.length {
		return scalar.Scalar{}, errtax.OutOfBounds(i, 0, a.length)
	}
	if a.nullable && !a.valid.IsValid(i) {
		return scalar.Null(a.DType()), nil
	}
	left := a.leftPatternAt(i)
	right := bitpackRead(a.right.Bytes(), (a.rowOffset+i)*a.rightWidth, a.rightWidth)
	full := (left << uint(a.rightWidth)) | right
	if a.ptype == dtype.F32 {
		return scalar.Float(a.ptype, float64(math.Float32frombits(uint32(full)))), nil
	}
	return scalar.Float(a.ptype, math.Float64frombits(full)), nil
}

func (a ALPRD) Slice(start, stop int) Array {
	start, stop = clampSlice(start, stop, a.length)
	out := a
	out.length = stop - start
	out.rowOffset = a.rowOffset + start
	out.leftCodes = a.leftCodes.Slice(start, stop)
	out.valid = a.valid.Slice(start, stop)
	out.st = stats.New()
	if a.exceptions != nil {
		sliced := a.exceptions.Slice(start, stop).(Patched)
		out.exceptions = &sliced
	}
	return out
}

func (a ALPRD) IntoCanonical() (Array, error) {
	vals := make([]scalar.Scalar, a.length)
	for i := 0; i < a.length; i++ {
		v, err := a.ScalarAt(i)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	return arrayFromScalars(a.DType(), vals)
}

// EncodeALPRD runs the dictionary-fitting search and splits each value.
func EncodeALPRD(p Primitive) (Array, error) {
	if !p.ptype.IsFloat() {
		return nil, errtax.InvalidArgument("alprd: ptype %s is not a float type", p.ptype)
	}
	bits := p.ptype.BitWidth()
	n := p.Len()
	if n == 0 {
		return ALPRD{ptype: p.ptype, nullable: p.nullable, leftCodes: NewPrimitiveUnsigned(dtype.U8, nil), right: buffer.Zeroed(0), valid: validity.NewNonNullable(), st: stats.New()}, nil
	}

	bitPatterns := make([]uint64, n)
	for i := 0; i < n; i++ {
		if p.nullable && !p.valid.IsValid(i) {
			continue
		}
		bitPatterns[i] = rawBits(p.ptype, p.Float64At(i))
	}

	leftWidth := chooseALPRDLeftWidth(p, bitPatterns, bits)
	rightWidth := bits - leftWidth

	freq := make(map[uint64]int)
	for i := 0; i < n; i++ {
		if p.nullable && !p.valid.IsValid(i) {
			continue
		}
		left := bitPatterns[i] >> uint(rightWidth)
		freq[left]++
	}
	dictPatterns := topPatterns(freq, alprdMaxDictSize)
	codeOf := make(map[uint64]int, len(dictPatterns))
	dict := make([]uint16, len(dictPatterns))
	for code, pat := range dictPatterns {
		codeOf[pat] = code
		dict[code] = uint16(pat)
	}

	codes := make([]uint64, n)
	var excIdx []uint64
	var excVals []scalar.Scalar
	rightBuf := buffer.Zeroed(bitpackWriteWidth(n, rightWidth))
	rb := rightBuf.Bytes()
	for i := 0; i < n; i++ {
		if p.nullable && !p.valid.IsValid(i) {
			continue
		}
		full := bitPatterns[i]
		right := full & ((uint64(1) << uint(rightWidth)) - 1)
		bitpackWrite(rb, i*rightWidth, rightWidth, right)
		left := full >> uint(rightWidth)
		if code, ok := codeOf[left]; ok {
			codes[i] = uint64(code)
		} else {
			excIdx = append(excIdx, uint64(i))
			excVals = append(excVals, scalar.Uint(dtype.U16, left))
		}
	}

	leftCodes := NewPrimitiveUnsigned(dtype.U8, codes)

	out := ALPRD{
		ptype: p.ptype, nullable: p.nullable, length: n,
		rightWidth: rightWidth, leftWidth: leftWidth, dict: dict,
		leftCodes: leftCodes, right: rightBuf, valid: p.valid, st: stats.New(),
	}
	if len(excIdx) > 0 {
		idxArr := NewPrimitiveU64(excIdx)
		valsArr, err := arrayFromScalars(dtype.Primitive(dtype.U16, false), excVals)
		if err != nil {
			return nil, err
		}
		exc := NewPatched(zeroPlaceholder(dtype.Primitive(dtype.U16, true), n), idxArr, valsArr, 0)
		out.exceptions = &exc
	}
	return out, nil
}

func rawBits(p dtype.Ptype, v float64) uint64 {
	if p == dtype.F32 {
		return uint64(math.Float32bits(float32(v)))
	}
	return math.Float64bits(v)
}

// topPatterns returns up to max of the most frequent keys in freq,
// ordered descending by count then ascending by pattern for
// determinism, each assigned its position as its dictionary code.
func topPatterns(freq map[uint64]int, max int) []uint64 {
	keys := make([]uint64, 0, len(freq))
	for k := range freq {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if freq[keys[i]] != freq[keys[j]] {
			return freq[keys[i]] > freq[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if len(keys) > max {
		keys = keys[:max]
	}
	return keys
}

// chooseALPRDLeftWidth sweeps p (candidate left
// bit widths), estimating average per-value cost as
// right_bw + left_bw + exceptions*(32/N) and picking the minimum.
func chooseALPRDLeftWidth(p Primitive, bitPatterns []uint64, bits int) int {
	n := len(bitPatterns)
	bestP, bestCost := 1, -1.0
	maxLeft := bits
	if maxLeft > 16 {
		maxLeft = 16
	}
	for left := 1; left <= maxLeft; left++ {
		right := bits - left
		freq := make(map[uint64]int)
		valid := 0
		for i := 0; i < n; i++ {
			if p.nullable && !p.valid.IsValid(i) {
				continue
			}
			freq[bitPatterns[i]>>uint(right)]++
			valid++
		}
		dictSize := len(freq)
		if dictSize > alprdMaxDictSize {
			dictSize = alprdMaxDictSize
		}
		top := topPatterns(freq, alprdMaxDictSize)
		inDict := make(map[uint64]bool, len(top))
		for _, t := range top {
			inDict[t] = true
		}
		exc := 0
		for i := 0; i < n; i++ {
			if p.nullable && !p.valid.IsValid(i) {
				continue
			}
			if !inDict[bitPatterns[i]>>uint(right)] {
				exc++
			}
		}
		leftBW := 1
		if dictSize > 1 {
			leftBW = bitsNeeded(uint64(dictSize - 1))
		}
		denom := float64(n)
		if denom == 0 {
			denom = 1
		}
		cost := float64(right) + float64(leftBW) + float64(exc)*32.0/denom
		if bestCost < 0 || cost < bestCost {
			bestCost = cost
			bestP = left
		}
	}
	return bestP
}
