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

	"github.com/dolthub/vortex/buffer"
	"github.com/dolthub/vortex/dtype"
	"github.com/dolthub/vortex/errtax"
	"github.com/dolthub/vortex/scalar"
	"github.com/dolthub/vortex/stats"
	"github.com/dolthub/vortex/validity"
)

// alpMaxExponent bounds the exponent search per float width.
func alpMaxExponent(p dtype.Ptype) int {
	if p == dtype.F32 {
		return 10
	}
	return 18
}

// ALP is the adaptive lossless float encoding: each value is
// stored as round(v * 10^(e-f)) in a signed integer of matching width,
// with values that don't round-trip exactly recorded as patches.
type ALP struct {
	ptype    dtype.Ptype // F32 or F64
	nullable bool
	length   int
	e, f     int
	encoded  Array // I32 (for F32) or I64 (for F64)
	patches  *Patched
	valid    validity.Validity
	st       *stats.Set
}

func (a ALP) DType() dtype.DType            { return dtype.Primitive(a.ptype, a.nullable) }
func (a ALP) Len() int                      { return a.length }
func (a ALP) IsEmpty() bool                 { return a.length == 0 }
func (a ALP) Encoding() string              { return "vortex.alp" }
func (a ALP) Buffer() (buffer.Buffer, bool) { return buffer.Buffer{}, false }
func (a ALP) Metadata() []byte              { return nil }
func (a ALP) Statistics() *stats.Set        { return a.st }
func (a ALP) Exponents() (e, f int)         { return a.e, a.f }

func (a ALP) Children() []Array {
	cs := []Array{a.encoded}
	if a.patches != nil {
		cs = append(cs, *a.patches)
	}
	return cs
}

func (a ALP) NBytes() int64 {
	n := a.encoded.NBytes()
	if a.patches != nil {
		n += a.patches.NBytes()
	}
	return n
}

func (a ALP) decodeOne(i int) float64 {
	enc, _ := a.encoded.ScalarAt(i)
	return float64(enc.AsInt()) * math.Pow10(a.f-a.e)
}

func (a ALP) ScalarAt(i int) (scalar.Scalar, error) {
	if i < 0 || i >= a.length {
		return scalar.Scalar{}, errtax.OutOfBounds(i, 0, a.length)
	}
	if a.nullable && !a.valid.IsValid(i) {
		return scalar.Null(a.DType()), nil
	}
	if a.patches != nil {
		if j, ok := a.patches.findPatch(uint64(i + a.patches.offset)); ok {
			return a.patches.patchValues.ScalarAt(j)
		}
	}
	return floatScalar(a.ptype, a.decodeOne(i)), nil
}

func floatScalar(p dtype.Ptype, v float64) scalar.Scalar {
	if p == dtype.F32 {
		return scalar.Float(p, float64(float32(v)))
	}
	return scalar.Float(p, v)
}

func (a ALP) Slice(start, stop int) Array {
	start, stop = clampSlice(start, stop, a.length)
	out := a
	out.length = stop - start
	out.encoded = a.encoded.Slice(start, stop)
	out.valid = a.valid.Slice(start, stop)
	out.st = stats.New()
	if a.patches != nil {
		sliced := a.patches.Slice(start, stop).(Patched)
		out.patches = &sliced
	}
	return out
}

func (a ALP) IntoCanonical() (Array, error) {
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

// EncodeALP performs an exponent search over a small equally
// spaced sample, then full-data encode with fill-value substitution at
// patched positions so the encoded stream stays compressible downstream.
func EncodeALP(p Primitive) (Array, error) {
	if !p.ptype.IsFloat() {
		return nil, errtax.InvalidArgument("alp: ptype %s is not a float type", p.ptype)
	}
	n := p.Len()
	encPtype := dtype.I32
	if p.ptype == dtype.F64 {
		encPtype = dtype.I64
	}
	if n == 0 {
		var emptyEnc Array = NewPrimitiveI64(nil)
		if encPtype == dtype.I32 {
			emptyEnc = packI32(nil)
		}
		return ALP{ptype: p.ptype, nullable: p.nullable, encoded: emptyEnc, valid: validity.NewNonNullable(), st: stats.New()}, nil
	}

	samples := sampleValidFloats(p, 32)
	maxExp := alpMaxExponent(p.ptype)
	e, f := chooseALPParams(samples, maxExp, p.ptype)

	encoded := make([]int64, n)
	var patchIdx []uint64
	var patchVals []scalar.Scalar
	scale := math.Pow10(e - f)
	invScale := math.Pow10(f - e)
	firstGood := int64(0)
	haveGood := false
	for i := 0; i < n; i++ {
		if p.nullable && !p.valid.IsValid(i) {
			continue
		}
		v := p.Float64At(i)
		enc := int64(math.Round(v * scale))
		dec := float64(enc) * invScale
		// An F32 code outside the int32 range would be truncated by
		// packI32, so it is patched like any other non-round-trip value.
		fitsEnc := encPtype != dtype.I32 || (enc >= math.MinInt32 && enc <= math.MaxInt32)
		if fitsEnc && roundTripsExactly(p.ptype, v, dec) {
			encoded[i] = enc
			if !haveGood {
				firstGood = enc
				haveGood = true
			}
			continue
		}
		patchIdx = append(patchIdx, uint64(i))
		patchVals = append(patchVals, floatScalar(p.ptype, v))
	}
	// Fill-value substitution: patched slots get the first
	// non-patched encoded value instead of whatever round() produced, so
	// they don't introduce spurious width in downstream bit-packing.
	for _, idx := range patchIdx {
		encoded[idx] = firstGood
	}

	var encArr Array
	if encPtype == dtype.I32 {
		encArr = packI32(encoded)
	} else {
		encArr = NewPrimitiveI64(encoded)
	}

	alp := ALP{ptype: p.ptype, nullable: p.nullable, length: n, e: e, f: f, encoded: encArr, valid: p.valid, st: stats.New()}
	if len(patchIdx) > 0 {
		idxArr := NewPrimitiveU64(patchIdx)
		valsArr, err := arrayFromScalars(p.DType(), patchVals)
		if err != nil {
			return nil, err
		}
		patches := NewPatched(zeroPlaceholder(p.DType(), n), idxArr, valsArr, 0)
		alp.patches = &patches
	}
	return alp, nil
}

func packI32(vals []int64) Array {
	buf := buffer.Zeroed(len(vals) * 4)
	bs := buf.Bytes()
	for i, v := range vals {
		u := uint32(int32(v))
		bs[i*4] = byte(u)
		bs[i*4+1] = byte(u >> 8)
		bs[i*4+2] = byte(u >> 16)
		bs[i*4+3] = byte(u >> 24)
	}
	return NewPrimitive(dtype.I32, false, len(vals), buf, validity.NewNonNullable())
}

func roundTripsExactly(p dtype.Ptype, original, decoded float64) bool {
	if p == dtype.F32 {
		return float32(original) == float32(decoded)
	}
	return original == decoded
}

func sampleValidFloats(p Primitive, max int) []float64 {
	var idx []int
	for i := 0; i < p.Len(); i++ {
		if p.nullable && !p.valid.IsValid(i) {
			continue
		}
		idx = append(idx, i)
	}
	if len(idx) == 0 {
		return nil
	}
	if len(idx) <= max {
		out := make([]float64, len(idx))
		for k, i := range idx {
			out[k] = p.Float64At(i)
		}
		return out
	}
	out := make([]float64, max)
	step := float64(len(idx)-1) / float64(max-1)
	for k := 0; k < max; k++ {
		out[k] = p.Float64At(idx[int(float64(k)*step)])
	}
	return out
}

// alpPatchByteCost is the estimated per-exception cost: one value of
// the float's own width plus a u16 position — 6 bytes for f32, 10 for
// f64.
func alpPatchByteCost(p dtype.Ptype) float64 {
	if p == dtype.F32 {
		return 4 + 2
	}
	return 8 + 2
}

// chooseALPParams runs the exponent search over the sample,
// minimizing estimated size with ties broken toward a smaller e-f.
func chooseALPParams(samples []float64, maxExp int, ptype dtype.Ptype) (e, f int) {
	bestE, bestF := 1, 0
	bestCost := -1.0
	for e := 1; e < maxExp; e++ {
		for f := 0; f < e; f++ {
			cost, ok := alpCandidateCost(samples, e, f, ptype)
			if !ok {
				continue
			}
			if bestCost < 0 || cost < bestCost || (cost == bestCost && (e-f) < (bestE-bestF)) {
				bestCost = cost
				bestE, bestF = e, f
			}
		}
	}
	return bestE, bestF
}

func alpCandidateCost(samples []float64, e, f int, ptype dtype.Ptype) (float64, bool) {
	if len(samples) == 0 {
		return 0, false
	}
	scale := math.Pow10(e - f)
	invScale := math.Pow10(f - e)
	var minEnc, maxEnc int64
	first := true
	patches := 0
	for _, v := range samples {
		enc := int64(math.Round(v * scale))
		dec := float64(enc) * invScale
		if dec != v {
			patches++
		}
		if first {
			minEnc, maxEnc = enc, enc
			first = false
		} else {
			if enc < minEnc {
				minEnc = enc
			}
			if enc > maxEnc {
				maxEnc = enc
			}
		}
	}
	rng := uint64(maxEnc - minEnc)
	bits := bitsNeeded(rng)
	if bits == 0 {
		bits = 1
	}
	cost := math.Ceil(float64(len(samples))*float64(bits)) / 8
	cost += float64(patches) * alpPatchByteCost(ptype)
	return cost, true
}
