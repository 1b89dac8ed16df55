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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dolthub/vortex/dtype"
	"github.com/dolthub/vortex/scalar"
	"github.com/dolthub/vortex/validity"
)

// assertScalarsEqual walks a and b index by index, comparing through
// ScalarAt — the "scalar_at agrees with canonical form" property,
// spot-checked directly against an encoding rather than its
// canonicalization.
func assertScalarsEqual(t *testing.T, a, b Array) {
	t.Helper()
	require.Equal(t, a.Len(), b.Len())
	for i := 0; i < a.Len(); i++ {
		wa, err := a.ScalarAt(i)
		require.NoError(t, err)
		wb, err := b.ScalarAt(i)
		require.NoError(t, err)
		if wa.IsNull() {
			assert.True(t, wb.IsNull(), "row %d", i)
			continue
		}
		assert.Equal(t, 0, scalar.Compare(wa, wb), "row %d: %v vs %v", i, wa, wb)
	}
}

func TestPrimitiveScalarAtAndSlice(t *testing.T) {
	p := NewPrimitiveI64([]int64{10, 20, 30, 40, 50})
	require.Equal(t, 5, p.Len())

	v, err := p.ScalarAt(2)
	require.NoError(t, err)
	assert.Equal(t, int64(30), v.AsInt())

	sl := p.Slice(1, 4)
	assert.Equal(t, 3, sl.Len())
	v0, err := sl.ScalarAt(0)
	require.NoError(t, err)
	assert.Equal(t, int64(20), v0.AsInt())
}

func TestPrimitiveIntoCanonicalIsIdentity(t *testing.T) {
	p := NewPrimitiveI64([]int64{1, 2, 3})
	canon, err := p.IntoCanonical()
	require.NoError(t, err)
	assertScalarsEqual(t, p, canon)
}

func TestConstantRoundTrip(t *testing.T) {
	c := NewConstant(scalar.Int(dtype.I64, 7), 50)
	canon, err := c.IntoCanonical()
	require.NoError(t, err)
	require.Equal(t, 50, canon.Len())
	assertScalarsEqual(t, c, canon)

	sl := c.Slice(10, 20)
	assert.Equal(t, 10, sl.Len())
	v, err := sl.ScalarAt(0)
	require.NoError(t, err)
	assert.Equal(t, int64(7), v.AsInt())
}

func TestDictRoundTrip(t *testing.T) {
	words := []string{"a", "b", "a", "a", "c", "b"}
	v := NewUtf8FromStrings(words)

	d, err := EncodeDict(v)
	require.NoError(t, err)
	require.Equal(t, "vortex.dict", d.Encoding())
	assertScalarsEqual(t, v, d)

	canon, err := d.IntoCanonical()
	require.NoError(t, err)
	assertScalarsEqual(t, v, canon)
}

func TestDictSliceNarrowsCodesOnly(t *testing.T) {
	words := []string{"x", "y", "x", "z", "y"}
	v := NewUtf8FromStrings(words)
	d, err := EncodeDict(v)
	require.NoError(t, err)

	sl := d.Slice(1, 4)
	assert.Equal(t, 3, sl.Len())
	assertScalarsEqual(t, v.Slice(1, 4), sl)
}

func TestBitPackedRoundTrip(t *testing.T) {
	vals := make([]int64, 2000)
	for i := range vals {
		vals[i] = int64(i % 500)
	}
	p := NewPrimitiveI64(vals)

	enc, err := EncodeBitPacked(p)
	require.NoError(t, err)
	bp, ok := enc.(BitPacked)
	require.True(t, ok, "expected narrow-range ints to bitpack, got %s", enc.Encoding())
	assertScalarsEqual(t, p, bp)

	canon, err := bp.IntoCanonical()
	require.NoError(t, err)
	assertScalarsEqual(t, p, canon)

	sl := bp.Slice(5, 15)
	assertScalarsEqual(t, p.Slice(5, 15), sl)
}

func TestPatchedRoundTrip(t *testing.T) {
	base := NewConstant(scalar.Int(dtype.I64, 3), 10)
	idx := NewPrimitiveU64([]uint64{2, 7})
	vals := NewPrimitiveI64([]int64{100, -5})

	patched := NewPatched(base, idx, vals, 0)
	require.Equal(t, 10, patched.Len())

	v2, err := patched.ScalarAt(2)
	require.NoError(t, err)
	assert.Equal(t, int64(100), v2.AsInt())

	v7, err := patched.ScalarAt(7)
	require.NoError(t, err)
	assert.Equal(t, int64(-5), v7.AsInt())

	v0, err := patched.ScalarAt(0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), v0.AsInt())

	canon, err := patched.IntoCanonical()
	require.NoError(t, err)
	assertScalarsEqual(t, patched, canon)
}

// TestTryNewPatchedRejectsMismatchedLengths covers the deserialization
// path (array/serde.go): a corrupted file's patch_indices/patch_values
// must surface an error, not panic.
func TestTryNewPatchedRejectsMismatchedLengths(t *testing.T) {
	base := NewConstant(scalar.Int(dtype.I64, 3), 10)
	idx := NewPrimitiveU64([]uint64{2, 7})
	vals := NewPrimitiveI64([]int64{100})

	_, err := TryNewPatched(base, idx, vals, 0)
	require.Error(t, err)
}

// TestTryNewPatchedRejectsSignedIndices: patch_indices must be unsigned.
func TestTryNewPatchedRejectsSignedIndices(t *testing.T) {
	base := NewConstant(scalar.Int(dtype.I64, 3), 10)
	idx := NewPrimitiveI64([]int64{2, 7})
	vals := NewPrimitiveI64([]int64{100, -5})

	_, err := TryNewPatched(base, idx, vals, 0)
	require.Error(t, err)
}

func TestALPRoundTrip(t *testing.T) {
	vals := make([]float64, 500)
	for i := range vals {
		vals[i] = 1.5 + float64(i%100)*0.01
	}
	p := NewPrimitiveF64(vals)

	enc, err := EncodeALP(p)
	require.NoError(t, err)
	assertScalarsEqual(t, p, enc)

	canon, err := enc.IntoCanonical()
	require.NoError(t, err)
	assertScalarsEqual(t, p, canon)
}

func TestALPRDRoundTrip(t *testing.T) {
	vals := make([]float64, 500)
	for i := range vals {
		vals[i] = 3.14159265358979 * float64(i+1)
	}
	p := NewPrimitiveF64(vals)

	enc, err := EncodeALPRD(p)
	require.NoError(t, err)
	assertScalarsEqual(t, p, enc)

	canon, err := enc.IntoCanonical()
	require.NoError(t, err)
	assertScalarsEqual(t, p, canon)
}

func TestChunkedScalarAtAndSliceAcrossBoundaries(t *testing.T) {
	c1 := NewPrimitiveI64([]int64{1, 2, 3})
	c2 := NewPrimitiveI64([]int64{4, 5})
	c3 := NewPrimitiveI64([]int64{6, 7, 8, 9})
	ch := NewChunked(dtype.Primitive(dtype.I64, false), []Array{c1, c2, c3})

	require.Equal(t, 9, ch.Len())
	for i, want := range []int64{1, 2, 3, 4, 5, 6, 7, 8, 9} {
		v, err := ch.ScalarAt(i)
		require.NoError(t, err)
		assert.Equal(t, want, v.AsInt(), "row %d", i)
	}

	sl := ch.Slice(2, 7)
	assert.Equal(t, 5, sl.Len())
	for i, want := range []int64{3, 4, 5, 6, 7} {
		v, err := sl.ScalarAt(i)
		require.NoError(t, err)
		assert.Equal(t, want, v.AsInt(), "row %d", i)
	}
}

func TestChunkedIntoCanonicalConcatenates(t *testing.T) {
	c1 := NewPrimitiveI64([]int64{1, 2})
	c2 := NewPrimitiveI64([]int64{3, 4, 5})
	ch := NewChunked(dtype.Primitive(dtype.I64, false), []Array{c1, c2})

	canon, err := ch.IntoCanonical()
	require.NoError(t, err)
	require.Equal(t, 5, canon.Len())
	assertScalarsEqual(t, ch, canon)
}

func TestStructFieldAccessAndSlice(t *testing.T) {
	ints := NewPrimitiveI64([]int64{1, 2, 3, 4})
	words := NewUtf8FromStrings([]string{"a", "b", "c", "d"})
	s := NewStruct([]string{"n", "w"}, []Array{ints, words}, validity.NewNonNullable(), false)

	f, ok := s.Field("w")
	require.True(t, ok)
	v, err := f.ScalarAt(2)
	require.NoError(t, err)
	assert.Equal(t, "c", v.AsString())

	sl := s.Slice(1, 3)
	assert.Equal(t, 2, sl.Len())
	slStruct, ok := sl.(Struct)
	require.True(t, ok)
	nf, ok := slStruct.Field("n")
	require.True(t, ok)
	v0, err := nf.ScalarAt(0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), v0.AsInt())
}

func TestVarBinRoundTrip(t *testing.T) {
	vals := []string{"hello", "", "world longer string"}
	v := NewUtf8FromStrings(vals)
	for i, want := range vals {
		s, err := v.ScalarAt(i)
		require.NoError(t, err)
		assert.Equal(t, want, s.AsString(), "row %d", i)
	}
}

func TestNullArrayScalarAt(t *testing.T) {
	n := NewNull(5)
	for i := 0; i < 5; i++ {
		v, err := n.ScalarAt(i)
		require.NoError(t, err)
		assert.True(t, v.IsNull())
	}
}

func TestBoolRoundTrip(t *testing.T) {
	b := NewBoolFromSlice([]bool{true, false, true, true, false})
	for i, want := range []bool{true, false, true, true, false} {
		v, err := b.ScalarAt(i)
		require.NoError(t, err)
		assert.Equal(t, want, v.AsBool(), "row %d", i)
	}
}
