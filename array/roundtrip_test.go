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
)

func TestPatchedSliceOfSlice(t *testing.T) {
	data := make([]int64, 10)
	for i := range data {
		data[i] = int64(i)
	}
	patched := NewPatched(
		NewPrimitiveI64(data),
		NewPrimitiveU64([]uint64{2, 5, 8}),
		NewPrimitiveI64([]int64{100, 200, 300}),
		0,
	)

	canon, err := patched.IntoCanonical()
	require.NoError(t, err)
	want := []int64{0, 1, 100, 3, 4, 200, 6, 7, 300, 9}
	for i, w := range want {
		v, err := canon.ScalarAt(i)
		require.NoError(t, err)
		assert.Equal(t, w, v.AsInt(), "row %d", i)
	}

	checkWindow := func(a Array) {
		t.Helper()
		c, err := a.IntoCanonical()
		require.NoError(t, err)
		require.Equal(t, 5, c.Len())
		for i, w := range []int64{100, 3, 4, 200, 6} {
			v, err := c.ScalarAt(i)
			require.NoError(t, err)
			assert.Equal(t, w, v.AsInt(), "row %d", i)
		}
	}

	checkWindow(patched.Slice(2, 7))
	// Slicing a slice must compose: the window [1,6) of [1,8) is [2,7).
	checkWindow(patched.Slice(1, 8).Slice(1, 6))
}

func TestBitPackedNoPatchesU16(t *testing.T) {
	vals := make([]uint64, 10000)
	for i := range vals {
		vals[i] = uint64(i % 2047)
	}
	p := NewPrimitiveUnsigned(dtype.U16, vals)

	enc, err := EncodeBitPacked(p)
	require.NoError(t, err)
	bp, ok := enc.(BitPacked)
	require.True(t, ok)
	assert.Equal(t, 11, bp.Width())
	assert.Nil(t, bp.patches)

	for _, k := range []int{0, 1, 2046, 2047, 5000, 9999} {
		v, err := bp.ScalarAt(k)
		require.NoError(t, err)
		assert.Equal(t, uint64(k%2047), v.AsUint(), "row %d", k)
	}

	canon, err := bp.IntoCanonical()
	require.NoError(t, err)
	assertScalarsEqual(t, p, canon)
}

func TestBitPackedWithPatchesU32(t *testing.T) {
	n := 1<<16 + 128
	vals := make([]uint32, n)
	for i := range vals {
		vals[i] = uint32(i)
	}
	p := NewPrimitiveU32(vals)

	enc, err := EncodeBitPacked(p)
	require.NoError(t, err)
	bp, ok := enc.(BitPacked)
	require.True(t, ok)
	assert.Equal(t, 16, bp.Width())
	require.NotNil(t, bp.patches)
	assert.Equal(t, 128, bp.patches.patchIndices.Len())

	// The packed region and the patched tail must both decode to the
	// original values.
	for _, k := range []int{0, 1000, 1<<16 - 1, 1 << 16, 1<<16 + 64, n - 1} {
		v, err := bp.ScalarAt(k)
		require.NoError(t, err)
		assert.Equal(t, uint64(k), v.AsUint(), "row %d", k)
	}
}

func TestDictCodesFirstSightOrder(t *testing.T) {
	v := NewUtf8FromStrings([]string{"hello", "world", "hello", "again", "world"})
	d, err := EncodeDict(v)
	require.NoError(t, err)

	wantCodes := []uint64{0, 1, 0, 2, 1}
	require.Equal(t, len(wantCodes), d.Codes().Len())
	for i, w := range wantCodes {
		c, err := d.Codes().ScalarAt(i)
		require.NoError(t, err)
		assert.Equal(t, w, c.AsUint(), "code %d", i)
	}

	wantValues := []string{"hello", "world", "again"}
	require.Equal(t, len(wantValues), d.Values().Len())
	for i, w := range wantValues {
		s, err := d.Values().ScalarAt(i)
		require.NoError(t, err)
		assert.Equal(t, w, s.AsString(), "value %d", i)
	}

	assertScalarsEqual(t, v, d)
}

func TestALPLosslessSmallDecimals(t *testing.T) {
	p := NewPrimitiveF64([]float64{1.23, 1.23, 0.47, 9.99, 3.5})

	enc, err := EncodeALP(p)
	require.NoError(t, err)
	assertScalarsEqual(t, p, enc)

	v, err := enc.ScalarAt(2)
	require.NoError(t, err)
	assert.Equal(t, 0.47, v.AsFloat())
}

// TestTakeComposes checks take(take(A, i1), i2) == take(A, take(i1, i2))
// across a container encoding, where index translation is nontrivial.
func TestTakeComposes(t *testing.T) {
	c1 := NewPrimitiveI64([]int64{10, 11, 12})
	c2 := NewPrimitiveI64([]int64{13, 14, 15, 16})
	ch := NewChunked(dtype.Primitive(dtype.I64, false), []Array{c1, c2})

	idx1 := []int{6, 0, 3, 5, 1}
	idx2 := []int{4, 4, 0, 2}

	t1, err := Take(ch, idx1)
	require.NoError(t, err)
	lhs, err := Take(t1, idx2)
	require.NoError(t, err)

	composed := make([]int, len(idx2))
	for i, j := range idx2 {
		composed[i] = idx1[j]
	}
	rhs, err := Take(ch, composed)
	require.NoError(t, err)

	assertScalarsEqual(t, rhs, lhs)
}

// TestEncodedTreeSerdeRoundTrip drives the wire codec over trees with
// nested children, buffers, and metadata: a dictionary over strings and
// a bit-packed array with an exception side-channel.
func TestEncodedTreeSerdeRoundTrip(t *testing.T) {
	roundTrip := func(a Array) Array {
		t.Helper()
		vc, nodeBytes, buffers, err := EncodeArrayTree(a)
		require.NoError(t, err)
		back, err := DecodeArrayTree(vc, nodeBytes, buffers)
		require.NoError(t, err)
		require.True(t, back.DType().Equal(a.DType()), "dtype %s != %s", back.DType(), a.DType())
		require.Equal(t, a.Len(), back.Len())
		return back
	}

	dict, err := EncodeDict(NewUtf8FromStrings([]string{"a", "b", "a", "c"}))
	require.NoError(t, err)
	assertScalarsEqual(t, dict, roundTrip(dict))

	vals := make([]uint32, 300)
	for i := range vals {
		vals[i] = uint32(i % 7)
	}
	vals[17] = 1 << 30
	bp, err := EncodeBitPacked(NewPrimitiveU32(vals))
	require.NoError(t, err)
	require.IsType(t, BitPacked{}, bp)
	assertScalarsEqual(t, bp, roundTrip(bp))

	alp, err := EncodeALP(NewPrimitiveF64([]float64{0.5, 2.25, 0.5, 100.125}))
	require.NoError(t, err)
	assertScalarsEqual(t, alp, roundTrip(alp))

	c := NewConstant(scalar.Utf8("x"), 9)
	assertScalarsEqual(t, c, roundTrip(c))
}
