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

package compress

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dolthub/vortex/array"
	"github.com/dolthub/vortex/dtype"
	"github.com/dolthub/vortex/scalar"
	"github.com/dolthub/vortex/validity"
)

// assertRoundTrip checks the core compressor contract: canonicalizing the
// compressed output must equal canonicalizing the input, and dtype/len
// must be preserved.
func assertRoundTrip(t *testing.T, original, compressed array.Array) {
	t.Helper()
	require.Equal(t, original.Len(), compressed.Len())
	require.True(t, original.DType().Equal(compressed.DType()))

	wantCanon, err := original.IntoCanonical()
	require.NoError(t, err)
	gotCanon, err := compressed.IntoCanonical()
	require.NoError(t, err)
	require.Equal(t, wantCanon.Len(), gotCanon.Len())
	for i := 0; i < wantCanon.Len(); i++ {
		want, err := wantCanon.ScalarAt(i)
		require.NoError(t, err)
		got, err := gotCanon.ScalarAt(i)
		require.NoError(t, err)
		if want.IsNull() {
			assert.True(t, got.IsNull(), "row %d", i)
			continue
		}
		assert.Equal(t, 0, scalar.Compare(want, got), "row %d: want %v got %v", i, want, got)
	}
}

func TestCompressConstantArray(t *testing.T) {
	vals := make([]int64, 500)
	for i := range vals {
		vals[i] = 42
	}
	p := array.NewPrimitiveI64(vals)

	ctx := New()
	out, err := ctx.Compress(p, nil)
	require.NoError(t, err)
	assert.Equal(t, "vortex.constant", out.Array.Encoding())
	assertRoundTrip(t, p, out.Array)
}

func TestCompressSparseArray(t *testing.T) {
	n := 4096
	vals := make([]int64, n)
	for i := range vals {
		vals[i] = 7
	}
	vals[10] = 100
	vals[2000] = -5
	vals[4000] = 999
	p := array.NewPrimitiveI64(vals)

	ctx := New(WithSampleSize(64), WithSampleCount(8))
	out, err := ctx.Compress(p, nil)
	require.NoError(t, err)
	assertRoundTrip(t, p, out.Array)
}

func TestCompressDictionaryFriendlyStrings(t *testing.T) {
	words := []string{"hello", "world", "hello", "again", "world", "hello"}
	vals := make([]string, 0, 6000)
	for i := 0; i < 1000; i++ {
		vals = append(vals, words...)
	}
	v := array.NewUtf8FromStrings(vals)

	ctx := New()
	out, err := ctx.Compress(v, nil)
	require.NoError(t, err)
	assert.Equal(t, "vortex.dict", out.Array.Encoding())
	assertRoundTrip(t, v, out.Array)
}

func TestCompressBitPackedNarrowInts(t *testing.T) {
	n := 10000
	vals := make([]int64, n)
	for i := range vals {
		vals[i] = int64(i % 2047)
	}
	p := array.NewPrimitiveI64(vals)

	ctx := New(WithSampleSize(256), WithSampleCount(4))
	out, err := ctx.Compress(p, nil)
	require.NoError(t, err)
	assertRoundTrip(t, p, out.Array)
}

func TestCompressALPFloats(t *testing.T) {
	vals := make([]float64, 2000)
	for i := range vals {
		vals[i] = 1.23
	}
	vals[1] = 0.47
	vals[2] = 9.99
	vals[3] = 3.5
	p := array.NewPrimitiveF64(vals)

	ctx := New()
	out, err := ctx.Compress(p, nil)
	require.NoError(t, err)
	assertRoundTrip(t, p, out.Array)
}

func TestCompressStructRecursesPerField(t *testing.T) {
	n := 300
	ints := make([]int64, n)
	words := make([]string, n)
	for i := range ints {
		ints[i] = int64(i % 3)
		words[i] = "x"
	}
	a := array.NewPrimitiveI64(ints)
	b := array.NewUtf8FromStrings(words)
	s := array.NewStruct([]string{"a", "b"}, []array.Array{a, b}, validity.NewNonNullable(), false)

	ctx := New()
	out, err := ctx.Compress(s, nil)
	require.NoError(t, err)
	assert.Equal(t, "vortex.struct", out.Array.Encoding())
	require.NotNil(t, out.Tree)
	assert.Len(t, out.Tree.Children, 2)
	assertRoundTrip(t, s, out.Array)
}

func TestCompressChunkedRecursesPerChunk(t *testing.T) {
	vals1 := make([]int64, 200)
	vals2 := make([]int64, 200)
	for i := range vals1 {
		vals1[i] = 1
		vals2[i] = int64(i)
	}
	c := array.NewChunked(dtype.Primitive(dtype.I64, false), []array.Array{
		array.NewPrimitiveI64(vals1), array.NewPrimitiveI64(vals2),
	})

	ctx := New()
	out, err := ctx.Compress(c, nil)
	require.NoError(t, err)
	assert.Equal(t, "vortex.chunked", out.Array.Encoding())
	assertRoundTrip(t, c, out.Array)
}

func TestCompressTemplateReplay(t *testing.T) {
	vals := make([]int64, 5000)
	for i := range vals {
		vals[i] = int64(i % 100)
	}
	p := array.NewPrimitiveI64(vals)

	ctx := New()
	first, err := ctx.Compress(p, nil)
	require.NoError(t, err)
	require.NotNil(t, first.Tree)

	second := make([]int64, 5000)
	for i := range second {
		second[i] = int64((i + 1) % 100)
	}
	p2 := array.NewPrimitiveI64(second)
	replayed, err := ctx.Compress(p2, first.Tree)
	require.NoError(t, err)
	assert.Equal(t, first.Array.Encoding(), replayed.Array.Encoding())
	assertRoundTrip(t, p2, replayed.Array)
}

func TestCompressEmptyArray(t *testing.T) {
	p := array.NewPrimitiveI64(nil)
	ctx := New()
	out, err := ctx.Compress(p, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, out.Array.Len())
}
