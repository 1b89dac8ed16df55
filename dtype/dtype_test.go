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

package dtype_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dolthub/vortex/dtype"
	"github.com/dolthub/vortex/serial"
)

func TestWithNullabilityPreservesOtherFields(t *testing.T) {
	d := dtype.Primitive(dtype.I64, false)
	nullable := d.WithNullability(true)
	assert.True(t, nullable.IsNullable())
	assert.Equal(t, dtype.I64, nullable.Ptype())
	assert.False(t, d.IsNullable(), "original unchanged")
}

func TestStructFieldLookup(t *testing.T) {
	s := dtype.Struct([]string{"a", "b"}, []dtype.DType{
		dtype.Primitive(dtype.I64, false),
		dtype.Utf8(true),
	}, false)

	ft, ok := s.Field("b")
	require.True(t, ok)
	assert.Equal(t, dtype.KindUtf8, ft.Kind())
	assert.True(t, ft.IsNullable())

	_, ok = s.Field("missing")
	assert.False(t, ok)
}

func TestEqualRequiresMatchingNullability(t *testing.T) {
	a := dtype.Primitive(dtype.I64, false)
	b := dtype.Primitive(dtype.I64, true)
	assert.False(t, a.Equal(b))
	assert.True(t, a.EqualIgnoringNullability(b))
}

func TestListElem(t *testing.T) {
	l := dtype.List(dtype.Primitive(dtype.I32, false), true)
	assert.Equal(t, dtype.KindList, l.Kind())
	assert.Equal(t, dtype.KindPrimitive, l.Elem().Kind())
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := []dtype.DType{
		dtype.Null(),
		dtype.Bool(true),
		dtype.Primitive(dtype.F64, false),
		dtype.Utf8(true),
		dtype.Binary(false),
		dtype.Struct([]string{"x", "y"}, []dtype.DType{
			dtype.Primitive(dtype.I64, false),
			dtype.Bool(true),
		}, false),
		dtype.List(dtype.Primitive(dtype.U32, true), false),
	}
	for _, d := range cases {
		w := serial.NewWriter()
		dtype.Encode(w, d)
		r := serial.NewReader(w.Bytes())
		got, err := dtype.Decode(r)
		require.NoError(t, err)
		assert.True(t, d.Equal(got), "want %s got %s", d, got)
	}
}

func TestPtypeProperties(t *testing.T) {
	assert.True(t, dtype.I64.IsSigned())
	assert.False(t, dtype.U64.IsSigned())
	assert.True(t, dtype.F64.IsFloat())
	assert.False(t, dtype.I32.IsFloat())
	assert.Equal(t, 64, dtype.I64.BitWidth())
	assert.Equal(t, 32, dtype.F32.BitWidth())
}
