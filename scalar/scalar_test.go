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

package scalar_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dolthub/vortex/dtype"
	"github.com/dolthub/vortex/scalar"
)

func TestNullScalarIsNull(t *testing.T) {
	n := scalar.Null(dtype.Primitive(dtype.I64, false))
	assert.True(t, n.IsNull())
	assert.True(t, n.DType.IsNullable())
}

func TestCompareNullsLeast(t *testing.T) {
	a := scalar.Null(dtype.Primitive(dtype.I64, false))
	b := scalar.Int(dtype.I64, 5)
	assert.Equal(t, -1, scalar.Compare(a, b))
	assert.Equal(t, 1, scalar.Compare(b, a))
	assert.Equal(t, 0, scalar.Compare(a, a))
}

func TestCompareSignedInts(t *testing.T) {
	a := scalar.Int(dtype.I64, -5)
	b := scalar.Int(dtype.I64, 3)
	assert.Equal(t, -1, scalar.Compare(a, b))
}

func TestCompareUnsignedInts(t *testing.T) {
	a := scalar.Uint(dtype.U64, 1)
	b := scalar.Uint(dtype.U64, 2)
	assert.Equal(t, -1, scalar.Compare(a, b))
}

func TestCompareFloats(t *testing.T) {
	a := scalar.Float(dtype.F64, 1.5)
	b := scalar.Float(dtype.F64, 1.4)
	assert.Equal(t, 1, scalar.Compare(a, b))
}

func TestCompareStrings(t *testing.T) {
	a := scalar.Utf8("abc")
	b := scalar.Utf8("abd")
	assert.Equal(t, -1, scalar.Compare(a, b))
}

func TestCompareBools(t *testing.T) {
	assert.Equal(t, -1, scalar.Compare(scalar.Bool(false), scalar.Bool(true)))
	assert.Equal(t, 0, scalar.Compare(scalar.Bool(true), scalar.Bool(true)))
}

func TestAsAccessorsCoerce(t *testing.T) {
	i := scalar.Int(dtype.I64, -1)
	assert.Equal(t, uint64(1<<64-1), i.AsUint())

	u := scalar.Uint(dtype.U64, 7)
	assert.Equal(t, int64(7), u.AsInt())

	bin := scalar.Binary([]byte("hi"))
	assert.Equal(t, "hi", bin.AsString())
}

func TestStructScalarFields(t *testing.T) {
	dt := dtype.Struct([]string{"a"}, []dtype.DType{dtype.Primitive(dtype.I64, false)}, false)
	s := scalar.Struct(dt, []scalar.Scalar{scalar.Int(dtype.I64, 9)})
	fields := s.AsStructFields()
	assert.Len(t, fields, 1)
	assert.Equal(t, int64(9), fields[0].AsInt())
}
