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
	"encoding/binary"
	"math"

	"github.com/dolthub/vortex/buffer"
	"github.com/dolthub/vortex/dtype"
	"github.com/dolthub/vortex/errtax"
	"github.com/dolthub/vortex/scalar"
	"github.com/dolthub/vortex/stats"
	"github.com/dolthub/vortex/validity"
)

// Constant is the simplest encoding: a single scalar repeated
// length times, O(1) in memory regardless of length.
type Constant struct {
	value  scalar.Scalar
	length int
	st     *stats.Set
}

// NewConstant seeds the statistics set eagerly, since every statistic
// is trivially derivable from the scalar and length alone: Min/Max
// equal the value, IsConstant is always true, RunCount is 1, NullCount
// is either 0 or length.
func NewConstant(v scalar.Scalar, length int) Constant {
	c := Constant{value: v, length: length, st: stats.New()}
	c.st.Set(stats.IsConstant, scalar.Bool(true))
	if length > 0 {
		c.st.Set(stats.IsSorted, scalar.Bool(true))
		c.st.Set(stats.RunCount, scalar.Uint(dtype.U64, 1))
		if v.IsNull() {
			c.st.Set(stats.NullCount, scalar.Uint(dtype.U64, uint64(length)))
		} else {
			c.st.Set(stats.Min, v)
			c.st.Set(stats.Max, v)
			c.st.Set(stats.NullCount, scalar.Uint(dtype.U64, 0))
		}
		c.st.Set(stats.IsStrictSorted, scalar.Bool(length <= 1))
	}
	return c
}

func (c Constant) DType() dtype.DType            { return c.value.DType }
func (c Constant) Len() int                      { return c.length }
func (c Constant) IsEmpty() bool                 { return c.length == 0 }
func (c Constant) Encoding() string              { return "vortex.constant" }
func (c Constant) Children() []Array             { return nil }
func (c Constant) Buffer() (buffer.Buffer, bool) { return buffer.Buffer{}, false }
func (c Constant) Metadata() []byte              { return nil }
func (c Constant) Statistics() *stats.Set        { return c.st }
func (c Constant) NBytes() int64                 { return 0 }
func (c Constant) Value() scalar.Scalar          { return c.value }

func (c Constant) Slice(start, stop int) Array {
	start, stop = clampSlice(start, stop, c.length)
	return NewConstant(c.value, stop-start)
}

func (c Constant) ScalarAt(i int) (scalar.Scalar, error) {
	if i < 0 || i >= c.length {
		return scalar.Scalar{}, errtax.OutOfBounds(i, 0, c.length)
	}
	return c.value, nil
}

// bitmapOrNonNullable builds a Bitmap validity from a per-row valid
// slice, unless the dtype isn't nullable at all, in which case every
// slot is necessarily valid and NonNullable is the right carrier.
func bitmapOrNonNullable(nullable bool, valid []bool) validity.Validity {
	if !nullable {
		return validity.NewNonNullable()
	}
	return validity.NewBitmap(NewBoolFromSlice(valid))
}

// IntoCanonical materializes length copies of value into the dtype's
// canonical physical form.
func (c Constant) IntoCanonical() (Array, error) {
	nullable := c.DType().IsNullable()
	isNull := c.value.IsNull()
	valid := make([]bool, c.length)
	for i := range valid {
		valid[i] = !isNull
	}

	switch c.DType().Kind() {
	case dtype.KindNull:
		return NewNull(c.length), nil
	case dtype.KindBool:
		bits := make([]bool, c.length)
		if !isNull {
			v := c.value.AsBool()
			for i := range bits {
				bits[i] = v
			}
		}
		packed := NewBoolFromSlice(bits)
		return NewBool(c.length, packed.packed, bitmapOrNonNullable(nullable, valid), nullable), nil
	case dtype.KindPrimitive:
		return c.canonicalizePrimitive(nullable, valid), nil
	case dtype.KindUtf8:
		vals := make([]string, c.length)
		if !isNull {
			s := c.value.AsString()
			for i := range vals {
				vals[i] = s
			}
		}
		v := NewUtf8FromStrings(vals)
		return NewVarBin(true, nullable, v.offsets, v.data, bitmapOrNonNullable(nullable, valid)), nil
	case dtype.KindBinary:
		vals := make([][]byte, c.length)
		if !isNull {
			b := c.value.AsBytes()
			for i := range vals {
				vals[i] = b
			}
		}
		v := NewBinaryFromBytes(vals)
		return NewVarBin(false, nullable, v.offsets, v.data, bitmapOrNonNullable(nullable, valid)), nil
	case dtype.KindStruct:
		names := c.DType().FieldNames()
		var fieldScalars []scalar.Scalar
		if !isNull {
			fieldScalars = c.value.AsStructFields()
		}
		fieldTypes := c.DType().FieldTypes()
		fields := make([]Array, len(fieldTypes))
		for i, ft := range fieldTypes {
			var fv scalar.Scalar
			if isNull {
				fv = scalar.Null(ft)
			} else {
				fv = fieldScalars[i]
			}
			canon, err := NewConstant(fv, c.length).IntoCanonical()
			if err != nil {
				return nil, err
			}
			fields[i] = canon
		}
		return NewStruct(names, fields, bitmapOrNonNullable(nullable, valid), nullable), nil
	default:
		return nil, errtax.NotImplemented("into_canonical", c.Encoding())
	}
}

// canonicalizePrimitive packs length copies of the scalar's bit pattern
// directly at the dtype's own byte width, rather than routing through
// one of the fixed-width NewPrimitiveXxx helpers (which always assume a
// specific Go numeric type's width).
func (c Constant) canonicalizePrimitive(nullable bool, valid []bool) Array {
	p := c.DType().Ptype()
	w := p.BitWidth() / 8
	buf := buffer.Zeroed(c.length * w)
	bs := buf.Bytes()
	if !c.value.IsNull() {
		var bits uint64
		switch {
		case p.IsFloat():
			if p == dtype.F32 {
				bits = uint64(math.Float32bits(float32(c.value.AsFloat())))
			} else {
				bits = math.Float64bits(c.value.AsFloat())
			}
		case p.IsSigned():
			bits = uint64(c.value.AsInt())
		default:
			bits = c.value.AsUint()
		}
		for i := 0; i < c.length; i++ {
			off := i * w
			switch w {
			case 1:
				bs[off] = byte(bits)
			case 2:
				binary.LittleEndian.PutUint16(bs[off:], uint16(bits))
			case 4:
				binary.LittleEndian.PutUint32(bs[off:], uint32(bits))
			default:
				binary.LittleEndian.PutUint64(bs[off:], bits)
			}
		}
	}
	return NewPrimitive(p, nullable, c.length, buf, bitmapOrNonNullable(nullable, valid))
}
