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

// Primitive is the canonical fixed-width numeric form: a typed
// buffer of ptype.BitWidth()/8 bytes per element, plus validity.
type Primitive struct {
	ptype    dtype.Ptype
	nullable bool
	offset   int
	length   int
	data     buffer.Buffer
	valid    validity.Validity
	st       *stats.Set
}

func NewPrimitive(p dtype.Ptype, nullable bool, length int, data buffer.Buffer, v validity.Validity) Primitive {
	return Primitive{ptype: p, nullable: nullable, length: length, data: data, valid: v, st: stats.New()}
}

// NewPrimitiveU64 builds a non-nullable u64 Primitive from a plain slice,
// used pervasively for chunk-end offsets, dictionary codes, etc.
func NewPrimitiveU64(vals []uint64) Primitive {
	buf := buffer.Zeroed(len(vals) * 8)
	bs := buf.Bytes()
	for i, v := range vals {
		binary.LittleEndian.PutUint64(bs[i*8:], v)
	}
	return NewPrimitive(dtype.U64, false, len(vals), buf, validity.NewNonNullable())
}

func NewPrimitiveU32(vals []uint32) Primitive {
	buf := buffer.Zeroed(len(vals) * 4)
	bs := buf.Bytes()
	for i, v := range vals {
		binary.LittleEndian.PutUint32(bs[i*4:], v)
	}
	return NewPrimitive(dtype.U32, false, len(vals), buf, validity.NewNonNullable())
}

func NewPrimitiveI64(vals []int64) Primitive {
	buf := buffer.Zeroed(len(vals) * 8)
	bs := buf.Bytes()
	for i, v := range vals {
		binary.LittleEndian.PutUint64(bs[i*8:], uint64(v))
	}
	return NewPrimitive(dtype.I64, false, len(vals), buf, validity.NewNonNullable())
}

func NewPrimitiveF64(vals []float64) Primitive {
	buf := buffer.Zeroed(len(vals) * 8)
	bs := buf.Bytes()
	for i, v := range vals {
		binary.LittleEndian.PutUint64(bs[i*8:], math.Float64bits(v))
	}
	return NewPrimitive(dtype.F64, false, len(vals), buf, validity.NewNonNullable())
}

func NewPrimitiveF32(vals []float32) Primitive {
	buf := buffer.Zeroed(len(vals) * 4)
	bs := buf.Bytes()
	for i, v := range vals {
		binary.LittleEndian.PutUint32(bs[i*4:], math.Float32bits(v))
	}
	return NewPrimitive(dtype.F32, false, len(vals), buf, validity.NewNonNullable())
}

// NewPrimitiveUnsigned packs vals at ptype p's own byte width, used by
// Dict (code streams) and ALP-RD (left-part codes) where the
// physical width is chosen dynamically rather than fixed to u64.
func NewPrimitiveUnsigned(p dtype.Ptype, vals []uint64) Primitive {
	w := p.BitWidth() / 8
	buf := buffer.Zeroed(len(vals) * w)
	bs := buf.Bytes()
	for i, v := range vals {
		off := i * w
		switch w {
		case 1:
			bs[off] = byte(v)
		case 2:
			binary.LittleEndian.PutUint16(bs[off:], uint16(v))
		case 4:
			binary.LittleEndian.PutUint32(bs[off:], uint32(v))
		default:
			binary.LittleEndian.PutUint64(bs[off:], v)
		}
	}
	return NewPrimitive(p, false, len(vals), buf, validity.NewNonNullable())
}

func (p Primitive) Ptype() dtype.Ptype { return p.ptype }

func (p Primitive) DType() dtype.DType            { return dtype.Primitive(p.ptype, p.nullable) }
func (p Primitive) Len() int                      { return p.length }
func (p Primitive) IsEmpty() bool                 { return p.length == 0 }
func (p Primitive) Encoding() string              { return "vortex.primitive" }
func (p Primitive) Children() []Array             { return nil }
func (p Primitive) Buffer() (buffer.Buffer, bool) { return p.data, true }
func (p Primitive) Metadata() []byte              { return nil }
func (p Primitive) Statistics() *stats.Set        { return p.st }
func (p Primitive) NBytes() int64                 { return int64(p.data.Len()) }
func (p Primitive) Validity() validity.Validity   { return p.valid }

func (p Primitive) byteWidth() int { return p.ptype.BitWidth() / 8 }

func (p Primitive) Slice(start, stop int) Array {
	start, stop = clampSlice(start, stop, p.length)
	w := p.byteWidth()
	return Primitive{
		ptype:    p.ptype,
		nullable: p.nullable,
		length:   stop - start,
		data:     p.data.Slice((p.offset+start)*w, (p.offset+stop)*w),
		valid:    p.valid.Slice(start, stop),
		st:       stats.New(),
	}
}

// Uint64At reads the i'th element reinterpreted as an unsigned integer,
// used by encodings (BitPacked, ALP) that operate on the raw bit pattern
// regardless of signedness.
func (p Primitive) Uint64At(i int) uint64 {
	b := p.data.Bytes()
	off := i * p.byteWidth()
	switch p.ptype {
	case dtype.U8, dtype.I8:
		return uint64(b[off])
	case dtype.U16, dtype.I16:
		return uint64(binary.LittleEndian.Uint16(b[off:]))
	case dtype.U32, dtype.I32, dtype.F32:
		return uint64(binary.LittleEndian.Uint32(b[off:]))
	default:
		return binary.LittleEndian.Uint64(b[off:])
	}
}

func (p Primitive) Int64At(i int) int64 {
	switch p.ptype {
	case dtype.I8:
		return int64(int8(p.Uint64At(i)))
	case dtype.I16:
		return int64(int16(p.Uint64At(i)))
	case dtype.I32:
		return int64(int32(p.Uint64At(i)))
	default:
		return int64(p.Uint64At(i))
	}
}

func (p Primitive) Float64At(i int) float64 {
	switch p.ptype {
	case dtype.F32:
		return float64(math.Float32frombits(uint32(p.Uint64At(i))))
	default:
		return math.Float64frombits(p.Uint64At(i))
	}
}

func (p Primitive) ScalarAt(i int) (scalar.Scalar, error) {
	if i < 0 || i >= p.length {
		return scalar.Scalar{}, errtax.OutOfBounds(i, 0, p.length)
	}
	if p.nullable && !p.valid.IsValid(i) {
		return scalar.Null(p.DType()), nil
	}
	switch {
	case p.ptype.IsFloat():
		return scalar.Float(p.ptype, p.Float64At(i)), nil
	case p.ptype.IsSigned():
		return scalar.Int(p.ptype, p.Int64At(i)), nil
	default:
		return scalar.Uint(p.ptype, p.Uint64At(i)), nil
	}
}

func (p Primitive) IntoCanonical() (Array, error) { return p, nil }

func (p Primitive) Take(indices []int) (Array, error) {
	w := p.byteWidth()
	out := buffer.Zeroed(len(indices) * w)
	ob := out.Bytes()
	src := p.data.Bytes()
	for i, idx := range indices {
		if idx < 0 || idx >= p.length {
			return nil, errtax.OutOfBounds(idx, 0, p.length)
		}
		copy(ob[i*w:(i+1)*w], src[(p.offset+idx)*w:(p.offset+idx+1)*w])
	}
	var v validity.Validity
	if p.nullable {
		bits := make([]bool, len(indices))
		for i, idx := range indices {
			bits[i] = p.valid.IsValid(idx)
		}
		v = validity.NewBitmap(NewBoolFromSlice(bits))
	} else {
		v = validity.NewNonNullable()
	}
	return Primitive{ptype: p.ptype, nullable: p.nullable, length: len(indices), data: out, valid: v, st: stats.New()}, nil
}
