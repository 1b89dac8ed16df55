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

// canonical.go implements the heavy canonicalization cases: pushing
// a Chunked wrapper down through its element dtype instead of naively
// materializing each chunk's canonical form and concatenating generic
// bytes.
package array

import (
	"encoding/binary"
	"math"

	"github.com/dolthub/vortex/buffer"
	"github.com/dolthub/vortex/dtype"
	"github.com/dolthub/vortex/scalar"
	"github.com/dolthub/vortex/validity"
)

// canonicalizeChunked dispatches on the element dtype: struct swizzle,
// varbin concatenation, or typed-buffer concatenation.
func canonicalizeChunked(c Chunked) (Array, error) {
	if len(c.chunks) == 0 {
		return emptyCanonical(c.dt), nil
	}
	if len(c.chunks) == 1 {
		return c.chunks[0].IntoCanonical()
	}

	canonChunks := make([]Array, len(c.chunks))
	for i, ch := range c.chunks {
		cc, err := ch.IntoCanonical()
		if err != nil {
			return nil, err
		}
		canonChunks[i] = cc
	}

	switch c.dt.Kind() {
	case dtype.KindStruct:
		return swizzleChunkedStruct(c.dt, canonChunks)
	case dtype.KindUtf8, dtype.KindBinary:
		return concatVarBin(canonChunks)
	case dtype.KindBool:
		return concatBool(canonChunks)
	case dtype.KindPrimitive:
		return concatPrimitive(canonChunks)
	default:
		// List/Extension/Null: concatGeneric handles Null only and
		// returns an error for any other dtype.
		return concatGeneric(c.dt, canonChunks)
	}
}

// swizzleChunkedStruct implements "Chunked[Struct{a,b}]" ->
// "Struct{a, b}": each field's per-chunk arrays are gathered into a
// Chunked array which is then canonicalized, so every field is
// concatenated into one canonical array and its data is copied. The
// resulting Struct does not hold Chunked fields.
func swizzleChunkedStruct(dt dtype.DType, chunks []Array) (Array, error) {
	names := dt.FieldNames()
	fieldTypes := dt.FieldTypes()
	fields := make([]Array, len(names))
	for k := range names {
		perChunk := make([]Array, len(chunks))
		for ci, ch := range chunks {
			s := ch.(Struct)
			perChunk[ci] = s.fields[k]
		}
		fieldChunked := NewChunked(fieldTypes[k], perChunk)
		canon, err := fieldChunked.IntoCanonical()
		if err != nil {
			return nil, err
		}
		fields[k] = canon
	}
	// Validity: NonNullable when no chunk's struct is nullable; otherwise
	// the chunk validities are concatenated into one bitmap, even when
	// every chunk is AllValid.
	v, nullable := concatStructValidity(chunks)
	return NewStruct(names, fields, v, nullable), nil
}

func concatStructValidity(chunks []Array) (validity.Validity, bool) {
	nullable := false
	for _, ch := range chunks {
		if ch.(Struct).nullable {
			nullable = true
		}
	}
	if !nullable {
		return validity.NewNonNullable(), false
	}
	bits := make([]bool, 0)
	for _, ch := range chunks {
		s := ch.(Struct)
		for i := 0; i < s.Len(); i++ {
			bits = append(bits, s.valid.IsValid(i))
		}
	}
	return validity.NewBitmap(NewBoolFromSlice(bits)), true
}

// concatVarBin implements "concatenate bytes buffers; emit a new offsets
// array where each chunk's offsets are shifted by the cumulative byte
// length so far; preserve validity by concatenation".
func concatVarBin(chunks []Array) (Array, error) {
	first := chunks[0].(VarBin)
	totalLen := 0
	totalBytes := uint64(0)
	for _, ch := range chunks {
		v := ch.(VarBin)
		totalLen += v.Len()
		totalBytes += v.offsets[v.length] - v.offsets[0]
	}
	offsets := make([]uint64, 0, totalLen+1)
	offsets = append(offsets, 0)
	data := buffer.Zeroed(int(totalBytes))
	bs := data.Bytes()
	var byteCursor uint64
	boolBits := make([]bool, 0, totalLen)
	nullable := false
	for _, ch := range chunks {
		v := ch.(VarBin)
		if v.nullable {
			nullable = true
		}
		// A sliced chunk's referenced bytes start at offsets[0], not at
		// the head of the shared buffer.
		chunkBytes := v.data.Bytes()[v.offsets[0]:v.offsets[v.length]]
		copy(bs[byteCursor:], chunkBytes)
		for i := 0; i < v.Len(); i++ {
			byteCursor += v.offsets[i+1] - v.offsets[i]
			offsets = append(offsets, byteCursor)
		}
		for i := 0; i < v.Len(); i++ {
			boolBits = append(boolBits, v.valid.IsValid(i))
		}
	}
	var v validity.Validity
	if nullable {
		v = validity.NewBitmap(NewBoolFromSlice(boolBits))
	} else {
		v = validity.NewNonNullable()
	}
	return NewVarBin(first.isUtf8, nullable, offsets, data, v), nil
}

func concatPrimitive(chunks []Array) (Array, error) {
	first := chunks[0].(Primitive)
	w := first.byteWidth()
	total := 0
	for _, ch := range chunks {
		total += ch.Len()
	}
	data := buffer.Zeroed(total * w)
	bs := data.Bytes()
	bits := make([]bool, 0, total)
	nullable := false
	cursor := 0
	for _, ch := range chunks {
		p := ch.(Primitive)
		if p.nullable {
			nullable = true
		}
		src := p.data.Bytes()[p.offset*w : (p.offset+p.length)*w]
		copy(bs[cursor*w:], src)
		cursor += p.length
		for i := 0; i < p.length; i++ {
			bits = append(bits, p.valid.IsValid(i))
		}
	}
	var v validity.Validity
	if nullable {
		v = validity.NewBitmap(NewBoolFromSlice(bits))
	} else {
		v = validity.NewNonNullable()
	}
	return NewPrimitive(first.ptype, nullable, total, data, v), nil
}

func concatBool(chunks []Array) (Array, error) {
	total := 0
	for _, ch := range chunks {
		total += ch.Len()
	}
	bits := make([]bool, 0, total)
	validBits := make([]bool, 0, total)
	nullable := false
	for _, ch := range chunks {
		b := ch.(Bool)
		if b.nullable {
			nullable = true
		}
		for i := 0; i < b.Len(); i++ {
			bits = append(bits, b.ValueAt(i))
			validBits = append(validBits, b.valid.IsValid(i))
		}
	}
	packed := NewBoolFromSlice(bits)
	var v validity.Validity
	if nullable {
		v = validity.NewBitmap(NewBoolFromSlice(validBits))
	} else {
		v = validity.NewNonNullable()
	}
	return NewBool(packed.length, packed.packed, v, nullable), nil
}

// concatGeneric handles dtypes with no bespoke concatenation rule
// (List, Extension, Null). Only Null is concatenated (it has no payload
// to move); any other dtype returns a canonicalizeNotImplemented error.
func concatGeneric(dt dtype.DType, chunks []Array) (Array, error) {
	if dt.Kind() == dtype.KindNull {
		total := 0
		for _, ch := range chunks {
			total += ch.Len()
		}
		return NewNull(total), nil
	}
	return nil, errNotImplementedGenericConcat(dt)
}

func errNotImplementedGenericConcat(dt dtype.DType) error {
	return &canonicalizeNotImplemented{dt: dt}
}

type canonicalizeNotImplemented struct{ dt dtype.DType }

func (e *canonicalizeNotImplemented) Error() string {
	return "canonicalize: no concatenation rule for dtype " + e.dt.String()
}

// FromScalars builds a canonical array of dtype dt from an explicit
// per-row scalar list, used outside this package by the file writer's
// statistics table builder to turn per-chunk stat snapshots
// into a Struct array.
func FromScalars(dt dtype.DType, vals []scalar.Scalar) (Array, error) {
	return arrayFromScalars(dt, vals)
}

// arrayFromScalars materializes a canonical array of dtype dt from an
// explicit per-row scalar list. Used by Dict's dictionary-of-values
// child and by Patched's exception-value child, both of which build an
// array from a sparse or deduplicated set of decoded scalars rather
// than from an existing encoded array.
func arrayFromScalars(dt dtype.DType, vals []scalar.Scalar) (Array, error) {
	n := len(vals)
	nullable := dt.IsNullable()
	valid := make([]bool, n)
	for i, v := range vals {
		valid[i] = !v.IsNull()
	}

	switch dt.Kind() {
	case dtype.KindNull:
		return NewNull(n), nil
	case dtype.KindBool:
		bits := make([]bool, n)
		for i, v := range vals {
			if !v.IsNull() {
				bits[i] = v.AsBool()
			}
		}
		packed := NewBoolFromSlice(bits)
		return NewBool(n, packed.packed, bitmapOrNonNullable(nullable, valid), nullable), nil
	case dtype.KindPrimitive:
		p := dt.Ptype()
		w := p.BitWidth() / 8
		buf := buffer.Zeroed(n * w)
		bs := buf.Bytes()
		for i, v := range vals {
			if v.IsNull() {
				continue
			}
			var bits uint64
			switch {
			case p.IsFloat():
				if p == dtype.F32 {
					bits = uint64(math.Float32bits(float32(v.AsFloat())))
				} else {
					bits = math.Float64bits(v.AsFloat())
				}
			case p.IsSigned():
				bits = uint64(v.AsInt())
			default:
				bits = v.AsUint()
			}
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
		return NewPrimitive(p, nullable, n, buf, bitmapOrNonNullable(nullable, valid)), nil
	case dtype.KindUtf8, dtype.KindBinary:
		offsets := make([]uint64, n+1)
		var total uint64
		for i, v := range vals {
			if !v.IsNull() {
				total += uint64(len(v.AsBytes()))
			}
			offsets[i+1] = total
		}
		buf := buffer.Zeroed(int(total))
		bs := buf.Bytes()
		for i, v := range vals {
			if v.IsNull() {
				continue
			}
			copy(bs[offsets[i]:offsets[i+1]], v.AsBytes())
		}
		return NewVarBin(dt.Kind() == dtype.KindUtf8, nullable, offsets, buf, bitmapOrNonNullable(nullable, valid)), nil
	case dtype.KindStruct:
		names := dt.FieldNames()
		fieldTypes := dt.FieldTypes()
		fields := make([]Array, len(fieldTypes))
		for k, ft := range fieldTypes {
			col := make([]scalar.Scalar, n)
			for i, v := range vals {
				if v.IsNull() {
					col[i] = scalar.Null(ft)
				} else {
					col[i] = v.AsStructFields()[k]
				}
			}
			fieldArr, err := arrayFromScalars(ft, col)
			if err != nil {
				return nil, err
			}
			fields[k] = fieldArr
		}
		return NewStruct(names, fields, bitmapOrNonNullable(nullable, valid), nullable), nil
	default:
		return nil, errNotImplementedGenericConcat(dt)
	}
}

func emptyCanonical(dt dtype.DType) Array {
	switch dt.Kind() {
	case dtype.KindNull:
		return NewNull(0)
	case dtype.KindBool:
		return NewBool(0, buffer.Buffer{}, validity.NewNonNullable(), dt.IsNullable())
	case dtype.KindPrimitive:
		return NewPrimitive(dt.Ptype(), dt.IsNullable(), 0, buffer.Buffer{}, validity.NewNonNullable())
	case dtype.KindUtf8:
		return NewVarBin(true, dt.IsNullable(), []uint64{0}, buffer.Buffer{}, validity.NewNonNullable())
	case dtype.KindBinary:
		return NewVarBin(false, dt.IsNullable(), []uint64{0}, buffer.Buffer{}, validity.NewNonNullable())
	case dtype.KindStruct:
		fields := make([]Array, len(dt.FieldTypes()))
		for i, ft := range dt.FieldTypes() {
			fields[i] = emptyCanonical(ft)
		}
		return NewStruct(dt.FieldNames(), fields, validity.NewNonNullable(), dt.IsNullable())
	default:
		return NewNull(0)
	}
}
