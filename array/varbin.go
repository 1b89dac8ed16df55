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
	"github.com/dolthub/vortex/buffer"
	"github.com/dolthub/vortex/dtype"
	"github.com/dolthub/vortex/errtax"
	"github.com/dolthub/vortex/scalar"
	"github.com/dolthub/vortex/stats"
	"github.com/dolthub/vortex/validity"
)

// VarBin is the canonical variable-width form backing both Utf8 and
// Binary: a u64 offsets buffer of length+1 entries and a bytes buffer,
// plus validity. This module implements only the offsets form, not a
// German-strings-style "view" variant.
type VarBin struct {
	isUtf8   bool
	nullable bool
	length   int
	offsets  []uint64 // length+1
	data     buffer.Buffer
	valid    validity.Validity
	st       *stats.Set
}

func NewVarBin(isUtf8, nullable bool, offsets []uint64, data buffer.Buffer, v validity.Validity) VarBin {
	return VarBin{isUtf8: isUtf8, nullable: nullable, length: len(offsets) - 1, offsets: offsets, data: data, valid: v, st: stats.New()}
}

// NewUtf8FromStrings builds a non-nullable canonical Utf8 array.
func NewUtf8FromStrings(vals []string) VarBin {
	offsets := make([]uint64, len(vals)+1)
	var total uint64
	for i, v := range vals {
		total += uint64(len(v))
		offsets[i+1] = total
	}
	buf := buffer.Zeroed(int(total))
	bs := buf.Bytes()
	for i, v := range vals {
		copy(bs[offsets[i]:offsets[i+1]], v)
	}
	return NewVarBin(true, false, offsets, buf, validity.NewNonNullable())
}

func NewBinaryFromBytes(vals [][]byte) VarBin {
	offsets := make([]uint64, len(vals)+1)
	var total uint64
	for i, v := range vals {
		total += uint64(len(v))
		offsets[i+1] = total
	}
	buf := buffer.Zeroed(int(total))
	bs := buf.Bytes()
	for i, v := range vals {
		copy(bs[offsets[i]:offsets[i+1]], v)
	}
	return NewVarBin(false, false, offsets, buf, validity.NewNonNullable())
}

func (v VarBin) DType() dtype.DType {
	if v.isUtf8 {
		return dtype.Utf8(v.nullable)
	}
	return dtype.Binary(v.nullable)
}
func (v VarBin) Len() int                      { return v.length }
func (v VarBin) IsEmpty() bool                 { return v.length == 0 }
func (v VarBin) Encoding() string              { return "vortex.varbin" }
func (v VarBin) Children() []Array             { return nil }
func (v VarBin) Buffer() (buffer.Buffer, bool) { return v.data, true }
func (v VarBin) Metadata() []byte              { return nil }
func (v VarBin) Statistics() *stats.Set        { return v.st }
func (v VarBin) NBytes() int64                 { return int64(v.data.Len()) + int64(len(v.offsets))*8 }
func (v VarBin) Validity() validity.Validity   { return v.valid }
func (v VarBin) Offsets() []uint64             { return v.offsets }

func (v VarBin) BytesAt(i int) []byte {
	b := v.data.Bytes()
	return b[v.offsets[i]:v.offsets[i+1]]
}

func (v VarBin) Slice(start, stop int) Array {
	start, stop = clampSlice(start, stop, v.length)
	return VarBin{
		isUtf8:   v.isUtf8,
		nullable: v.nullable,
		length:   stop - start,
		offsets:  v.offsets[start : stop+1],
		data:     v.data,
		valid:    v.valid.Slice(start, stop),
		st:       stats.New(),
	}
}

func (v VarBin) ScalarAt(i int) (scalar.Scalar, error) {
	if i < 0 || i >= v.length {
		return scalar.Scalar{}, errtax.OutOfBounds(i, 0, v.length)
	}
	if v.nullable && !v.valid.IsValid(i) {
		return scalar.Null(v.DType()), nil
	}
	b := v.BytesAt(i)
	if v.isUtf8 {
		return scalar.Utf8(string(b)), nil
	}
	return scalar.Binary(b), nil
}

func (v VarBin) IntoCanonical() (Array, error) { return v, nil }

func (v VarBin) Take(indices []int) (Array, error) {
	offsets := make([]uint64, len(indices)+1)
	total := 0
	for _, idx := range indices {
		if idx < 0 || idx >= v.length {
			return nil, errtax.OutOfBounds(idx, 0, v.length)
		}
		total += len(v.BytesAt(idx))
	}
	buf := buffer.Zeroed(total)
	bs := buf.Bytes()
	var cursor uint64
	for i, idx := range indices {
		b := v.BytesAt(idx)
		copy(bs[cursor:], b)
		cursor += uint64(len(b))
		offsets[i+1] = cursor
	}
	var nv validity.Validity
	if v.nullable {
		bits := make([]bool, len(indices))
		for i, idx := range indices {
			bits[i] = v.valid.IsValid(idx)
		}
		nv = validity.NewBitmap(NewBoolFromSlice(bits))
	} else {
		nv = validity.NewNonNullable()
	}
	return NewVarBin(v.isUtf8, v.nullable, offsets, buf, nv), nil
}
