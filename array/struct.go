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
	"github.com/dolthub/vortex/d"
	"github.com/dolthub/vortex/dtype"
	"github.com/dolthub/vortex/errtax"
	"github.com/dolthub/vortex/scalar"
	"github.com/dolthub/vortex/stats"
	"github.com/dolthub/vortex/validity"
)

// Struct is both the canonical form and the only container encoding for
// struct dtypes: ordered named fields, each of the struct's
// own length, plus a validity.
type Struct struct {
	names    []string
	fields   []Array
	nullable bool
	length   int
	valid    validity.Validity
	st       *stats.Set
}

// NewStruct validates that every field array has the struct's own
// length; a violation is a fatal programmer error.
func NewStruct(names []string, fields []Array, v validity.Validity, nullable bool) Struct {
	length := 0
	if len(fields) > 0 {
		length = fields[0].Len()
	}
	for _, f := range fields {
		d.PanicIfFalse(f.Len() == length, "struct field length %d != struct length %d", f.Len(), length)
	}
	return Struct{names: names, fields: fields, nullable: nullable, length: length, valid: v, st: stats.New()}
}

func (s Struct) DType() dtype.DType {
	types := make([]dtype.DType, len(s.fields))
	for i, f := range s.fields {
		types[i] = f.DType()
	}
	return dtype.Struct(s.names, types, s.nullable)
}
func (s Struct) Len() int                      { return s.length }
func (s Struct) IsEmpty() bool                 { return s.length == 0 }
func (s Struct) Encoding() string              { return "vortex.struct" }
func (s Struct) Children() []Array             { return s.fields }
func (s Struct) Buffer() (buffer.Buffer, bool) { return buffer.Buffer{}, false }
func (s Struct) Metadata() []byte              { return nil }
func (s Struct) Statistics() *stats.Set        { return s.st }
func (s Struct) NBytes() int64                 { return childrenBytes(s.fields) }
func (s Struct) Validity() validity.Validity   { return s.valid }
func (s Struct) FieldNames() []string          { return s.names }

func (s Struct) Field(name string) (Array, bool) {
	for i, n := range s.names {
		if n == name {
			return s.fields[i], true
		}
	}
	return nil, false
}

// Slice composes field-wise: every field is sliced independently,
// each O(metadata) if its own encoding permits.
func (s Struct) Slice(start, stop int) Array {
	start, stop = clampSlice(start, stop, s.length)
	fields := make([]Array, len(s.fields))
	for i, f := range s.fields {
		fields[i] = f.Slice(start, stop)
	}
	return Struct{names: s.names, fields: fields, nullable: s.nullable, length: stop - start, valid: s.valid.Slice(start, stop), st: stats.New()}
}

func (s Struct) ScalarAt(i int) (scalar.Scalar, error) {
	if i < 0 || i >= s.length {
		return scalar.Scalar{}, errtax.OutOfBounds(i, 0, s.length)
	}
	if s.nullable && !s.valid.IsValid(i) {
		return scalar.Null(s.DType()), nil
	}
	vals := make([]scalar.Scalar, len(s.fields))
	for k, f := range s.fields {
		v, err := f.ScalarAt(i)
		if err != nil {
			return scalar.Scalar{}, err
		}
		vals[k] = v
	}
	return scalar.Struct(s.DType(), vals), nil
}

// IntoCanonical recurses into every field; Struct is already
// canonical once its fields are.
func (s Struct) IntoCanonical() (Array, error) {
	fields := make([]Array, len(s.fields))
	for i, f := range s.fields {
		c, err := f.IntoCanonical()
		if err != nil {
			return nil, err
		}
		fields[i] = c
	}
	return Struct{names: s.names, fields: fields, nullable: s.nullable, length: s.length, valid: s.valid, st: s.st}, nil
}

// Take composes field-wise: the same indices are taken from each field.
func (s Struct) Take(indices []int) (Array, error) {
	fields := make([]Array, len(s.fields))
	for i, f := range s.fields {
		t, err := Take(f, indices)
		if err != nil {
			return nil, err
		}
		fields[i] = t
	}
	var nv validity.Validity
	if s.nullable {
		bits := make([]bool, len(indices))
		for i, idx := range indices {
			if idx < 0 || idx >= s.length {
				return nil, errtax.OutOfBounds(idx, 0, s.length)
			}
			bits[i] = s.valid.IsValid(idx)
		}
		nv = validity.NewBitmap(NewBoolFromSlice(bits))
	} else {
		nv = validity.NewNonNullable()
	}
	return Struct{names: s.names, fields: fields, nullable: s.nullable, length: len(indices), valid: nv, st: stats.New()}, nil
}
