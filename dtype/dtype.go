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

// Package dtype is the logical type system: a nullability-aware sum
// type with its own binary codec built on the serial package.
package dtype

import (
	"fmt"
	"strings"

	"github.com/dolthub/vortex/errtax"
	"github.com/dolthub/vortex/serial"
)

// Kind tags the sum type's active variant.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindPrimitive
	KindUtf8
	KindBinary
	KindStruct
	KindList
	KindExtension
)

// Ptype enumerates the fixed-width primitive physical types.
type Ptype uint8

const (
	U8 Ptype = iota
	U16
	U32
	U64
	I8
	I16
	I32
	I64
	F16
	F32
	F64
)

func (p Ptype) String() string {
	switch p {
	case U8:
		return "u8"
	case U16:
		return "u16"
	case U32:
		return "u32"
	case U64:
		return "u64"
	case I8:
		return "i8"
	case I16:
		return "i16"
	case I32:
		return "i32"
	case I64:
		return "i64"
	case F16:
		return "f16"
	case F32:
		return "f32"
	case F64:
		return "f64"
	default:
		return "ptype(?)"
	}
}

// BitWidth returns the physical storage width of p, in bits.
func (p Ptype) BitWidth() int {
	switch p {
	case U8, I8:
		return 8
	case U16, I16, F16:
		return 16
	case U32, I32, F32:
		return 32
	case U64, I64, F64:
		return 64
	default:
		return 0
	}
}

func (p Ptype) IsSigned() bool {
	switch p {
	case I8, I16, I32, I64:
		return true
	default:
		return false
	}
}

func (p Ptype) IsFloat() bool {
	switch p {
	case F16, F32, F64:
		return true
	default:
		return false
	}
}

func (p Ptype) IsUnsigned() bool {
	switch p {
	case U8, U16, U32, U64:
		return true
	default:
		return false
	}
}

// UnsignedOfWidth returns the unsigned ptype with the given bit width,
// used by Dict to pick its codes child's physical type.
func UnsignedOfWidth(bits int) Ptype {
	switch {
	case bits <= 8:
		return U8
	case bits <= 16:
		return U16
	case bits <= 32:
		return U32
	default:
		return U64
	}
}

// DType is the logical type of an array. It is a value type: two DTypes
// with equal fields are the same logical type. Use the constructor
// functions (Null, Bool, Primitive, ...) rather than struct literals.
type DType struct {
	kind     Kind
	nullable bool

	ptype Ptype

	// Struct
	fieldNames []string
	fieldTypes []DType

	// List / Extension storage
	elem *DType

	// Extension
	extID string
}

func Null() DType { return DType{kind: KindNull} }

func Bool(nullable bool) DType { return DType{kind: KindBool, nullable: nullable} }

func Primitive(p Ptype, nullable bool) DType {
	return DType{kind: KindPrimitive, ptype: p, nullable: nullable}
}

func Utf8(nullable bool) DType { return DType{kind: KindUtf8, nullable: nullable} }

func Binary(nullable bool) DType { return DType{kind: KindBinary, nullable: nullable} }

func Struct(names []string, types []DType, nullable bool) DType {
	return DType{kind: KindStruct, fieldNames: names, fieldTypes: types, nullable: nullable}
}

func List(elem DType, nullable bool) DType {
	return DType{kind: KindList, elem: &elem, nullable: nullable}
}

func Extension(id string, storage DType, nullable bool) DType {
	return DType{kind: KindExtension, extID: id, elem: &storage, nullable: nullable}
}

func (d DType) Kind() Kind          { return d.kind }
func (d DType) IsNullable() bool    { return d.nullable }
func (d DType) Ptype() Ptype        { return d.ptype }
func (d DType) ExtensionID() string { return d.extID }

func (d DType) FieldNames() []string { return d.fieldNames }
func (d DType) FieldTypes() []DType  { return d.fieldTypes }

func (d DType) Field(name string) (DType, bool) {
	for i, n := range d.fieldNames {
		if n == name {
			return d.fieldTypes[i], true
		}
	}
	return DType{}, false
}

// Elem returns the element/storage dtype of a List or Extension.
func (d DType) Elem() DType {
	if d.elem == nil {
		return DType{}
	}
	return *d.elem
}

// WithNullability returns d with nullability set to nullable, keeping
// every other field identical; casting to/from nullable is always an
// explicit act.
func (d DType) WithNullability(nullable bool) DType {
	d.nullable = nullable
	return d
}

// IsNull reports whether d is exactly the Null dtype, which is always
// nullable-by-construction and carries no physical width.
func (d DType) IsNull() bool { return d.kind == KindNull }

func (d DType) Equal(o DType) bool {
	if d.kind != o.kind || d.nullable != o.nullable {
		return false
	}
	switch d.kind {
	case KindPrimitive:
		return d.ptype == o.ptype
	case KindStruct:
		if len(d.fieldNames) != len(o.fieldNames) {
			return false
		}
		for i := range d.fieldNames {
			if d.fieldNames[i] != o.fieldNames[i] || !d.fieldTypes[i].Equal(o.fieldTypes[i]) {
				return false
			}
		}
		return true
	case KindList:
		return d.Elem().Equal(o.Elem())
	case KindExtension:
		return d.extID == o.extID && d.Elem().Equal(o.Elem())
	default:
		return true
	}
}

// EqualIgnoringNullability compares two dtypes disregarding the top-level
// nullable flag.
func (d DType) EqualIgnoringNullability(o DType) bool {
	return d.WithNullability(false).Equal(o.WithNullability(false))
}

func (d DType) String() string {
	var b strings.Builder
	d.writeString(&b)
	return b.String()
}

func (d DType) writeString(b *strings.Builder) {
	switch d.kind {
	case KindNull:
		b.WriteString("null")
		return
	case KindBool:
		b.WriteString("bool")
	case KindPrimitive:
		b.WriteString(d.ptype.String())
	case KindUtf8:
		b.WriteString("utf8")
	case KindBinary:
		b.WriteString("binary")
	case KindStruct:
		b.WriteString("struct{")
		for i, n := range d.fieldNames {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(b, "%s: ", n)
			d.fieldTypes[i].writeString(b)
		}
		b.WriteString("}")
	case KindList:
		b.WriteString("list<")
		d.Elem().writeString(b)
		b.WriteString(">")
	case KindExtension:
		fmt.Fprintf(b, "ext<%s, ", d.extID)
		d.Elem().writeString(b)
		b.WriteString(">")
	default:
		b.WriteString("?")
	}
	if d.nullable {
		b.WriteString("?")
	}
}

// Encode serializes d with the shared serial codec.
func Encode(w *serial.Writer, d DType) {
	w.WriteUint8(uint8(d.kind))
	switch d.kind {
	case KindNull:
		return
	case KindBool, KindUtf8, KindBinary:
		w.WriteBool(d.nullable)
	case KindPrimitive:
		w.WriteBool(d.nullable)
		w.WriteUint8(uint8(d.ptype))
	case KindStruct:
		w.WriteBool(d.nullable)
		w.WriteVarint(uint64(len(d.fieldNames)))
		for _, n := range d.fieldNames {
			w.WriteString(n)
		}
		for _, t := range d.fieldTypes {
			Encode(w, t)
		}
	case KindList:
		w.WriteBool(d.nullable)
		Encode(w, d.Elem())
	case KindExtension:
		w.WriteBool(d.nullable)
		w.WriteString(d.extID)
		Encode(w, d.Elem())
	}
}

// Decode deserializes a DType previously written with Encode.
func Decode(r *serial.Reader) (DType, error) {
	tag, err := r.ReadUint8()
	if err != nil {
		return DType{}, err
	}
	kind := Kind(tag)
	switch kind {
	case KindNull:
		return Null(), nil
	case KindBool:
		nullable, err := r.ReadBool()
		if err != nil {
			return DType{}, err
		}
		return Bool(nullable), nil
	case KindUtf8:
		nullable, err := r.ReadBool()
		if err != nil {
			return DType{}, err
		}
		return Utf8(nullable), nil
	case KindBinary:
		nullable, err := r.ReadBool()
		if err != nil {
			return DType{}, err
		}
		return Binary(nullable), nil
	case KindPrimitive:
		nullable, err := r.ReadBool()
		if err != nil {
			return DType{}, err
		}
		pt, err := r.ReadUint8()
		if err != nil {
			return DType{}, err
		}
		return Primitive(Ptype(pt), nullable), nil
	case KindStruct:
		nullable, err := r.ReadBool()
		if err != nil {
			return DType{}, err
		}
		n, err := r.ReadVarint()
		if err != nil {
			return DType{}, err
		}
		names := make([]string, n)
		for i := range names {
			names[i], err = r.ReadString()
			if err != nil {
				return DType{}, err
			}
		}
		types := make([]DType, n)
		for i := range types {
			types[i], err = Decode(r)
			if err != nil {
				return DType{}, err
			}
		}
		return Struct(names, types, nullable), nil
	case KindList:
		nullable, err := r.ReadBool()
		if err != nil {
			return DType{}, err
		}
		elem, err := Decode(r)
		if err != nil {
			return DType{}, err
		}
		return List(elem, nullable), nil
	case KindExtension:
		nullable, err := r.ReadBool()
		if err != nil {
			return DType{}, err
		}
		id, err := r.ReadString()
		if err != nil {
			return DType{}, err
		}
		storage, err := Decode(r)
		if err != nil {
			return DType{}, err
		}
		return Extension(id, storage, nullable), nil
	default:
		return DType{}, errtax.InvalidSerde("unknown dtype tag %d", tag)
	}
}
