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

// Bool is one of the canonical forms: a packed bitset plus
// validity. It also implements validity.BoolArray so it can back a
// Bitmap validity directly.
type Bool struct {
	offset   int // logical row offset into packed, for O(metadata) slicing
	length   int
	packed   buffer.Buffer // ceil((offset+length)/8) bytes, bit-addressed
	valid    validity.Validity
	nullable bool
	st       *stats.Set
}

func NewBool(length int, packed buffer.Buffer, v validity.Validity, nullable bool) Bool {
	return Bool{length: length, packed: packed, valid: v, nullable: nullable, st: stats.New()}
}

// NewBoolFromSlice packs a []bool into a canonical, non-nullable Bool array.
func NewBoolFromSlice(vals []bool) Bool {
	packed := buffer.Zeroed((len(vals) + 7) / 8)
	bs := packed.Bytes()
	for i, v := range vals {
		if v {
			bs[i/8] |= 1 << uint(i%8)
		}
	}
	return NewBool(len(vals), packed, validity.NewNonNullable(), false)
}

func (b Bool) DType() dtype.DType            { return dtype.Bool(b.nullable) }
func (b Bool) Len() int                      { return b.length }
func (b Bool) IsEmpty() bool                 { return b.length == 0 }
func (b Bool) Encoding() string              { return "vortex.bool" }
func (b Bool) Children() []Array             { return nil }
func (b Bool) Buffer() (buffer.Buffer, bool) { return b.packed, true }
func (b Bool) Metadata() []byte              { return nil }
func (b Bool) Statistics() *stats.Set        { return b.st }
func (b Bool) NBytes() int64                 { return int64(b.packed.Len()) }
func (b Bool) Validity() validity.Validity   { return b.valid }

// ValueAt reads logical row i (already relative to this array's own
// length, not the shared packed buffer).
func (b Bool) ValueAt(i int) bool {
	pos := b.offset + i
	byt := b.packed.Uint8At(pos / 8)
	return byt&(1<<uint(pos%8)) != 0
}

func (b Bool) Slice(start, stop int) Array {
	start, stop = clampSlice(start, stop, b.length)
	return Bool{
		offset:   b.offset + start,
		length:   stop - start,
		packed:   b.packed,
		valid:    b.valid.Slice(start, stop),
		nullable: b.nullable,
		st:       stats.New(),
	}
}

func (b Bool) SliceBool(start, stop int) validity.BoolArray {
	return b.Slice(start, stop).(Bool)
}

func (b Bool) TakeBool(indices []int) validity.BoolArray {
	out := make([]bool, len(indices))
	for i, idx := range indices {
		out[i] = b.ValueAt(idx)
	}
	return NewBoolFromSlice(out)
}

func (b Bool) ScalarAt(i int) (scalar.Scalar, error) {
	if i < 0 || i >= b.length {
		return scalar.Scalar{}, errtax.OutOfBounds(i, 0, b.length)
	}
	if b.nullable && !b.valid.IsValid(i) {
		return scalar.Null(b.DType()), nil
	}
	return scalar.Bool(b.ValueAt(i)), nil
}

func (b Bool) IntoCanonical() (Array, error) { return b, nil }

func (b Bool) Take(indices []int) (Array, error) {
	out := make([]bool, len(indices))
	for i, idx := range indices {
		if idx < 0 || idx >= b.length {
			return nil, errtax.OutOfBounds(idx, 0, b.length)
		}
		out[i] = b.ValueAt(idx)
	}
	return NewBoolFromSlice(out), nil
}
