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

// Package validity is the four-state nullability carrier: NonNullable
// and the two constant states never allocate; only the Bitmap state
// holds an array.
package validity

// Kind tags which of the four validity states is active.
type Kind uint8

const (
	NonNullable Kind = iota
	AllValid
	AllInvalid
	Bitmap
)

// BoolArray is the minimal surface validity needs from a non-nullable
// bool array, satisfied by array.Bool. Kept narrow here to avoid a
// dependency cycle between validity and array.
type BoolArray interface {
	Len() int
	ValueAt(i int) bool
	SliceBool(start, stop int) BoolArray
	TakeBool(indices []int) BoolArray
}

// Validity is the nullability carrier every array node holds alongside
// its dtype and length.
type Validity struct {
	kind   Kind
	bitmap BoolArray
}

func NewNonNullable() Validity { return Validity{kind: NonNullable} }
func NewAllValid() Validity    { return Validity{kind: AllValid} }
func NewAllInvalid() Validity  { return Validity{kind: AllInvalid} }

// NewBitmap wraps a non-nullable bool array of the array's length.
func NewBitmap(b BoolArray) Validity { return Validity{kind: Bitmap, bitmap: b} }

func (v Validity) Kind() Kind { return v.kind }

func (v Validity) Bitmap() BoolArray { return v.bitmap }

// IsValid is O(1): the two constant states never touch an array.
func (v Validity) IsValid(i int) bool {
	switch v.kind {
	case NonNullable, AllValid:
		return true
	case AllInvalid:
		return false
	default:
		return v.bitmap.ValueAt(i)
	}
}

// Slice follows the array's shape.
func (v Validity) Slice(start, stop int) Validity {
	if v.kind != Bitmap {
		return v
	}
	return NewBitmap(v.bitmap.SliceBool(start, stop))
}

// Take follows the array's shape.
func (v Validity) Take(indices []int) Validity {
	if v.kind != Bitmap {
		return v
	}
	return NewBitmap(v.bitmap.TakeBool(indices))
}

// And computes the logical AND of two validities over the same range,
// used when compute kernels combine an operand's nullability with a
// derived mask (e.g. compare, cast).
//
// NonNullable & anything = NonNullable only when the other side is also
// NonNullable; otherwise the result must still track per-row invalidity,
// so NonNullable behaves as AllValid's identity here. AllInvalid absorbs.
func And(a, b Validity, length int) Validity {
	if a.kind == AllInvalid || b.kind == AllInvalid {
		return NewAllInvalid()
	}
	if a.kind == NonNullable && b.kind == NonNullable {
		return NewNonNullable()
	}
	aAllValid := a.kind == NonNullable || a.kind == AllValid
	bAllValid := b.kind == NonNullable || b.kind == AllValid
	if aAllValid && bAllValid {
		return NewAllValid()
	}
	if aAllValid {
		return b
	}
	if bAllValid {
		return a
	}
	// Both are bitmaps: fall back to an explicit per-row AND computed by
	// the caller, which owns bool-array construction. Signal that here
	// by returning a itself; callers combining two real bitmaps should
	// use AndBitmaps instead.
	return a
}
