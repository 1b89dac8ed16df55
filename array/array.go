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

// Package array is the polymorphic encoded array tree: one flat
// package holding every canonical form and every codec together rather
// than splitting each into its own package.
//
// Every encoding is a Go value implementing Array. Optional compute
// overrides (Take, Filter, SearchSorted, Compare, Cast, SubtractScalar)
// are expressed as small extra interfaces an encoding may additionally
// implement; the dispatcher in dispatch.go type-asserts for them and
// falls back to canonicalizing when absent. This is the vtable-not-
// inheritance model from the design notes, expressed with Go's own
// interface tables instead of a hand-rolled registry of function
// pointers.
package array

import (
	"github.com/dolthub/vortex/buffer"
	"github.com/dolthub/vortex/dtype"
	"github.com/dolthub/vortex/scalar"
	"github.com/dolthub/vortex/stats"
)

// Array is the trait every encoding implements.
type Array interface {
	DType() dtype.DType
	Len() int
	IsEmpty() bool

	// Encoding names the physical encoding, e.g. "vortex.primitive",
	// "vortex.dict". Used for error reporting and serialization ids.
	Encoding() string

	Children() []Array
	Buffer() (buffer.Buffer, bool)

	// Metadata is the encoding-defined serializable blob.
	Metadata() []byte

	Statistics() *stats.Set

	// NBytes is the sum of buffer and child bytes.
	NBytes() int64

	// Slice returns a new array of length stop-start. Must be O(metadata)
	// whenever the encoding permits.
	Slice(start, stop int) Array

	// ScalarAt fails with errtax.OutOfBoundsError if i is out of range.
	ScalarAt(i int) (scalar.Scalar, error)

	// IntoCanonical recursively rewrites the array into one of the fixed
	// canonical forms of the same dtype and length.
	IntoCanonical() (Array, error)
}

// childrenBytes sums NBytes() over cs, a helper shared by every
// container encoding's NBytes implementation.
func childrenBytes(cs []Array) int64 {
	var n int64
	for _, c := range cs {
		n += c.NBytes()
	}
	return n
}

// clampSlice clamps start and stop into [0, length] with stop >= start.
// It never panics or reports an error: out-of-range bounds are silently
// narrowed.
func clampSlice(start, stop, length int) (int, int) {
	if start < 0 {
		start = 0
	}
	if stop > length {
		stop = length
	}
	if stop < start {
		stop = start
	}
	return start, stop
}
