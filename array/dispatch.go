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

// dispatch.go is the compute dispatcher: each operation is
// a narrow optional interface; an encoding implements the subset it has
// a fast path for. Resolution order per op: (1) encoding implements it
// directly, (2) canonicalize and retry, (3) errtax.NotImplemented.
package array

import (
	"github.com/dolthub/vortex/dtype"
	"github.com/dolthub/vortex/errtax"
	"github.com/dolthub/vortex/scalar"
)

// CompareOp enumerates the comparison kernels a CompareScalarFn may
// support, matching the pruning predicate's operator set.
type CompareOp uint8

const (
	Eq CompareOp = iota
	NotEq
	Lt
	Lte
	Gt
	Gte
)

// Taker is the optional Take override.
type Taker interface {
	Take(indices []int) (Array, error)
}

// Filterer is the optional Filter override.
type Filterer interface {
	Filter(mask []bool) (Array, error)
}

// SearchSorter is the optional binary-search override used by Patched
// and BitPacked's patch side-channel.
type SearchSorter interface {
	// SearchSortedLeft returns the first index i such that ScalarAt(i) >= s.
	SearchSortedLeft(s scalar.Scalar) int
	// SearchSortedRight returns the first index i such that ScalarAt(i) > s.
	SearchSortedRight(s scalar.Scalar) int
}

// CompareScalarer is the optional array-vs-literal comparison override
// consulted by CompareScalar.
type CompareScalarer interface {
	CompareScalar(op CompareOp, s scalar.Scalar) (Array, error)
}

// Caster is the optional dtype-cast override.
type Caster interface {
	Cast(to dtype.DType) (Array, error)
}

// SubtractScalarer is the optional frame-of-reference override. No
// encoding in this package implements it and nothing here calls it.
type SubtractScalarer interface {
	SubtractScalar(s scalar.Scalar) (Array, error)
}

// Take resolves the Take operation for a, falling back through
// canonicalization.
func Take(a Array, indices []int) (Array, error) {
	if t, ok := a.(Taker); ok {
		return t.Take(indices)
	}
	canon, err := a.IntoCanonical()
	if err != nil {
		return nil, err
	}
	if t, ok := canon.(Taker); ok {
		return t.Take(indices)
	}
	return nil, errtax.NotImplemented("take", a.Encoding())
}

// Filter resolves the Filter operation for a.
func Filter(a Array, mask []bool) (Array, error) {
	if f, ok := a.(Filterer); ok {
		return f.Filter(mask)
	}
	canon, err := a.IntoCanonical()
	if err != nil {
		return nil, err
	}
	if f, ok := canon.(Filterer); ok {
		return f.Filter(mask)
	}
	// Generic fallback: every canonical form supports Take, and a mask
	// can always be lowered to an index list.
	idx := make([]int, 0, len(mask))
	for i, keep := range mask {
		if keep {
			idx = append(idx, i)
		}
	}
	return Take(canon, idx)
}

// SearchSortedLeft/Right resolve the binary-search operation, falling
// back to canonicalizing then a generic binary search that assumes the
// input is sorted (callers only invoke this on sorted inputs, as
// Patched does with its patch indices).
func SearchSortedLeft(a Array, s scalar.Scalar) (int, error) {
	if ss, ok := a.(SearchSorter); ok {
		return ss.SearchSortedLeft(s), nil
	}
	canon, err := a.IntoCanonical()
	if err != nil {
		return 0, err
	}
	if ss, ok := canon.(SearchSorter); ok {
		return ss.SearchSortedLeft(s), nil
	}
	return genericSearchSorted(canon, s, true)
}

func SearchSortedRight(a Array, s scalar.Scalar) (int, error) {
	if ss, ok := a.(SearchSorter); ok {
		return ss.SearchSortedRight(s), nil
	}
	canon, err := a.IntoCanonical()
	if err != nil {
		return 0, err
	}
	if ss, ok := canon.(SearchSorter); ok {
		return ss.SearchSortedRight(s), nil
	}
	return genericSearchSorted(canon, s, false)
}

func genericSearchSorted(a Array, s scalar.Scalar, leftmost bool) (int, error) {
	lo, hi := 0, a.Len()
	for lo < hi {
		mid := (lo + hi) / 2
		v, err := a.ScalarAt(mid)
		if err != nil {
			return 0, err
		}
		cmp := scalar.Compare(v, s)
		var goRight bool
		if leftmost {
			goRight = cmp < 0
		} else {
			goRight = cmp <= 0
		}
		if goRight {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo, nil
}

// CompareScalar resolves the array-vs-literal comparison, falling
// back to a generic canonical-form row scan.
func CompareScalar(a Array, op CompareOp, s scalar.Scalar) (Array, error) {
	if c, ok := a.(CompareScalarer); ok {
		return c.CompareScalar(op, s)
	}
	canon, err := a.IntoCanonical()
	if err != nil {
		return nil, err
	}
	if c, ok := canon.(CompareScalarer); ok {
		return c.CompareScalar(op, s)
	}
	mask := make([]bool, canon.Len())
	for i := range mask {
		v, err := canon.ScalarAt(i)
		if err != nil {
			return nil, err
		}
		if v.IsNull() || s.IsNull() {
			mask[i] = false
			continue
		}
		cmp := scalar.Compare(v, s)
		mask[i] = evalCompare(op, cmp)
	}
	return NewBoolFromSlice(mask), nil
}

func evalCompare(op CompareOp, cmp int) bool {
	switch op {
	case Eq:
		return cmp == 0
	case NotEq:
		return cmp != 0
	case Lt:
		return cmp < 0
	case Lte:
		return cmp <= 0
	case Gt:
		return cmp > 0
	case Gte:
		return cmp >= 0
	default:
		return false
	}
}
