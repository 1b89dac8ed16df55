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

// Package scalar holds the random-access value type: a sum type
// mirroring dtype.DType, used by scalar_at, fill values, and pruning
// predicate literals.
package scalar

import (
	"fmt"
	"math"

	"github.com/dolthub/vortex/dtype"
)

// Scalar is an immutable logical value. A nil Value means the scalar is
// null; DType is always populated so a null scalar still carries type
// information.
type Scalar struct {
	DType dtype.DType
	Value any // nil => null. bool, uint64, int64, float64, string, []byte, []Scalar (struct fields), nil
}

func Null(dt dtype.DType) Scalar {
	return Scalar{DType: dt.WithNullability(true), Value: nil}
}

func Bool(v bool) Scalar {
	return Scalar{DType: dtype.Bool(false), Value: v}
}

func Uint(p dtype.Ptype, v uint64) Scalar {
	return Scalar{DType: dtype.Primitive(p, false), Value: v}
}

func Int(p dtype.Ptype, v int64) Scalar {
	return Scalar{DType: dtype.Primitive(p, false), Value: v}
}

func Float(p dtype.Ptype, v float64) Scalar {
	return Scalar{DType: dtype.Primitive(p, false), Value: v}
}

func Utf8(v string) Scalar {
	return Scalar{DType: dtype.Utf8(false), Value: v}
}

func Binary(v []byte) Scalar {
	return Scalar{DType: dtype.Binary(false), Value: v}
}

func Struct(dt dtype.DType, fields []Scalar) Scalar {
	return Scalar{DType: dt, Value: fields}
}

func (s Scalar) IsNull() bool { return s.Value == nil }

func (s Scalar) AsUint() uint64 {
	switch v := s.Value.(type) {
	case uint64:
		return v
	case int64:
		return uint64(v)
	default:
		return 0
	}
}

func (s Scalar) AsInt() int64 {
	switch v := s.Value.(type) {
	case int64:
		return v
	case uint64:
		return int64(v)
	default:
		return 0
	}
}

func (s Scalar) AsFloat() float64 {
	switch v := s.Value.(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case uint64:
		return float64(v)
	default:
		return math.NaN()
	}
}

func (s Scalar) AsBool() bool {
	v, _ := s.Value.(bool)
	return v
}

func (s Scalar) AsString() string {
	switch v := s.Value.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return ""
	}
}

func (s Scalar) AsBytes() []byte {
	switch v := s.Value.(type) {
	case []byte:
		return v
	case string:
		return []byte(v)
	default:
		return nil
	}
}

func (s Scalar) AsStructFields() []Scalar {
	v, _ := s.Value.([]Scalar)
	return v
}

func (s Scalar) String() string {
	if s.IsNull() {
		return "null"
	}
	return fmt.Sprintf("%v", s.Value)
}

// Compare orders two scalars of the same dtype family. NULL sorts least.
// Used by Patched/BitPacked binary search and by the pruning predicate's
// literal comparisons.
func Compare(a, b Scalar) int {
	if a.IsNull() && b.IsNull() {
		return 0
	}
	if a.IsNull() {
		return -1
	}
	if b.IsNull() {
		return 1
	}
	switch a.Value.(type) {
	case bool:
		av, bv := a.AsBool(), b.AsBool()
		if av == bv {
			return 0
		}
		if !av {
			return -1
		}
		return 1
	case string, []byte:
		av, bv := a.AsString(), b.AsString()
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		default:
			return 0
		}
	case float64:
		af, bf := a.AsFloat(), b.AsFloat()
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	default:
		if a.DType.Ptype().IsSigned() {
			ai, bi := a.AsInt(), b.AsInt()
			switch {
			case ai < bi:
				return -1
			case ai > bi:
				return 1
			default:
				return 0
			}
		}
		au, bu := a.AsUint(), b.AsUint()
		switch {
		case au < bu:
			return -1
		case au > bu:
			return 1
		default:
			return 0
		}
	}
}
