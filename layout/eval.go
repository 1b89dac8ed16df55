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

// eval.go evaluates a row filter over an actually-reconstructed batch,
// as opposed to prune.go's rewritten form which only
// ever sees per-chunk min/max stats.
package layout

import (
	"github.com/dolthub/vortex/array"
	"github.com/dolthub/vortex/errtax"
	"github.com/dolthub/vortex/scalar"
)

// RowSource resolves a column by name to its array, for row-by-row
// expression evaluation. array.Struct satisfies this directly.
type RowSource interface {
	Field(name string) (array.Array, bool)
}

// EvalMask evaluates e against every row of src (which has n rows) and
// returns the boolean keep-mask.
func EvalMask(e Expr, src RowSource, n int) ([]bool, error) {
	mask := make([]bool, n)
	for i := 0; i < n; i++ {
		v, err := evalRowBool(e, src, i)
		if err != nil {
			return nil, err
		}
		mask[i] = v
	}
	return mask, nil
}

func evalRowValue(e Expr, src RowSource, row int) (scalar.Scalar, error) {
	switch v := e.(type) {
	case Lit:
		return v.Value, nil
	case Col:
		f, ok := src.Field(v.Name)
		if !ok {
			return scalar.Scalar{}, errtax.InvalidArgument("unknown column %q", v.Name)
		}
		return f.ScalarAt(row)
	default:
		return scalar.Scalar{}, errtax.InvalidArgument("expression is not a value")
	}
}

func evalRowBool(e Expr, src RowSource, row int) (bool, error) {
	switch v := e.(type) {
	case BoolConst:
		return v.Value, nil
	case Not:
		b, err := evalRowBool(v.Expr, src, row)
		return !b, err
	case Binary:
		switch v.Op {
		case And:
			l, err := evalRowBool(v.Left, src, row)
			if err != nil || !l {
				return false, err
			}
			return evalRowBool(v.Right, src, row)
		case Or:
			l, err := evalRowBool(v.Left, src, row)
			if err != nil {
				return false, err
			}
			if l {
				return true, nil
			}
			return evalRowBool(v.Right, src, row)
		default:
			lv, err := evalRowValue(v.Left, src, row)
			if err != nil {
				return false, err
			}
			rv, err := evalRowValue(v.Right, src, row)
			if err != nil {
				return false, err
			}
			if lv.IsNull() || rv.IsNull() {
				return false, nil
			}
			c := scalar.Compare(lv, rv)
			switch v.Op {
			case Eq:
				return c == 0, nil
			case NotEq:
				return c != 0, nil
			case Lt:
				return c < 0, nil
			case Lte:
				return c <= 0, nil
			case Gt:
				return c > 0, nil
			case Gte:
				return c >= 0, nil
			}
		}
	}
	return false, errtax.InvalidArgument("unevaluable expression shape")
}
