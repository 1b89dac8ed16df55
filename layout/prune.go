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

package layout

import (
	"github.com/dolthub/vortex/scalar"
	"github.com/dolthub/vortex/stats"
)

// StatRef names one (column, stat) pair the rewritten predicate reads
// from a chunk's stats row; the reader uses the accumulated set to
// decide which stats columns to fetch.
type StatRef struct {
	Column string
	Stat   stats.Stat
}

// statExpr is the rewritten predicate's leaf: a reference to one
// column's stat value for the chunk under consideration.
type statExpr struct {
	Column string
	Stat   stats.Stat
}

func (statExpr) isExpr() {}

// PruningPredicate is the rewritten, stats-only expression built from a
// row filter, plus the set of stats it reads.
type PruningPredicate struct {
	Expr Expr
	Refs []StatRef
}

// BuildPruningPredicate rewrites filter into a predicate over chunk
// statistics. A nil filter prunes nothing.
func BuildPruningPredicate(filter Expr) PruningPredicate {
	if filter == nil {
		return PruningPredicate{Expr: BoolConst{Value: false}}
	}
	refs := map[StatRef]bool{}
	e := rewrite(filter, refs)
	out := make([]StatRef, 0, len(refs))
	for r := range refs {
		out = append(out, r)
	}
	return PruningPredicate{Expr: e, Refs: out}
}

func addRef(refs map[StatRef]bool, col string, s stats.Stat) statExpr {
	r := StatRef{Column: col, Stat: s}
	refs[r] = true
	return statExpr{Column: col, Stat: s}
}

// colLit splits a Binary's operands into (column name, literal value,
// reversed) if the shape is `Col op Lit` or `Lit op Col`.
func colLit(left, right Expr) (string, scalar.Scalar, bool, bool) {
	if c, ok := left.(Col); ok {
		if l, ok := right.(Lit); ok {
			return c.Name, l.Value, false, true
		}
	}
	if c, ok := right.(Col); ok {
		if l, ok := left.(Lit); ok {
			return c.Name, l.Value, true, true
		}
	}
	return "", scalar.Scalar{}, false, false
}

// flip swaps a comparison operator's direction, used when `value op col`
// was written instead of `col op value`.
func flip(op BinOp) BinOp {
	switch op {
	case Lt:
		return Gt
	case Lte:
		return Gte
	case Gt:
		return Lt
	case Gte:
		return Lte
	default:
		return op
	}
}

// rewrite maps each comparison to its elimination test over per-chunk
// min/max statistics, recursing through And/Or and
// falling back to the constant false for any other shape.
func rewrite(e Expr, refs map[StatRef]bool) Expr {
	b, ok := e.(Binary)
	if !ok {
		return BoolConst{Value: false}
	}
	switch b.Op {
	case And:
		return Binary{Op: And, Left: rewrite(b.Left, refs), Right: rewrite(b.Right, refs)}
	case Or:
		// rewrite(x) is "eliminate x", not "retain x", so Or must flip to
		// And under De Morgan: a chunk can only be eliminated for `A OR B`
		// if it eliminates *both* A and B (if it retains either side, some
		// row could still satisfy the OR).
		return Binary{Op: And, Left: rewrite(b.Left, refs), Right: rewrite(b.Right, refs)}
	}

	col, v, reversed, ok := colLit(b.Left, b.Right)
	if !ok {
		return BoolConst{Value: false}
	}
	op := b.Op
	if reversed {
		op = flip(op)
	}
	min := addRef(refs, col, stats.Min)
	max := addRef(refs, col, stats.Max)
	lit := Lit{Value: v}
	switch op {
	case Eq:
		return Binary{Op: Or,
			Left:  Binary{Op: Gt, Left: min, Right: lit},
			Right: Binary{Op: Gt, Left: lit, Right: max},
		}
	case NotEq:
		return Binary{Op: And,
			Left:  Binary{Op: Eq, Left: min, Right: lit},
			Right: Binary{Op: Eq, Left: lit, Right: max},
		}
	case Lt:
		return Binary{Op: Gte, Left: min, Right: lit}
	case Lte:
		return Binary{Op: Gt, Left: min, Right: lit}
	case Gt:
		return Binary{Op: Lte, Left: max, Right: lit}
	case Gte:
		return Binary{Op: Lt, Left: max, Right: lit}
	default:
		return BoolConst{Value: false}
	}
}

// StatsRow is one chunk's projected stats, keyed by column then stat.
type StatsRow map[string]map[stats.Stat]scalar.Scalar

// Eliminates reports whether row proves the chunk can be skipped
// entirely: the rewritten expression evaluates true against it.
func (p PruningPredicate) Eliminates(row StatsRow) bool {
	v, ok := evalBool(p.Expr, row)
	return ok && v
}

func evalValue(e Expr, row StatsRow) (scalar.Scalar, bool) {
	switch v := e.(type) {
	case Lit:
		return v.Value, true
	case statExpr:
		col, ok := row[v.Column]
		if !ok {
			return scalar.Scalar{}, false
		}
		s, ok := col[v.Stat]
		return s, ok
	default:
		return scalar.Scalar{}, false
	}
}

func evalBool(e Expr, row StatsRow) (bool, bool) {
	switch v := e.(type) {
	case BoolConst:
		return v.Value, true
	case Not:
		b, ok := evalBool(v.Expr, row)
		return !b, ok
	case Binary:
		switch v.Op {
		case And:
			l, ok := evalBool(v.Left, row)
			if !ok || !l {
				return false, ok
			}
			r, ok := evalBool(v.Right, row)
			return l && r, ok
		case Or:
			l, lok := evalBool(v.Left, row)
			r, rok := evalBool(v.Right, row)
			if lok && l {
				return true, true
			}
			if rok && r {
				return true, true
			}
			if !lok && !rok {
				return false, false
			}
			return (lok && l) || (rok && r), true
		default:
			lv, lok := evalValue(v.Left, row)
			rv, rok := evalValue(v.Right, row)
			if !lok || !rok {
				return false, false
			}
			c := scalar.Compare(lv, rv)
			switch v.Op {
			case Eq:
				return c == 0, true
			case NotEq:
				return c != 0, true
			case Lt:
				return c < 0, true
			case Lte:
				return c <= 0, true
			case Gt:
				return c > 0, true
			case Gte:
				return c >= 0, true
			}
		}
	}
	return false, false
}
