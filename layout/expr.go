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

// Package layout is the file footer's Layout tree, the
// statistics table it indexes, and the pruning predicate rewriter
// the reader runs against that table before fetching chunk
// bytes.
package layout

import (
	"github.com/dolthub/vortex/scalar"
)

// BinOp is one of the comparison/boolean operators a row filter can use.
type BinOp int

const (
	Eq BinOp = iota
	NotEq
	Lt
	Lte
	Gt
	Gte
	And
	Or
)

// Expr is a row filter expression over a batch's columns.
type Expr interface {
	isExpr()
}

// Col references a column by name.
type Col struct {
	Name string
}

// Lit is a constant value.
type Lit struct {
	Value scalar.Scalar
}

// Not negates its operand.
type Not struct {
	Expr Expr
}

// Binary applies Op to Left and Right.
type Binary struct {
	Op    BinOp
	Left  Expr
	Right Expr
}

// BoolConst is a literal true/false, produced by the rewriter when a
// shape doesn't map to a stats comparison.
type BoolConst struct {
	Value bool
}

func (Col) isExpr()       {}
func (Lit) isExpr()       {}
func (Not) isExpr()       {}
func (Binary) isExpr()    {}
func (BoolConst) isExpr() {}
