// Copyright 2026 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package generator parses and evaluates the YAML tag language used to
// describe job inputs and parameter sweeps.
package generator

// Expr is a parsed, unevaluated node.
type Expr interface {
	Pos() Position
}

// Literal is a scalar: int64, float64, string, bool or nil. Raw is the
// source text of an unquoted scalar.
type Literal struct {
	Value any
	Raw   string
	At    Position
}

// List is a plain YAML sequence.
type List struct {
	Items []Expr
	At    Position
}

// Mapping is a plain YAML mapping with string keys.
type Mapping struct {
	Keys   []string
	Values []Expr
	At     Position
}

// RangeExpr is an arithmetic progression. Start and Step may be nil.
type RangeExpr struct {
	Start, Stop, Step Expr
	At                Position
}

// SpaceExpr is linspace, or logspace when Log is set.
type SpaceExpr struct {
	Log              bool
	Start, Stop, Num Expr
	At               Position
}

type RepeatExpr struct {
	Value, Count Expr
	At           Position
}

type GlobExpr struct {
	Dir, Pattern Expr
	At           Position
}

type FileRangeExpr struct {
	Format, Count Expr
	At            Position
}

// ProductExpr expands a mapping of axes into rows, or into columns when
// Transposed is set.
type ProductExpr struct {
	Transposed bool
	Axes       Expr
	At         Position
}

type ZipExpr struct {
	Seqs []Expr
	At   Position
}

type MergeExpr struct {
	Maps []Expr
	At   Position
}

type FlattenExpr struct {
	Seq Expr
	At  Position
}

type RandIntExpr struct {
	Seed, Size Expr
	At         Position
}

type ImplicitOutExpr struct {
	Suffix string
	Index  *int
	At     Position
}

func (x *Literal) Pos() Position         { return x.At }
func (x *List) Pos() Position            { return x.At }
func (x *Mapping) Pos() Position         { return x.At }
func (x *RangeExpr) Pos() Position       { return x.At }
func (x *SpaceExpr) Pos() Position       { return x.At }
func (x *RepeatExpr) Pos() Position      { return x.At }
func (x *GlobExpr) Pos() Position        { return x.At }
func (x *FileRangeExpr) Pos() Position   { return x.At }
func (x *ProductExpr) Pos() Position     { return x.At }
func (x *ZipExpr) Pos() Position         { return x.At }
func (x *MergeExpr) Pos() Position       { return x.At }
func (x *FlattenExpr) Pos() Position     { return x.At }
func (x *RandIntExpr) Pos() Position     { return x.At }
func (x *ImplicitOutExpr) Pos() Position { return x.At }
