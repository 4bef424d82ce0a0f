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

package generator

import "sort"

// Op identifies a generator operation. The set is closed: every Op is
// handled by bind and Evaluator.eval.
type Op int

const (
	OpRange Op = iota
	OpLinspace
	OpLogspace
	OpRepeat
	OpGlob
	OpFileRange
	OpProduct
	OpProductTransposed
	OpZip
	OpMerge
	OpFlatten
	OpRandInt32
	OpImplicitOut
)

var opNames = [...]string{
	OpRange:             "range",
	OpLinspace:          "linspace",
	OpLogspace:          "logspace",
	OpRepeat:            "repeat",
	OpGlob:              "glob",
	OpFileRange:         "file_range",
	OpProduct:           "product",
	OpProductTransposed: "product_transposed",
	OpZip:               "zip",
	OpMerge:             "merge",
	OpFlatten:           "flatten",
	OpRandInt32:         "randint_32",
	OpImplicitOut:       "implicit_out",
}

// AllOps lists every operation in declaration order.
func AllOps() []Op {
	ops := make([]Op, len(opNames))
	for i := range opNames {
		ops[i] = Op(i)
	}
	return ops
}

// String returns the canonical tag name without "!".
func (o Op) String() string {
	if o < 0 || int(o) >= len(opNames) {
		return "unknown"
	}
	return opNames[o]
}

// Table maps YAML tag names to operations. It is a plain value passed to the
// parser; there is no package-level registry.
type Table struct {
	byTag map[string]Op
}

// NewTable registers each op under its canonical name.
func NewTable(ops ...Op) Table {
	t := Table{byTag: make(map[string]Op, len(ops))}
	for _, op := range ops {
		t.byTag[op.String()] = op
	}
	return t
}

// DefaultTable knows every operation.
func DefaultTable() Table {
	return NewTable(AllOps()...)
}

// With returns a copy of t where tag also resolves to op.
func (t Table) With(tag string, op Op) Table {
	out := Table{byTag: make(map[string]Op, len(t.byTag)+1)}
	for k, v := range t.byTag {
		out.byTag[k] = v
	}
	out.byTag[tag] = op
	return out
}

func (t Table) Lookup(tag string) (Op, bool) {
	op, ok := t.byTag[tag]
	return op, ok
}

// Tags returns the registered tag names, sorted.
func (t Table) Tags() []string {
	tags := make([]string, 0, len(t.byTag))
	for tag := range t.byTag {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}
