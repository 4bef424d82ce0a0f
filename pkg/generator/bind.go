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

import "strings"

// bind checks the argument shape for op and builds its typed expression.
// Exactly one of args and named is used: args for sequence and inline
// scalar forms, named for mapping forms.
func bind(op Op, tag string, args []Expr, named *Mapping, at Position) (Expr, error) {
	switch op {
	case OpRange:
		if named == nil {
			switch len(args) {
			case 1:
				return &RangeExpr{Stop: args[0], At: at}, nil
			case 2:
				return &RangeExpr{Start: args[0], Stop: args[1], At: at}, nil
			case 3:
				return &RangeExpr{Start: args[0], Stop: args[1], Step: args[2], At: at}, nil
			default:
				return nil, errorf(tag, at, "expected 1 to 3 arguments, got %d", len(args))
			}
		}
		a, err := namedArgs(tag, at, named, []string{"start", "stop", "step"}, []string{"stop"})
		if err != nil {
			return nil, err
		}
		return &RangeExpr{Start: a[0], Stop: a[1], Step: a[2], At: at}, nil

	case OpLinspace, OpLogspace:
		a, err := fixedArgs(tag, at, args, named, "start", "stop", "num")
		if err != nil {
			return nil, err
		}
		return &SpaceExpr{Log: op == OpLogspace, Start: a[0], Stop: a[1], Num: a[2], At: at}, nil

	case OpRepeat:
		a, err := fixedArgs(tag, at, args, named, "rep", "n")
		if err != nil {
			return nil, err
		}
		return &RepeatExpr{Value: a[0], Count: a[1], At: at}, nil

	case OpGlob:
		a, err := fixedArgs(tag, at, args, named, "dir", "glob")
		if err != nil {
			return nil, err
		}
		return &GlobExpr{Dir: a[0], Pattern: a[1], At: at}, nil

	case OpFileRange:
		a, err := fixedArgs(tag, at, args, named, "fmt", "num")
		if err != nil {
			return nil, err
		}
		return &FileRangeExpr{Format: a[0], Count: a[1], At: at}, nil

	case OpProduct, OpProductTransposed:
		transposed := op == OpProductTransposed
		if named != nil {
			return &ProductExpr{Transposed: transposed, Axes: named, At: at}, nil
		}
		if len(args) != 1 {
			return nil, errorf(tag, at, "expected a mapping of axes")
		}
		return &ProductExpr{Transposed: transposed, Axes: args[0], At: at}, nil

	case OpZip:
		if named != nil || len(args) == 0 {
			return nil, errorf(tag, at, "expected a sequence of sequences")
		}
		return &ZipExpr{Seqs: args, At: at}, nil

	case OpMerge:
		if named != nil || len(args) == 0 {
			return nil, errorf(tag, at, "expected a sequence of mappings")
		}
		return &MergeExpr{Maps: args, At: at}, nil

	case OpFlatten:
		if named != nil {
			return nil, errorf(tag, at, "expected a sequence")
		}
		return &FlattenExpr{Seq: &List{Items: args, At: at}, At: at}, nil

	case OpRandInt32:
		a, err := fixedArgs(tag, at, args, named, "seed", "size")
		if err != nil {
			return nil, err
		}
		return &RandIntExpr{Seed: a[0], Size: a[1], At: at}, nil

	case OpImplicitOut:
		return bindImplicitOut(tag, at, args, named)

	default:
		return nil, errorf(tag, at, "operation %s is not supported", op)
	}
}

// fixedArgs accepts exactly len(names) positional arguments, or a mapping
// naming each of them.
func fixedArgs(tag string, at Position, args []Expr, named *Mapping, names ...string) ([]Expr, error) {
	if named != nil {
		return namedArgs(tag, at, named, names, names)
	}
	if len(args) != len(names) {
		return nil, errorf(tag, at, "expected %d arguments (%s), got %d", len(names), strings.Join(names, ", "), len(args))
	}
	return args, nil
}

func namedArgs(tag string, at Position, m *Mapping, names, required []string) ([]Expr, error) {
	out := make([]Expr, len(names))
	for i, key := range m.Keys {
		idx := indexOf(names, key)
		if idx < 0 {
			return nil, errorf(tag, m.Values[i].Pos(), "unexpected argument %q, expected one of %s", key, strings.Join(names, ", "))
		}
		out[idx] = m.Values[i]
	}
	for _, req := range required {
		if out[indexOf(names, req)] == nil {
			return nil, errorf(tag, at, "missing argument %q", req)
		}
	}
	return out, nil
}

func indexOf(names []string, key string) int {
	for i, n := range names {
		if n == key {
			return i
		}
	}
	return -1
}

func bindImplicitOut(tag string, at Position, args []Expr, named *Mapping) (Expr, error) {
	if named != nil {
		a, err := namedArgs(tag, at, named, []string{"suffix", "index"}, []string{"suffix"})
		if err != nil {
			return nil, err
		}
		args = a
		if args[1] == nil {
			args = args[:1]
		}
	}
	if len(args) < 1 || len(args) > 2 {
		return nil, errorf(tag, at, "expected a suffix and an optional index")
	}
	suffix, ok := textOf(args[0])
	if !ok {
		return nil, errorf(tag, args[0].Pos(), "suffix must be a literal string")
	}
	x := &ImplicitOutExpr{Suffix: suffix, At: at}
	if len(args) == 2 {
		idx, ok := literalOf[int64](args[1])
		if !ok {
			return nil, errorf(tag, args[1].Pos(), "index must be a literal integer")
		}
		i := int(idx)
		x.Index = &i
	}
	return x, nil
}

// textOf returns a literal string, or the source text of an unquoted scalar
// YAML would read as a number or bool, such as the suffix .5.
func textOf(x Expr) (string, bool) {
	lit, ok := x.(*Literal)
	if !ok {
		return "", false
	}
	if s, ok := lit.Value.(string); ok {
		return s, true
	}
	if lit.Value != nil && lit.Raw != "" {
		return lit.Raw, true
	}
	return "", false
}

func literalOf[T any](x Expr) (T, bool) {
	var zero T
	lit, ok := x.(*Literal)
	if !ok {
		return zero, false
	}
	v, ok := lit.Value.(T)
	return v, ok
}
