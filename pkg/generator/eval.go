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

import (
	"fmt"
	"math"
	"math/rand/v2"
	"regexp"
	"strconv"
	"strings"

	"github.com/spf13/afero"
	"golang.org/x/exp/constraints"
)

// MaxSequenceLen bounds every generated sequence.
const MaxSequenceLen = 1 << 24

// Evaluator computes the value of parsed expressions. Globs read from fs.
type Evaluator struct {
	fs afero.Fs
}

func NewEvaluator(fs afero.Fs) *Evaluator {
	return &Evaluator{fs: fs}
}

// Eval evaluates x into int64, float64, string, bool, nil, []any or *Map.
// An implicit output marker anywhere in x is an error.
func (e *Evaluator) Eval(x Expr) (any, error) {
	return e.eval(x)
}

// EvalOutputs evaluates an out_files value. When x is an implicit output
// marker the marker is returned instead of a value.
func (e *Evaluator) EvalOutputs(x Expr) (any, *ImplicitOut, error) {
	if io, ok := x.(*ImplicitOutExpr); ok {
		return nil, &ImplicitOut{Suffix: io.Suffix, Index: io.Index}, nil
	}
	v, err := e.eval(x)
	return v, nil, err
}

func (e *Evaluator) eval(x Expr) (any, error) {
	switch x := x.(type) {
	case *Literal:
		return x.Value, nil
	case *List:
		return e.evalAll(x.Items)
	case *Mapping:
		m := NewMap()
		for i, k := range x.Keys {
			v, err := e.eval(x.Values[i])
			if err != nil {
				return nil, err
			}
			m.Set(k, v)
		}
		return m, nil
	case *RangeExpr:
		return e.evalRange(x)
	case *SpaceExpr:
		return e.evalSpace(x)
	case *RepeatExpr:
		return e.evalRepeat(x)
	case *GlobExpr:
		return e.evalGlob(x)
	case *FileRangeExpr:
		return e.evalFileRange(x)
	case *ProductExpr:
		return e.evalProduct(x)
	case *ZipExpr:
		return e.evalZip(x)
	case *MergeExpr:
		return e.evalMerge(x)
	case *FlattenExpr:
		return e.evalFlatten(x)
	case *RandIntExpr:
		return e.evalRandInt(x)
	case *ImplicitOutExpr:
		return nil, errorf(OpImplicitOut.String(), x.At, "only allowed as the whole value of out_files")
	default:
		return nil, fmt.Errorf("unhandled expression %T", x)
	}
}

func (e *Evaluator) evalAll(xs []Expr) ([]any, error) {
	out := make([]any, 0, len(xs))
	for _, x := range xs {
		v, err := e.eval(x)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (e *Evaluator) number(tag, name string, x Expr) (float64, bool, error) {
	v, err := e.eval(x)
	if err != nil {
		return 0, false, err
	}
	switch n := v.(type) {
	case int64:
		return float64(n), true, nil
	case float64:
		return n, false, nil
	default:
		return 0, false, errorf(tag, x.Pos(), "%s must be a number, got %s", name, describe(v))
	}
}

func (e *Evaluator) integer(tag, name string, x Expr) (int64, error) {
	v, err := e.eval(x)
	if err != nil {
		return 0, err
	}
	n, ok := v.(int64)
	if !ok {
		return 0, errorf(tag, x.Pos(), "%s must be an integer, got %s", name, describe(v))
	}
	return n, nil
}

func (e *Evaluator) count(tag, name string, x Expr) (int, error) {
	n, err := e.integer(tag, name, x)
	if err != nil {
		return 0, err
	}
	return checkLen(tag, x.Pos(), name, n)
}

func checkLen(tag string, at Position, name string, n int64) (int, error) {
	if n < 0 {
		return 0, errorf(tag, at, "%s must not be negative, got %d", name, n)
	}
	if uint64(n) > MaxSequenceLen {
		return 0, errorf(tag, at, "%s %d exceeds the limit of %d", name, n, MaxSequenceLen)
	}
	return int(n), nil
}

func (e *Evaluator) str(tag, name string, x Expr) (string, error) {
	v, err := e.eval(x)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", errorf(tag, x.Pos(), "%s must be a string, got %s", name, describe(v))
	}
	return s, nil
}

func describe(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case int64:
		return "integer"
	case float64:
		return "float"
	case string:
		return "string"
	case bool:
		return "boolean"
	case []any:
		return "sequence"
	case *Map:
		return "mapping"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func (e *Evaluator) evalRange(x *RangeExpr) (any, error) {
	const tag = "range"
	var start float64
	startInt := true
	if x.Start != nil {
		var err error
		if start, startInt, err = e.number(tag, "start", x.Start); err != nil {
			return nil, err
		}
	}
	stop, stopInt, err := e.number(tag, "stop", x.Stop)
	if err != nil {
		return nil, err
	}
	step := int64(1)
	if x.Step != nil {
		if step, err = e.integer(tag, "step", x.Step); err != nil {
			return nil, err
		}
		if step == 0 {
			return nil, errorf(tag, x.Step.Pos(), "step must not be zero")
		}
	}

	n := math.Ceil((stop - start) / float64(step))
	if n < 0 {
		n = 0
	}
	size, err := checkLen(tag, x.At, "length", int64(n))
	if err != nil {
		return nil, err
	}
	if startInt && stopInt {
		return progression(int64(start), step, size), nil
	}
	return progression(start, float64(step), size), nil
}

// progression returns n terms of start + i*step.
func progression[T constraints.Integer | constraints.Float](start, step T, n int) []any {
	out := make([]any, n)
	for i := range out {
		out[i] = start + T(i)*step
	}
	return out
}

func (e *Evaluator) evalSpace(x *SpaceExpr) (any, error) {
	tag := OpLinspace.String()
	if x.Log {
		tag = OpLogspace.String()
	}
	start, _, err := e.number(tag, "start", x.Start)
	if err != nil {
		return nil, err
	}
	stop, _, err := e.number(tag, "stop", x.Stop)
	if err != nil {
		return nil, err
	}
	num, err := e.count(tag, "num", x.Num)
	if err != nil {
		return nil, err
	}

	out := make([]any, num)
	for i := range out {
		y := start
		if num > 1 {
			y = start + float64(i)*(stop-start)/float64(num-1)
			if i == num-1 {
				y = stop
			}
		}
		if x.Log {
			y = math.Pow(10, y)
		}
		out[i] = y
	}
	return out, nil
}

func (e *Evaluator) evalRepeat(x *RepeatExpr) (any, error) {
	v, err := e.eval(x.Value)
	if err != nil {
		return nil, err
	}
	n, err := e.count("repeat", "n", x.Count)
	if err != nil {
		return nil, err
	}
	out := make([]any, n)
	for i := range out {
		out[i] = v
	}
	return out, nil
}

func (e *Evaluator) evalGlob(x *GlobExpr) (any, error) {
	const tag = "glob"
	dir, err := e.str(tag, "dir", x.Dir)
	if err != nil {
		return nil, err
	}
	pattern, err := e.str(tag, "glob", x.Pattern)
	if err != nil {
		return nil, err
	}
	paths, err := globFiles(e.fs, dir, pattern)
	if err != nil {
		return nil, wrap(tag, x.At, err)
	}
	out := make([]any, len(paths))
	for i, p := range paths {
		out[i] = p
	}
	return out, nil
}

var placeholderRe = regexp.MustCompile(`\{(0)?(?::(0)?([0-9]+)?d?)?\}`)

// formatIndex substitutes i into every "{}" style placeholder of format.
// Supported forms are {}, {0}, {:d}, {:5d} and {:05d}; "{{" and "}}" are
// literal braces.
func formatIndex(format string, i int) (string, error) {
	var b strings.Builder
	for pos := 0; pos < len(format); {
		switch {
		case strings.HasPrefix(format[pos:], "{{"):
			b.WriteByte('{')
			pos += 2
		case strings.HasPrefix(format[pos:], "}}"):
			b.WriteByte('}')
			pos += 2
		case format[pos] == '{':
			m := placeholderRe.FindStringSubmatchIndex(format[pos:])
			if m == nil || m[0] != 0 {
				return "", fmt.Errorf("unsupported placeholder at offset %d in %q", pos, format)
			}
			sub := format[pos : pos+m[1]]
			parts := placeholderRe.FindStringSubmatch(sub)
			width := 0
			if parts[3] != "" {
				width, _ = strconv.Atoi(parts[3])
			}
			if parts[2] != "" {
				fmt.Fprintf(&b, "%0*d", width, i)
			} else {
				fmt.Fprintf(&b, "%*d", width, i)
			}
			pos += m[1]
		case format[pos] == '}':
			return "", fmt.Errorf("single '}' at offset %d in %q", pos, format)
		default:
			b.WriteByte(format[pos])
			pos++
		}
	}
	return b.String(), nil
}

func (e *Evaluator) evalFileRange(x *FileRangeExpr) (any, error) {
	const tag = "file_range"
	format, err := e.str(tag, "fmt", x.Format)
	if err != nil {
		return nil, err
	}
	n, err := e.count(tag, "num", x.Count)
	if err != nil {
		return nil, err
	}
	out := make([]any, n)
	for i := range out {
		s, err := formatIndex(format, i)
		if err != nil {
			return nil, wrap(tag, x.Format.Pos(), err)
		}
		out[i] = s
	}
	return out, nil
}

func (e *Evaluator) evalProduct(x *ProductExpr) (any, error) {
	tag := OpProduct.String()
	if x.Transposed {
		tag = OpProductTransposed.String()
	}
	v, err := e.eval(x.Axes)
	if err != nil {
		return nil, err
	}
	axes, ok := v.(*Map)
	if !ok {
		return nil, errorf(tag, x.Axes.Pos(), "expected a mapping of axes, got %s", describe(v))
	}
	keys := axes.Keys()
	cols := make([][]any, len(keys))
	total := 1
	for i, k := range keys {
		raw, _ := axes.Get(k)
		col, ok := raw.([]any)
		if !ok {
			return nil, errorf(tag, x.Axes.Pos(), "axis %q must be a sequence, got %s", k, describe(raw))
		}
		cols[i] = col
		total *= len(col)
		if total > MaxSequenceLen {
			return nil, errorf(tag, x.At, "product exceeds the limit of %d rows", MaxSequenceLen)
		}
	}

	// Row-major: the first axis varies slowest.
	rows := make([]*Map, total)
	for r := range rows {
		row := NewMap()
		rem := r
		stride := total
		for i, k := range keys {
			stride /= len(cols[i])
			row.Set(k, cols[i][rem/stride])
			rem %= stride
		}
		rows[r] = row
	}

	if !x.Transposed {
		out := make([]any, len(rows))
		for i, row := range rows {
			out[i] = row
		}
		return out, nil
	}
	out := NewMap()
	for _, k := range keys {
		col := make([]any, len(rows))
		for i, row := range rows {
			col[i], _ = row.Get(k)
		}
		out.Set(k, col)
	}
	return out, nil
}

func (e *Evaluator) evalZip(x *ZipExpr) (any, error) {
	const tag = "zip"
	seqs := make([][]any, len(x.Seqs))
	for i, sx := range x.Seqs {
		v, err := e.eval(sx)
		if err != nil {
			return nil, err
		}
		seq, ok := v.([]any)
		if !ok {
			return nil, errorf(tag, sx.Pos(), "argument %d must be a sequence, got %s", i, describe(v))
		}
		if i > 0 && len(seq) != len(seqs[0]) {
			return nil, wrap(tag, sx.Pos(), &LengthMismatchError{Index: i, Want: len(seqs[0]), Got: len(seq)})
		}
		seqs[i] = seq
	}
	out := make([]any, len(seqs[0]))
	for j := range out {
		tuple := make([]any, len(seqs))
		for i, seq := range seqs {
			tuple[i] = seq[j]
		}
		out[j] = tuple
	}
	return out, nil
}

func (e *Evaluator) evalMerge(x *MergeExpr) (any, error) {
	out := NewMap()
	for i, mx := range x.Maps {
		v, err := e.eval(mx)
		if err != nil {
			return nil, err
		}
		m, ok := v.(*Map)
		if !ok {
			return nil, errorf("merge", mx.Pos(), "argument %d must be a mapping, got %s", i, describe(v))
		}
		for _, k := range m.Keys() {
			val, _ := m.Get(k)
			out.Set(k, val)
		}
	}
	return out, nil
}

func (e *Evaluator) evalFlatten(x *FlattenExpr) (any, error) {
	v, err := e.eval(x.Seq)
	if err != nil {
		return nil, err
	}
	out := []any{}
	var walk func(v any) error
	walk = func(v any) error {
		switch v := v.(type) {
		case []any:
			for _, item := range v {
				if err := walk(item); err != nil {
					return err
				}
			}
		case *Map:
			return errorf("flatten", x.At, "cannot flatten a mapping")
		default:
			out = append(out, v)
		}
		return nil
	}
	if err := walk(v); err != nil {
		return nil, err
	}
	return out, nil
}

// pcgStream is the fixed second word of the PCG state; the seed supplies the first.
const pcgStream = 0x9e3779b97f4a7c15

func (e *Evaluator) evalRandInt(x *RandIntExpr) (any, error) {
	const tag = "randint_32"
	seed, err := e.integer(tag, "seed", x.Seed)
	if err != nil {
		return nil, err
	}
	n, err := e.count(tag, "size", x.Size)
	if err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewPCG(uint64(seed), pcgStream))
	out := make([]any, n)
	for i := range out {
		out[i] = int64(rng.Uint32())
	}
	return out, nil
}
