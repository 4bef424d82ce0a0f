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
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"
)

func evalString(t *testing.T, fs afero.Fs, src string) (any, error) {
	t.Helper()
	x, err := NewParser(DefaultTable()).ParseString(src)
	if err != nil {
		return nil, err
	}
	return NewEvaluator(fs).Eval(x)
}

func ints(vs ...int64) []any {
	out := make([]any, len(vs))
	for i, v := range vs {
		out[i] = v
	}
	return out
}

func floats(vs ...float64) []any {
	out := make([]any, len(vs))
	for i, v := range vs {
		out[i] = v
	}
	return out
}

func strs(vs ...string) []any {
	out := make([]any, len(vs))
	for i, v := range vs {
		out[i] = v
	}
	return out
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want any
	}{
		{"range stop only", "!range 4", ints(0, 1, 2, 3)},
		{"range start stop", "!range 2 5", ints(2, 3, 4)},
		{"range with step", "!range [0, 10, 3]", ints(0, 3, 6, 9)},
		{"range negative step", "!range 5 0 -2", ints(5, 3, 1)},
		{"range named", "!range {start: 2, stop: 8, step: 3}", ints(2, 5)},
		{"range empty", "!range 5 1", []any{}},
		{"range float bounds", "!range 0 1.5", floats(0, 1)},
		{"linspace", "!linspace 0 1 5", floats(0, 0.25, 0.5, 0.75, 1)},
		{"linspace single", "!linspace 3 9 1", floats(3)},
		{"logspace", "!logspace [0, 2, 3]", floats(1, 10, 100)},
		{"repeat scalar", "!repeat abc 3", strs("abc", "abc", "abc")},
		{"repeat nested", "!repeat (!range 2) 2", []any{ints(0, 1), ints(0, 1)}},
		{"repeat named", "!repeat {rep: 7, n: 2}", ints(7, 7)},
		{"file range plain", "!file_range sample_{}.txt 3", strs("sample_0.txt", "sample_1.txt", "sample_2.txt")},
		{"file range padded", "!file_range [\"run{:03d}\", 2]", strs("run000", "run001")},
		{"file range braces", `!file_range '"{{x}}-{}" 1'`, strs("{x}-0")},
		{"zip", "!zip [[1, 2], [a, b]]", []any{[]any{int64(1), "a"}, []any{int64(2), "b"}}},
		{"zip inline", "!zip (!range 2) (!repeat x 2)", []any{[]any{int64(0), "x"}, []any{int64(1), "x"}}},
		{"flatten", "!flatten [[1, [2, 3]], 4]", ints(1, 2, 3, 4)},
		{"flatten generators", "!flatten [!range 2, !range 1 3]", ints(0, 1, 1, 2)},
		{"plain mapping", "{a: [1, 2], b: x}", map[string]any{"a": ints(1, 2), "b": "x"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := evalString(t, afero.NewMemMapFs(), tc.src)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tc.want, Plain(got)); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestProduct(t *testing.T) {
	got, err := evalString(t, nil, "!product {a: [1, 2], b: [x, y, z]}")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rows, ok := got.([]any)
	if !ok || len(rows) != 6 {
		t.Fatalf("expected 6 rows, got %v", got)
	}
	want := []any{
		map[string]any{"a": int64(1), "b": "x"},
		map[string]any{"a": int64(1), "b": "y"},
		map[string]any{"a": int64(1), "b": "z"},
		map[string]any{"a": int64(2), "b": "x"},
		map[string]any{"a": int64(2), "b": "y"},
		map[string]any{"a": int64(2), "b": "z"},
	}
	if diff := cmp.Diff(want, Plain(got)); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
	if keys := rows[0].(*Map).Keys(); !cmp.Equal(keys, []string{"a", "b"}) {
		t.Errorf("row keys lost their order: %v", keys)
	}
}

func TestProductTransposed(t *testing.T) {
	got, err := evalString(t, nil, "!product_transposed {lr: !linspace 0 1 2, seed: !range 3}")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := map[string]any{
		"lr":   floats(0, 0, 0, 1, 1, 1),
		"seed": ints(0, 1, 2, 0, 1, 2),
	}
	if diff := cmp.Diff(want, Plain(got)); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeKeepsOrderAndOverrides(t *testing.T) {
	got, err := evalString(t, nil, "!merge [{a: 1, b: 2}, !product_transposed {c: [3]}, {a: 9}]")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m := got.(*Map)
	if diff := cmp.Diff([]string{"a", "b", "c"}, m.Keys()); diff != "" {
		t.Errorf("key order mismatch (-want +got):\n%s", diff)
	}
	if v, _ := m.Get("a"); v != int64(9) {
		t.Errorf("expected later mapping to win, got %v", v)
	}
}

func TestRandInt32IsDeterministic(t *testing.T) {
	a, err := evalString(t, nil, "!randint_32 42 8")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := evalString(t, nil, "!randint_32 {seed: 42, size: 8}")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("same seed produced different values:\n%s", diff)
	}
	c, err := evalString(t, nil, "!randint_32 43 8")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cmp.Equal(a, c) {
		t.Error("different seeds produced identical values")
	}
	for _, v := range a.([]any) {
		n := v.(int64)
		if n < 0 || n > 1<<32-1 {
			t.Errorf("value %d outside uint32 range", n)
		}
	}
}

func TestEvaluateErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		tag  string
	}{
		{"unknown tag", "!nope 3", "nope"},
		{"range float step", "!range 0 5 0.5", "range"},
		{"range zero step", "!range 0 5 0", "range"},
		{"range too many args", "!range 1 2 3 4", "range"},
		{"range string stop", "!range abc", "range"},
		{"repeat negative", "!repeat x -1", "repeat"},
		{"linspace float num", "!linspace 0 1 2.0", "linspace"},
		{"named unknown arg", "!repeat {rep: 1, count: 2}", "repeat"},
		{"named missing arg", "!linspace {start: 0, stop: 1}", "linspace"},
		{"product of list", "!product [[1, 2]]", "product"},
		{"product axis scalar", "!product {a: 1}", "product"},
		{"merge non mapping", "!merge [{a: 1}, [2]]", "merge"},
		{"flatten mapping", "!flatten [{a: 1}]", "flatten"},
		{"zip scalar", "!zip [[1], 2]", "zip"},
		{"nested tag without parens", "!repeat '!range 3'", "repeat"},
		{"unbalanced parens", "!repeat (!range 3 4", "range"},
		{"implicit out nested", "[!implicit_out .bam]", "implicit_out"},
		{"file range bad placeholder", `!file_range '"{:x}" 2'`, "file_range"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := evalString(t, afero.NewMemMapFs(), tc.src)
			var docErr *DocumentError
			if !errors.As(err, &docErr) {
				t.Fatalf("expected DocumentError, got %v", err)
			}
			if docErr.Tag != tc.tag {
				t.Errorf("expected tag %q, got %q (%v)", tc.tag, docErr.Tag, err)
			}
		})
	}
}

func TestZipLengthMismatch(t *testing.T) {
	_, err := evalString(t, nil, "!zip [[1, 2], [1, 2, 3]]")
	var mismatch *LengthMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected LengthMismatchError, got %v", err)
	}
	if mismatch.Index != 1 || mismatch.Want != 2 || mismatch.Got != 3 {
		t.Errorf("unexpected mismatch %+v", mismatch)
	}
	var docErr *DocumentError
	if !errors.As(err, &docErr) || docErr.Tag != "zip" {
		t.Errorf("expected zip DocumentError, got %v", err)
	}
}

func TestErrorPosition(t *testing.T) {
	_, err := evalString(t, nil, "a: 1\nb: !nope 3\n")
	var docErr *DocumentError
	if !errors.As(err, &docErr) {
		t.Fatalf("expected DocumentError, got %v", err)
	}
	if docErr.Pos.Line != 2 {
		t.Errorf("expected error on line 2, got %v", docErr.Pos)
	}
}

func TestEvalOutputs(t *testing.T) {
	p := NewParser(DefaultTable())
	e := NewEvaluator(nil)

	x, err := p.ParseString("!implicit_out .bam -2")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	v, marker, err := e.EvalOutputs(x)
	if err != nil || v != nil || marker == nil {
		t.Fatalf("expected marker, got %v %v %v", v, marker, err)
	}
	if marker.Suffix != ".bam" || marker.Index == nil || *marker.Index != -2 {
		t.Errorf("unexpected marker %+v", marker)
	}

	x, err = p.ParseString("!implicit_out {suffix: .txt}")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, marker, _ = e.EvalOutputs(x); marker == nil || marker.Index != nil {
		t.Errorf("expected marker without index, got %+v", marker)
	}

	x, err = p.ParseString("[a.out, b.out]")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	v, marker, err = e.EvalOutputs(x)
	if err != nil || marker != nil {
		t.Fatalf("expected plain value, got %v %v", marker, err)
	}
	if diff := cmp.Diff(strs("a.out", "b.out"), v); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestTable(t *testing.T) {
	p := NewParser(NewTable(OpRange))
	if _, err := p.ParseString("!glob data '*'"); err == nil {
		t.Error("expected glob to be unknown to a range-only table")
	}

	aliased := NewTable(OpRange).With("arange", OpRange)
	x, err := NewParser(aliased).ParseString("!arange 2")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	v, err := NewEvaluator(nil).Eval(x)
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	if diff := cmp.Diff(ints(0, 1), v); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"arange", "range"}, aliased.Tags()); diff != "" {
		t.Errorf("tags mismatch (-want +got):\n%s", diff)
	}
	if len(DefaultTable().Tags()) != len(AllOps()) {
		t.Errorf("default table should know every op")
	}
}

func TestImplicitOutNumericLookingSuffix(t *testing.T) {
	p := NewParser(DefaultTable())
	e := NewEvaluator(nil)
	tests := []struct {
		src  string
		want string
	}{
		{"!implicit_out .5", ".5"},
		{"!implicit_out .5 0", ".5"},
		{"!implicit_out {suffix: .10}", ".10"},
		{"!implicit_out .true", ".true"},
		{`!implicit_out '".5"'`, ".5"},
	}
	for _, tc := range tests {
		t.Run(tc.src, func(t *testing.T) {
			x, err := p.ParseString(tc.src)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			_, marker, err := e.EvalOutputs(x)
			if err != nil || marker == nil {
				t.Fatalf("expected marker, got %v %v", marker, err)
			}
			if marker.Suffix != tc.want {
				t.Errorf("Suffix = %q, want %q", marker.Suffix, tc.want)
			}
		})
	}

	if _, err := p.ParseString("!implicit_out {suffix: null}"); err == nil {
		t.Error("expected a null suffix to be rejected")
	}
}

func TestProgressionKeepsType(t *testing.T) {
	if diff := cmp.Diff(ints(5, 3, 1), progression(int64(5), int64(-2), 3)); diff != "" {
		t.Errorf("int mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]any{0.5, 1.5}, progression(0.5, 1.0, 2)); diff != "" {
		t.Errorf("float mismatch (-want +got):\n%s", diff)
	}
	if got := progression(int64(1), int64(1), 0); len(got) != 0 {
		t.Errorf("expected empty progression, got %v", got)
	}
}
