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

func newGlobFs(t *testing.T, files ...string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	for _, f := range files {
		if err := afero.WriteFile(fs, f, []byte("x"), 0o644); err != nil {
			t.Fatalf("writing %s: %v", f, err)
		}
	}
	return fs
}

func TestGlobNaturalOrder(t *testing.T) {
	fs := newGlobFs(t, "data/s_10.txt", "data/s_2.txt", "data/s_1.txt", "data/notes.md", "data/sub/s_3.txt")

	got, err := evalString(t, fs, "!glob data *.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff(strs("data/s_1.txt", "data/s_2.txt", "data/s_10.txt"), got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}

	got, err = evalString(t, fs, `!glob {dir: data, glob: "**/*.txt"}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff(strs("data/s_1.txt", "data/s_2.txt", "data/sub/s_3.txt", "data/s_10.txt"), got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestGlobEmpty(t *testing.T) {
	fs := newGlobFs(t, "data/a.md")
	for _, src := range []string{"!glob data *.txt", "!glob missing *.txt"} {
		_, err := evalString(t, fs, src)
		var empty *EmptyGlobError
		if !errors.As(err, &empty) {
			t.Fatalf("%s: expected EmptyGlobError, got %v", src, err)
		}
		if empty.Pattern != "*.txt" {
			t.Errorf("unexpected pattern %q", empty.Pattern)
		}
	}
}

func TestSortNatural(t *testing.T) {
	paths := []string{
		"x/run-10.log",
		"x/run-9.log",
		"x/run-a.log",
		"y/run-9.log",
		"x/run.log",
		"x/run-1e2.log",
	}
	sortNatural(paths)
	want := []string{
		"x/run-9.log",
		"y/run-9.log",
		"x/run-10.log",
		"x/run-1e2.log",
		"x/run-a.log",
		"x/run.log",
	}
	if diff := cmp.Diff(want, paths); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}
