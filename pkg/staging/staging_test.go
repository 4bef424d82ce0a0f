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

package staging

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"htcluster/pkg/jobspec"
	"htcluster/pkg/plan"
)

func writeInputs(t *testing.T, names ...string) []string {
	t.Helper()
	dir := t.TempDir()
	var paths []string
	for _, n := range names {
		p := filepath.Join(dir, n)
		if err := os.WriteFile(p, []byte("data "+n), 0o644); err != nil {
			t.Fatal(err)
		}
		paths = append(paths, p)
	}
	return paths
}

func buildPlan(t *testing.T, inStaging bool, inputs []string) *plan.SubmissionPlan {
	t.Helper()
	jp, err := jobspec.NewJobParams(inputs, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	job, err := jobspec.NewClusterJob(jobspec.JobSettings{
		Name: "align", Memory: "1G", Disk: "1G", Cpus: 1,
		Entrypoint: "run", DockerImage: "alpine:3", InStaging: inStaging,
	}, jp)
	if err != nil {
		t.Fatal(err)
	}
	p, err := plan.Build(job, plan.Layout{ClusterDir: "analysis-results", StagingRoot: "/staging", User: "alice"})
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func readFile(t *testing.T, p string) string {
	t.Helper()
	data, err := os.ReadFile(p)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestJobTree(t *testing.T) {
	d := plan.Dirs{JobDir: "analysis-results/x", InputDir: "input", OutputDir: "output", LogDir: "log"}
	want := []string{
		"analysis-results/x",
		"analysis-results/x/input",
		"analysis-results/x/output",
		"analysis-results/x/log",
		"analysis-results/x/log/out",
		"analysis-results/x/log/err",
	}
	if diff := cmp.Diff(want, JobTree(d)); diff != "" {
		t.Errorf("JobTree() mismatch (-want +got):\n%s", diff)
	}
}

func TestPrepareCopiesInputs(t *testing.T) {
	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, "analysis-results"), 0o755); err != nil {
		t.Fatal(err)
	}
	inputs := writeInputs(t, "a.fq", "b.fq")
	p := buildPlan(t, false, inputs)

	s := NewStager(NewLocalTarget(root))
	if err := s.Prepare(context.Background(), p, inputs); err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	for _, dir := range JobTree(p.Dirs) {
		if info, err := os.Stat(filepath.Join(root, dir)); err != nil || !info.IsDir() {
			t.Errorf("expected directory %s", dir)
		}
	}
	if got := readFile(t, filepath.Join(root, "analysis-results/align/input/b.fq")); got != "data b.fq" {
		t.Errorf("copied content = %q", got)
	}

	err := s.Prepare(context.Background(), p, inputs)
	if !errors.Is(err, ErrDirExists) {
		t.Errorf("second Prepare() error = %v, want ErrDirExists", err)
	}
}

func TestPrepareStagesInputs(t *testing.T) {
	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, "analysis-results"), 0o755); err != nil {
		t.Fatal(err)
	}
	inputs := writeInputs(t, "a.fq")
	p := buildPlan(t, true, inputs)

	if err := NewStager(NewLocalTarget(root)).Prepare(context.Background(), p, inputs); err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if got := readFile(t, filepath.Join(root, "staging/alice/align/input/a.fq")); got != "data a.fq" {
		t.Errorf("staged content = %q", got)
	}
	entries, err := os.ReadDir(filepath.Join(root, "analysis-results/align/input"))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("job input dir has %d entries, want 0", len(entries))
	}
}

func TestPrepareMissingParent(t *testing.T) {
	p := buildPlan(t, false, writeInputs(t, "a.fq"))
	err := NewStager(NewLocalTarget(t.TempDir())).Prepare(context.Background(), p, nil)
	if err == nil {
		t.Fatal("expected an error when the cluster directory does not exist")
	}
}

func TestPrepareRejectsMismatchedSources(t *testing.T) {
	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, "analysis-results"), 0o755); err != nil {
		t.Fatal(err)
	}
	p := buildPlan(t, false, writeInputs(t, "a.fq"))
	err := NewStager(NewLocalTarget(root)).Prepare(context.Background(), p, writeInputs(t, "other.fq"))
	if err == nil {
		t.Fatal("expected an error for a source that does not match the task input")
	}
}

func TestPrepareRejectsDirectoryInput(t *testing.T) {
	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, "analysis-results"), 0o755); err != nil {
		t.Fatal(err)
	}
	src := filepath.Join(t.TempDir(), "sample1")
	if err := os.Mkdir(src, 0o755); err != nil {
		t.Fatal(err)
	}
	p := buildPlan(t, false, []string{src})
	err := NewStager(NewLocalTarget(root)).Prepare(context.Background(), p, []string{src})
	var perr *jobspec.PathPolicyError
	if !errors.As(err, &perr) {
		t.Fatalf("expected PathPolicyError, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, p.Dirs.JobDir)); !os.IsNotExist(err) {
		t.Errorf("job directory should not be created, stat error %v", err)
	}
}

func TestQuote(t *testing.T) {
	tests := map[string]string{
		"plain":       "'plain'",
		"with space":  "'with space'",
		"it's":        `'it'\''s'`,
		"$(rm -rf /)": "'$(rm -rf /)'",
	}
	for in, want := range tests {
		if got := quote(in); got != want {
			t.Errorf("quote(%q) = %q, want %q", in, got, want)
		}
	}
}
