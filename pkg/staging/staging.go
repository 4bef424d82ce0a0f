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

// Package staging prepares a job's directories and copies its input files
// before the plan is sent.
package staging

import (
	"context"
	"os"
	"path"
	"path/filepath"

	"github.com/pkg/errors"

	"htcluster/pkg/jobspec"
	"htcluster/pkg/logging"
	"htcluster/pkg/plan"
)

// Stager creates job directory trees on a Target.
type Stager struct {
	target Target
}

func NewStager(t Target) *Stager {
	return &Stager{target: t}
}

// JobTree lists the directories Prepare creates below the job directory, in
// creation order.
func JobTree(d plan.Dirs) []string {
	return []string{
		d.JobDir,
		path.Join(d.JobDir, d.InputDir),
		path.Join(d.JobDir, d.OutputDir),
		path.Join(d.JobDir, d.LogDir),
		path.Join(d.JobDir, d.LogDir, "out"),
		path.Join(d.JobDir, d.LogDir, "err"),
	}
}

// Prepare creates the job directory tree, which must not exist yet, and the
// staging directories the plan uses. sources are the local input files in
// task order; each is copied to the job's input directory, or to the staging
// input directory when the job stages inputs.
func (s *Stager) Prepare(ctx context.Context, p *plan.SubmissionPlan, sources []string) error {
	if err := checkSources(p, sources); err != nil {
		return err
	}
	for _, dir := range JobTree(p.Dirs) {
		if err := s.target.Mkdir(ctx, dir); err != nil {
			return errors.Wrapf(err, "failed to create %s", dir)
		}
	}

	inputDir := path.Join(p.Dirs.JobDir, p.Dirs.InputDir)
	if p.Job.InStaging && len(sources) > 0 {
		inputDir = p.Dirs.StagingInputDir()
		if err := s.target.MkdirAll(ctx, inputDir); err != nil {
			return errors.Wrapf(err, "failed to create %s", inputDir)
		}
	}
	if p.Job.OutStaging {
		if err := s.target.MkdirAll(ctx, p.Dirs.StagingOutputDir()); err != nil {
			return errors.Wrapf(err, "failed to create %s", p.Dirs.StagingOutputDir())
		}
	}

	for j, src := range sources {
		dst := path.Join(inputDir, p.Tasks[j].InFile)
		if err := s.target.Put(ctx, src, dst); err != nil {
			return errors.Wrapf(err, "failed to copy %s", src)
		}
		logging.Info("copied %s", src)
	}
	return nil
}

// checkSources runs before anything is created on the target. Inputs must be
// regular files, one per task, named as the task expects.
func checkSources(p *plan.SubmissionPlan, sources []string) error {
	if len(sources) != 0 && len(sources) != len(p.Tasks) {
		return errors.Errorf("%d input files for %d tasks", len(sources), len(p.Tasks))
	}
	for j, src := range sources {
		if name := p.Tasks[j].InFile; name != filepath.Base(src) {
			return errors.Errorf("task %d expects input %s, got %s", j, name, src)
		}
		info, err := os.Stat(src)
		if err != nil {
			return errors.Wrapf(err, "failed to read input %s", src)
		}
		if !info.Mode().IsRegular() {
			return &jobspec.PathPolicyError{Axis: "in_files", Name: src, Msg: "not a regular file"}
		}
	}
	return nil
}
