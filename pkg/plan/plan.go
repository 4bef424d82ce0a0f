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

// Package plan compiles a validated job into the per-task submission plan
// that travels to the submit server.
package plan

import (
	"fmt"

	"htcluster/pkg/jobspec"
)

// SubmissionPlan is everything the submit server needs to build a descriptor.
type SubmissionPlan struct {
	Job      jobspec.JobSettings `json:"job"`
	Dirs     Dirs                `json:"dirs"`
	Tasks    []TaskArgs          `json:"tasks"`
	Manifest TransferManifest    `json:"manifest"`
	// Revision is the git revision of the job document, if known.
	Revision string `json:"revision,omitempty"`
}

// Build expands job into tasks and routes their files.
func Build(job *jobspec.ClusterJob, layout Layout) (*SubmissionPlan, error) {
	if job.Job.Staged() && (layout.StagingRoot == "" || layout.User == "") {
		return nil, fmt.Errorf("job %s uses staging but no staging root or user is configured", job.Job.Name)
	}
	tasks, err := Expand(job.Params)
	if err != nil {
		return nil, err
	}
	dirs := NewDirs(layout, job.Job.Name)
	return &SubmissionPlan{
		Job:      job.Job,
		Dirs:     dirs,
		Tasks:    tasks,
		Manifest: Route(job.Job, dirs, tasks),
	}, nil
}

// NJobs is the number of tasks.
func (p *SubmissionPlan) NJobs() int {
	return len(p.Tasks)
}

// HasInputs reports whether tasks carry input files.
func (p *SubmissionPlan) HasInputs() bool {
	return len(p.Tasks) > 0 && p.Tasks[0].InFile != ""
}

// Validate checks a plan received from elsewhere: the settings, and that
// each manifest direction has exactly one list of the right length.
func (p *SubmissionPlan) Validate() error {
	if err := p.Job.Validate(); err != nil {
		return err
	}
	n := len(p.Tasks)
	if n == 0 {
		return fmt.Errorf("plan for %s has no tasks", p.Job.Name)
	}
	if p.Dirs.JobDir == "" {
		return fmt.Errorf("plan for %s has no job directory", p.Job.Name)
	}

	inputs := 0
	for j, t := range p.Tasks {
		if t.OutFile == "" {
			return fmt.Errorf("task %d has no output file", j)
		}
		if t.InFile != "" {
			inputs++
		}
	}
	if inputs != 0 && inputs != n {
		return fmt.Errorf("%d of %d tasks have input files", inputs, n)
	}

	check := func(axis string, staged bool, plain, staging []string, want int) error {
		used, unused := plain, staging
		if staged {
			used, unused = staging, plain
		}
		if len(unused) != 0 {
			return fmt.Errorf("manifest lists %d unexpected %s entries", len(unused), axis)
		}
		if len(used) != want {
			return fmt.Errorf("manifest lists %d %s entries for %d tasks", len(used), axis, want)
		}
		return nil
	}
	m := p.Manifest
	if err := check("input", p.Job.InStaging, m.InFiles, m.InFilesStaging, inputs); err != nil {
		return err
	}
	return check("output", p.Job.OutStaging, m.OutFiles, m.OutFilesStaging, n)
}
