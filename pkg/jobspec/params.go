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

package jobspec

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ParamSet maps parameter names to value sequences, in document order.
type ParamSet struct {
	names  []string
	values map[string][]any
}

func NewParamSet() *ParamSet {
	return &ParamSet{values: map[string][]any{}}
}

// Add appends name, replacing its values if it already exists.
func (p *ParamSet) Add(name string, values []any) {
	if _, ok := p.values[name]; !ok {
		p.names = append(p.names, name)
	}
	p.values[name] = values
}

func (p *ParamSet) Names() []string {
	if p == nil {
		return nil
	}
	return append([]string(nil), p.names...)
}

func (p *ParamSet) Values(name string) []any {
	if p == nil {
		return nil
	}
	return p.values[name]
}

// Len is the number of named sequences.
func (p *ParamSet) Len() int {
	if p == nil {
		return 0
	}
	return len(p.names)
}

// Row returns the j-th element of every sequence.
func (p *ParamSet) Row(j int) map[string]any {
	row := make(map[string]any, len(p.names))
	for _, name := range p.names {
		row[name] = p.values[name][j]
	}
	return row
}

// OutputSpec is either ExplicitOutputs or ImplicitOutputs.
type OutputSpec interface {
	isOutputSpec()
}

// ExplicitOutputs lists one bare output file name per task.
type ExplicitOutputs []string

// ImplicitOutputs derives each output name from the task's input name, or
// from the task index when there are no inputs.
type ImplicitOutputs struct {
	Suffix string
	Index  *int
}

func (ExplicitOutputs) isOutputSpec() {}
func (ImplicitOutputs) isOutputSpec() {}

// DefaultOutputs is used when a document has no out_files.
var DefaultOutputs = ImplicitOutputs{Suffix: ".out"}

// JobParams holds the per-task axes and the task count derived from them.
type JobParams struct {
	InFiles  []string
	Params   *ParamSet
	OutFiles OutputSpec
	nJobs    int
}

// NewJobParams validates the axes against each other. When both in_files and
// params are present their lengths must agree; explicit outputs must then
// match that length. A nil out defaults to DefaultOutputs.
func NewJobParams(inFiles []string, params *ParamSet, out OutputSpec) (*JobParams, error) {
	hasInputs := len(inFiles) > 0
	hasParams := params.Len() > 0
	if !hasInputs && !hasParams {
		return nil, &CardinalityError{Axis: "params", Msg: "at least one of in_files and params must be non-empty"}
	}

	n := -1
	if hasParams {
		for _, name := range params.Names() {
			l := len(params.Values(name))
			if n < 0 {
				n = l
				continue
			}
			if l != n {
				return nil, &CardinalityError{Axis: "params", Key: name, Want: n, Got: l}
			}
		}
	}
	if hasInputs {
		if hasParams && len(inFiles) != n {
			return nil, &CardinalityError{
				Axis: "in_files", Want: n, Got: len(inFiles),
				Msg: fmt.Sprintf("in_files has %d entries but params sequences have %d", len(inFiles), n),
			}
		}
		n = len(inFiles)
		if err := checkInputs(inFiles); err != nil {
			return nil, err
		}
	}
	if n == 0 {
		return nil, &CardinalityError{Axis: "params", Msg: "params sequences are empty, no tasks to run"}
	}

	if out == nil {
		out = DefaultOutputs
	}
	switch o := out.(type) {
	case ExplicitOutputs:
		if len(o) != n {
			return nil, &CardinalityError{Axis: "out_files", Want: n, Got: len(o)}
		}
		seen := make(map[string]bool, len(o))
		for _, name := range o {
			if err := checkBareName("out_files", name); err != nil {
				return nil, err
			}
			if seen[name] {
				return nil, &PathPolicyError{Axis: "out_files", Name: name, Msg: "names more than one task's output"}
			}
			seen[name] = true
		}
	case ImplicitOutputs:
		if strings.ContainsAny(o.Suffix, `/\`) {
			return nil, &PathPolicyError{Axis: "out_files", Name: o.Suffix, Msg: "suffix must not contain a directory separator"}
		}
	default:
		return nil, fmt.Errorf("unsupported out_files specification %T", out)
	}

	return &JobParams{InFiles: inFiles, Params: params, OutFiles: out, nJobs: n}, nil
}

func checkBareName(axis, name string) error {
	switch {
	case name == "" || name == "." || name == "..":
		return &PathPolicyError{Axis: axis, Name: name, Msg: "not a file name"}
	case strings.ContainsAny(name, `/\`):
		return &PathPolicyError{Axis: axis, Name: name, Msg: "must not contain a directory component"}
	}
	return nil
}

// checkInputs rejects distinct paths that would land on the same name in the
// job's input directory.
func checkInputs(inFiles []string) error {
	seen := map[string]string{}
	for _, f := range inFiles {
		base := filepath.Base(f)
		if f == "" || base == "." || base == string(filepath.Separator) {
			return &PathPolicyError{Axis: "in_files", Name: f, Msg: "not a file path"}
		}
		if prev, ok := seen[base]; ok && filepath.Clean(prev) != filepath.Clean(f) {
			return &PathPolicyError{Axis: "in_files", Name: f, Msg: fmt.Sprintf("has the same name as %q", prev)}
		}
		seen[base] = f
	}
	return nil
}

// NJobs is the number of tasks.
func (p *JobParams) NJobs() int {
	return p.nJobs
}

func (p *JobParams) HasInputs() bool {
	return len(p.InFiles) > 0
}

func (p *JobParams) HasParams() bool {
	return p.Params.Len() > 0
}

// ClusterJob is a validated job: settings plus parameters.
type ClusterJob struct {
	Job    JobSettings
	Params *JobParams
}

func NewClusterJob(job JobSettings, params *JobParams) (*ClusterJob, error) {
	if err := job.Validate(); err != nil {
		return nil, err
	}
	return &ClusterJob{Job: job, Params: params}, nil
}
