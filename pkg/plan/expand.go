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

package plan

import (
	"fmt"
	"path/filepath"

	"htcluster/pkg/jobspec"
)

// TaskArgs is what a single task receives as its job_json argument.
type TaskArgs struct {
	InFile  string         `json:"in_file,omitempty"`
	OutFile string         `json:"out_file"`
	Params  map[string]any `json:"params,omitempty"`
	// ParamOrder is the document order of the Params keys. Keys missing
	// from it are written after it, sorted.
	ParamOrder []string `json:"-"`
}

// Expand produces one TaskArgs per task, in source order.
func Expand(p *jobspec.JobParams) ([]TaskArgs, error) {
	n := p.NJobs()
	tasks := make([]TaskArgs, n)
	order := p.Params.Names()
	owner := make(map[string]int, n)
	for j := range tasks {
		if p.HasInputs() {
			tasks[j].InFile = filepath.Base(p.InFiles[j])
		}
		if p.HasParams() {
			tasks[j].Params = p.Params.Row(j)
			tasks[j].ParamOrder = order
		}

		switch out := p.OutFiles.(type) {
		case jobspec.ExplicitOutputs:
			tasks[j].OutFile = out[j]
		case jobspec.ImplicitOutputs:
			name, err := ImplicitOutputName(out, p.InFiles, j)
			if err != nil {
				return nil, err
			}
			tasks[j].OutFile = name
		default:
			return nil, fmt.Errorf("unsupported out_files specification %T", p.OutFiles)
		}
		if prev, ok := owner[tasks[j].OutFile]; ok {
			return nil, &jobspec.PathPolicyError{
				Axis: "out_files",
				Name: tasks[j].OutFile,
				Msg:  fmt.Sprintf("tasks %d and %d would write the same output", prev, j),
			}
		}
		owner[tasks[j].OutFile] = j
	}
	return tasks, nil
}
