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

// Package descriptor compiles a submission plan into HTCondor submit
// directives plus one itemdata row per task.
package descriptor

import (
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"

	"htcluster/pkg/plan"
)

const (
	// StagingRequirement restricts jobs to execute nodes that mount the staging area.
	StagingRequirement = "(Target.HasCHTCStaging == true)"
	// InStagingEnv tells a task where its staged inputs are.
	InStagingEnv = "HTCLUSTER_IN_STAGING"
)

// Row variables. job_json is always last so that it may contain separators.
const (
	VarInFile     = "in_file"
	VarJobOutFile = "job_out_file"
	VarOutFile    = "out_file"
	VarJobJSON    = "job_json"
)

// Directive is one "key = value" submit line.
type Directive struct {
	Key   string
	Value string
}

// Descriptor is an ordered directive list and a per-task variable table.
type Descriptor struct {
	Directives []Directive
	Vars       []string
	ItemData   []map[string]string
}

// Set adds key, or replaces its value in place.
func (d *Descriptor) Set(key, value string) {
	for i := range d.Directives {
		if d.Directives[i].Key == key {
			d.Directives[i].Value = value
			return
		}
	}
	d.Directives = append(d.Directives, Directive{Key: key, Value: value})
}

func (d *Descriptor) Get(key string) (string, bool) {
	for _, dir := range d.Directives {
		if dir.Key == key {
			return dir.Value, true
		}
	}
	return "", false
}

// Options carries server-side facts the plan cannot know.
type Options struct {
	// HomeDir is the submitting user's home; job directories live below it.
	HomeDir string
}

// Compile turns p into a descriptor and checks it with Check.
func Compile(p *plan.SubmissionPlan, opts Options) (*Descriptor, error) {
	if err := p.Validate(); err != nil {
		return nil, &CompileInconsistencyError{Msg: "invalid plan", Err: err}
	}
	job := p.Job
	logDir := p.Dirs.LogDir

	d := &Descriptor{}
	d.Set("universe", "docker")
	d.Set("docker_image", job.DockerImage)
	d.Set("initialdir", path.Join(opts.HomeDir, p.Dirs.JobDir))
	d.Set("JobBatchName", job.Name)
	d.Set("request_memory", job.Memory)
	d.Set("request_cpus", strconv.Itoa(job.Cpus))
	d.Set("request_disk", job.Disk)
	d.Set("arguments", fmt.Sprintf("%s $(%s)", job.Entrypoint, VarJobJSON))
	d.Set("output", path.Join(logDir, "out", "$(Process).log"))
	d.Set("error", path.Join(logDir, "err", "$(Process).log"))
	d.Set("log", path.Join(logDir, "cluster.log"))

	keys := make([]string, 0, len(job.AdditionalArgs))
	for k := range job.AdditionalArgs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		d.Set(k, job.AdditionalArgs[k])
	}

	if req := requirements(job.Classads, job.Staged()); req != "" {
		d.Set("requirements", req)
	}

	inputs := p.Manifest.ScheduledInputs()
	if len(inputs) > 0 {
		d.Set("transfer_input_files", "$("+VarInFile+")")
		d.Vars = append(d.Vars, VarInFile)
	}
	if job.InStaging && p.HasInputs() {
		d.Set("environment", fmt.Sprintf(`"%s=%s"`, InStagingEnv, p.Dirs.StagingInputDir()))
	}

	outputs := p.Manifest.OutputTargets()
	if len(outputs) > 0 {
		d.Set("should_transfer_files", "YES")
		d.Set("when_to_transfer_output", "ON_EXIT")
		d.Set("transfer_output_files", "$("+VarJobOutFile+")")
		d.Set("transfer_output_remaps", fmt.Sprintf(`"$(%s) = $(%s)"`, VarJobOutFile, VarOutFile))
		d.Vars = append(d.Vars, VarJobOutFile, VarOutFile)
	}
	d.Vars = append(d.Vars, VarJobJSON)

	for j, task := range p.Tasks {
		row := map[string]string{}
		if len(inputs) > 0 {
			row[VarInFile] = inputs[j]
		}
		if len(outputs) > 0 {
			row[VarJobOutFile] = task.OutFile
			row[VarOutFile] = outputs[j]
		}
		raw, err := json.Marshal(task)
		if err != nil {
			return nil, fmt.Errorf("failed to encode arguments of task %d: %w", j, err)
		}
		row[VarJobJSON] = EscapeJSON(string(raw))
		d.ItemData = append(d.ItemData, row)
	}

	if err := d.Check(); err != nil {
		return nil, err
	}
	return d, nil
}

func requirements(classads string, staged bool) string {
	classads = strings.TrimSpace(classads)
	switch {
	case staged && classads != "":
		return classads + " && " + StagingRequirement
	case staged:
		return StagingRequirement
	default:
		return classads
	}
}

// EscapeJSON quotes double quotes for the submit language's argument syntax.
func EscapeJSON(s string) string {
	return strings.ReplaceAll(s, `"`, `\"`)
}

// UnescapeJSON reverses EscapeJSON.
func UnescapeJSON(s string) string {
	return strings.ReplaceAll(s, `\"`, `"`)
}
