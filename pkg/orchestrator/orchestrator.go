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

package orchestrator

import "context"

// JobDefinition is one request to submit a job document.
type JobDefinition struct {
	// DocumentPath is a local path or a go-getter source.
	DocumentPath string

	// DryRun prints the compiled plan instead of contacting the submit
	// server, unless TestLocal is also set.
	DryRun bool
	// TestLocal talks to a submit server on this machine.
	TestLocal bool
	// StageInputs creates the job directories and copies input files.
	StageInputs bool
	// PinImage replaces the image tag with its current digest.
	PinImage bool
}

// Orchestrator defines the interface for submitting jobs to a cluster.
type Orchestrator interface {
	// SubmitJob compiles the job document and hands it to the submit server.
	SubmitJob(ctx context.Context, job JobDefinition) error
}
