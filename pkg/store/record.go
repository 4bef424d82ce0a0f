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

package store

import (
	"time"

	"htcluster/pkg/plan"
	"htcluster/pkg/scheduler"
)

// ClusterAdAttributes are the cluster ad fields kept with each record.
var ClusterAdAttributes = []string{
	"Cmd", "Iwd", "JobPrio", "UserLog", "ClusterId", "StreamErr", "StreamOut",
	"DockerImage", "Environment", "JobUniverse", "RequestCpus", "RequestDisk",
	"JobBatchName", "Requirements", "CondorVersion", "RequestMemory",
	"TransferInput", "CondorPlatform", "TransferOutput", "JobNotification",
	"JobSubmitMethod", "LeaveJobInQueue", "DockerPullPolicy", "JobLeaseDuration",
	"ShouldTransferFiles", "TransferInputSizeMB", "EnteredCurrentStatus",
	"WhenToTransferOutput",
}

// ProcRecord is one task of a submitted cluster.
type ProcRecord struct {
	ProcID  int           `json:"proc_id"`
	InPath  string        `json:"in_path,omitempty"`
	OutPath string        `json:"out_path"`
	Args    plan.TaskArgs `json:"args"`
}

// Record is a submitted cluster as persisted.
type Record struct {
	ClusterID   int                  `json:"cluster_id"`
	NumProcs    int                  `json:"num_procs"`
	JobName     string               `json:"job_name"`
	SubmittedOn time.Time            `json:"submitted_on"`
	TZ          string               `json:"tz"`
	Revision    string               `json:"revision,omitempty"`
	ClusterAd   map[string]any       `json:"cluster_ad"`
	Procs       []ProcRecord         `json:"procs"`
	Plan        *plan.SubmissionPlan `json:"plan"`
}

// NewRecord combines a plan with its submission result. Only
// ClusterAdAttributes are kept from the ad.
func NewRecord(p *plan.SubmissionPlan, res *scheduler.Result, now time.Time) *Record {
	tz, _ := now.Zone()
	r := &Record{
		ClusterID:   res.ClusterID,
		NumProcs:    res.NumProcs,
		JobName:     p.Job.Name,
		SubmittedOn: now,
		TZ:          tz,
		Revision:    p.Revision,
		ClusterAd:   map[string]any{},
		Plan:        p,
	}
	for _, attr := range ClusterAdAttributes {
		if v, ok := res.ClusterAd[attr]; ok {
			r.ClusterAd[attr] = v
		}
	}

	inputs := p.Manifest.ScheduledInputs()
	if len(inputs) == 0 {
		inputs = p.Manifest.InFilesStaging
	}
	outputs := p.Manifest.OutputTargets()
	for j, task := range p.Tasks {
		proc := ProcRecord{ProcID: j, Args: task}
		if j < len(inputs) {
			proc.InPath = inputs[j]
		}
		if j < len(outputs) {
			proc.OutPath = outputs[j]
		}
		r.Procs = append(r.Procs, proc)
	}
	return r
}
