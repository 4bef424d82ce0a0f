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

// Package run executes received submission plans on the submit server.
package run

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"htcluster/pkg/logging"
	"htcluster/pkg/plan"
	"htcluster/pkg/run/descriptor"
	"htcluster/pkg/scheduler"
	"htcluster/pkg/store"
)

// RunOptions configures a Runner.
type RunOptions struct {
	// HomeDir is where job directories live on this machine.
	HomeDir string
	// Scheduler receives compiled descriptors.
	Scheduler scheduler.Scheduler
	// Store records submitted clusters. Nil disables recording.
	Store *store.Store
	// Now is the clock used for records. Nil means time.Now.
	Now func() time.Time
}

// Runner turns encoded plans into scheduler submissions.
type Runner struct {
	opts RunOptions
}

func NewRunner(opts RunOptions) *Runner {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Runner{opts: opts}
}

// Handle decodes payload, submits it and records the result. It has the
// signature of transport.Handler.
func (r *Runner) Handle(ctx context.Context, payload []byte) error {
	p, err := plan.Decode(payload)
	if err != nil {
		return err
	}
	_, err = r.ExecuteRun(ctx, p)
	return err
}

// ExecuteRun compiles p, submits it and records the result. Dry-run
// submissions, reported with a negative cluster id, are not recorded.
func (r *Runner) ExecuteRun(ctx context.Context, p *plan.SubmissionPlan) (*scheduler.Result, error) {
	logging.Info("Compiling descriptor for job %s (%d tasks)...", p.Job.Name, p.NJobs())
	d, err := descriptor.Compile(p, descriptor.Options{HomeDir: r.opts.HomeDir})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to compile job %s", p.Job.Name)
	}

	res, err := r.opts.Scheduler.Submit(ctx, d)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to submit job %s", p.Job.Name)
	}
	if res.ClusterID < 0 {
		return res, nil
	}
	logging.WithFields(logging.Fields{"cluster": res.ClusterID, "procs": res.NumProcs}).
		Infof("Submitted job %s", p.Job.Name)

	if r.opts.Store == nil {
		return res, nil
	}
	if err := r.opts.Store.Put(store.NewRecord(p, res, r.opts.Now())); err != nil {
		return res, errors.Wrapf(err, "cluster %d was submitted but not recorded", res.ClusterID)
	}
	return res, nil
}
