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

// Package scheduler hands compiled descriptors to the batch system.
package scheduler

import (
	"context"

	"htcluster/pkg/logging"
	"htcluster/pkg/run/descriptor"
)

// Result describes a submitted cluster.
type Result struct {
	ClusterID int
	NumProcs  int
	// ClusterAd holds the scheduler's attributes for the cluster, as decoded
	// from JSON.
	ClusterAd map[string]any
}

// Scheduler submits one descriptor as one cluster.
type Scheduler interface {
	Submit(ctx context.Context, d *descriptor.Descriptor) (*Result, error)
}

// dryRunPreview bounds how much itemdata a dry run logs.
const dryRunPreview = 1024

// DryRun logs the descriptor instead of submitting it.
type DryRun struct{}

func (DryRun) Submit(ctx context.Context, d *descriptor.Descriptor) (*Result, error) {
	out, err := d.YAML()
	if err != nil {
		return nil, err
	}
	preview := string(out)
	if len(preview) > dryRunPreview {
		preview = preview[:dryRunPreview] + "..."
	}
	logging.Info("Dry run, not submitting %d tasks:\n%s", len(d.ItemData), preview)
	return &Result{ClusterID: -1, NumProcs: len(d.ItemData), ClusterAd: map[string]any{}}, nil
}
