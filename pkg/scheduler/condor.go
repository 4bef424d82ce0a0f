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

package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"htcluster/pkg/logging"
	"htcluster/pkg/run/descriptor"
	"htcluster/pkg/shell"
)

type runFunc func(ctx context.Context, name string, args ...string) shell.CommandResult

func runCommand(ctx context.Context, name string, args ...string) shell.CommandResult {
	return shell.NewCommand(name, args...).WithContext(ctx).Execute()
}

// Condor submits through condor_submit and reads the cluster ad back with
// condor_q.
type Condor struct {
	// WorkDir receives the temporary submit and itemdata files; empty means
	// the system temp directory.
	WorkDir string
	run     runFunc
}

func NewCondor(workDir string) *Condor {
	return &Condor{WorkDir: workDir, run: runCommand}
}

func (c *Condor) Submit(ctx context.Context, d *descriptor.Descriptor) (*Result, error) {
	dir, err := os.MkdirTemp(c.WorkDir, "htcluster-submit-")
	if err != nil {
		return nil, fmt.Errorf("failed to create submit directory: %w", err)
	}
	defer os.RemoveAll(dir)

	items, err := d.ItemDataFile()
	if err != nil {
		return nil, err
	}
	itemsPath := filepath.Join(dir, "items.txt")
	if err := os.WriteFile(itemsPath, []byte(items), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write itemdata: %w", err)
	}
	sub, err := d.SubmitFile(itemsPath)
	if err != nil {
		return nil, err
	}
	subPath := filepath.Join(dir, "job.sub")
	if err := os.WriteFile(subPath, []byte(sub), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write submit file: %w", err)
	}

	res := c.run(ctx, "condor_submit", "-terse", subPath)
	if res.ExitCode != 0 {
		return nil, fmt.Errorf("condor_submit failed with exit code %d: %s", res.ExitCode, strings.TrimSpace(res.Stderr))
	}
	cluster, first, last, err := parseTerse(res.Stdout)
	if err != nil {
		return nil, err
	}
	logging.Info("Submitted cluster %d with %d procs", cluster, last-first+1)

	ad, err := c.clusterAd(ctx, cluster)
	if err != nil {
		logging.Warn("Could not read ad of cluster %d: %v", cluster, err)
		ad = map[string]any{}
	}
	return &Result{ClusterID: cluster, NumProcs: last - first + 1, ClusterAd: ad}, nil
}

var terseLine = regexp.MustCompile(`(?m)^\s*(\d+)\.(\d+)\s*-\s*(\d+)\.(\d+)\s*$`)

// parseTerse reads "123.0 - 123.4" as printed by condor_submit -terse.
func parseTerse(out string) (cluster, first, last int, err error) {
	m := terseLine.FindStringSubmatch(out)
	if m == nil {
		return 0, 0, 0, fmt.Errorf("unexpected condor_submit output %q", strings.TrimSpace(out))
	}
	nums := make([]int, 4)
	for i := range nums {
		if nums[i], err = strconv.Atoi(m[i+1]); err != nil {
			return 0, 0, 0, err
		}
	}
	if nums[0] != nums[2] || nums[3] < nums[1] {
		return 0, 0, 0, fmt.Errorf("unexpected proc range %q", m[0])
	}
	return nums[0], nums[1], nums[3], nil
}

func (c *Condor) clusterAd(ctx context.Context, cluster int) (map[string]any, error) {
	res := c.run(ctx, "condor_q", strconv.Itoa(cluster)+".0", "-json")
	if res.ExitCode != 0 {
		return nil, fmt.Errorf("condor_q failed with exit code %d: %s", res.ExitCode, strings.TrimSpace(res.Stderr))
	}
	return parseAds(res.Stdout)
}

// parseAds returns the first ad of condor_q -json output.
func parseAds(out string) (map[string]any, error) {
	out = strings.TrimSpace(out)
	if out == "" {
		return map[string]any{}, nil
	}
	var ads []map[string]any
	if err := json.Unmarshal([]byte(out), &ads); err != nil {
		return nil, fmt.Errorf("failed to parse condor_q output: %w", err)
	}
	if len(ads) == 0 {
		return map[string]any{}, nil
	}
	return ads[0], nil
}
