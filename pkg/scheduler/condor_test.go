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
	"bytes"
	"context"
	"os"
	"strings"
	"testing"

	"htcluster/pkg/logging"
	"htcluster/pkg/run/descriptor"
	"htcluster/pkg/shell"
)

func testDescriptor() *descriptor.Descriptor {
	d := &descriptor.Descriptor{}
	d.Set("universe", "docker")
	d.Set("arguments", "run.sh $(job_json)")
	d.Vars = []string{"job_json"}
	d.ItemData = []map[string]string{
		{"job_json": `{\"out_file\":\"0.out\"}`},
		{"job_json": `{\"out_file\":\"1.out\"}`},
	}
	return d
}

func TestParseTerse(t *testing.T) {
	tests := []struct {
		out                  string
		cluster, first, last int
		wantErr              bool
	}{
		{out: "4242.0 - 4242.9\n", cluster: 4242, first: 0, last: 9},
		{out: "Submitting job(s).\n17.0 - 17.0\n", cluster: 17, first: 0, last: 0},
		{out: "nonsense", wantErr: true},
		{out: "1.0 - 2.3", wantErr: true},
	}
	for _, tc := range tests {
		cluster, first, last, err := parseTerse(tc.out)
		if (err != nil) != tc.wantErr {
			t.Errorf("parseTerse(%q) error = %v, wantErr %v", tc.out, err, tc.wantErr)
			continue
		}
		if !tc.wantErr && (cluster != tc.cluster || first != tc.first || last != tc.last) {
			t.Errorf("parseTerse(%q) = %d %d %d", tc.out, cluster, first, last)
		}
	}
}

func TestParseAds(t *testing.T) {
	ad, err := parseAds(`[{"ClusterId": 7, "Cmd": "/bin/run", "RequestCpus": 2}, {"ClusterId": 7}]`)
	if err != nil {
		t.Fatalf("parseAds: %v", err)
	}
	if ad["Cmd"] != "/bin/run" || ad["RequestCpus"] != float64(2) {
		t.Errorf("unexpected ad %v", ad)
	}
	if ad, err := parseAds(""); err != nil || len(ad) != 0 {
		t.Errorf("expected empty ad for empty output, got %v %v", ad, err)
	}
	if _, err := parseAds("{"); err == nil {
		t.Error("expected error for malformed JSON")
	}
}

func TestCondorSubmit(t *testing.T) {
	var submitFile, items string
	c := &Condor{WorkDir: t.TempDir()}
	c.run = func(ctx context.Context, name string, args ...string) shell.CommandResult {
		switch name {
		case "condor_submit":
			raw, err := os.ReadFile(args[len(args)-1])
			if err != nil {
				t.Fatalf("reading submit file: %v", err)
			}
			submitFile = string(raw)
			itemsPath := submitFile[strings.LastIndex(submitFile, " from ")+6 : len(submitFile)-1]
			raw, err = os.ReadFile(itemsPath)
			if err != nil {
				t.Fatalf("reading itemdata: %v", err)
			}
			items = string(raw)
			return shell.CommandResult{Stdout: "99.0 - 99.1\n"}
		case "condor_q":
			if args[0] != "99.0" {
				t.Errorf("unexpected condor_q target %v", args)
			}
			return shell.CommandResult{Stdout: `[{"ClusterId": 99, "JobBatchName": "align"}]`}
		}
		t.Fatalf("unexpected command %s", name)
		return shell.CommandResult{}
	}

	res, err := c.Submit(context.Background(), testDescriptor())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.ClusterID != 99 || res.NumProcs != 2 || res.ClusterAd["JobBatchName"] != "align" {
		t.Errorf("unexpected result %+v", res)
	}
	if !strings.Contains(submitFile, "universe = docker\n") || !strings.Contains(submitFile, "queue job_json from ") {
		t.Errorf("unexpected submit file:\n%s", submitFile)
	}
	if strings.Count(items, "\n") != 2 {
		t.Errorf("expected two itemdata lines, got %q", items)
	}
}

func TestCondorSubmitFailure(t *testing.T) {
	c := &Condor{WorkDir: t.TempDir()}
	c.run = func(ctx context.Context, name string, args ...string) shell.CommandResult {
		return shell.CommandResult{ExitCode: 1, Stderr: "ERROR: no schedd"}
	}
	_, err := c.Submit(context.Background(), testDescriptor())
	if err == nil || !strings.Contains(err.Error(), "no schedd") {
		t.Errorf("expected condor_submit error, got %v", err)
	}
}

func TestCondorMissingAdIsNotFatal(t *testing.T) {
	c := &Condor{WorkDir: t.TempDir()}
	c.run = func(ctx context.Context, name string, args ...string) shell.CommandResult {
		if name == "condor_q" {
			return shell.CommandResult{ExitCode: 1, Stderr: "timeout"}
		}
		return shell.CommandResult{Stdout: "5.0 - 5.1\n"}
	}
	var logs bytes.Buffer
	logging.SetOutput(&logs)
	defer logging.SetOutput(os.Stderr)

	res, err := c.Submit(context.Background(), testDescriptor())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.ClusterID != 5 || len(res.ClusterAd) != 0 {
		t.Errorf("unexpected result %+v", res)
	}
	if !strings.Contains(logs.String(), "Could not read ad of cluster 5") {
		t.Errorf("expected a warning, got %q", logs.String())
	}
}

func TestDryRun(t *testing.T) {
	var logs bytes.Buffer
	logging.SetOutput(&logs)
	defer logging.SetOutput(os.Stderr)

	res, err := DryRun{}.Submit(context.Background(), testDescriptor())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.ClusterID != -1 || res.NumProcs != 2 {
		t.Errorf("unexpected result %+v", res)
	}
	if !strings.Contains(logs.String(), "universe: docker") {
		t.Errorf("expected descriptor in logs, got %q", logs.String())
	}
}
