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

package cmd

import (
	"encoding/json"
	"os"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"

	"htcluster/pkg/logging"
	"htcluster/pkg/orchestrator"
	"htcluster/pkg/orchestrator/condor"
	"htcluster/pkg/plan"
	"htcluster/pkg/run/descriptor"
)

var (
	showDescriptor bool
	planOutput     string
)

func init() {
	rootCmd.AddCommand(planCmd)

	planCmd.Flags().BoolVar(&showDescriptor, "descriptor", false, "Print the compiled HTCondor descriptor instead of the plan.")
	planCmd.Flags().StringVarP(&planOutput, "output", "o", "", "Write to this file instead of stdout.")
}

var planCmd = &cobra.Command{
	Use:   "plan JOB_YAML",
	Short: "Compiles a job document without submitting it.",
	Long: `The 'plan' command compiles a job document and prints the submission plan as
JSON, or with --descriptor the HTCondor descriptor the submit server would
build from it. Nothing is staged, pinned or sent.`,
	Args:         cobra.ExactArgs(1),
	Run:          runPlanCmd,
	SilenceUsage: true,
}

func runPlanCmd(cmd *cobra.Command, args []string) {
	condorOrchestrator, err := condor.NewCondorOrchestrator(cfg)
	if err != nil {
		logging.Fatal("Failed to create HTCondor orchestrator: %v", err)
	}
	p, _, err := condorOrchestrator.Compile(cmd.Context(), orchestrator.JobDefinition{DocumentPath: args[0]})
	if err != nil {
		logging.Fatal("htcluster plan failed: %v", err)
	}

	out, err := renderPlan(p)
	if err != nil {
		logging.Fatal("htcluster plan failed: %v", err)
	}
	if planOutput == "" {
		os.Stdout.Write(out)
		return
	}
	if err := os.WriteFile(planOutput, out, 0o644); err != nil {
		logging.Fatal("Failed to write %s: %v", planOutput, err)
	}
	logging.Info("Saved plan to %s", planOutput)
}

func renderPlan(p *plan.SubmissionPlan) ([]byte, error) {
	if !showDescriptor {
		out, err := json.MarshalIndent(p, "", "  ")
		return append(out, '\n'), err
	}
	home, err := homedir.Expand(cfg.RemoteHome)
	if err != nil {
		return nil, err
	}
	d, err := descriptor.Compile(p, descriptor.Options{HomeDir: home})
	if err != nil {
		return nil, err
	}
	return d.YAML()
}
