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
	"htcluster/pkg/logging"
	"htcluster/pkg/orchestrator"
	"htcluster/pkg/orchestrator/condor"

	"github.com/spf13/cobra"
)

var (
	dryRun     bool
	testLocal  bool
	noStage    bool
	noPinImage bool
)

func init() {
	rootCmd.AddCommand(submitCmd)

	submitCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the compiled plan instead of submitting. With --test-local, send it to a local server without staging.")
	submitCmd.Flags().BoolVar(&testLocal, "test-local", false, "Submit to a server on localhost instead of the configured remote server.")
	submitCmd.Flags().BoolVar(&noStage, "no-stage", false, "Do not create the job directory or copy input files.")
	submitCmd.Flags().BoolVar(&noPinImage, "no-pin-image", false, "Keep the image tag instead of pinning it to the current digest.")
}

var submitCmd = &cobra.Command{
	Use:   "submit JOB_YAML",
	Short: "Compiles a job document and submits it to the cluster.",
	Long: `The 'submit' command reads a job document (a local path or any go-getter
source), validates it, pins the container image to its current digest, creates
the job directory on the submit server, copies the input files and sends the
compiled plan to the submit server, which hands it to HTCondor.`,
	Args:         cobra.ExactArgs(1),
	Run:          runSubmitCmd,
	SilenceUsage: true,
}

func runSubmitCmd(cmd *cobra.Command, args []string) {
	logging.Info("Executing htcluster submit command...")

	jobDef := orchestrator.JobDefinition{
		DocumentPath: args[0],
		DryRun:       dryRun,
		TestLocal:    testLocal,
		StageInputs:  !noStage,
		PinImage:     !noPinImage,
	}

	condorOrchestrator, err := condor.NewCondorOrchestrator(cfg)
	if err != nil {
		logging.Fatal("Failed to create HTCondor orchestrator: %v", err)
	}

	if err := condorOrchestrator.SubmitJob(cmd.Context(), jobDef); err != nil {
		logging.Fatal("htcluster submit failed: %v", err)
	}
}
