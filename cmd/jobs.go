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
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"

	"htcluster/pkg/logging"
	"htcluster/pkg/store"
)

var jobName string

func init() {
	rootCmd.AddCommand(jobsCmd)

	jobsCmd.Flags().StringVar(&jobName, "name", "", "Only list clusters submitted under this job name.")
	jobsCmd.Flags().StringVar(&dbPath, "db-path", "", "Job database directory. Defaults to db_path from the settings.")
}

var jobsCmd = &cobra.Command{
	Use:          "jobs",
	Short:        "Lists clusters recorded by 'htcluster serve'.",
	Args:         cobra.NoArgs,
	Run:          runJobsCmd,
	SilenceUsage: true,
}

func runJobsCmd(cmd *cobra.Command, args []string) {
	path := dbPath
	if path == "" {
		path = cfg.DBPath
	}
	path, err := homedir.Expand(path)
	if err != nil {
		logging.Fatal("Failed to resolve database path: %v", err)
	}
	db, err := store.Open(path)
	if err != nil {
		logging.Fatal("%v", err)
	}
	defer db.Close()

	var records []*store.Record
	if jobName != "" {
		records, err = db.ByName(jobName)
	} else {
		records, err = db.List()
	}
	if err != nil {
		logging.Fatal("Failed to read job database: %v", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CLUSTER\tJOB\tPROCS\tSUBMITTED\tREVISION")
	for _, r := range records {
		fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%s\n", r.ClusterID, r.JobName, r.NumProcs,
			r.SubmittedOn.Format(time.RFC3339), r.Revision)
	}
	w.Flush()
}
