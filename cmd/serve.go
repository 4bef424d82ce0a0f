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
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"

	"htcluster/pkg/logging"
	"htcluster/pkg/run"
	"htcluster/pkg/scheduler"
	"htcluster/pkg/store"
	"htcluster/pkg/transport"
)

var (
	servePort   int
	dbPath      string
	serveDryRun bool
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntVar(&servePort, "port", 0, "Loopback port to listen on. Defaults to remote_port from the settings.")
	serveCmd.Flags().StringVar(&dbPath, "db-path", "", "Job database directory. Defaults to db_path from the settings.")
	serveCmd.Flags().BoolVar(&serveDryRun, "dry-run", false, "Log descriptors instead of submitting them.")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Receives plans and submits them to HTCondor.",
	Long: `The 'serve' command runs on the HTCondor submit server. It receives plans
sent by 'htcluster submit' one at a time, compiles each into a descriptor,
submits it with condor_submit and records the cluster in the job database.`,
	Args:         cobra.NoArgs,
	Run:          runServeCmd,
	SilenceUsage: true,
}

func runServeCmd(cmd *cobra.Command, args []string) {
	port := servePort
	if port == 0 {
		port = cfg.RemotePort
	}
	home, err := homedir.Expand(cfg.RemoteHome)
	if err != nil {
		logging.Fatal("Failed to resolve home directory: %v", err)
	}

	opts := run.RunOptions{HomeDir: home, Scheduler: scheduler.NewCondor("")}
	if serveDryRun {
		opts.Scheduler = scheduler.DryRun{}
	} else {
		path := dbPath
		if path == "" {
			path = cfg.DBPath
		}
		if path, err = homedir.Expand(path); err != nil {
			logging.Fatal("Failed to resolve database path: %v", err)
		}
		db, err := store.Open(path)
		if err != nil {
			logging.Fatal("%v", err)
		}
		defer db.Close()
		opts.Store = db
	}

	lis, err := net.Listen("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)))
	if err != nil {
		logging.Fatal("Failed to listen on port %d: %v", port, err)
	}
	srv := transport.NewServer(run.NewRunner(opts).Handle)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		logging.Info("Shutting down...")
		srv.Stop()
	}()

	if err := srv.Serve(lis); err != nil {
		logging.Error("Server stopped: %v", err)
	}
}

