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
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"htcluster/pkg/config"
	"htcluster/pkg/logging"
)

var (
	logLevel   string
	logFormat  string
	configPath string

	// cfg is loaded before any subcommand runs.
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "htcluster",
	Short: "Compiles parameter-sweep job documents and submits them to HTCondor.",
	Long: `htcluster reads a job document describing a container, its resources and
per-task inputs, parameters and outputs, expands it into one task per row and
submits the whole sweep to an HTCondor submit server as a single cluster.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := logging.Configure(logLevel, logFormat); err != nil {
			return err
		}
		c, err := config.Load(afero.NewOsFs(), configPath)
		if err != nil {
			return err
		}
		cfg = c
		return nil
	},
	SilenceUsage: true,
}

func addGlobalFlags(flags *pflag.FlagSet) {
	flags.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error).")
	flags.StringVar(&logFormat, "log-format", "text", "Log format (text or json).")
	flags.StringVar(&configPath, "config", "", "Path to the settings file. Defaults to $"+config.EnvConfigPath+" or "+config.DefaultConfigPath+".")
}

func init() {
	addGlobalFlags(rootCmd.PersistentFlags())
}

// Execute runs the command line.
func Execute() error {
	return rootCmd.Execute()
}
