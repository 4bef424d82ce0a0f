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

// Package config loads the htcluster client and server settings file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

const (
	// EnvConfigPath overrides the default settings file location.
	EnvConfigPath = "HTCLUSTER_CONF_PATH"
	// DefaultConfigPath is used when neither a flag nor EnvConfigPath is set.
	DefaultConfigPath = "~/.config/htcluster/config.yml"
)

// Config holds connection and layout settings shared by submit and serve.
type Config struct {
	SSHRemoteUser   string        `yaml:"ssh_remote_user"`
	SSHRemoteServer string        `yaml:"ssh_remote_server"`
	RemotePort      int           `yaml:"remote_port"`
	ClusterDir      string        `yaml:"cluster_dir"`
	StagingRoot     string        `yaml:"staging_root"`
	RemoteHome      string        `yaml:"remote_home"`
	DBPath          string        `yaml:"db_path"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		RemotePort:     5555,
		ClusterDir:     "analysis-results",
		StagingRoot:    "/staging",
		RemoteHome:     "~",
		DBPath:         "~/.local/share/htcluster/jobs.db",
		RequestTimeout: 30 * time.Second,
	}
}

// ResolvePath picks the settings file: explicit path, then EnvConfigPath,
// then DefaultConfigPath. The second result reports whether the caller asked
// for the file explicitly.
func ResolvePath(explicit string) (string, bool, error) {
	path, required := explicit, explicit != ""
	if path == "" {
		if env := os.Getenv(EnvConfigPath); env != "" {
			path, required = env, true
		} else {
			path = DefaultConfigPath
		}
	}
	expanded, err := homedir.Expand(path)
	if err != nil {
		return "", false, fmt.Errorf("failed to expand config path %q: %w", path, err)
	}
	return expanded, required, nil
}

// Load reads settings from fs. A missing file is an error only when the path
// was requested explicitly; otherwise defaults are returned.
func Load(fs afero.Fs, explicit string) (*Config, error) {
	path, required, err := ResolvePath(explicit)
	if err != nil {
		return nil, err
	}
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes settings over the defaults. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}
	if cfg.RemotePort <= 0 || cfg.RemotePort > 65535 {
		return nil, fmt.Errorf("remote_port %d out of range", cfg.RemotePort)
	}
	if cfg.RequestTimeout <= 0 {
		return nil, fmt.Errorf("request_timeout must be positive, got %s", cfg.RequestTimeout)
	}
	return cfg, nil
}

func (c *Config) expandPaths() error {
	for _, p := range []*string{&c.DBPath, &c.RemoteHome} {
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return fmt.Errorf("failed to expand %q: %w", *p, err)
		}
		*p = expanded
	}
	return nil
}

// ValidateRemote checks the fields needed to reach the submit server over SSH.
func (c *Config) ValidateRemote() error {
	if c.SSHRemoteServer == "" {
		return errors.New("ssh_remote_server is not set")
	}
	if c.SSHRemoteUser == "" {
		return errors.New("ssh_remote_user is not set")
	}
	return nil
}
