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

package config

import (
	"os"
	"testing"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	. "gopkg.in/check.v1"
)

func Test(t *testing.T) { TestingT(t) }

type ConfigSuite struct {
	fs     afero.Fs
	oldEnv string
}

var _ = Suite(&ConfigSuite{})

func (s *ConfigSuite) SetUpTest(c *C) {
	s.fs = afero.NewMemMapFs()
	s.oldEnv = os.Getenv(EnvConfigPath)
	os.Unsetenv(EnvConfigPath)
}

func (s *ConfigSuite) TearDownTest(c *C) {
	os.Setenv(EnvConfigPath, s.oldEnv)
}

func (s *ConfigSuite) TestParseOverridesDefaults(c *C) {
	cfg, err := Parse([]byte(`
ssh_remote_user: alice
ssh_remote_server: submit.example.org
remote_port: 6000
request_timeout: 5s
`))
	c.Assert(err, IsNil)
	c.Check(cfg.SSHRemoteUser, Equals, "alice")
	c.Check(cfg.SSHRemoteServer, Equals, "submit.example.org")
	c.Check(cfg.RemotePort, Equals, 6000)
	c.Check(cfg.RequestTimeout, Equals, 5*time.Second)
	c.Check(cfg.ClusterDir, Equals, "analysis-results")
	c.Check(cfg.StagingRoot, Equals, "/staging")
	c.Check(cfg.ValidateRemote(), IsNil)
}

func (s *ConfigSuite) TestParseRejectsUnknownKeys(c *C) {
	_, err := Parse([]byte("ssh_remote_usr: typo\n"))
	c.Assert(err, ErrorMatches, "(?s).*ssh_remote_usr.*")
}

func (s *ConfigSuite) TestParseRejectsBadPort(c *C) {
	_, err := Parse([]byte("remote_port: 70000\n"))
	c.Assert(err, ErrorMatches, "remote_port 70000 out of range")
}

func (s *ConfigSuite) TestEmptyFileGivesDefaults(c *C) {
	cfg, err := Parse(nil)
	c.Assert(err, IsNil)
	c.Check(cfg.RemotePort, Equals, 5555)
	c.Check(cfg.RequestTimeout, Equals, 30*time.Second)
}

func (s *ConfigSuite) TestExpandsHome(c *C) {
	home, err := homedir.Dir()
	c.Assert(err, IsNil)
	cfg, err := Parse([]byte("db_path: ~/jobs.db\n"))
	c.Assert(err, IsNil)
	c.Check(cfg.DBPath, Equals, home+"/jobs.db")
}

func (s *ConfigSuite) TestLoadExplicitPath(c *C) {
	c.Assert(afero.WriteFile(s.fs, "/etc/htcluster.yml", []byte("cluster_dir: results\n"), 0o644), IsNil)
	cfg, err := Load(s.fs, "/etc/htcluster.yml")
	c.Assert(err, IsNil)
	c.Check(cfg.ClusterDir, Equals, "results")
}

func (s *ConfigSuite) TestLoadMissingExplicitPathFails(c *C) {
	_, err := Load(s.fs, "/nope.yml")
	c.Assert(err, ErrorMatches, "failed to read config /nope.yml.*")
}

func (s *ConfigSuite) TestLoadFromEnvironment(c *C) {
	c.Assert(afero.WriteFile(s.fs, "/cfg/env.yml", []byte("staging_root: /scratch\n"), 0o644), IsNil)
	os.Setenv(EnvConfigPath, "/cfg/env.yml")
	cfg, err := Load(s.fs, "")
	c.Assert(err, IsNil)
	c.Check(cfg.StagingRoot, Equals, "/scratch")
}

func (s *ConfigSuite) TestLoadMissingDefaultGivesDefaults(c *C) {
	cfg, err := Load(s.fs, "")
	c.Assert(err, IsNil)
	c.Check(cfg.ValidateRemote(), ErrorMatches, "ssh_remote_server is not set")
}
