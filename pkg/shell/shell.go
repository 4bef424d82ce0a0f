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

// Package shell runs external commands and captures their output.
package shell

import (
	"bytes"
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"os/exec"
	"strings"
)

// CommandResult is the captured outcome of a command. ExitCode is -1 when the
// command could not be started.
type CommandResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Command is a single external invocation built up before Execute.
type Command struct {
	name  string
	args  []string
	input string
	dir   string
	ctx   context.Context
}

// NewCommand prepares name with args. Nothing runs until Execute.
func NewCommand(name string, args ...string) *Command {
	return &Command{name: name, args: args, ctx: context.Background()}
}

// SetInput feeds s to the command's stdin.
func (c *Command) SetInput(s string) {
	c.input = s
}

// SetDir sets the working directory.
func (c *Command) SetDir(dir string) {
	c.dir = dir
}

// WithContext binds the command's lifetime to ctx.
func (c *Command) WithContext(ctx context.Context) *Command {
	c.ctx = ctx
	return c
}

// Execute runs the command to completion.
func (c *Command) Execute() CommandResult {
	cmd := exec.CommandContext(c.ctx, c.name, c.args...)
	cmd.Dir = c.dir
	if c.input != "" {
		cmd.Stdin = strings.NewReader(c.input)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := CommandResult{Stdout: stdout.String(), Stderr: stderr.String()}
	var exitErr *exec.ExitError
	switch {
	case err == nil:
		res.ExitCode = 0
	case errors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitCode()
	default:
		res.ExitCode = -1
		if res.Stderr == "" {
			res.Stderr = err.Error()
		}
	}
	return res
}

// ExecuteCommand runs name with args. A single argument containing spaces is
// split on whitespace, so ExecuteCommand("condor_q -version") also works.
func ExecuteCommand(name string, args ...string) CommandResult {
	if len(args) == 0 && strings.ContainsAny(name, " \t") {
		fields := strings.Fields(name)
		name, args = fields[0], fields[1:]
	}
	return NewCommand(name, args...).Execute()
}

const randomAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// RandomString returns n lowercase alphanumeric characters.
func RandomString(n int) string {
	var b strings.Builder
	max := big.NewInt(int64(len(randomAlphabet)))
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic(err)
		}
		b.WriteByte(randomAlphabet[idx.Int64()])
	}
	return b.String()
}
