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

package staging

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"

	cp "github.com/otiai10/copy"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"golang.org/x/crypto/ssh"
)

// ErrDirExists is returned when a directory that must be new already exists.
var ErrDirExists = errors.New("directory already exists")

// Target is where job directories are created. Relative paths are relative
// to the target's home; absolute paths address shared filesystems.
type Target interface {
	// Mkdir creates dir and fails with ErrDirExists if it is already there.
	Mkdir(ctx context.Context, dir string) error
	MkdirAll(ctx context.Context, dir string) error
	// Put copies the local file src to dst.
	Put(ctx context.Context, src, dst string) error
}

// LocalTarget stages below Root on the local machine, including absolute
// paths, which are rebased onto Root.
type LocalTarget struct {
	Root string
	fs   afero.Fs
}

func NewLocalTarget(root string) *LocalTarget {
	return &LocalTarget{Root: root, fs: afero.NewBasePathFs(afero.NewOsFs(), root)}
}

func (t *LocalTarget) Mkdir(_ context.Context, dir string) error {
	exists, err := afero.Exists(t.fs, dir)
	if err != nil {
		return err
	}
	if exists {
		return errors.Wrap(ErrDirExists, dir)
	}
	return t.fs.Mkdir(dir, 0o755)
}

func (t *LocalTarget) MkdirAll(_ context.Context, dir string) error {
	return t.fs.MkdirAll(dir, 0o755)
}

func (t *LocalTarget) Put(_ context.Context, src, dst string) error {
	return cp.Copy(src, filepath.Join(t.Root, dst), cp.Options{
		PreserveTimes: true,
		Sync:          true,
	})
}

// SSHTarget stages on a remote host by running commands over client.
type SSHTarget struct {
	client *ssh.Client
}

func NewSSHTarget(client *ssh.Client) *SSHTarget {
	return &SSHTarget{client: client}
}

const existsStatus = 3

func (t *SSHTarget) Mkdir(ctx context.Context, dir string) error {
	q := quote(dir)
	cmd := "if [ -e " + q + " ]; then exit 3; fi; mkdir " + q
	err := t.run(ctx, cmd, nil)
	var exitErr *ssh.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitStatus() == existsStatus {
		return errors.Wrapf(ErrDirExists, "%s on remote server", dir)
	}
	return err
}

func (t *SSHTarget) MkdirAll(ctx context.Context, dir string) error {
	return t.run(ctx, "mkdir -p "+quote(dir), nil)
}

func (t *SSHTarget) Put(ctx context.Context, src, dst string) error {
	f, err := os.Open(src)
	if err != nil {
		return err
	}
	defer f.Close()
	return t.run(ctx, "cat > "+quote(dst), f)
}

func (t *SSHTarget) run(ctx context.Context, cmd string, stdin *os.File) error {
	session, err := t.client.NewSession()
	if err != nil {
		return errors.Wrap(err, "failed to open ssh session")
	}
	defer session.Close()
	if stdin != nil {
		session.Stdin = stdin
	}
	var stderr bytes.Buffer
	session.Stderr = &stderr

	done := make(chan error, 1)
	go func() { done <- session.Run(cmd) }()
	select {
	case <-ctx.Done():
		session.Close()
		return ctx.Err()
	case err := <-done:
		if err != nil && stderr.Len() > 0 {
			return errors.Wrapf(err, "%s: %s", cmd, strings.TrimSpace(stderr.String()))
		}
		return err
	}
}

// quote makes s a single shell word.
func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
