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

// Package provenance records which revision of a job document was submitted.
package provenance

import (
	"path/filepath"

	"github.com/go-git/go-git/v5"
	"github.com/pkg/errors"
)

// DirtySuffix marks a revision whose worktree has uncommitted changes.
const DirtySuffix = "-dirty"

// Revision returns the HEAD commit of the git repository containing path.
// It returns "" without error when path is not inside a repository or the
// repository has no commits yet.
func Revision(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	repo, err := git.PlainOpenWithOptions(filepath.Dir(abs), &git.PlainOpenOptions{DetectDotGit: true})
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrapf(err, "failed to open repository of %s", path)
	}
	head, err := repo.Head()
	if err != nil {
		// An unborn branch has no revision.
		return "", nil
	}
	rev := head.Hash().String()

	wt, err := repo.Worktree()
	if err != nil {
		return rev, nil
	}
	status, err := wt.Status()
	if err != nil {
		return "", errors.Wrap(err, "failed to read worktree status")
	}
	if !status.IsClean() {
		rev += DirtySuffix
	}
	return rev, nil
}
