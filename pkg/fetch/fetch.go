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

// Package fetch retrieves job documents that do not live on local disk.
package fetch

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"strings"

	getter "github.com/hashicorp/go-getter"
	"github.com/pkg/errors"

	"htcluster/pkg/logging"
)

const defaultName = "job.yml"

// Document returns a local path for src. Existing local files are returned
// as is; anything else is downloaded into dstDir by go-getter, so src may be
// an http(s) URL, a git source or any other go-getter address.
func Document(ctx context.Context, src, dstDir string) (string, error) {
	if info, err := os.Stat(src); err == nil {
		if info.IsDir() {
			return "", errors.Errorf("%s is a directory, not a job document", src)
		}
		return src, nil
	}

	pwd, err := os.Getwd()
	if err != nil {
		return "", errors.Wrap(err, "failed to get working directory")
	}
	dst := filepath.Join(dstDir, documentName(src))
	client := &getter.Client{
		Ctx:  ctx,
		Src:  src,
		Dst:  dst,
		Pwd:  pwd,
		Mode: getter.ClientModeFile,
	}
	logging.Info("Fetching job document %s", src)
	if err := client.Get(); err != nil {
		return "", errors.Wrapf(err, "failed to fetch %s", src)
	}
	return dst, nil
}

// documentName is the last path element of a getter address, without the
// forced getter prefix or the query.
func documentName(src string) string {
	if i := strings.Index(src, "::"); i >= 0 {
		src = src[i+2:]
	}
	if i := strings.IndexAny(src, "?#"); i >= 0 {
		src = src[:i]
	}
	name := path.Base(strings.TrimRight(src, "/"))
	if name == "." || name == "/" || name == "" || strings.Contains(name, ":") {
		return defaultName
	}
	return name
}
