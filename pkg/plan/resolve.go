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

package plan

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"htcluster/pkg/jobspec"
)

// ImplicitOutputName derives the output name of task j. With inputs, the stem
// is the input's base name (or the path component selected by rule.Index,
// negative indexes counting from the end) up to its first dot. Without
// inputs the stem is j.
func ImplicitOutputName(rule jobspec.ImplicitOutputs, inFiles []string, j int) (string, error) {
	if len(inFiles) == 0 {
		return strconv.Itoa(j) + rule.Suffix, nil
	}
	if j < 0 || j >= len(inFiles) {
		return "", fmt.Errorf("task %d out of range for %d inputs", j, len(inFiles))
	}

	component := filepath.Base(inFiles[j])
	if rule.Index != nil {
		parts := pathParts(inFiles[j])
		idx := *rule.Index
		if idx < 0 {
			idx += len(parts)
		}
		if idx < 0 || idx >= len(parts) {
			return "", &jobspec.PathPolicyError{
				Axis: "out_files",
				Name: inFiles[j],
				Msg:  fmt.Sprintf("implicit_out index %d out of range for %d path components", *rule.Index, len(parts)),
			}
		}
		component = parts[idx]
	}
	stem, _, _ := strings.Cut(component, ".")
	return stem + rule.Suffix, nil
}

// pathParts splits p into components; an absolute path keeps its root as
// the first component.
func pathParts(p string) []string {
	p = filepath.Clean(p)
	var parts []string
	if filepath.IsAbs(p) {
		parts = append(parts, string(filepath.Separator))
	}
	for _, part := range strings.Split(p, string(filepath.Separator)) {
		if part != "" {
			parts = append(parts, part)
		}
	}
	return parts
}
