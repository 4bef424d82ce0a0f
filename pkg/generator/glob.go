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

package generator

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/moby/patternmatcher"
	"github.com/spf13/afero"
)

// globFiles returns the entries under dir whose relative path matches pattern,
// in natural order. A matching directory is returned as a whole and not
// descended into.
func globFiles(fs afero.Fs, dir, pattern string) ([]string, error) {
	pm, err := patternmatcher.New([]string{pattern})
	if err != nil {
		return nil, err
	}
	if ok, _ := afero.DirExists(fs, dir); !ok {
		return nil, &EmptyGlobError{Dir: dir, Pattern: pattern}
	}

	var matches []string
	err = afero.Walk(fs, dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil || rel == "." {
			return err
		}
		ok, err := pm.MatchesOrParentMatches(rel)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		matches = append(matches, path)
		if info.IsDir() {
			return filepath.SkipDir
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, &EmptyGlobError{Dir: dir, Pattern: pattern}
	}
	sortNatural(matches)
	return matches, nil
}

// keyPart is one separator-delimited token of a file name.
type keyPart struct {
	num   float64
	isNum bool
	text  string
}

func naturalKey(name string) []keyPart {
	fields := strings.FieldsFunc(name, func(r rune) bool {
		return r == '-' || r == '_' || r == ':' || r == '.'
	})
	key := make([]keyPart, len(fields))
	for i, f := range fields {
		if n, err := strconv.ParseInt(f, 10, 64); err == nil {
			key[i] = keyPart{num: float64(n), isNum: true}
		} else if n, err := strconv.ParseFloat(f, 64); err == nil && strings.ContainsAny(f, "0123456789") {
			key[i] = keyPart{num: n, isNum: true}
		} else {
			key[i] = keyPart{text: f}
		}
	}
	return key
}

func compareKeys(a, b []keyPart) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		x, y := a[i], b[i]
		switch {
		case x.isNum && y.isNum:
			if x.num != y.num {
				if x.num < y.num {
					return -1
				}
				return 1
			}
		case x.isNum != y.isNum:
			// Numbers sort before words.
			if x.isNum {
				return -1
			}
			return 1
		case x.text != y.text:
			return strings.Compare(x.text, y.text)
		}
	}
	return len(a) - len(b)
}

// sortNatural orders paths by their base names split on "-", "_", ":" and
// ".", comparing numeric tokens by value. Ties fall back to the full path.
func sortNatural(paths []string) {
	keys := make(map[string][]keyPart, len(paths))
	for _, p := range paths {
		keys[p] = naturalKey(filepath.Base(p))
	}
	sort.SliceStable(paths, func(i, j int) bool {
		if c := compareKeys(keys[paths[i]], keys[paths[j]]); c != 0 {
			return c < 0
		}
		return paths[i] < paths[j]
	})
}
