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

package descriptor

import (
	"fmt"
	"regexp"
)

// CompileInconsistencyError reports directives and itemdata rows that do not
// agree. It is raised before anything is submitted.
type CompileInconsistencyError struct {
	Msg string
	Err error
}

func (e *CompileInconsistencyError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("inconsistent submission: %s: %v", e.Msg, e.Err)
	}
	return "inconsistent submission: " + e.Msg
}

func (e *CompileInconsistencyError) Unwrap() error {
	return e.Err
}

var macroRef = regexp.MustCompile(`\$\(([A-Za-z_][A-Za-z0-9_]*)\)`)

// Macros the scheduler defines itself.
var builtinMacros = map[string]bool{
	"Process":   true,
	"ProcId":    true,
	"Cluster":   true,
	"ClusterId": true,
	"Item":      true,
	"ItemIndex": true,
	"Step":      true,
	"Row":       true,
	"Node":      true,
}

func inconsistent(format string, args ...any) error {
	return &CompileInconsistencyError{Msg: fmt.Sprintf(format, args...)}
}

// Check verifies that every referenced row variable is declared, every
// declared variable is referenced, and every row binds exactly the declared
// variables.
func (d *Descriptor) Check() error {
	if len(d.ItemData) == 0 {
		return inconsistent("no itemdata rows")
	}

	declared := map[string]bool{}
	for _, v := range d.Vars {
		if declared[v] {
			return inconsistent("row variable %q declared twice", v)
		}
		declared[v] = true
	}

	referenced := map[string]bool{}
	for _, dir := range d.Directives {
		for _, m := range macroRef.FindAllStringSubmatch(dir.Value, -1) {
			name := m[1]
			if builtinMacros[name] {
				continue
			}
			if !declared[name] {
				return inconsistent("directive %s references $(%s) which no row binds", dir.Key, name)
			}
			referenced[name] = true
		}
	}
	for _, v := range d.Vars {
		if !referenced[v] {
			return inconsistent("row variable %q is not used by any directive", v)
		}
	}

	for i, row := range d.ItemData {
		for _, v := range d.Vars {
			if _, ok := row[v]; !ok {
				return inconsistent("row %d does not bind %q", i, v)
			}
		}
		if len(row) != len(d.Vars) {
			for k := range row {
				if !declared[k] {
					return inconsistent("row %d binds undeclared variable %q", i, k)
				}
			}
		}
	}
	return nil
}
