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

package jobspec

import "fmt"

// CardinalityError reports axes whose lengths do not agree.
type CardinalityError struct {
	Axis string
	Key  string
	Want int
	Got  int
	Msg  string
}

func (e *CardinalityError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Key != "" {
		return fmt.Sprintf("%s[%q] has %d values, expected %d", e.Axis, e.Key, e.Got, e.Want)
	}
	return fmt.Sprintf("%s has %d entries, expected %d", e.Axis, e.Got, e.Want)
}

// PathPolicyError reports a file name that may not be used where it appears.
type PathPolicyError struct {
	Axis string
	Name string
	Msg  string
}

func (e *PathPolicyError) Error() string {
	return fmt.Sprintf("%s entry %q: %s", e.Axis, e.Name, e.Msg)
}

// SettingsError reports an invalid job block field.
type SettingsError struct {
	Field string
	Value any
	Msg   string
}

func (e *SettingsError) Error() string {
	return fmt.Sprintf("job.%s = %v: %s", e.Field, e.Value, e.Msg)
}
