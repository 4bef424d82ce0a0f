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

// Package jobspec holds the validated job description: scheduler settings
// plus the three per-task axes.
package jobspec

import (
	"regexp"
	"strings"

	"htcluster/pkg/imageref"
)

var sizePattern = regexp.MustCompile(`^[0-9]+(K|M|G|T)(B)?$`)

// JobSettings is the job block of a document.
type JobSettings struct {
	Name           string            `yaml:"name" json:"name"`
	Memory         string            `yaml:"memory" json:"memory"`
	Disk           string            `yaml:"disk" json:"disk"`
	Cpus           int               `yaml:"cpus" json:"cpus"`
	Entrypoint     string            `yaml:"entrypoint" json:"entrypoint"`
	DockerImage    string            `yaml:"docker_image" json:"docker_image"`
	Classads       string            `yaml:"classads" json:"classads,omitempty"`
	InStaging      bool              `yaml:"in_staging" json:"in_staging"`
	OutStaging     bool              `yaml:"out_staging" json:"out_staging"`
	AdditionalArgs map[string]string `yaml:"additional_args" json:"additional_args,omitempty"`
}

var settingsKeys = []string{
	"name", "memory", "disk", "cpus", "entrypoint", "docker_image",
	"classads", "in_staging", "out_staging", "additional_args",
}

// Staged reports whether either axis uses the shared staging area.
func (s JobSettings) Staged() bool {
	return s.InStaging || s.OutStaging
}

// Validate checks every field and returns the first *SettingsError found.
func (s JobSettings) Validate() error {
	switch {
	case s.Name == "":
		return &SettingsError{Field: "name", Value: s.Name, Msg: "must not be empty"}
	case strings.ContainsAny(s.Name, `/\`) || s.Name == "." || s.Name == "..":
		return &SettingsError{Field: "name", Value: s.Name, Msg: "must be a single path component"}
	case strings.ContainsAny(s.Name, " \t\n"):
		return &SettingsError{Field: "name", Value: s.Name, Msg: "must not contain whitespace"}
	}
	if !sizePattern.MatchString(s.Memory) {
		return &SettingsError{Field: "memory", Value: s.Memory, Msg: "must look like 4G or 512MB"}
	}
	if !sizePattern.MatchString(s.Disk) {
		return &SettingsError{Field: "disk", Value: s.Disk, Msg: "must look like 10G or 512MB"}
	}
	if s.Cpus < 1 {
		return &SettingsError{Field: "cpus", Value: s.Cpus, Msg: "must be at least 1"}
	}
	if strings.TrimSpace(s.Entrypoint) == "" {
		return &SettingsError{Field: "entrypoint", Value: s.Entrypoint, Msg: "must not be empty"}
	}
	if err := imageref.Validate(s.DockerImage); err != nil {
		return &SettingsError{Field: "docker_image", Value: s.DockerImage, Msg: err.Error()}
	}
	for k := range s.AdditionalArgs {
		if k == "" || strings.ContainsAny(k, " \t\n=") {
			return &SettingsError{Field: "additional_args", Value: k, Msg: "directive names must be single words"}
		}
	}
	return nil
}
