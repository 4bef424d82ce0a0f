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
	"net/url"
	"path"

	"htcluster/pkg/jobspec"
)

// Layout describes where job directories live.
type Layout struct {
	// ClusterDir holds one directory per job, relative to the submit user's home.
	ClusterDir string
	// StagingRoot is the shared staging area; per-user directories live below it.
	StagingRoot string
	User        string
}

// Dirs are the directories of one job. JobDir is relative to the remote home;
// the others are relative to JobDir, except StagingDir which is absolute.
type Dirs struct {
	JobDir     string `json:"job_dir"`
	InputDir   string `json:"input_dir"`
	OutputDir  string `json:"output_dir"`
	LogDir     string `json:"log_dir"`
	StagingDir string `json:"staging_dir,omitempty"`
}

func NewDirs(layout Layout, jobName string) Dirs {
	d := Dirs{
		JobDir:    path.Join(layout.ClusterDir, jobName),
		InputDir:  "input",
		OutputDir: "output",
		LogDir:    "log",
	}
	if layout.StagingRoot != "" && layout.User != "" {
		d.StagingDir = path.Join(layout.StagingRoot, layout.User, jobName)
	}
	return d
}

// StagingInputDir and StagingOutputDir are the per-axis staging locations.
func (d Dirs) StagingInputDir() string  { return path.Join(d.StagingDir, "input") }
func (d Dirs) StagingOutputDir() string { return path.Join(d.StagingDir, "output") }

// TransferManifest lists file locations per direction. For each direction
// only one of the plain and staging lists is populated.
type TransferManifest struct {
	InFiles         []string `json:"in_files"`
	InFilesStaging  []string `json:"in_files_staging"`
	OutFiles        []string `json:"out_files"`
	OutFilesStaging []string `json:"out_files_staging"`
}

// ScheduledInputs is what the scheduler must copy to the execute node.
// Staged inputs are read in place and are not transferred.
func (m TransferManifest) ScheduledInputs() []string {
	return m.InFiles
}

// OutputTargets is where each task's output ends up.
func (m TransferManifest) OutputTargets() []string {
	if len(m.OutFilesStaging) > 0 {
		return m.OutFilesStaging
	}
	return m.OutFiles
}

func stagingURL(dir, name string) string {
	u := url.URL{Scheme: "file", Path: path.Join(dir, name)}
	return u.String()
}

// Route builds the manifest for tasks according to the staging flags.
func Route(settings jobspec.JobSettings, dirs Dirs, tasks []TaskArgs) TransferManifest {
	m := TransferManifest{
		InFiles:         []string{},
		InFilesStaging:  []string{},
		OutFiles:        []string{},
		OutFilesStaging: []string{},
	}
	for _, t := range tasks {
		if t.InFile != "" {
			if settings.InStaging {
				m.InFilesStaging = append(m.InFilesStaging, stagingURL(dirs.StagingInputDir(), t.InFile))
			} else {
				m.InFiles = append(m.InFiles, path.Join(dirs.InputDir, t.InFile))
			}
		}
		if settings.OutStaging {
			m.OutFilesStaging = append(m.OutFilesStaging, stagingURL(dirs.StagingOutputDir(), t.OutFile))
		} else {
			m.OutFiles = append(m.OutFiles, path.Join(dirs.OutputDir, t.OutFile))
		}
	}
	return m
}
