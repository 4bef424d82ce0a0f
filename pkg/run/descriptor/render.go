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
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"gopkg.in/yaml.v2"
)

// SubmitFileTemplate renders directives followed by a queue statement that
// reads rows from an itemdata file.
const SubmitFileTemplate = `{{range .Directives}}{{.Key}} = {{.Value}}
{{end}}
queue {{join .Vars ","}} from {{.ItemDataPath}}
`

// SubmitFile renders the submit description for condor_submit.
func (d *Descriptor) SubmitFile(itemDataPath string) (string, error) {
	tmpl, err := template.New("submitFile").
		Funcs(template.FuncMap{"join": strings.Join}).
		Parse(SubmitFileTemplate)
	if err != nil {
		return "", fmt.Errorf("failed to parse submit file template: %w", err)
	}

	data := struct {
		Directives   []Directive
		Vars         []string
		ItemDataPath string
	}{
		Directives:   d.Directives,
		Vars:         d.Vars,
		ItemDataPath: itemDataPath,
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute submit file template: %w", err)
	}
	return buf.String(), nil
}

// ItemDataFile renders one comma-separated line per row. Only the last
// variable may contain commas or spaces; the scheduler hands it the rest of
// the line.
func (d *Descriptor) ItemDataFile() (string, error) {
	var b strings.Builder
	for i, row := range d.ItemData {
		for k, v := range d.Vars {
			value := row[v]
			if strings.ContainsAny(value, "\n\r") {
				return "", fmt.Errorf("row %d: %s contains a line break", i, v)
			}
			if k < len(d.Vars)-1 && strings.ContainsAny(value, ", \t") {
				return "", fmt.Errorf("row %d: %s %q contains a separator", i, v, value)
			}
			if k > 0 {
				b.WriteByte(',')
			}
			b.WriteString(value)
		}
		b.WriteByte('\n')
	}
	return b.String(), nil
}

// YAML dumps the descriptor in order, for dry runs.
func (d *Descriptor) YAML() ([]byte, error) {
	submit := make(yaml.MapSlice, 0, len(d.Directives))
	for _, dir := range d.Directives {
		submit = append(submit, yaml.MapItem{Key: dir.Key, Value: dir.Value})
	}
	rows := make([]yaml.MapSlice, 0, len(d.ItemData))
	for _, row := range d.ItemData {
		r := make(yaml.MapSlice, 0, len(d.Vars))
		for _, v := range d.Vars {
			r = append(r, yaml.MapItem{Key: v, Value: row[v]})
		}
		rows = append(rows, r)
	}
	return yaml.Marshal(yaml.MapSlice{
		{Key: "submit", Value: submit},
		{Key: "itemdata", Value: rows},
	})
}
