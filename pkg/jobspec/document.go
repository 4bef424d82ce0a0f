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

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"htcluster/pkg/generator"
)

// Loader reads job documents. Globs in the document resolve against fs.
type Loader struct {
	fs     afero.Fs
	parser *generator.Parser
	eval   *generator.Evaluator
}

// NewLoader uses the default generator table.
func NewLoader(fs afero.Fs) *Loader {
	return NewLoaderWithTable(fs, generator.DefaultTable())
}

func NewLoaderWithTable(fs afero.Fs, table generator.Table) *Loader {
	return &Loader{
		fs:     fs,
		parser: generator.NewParser(table),
		eval:   generator.NewEvaluator(fs),
	}
}

// LoadFile reads and validates the document at path.
func (l *Loader) LoadFile(path string) (*ClusterJob, error) {
	f, err := l.fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open job document: %w", err)
	}
	defer f.Close()
	job, err := l.Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return job, nil
}

// Load reads a document with exactly a job block and a params block.
func (l *Loader) Load(r io.Reader) (*ClusterJob, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &generator.DocumentError{Msg: "invalid YAML", Err: err}
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, &generator.DocumentError{Msg: "empty document"}
	}

	blocks, err := mappingFields(doc.Content[0], "document", []string{"job", "params"})
	if err != nil {
		return nil, err
	}
	for _, key := range []string{"job", "params"} {
		if blocks[key] == nil {
			return nil, docErr(doc.Content[0], "missing %q block", key)
		}
	}

	settings, err := decodeSettings(blocks["job"])
	if err != nil {
		return nil, err
	}
	params, err := l.decodeParams(blocks["params"])
	if err != nil {
		return nil, err
	}
	return NewClusterJob(settings, params)
}

func docErr(n *yaml.Node, format string, args ...any) error {
	return &generator.DocumentError{
		Pos: generator.Position{Line: n.Line, Column: n.Column},
		Msg: fmt.Sprintf(format, args...),
	}
}

// mappingFields returns the values of a plain mapping keyed by name,
// rejecting keys outside allowed.
func mappingFields(n *yaml.Node, block string, allowed []string) (map[string]*yaml.Node, error) {
	if n.Kind != yaml.MappingNode || generator.IsGeneratorTag(n.Tag) {
		return nil, docErr(n, "%s must be a mapping with keys %s", block, strings.Join(allowed, ", "))
	}
	out := map[string]*yaml.Node{}
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		if !contains(allowed, k.Value) {
			return nil, docErr(k, "unknown key %q in %s, expected one of %s", k.Value, block, strings.Join(allowed, ", "))
		}
		if _, dup := out[k.Value]; dup {
			return nil, docErr(k, "duplicate key %q in %s", k.Value, block)
		}
		out[k.Value] = v
	}
	return out, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func decodeSettings(n *yaml.Node) (JobSettings, error) {
	settings := JobSettings{Cpus: 1}
	if _, err := mappingFields(n, "job", settingsKeys); err != nil {
		return settings, err
	}
	if tagged := findGeneratorTag(n); tagged != nil {
		return settings, docErr(tagged, "generator tag %s is not allowed in the job block", tagged.Tag)
	}
	if err := n.Decode(&settings); err != nil {
		return settings, &generator.DocumentError{
			Pos: generator.Position{Line: n.Line, Column: n.Column},
			Msg: "invalid job block",
			Err: err,
		}
	}
	return settings, nil
}

func findGeneratorTag(n *yaml.Node) *yaml.Node {
	if generator.IsGeneratorTag(n.Tag) {
		return n
	}
	for _, c := range n.Content {
		if found := findGeneratorTag(c); found != nil {
			return found
		}
	}
	return nil
}

func (l *Loader) decodeParams(n *yaml.Node) (*JobParams, error) {
	fields, err := mappingFields(n, "params", []string{"in_files", "params", "out_files"})
	if err != nil {
		return nil, err
	}

	var inFiles []string
	if node := fields["in_files"]; node != nil {
		if inFiles, err = l.stringList(node, "in_files"); err != nil {
			return nil, err
		}
	}

	var params *ParamSet
	if node := fields["params"]; node != nil {
		if params, err = l.paramSet(node); err != nil {
			return nil, err
		}
	}

	var out OutputSpec = DefaultOutputs
	if node := fields["out_files"]; node != nil {
		if out, err = l.outputSpec(node); err != nil {
			return nil, err
		}
	}
	return NewJobParams(inFiles, params, out)
}

func (l *Loader) evalNode(n *yaml.Node) (any, error) {
	x, err := l.parser.ParseNode(n)
	if err != nil {
		return nil, err
	}
	return l.eval.Eval(x)
}

func (l *Loader) stringList(n *yaml.Node, axis string) ([]string, error) {
	v, err := l.evalNode(n)
	if err != nil {
		return nil, err
	}
	return toStrings(n, axis, v)
}

func toStrings(n *yaml.Node, axis string, v any) ([]string, error) {
	if v == nil {
		return nil, nil
	}
	items, ok := v.([]any)
	if !ok {
		return nil, docErr(n, "%s must be a sequence of file names", axis)
	}
	out := make([]string, len(items))
	for i, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, docErr(n, "%s[%d] must be a string, got %v", axis, i, item)
		}
		out[i] = s
	}
	return out, nil
}

func (l *Loader) paramSet(n *yaml.Node) (*ParamSet, error) {
	v, err := l.evalNode(n)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, nil
	}
	m, ok := v.(*generator.Map)
	if !ok {
		return nil, docErr(n, "params must evaluate to a mapping of sequences")
	}
	set := NewParamSet()
	for _, key := range m.Keys() {
		raw, _ := m.Get(key)
		seq, ok := raw.([]any)
		if !ok {
			return nil, docErr(n, "params[%q] must be a sequence", key)
		}
		values := make([]any, len(seq))
		for i, item := range seq {
			values[i] = generator.Plain(item)
		}
		set.Add(key, values)
	}
	return set, nil
}

func (l *Loader) outputSpec(n *yaml.Node) (OutputSpec, error) {
	x, err := l.parser.ParseNode(n)
	if err != nil {
		return nil, err
	}
	v, marker, err := l.eval.EvalOutputs(x)
	if err != nil {
		return nil, err
	}
	if marker != nil {
		return ImplicitOutputs{Suffix: marker.Suffix, Index: marker.Index}, nil
	}
	names, err := toStrings(n, "out_files", v)
	if err != nil {
		return nil, err
	}
	return ExplicitOutputs(names), nil
}
