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
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"

	"htcluster/pkg/generator"
)

// Encode serializes p as JSON and gzips it.
func Encode(p *SubmissionPlan) ([]byte, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal plan: %w", err)
	}
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(raw); err != nil {
		return nil, fmt.Errorf("failed to compress plan: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to compress plan: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode reverses Encode.
func Decode(data []byte) (*SubmissionPlan, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open compressed plan: %w", err)
	}
	defer zr.Close()
	raw, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress plan: %w", err)
	}
	var p SubmissionPlan
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal plan: %w", err)
	}
	return &p, nil
}

type taskArgsJSON TaskArgs

// taskArgsWire writes params in document order.
type taskArgsWire struct {
	InFile  string         `json:"in_file,omitempty"`
	OutFile string         `json:"out_file"`
	Params  *generator.Map `json:"params,omitempty"`
}

// MarshalJSON writes params in ParamOrder and floats with a decimal point so
// 1.0 decodes as a float.
func (t TaskArgs) MarshalJSON() ([]byte, error) {
	out := taskArgsWire{InFile: t.InFile, OutFile: t.OutFile}
	if len(t.Params) > 0 {
		out.Params = generator.NewMap()
		for _, k := range paramKeys(t) {
			wv, err := toWire(t.Params[k])
			if err != nil {
				return nil, fmt.Errorf("params[%q]: %w", k, err)
			}
			out.Params.Set(k, wv)
		}
	}
	return json.Marshal(out)
}

func paramKeys(t TaskArgs) []string {
	keys := make([]string, 0, len(t.Params))
	seen := make(map[string]bool, len(t.Params))
	for _, k := range t.ParamOrder {
		if _, ok := t.Params[k]; ok && !seen[k] {
			keys = append(keys, k)
			seen[k] = true
		}
	}
	var rest []string
	for k := range t.Params {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(keys, rest...)
}

// UnmarshalJSON decodes numbers with a decimal point or exponent as float64
// and all others as int64, and records the params key order.
func (t *TaskArgs) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var in taskArgsJSON
	if err := dec.Decode(&in); err != nil {
		return err
	}
	for k, v := range in.Params {
		fv, err := fromWire(v)
		if err != nil {
			return fmt.Errorf("params[%q]: %w", k, err)
		}
		in.Params[k] = fv
	}
	if in.Params != nil {
		var raw struct {
			Params json.RawMessage `json:"params"`
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		order, err := objectKeys(raw.Params)
		if err != nil {
			return fmt.Errorf("params: %w", err)
		}
		in.ParamOrder = order
	}
	*t = TaskArgs(in)
	return nil
}

// objectKeys lists the keys of a JSON object in the order they appear.
func objectKeys(data []byte) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", tok)
		}
		keys = append(keys, key)
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return nil, err
		}
	}
	return keys, nil
}

// wireFloat always carries a decimal point or exponent.
type wireFloat float64

func (f wireFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, fmt.Errorf("unsupported float value %v", v)
	}
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return []byte(s), nil
}

func toWire(v any) (any, error) {
	switch v := v.(type) {
	case float64:
		return wireFloat(v), nil
	case float32:
		return wireFloat(v), nil
	case int:
		return int64(v), nil
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			w, err := toWire(item)
			if err != nil {
				return nil, err
			}
			out[i] = w
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			w, err := toWire(item)
			if err != nil {
				return nil, err
			}
			out[k] = w
		}
		return out, nil
	default:
		return v, nil
	}
}

func fromWire(v any) (any, error) {
	switch v := v.(type) {
	case json.Number:
		s := v.String()
		if strings.ContainsAny(s, ".eE") {
			return v.Float64()
		}
		return v.Int64()
	case []any:
		for i, item := range v {
			f, err := fromWire(item)
			if err != nil {
				return nil, err
			}
			v[i] = f
		}
		return v, nil
	case map[string]any:
		for k, item := range v {
			f, err := fromWire(item)
			if err != nil {
				return nil, err
			}
			v[k] = f
		}
		return v, nil
	default:
		return v, nil
	}
}
