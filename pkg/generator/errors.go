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
	"fmt"
	"strings"
)

// Position locates a node in the source document. Line and Column are 1-based;
// the zero value means unknown.
type Position struct {
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("line %d, column %d", p.Line, p.Column)
}

// DocumentError reports a malformed or unevaluable generator expression.
// Tag is the generator tag without its leading "!", empty for plain nodes.
type DocumentError struct {
	Tag string
	Pos Position
	Msg string
	Err error
}

func (e *DocumentError) Error() string {
	var b strings.Builder
	if e.Pos.Line > 0 {
		b.WriteString(e.Pos.String())
		b.WriteString(": ")
	}
	if e.Tag != "" {
		b.WriteString("!")
		b.WriteString(e.Tag)
		b.WriteString(": ")
	}
	switch {
	case e.Msg != "" && e.Err != nil:
		b.WriteString(e.Msg)
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	case e.Err != nil:
		b.WriteString(e.Err.Error())
	default:
		b.WriteString(e.Msg)
	}
	return b.String()
}

func (e *DocumentError) Unwrap() error {
	return e.Err
}

// EmptyGlobError is wrapped in a DocumentError when a glob matches nothing.
type EmptyGlobError struct {
	Dir     string
	Pattern string
}

func (e *EmptyGlobError) Error() string {
	return fmt.Sprintf("no entries in %s match %q", e.Dir, e.Pattern)
}

// LengthMismatchError is wrapped in a DocumentError when zipped sequences
// differ in length. Index is the position of the first offending argument.
type LengthMismatchError struct {
	Index int
	Want  int
	Got   int
}

func (e *LengthMismatchError) Error() string {
	return fmt.Sprintf("argument %d has length %d, expected %d", e.Index, e.Got, e.Want)
}

func errorf(tag string, at Position, format string, args ...any) error {
	return &DocumentError{Tag: tag, Pos: at, Msg: fmt.Sprintf(format, args...)}
}

func wrap(tag string, at Position, err error) error {
	return &DocumentError{Tag: tag, Pos: at, Err: err}
}
