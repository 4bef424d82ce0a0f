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
	"strconv"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"
)

// Parser turns YAML nodes into expressions using the tags known to its Table.
type Parser struct {
	table Table
}

func NewParser(table Table) *Parser {
	return &Parser{table: table}
}

// ParseString parses a standalone YAML document.
func (p *Parser) ParseString(src string) (Expr, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(src), &doc); err != nil {
		return nil, &DocumentError{Msg: "invalid YAML", Err: err}
	}
	if doc.Kind == 0 {
		return &Literal{}, nil
	}
	return p.ParseNode(&doc)
}

// ParseNode converts n and its children.
func (p *Parser) ParseNode(n *yaml.Node) (Expr, error) {
	at := Position{Line: n.Line, Column: n.Column}
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return &Literal{At: at}, nil
		}
		return p.ParseNode(n.Content[0])
	case yaml.AliasNode:
		return p.ParseNode(n.Alias)
	}

	if IsGeneratorTag(n.Tag) {
		return p.parseTagged(n, at)
	}

	switch n.Kind {
	case yaml.ScalarNode:
		return scalarNode(n, at)
	case yaml.SequenceNode:
		items, err := p.parseItems(n.Content)
		if err != nil {
			return nil, err
		}
		return &List{Items: items, At: at}, nil
	case yaml.MappingNode:
		return p.parseMapping(n, at)
	default:
		return nil, errorf("", at, "unsupported YAML node kind %d", n.Kind)
	}
}

// IsGeneratorTag reports whether tag is a local "!name" tag rather than a
// core "!!type" tag or the non-specific "!".
func IsGeneratorTag(tag string) bool {
	return len(tag) > 1 && tag[0] == '!' && tag[1] != '!'
}

func (p *Parser) parseTagged(n *yaml.Node, at Position) (Expr, error) {
	tag := n.Tag[1:]
	op, ok := p.table.Lookup(tag)
	if !ok {
		return nil, errorf(tag, at, "unknown generator tag")
	}
	switch n.Kind {
	case yaml.ScalarNode:
		args, err := p.parseInline(tag, n.Value, at)
		if err != nil {
			return nil, err
		}
		return bind(op, tag, args, nil, at)
	case yaml.SequenceNode:
		args, err := p.parseItems(n.Content)
		if err != nil {
			return nil, err
		}
		return bind(op, tag, args, nil, at)
	case yaml.MappingNode:
		m, err := p.parseMapping(n, at)
		if err != nil {
			return nil, err
		}
		return bind(op, tag, nil, m, at)
	default:
		return nil, errorf(tag, at, "unsupported YAML node kind %d", n.Kind)
	}
}

func (p *Parser) parseItems(nodes []*yaml.Node) ([]Expr, error) {
	items := make([]Expr, 0, len(nodes))
	for _, c := range nodes {
		x, err := p.ParseNode(c)
		if err != nil {
			return nil, err
		}
		items = append(items, x)
	}
	return items, nil
}

func (p *Parser) parseMapping(n *yaml.Node, at Position) (*Mapping, error) {
	m := &Mapping{At: at}
	seen := map[string]bool{}
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		if k.Kind != yaml.ScalarNode || IsGeneratorTag(k.Tag) {
			return nil, errorf("", Position{k.Line, k.Column}, "mapping keys must be plain scalars")
		}
		if seen[k.Value] {
			return nil, errorf("", Position{k.Line, k.Column}, "duplicate key %q", k.Value)
		}
		seen[k.Value] = true
		x, err := p.ParseNode(v)
		if err != nil {
			return nil, err
		}
		m.Keys = append(m.Keys, k.Value)
		m.Values = append(m.Values, x)
	}
	return m, nil
}

func scalarNode(n *yaml.Node, at Position) (Expr, error) {
	switch n.Tag {
	case "!!str", "!":
		return &Literal{Value: n.Value, At: at}, nil
	case "!!int", "!!float", "!!bool", "!!null":
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, &DocumentError{Pos: at, Msg: fmt.Sprintf("invalid scalar %q", n.Value), Err: err}
		}
		return &Literal{Value: normalizeScalar(v), Raw: n.Value, At: at}, nil
	default:
		return &Literal{Value: n.Value, At: at}, nil
	}
}

func normalizeScalar(v any) any {
	switch v := v.(type) {
	case int:
		return int64(v)
	case int64:
		return v
	case uint64:
		return float64(v)
	case float32:
		return float64(v)
	default:
		return v
	}
}

// Inline scalars use a small grammar:
//
//	args := arg*
//	arg  := "(" "!" name args ")" | quoted | word
//
// so that `!repeat (!range 3) 4` nests a range inside a repeat.

type tokenKind int

const (
	tokLParen tokenKind = iota
	tokRParen
	tokTag
	tokWord
	tokQuoted
)

type token struct {
	kind tokenKind
	text string
	col  int
}

func tokenize(tag, src string, at Position) ([]token, error) {
	var toks []token
	rs := []rune(src)
	for i := 0; i < len(rs); {
		r := rs[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '(':
			toks = append(toks, token{kind: tokLParen, text: "(", col: i})
			i++
		case r == ')':
			toks = append(toks, token{kind: tokRParen, text: ")", col: i})
			i++
		case r == '"' || r == '\'':
			j := i + 1
			for j < len(rs) && rs[j] != r {
				if rs[j] == '\\' && r == '"' {
					j++
				}
				j++
			}
			if j >= len(rs) {
				return nil, errorf(tag, shift(at, i), "unterminated quoted string")
			}
			text := string(rs[i : j+1])
			if r == '"' {
				unq, err := strconv.Unquote(text)
				if err != nil {
					return nil, errorf(tag, shift(at, i), "invalid quoted string %s", text)
				}
				text = unq
			} else {
				text = text[1 : len(text)-1]
			}
			toks = append(toks, token{kind: tokQuoted, text: text, col: i})
			i = j + 1
		default:
			j := i
			for j < len(rs) && !unicode.IsSpace(rs[j]) && rs[j] != '(' && rs[j] != ')' {
				j++
			}
			text := string(rs[i:j])
			kind := tokWord
			if strings.HasPrefix(text, "!") {
				kind = tokTag
				text = text[1:]
			}
			toks = append(toks, token{kind: kind, text: text, col: i})
			i = j
		}
	}
	return toks, nil
}

func shift(at Position, offset int) Position {
	if at.Line == 0 {
		return at
	}
	return Position{Line: at.Line, Column: at.Column + offset}
}

type inlineParser struct {
	p    *Parser
	tag  string
	at   Position
	toks []token
	pos  int
}

func (p *Parser) parseInline(tag, src string, at Position) ([]Expr, error) {
	toks, err := tokenize(tag, src, at)
	if err != nil {
		return nil, err
	}
	ip := &inlineParser{p: p, tag: tag, at: at, toks: toks}
	args, err := ip.args()
	if err != nil {
		return nil, err
	}
	if ip.pos < len(ip.toks) {
		return nil, errorf(tag, shift(at, ip.toks[ip.pos].col), "unexpected %q", ip.toks[ip.pos].text)
	}
	return args, nil
}

func (ip *inlineParser) args() ([]Expr, error) {
	var out []Expr
	for ip.pos < len(ip.toks) && ip.toks[ip.pos].kind != tokRParen {
		x, err := ip.arg()
		if err != nil {
			return nil, err
		}
		out = append(out, x)
	}
	return out, nil
}

func (ip *inlineParser) arg() (Expr, error) {
	t := ip.toks[ip.pos]
	at := shift(ip.at, t.col)
	switch t.kind {
	case tokQuoted:
		ip.pos++
		return &Literal{Value: t.text, At: at}, nil
	case tokWord:
		ip.pos++
		return &Literal{Value: inlineScalar(t.text), Raw: t.text, At: at}, nil
	case tokTag:
		return nil, errorf(ip.tag, at, "nested !%s must be wrapped in parentheses", t.text)
	case tokLParen:
		ip.pos++
		if ip.pos >= len(ip.toks) || ip.toks[ip.pos].kind != tokTag {
			return nil, errorf(ip.tag, at, "expected a tag after '('")
		}
		name := ip.toks[ip.pos].text
		op, ok := ip.p.table.Lookup(name)
		if !ok {
			return nil, errorf(name, at, "unknown generator tag")
		}
		ip.pos++
		inner, err := ip.args()
		if err != nil {
			return nil, err
		}
		if ip.pos >= len(ip.toks) {
			return nil, errorf(name, at, "missing ')'")
		}
		ip.pos++
		return bind(op, name, inner, nil, at)
	default:
		return nil, errorf(ip.tag, at, "unexpected ')'")
	}
}

// inlineScalar resolves a bare word the way YAML would for the common cases.
func inlineScalar(word string) any {
	if i, err := strconv.ParseInt(word, 10, 64); err == nil {
		return i
	}
	if strings.ContainsAny(word, "0123456789") {
		if f, err := strconv.ParseFloat(word, 64); err == nil {
			return f
		}
	}
	switch word {
	case "true", "True":
		return true
	case "false", "False":
		return false
	case "null", "~":
		return nil
	}
	return word
}
