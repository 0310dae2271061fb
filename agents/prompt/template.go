/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package prompt

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"
)

// literal only admits untyped string constants from callers outside this
// package, so templates and literal bindings cannot carry runtime input.
type literal string

// Template is an immutable prompt with named placeholders.
type Template struct {
	text   string
	values map[string]func() (string, error)
}

// Parse validates a template and records its placeholders.
func Parse(text literal) (*Template, error) {
	values := map[string]func() (string, error){}
	if _, err := scan(string(text), func(name string) (string, error) {
		values[name] = nil
		return "", nil
	}); err != nil {
		return nil, err
	}
	return &Template{text: string(text), values: values}, nil
}

// MustParse is Parse that panics on error.
func MustParse(text literal) *Template {
	t, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return t
}

// Placeholders returns the sorted placeholder names.
func (t *Template) Placeholders() []string {
	return slices.Sorted(maps.Keys(t.values))
}

// Bind attaches a developer-controlled constant.
func (t *Template) Bind(name string, value literal) (*Template, error) {
	return t.with(name, func() (string, error) { return string(value), nil })
}

// BindJSON attaches data rendered as indented JSON.
func (t *Template) BindJSON(name string, data any) (*Template, error) {
	return t.with(name, func() (string, error) {
		b, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to marshal %q as JSON: %w", name, err)
		}
		return string(b), nil
	})
}

// BindYAML attaches data rendered as YAML.
func (t *Template) BindYAML(name string, data any) (*Template, error) {
	return t.with(name, func() (string, error) {
		b, err := yaml.Marshal(data)
		if err != nil {
			return "", fmt.Errorf("failed to marshal %q as YAML: %w", name, err)
		}
		return strings.TrimRight(string(b), "\n"), nil
	})
}

// MustBind is Bind that panics on error.
func (t *Template) MustBind(name string, value literal) *Template {
	return must(t.Bind(name, value))
}

// MustBindJSON is BindJSON that panics on error.
func (t *Template) MustBindJSON(name string, data any) *Template {
	return must(t.BindJSON(name, data))
}

// MustBindYAML is BindYAML that panics on error.
func (t *Template) MustBindYAML(name string, data any) *Template {
	return must(t.BindYAML(name, data))
}

// Render substitutes every placeholder. It fails if any is unbound.
func (t *Template) Render() (string, error) {
	rendered := make(map[string]string, len(t.values))
	for name, fn := range t.values {
		if fn == nil {
			return "", fmt.Errorf("placeholder %q is not bound", name)
		}
		v, err := fn()
		if err != nil {
			return "", err
		}
		rendered[name] = v
	}
	return scan(t.text, func(name string) (string, error) {
		return rendered[name], nil
	})
}

func (t *Template) with(name string, fn func() (string, error)) (*Template, error) {
	cur, ok := t.values[name]
	switch {
	case !ok:
		return nil, fmt.Errorf("template has no placeholder %q", name)
	case cur != nil:
		return nil, fmt.Errorf("placeholder %q is already bound", name)
	}
	values := maps.Clone(t.values)
	values[name] = fn
	return &Template{text: t.text, values: values}, nil
}

func must(t *Template, err error) *Template {
	if err != nil {
		panic(err)
	}
	return t
}

// scan walks text once, replacing each {{name}} with resolve(name).
func scan(text string, resolve func(string) (string, error)) (string, error) {
	var b strings.Builder
	for {
		open := strings.Index(text, "{{")
		if open < 0 {
			b.WriteString(text)
			return b.String(), nil
		}
		b.WriteString(text[:open])
		rest := text[open+2:]
		end := strings.Index(rest, "}}")
		if end < 0 {
			return "", errors.New("unclosed placeholder: missing '}}'")
		}
		name := strings.TrimSpace(rest[:end])
		if !identifier(name) {
			return "", fmt.Errorf("invalid placeholder name %q", name)
		}
		v, err := resolve(name)
		if err != nil {
			return "", err
		}
		b.WriteString(v)
		text = rest[end+2:]
	}
}

func identifier(s string) bool {
	for i, r := range s {
		switch {
		case unicode.IsLetter(r):
		case i > 0 && (unicode.IsDigit(r) || r == '_'):
		default:
			return false
		}
	}
	return s != ""
}
