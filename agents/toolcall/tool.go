/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package toolcall

import (
	"context"
	"encoding/json"
	"fmt"

	"chainguard.dev/reasoner/agents/schema"
	"chainguard.dev/reasoner/agents/toolcall/params"
)

// ToolCall is a provider-independent representation of a tool call.
type ToolCall struct {
	ID   string         `json:"id"`
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

// Definition describes a tool's schema (name, description, parameters).
type Definition struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Parameters  []Parameter `json:"parameters,omitempty"`
}

// Parameter describes a single tool parameter.
type Parameter struct {
	Name        string `json:"name"`
	Type        string `json:"type"` // "string", "integer", "boolean", "number", "array", "object"
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required,omitempty"`
}

// RequiredNames returns the names of the required parameters in declaration order.
func (d Definition) RequiredNames() []string {
	var out []string
	for _, p := range d.Parameters {
		if p.Required {
			out = append(out, p.Name)
		}
	}
	return out
}

// Handler executes a tool call and returns a JSON-serializable result.
type Handler func(ctx context.Context, call ToolCall) (any, error)

// Tool defines a tool once with a single handler that works with any provider.
type Tool struct {
	Def     Definition
	Handler Handler
}

// NewTool builds a Tool whose parameters are reflected from Args and whose
// handler receives the call arguments decoded into Args.
func NewTool[Args any](name, description string, fn func(ctx context.Context, args Args) (any, error)) (Tool, error) {
	props, err := schema.PropertiesFor[Args]()
	if err != nil {
		return Tool{}, fmt.Errorf("reflecting %s arguments: %w", name, err)
	}

	def := Definition{Name: name, Description: description}
	for _, p := range props {
		def.Parameters = append(def.Parameters, Parameter{
			Name:        p.Name,
			Type:        p.Type,
			Description: p.Description,
			Required:    p.Required,
		})
	}

	return Tool{
		Def: def,
		Handler: func(ctx context.Context, call ToolCall) (any, error) {
			var args Args
			raw, err := json.Marshal(call.Args)
			if err != nil {
				return nil, fmt.Errorf("encoding %s arguments: %w", name, err)
			}
			if err := json.Unmarshal(raw, &args); err != nil {
				return nil, fmt.Errorf("decoding %s arguments: %w", name, err)
			}
			for _, req := range def.RequiredNames() {
				if _, ok := call.Args[req]; !ok {
					return nil, fmt.Errorf("%s parameter is required", req)
				}
			}
			return fn(ctx, args)
		},
	}, nil
}

// Param extracts a required parameter from the tool call args.
func Param[T any](call ToolCall, name string) (T, error) {
	return params.Extract[T](call.Args, name)
}

// OptionalParam extracts an optional parameter from the tool call args.
func OptionalParam[T any](call ToolCall, name string, defaultValue T) (T, error) {
	return params.ExtractOptional[T](call.Args, name, defaultValue)
}
