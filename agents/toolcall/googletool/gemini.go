/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package googletool

import (
	"maps"

	"chainguard.dev/reasoner/agents/toolcall"
	"google.golang.org/genai"
)

// FromDefinition converts a Definition into a Gemini function declaration.
func FromDefinition(def toolcall.Definition) *genai.FunctionDeclaration {
	props := make(map[string]*genai.Schema, len(def.Parameters))
	ordering := make([]string, 0, len(def.Parameters))
	for _, p := range def.Parameters {
		s := &genai.Schema{
			Type:        schemaType(p.Type),
			Description: p.Description,
		}
		if s.Type == genai.TypeArray {
			// Gemini rejects arrays without an item schema.
			s.Items = &genai.Schema{Type: genai.TypeString}
		}
		props[p.Name] = s
		ordering = append(ordering, p.Name)
	}

	return &genai.FunctionDeclaration{
		Name:        def.Name,
		Description: def.Description,
		Parameters: &genai.Schema{
			Type:             genai.TypeObject,
			Properties:       props,
			PropertyOrdering: ordering,
			Required:         def.RequiredNames(),
		},
	}
}

// Tools wraps definitions in the single genai.Tool Gemini expects.
func Tools(defs []toolcall.Definition) []*genai.Tool {
	if len(defs) == 0 {
		return nil
	}
	decls := make([]*genai.FunctionDeclaration, 0, len(defs))
	for _, def := range defs {
		decls = append(decls, FromDefinition(def))
	}
	return []*genai.Tool{{FunctionDeclarations: decls}}
}

// Call converts a Gemini function call into a ToolCall.
func Call(fc *genai.FunctionCall) toolcall.ToolCall {
	return toolcall.ToolCall{
		ID:   fc.ID,
		Name: fc.Name,
		Args: maps.Clone(fc.Args),
	}
}

func schemaType(t string) genai.Type {
	switch t {
	case "number":
		return genai.TypeNumber
	case "integer":
		return genai.TypeInteger
	case "boolean":
		return genai.TypeBoolean
	case "array":
		return genai.TypeArray
	case "object":
		return genai.TypeObject
	default:
		return genai.TypeString
	}
}
