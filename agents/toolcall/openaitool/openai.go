/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package openaitool converts provider-independent tool definitions and calls
// to and from the OpenAI chat completions SDK types.
package openaitool

import (
	"encoding/json"
	"fmt"

	"chainguard.dev/reasoner/agents/toolcall"
	"github.com/openai/openai-go"
)

// FromDefinition converts a Definition into a chat completions tool.
func FromDefinition(def toolcall.Definition) openai.ChatCompletionToolParam {
	props := make(map[string]any, len(def.Parameters))
	for _, p := range def.Parameters {
		prop := map[string]any{"type": p.Type}
		if p.Description != "" {
			prop["description"] = p.Description
		}
		if p.Type == "array" {
			prop["items"] = map[string]any{"type": "string"}
		}
		props[p.Name] = prop
	}
	required := def.RequiredNames()
	if required == nil {
		required = []string{}
	}

	return openai.ChatCompletionToolParam{
		Function: openai.FunctionDefinitionParam{
			Name:        def.Name,
			Description: openai.String(def.Description),
			Parameters: openai.FunctionParameters{
				"type":       "object",
				"properties": props,
				"required":   required,
			},
		},
	}
}

// Tools converts all definitions.
func Tools(defs []toolcall.Definition) []openai.ChatCompletionToolParam {
	out := make([]openai.ChatCompletionToolParam, 0, len(defs))
	for _, def := range defs {
		out = append(out, FromDefinition(def))
	}
	return out
}

// Call decodes the JSON argument string of a function tool call.
func Call(id, name, arguments string) (toolcall.ToolCall, error) {
	call := toolcall.ToolCall{ID: id, Name: name}
	if arguments == "" {
		return call, nil
	}
	if err := json.Unmarshal([]byte(arguments), &call.Args); err != nil {
		return call, fmt.Errorf("failed to parse arguments for %q: %w", name, err)
	}
	return call, nil
}

// Arguments encodes ToolCall arguments as the JSON string OpenAI expects.
func Arguments(call toolcall.ToolCall) string {
	if call.Args == nil {
		return "{}"
	}
	raw, err := json.Marshal(call.Args)
	if err != nil {
		return "{}"
	}
	return string(raw)
}
