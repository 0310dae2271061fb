/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package claudetool

import (
	"encoding/json"
	"fmt"

	"chainguard.dev/reasoner/agents/toolcall"
	"github.com/anthropics/anthropic-sdk-go"
)

// FromDefinition converts a Definition into an Anthropic tool parameter.
func FromDefinition(def toolcall.Definition) anthropic.ToolParam {
	props := make(map[string]any, len(def.Parameters))
	for _, p := range def.Parameters {
		prop := map[string]any{"type": p.Type}
		if p.Description != "" {
			prop["description"] = p.Description
		}
		props[p.Name] = prop
	}

	return anthropic.ToolParam{
		Name:        def.Name,
		Description: anthropic.String(def.Description),
		InputSchema: anthropic.ToolInputSchemaParam{
			Properties: props,
			Required:   def.RequiredNames(),
		},
	}
}

// Tools converts definitions into the union params of a Messages request.
func Tools(defs []toolcall.Definition) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, 0, len(defs))
	for _, def := range defs {
		param := FromDefinition(def)
		out = append(out, anthropic.ToolUnionParam{OfTool: &param})
	}
	return out
}

// Call decodes a tool_use block's raw input into a ToolCall.
func Call(id, name string, input json.RawMessage) (toolcall.ToolCall, error) {
	call := toolcall.ToolCall{ID: id, Name: name}
	if len(input) == 0 {
		return call, nil
	}
	if err := json.Unmarshal(input, &call.Args); err != nil {
		return call, fmt.Errorf("failed to parse tool input for %q: %w", name, err)
	}
	return call, nil
}

// Input encodes ToolCall arguments as the raw input of a tool_use block.
func Input(call toolcall.ToolCall) json.RawMessage {
	if call.Args == nil {
		return json.RawMessage(`{}`)
	}
	raw, err := json.Marshal(call.Args)
	if err != nil {
		return json.RawMessage(`{}`)
	}
	return raw
}
