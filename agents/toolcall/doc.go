/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package toolcall defines the provider-independent tool model used by the
// reasoning engine.
//
// A Tool pairs a Definition (name, description, parameters) with a Handler.
// Tools are collected in a Registry, which implements Executor: the capability
// the engine's orchestrator invokes by name with decoded JSON arguments.
//
// # Defining tools
//
// Parameters can be listed by hand:
//
//	tool := toolcall.Tool{
//		Def: toolcall.Definition{
//			Name:        "read_file",
//			Description: "Read a file from the repository.",
//			Parameters: []toolcall.Parameter{
//				{Name: "path", Type: "string", Description: "Relative path", Required: true},
//			},
//		},
//		Handler: func(ctx context.Context, call toolcall.ToolCall) (any, error) {
//			path, err := toolcall.Param[string](call, "path")
//			if err != nil {
//				return nil, err
//			}
//			...
//		},
//	}
//
// or derived from an arguments struct through its JSON schema:
//
//	type readArgs struct {
//		Path string `json:"path" jsonschema:"description=Relative path,required"`
//	}
//	tool, err := toolcall.NewTool("read_file", "Read a file.", func(ctx context.Context, args readArgs) (any, error) {
//		...
//	})
//
// Conversion of Definitions to SDK-specific tool parameters lives in the
// claudetool, googletool and openaitool subpackages.
package toolcall
