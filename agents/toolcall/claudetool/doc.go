/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package claudetool converts provider-independent tool definitions and calls
// to and from the Anthropic SDK types.
//
//	params.Tools = claudetool.Tools(registry.Definitions())
//
//	for _, block := range message.Content {
//		if block.Type == "tool_use" {
//			call, err := claudetool.Call(block.ID, block.Name, block.Input)
//			...
//		}
//	}
package claudetool
