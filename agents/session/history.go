/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package session

import (
	"maps"
	"slices"

	"chainguard.dev/reasoner/agents/toolcall"
)

// Role tags the author of a Message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one entry of the conversation sent to the model.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content,omitempty"`

	// ToolCalls are the structured requests attached to an assistant message.
	ToolCalls []toolcall.ToolCall `json:"tool_calls,omitempty"`

	// ToolCallID and Name correlate a tool-role message with its request.
	ToolCallID string `json:"tool_call_id,omitempty"`
	Name       string `json:"name,omitempty"`
}

// SystemMessage returns a system-role message.
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// UserMessage returns a user-role message.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// AssistantMessage returns an assistant-role message carrying text and any
// tool calls the model requested alongside it.
func AssistantMessage(content string, calls ...toolcall.ToolCall) Message {
	return Message{Role: RoleAssistant, Content: content, ToolCalls: calls}
}

// ToolResultMessage returns the tool-role message answering call id.
func ToolResultMessage(id, name, content string) Message {
	return Message{Role: RoleTool, Content: content, ToolCallID: id, Name: name}
}

// History is the ordered conversation exchanged with the model.
type History []Message

// LastUser returns the newest user-role message.
func (h History) LastUser() (Message, bool) {
	for i := len(h) - 1; i >= 0; i-- {
		if h[i].Role == RoleUser {
			return h[i], true
		}
	}
	return Message{}, false
}

// Clone returns a copy of h that shares no slices or argument maps with it.
func (h History) Clone() History {
	if h == nil {
		return nil
	}
	out := make(History, len(h))
	for i, m := range h {
		if m.ToolCalls != nil {
			m.ToolCalls = slices.Clone(m.ToolCalls)
			for j := range m.ToolCalls {
				m.ToolCalls[j].Args = maps.Clone(m.ToolCalls[j].Args)
			}
		}
		out[i] = m
	}
	return out
}
