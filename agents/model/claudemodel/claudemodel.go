/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package claudemodel streams responses from Anthropic's Claude models.
package claudemodel

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/chainguard-dev/clog"

	"chainguard.dev/reasoner/agents/model"
	"chainguard.dev/reasoner/agents/session"
	"chainguard.dev/reasoner/agents/toolcall/claudetool"
)

const provider = "anthropic"

// Model implements model.Interface on the Anthropic Messages API.
type Model struct {
	client      anthropic.Client
	modelName   string
	maxTokens   int64
	temperature float64
}

var _ model.Interface = (*Model)(nil)

// Option configures a Model.
type Option func(*Model) error

// WithModel overrides the model name.
func WithModel(name string) Option {
	return func(m *Model) error {
		if !strings.HasPrefix(name, "claude-") {
			return fmt.Errorf("model %q does not appear to be a Claude model (expected claude-* format)", name)
		}
		m.modelName = name
		return nil
	}
}

// WithMaxTokens sets the maximum tokens per response.
func WithMaxTokens(tokens int64) Option {
	return func(m *Model) error {
		if tokens <= 0 {
			return fmt.Errorf("max tokens must be positive, got %d", tokens)
		}
		m.maxTokens = tokens
		return nil
	}
}

// WithTemperature sets the sampling temperature, between 0.0 and 1.0.
func WithTemperature(temp float64) Option {
	return func(m *Model) error {
		if temp < 0.0 || temp > 1.0 {
			return fmt.Errorf("temperature must be between 0.0 and 1.0, got %f", temp)
		}
		m.temperature = temp
		return nil
	}
}

// New returns a Model using client.
func New(client anthropic.Client, opts ...Option) (*Model, error) {
	m := &Model{
		client:      client,
		modelName:   "claude-sonnet-4-5",
		maxTokens:   8192,
		temperature: 0.1,
	}
	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}
	return m, nil
}

// Name returns the model name.
func (m *Model) Name() string {
	return m.modelName
}

// GenerateStream implements model.Interface. Text is yielded as it streams;
// tool calls and usage follow once the message is complete, because tool
// input only becomes valid JSON at the end of its block.
func (m *Model) GenerateStream(ctx context.Context, req model.Request) iter.Seq2[model.Fragment, error] {
	return func(yield func(model.Fragment, error) bool) {
		log := clog.FromContext(ctx)

		system, messages := Messages(req.Messages)
		params := anthropic.MessageNewParams{
			Model:       anthropic.Model(m.modelName),
			MaxTokens:   m.maxTokens,
			Messages:    messages,
			Temperature: anthropic.Float(m.temperature),
		}
		if system != "" {
			params.System = []anthropic.TextBlockParam{{Text: system}}
		}
		if len(req.Tools) > 0 {
			params.Tools = claudetool.Tools(req.Tools)
		}

		stream := m.client.Messages.NewStreaming(ctx, params)
		defer stream.Close()

		var msg anthropic.Message
		for stream.Next() {
			event := stream.Current()
			if err := msg.Accumulate(event); err != nil {
				yield(model.Fragment{}, transportError(fmt.Errorf("failed to accumulate event: %w", err)))
				return
			}
			delta, ok := event.AsAny().(anthropic.ContentBlockDeltaEvent)
			if !ok {
				continue
			}
			if text, ok := delta.Delta.AsAny().(anthropic.TextDelta); ok && text.Text != "" {
				if !yield(model.TextFragment(text.Text), nil) {
					return
				}
			}
		}
		if err := stream.Err(); err != nil {
			yield(model.Fragment{}, transportError(err))
			return
		}

		for _, block := range msg.Content {
			if block.Type != "tool_use" {
				continue
			}
			call, err := claudetool.Call(block.ID, block.Name, block.Input)
			if err != nil {
				// The call is still forwarded; the tool reports the bad arguments.
				log.With("tool", block.Name).Warn("Malformed tool input", "error", err)
			}
			if !yield(model.ToolCallFragment(call), nil) {
				return
			}
		}

		yield(model.UsageFragment(model.Usage{
			Model:        m.modelName,
			InputTokens:  msg.Usage.InputTokens,
			OutputTokens: msg.Usage.OutputTokens,
		}), nil)
	}
}

// Messages converts a history into Claude's system prompt and message list.
// Consecutive messages that map to the same Claude role are merged, so tool
// results answering one response travel in a single user message.
func Messages(h session.History) (string, []anthropic.MessageParam) {
	var (
		system []string
		out    []anthropic.MessageParam
	)
	add := func(role anthropic.MessageParamRole, blocks ...anthropic.ContentBlockParamUnion) {
		if len(blocks) == 0 {
			return
		}
		if n := len(out); n > 0 && out[n-1].Role == role {
			out[n-1].Content = append(out[n-1].Content, blocks...)
			return
		}
		out = append(out, anthropic.MessageParam{Role: role, Content: blocks})
	}

	for _, msg := range h {
		switch msg.Role {
		case session.RoleSystem:
			if msg.Content != "" {
				system = append(system, msg.Content)
			}
		case session.RoleUser:
			if msg.Content != "" {
				add(anthropic.MessageParamRoleUser, anthropic.NewTextBlock(msg.Content))
			}
		case session.RoleAssistant:
			var blocks []anthropic.ContentBlockParamUnion
			if msg.Content != "" {
				blocks = append(blocks, anthropic.NewTextBlock(msg.Content))
			}
			for _, call := range msg.ToolCalls {
				blocks = append(blocks, anthropic.ContentBlockParamUnion{
					OfToolUse: &anthropic.ToolUseBlockParam{
						ID:    call.ID,
						Name:  call.Name,
						Input: claudetool.Input(call),
					},
				})
			}
			add(anthropic.MessageParamRoleAssistant, blocks...)
		case session.RoleTool:
			add(anthropic.MessageParamRoleUser, anthropic.ContentBlockParamUnion{
				OfToolResult: &anthropic.ToolResultBlockParam{
					ToolUseID: msg.ToolCallID,
					Content: []anthropic.ToolResultBlockParamContentUnion{{
						OfText: &anthropic.TextBlockParam{Text: msg.Content},
					}},
				},
			})
		}
	}
	return strings.Join(system, "\n\n"), out
}

// isRetryable reports rate limit, overloaded and transient server errors.
func isRetryable(err error) bool {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case 429, 503, 504, 529:
			return true
		}
	}
	return false
}

func transportError(err error) error {
	wrapped := model.AsTransportError(provider, err, isRetryable)
	var apiErr *anthropic.Error
	var te *model.TransportError
	if errors.As(err, &apiErr) && errors.As(wrapped, &te) {
		te.StatusCode = apiErr.StatusCode
	}
	return wrapped
}
