/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package openaimodel streams responses from OpenAI-compatible chat
// completion endpoints.
package openaimodel

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"github.com/chainguard-dev/clog"
	"github.com/google/uuid"
	"github.com/openai/openai-go"

	"chainguard.dev/reasoner/agents/model"
	"chainguard.dev/reasoner/agents/session"
	"chainguard.dev/reasoner/agents/toolcall/openaitool"
)

const provider = "openai"

// Model implements model.Interface on the chat completions API.
type Model struct {
	client      openai.Client
	modelName   string
	maxTokens   int64
	temperature float64
}

var _ model.Interface = (*Model)(nil)

// Option configures a Model.
type Option func(*Model) error

// WithModel overrides the model name. Any name is accepted so that
// compatible backends can be targeted.
func WithModel(name string) Option {
	return func(m *Model) error {
		if name == "" {
			return errors.New("model name must not be empty")
		}
		m.modelName = name
		return nil
	}
}

// WithMaxTokens sets the maximum completion tokens per response.
func WithMaxTokens(tokens int64) Option {
	return func(m *Model) error {
		if tokens <= 0 {
			return fmt.Errorf("max tokens must be positive, got %d", tokens)
		}
		m.maxTokens = tokens
		return nil
	}
}

// WithTemperature sets the sampling temperature, between 0.0 and 2.0.
func WithTemperature(temp float64) Option {
	return func(m *Model) error {
		if temp < 0.0 || temp > 2.0 {
			return fmt.Errorf("temperature must be between 0.0 and 2.0, got %f", temp)
		}
		m.temperature = temp
		return nil
	}
}

// New returns a Model using client.
func New(client openai.Client, opts ...Option) (*Model, error) {
	m := &Model{
		client:      client,
		modelName:   "gpt-4o",
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

// GenerateStream implements model.Interface. Content deltas are yielded as
// they arrive; tool calls are assembled by the accumulator and yielded once
// the stream completes, followed by usage.
func (m *Model) GenerateStream(ctx context.Context, req model.Request) iter.Seq2[model.Fragment, error] {
	return func(yield func(model.Fragment, error) bool) {
		log := clog.FromContext(ctx)

		params := openai.ChatCompletionNewParams{
			Model:               openai.ChatModel(m.modelName),
			Messages:            Messages(req.Messages),
			MaxCompletionTokens: openai.Int(m.maxTokens),
			Temperature:         openai.Float(m.temperature),
			StreamOptions: openai.ChatCompletionStreamOptionsParam{
				IncludeUsage: openai.Bool(true),
			},
		}
		if len(req.Tools) > 0 {
			params.Tools = openaitool.Tools(req.Tools)
		}

		stream := m.client.Chat.Completions.NewStreaming(ctx, params)
		defer stream.Close()

		acc := openai.ChatCompletionAccumulator{}
		for stream.Next() {
			chunk := stream.Current()
			acc.AddChunk(chunk)
			if len(chunk.Choices) == 0 {
				continue
			}
			if text := chunk.Choices[0].Delta.Content; text != "" {
				if !yield(model.TextFragment(text), nil) {
					return
				}
			}
		}
		if err := stream.Err(); err != nil {
			yield(model.Fragment{}, transportError(err))
			return
		}

		if len(acc.Choices) > 0 {
			for _, tc := range acc.Choices[0].Message.ToolCalls {
				id := tc.ID
				if id == "" {
					id = "call_" + uuid.NewString()
				}
				call, err := openaitool.Call(id, tc.Function.Name, tc.Function.Arguments)
				if err != nil {
					log.With("tool", tc.Function.Name).Warn("Malformed tool arguments", "error", err)
				}
				if !yield(model.ToolCallFragment(call), nil) {
					return
				}
			}
		}

		yield(model.UsageFragment(model.Usage{
			Model:        m.modelName,
			InputTokens:  acc.Usage.PromptTokens,
			OutputTokens: acc.Usage.CompletionTokens,
		}), nil)
	}
}

// Messages converts a history into chat completion messages. Each tool
// result becomes its own tool-role message, as the API requires.
func Messages(h session.History) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(h))
	for _, msg := range h {
		switch msg.Role {
		case session.RoleSystem:
			if msg.Content != "" {
				out = append(out, openai.SystemMessage(msg.Content))
			}
		case session.RoleUser:
			if msg.Content != "" {
				out = append(out, openai.UserMessage(msg.Content))
			}
		case session.RoleAssistant:
			if len(msg.ToolCalls) == 0 {
				if msg.Content != "" {
					out = append(out, openai.AssistantMessage(msg.Content))
				}
				continue
			}
			calls := make([]openai.ChatCompletionMessageToolCallParam, 0, len(msg.ToolCalls))
			for _, call := range msg.ToolCalls {
				calls = append(calls, openai.ChatCompletionMessageToolCallParam{
					ID: call.ID,
					Function: openai.ChatCompletionMessageToolCallFunctionParam{
						Name:      call.Name,
						Arguments: openaitool.Arguments(call),
					},
				})
			}
			assistant := openai.ChatCompletionAssistantMessageParam{ToolCalls: calls}
			if msg.Content != "" {
				assistant.Content = openai.ChatCompletionAssistantMessageParamContentUnion{OfString: openai.String(msg.Content)}
			}
			out = append(out, openai.ChatCompletionMessageParamUnion{OfAssistant: &assistant})
		case session.RoleTool:
			out = append(out, openai.ToolMessage(msg.Content, msg.ToolCallID))
		}
	}
	return out
}

// isRetryable reports rate limits and server-side failures.
func isRetryable(err error) bool {
	var apiErr *openai.Error
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode == 429 || apiErr.StatusCode >= 500
}

func transportError(err error) error {
	wrapped := model.AsTransportError(provider, err, isRetryable)
	var apiErr *openai.Error
	var te *model.TransportError
	if errors.As(err, &apiErr) && errors.As(wrapped, &te) {
		te.StatusCode = apiErr.StatusCode
	}
	return wrapped
}
