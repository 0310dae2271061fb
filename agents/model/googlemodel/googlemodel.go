/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package googlemodel streams responses from Gemini models through the
// Google GenAI SDK, on either the Gemini API or Vertex AI.
package googlemodel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"strings"

	"github.com/chainguard-dev/clog"
	"github.com/google/uuid"
	"google.golang.org/genai"

	"chainguard.dev/reasoner/agents/model"
	"chainguard.dev/reasoner/agents/session"
	"chainguard.dev/reasoner/agents/toolcall/googletool"
)

const provider = "google"

// Model implements model.Interface on genai.Client.
type Model struct {
	client      *genai.Client
	modelName   string
	maxTokens   int32
	temperature float32
}

var _ model.Interface = (*Model)(nil)

// Option configures a Model.
type Option func(*Model) error

// WithModel overrides the model name.
func WithModel(name string) Option {
	return func(m *Model) error {
		if !strings.HasPrefix(name, "gemini-") {
			return fmt.Errorf("model %q does not appear to be a Gemini model (expected gemini-* format)", name)
		}
		m.modelName = name
		return nil
	}
}

// WithMaxOutputTokens sets the maximum tokens per response.
func WithMaxOutputTokens(tokens int32) Option {
	return func(m *Model) error {
		if tokens <= 0 {
			return fmt.Errorf("max output tokens must be positive, got %d", tokens)
		}
		m.maxTokens = tokens
		return nil
	}
}

// WithTemperature sets the sampling temperature, between 0.0 and 2.0.
func WithTemperature(temp float32) Option {
	return func(m *Model) error {
		if temp < 0.0 || temp > 2.0 {
			return fmt.Errorf("temperature must be between 0.0 and 2.0, got %f", temp)
		}
		m.temperature = temp
		return nil
	}
}

// New returns a Model using client.
func New(client *genai.Client, opts ...Option) (*Model, error) {
	if client == nil {
		return nil, fmt.Errorf("client is required")
	}
	m := &Model{
		client:      client,
		modelName:   "gemini-2.5-flash",
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

// GenerateStream implements model.Interface. Gemini delivers function calls
// whole inside a chunk, so they are yielded in arrival order with the text.
func (m *Model) GenerateStream(ctx context.Context, req model.Request) iter.Seq2[model.Fragment, error] {
	return func(yield func(model.Fragment, error) bool) {
		log := clog.FromContext(ctx)

		system, contents := Contents(req.Messages)
		config := &genai.GenerateContentConfig{
			Temperature:       ptr(m.temperature),
			MaxOutputTokens:   m.maxTokens,
			SystemInstruction: system,
			Tools:             googletool.Tools(req.Tools),
		}

		var usage *genai.GenerateContentResponseUsageMetadata
		for resp, err := range m.client.Models.GenerateContentStream(ctx, m.modelName, contents, config) {
			if err != nil {
				yield(model.Fragment{}, transportError(err))
				return
			}
			if resp.UsageMetadata != nil {
				// Each chunk reports the running totals.
				usage = resp.UsageMetadata
			}
			if len(resp.Candidates) == 0 {
				continue
			}
			candidate := resp.Candidates[0]
			if candidate.FinishReason == genai.FinishReasonMalformedFunctionCall {
				log.Warn("Model produced a malformed function call", "message", candidate.FinishMessage)
			}
			if candidate.Content == nil {
				continue
			}
			for _, part := range candidate.Content.Parts {
				var frag model.Fragment
				switch {
				case part.Thought:
					continue
				case part.FunctionCall != nil:
					call := googletool.Call(part.FunctionCall)
					if call.ID == "" {
						call.ID = "call_" + uuid.NewString()
					}
					frag = model.ToolCallFragment(call)
				case part.Text != "":
					frag = model.TextFragment(part.Text)
				default:
					continue
				}
				if !yield(frag, nil) {
					return
				}
			}
		}

		if usage != nil {
			yield(model.UsageFragment(model.Usage{
				Model:        m.modelName,
				InputTokens:  int64(usage.PromptTokenCount),
				OutputTokens: int64(usage.CandidatesTokenCount),
			}), nil)
		}
	}
}

// Contents converts a history into Gemini's system instruction and content
// list. Tool results are sent as user-role function responses, merged with
// neighbouring user content so each model turn is answered by one message.
func Contents(h session.History) (*genai.Content, []*genai.Content) {
	var (
		system []*genai.Part
		out    []*genai.Content
	)
	add := func(role string, parts ...*genai.Part) {
		if len(parts) == 0 {
			return
		}
		if n := len(out); n > 0 && out[n-1].Role == role {
			out[n-1].Parts = append(out[n-1].Parts, parts...)
			return
		}
		out = append(out, &genai.Content{Role: role, Parts: parts})
	}

	for _, msg := range h {
		switch msg.Role {
		case session.RoleSystem:
			if msg.Content != "" {
				system = append(system, &genai.Part{Text: msg.Content})
			}
		case session.RoleUser:
			if msg.Content != "" {
				add("user", &genai.Part{Text: msg.Content})
			}
		case session.RoleAssistant:
			var parts []*genai.Part
			if msg.Content != "" {
				parts = append(parts, &genai.Part{Text: msg.Content})
			}
			for _, call := range msg.ToolCalls {
				parts = append(parts, &genai.Part{FunctionCall: &genai.FunctionCall{
					ID:   call.ID,
					Name: call.Name,
					Args: call.Args,
				}})
			}
			add("model", parts...)
		case session.RoleTool:
			add("user", &genai.Part{FunctionResponse: &genai.FunctionResponse{
				ID:       msg.ToolCallID,
				Name:     msg.Name,
				Response: responseMap(msg.Content),
			}})
		}
	}

	if len(system) == 0 {
		return nil, out
	}
	return &genai.Content{Parts: system}, out
}

// responseMap decodes a JSON object result, and wraps anything else under
// "result" since Gemini requires an object.
func responseMap(content string) map[string]any {
	var m map[string]any
	if err := json.Unmarshal([]byte(content), &m); err == nil && m != nil {
		return m
	}
	return map[string]any{"result": content}
}

// isRetryable reports quota, overload and transient server failures. The
// SDK surfaces these with inconsistent types, so the message is inspected.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case 429, 500, 503, 504:
			return true
		}
	}
	msg := err.Error()
	for _, s := range []string{
		"Resource exhausted",
		"RESOURCE_EXHAUSTED",
		"429",
		"rate limit",
		"quota exceeded",
		"Overloaded",
		"UNAVAILABLE",
		"503",
		"Internal error",
		"server error",
	} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

func transportError(err error) error {
	wrapped := model.AsTransportError(provider, err, isRetryable)
	var apiErr genai.APIError
	var te *model.TransportError
	if errors.As(err, &apiErr) && errors.As(wrapped, &te) {
		te.StatusCode = apiErr.Code
	}
	return wrapped
}

func ptr[T any](v T) *T {
	return &v
}
