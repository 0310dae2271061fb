/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/vertex"
	"github.com/openai/openai-go"
	"google.golang.org/genai"

	"chainguard.dev/reasoner/agents/model"
	"chainguard.dev/reasoner/agents/model/claudemodel"
	"chainguard.dev/reasoner/agents/model/googlemodel"
	"chainguard.dev/reasoner/agents/model/openaimodel"
)

// newModel builds the configured provider. Claude and Gemini go through
// Vertex AI when a project is configured and use API keys from the
// environment otherwise.
func newModel(ctx context.Context, cfg config) (model.Interface, error) {
	switch cfg.Provider {
	case "claude":
		var client anthropic.Client
		if cfg.ProjectID != "" {
			client = anthropic.NewClient(vertex.WithGoogleAuth(ctx, cfg.Region, cfg.ProjectID))
		} else {
			client = anthropic.NewClient()
		}
		var opts []claudemodel.Option
		if cfg.Model != "" {
			opts = append(opts, claudemodel.WithModel(cfg.Model))
		}
		return claudemodel.New(client, opts...)

	case "gemini":
		cc := &genai.ClientConfig{Backend: genai.BackendGeminiAPI}
		if cfg.ProjectID != "" {
			cc = &genai.ClientConfig{
				Project:  cfg.ProjectID,
				Location: cfg.Region,
				Backend:  genai.BackendVertexAI,
			}
		}
		client, err := genai.NewClient(ctx, cc)
		if err != nil {
			return nil, fmt.Errorf("creating Google AI client: %w", err)
		}
		var opts []googlemodel.Option
		if cfg.Model != "" {
			opts = append(opts, googlemodel.WithModel(cfg.Model))
		}
		return googlemodel.New(client, opts...)

	case "openai":
		var opts []openaimodel.Option
		if cfg.Model != "" {
			opts = append(opts, openaimodel.WithModel(cfg.Model))
		}
		return openaimodel.New(openai.NewClient(), opts...)

	default:
		return nil, fmt.Errorf("unknown provider %q (supported: claude, gemini, openai)", cfg.Provider)
	}
}
