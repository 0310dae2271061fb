/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package modelclassifier classifies intent by asking a model for a JSON
// verdict.
package modelclassifier

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/chainguard-dev/clog"

	"chainguard.dev/reasoner/agents/intent"
	"chainguard.dev/reasoner/agents/model"
	"chainguard.dev/reasoner/agents/prompt"
	"chainguard.dev/reasoner/agents/result"
	"chainguard.dev/reasoner/agents/session"
)

var system = prompt.MustParse(`You label the intent of an assistant's message.

Choose exactly one of these intents:
{{intents}}

Reply with a single JSON object and nothing else, for example:
{"intent": "provides_final_answer"}`)

var user = prompt.MustParse(`Label this message:
{{text}}`)

var descriptions = map[intent.Intent]string{
	intent.ProvidesFinalAnswer:               "the message completes the task or answers it",
	intent.AsksClarifyingQuestion:            "the message asks the user a question before continuing",
	intent.GeneralConversation:               "small talk or acknowledgement with no task content",
	intent.ProvidesPlanWithoutExplicitAction: "the message describes next steps without performing them",
	intent.Ambiguous:                         "none of the above clearly applies",
}

// Verdict is the JSON shape the model is asked to produce.
type Verdict struct {
	Intent string `json:"intent"`
}

// Classifier implements intent.Classifier on a model.
type Classifier struct {
	model  model.Interface
	system string
}

var _ intent.Classifier = (*Classifier)(nil)

// New returns a Classifier that queries m.
func New(m model.Interface) (*Classifier, error) {
	if m == nil {
		return nil, errors.New("model is required")
	}
	choices := make([]map[string]string, 0, len(intent.All))
	for _, in := range intent.All {
		choices = append(choices, map[string]string{
			"intent":      string(in),
			"description": descriptions[in],
		})
	}
	sys, err := system.MustBindYAML("intents", choices).Render()
	if err != nil {
		return nil, fmt.Errorf("rendering classifier prompt: %w", err)
	}
	return &Classifier{model: m, system: sys}, nil
}

// Classify implements intent.Classifier.
func (c *Classifier) Classify(ctx context.Context, text string) (intent.Intent, error) {
	if strings.TrimSpace(text) == "" {
		return "", intent.ErrEmptyText
	}
	msg, err := user.MustBindJSON("text", text).Render()
	if err != nil {
		return "", fmt.Errorf("rendering classifier input: %w", err)
	}

	var reply strings.Builder
	for frag, err := range c.model.GenerateStream(ctx, model.Request{
		Messages: session.History{
			session.SystemMessage(c.system),
			session.UserMessage(msg),
		},
	}) {
		if err != nil {
			return "", fmt.Errorf("classifier model: %w", err)
		}
		reply.WriteString(frag.Text)
	}

	v, err := result.Extract[Verdict](reply.String())
	if err != nil {
		return "", fmt.Errorf("parsing classifier reply: %w", err)
	}
	in, err := intent.Parse(strings.TrimSpace(strings.ToLower(v.Intent)))
	if err != nil {
		return "", err
	}
	clog.FromContext(ctx).Debug("Classified intent", "intent", in)
	return in, nil
}
