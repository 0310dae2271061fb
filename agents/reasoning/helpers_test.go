/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package reasoning_test

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"sync"
	"testing"
	"time"

	"chainguard.dev/reasoner/agents/intent"
	"chainguard.dev/reasoner/agents/model"
	"chainguard.dev/reasoner/agents/reasoning"
	"chainguard.dev/reasoner/agents/retry"
	"chainguard.dev/reasoner/agents/session"
	"chainguard.dev/reasoner/agents/toolcall"
)

// turn is the scripted behavior of one model call.
type turn struct {
	frags []model.Fragment
	err   error
	// block waits for ctx to end before yielding anything.
	block bool
}

func say(text string) turn {
	return turn{frags: []model.Fragment{model.TextFragment(text)}}
}

func callTool(id, name string, args map[string]any) turn {
	return turn{frags: []model.Fragment{model.ToolCallFragment(toolcall.ToolCall{ID: id, Name: name, Args: args})}}
}

// scriptedModel replays turns in order. Once the script is exhausted it
// keeps replaying the fallback turn, or fails when there is none.
type scriptedModel struct {
	mu       sync.Mutex
	turns    []turn
	fallback *turn
	requests []model.Request
}

func (m *scriptedModel) GenerateStream(ctx context.Context, req model.Request) iter.Seq2[model.Fragment, error] {
	m.mu.Lock()
	n := len(m.requests)
	m.requests = append(m.requests, req)
	var t turn
	switch {
	case n < len(m.turns):
		t = m.turns[n]
	case m.fallback != nil:
		t = *m.fallback
	default:
		t = turn{err: fmt.Errorf("script exhausted after %d turns", len(m.turns))}
	}
	m.mu.Unlock()

	return func(yield func(model.Fragment, error) bool) {
		if t.block {
			<-ctx.Done()
			yield(model.Fragment{}, ctx.Err())
			return
		}
		for _, f := range t.frags {
			if !yield(f, nil) {
				return
			}
		}
		if t.err != nil {
			yield(model.Fragment{}, t.err)
		}
	}
}

func (m *scriptedModel) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// intents classifies by exact text and fails for anything else.
func intents(m map[string]intent.Intent) intent.Classifier {
	return intent.ClassifierFunc(func(_ context.Context, text string) (intent.Intent, error) {
		if in, ok := m[text]; ok {
			return in, nil
		}
		return "", errors.New("unrecognized text")
	})
}

func testConfig(maxIterations int) reasoning.Config {
	cfg := reasoning.DefaultConfig()
	cfg.MaxIterations = maxIterations
	cfg.StreamingTimeout = 5 * time.Second
	cfg.DecisionTimeout = time.Second
	cfg.ToolTimeout = time.Second
	cfg.Retry = retry.Config{MaxRetries: 0}
	cfg.ToolRetry = retry.Config{MaxRetries: 0}
	return cfg
}

func fileTools(t *testing.T) *toolcall.Registry {
	t.Helper()
	r, err := toolcall.NewRegistry(
		toolcall.Tool{
			Def: toolcall.Definition{Name: "list_files", Description: "List files"},
			Handler: func(context.Context, toolcall.ToolCall) (any, error) {
				return []string{"main.go", "go.mod"}, nil
			},
		},
		toolcall.Tool{
			Def: toolcall.Definition{Name: "broken", Description: "Always fails"},
			Handler: func(context.Context, toolcall.ToolCall) (any, error) {
				return nil, errors.New("permission denied")
			},
		},
	)
	if err != nil {
		t.Fatalf("NewRegistry() = %v", err)
	}
	return r
}

func newEngine(t *testing.T, m model.Interface, tools toolcall.Executor, c intent.Classifier, cfg reasoning.Config, opts ...reasoning.Option) *reasoning.Engine {
	t.Helper()
	e, err := reasoning.New(m, tools, c, cfg, opts...)
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	return e
}

func kinds(st *session.State) []session.StepKind {
	out := make([]session.StepKind, 0, len(st.Steps))
	for _, s := range st.Steps {
		out = append(out, s.Kind)
	}
	return out
}

func userTurn(text string) session.History {
	return session.History{session.UserMessage(text)}
}
