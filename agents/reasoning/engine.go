/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package reasoning

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"chainguard.dev/reasoner/agents/agenttrace"
	"chainguard.dev/reasoner/agents/intent"
	"chainguard.dev/reasoner/agents/metrics"
	"chainguard.dev/reasoner/agents/model"
	"chainguard.dev/reasoner/agents/session"
	"chainguard.dev/reasoner/agents/toolcall"
)

const meterName = "chainguard.dev/reasoner"

// Engine runs reasoning sessions. It holds no per-session state, so one
// Engine may serve any number of concurrent Process calls.
type Engine struct {
	model      model.Interface
	tools      toolcall.Executor
	classifier intent.Classifier
	cfg        Config

	events  EventSink
	stream  StreamSink
	store   Persistence
	metrics MetricsSink
	genai   *metrics.GenAI
	newID   func() string
}

// New returns an Engine. It fails with a *ConfigurationError when a required
// capability is missing or cfg is invalid.
func New(m model.Interface, tools toolcall.Executor, classifier intent.Classifier, cfg Config, opts ...Option) (*Engine, error) {
	switch {
	case m == nil:
		return nil, &ConfigurationError{Field: "model", Reason: "is required"}
	case tools == nil:
		return nil, &ConfigurationError{Field: "tools", Reason: "is required"}
	case classifier == nil:
		return nil, &ConfigurationError{Field: "classifier", Reason: "is required"}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		model:      m,
		tools:      tools,
		classifier: classifier,
		cfg:        cfg,
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.genai == nil {
		e.genai = metrics.NewGenAI(context.Background(), meterName)
		e.genai.SetAttributeEnricher(func(ctx context.Context, base []attribute.KeyValue) []attribute.KeyValue {
			return agenttrace.GetSessionContext(ctx).EnrichAttributes(base)
		})
	}
	return e, nil
}

// Config returns the engine configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Process runs a new session seeded with history and returns its final
// state. The returned error is non-nil only when the session failed; the
// state is returned in that case too. history is copied, never modified.
func (e *Engine) Process(ctx context.Context, history session.History) (*session.State, error) {
	if len(history) == 0 {
		return nil, ErrEmptyHistory
	}
	st := session.New(e.newID(), history, e.cfg.MaxIterations)
	return e.run(ctx, st, e.cfg.PreAnalysisTool != "")
}

// Resume continues a persisted session with whatever iteration budget it has
// left. Sessions that already ended are returned unchanged.
func (e *Engine) Resume(ctx context.Context, id string) (*session.State, error) {
	if e.store == nil {
		return nil, &ConfigurationError{Field: "persistence", Reason: "is required to resume sessions"}
	}
	st, err := e.store.Load(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading session %s: %w", id, err)
	}
	if st.Status.Terminal() {
		return st, nil
	}
	return e.run(ctx, st, false)
}
