/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package reasoning

import (
	"chainguard.dev/reasoner/agents/metrics"
)

// Option configures optional collaborators of an Engine.
type Option func(*Engine)

// WithEventSink delivers lifecycle events to sink.
func WithEventSink(sink EventSink) Option {
	return func(e *Engine) {
		e.events = sink
	}
}

// WithStreamSink forwards model text fragments to sink as they arrive.
func WithStreamSink(sink StreamSink) Option {
	return func(e *Engine) {
		e.stream = sink
	}
}

// WithPersistence checkpoints sessions to store and enables Resume.
func WithPersistence(store Persistence) Option {
	return func(e *Engine) {
		e.store = store
	}
}

// WithMetrics reports iteration, tool and session measurements to sink.
func WithMetrics(sink MetricsSink) Option {
	return func(e *Engine) {
		e.metrics = sink
	}
}

// WithGenAIMetrics replaces the OpenTelemetry token and tool instruments.
func WithGenAIMetrics(m *metrics.GenAI) Option {
	return func(e *Engine) {
		if m != nil {
			e.genai = m
		}
	}
}

// WithIDGenerator overrides how session IDs are minted.
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) {
		if fn != nil {
			e.newID = fn
		}
	}
}
