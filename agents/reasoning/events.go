/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package reasoning

import (
	"context"
	"time"

	"chainguard.dev/reasoner/agents/model"
	"chainguard.dev/reasoner/agents/session"
)

// EventKind identifies a lifecycle event.
type EventKind string

const (
	EventSessionStarted         EventKind = "session_started"
	EventIterationStarted       EventKind = "iteration_started"
	EventStepCompleted          EventKind = "step_completed"
	EventToolExecutionStarted   EventKind = "tool_execution_started"
	EventToolExecutionCompleted EventKind = "tool_execution_completed"
	EventDecisionMade           EventKind = "decision_made"
	EventTokenUsageReceived     EventKind = "token_usage_received"
	EventErrorOccurred          EventKind = "error_occurred"
	EventSessionCompleted       EventKind = "session_completed"
)

// Event is a structured lifecycle notification. Fields beyond the common
// header are set according to Kind.
type Event struct {
	Kind      EventKind `json:"kind"`
	SessionID string    `json:"session_id"`
	Iteration int       `json:"iteration"`
	Timestamp time.Time `json:"timestamp"`

	// Step is the recorded step for EventStepCompleted.
	Step *session.Step `json:"step,omitempty"`

	// CallID, Tool, Success and Duration describe tool execution events.
	CallID   string        `json:"call_id,omitempty"`
	Tool     string        `json:"tool,omitempty"`
	Success  bool          `json:"success,omitempty"`
	Duration time.Duration `json:"duration,omitempty"`

	// Intent and Action describe EventDecisionMade.
	Intent string `json:"intent,omitempty"`
	Action string `json:"action,omitempty"`

	// Status is the terminal status for EventSessionCompleted.
	Status session.Status `json:"status,omitempty"`

	Usage *model.Usage `json:"usage,omitempty"`
	Error string       `json:"error,omitempty"`
}

// EventSink receives lifecycle events. Delivery is asynchronous and best
// effort; returned errors are logged.
type EventSink interface {
	Publish(ctx context.Context, ev Event) error
}

// EventSinkFunc adapts a function to EventSink.
type EventSinkFunc func(ctx context.Context, ev Event) error

// Publish implements EventSink.
func (f EventSinkFunc) Publish(ctx context.Context, ev Event) error {
	return f(ctx, ev)
}

// StreamSink receives model text fragments as they arrive.
type StreamSink interface {
	Fragment(ctx context.Context, sessionID, text string) error
}

// StreamSinkFunc adapts a function to StreamSink.
type StreamSinkFunc func(ctx context.Context, sessionID, text string) error

// Fragment implements StreamSink.
func (f StreamSinkFunc) Fragment(ctx context.Context, sessionID, text string) error {
	return f(ctx, sessionID, text)
}

// Persistence stores session state. Load returns session.ErrNotFound for
// unknown IDs. The engine saves at the end of each iteration and at
// termination.
type Persistence interface {
	Save(ctx context.Context, st *session.State) error
	Load(ctx context.Context, id string) (*session.State, error)
}

// MetricsSink receives per-iteration, per-tool and per-session measurements.
type MetricsSink interface {
	IterationCompleted(ctx context.Context, sessionID string, iteration int, dur time.Duration)
	ToolCallCompleted(ctx context.Context, tool string, success bool, dur time.Duration)
	SessionCompleted(ctx context.Context, status session.Status, iterations int)
}
