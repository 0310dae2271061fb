/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package agenttrace

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
)

const instrumentationName = "chainguard.dev/reasoner/agenttrace"

func tracer() oteltrace.Tracer {
	return otel.Tracer(instrumentationName, oteltrace.WithInstrumentationVersion("1.0.0"))
}

// Decision records the verdict reached for a text-only model response.
type Decision struct {
	Iteration int    `json:"iteration"`
	Intent    string `json:"intent"`
	Action    string `json:"action"`
}

// ToolCall represents a single tool invocation within a trace.
type ToolCall struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Params    map[string]any `json:"params"`
	Result    any            `json:"result"`
	Error     error          `json:"error,omitempty"`
	StartTime time.Time      `json:"start_time"`
	EndTime   time.Time      `json:"end_time"`

	trace *Trace
	mu    sync.Mutex
	span  oteltrace.Span
}

// Trace represents one reasoning session.
type Trace struct {
	ID           string         `json:"id"`
	Session      SessionContext `json:"session,omitempty"`
	ToolCalls    []*ToolCall    `json:"tool_calls"`
	Decisions    []Decision     `json:"decisions,omitempty"`
	Status       string         `json:"status"`
	Error        error          `json:"error,omitempty"`
	InputTokens  int64          `json:"input_tokens"`
	OutputTokens int64          `json:"output_tokens"`
	StartTime    time.Time      `json:"start_time"`
	EndTime      time.Time      `json:"end_time"`

	tracer Tracer
	mu     sync.Mutex
	ctx    context.Context
	span   oteltrace.Span
}

func newTrace(ctx context.Context, t Tracer, sessionID string) *Trace {
	sc := GetSessionContext(ctx)

	opts := []oteltrace.SpanStartOption{
		oteltrace.WithAttributes(attribute.String("session.id", sessionID)),
	}
	if sc.Caller != "" {
		opts = append(opts, oteltrace.WithAttributes(attribute.String("caller", sc.Caller)))
	}
	if sc.Turn != 0 {
		opts = append(opts, oteltrace.WithAttributes(attribute.Int("turn", sc.Turn)))
	}
	ctx, span := tracer().Start(ctx, "reasoning.session", opts...)

	return &Trace{
		ID:        sessionID,
		Session:   sc,
		ToolCalls: []*ToolCall{},
		StartTime: time.Now(),
		tracer:    t,
		ctx:       ctx,
		span:      span,
	}
}

// WithSpan returns ctx carrying the session span, so spans started from it
// become children of the session.
func (t *Trace) WithSpan(ctx context.Context) context.Context {
	return oteltrace.ContextWithSpan(ctx, t.span)
}

// StartToolCall starts a span for a tool invocation.
func (t *Trace) StartToolCall(id, name string, params map[string]any) *ToolCall {
	_, span := tracer().Start(t.ctx, "reasoning.tool_call", oteltrace.WithAttributes(
		attribute.String("tool.name", name),
		attribute.String("tool.id", id),
	))
	return &ToolCall{
		ID:        id,
		Name:      name,
		Params:    params,
		StartTime: time.Now(),
		trace:     t,
		span:      span,
	}
}

// RecordTokenUsage accumulates token usage and mirrors it on the session span.
func (t *Trace) RecordTokenUsage(model string, inputTokens, outputTokens int64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.InputTokens += inputTokens
	t.OutputTokens += outputTokens
	t.span.SetAttributes(
		attribute.String("model", model),
		attribute.Int64("tokens.input", t.InputTokens),
		attribute.Int64("tokens.output", t.OutputTokens),
		attribute.Int64("tokens.total", t.InputTokens+t.OutputTokens),
	)
}

// RecordDecision records the verdict for a text-only response as a span event.
func (t *Trace) RecordDecision(iteration int, intent, action string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.Decisions = append(t.Decisions, Decision{Iteration: iteration, Intent: intent, Action: action})
	t.span.AddEvent("decision", oteltrace.WithAttributes(
		attribute.Int("iteration", iteration),
		attribute.String("intent", intent),
		attribute.String("action", action),
	))
}

// Complete ends the tool call span and adds the call to its trace.
func (tc *ToolCall) Complete(result any, err error) {
	tc.mu.Lock()
	tc.Result = result
	tc.Error = err
	tc.EndTime = time.Now()
	span := tc.span
	tc.mu.Unlock()

	endSpan(span, err)

	tc.trace.mu.Lock()
	defer tc.trace.mu.Unlock()
	tc.trace.ToolCalls = append(tc.trace.ToolCalls, tc)
}

// WithSpan returns ctx carrying the tool call span.
func (tc *ToolCall) WithSpan(ctx context.Context) context.Context {
	return oteltrace.ContextWithSpan(ctx, tc.span)
}

// Duration returns the duration of the tool call.
func (tc *ToolCall) Duration() time.Duration {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	return elapsed(tc.StartTime, tc.EndTime)
}

// Complete ends the session span and hands the trace to its tracer.
func (t *Trace) Complete(status string, err error) {
	t.mu.Lock()
	t.Status = status
	t.Error = err
	t.EndTime = time.Now()
	t.span.SetAttributes(attribute.String("session.status", status))
	span := t.span
	t.mu.Unlock()

	endSpan(span, err)
	t.tracer.RecordTrace(t)
}

// Duration returns the total duration of the trace.
func (t *Trace) Duration() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return elapsed(t.StartTime, t.EndTime)
}

// String returns a human-readable summary of the trace.
func (t *Trace) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	var sb strings.Builder
	fmt.Fprintf(&sb, "=== Session %s ===\n", t.ID)
	fmt.Fprintf(&sb, "Status: %s\n", t.Status)
	fmt.Fprintf(&sb, "Duration: %v\n", elapsed(t.StartTime, t.EndTime))
	fmt.Fprintf(&sb, "Tokens: %d in / %d out\n", t.InputTokens, t.OutputTokens)

	if len(t.ToolCalls) == 0 {
		sb.WriteString("\nNo tool calls\n")
	} else {
		fmt.Fprintf(&sb, "\nTool Calls (%d):\n", len(t.ToolCalls))
		for i, tc := range t.ToolCalls {
			fmt.Fprintf(&sb, "  [%d] %s (ID: %s) %v\n", i+1, tc.Name, tc.ID, elapsed(tc.StartTime, tc.EndTime))
			if tc.Error != nil {
				fmt.Fprintf(&sb, "      Error: %v\n", tc.Error)
			}
		}
	}

	for _, d := range t.Decisions {
		fmt.Fprintf(&sb, "Decision @%d: %s -> %s\n", d.Iteration, d.Intent, d.Action)
	}
	if t.Error != nil {
		fmt.Fprintf(&sb, "Error: %v\n", t.Error)
	}
	return sb.String()
}

func endSpan(span oteltrace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

func elapsed(start, end time.Time) time.Duration {
	if end.IsZero() {
		return time.Since(start)
	}
	return end.Sub(start)
}
