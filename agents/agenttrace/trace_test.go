/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package agenttrace

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"go.opentelemetry.io/otel/attribute"
)

type recordingTracer struct {
	mu     sync.Mutex
	traces []*Trace
}

func (r *recordingTracer) NewTrace(ctx context.Context, sessionID string) *Trace {
	return newTrace(ctx, r, sessionID)
}

func (r *recordingTracer) RecordTrace(trace *Trace) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.traces = append(r.traces, trace)
}

func TestTraceLifecycle(t *testing.T) {
	rec := &recordingTracer{}
	ctx := WithTracer(context.Background(), rec)
	ctx = WithSessionContext(ctx, SessionContext{Caller: "cli", Turn: 2})

	trace := StartTrace(ctx, "session-1")
	if trace.Session.Caller != "cli" {
		t.Errorf("Session.Caller: got = %q, wanted = %q", trace.Session.Caller, "cli")
	}

	tc := trace.StartToolCall("t1", "list_files", map[string]any{"path": "."})
	tc.Complete([]string{"a.go"}, nil)

	failed := trace.StartToolCall("t2", "read_file", map[string]any{"path": "missing"})
	failed.Complete(nil, errors.New("no such file"))

	trace.RecordTokenUsage("test-model", 10, 4)
	trace.RecordTokenUsage("test-model", 5, 1)
	trace.RecordDecision(1, "provides_final_answer", "terminate")
	trace.Complete("completed", nil)

	if len(rec.traces) != 1 {
		t.Fatalf("recorded traces: got = %d, wanted = 1", len(rec.traces))
	}
	if got := len(trace.ToolCalls); got != 2 {
		t.Errorf("ToolCalls: got = %d, wanted = 2", got)
	}
	if trace.InputTokens != 15 || trace.OutputTokens != 5 {
		t.Errorf("tokens: got = %d/%d, wanted = 15/5", trace.InputTokens, trace.OutputTokens)
	}
	if trace.Status != "completed" {
		t.Errorf("Status: got = %q, wanted = %q", trace.Status, "completed")
	}
	if trace.EndTime.IsZero() {
		t.Error("EndTime was not set")
	}

	s := trace.String()
	for _, want := range []string{"session-1", "list_files", "no such file", "provides_final_answer -> terminate"} {
		if !strings.Contains(s, want) {
			t.Errorf("String() = %q, missing %q", s, want)
		}
	}
}

func TestByCodeRunsAllCallbacks(t *testing.T) {
	var mu sync.Mutex
	seen := map[string]int{}
	cb := func(name string) TraceCallback {
		return func(trace *Trace) {
			mu.Lock()
			defer mu.Unlock()
			seen[name+":"+trace.ID]++
		}
	}

	tracer := ByCode(cb("a"), nil, cb("b"))
	trace := tracer.NewTrace(context.Background(), "s")
	trace.Complete("failed", errors.New("boom"))

	if seen["a:s"] != 1 || seen["b:s"] != 1 {
		t.Errorf("callbacks: got = %v, wanted each once", seen)
	}
	if trace.Error == nil || trace.Error.Error() != "boom" {
		t.Errorf("Error: got = %v, wanted = boom", trace.Error)
	}
}

func TestTracerFromContextDefault(t *testing.T) {
	tracer := TracerFromContext(context.Background())
	if tracer == nil {
		t.Fatal("TracerFromContext() = nil")
	}
	// The default tracer only logs; completing must not panic.
	tracer.NewTrace(context.Background(), "s").Complete("completed", nil)
}

func TestEnrichAttributes(t *testing.T) {
	base := []attribute.KeyValue{attribute.String("tool", "x")}

	got := SessionContext{Caller: "api", Turn: 4}.EnrichAttributes(base)
	if len(got) != 3 {
		t.Fatalf("len: got = %d, wanted = 3", len(got))
	}
	if got[1].Value.AsString() != "api" {
		t.Errorf("caller: got = %q, wanted = %q", got[1].Value.AsString(), "api")
	}
	if got[2].Value.AsInt64() != 4 {
		t.Errorf("turn: got = %d, wanted = 4", got[2].Value.AsInt64())
	}
	if len(base) != 1 {
		t.Errorf("base was modified: %v", base)
	}

	if got := (SessionContext{}).EnrichAttributes(nil); len(got) != 1 {
		t.Errorf("empty context: got = %d attrs, wanted = 1", len(got))
	}
}

func TestToolCallDuration(t *testing.T) {
	trace := ByCode().NewTrace(context.Background(), "s")
	tc := trace.StartToolCall("t", "x", nil)
	if tc.Duration() < 0 {
		t.Error("Duration() negative before completion")
	}
	tc.Complete(nil, nil)
	if tc.EndTime.Before(tc.StartTime) {
		t.Error("EndTime before StartTime")
	}
}
