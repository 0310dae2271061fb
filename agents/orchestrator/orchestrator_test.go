/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package orchestrator_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"chainguard.dev/reasoner/agents/orchestrator"
	"chainguard.dev/reasoner/agents/retry"
	"chainguard.dev/reasoner/agents/session"
	"chainguard.dev/reasoner/agents/toolcall"
)

func registry(t *testing.T, tools ...toolcall.Tool) *toolcall.Registry {
	t.Helper()
	r, err := toolcall.NewRegistry(tools...)
	if err != nil {
		t.Fatalf("NewRegistry() = %v", err)
	}
	return r
}

func tool(name string, h toolcall.Handler) toolcall.Tool {
	return toolcall.Tool{Def: toolcall.Definition{Name: name}, Handler: h}
}

func echo(_ context.Context, call toolcall.ToolCall) (any, error) {
	return map[string]any{"tool": call.Name, "args": call.Args}, nil
}

func TestPartialFailureIsIsolated(t *testing.T) {
	t.Parallel()

	var ran atomic.Int32
	r := registry(t,
		tool("a", func(ctx context.Context, call toolcall.ToolCall) (any, error) {
			ran.Add(1)
			return echo(ctx, call)
		}),
		tool("b", func(context.Context, toolcall.ToolCall) (any, error) {
			ran.Add(1)
			return nil, errors.New("disk full")
		}),
		tool("c", func(ctx context.Context, call toolcall.ToolCall) (any, error) {
			ran.Add(1)
			return echo(ctx, call)
		}),
	)

	calls := []toolcall.ToolCall{
		{ID: "1", Name: "a"},
		{ID: "2", Name: "b"},
		{ID: "3", Name: "c"},
	}
	outs := orchestrator.New(r).Execute(context.Background(), calls)

	if got := ran.Load(); got != 3 {
		t.Errorf("tools run: got = %d, wanted = 3", got)
	}

	type summary struct {
		ID      string
		Success bool
		Reason  string
		Text    string
	}
	var got []summary
	for _, o := range outs {
		got = append(got, summary{o.CallID, o.Success, o.Reason, o.Text})
	}
	want := []summary{
		{"1", true, "", `{"args":null,"tool":"a"}`},
		{"2", false, "disk full", `{"error":"disk full"}`},
		{"3", true, "", `{"args":null,"tool":"c"}`},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("outcomes (-want +got):\n%s", diff)
	}

	var te *orchestrator.ToolExecutionError
	if !errors.As(outs[1].Err, &te) {
		t.Fatalf("Err: got = %T, wanted *ToolExecutionError", outs[1].Err)
	}
	if te.Tool != "b" || te.CallID != "2" {
		t.Errorf("ToolExecutionError = %+v", te)
	}
	if got := outs[1].SessionOutcome(); got.Success || got.Reason != "disk full" {
		t.Errorf("SessionOutcome() = %+v", got)
	}
}

func TestTimeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	defer close(release)

	r := registry(t,
		// Ignores its context entirely.
		tool("stuck", func(context.Context, toolcall.ToolCall) (any, error) {
			<-release
			return "late", nil
		}),
		tool("quick", echo),
	)

	start := time.Now()
	outs := orchestrator.New(r, orchestrator.WithTimeout(50*time.Millisecond)).
		Execute(context.Background(), []toolcall.ToolCall{{ID: "1", Name: "stuck"}, {ID: "2", Name: "quick"}})

	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("Execute took %v, wanted it bounded by the timeout", elapsed)
	}
	if outs[0].Success || outs[0].Reason != session.ReasonTimeout {
		t.Errorf("stuck outcome: got = %+v, wanted timeout failure", outs[0])
	}
	if !errors.Is(outs[0].Err, context.DeadlineExceeded) {
		t.Errorf("Err: got = %v, wanted DeadlineExceeded", outs[0].Err)
	}
	if !outs[1].Success {
		t.Errorf("quick outcome: got = %+v, wanted success", outs[1])
	}
}

func TestUnknownTool(t *testing.T) {
	t.Parallel()

	outs := orchestrator.New(registry(t)).Execute(context.Background(),
		[]toolcall.ToolCall{{ID: "x", Name: "does_not_exist"}})

	if len(outs) != 1 {
		t.Fatalf("outcomes: got = %d, wanted = 1", len(outs))
	}
	if outs[0].Success || outs[0].Reason != orchestrator.ReasonUnknownTool {
		t.Errorf("outcome: got = %+v, wanted unknown tool failure", outs[0])
	}
	if !errors.Is(outs[0].Err, toolcall.ErrUnknownTool) {
		t.Errorf("Err: got = %v, wanted ErrUnknownTool", outs[0].Err)
	}
}

func TestPanickingTool(t *testing.T) {
	t.Parallel()

	r := registry(t, tool("boom", func(context.Context, toolcall.ToolCall) (any, error) {
		panic("kaboom")
	}))
	outs := orchestrator.New(r).Execute(context.Background(), []toolcall.ToolCall{{ID: "1", Name: "boom"}})
	if outs[0].Success {
		t.Fatalf("outcome: got success, wanted failure")
	}
	if outs[0].Reason != "tool panicked: kaboom" {
		t.Errorf("Reason: got = %q, wanted = %q", outs[0].Reason, "tool panicked: kaboom")
	}
}

type cancelAfter struct {
	cancel context.CancelFunc
}

func (c cancelAfter) ToolStarted(ctx context.Context, _ toolcall.ToolCall) context.Context {
	return ctx
}

func (c cancelAfter) ToolCompleted(context.Context, toolcall.ToolCall, orchestrator.Outcome) {
	c.cancel()
}

func TestCancelledContextFailsRemaining(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var ran atomic.Int32
	counting := func(context.Context, toolcall.ToolCall) (any, error) {
		ran.Add(1)
		return "ok", nil
	}
	r := registry(t, tool("first", counting), tool("next", counting))

	outs := orchestrator.New(r, orchestrator.WithObserver(cancelAfter{cancel})).
		Execute(ctx, []toolcall.ToolCall{{ID: "1", Name: "first"}, {ID: "2", Name: "next"}})
	if !outs[0].Success {
		t.Errorf("first outcome: got = %+v, wanted success", outs[0])
	}
	if outs[1].Success || !errors.Is(outs[1].Err, context.Canceled) {
		t.Errorf("second outcome: got = %+v, wanted cancellation", outs[1])
	}
	if got := ran.Load(); got != 1 {
		t.Errorf("tools run: got = %d, wanted = 1", got)
	}
}

func TestConcurrentPreservesOrder(t *testing.T) {
	t.Parallel()

	var inflight, peak atomic.Int32
	slow := func(d time.Duration) toolcall.Handler {
		return func(_ context.Context, call toolcall.ToolCall) (any, error) {
			n := inflight.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(d)
			inflight.Add(-1)
			return call.Name, nil
		}
	}
	r := registry(t,
		tool("slow", slow(60*time.Millisecond)),
		tool("medium", slow(30*time.Millisecond)),
		tool("fast", slow(time.Millisecond)),
	)

	outs := orchestrator.New(r, orchestrator.WithConcurrency(2)).Execute(context.Background(), []toolcall.ToolCall{
		{ID: "1", Name: "slow"},
		{ID: "2", Name: "medium"},
		{ID: "3", Name: "fast"},
	})

	var ids []string
	for _, o := range outs {
		ids = append(ids, o.CallID)
	}
	if diff := cmp.Diff([]string{"1", "2", "3"}, ids); diff != "" {
		t.Errorf("order (-want +got):\n%s", diff)
	}
	if got := peak.Load(); got > 2 {
		t.Errorf("peak concurrency: got = %d, wanted <= 2", got)
	}
}

type recordingObserver struct {
	mu        sync.Mutex
	started   []string
	completed []string
}

func (r *recordingObserver) ToolStarted(ctx context.Context, call toolcall.ToolCall) context.Context {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = append(r.started, call.ID)
	return ctx
}

func (r *recordingObserver) ToolCompleted(_ context.Context, call toolcall.ToolCall, out orchestrator.Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completed = append(r.completed, call.ID+":"+out.Name)
}

func TestObserver(t *testing.T) {
	t.Parallel()

	obs := &recordingObserver{}
	r := registry(t, tool("a", echo))
	orchestrator.New(r, orchestrator.WithObserver(obs)).Execute(context.Background(),
		[]toolcall.ToolCall{{ID: "1", Name: "a"}, {ID: "2", Name: "missing"}})

	if diff := cmp.Diff([]string{"1", "2"}, obs.started); diff != "" {
		t.Errorf("started (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"1:a", "2:missing"}, obs.completed); diff != "" {
		t.Errorf("completed (-want +got):\n%s", diff)
	}
}

func fastRetry(n int) retry.Config {
	return retry.Config{MaxRetries: n, BaseBackoff: time.Millisecond, MaxBackoff: time.Millisecond}
}

// countingExecutor counts Execute calls per tool name.
type countingExecutor struct {
	toolcall.Executor

	mu    sync.Mutex
	calls map[string]int
}

func (c *countingExecutor) Execute(ctx context.Context, name string, args map[string]any) (any, error) {
	c.mu.Lock()
	c.calls[name]++
	c.mu.Unlock()
	return c.Executor.Execute(ctx, name, args)
}

func (c *countingExecutor) count(name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[name]
}

func TestRetryTransientFailures(t *testing.T) {
	t.Parallel()

	var attempts atomic.Int32
	r := registry(t,
		tool("flaky", func(ctx context.Context, call toolcall.ToolCall) (any, error) {
			if attempts.Add(1) <= 2 {
				return nil, toolcall.Transient(errors.New("connection reset"))
			}
			return echo(ctx, call)
		}),
		tool("broken", func(context.Context, toolcall.ToolCall) (any, error) {
			return nil, errors.New("permission denied")
		}),
	)
	exec := &countingExecutor{Executor: r, calls: map[string]int{}}

	outs := orchestrator.New(exec, orchestrator.WithRetry(fastRetry(3), nil)).
		Execute(context.Background(), []toolcall.ToolCall{{ID: "1", Name: "flaky"}, {ID: "2", Name: "broken"}})

	if !outs[0].Success {
		t.Errorf("flaky outcome: got = %+v, wanted success", outs[0])
	}
	if got := exec.count("flaky"); got != 3 {
		t.Errorf("flaky attempts: got = %d, wanted = 3", got)
	}
	if outs[1].Success || outs[1].Reason != "permission denied" {
		t.Errorf("broken outcome: got = %+v, wanted permission denied", outs[1])
	}
	if got := exec.count("broken"); got != 1 {
		t.Errorf("broken attempts: got = %d, wanted = 1", got)
	}
}

func TestRetryExhausted(t *testing.T) {
	t.Parallel()

	r := registry(t, tool("down", func(context.Context, toolcall.ToolCall) (any, error) {
		return nil, toolcall.Transient(errors.New("service unavailable"))
	}))
	exec := &countingExecutor{Executor: r, calls: map[string]int{}}

	outs := orchestrator.New(exec, orchestrator.WithRetry(fastRetry(2), nil)).
		Execute(context.Background(), []toolcall.ToolCall{{ID: "1", Name: "down"}})

	if outs[0].Success {
		t.Errorf("outcome: got = %+v, wanted failure", outs[0])
	}
	if got := exec.count("down"); got != 3 {
		t.Errorf("attempts: got = %d, wanted = 3", got)
	}
}

func TestRetrySkipsTimeoutsAndUnknownTools(t *testing.T) {
	t.Parallel()

	r := registry(t, tool("slow", func(ctx context.Context, _ toolcall.ToolCall) (any, error) {
		<-ctx.Done()
		return nil, toolcall.Transient(ctx.Err())
	}))
	exec := &countingExecutor{Executor: r, calls: map[string]int{}}
	always := func(error) bool { return true }

	outs := orchestrator.New(exec,
		orchestrator.WithTimeout(20*time.Millisecond),
		orchestrator.WithRetry(fastRetry(3), always),
	).Execute(context.Background(), []toolcall.ToolCall{{ID: "1", Name: "slow"}, {ID: "2", Name: "missing"}})

	if outs[0].Success || outs[0].Reason != session.ReasonTimeout {
		t.Errorf("slow outcome: got = %+v, wanted timeout failure", outs[0])
	}
	if got := exec.count("slow"); got != 1 {
		t.Errorf("slow attempts: got = %d, wanted = 1", got)
	}
	if outs[1].Success || outs[1].Reason != orchestrator.ReasonUnknownTool {
		t.Errorf("missing outcome: got = %+v, wanted unknown tool failure", outs[1])
	}
	if got := exec.count("missing"); got != 1 {
		t.Errorf("missing attempts: got = %d, wanted = 1", got)
	}
}
