/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/chainguard-dev/clog"
	"golang.org/x/sync/errgroup"

	"chainguard.dev/reasoner/agents/retry"
	"chainguard.dev/reasoner/agents/session"
	"chainguard.dev/reasoner/agents/toolcall"
	"chainguard.dev/reasoner/agents/toolcall/params"
)

// DefaultTimeout bounds a single tool call when no timeout is configured.
const DefaultTimeout = 30 * time.Second

// ReasonUnknownTool is the failure reason for calls naming an unregistered tool.
const ReasonUnknownTool = "unknown tool"

// Outcome is the result of one tool call.
type Outcome struct {
	CallID  string
	Name    string
	Success bool

	// Result is the raw value returned by the tool, nil on failure.
	Result any

	// Text is the JSON rendering handed back to the model.
	Text string

	// Err is a *ToolExecutionError when Success is false.
	Err error

	// Reason summarizes a failure: "timeout", "unknown tool" or the error text.
	Reason string

	Duration time.Duration
}

// SessionOutcome converts o into the outcome recorded on a step.
func (o Outcome) SessionOutcome() *session.Outcome {
	if o.Success {
		return session.Succeeded()
	}
	return session.Failed(o.Reason)
}

// Observer is notified around every tool call. ToolStarted may return a
// derived context (for example carrying a span) used for the call.
type Observer interface {
	ToolStarted(ctx context.Context, call toolcall.ToolCall) context.Context
	ToolCompleted(ctx context.Context, call toolcall.ToolCall, out Outcome)
}

// Orchestrator runs tool calls against an Executor.
type Orchestrator struct {
	tools    toolcall.Executor
	timeout  time.Duration
	limit    int
	observer Observer

	retry     retry.Config
	retryable func(error) bool
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithConcurrency runs up to limit calls at once. A limit below 2 keeps the
// sequential policy.
func WithConcurrency(limit int) Option {
	return func(o *Orchestrator) {
		o.limit = limit
	}
}

// WithObserver registers an observer for tool call lifecycle notifications.
func WithObserver(obs Observer) Option {
	return func(o *Orchestrator) {
		o.observer = obs
	}
}

// WithRetry retries calls failing with an error isRetryable accepts, using
// cfg for the attempt budget and backoff. A nil isRetryable selects
// retry.IsRetryable. Timeouts, cancellation and unknown tools are never
// retried.
func WithRetry(cfg retry.Config, isRetryable func(error) bool) Option {
	return func(o *Orchestrator) {
		if isRetryable == nil {
			isRetryable = retry.IsRetryable
		}
		o.retry = cfg
		o.retryable = isRetryable
	}
}

// New returns an Orchestrator executing calls with tools.
func New(tools toolcall.Executor, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		tools:   tools,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Execute runs every call and returns one outcome per call, in input order.
func (o *Orchestrator) Execute(ctx context.Context, calls []toolcall.ToolCall) []Outcome {
	outcomes := make([]Outcome, len(calls))
	if len(calls) == 0 {
		return outcomes
	}

	if o.limit < 2 || len(calls) == 1 {
		for i, call := range calls {
			outcomes[i] = o.run(ctx, call)
		}
		return outcomes
	}

	var g errgroup.Group
	g.SetLimit(o.limit)
	for i, call := range calls {
		g.Go(func() error {
			outcomes[i] = o.run(ctx, call)
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

type callResult struct {
	value any
	err   error
}

func (o *Orchestrator) run(ctx context.Context, call toolcall.ToolCall) Outcome {
	log := clog.FromContext(ctx).With("tool", call.Name, "id", call.ID)

	if o.observer != nil {
		ctx = o.observer.ToolStarted(ctx, call)
	}

	start := time.Now()
	out := Outcome{CallID: call.ID, Name: call.Name}

	if err := ctx.Err(); err != nil {
		out = o.fail(out, err, err.Error())
	} else {
		log.Info("Executing tool call")
		value, err := o.attempt(ctx, call)
		switch {
		case err == nil:
			text, merr := json.Marshal(value)
			if merr != nil {
				out = o.fail(out, fmt.Errorf("encoding result: %w", merr), merr.Error())
				break
			}
			out.Success = true
			out.Result = value
			out.Text = string(text)
		case errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
			out = o.fail(out, err, session.ReasonTimeout)
		case errors.Is(err, toolcall.ErrUnknownTool):
			out = o.fail(out, err, ReasonUnknownTool)
		default:
			out = o.fail(out, err, err.Error())
		}
	}
	out.Duration = time.Since(start)

	if !out.Success {
		log.With("reason", out.Reason).Warn("Tool call failed")
	}
	if o.observer != nil {
		o.observer.ToolCompleted(ctx, call, out)
	}
	return out
}

// attempt invokes the tool, retrying transient failures when retries are
// configured.
func (o *Orchestrator) attempt(ctx context.Context, call toolcall.ToolCall) (any, error) {
	if o.retryable == nil || o.retry.MaxRetries <= 0 {
		return o.invoke(ctx, call)
	}
	return retry.Do(ctx, o.retry, call.Name, o.transient, func() (any, error) {
		return o.invoke(ctx, call)
	})
}

func (o *Orchestrator) transient(err error) bool {
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return false
	case errors.Is(err, toolcall.ErrUnknownTool):
		return false
	default:
		return o.retryable(err)
	}
}

// invoke runs the tool under the per-call timeout. The tool runs on its own
// goroutine so that a tool ignoring its context still yields a timeout.
func (o *Orchestrator) invoke(ctx context.Context, call toolcall.ToolCall) (any, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	ch := make(chan callResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- callResult{err: fmt.Errorf("tool panicked: %v", r)}
			}
		}()
		value, err := o.tools.Execute(ctx, call.Name, call.Args)
		ch <- callResult{value: value, err: err}
	}()

	select {
	case res := <-ch:
		return res.value, res.err
	case <-ctx.Done():
		select {
		case res := <-ch:
			return res.value, res.err
		default:
			return nil, ctx.Err()
		}
	}
}

func (o *Orchestrator) fail(out Outcome, err error, reason string) Outcome {
	out.Success = false
	out.Err = &ToolExecutionError{CallID: out.CallID, Tool: out.Name, Err: err}
	out.Reason = reason
	text, merr := json.Marshal(params.Error("%v", err))
	if merr != nil {
		text = []byte(`{"error":"tool failed"}`)
	}
	out.Text = string(text)
	return out
}
