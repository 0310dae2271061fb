/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package reasoning

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/chainguard-dev/clog"
	"github.com/google/uuid"

	"chainguard.dev/reasoner/agents/agenttrace"
	"chainguard.dev/reasoner/agents/intent"
	"chainguard.dev/reasoner/agents/model"
	"chainguard.dev/reasoner/agents/orchestrator"
	"chainguard.dev/reasoner/agents/retry"
	"chainguard.dev/reasoner/agents/session"
	"chainguard.dev/reasoner/agents/toolcall"
)

// run is the driver of a single session.
type run struct {
	e      *Engine
	st     *session.State
	log    *clog.Logger
	trace  *agenttrace.Trace
	orch   *orchestrator.Orchestrator
	tools  []toolcall.Definition
	events *dispatcher[Event]
	stream *dispatcher[string]
}

// toolCallKey carries the trace record of an in-flight tool call from
// ToolStarted to ToolCompleted.
type toolCallKey struct{}

var _ orchestrator.Observer = (*run)(nil)

func (e *Engine) run(ctx context.Context, st *session.State, preAnalyze bool) (*session.State, error) {
	log := clog.FromContext(ctx).With("session", st.ID)
	ctx = clog.WithLogger(ctx, log)

	r := &run{
		e:     e,
		st:    st,
		log:   log,
		tools: e.tools.Definitions(),
	}
	if e.events != nil {
		r.events = newDispatcher(ctx, "events", e.cfg.EventBuffer, e.events.Publish)
	}
	if e.stream != nil {
		r.stream = newDispatcher(ctx, "stream", e.cfg.EventBuffer, func(ctx context.Context, text string) error {
			return e.stream.Fragment(ctx, st.ID, text)
		})
	}
	r.trace = agenttrace.StartTrace(ctx, st.ID)
	ctx = r.trace.WithSpan(ctx)
	r.orch = orchestrator.New(e.tools,
		orchestrator.WithTimeout(e.cfg.ToolTimeout),
		orchestrator.WithConcurrency(e.cfg.ToolConcurrency),
		orchestrator.WithRetry(e.cfg.ToolRetry, retry.IsRetryable),
		orchestrator.WithObserver(r),
	)

	log.Info("Starting reasoning session", "iteration", st.IterationCount, "max_iterations", st.MaxIterations)
	r.emit(Event{Kind: EventSessionStarted})

	if preAnalyze {
		r.preAnalyze(ctx)
	}
	err := r.loop(ctx)
	r.finish(ctx, err)
	return st, err
}

func (r *run) loop(ctx context.Context) error {
	st := r.st
	for {
		if err := ctx.Err(); err != nil {
			r.terminate(session.StatusFailed, err.Error())
			return err
		}
		if st.IterationCount >= st.MaxIterations {
			r.terminate(session.StatusMaxIterationsExceeded,
				fmt.Sprintf("reached the limit of %d iterations", st.MaxIterations))
			return nil
		}
		done, err := r.iterate(ctx)
		if done || err != nil {
			return err
		}
	}
}

// iterate performs one model round-trip and its consequences. It reports
// whether the session reached a terminal status.
func (r *run) iterate(ctx context.Context) (bool, error) {
	st := r.st
	start := time.Now()
	log := r.log.With("iteration", st.IterationCount)
	r.emit(Event{Kind: EventIterationStarted})

	resp, err := r.generate(ctx)
	if err != nil {
		terr := &ModelTransportError{Iteration: st.IterationCount, Err: err}
		reason := err.Error()
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			reason = session.ReasonTimeout
		}
		log.Error("Model call failed", "error", err)
		r.emit(Event{Kind: EventErrorOccurred, Error: terr.Error()})
		r.appendStep(session.Step{
			Kind:    session.StepModelResponse,
			Text:    resp.text,
			Outcome: session.Failed(reason),
			Status:  session.StatusFailed,
		})
		st.IterationCount++
		if err := st.Terminate(session.StatusFailed, terr.Error()); err != nil {
			log.Error("Failed to terminate session", "error", err)
		}
		r.iterationDone(ctx, start)
		return true, terr
	}

	st.History = append(st.History, session.AssistantMessage(resp.text, resp.calls...))

	if len(resp.calls) > 0 {
		r.runTools(ctx, resp)
		st.IterationCount++
		r.iterationDone(ctx, start)
		return false, nil
	}

	done, err := r.decide(ctx, resp.text)
	r.iterationDone(ctx, start)
	return done, err
}

func (r *run) runTools(ctx context.Context, resp response) {
	st := r.st
	if resp.text != "" {
		ids := make([]string, 0, len(resp.calls))
		for _, call := range resp.calls {
			ids = append(ids, call.ID)
		}
		r.appendStep(session.Step{
			Kind:    session.StepModelResponse,
			Text:    resp.text,
			CallIDs: ids,
			Outcome: session.Succeeded(),
		})
	}

	outs := r.orch.Execute(ctx, resp.calls)
	for i, out := range outs {
		st.History = append(st.History, session.ToolResultMessage(out.CallID, out.Name, out.Text))
		r.appendStep(session.Step{
			Kind:      session.StepToolInvocation,
			CallID:    out.CallID,
			Tool:      out.Name,
			Arguments: resp.calls[i].Args,
			Result:    out.Text,
			Outcome:   out.SessionOutcome(),
		})
	}
}

// decide classifies a text-only response, records it and applies the verdict.
// Cancellation of the session while classifying fails the session.
func (r *run) decide(ctx context.Context, text string) (bool, error) {
	st := r.st
	log := r.log.With("iteration", st.IterationCount)

	in, err := r.classify(ctx, text)
	if cerr := ctx.Err(); cerr != nil {
		log.Warn("Session cancelled during intent classification", "error", cerr)
		r.appendStep(session.Step{
			Kind:    session.StepModelResponse,
			Text:    text,
			Outcome: session.Succeeded(),
		})
		st.IterationCount++
		r.terminate(session.StatusFailed, cerr.Error())
		return true, cerr
	}
	if err != nil {
		log.Warn("Intent classification failed, treating as ambiguous", "error", err)
		r.emit(Event{Kind: EventErrorOccurred, Error: err.Error()})
	}

	// Iterations left once this one is counted.
	remaining := st.MaxIterations - (st.IterationCount + 1)
	v := intent.Decide(in, remaining)
	log.Info("Decision made", "intent", in, "action", v.Action, "remaining", remaining)
	r.trace.RecordDecision(st.IterationCount, string(in), v.Action.String())
	r.emit(Event{Kind: EventDecisionMade, Intent: string(in), Action: v.Action.String(), Status: v.Status})

	step := session.Step{
		Kind:    session.StepModelResponse,
		Text:    text,
		Outcome: session.Succeeded(),
		Intent:  string(in),
	}
	if v.Action == intent.Terminate {
		step.Status = v.Status
	}
	r.appendStep(step)

	if v.Action == intent.Nudge {
		r.appendStep(session.Step{Kind: session.StepNudge, Text: v.Text})
		st.History = append(st.History, session.UserMessage(v.Text))
	}
	st.IterationCount++

	if v.Action != intent.Terminate {
		return false, nil
	}
	if err := st.Terminate(v.Status, ""); err != nil {
		log.Error("Failed to terminate session", "error", err)
	}
	return true, nil
}

type classification struct {
	intent intent.Intent
	err    error
}

// classify runs the classifier under the decision timeout. Every failure is
// returned as an *IntentClassificationError together with intent.Ambiguous.
func (r *run) classify(ctx context.Context, text string) (intent.Intent, error) {
	ctx, cancel := context.WithTimeout(ctx, r.e.cfg.DecisionTimeout)
	defer cancel()

	ch := make(chan classification, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				ch <- classification{err: fmt.Errorf("classifier panicked: %v", rec)}
			}
		}()
		in, err := r.e.classifier.Classify(ctx, text)
		ch <- classification{intent: in, err: err}
	}()

	select {
	case res := <-ch:
		if res.err != nil {
			return intent.Ambiguous, &IntentClassificationError{Err: res.err}
		}
		if _, err := intent.Parse(string(res.intent)); err != nil {
			return intent.Ambiguous, &IntentClassificationError{Err: err}
		}
		return res.intent, nil
	case <-ctx.Done():
		return intent.Ambiguous, &IntentClassificationError{Err: ctx.Err()}
	}
}

// response is the assembled result of one model call.
type response struct {
	text  string
	calls []toolcall.ToolCall
}

type streamItem struct {
	frag model.Fragment
	err  error
}

// generate calls the model under the streaming timeout. Transient failures
// are retried only while no text has reached the stream sink.
func (r *run) generate(ctx context.Context) (response, error) {
	ctx, cancel := context.WithTimeout(ctx, r.e.cfg.StreamingTimeout)
	defer cancel()

	req := model.Request{Messages: r.st.History.Clone(), Tools: r.tools}
	streamed := false
	retryable := func(err error) bool {
		return !streamed && retry.IsRetryable(err)
	}
	return retry.Do(ctx, r.e.cfg.Retry, "model_stream", retryable, func() (response, error) {
		resp, err := r.consume(ctx, req, &streamed)
		return resp, model.AsTransportError("model", err, nil)
	})
}

// consume drains one model stream. The stream is read on its own goroutine so
// that a model ignoring ctx cannot outlive the streaming timeout.
func (r *run) consume(ctx context.Context, req model.Request, streamed *bool) (response, error) {
	items := make(chan streamItem)
	stop := make(chan struct{})
	defer close(stop)

	go func() {
		defer close(items)
		defer func() {
			if rec := recover(); rec != nil {
				select {
				case items <- streamItem{err: fmt.Errorf("model stream panicked: %v", rec)}:
				case <-stop:
				}
			}
		}()
		for frag, err := range r.e.model.GenerateStream(ctx, req) {
			select {
			case items <- streamItem{frag: frag, err: err}:
			case <-stop:
				return
			}
			if err != nil {
				return
			}
		}
	}()

	var (
		resp response
		text strings.Builder
	)
	for {
		select {
		case item, ok := <-items:
			resp.text = text.String()
			if !ok {
				return resp, ctx.Err()
			}
			if item.err != nil {
				return resp, item.err
			}
			r.handleFragment(ctx, item.frag, &text, &resp, streamed)
		case <-ctx.Done():
			resp.text = text.String()
			return resp, ctx.Err()
		}
	}
}

func (r *run) handleFragment(ctx context.Context, f model.Fragment, text *strings.Builder, resp *response, streamed *bool) {
	switch {
	case f.ToolCall != nil:
		call := *f.ToolCall
		if call.ID == "" || slices.ContainsFunc(resp.calls, func(c toolcall.ToolCall) bool { return c.ID == call.ID }) {
			call.ID = "call_" + uuid.NewString()
		}
		resp.calls = append(resp.calls, call)
	case f.Usage != nil:
		r.recordUsage(ctx, *f.Usage)
	case f.Text != "":
		*streamed = true
		text.WriteString(f.Text)
		r.stream.send(f.Text)
	}
}

func (r *run) recordUsage(ctx context.Context, u model.Usage) {
	r.trace.RecordTokenUsage(u.Model, u.InputTokens, u.OutputTokens)
	r.e.genai.RecordTokens(ctx, u.Model, u.InputTokens, u.OutputTokens)
	r.emit(Event{Kind: EventTokenUsageReceived, Usage: &u})
}

// preAnalyze runs the configured pre-analysis tool on the newest user
// message. Its result is appended as a tool result answering a synthetic
// assistant call so that provider message ordering rules still hold.
func (r *run) preAnalyze(ctx context.Context) {
	st := r.st
	idx := -1
	for i := len(st.History) - 1; i >= 0; i-- {
		if st.History[i].Role == session.RoleUser {
			idx = i
			break
		}
	}
	if idx < 0 {
		r.log.Warn("Skipping pre-analysis, history has no user message")
		return
	}

	call := toolcall.ToolCall{
		ID:   "pre-analysis-" + st.ID,
		Name: r.e.cfg.PreAnalysisTool,
		Args: map[string]any{
			"input":   st.History[idx].Content,
			"context": renderContext(st.History[:idx]),
		},
	}
	out := r.orch.Execute(ctx, []toolcall.ToolCall{call})[0]
	if !out.Success {
		r.log.Warn("Pre-analysis failed", "tool", call.Name, "reason", out.Reason)
	}
	st.History = append(st.History,
		session.AssistantMessage("", call),
		session.ToolResultMessage(call.ID, call.Name, out.Text),
	)
}

func renderContext(h session.History) string {
	var sb strings.Builder
	for _, m := range h {
		if m.Content == "" {
			continue
		}
		fmt.Fprintf(&sb, "%s: %s\n", m.Role, m.Content)
	}
	return sb.String()
}

// terminate records a terminal decision made between iterations.
func (r *run) terminate(status session.Status, reason string) {
	r.log.Info("Terminating session", "status", status, "reason", reason)
	r.appendStep(session.Step{Kind: session.StepTerminalDecision, Text: reason, Status: status})
	if err := r.st.Terminate(status, reason); err != nil {
		r.log.Error("Failed to terminate session", "error", err)
	}
}

func (r *run) appendStep(step session.Step) {
	step.Iteration = r.st.IterationCount
	if err := r.st.Append(step); err != nil {
		r.log.Error("Dropping step", "kind", step.Kind, "error", err)
		return
	}
	recorded := r.st.Steps[len(r.st.Steps)-1]
	r.emit(Event{Kind: EventStepCompleted, Step: &recorded})
}

func (r *run) iterationDone(ctx context.Context, start time.Time) {
	dur := time.Since(start)
	r.metric(func(m MetricsSink) {
		m.IterationCompleted(ctx, r.st.ID, r.st.IterationCount, dur)
	})
	if !r.st.Status.Terminal() {
		r.checkpoint(ctx)
	}
}

func (r *run) finish(ctx context.Context, err error) {
	st := r.st
	log := r.log.With("status", st.Status, "iterations", st.IterationCount, "steps", len(st.Steps))
	if err != nil {
		log.Error("Reasoning session failed", "error", err)
	} else {
		log.Info("Reasoning session finished")
	}

	r.emit(Event{Kind: EventSessionCompleted, Status: st.Status, Error: st.Error})
	r.metric(func(m MetricsSink) {
		m.SessionCompleted(ctx, st.Status, st.IterationCount)
	})
	r.checkpoint(ctx)
	r.trace.Complete(string(st.Status), err)

	r.stream.close(ctx, r.e.cfg.SinkFlushTimeout)
	r.events.close(ctx, r.e.cfg.SinkFlushTimeout)
}

// checkpoint saves the state. Saving is not tied to ctx cancellation so a
// cancelled session still records how it ended.
func (r *run) checkpoint(ctx context.Context) {
	if r.e.store == nil {
		return
	}
	err := func() (err error) {
		defer func() {
			if rec := recover(); rec != nil {
				err = fmt.Errorf("persistence panicked: %v", rec)
			}
		}()
		return r.e.store.Save(context.WithoutCancel(ctx), r.st)
	}()
	if err != nil {
		r.log.Warn("Failed to persist session", "error", err)
		r.emit(Event{Kind: EventErrorOccurred, Error: err.Error()})
	}
}

func (r *run) metric(fn func(MetricsSink)) {
	if r.e.metrics == nil {
		return
	}
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Warn("Metrics sink panicked", "panic", rec)
		}
	}()
	fn(r.e.metrics)
}

func (r *run) emit(ev Event) {
	ev.SessionID = r.st.ID
	ev.Iteration = r.st.IterationCount
	ev.Timestamp = time.Now().UTC()
	r.events.send(ev)
}

// ToolStarted implements orchestrator.Observer.
func (r *run) ToolStarted(ctx context.Context, call toolcall.ToolCall) context.Context {
	r.emit(Event{Kind: EventToolExecutionStarted, CallID: call.ID, Tool: call.Name})
	tc := r.trace.StartToolCall(call.ID, call.Name, call.Args)
	return context.WithValue(tc.WithSpan(ctx), toolCallKey{}, tc)
}

// ToolCompleted implements orchestrator.Observer.
func (r *run) ToolCompleted(ctx context.Context, call toolcall.ToolCall, out orchestrator.Outcome) {
	if tc, ok := ctx.Value(toolCallKey{}).(*agenttrace.ToolCall); ok {
		tc.Complete(out.Result, out.Err)
	}

	ev := Event{
		Kind:     EventToolExecutionCompleted,
		CallID:   out.CallID,
		Tool:     out.Name,
		Success:  out.Success,
		Duration: out.Duration,
	}
	if !out.Success {
		ev.Error = out.Reason
	}
	r.emit(ev)

	r.e.genai.RecordToolCall(ctx, out.Name, out.Success, out.Duration)
	r.metric(func(m MetricsSink) {
		m.ToolCallCompleted(ctx, out.Name, out.Success, out.Duration)
	})
}
