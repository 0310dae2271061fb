/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package session

import (
	"fmt"
	"maps"
	"slices"
	"time"
)

// Step is one atomic unit of progress recorded by the engine.
type Step struct {
	Kind      StepKind  `json:"kind"`
	Iteration int       `json:"iteration"`
	Timestamp time.Time `json:"timestamp"`

	// Text is the model text, the nudge text, or the termination reason.
	Text string `json:"text,omitempty"`

	// CallIDs lists the tool calls a ModelResponse step requested.
	CallIDs []string `json:"call_ids,omitempty"`

	// CallID, Tool, Arguments and Result describe a ToolInvocation step.
	CallID    string         `json:"call_id,omitempty"`
	Tool      string         `json:"tool,omitempty"`
	Arguments map[string]any `json:"arguments,omitempty"`
	Result    string         `json:"result,omitempty"`

	// Outcome is only set for ModelResponse and ToolInvocation steps.
	Outcome *Outcome `json:"outcome,omitempty"`

	// Intent is the classification of a ModelResponse without tool calls.
	Intent string `json:"intent,omitempty"`

	// Status is the terminal status decided at this step, if any.
	Status Status `json:"status,omitempty"`
}

// State is the mutable record of one reasoning session.
type State struct {
	ID             string `json:"id"`
	Status         Status `json:"status"`
	IterationCount int    `json:"iteration_count"`
	MaxIterations  int    `json:"max_iterations"`
	Steps          []Step `json:"steps"`

	// GoalContext is the seed conversation the session started from.
	GoalContext History `json:"goal_context"`

	// History is the conversation as the model currently sees it.
	History History `json:"history"`

	// Error describes why a Failed session failed.
	Error string `json:"error,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// New returns an in-progress state seeded with a copy of seed.
func New(id string, seed History, maxIterations int) *State {
	now := time.Now().UTC()
	return &State{
		ID:            id,
		Status:        StatusInProgress,
		MaxIterations: maxIterations,
		GoalContext:   seed.Clone(),
		History:       seed.Clone(),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Append records step. It fails with ErrTerminal once the session ended.
func (s *State) Append(step Step) error {
	if s.Status.Terminal() {
		return fmt.Errorf("appending %s step: %w", step.Kind, ErrTerminal)
	}
	if step.Timestamp.IsZero() {
		step.Timestamp = time.Now().UTC()
	}
	s.Steps = append(s.Steps, step)
	s.UpdatedAt = step.Timestamp
	return nil
}

// Terminate moves the session to a terminal status. reason is kept in Error
// when the status is StatusFailed.
func (s *State) Terminate(status Status, reason string) error {
	if s.Status.Terminal() {
		return fmt.Errorf("terminating with %s: %w", status, ErrTerminal)
	}
	if !status.Terminal() {
		return fmt.Errorf("status %q is not terminal", status)
	}
	s.Status = status
	if status == StatusFailed {
		s.Error = reason
	}
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// Remaining returns how many model round-trips the session may still make.
func (s *State) Remaining() int {
	return max(s.MaxIterations-s.IterationCount, 0)
}

// StepsOfKind returns the recorded steps of kind k in chronological order.
func (s *State) StepsOfKind(k StepKind) []Step {
	var out []Step
	for _, st := range s.Steps {
		if st.Kind == k {
			out = append(out, st)
		}
	}
	return out
}

// Clone returns a deep copy of s.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	out := *s
	out.GoalContext = s.GoalContext.Clone()
	out.History = s.History.Clone()
	out.Steps = make([]Step, len(s.Steps))
	for i, st := range s.Steps {
		st.CallIDs = slices.Clone(st.CallIDs)
		st.Arguments = maps.Clone(st.Arguments)
		if st.Outcome != nil {
			o := *st.Outcome
			st.Outcome = &o
		}
		out.Steps[i] = st
	}
	return &out
}
