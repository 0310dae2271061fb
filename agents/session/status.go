/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package session

import "errors"

// Status is the lifecycle status of a session.
type Status string

const (
	StatusInProgress            Status = "in_progress"
	StatusCompleted             Status = "completed"
	StatusAmbiguous             Status = "ambiguous"
	StatusMaxIterationsExceeded Status = "max_iterations_exceeded"
	StatusFailed                Status = "failed"
)

// Terminal reports whether no further steps may follow this status.
// The zero value counts as in progress.
func (s Status) Terminal() bool {
	return s != "" && s != StatusInProgress
}

// StepKind identifies the variant of a Step.
type StepKind string

const (
	StepModelResponse    StepKind = "model_response"
	StepToolInvocation   StepKind = "tool_invocation"
	StepNudge            StepKind = "nudge"
	StepTerminalDecision StepKind = "terminal_decision"
)

// ReasonTimeout is the failure reason recorded when a suspension point
// exceeds its deadline.
const ReasonTimeout = "timeout"

// Outcome records whether a model response or tool invocation succeeded.
type Outcome struct {
	Success bool   `json:"success"`
	Reason  string `json:"reason,omitempty"`
}

// Succeeded returns a successful outcome.
func Succeeded() *Outcome {
	return &Outcome{Success: true}
}

// Failed returns a failed outcome carrying reason.
func Failed(reason string) *Outcome {
	return &Outcome{Reason: reason}
}

var (
	// ErrNotFound is returned by stores when no session has the requested ID.
	ErrNotFound = errors.New("session not found")

	// ErrTerminal is returned when mutating a session that already reached a
	// terminal status.
	ErrTerminal = errors.New("session already terminated")
)
