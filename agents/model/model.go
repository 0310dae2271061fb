/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package model defines the streaming model capability consumed by the
// reasoning engine. Provider adapters live in the claudemodel, googlemodel
// and openaimodel subpackages.
package model

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"chainguard.dev/reasoner/agents/session"
	"chainguard.dev/reasoner/agents/toolcall"
)

// Interface streams a model response for a conversation.
type Interface interface {
	// GenerateStream yields fragments as they arrive. The sequence ends at
	// end-of-response; a non-nil error terminates it. Cancelling ctx aborts
	// the in-flight request.
	GenerateStream(ctx context.Context, req Request) iter.Seq2[Fragment, error]
}

// Request is one model round-trip.
type Request struct {
	Messages session.History
	Tools    []toolcall.Definition
}

// Usage reports token accounting for a response.
type Usage struct {
	Model        string
	InputTokens  int64
	OutputTokens int64
}

// Fragment is one piece of a streamed response. Exactly one field is set.
type Fragment struct {
	Text     string
	ToolCall *toolcall.ToolCall
	Usage    *Usage
}

// TextFragment returns a free-text fragment.
func TextFragment(s string) Fragment { return Fragment{Text: s} }

// ToolCallFragment returns a tool-call request fragment.
func ToolCallFragment(call toolcall.ToolCall) Fragment { return Fragment{ToolCall: &call} }

// UsageFragment returns a token usage fragment.
func UsageFragment(u Usage) Fragment { return Fragment{Usage: &u} }

// TransportError is a failure talking to the model backend.
type TransportError struct {
	Provider string
	// StatusCode is the HTTP status when known, otherwise 0.
	StatusCode int
	// Transient marks failures worth retrying (rate limits, overload).
	Transient bool
	Err       error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s transport error (status %d): %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s transport error: %v", e.Provider, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Retryable reports whether the failure is transient.
func (e *TransportError) Retryable() bool { return e.Transient }

// AsTransportError wraps err as a TransportError unless it already is one.
// Context errors are kept as the cause so errors.Is still matches them.
func AsTransportError(provider string, err error, transient func(error) bool) error {
	if err == nil {
		return nil
	}
	var te *TransportError
	if errors.As(err, &te) {
		return err
	}
	te = &TransportError{Provider: provider, Err: err}
	if transient != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		te.Transient = transient(err)
	}
	return te
}
