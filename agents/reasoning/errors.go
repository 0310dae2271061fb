/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package reasoning

import (
	"errors"
	"fmt"
)

// ErrEmptyHistory is returned by Process when there is nothing to respond to.
var ErrEmptyHistory = errors.New("history is empty")

// ConfigurationError reports an engine that cannot be constructed as configured.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s %s", e.Field, e.Reason)
}

// ModelTransportError reports a failed model call. It ends the session.
type ModelTransportError struct {
	Iteration int
	Err       error
}

func (e *ModelTransportError) Error() string {
	return fmt.Sprintf("model call failed in iteration %d: %v", e.Iteration, e.Err)
}

func (e *ModelTransportError) Unwrap() error {
	return e.Err
}

// IntentClassificationError reports a classifier failure or timeout. The
// engine treats it as an ambiguous intent.
type IntentClassificationError struct {
	Err error
}

func (e *IntentClassificationError) Error() string {
	return fmt.Sprintf("classifying intent: %v", e.Err)
}

func (e *IntentClassificationError) Unwrap() error {
	return e.Err
}
