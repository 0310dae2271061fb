/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package toolcall

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrUnknownTool is returned when executing a tool that was never registered.
var ErrUnknownTool = errors.New("unknown tool")

// Transient marks err as a transient tool failure that the orchestrator may
// retry. It returns nil when err is nil.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}

type transientError struct{ err error }

func (e *transientError) Error() string   { return e.err.Error() }
func (e *transientError) Unwrap() error   { return e.err }
func (e *transientError) Retryable() bool { return true }

// Executor is the tool-execution capability consumed by the orchestrator.
type Executor interface {
	// Execute runs the named tool with decoded JSON arguments.
	Execute(ctx context.Context, name string, args map[string]any) (any, error)

	// Definitions lists the tools offered to the model.
	Definitions() []Definition
}

// Registry is an Executor backed by an ordered set of Tools.
type Registry struct {
	mu    sync.RWMutex
	order []string
	tools map[string]Tool
}

var _ Executor = (*Registry)(nil)

// NewRegistry returns a Registry holding tools.
func NewRegistry(tools ...Tool) (*Registry, error) {
	r := &Registry{tools: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		if err := r.Register(t); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds t. Names must be unique and handlers non-nil.
func (r *Registry) Register(t Tool) error {
	if t.Def.Name == "" {
		return errors.New("tool name is required")
	}
	if t.Handler == nil {
		return fmt.Errorf("tool %q has no handler", t.Def.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[t.Def.Name]; exists {
		return fmt.Errorf("tool %q already registered", t.Def.Name)
	}
	r.tools[t.Def.Name] = t
	r.order = append(r.order, t.Def.Name)
	return nil
}

// Execute implements Executor.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) (any, error) {
	r.mu.RLock()
	t, ok := r.tools[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTool, name)
	}
	return t.Handler(ctx, ToolCall{Name: name, Args: args})
}

// Definitions implements Executor, in registration order.
func (r *Registry) Definitions() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Definition, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name].Def)
	}
	return out
}
