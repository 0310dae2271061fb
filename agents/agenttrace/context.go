/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package agenttrace

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
)

// SessionContext carries caller metadata for a reasoning session.
type SessionContext struct {
	Caller string `json:"caller,omitempty"` // e.g. "cli", "api"
	Turn   int    `json:"turn,omitempty"`   // conversation turn, 1-based
}

// EnrichAttributes appends the bounded session labels to base. Session IDs
// are deliberately absent: they would make metric cardinality unbounded.
func (s SessionContext) EnrichAttributes(base []attribute.KeyValue) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, len(base), len(base)+2)
	copy(attrs, base)
	if s.Caller != "" {
		attrs = append(attrs, attribute.String("caller", s.Caller))
	}
	return append(attrs, attribute.Int("turn", s.Turn))
}

type sessionContextKey struct{}

// WithSessionContext adds session metadata to ctx.
func WithSessionContext(ctx context.Context, sc SessionContext) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sc)
}

// GetSessionContext returns the session metadata stored in ctx, if any.
func GetSessionContext(ctx context.Context) SessionContext {
	sc, _ := ctx.Value(sessionContextKey{}).(SessionContext)
	return sc
}
