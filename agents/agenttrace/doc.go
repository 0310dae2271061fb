/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

/*
Package agenttrace provides tracing for reasoning sessions.

# Overview

This package contains the types that record what a session did:

  - SessionContext: caller-level metadata (caller name, conversation turn) used to enrich traces and metrics
  - Trace: one session from seed conversation to terminal status
  - ToolCall: an individual tool invocation within a trace
  - Tracer: receives completed traces

Every Trace and ToolCall is backed by an OpenTelemetry span, so sessions show
up in whatever trace exporter the process installs. Completed traces are also
handed to the Tracer found in the context; the default one logs a summary
through clog.

# Usage

	ctx = agenttrace.WithSessionContext(ctx, agenttrace.SessionContext{
		Caller: "cli",
		Turn:   3,
	})

	tracer := agenttrace.ByCode(func(trace *agenttrace.Trace) {
		log.Printf("session %s finished as %s", trace.ID, trace.Status)
	})
	ctx = agenttrace.WithTracer(ctx, tracer)

	trace := agenttrace.StartTrace(ctx, sessionID)
	tc := trace.StartToolCall("t1", "list_files", map[string]any{"path": "."})
	tc.Complete(entries, nil)
	trace.Complete("completed", nil)
*/
package agenttrace
