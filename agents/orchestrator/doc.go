/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

/*
Package orchestrator executes the tool calls requested by a model response.

Every call is attempted and produces exactly one Outcome, in the order the
calls were requested. A failing call never prevents its siblings from running,
and its error is rendered as JSON text so it can be fed back to the model:

	orch := orchestrator.New(registry,
		orchestrator.WithTimeout(30*time.Second),
		orchestrator.WithConcurrency(4),
	)
	for _, out := range orch.Execute(ctx, calls) {
		history = append(history, session.ToolResultMessage(out.CallID, out.Name, out.Text))
	}

Calls run sequentially unless WithConcurrency is given. A call that exceeds
the per-call timeout fails with reason "timeout" even if the tool ignores its
context.
*/
package orchestrator
