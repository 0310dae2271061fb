/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

/*
Package session holds the passive data model of a single reasoning session.

# Overview

A session is one pass of the reasoning engine from a seed conversation to a
terminal status. It is described by three types:

  - History: the ordered, role-tagged messages exchanged with the model
  - Step: one atomic unit of recorded progress (model response, tool
    invocation, nudge, or terminal decision)
  - State: the mutable record owning both, plus the iteration counter and
    the session status

History is what the model sees. Steps are what the engine records for audit
and decisions, and include nudges and terminations that are never sent to
the model verbatim.

# Invariants

Once State.Status leaves StatusInProgress the state is frozen: Append returns
ErrTerminal and Terminate refuses to change the status again.

	st := session.New(id, seed, 10)
	if err := st.Append(session.Step{Kind: session.StepNudge, Text: "..."}); err != nil {
		// the session already terminated
	}
	st.Terminate(session.StatusCompleted, "final answer")
*/
package session
