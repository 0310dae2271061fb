/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

/*
Package reasoning drives a bounded loop between a streaming model and a set
of tools.

Each call to Engine.Process is one session. The engine sends the history to
the model, forwards streamed text to an optional StreamSink, executes any
requested tool calls through the orchestrator and feeds the results back. When
the model answers with text only, the text is classified and the intent
decides whether the session ends or the model is nudged to act on its plan.
Sessions always end with a terminal status, at the latest after
Config.MaxIterations model round-trips.

	eng, err := reasoning.New(claude, registry, intent.NewKeywordClassifier(), cfg,
		reasoning.WithStreamSink(reasoning.StreamSinkFunc(printFragment)),
		reasoning.WithPersistence(store),
	)
	if err != nil {
		return err
	}
	state, err := eng.Process(ctx, session.History{session.UserMessage(prompt)})

Events, streamed text, metrics and persistence are side channels: their
failures are logged and never end a session.
*/
package reasoning
