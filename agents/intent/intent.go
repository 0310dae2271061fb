/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package intent classifies free-form model text and decides whether a
// reasoning session should stop or be nudged into acting.
package intent

import (
	"context"
	"fmt"

	"chainguard.dev/reasoner/agents/session"
)

// Intent is a coarse classification of model text.
type Intent string

const (
	ProvidesFinalAnswer               Intent = "provides_final_answer"
	AsksClarifyingQuestion            Intent = "asks_clarifying_question"
	GeneralConversation               Intent = "general_conversation"
	Ambiguous                         Intent = "ambiguous"
	ProvidesPlanWithoutExplicitAction Intent = "provides_plan_without_explicit_action"
)

// All lists every intent.
var All = []Intent{
	ProvidesFinalAnswer,
	AsksClarifyingQuestion,
	GeneralConversation,
	Ambiguous,
	ProvidesPlanWithoutExplicitAction,
}

// Parse maps the string form of an intent back to its value.
func Parse(s string) (Intent, error) {
	for _, in := range All {
		if string(in) == s {
			return in, nil
		}
	}
	return "", fmt.Errorf("unknown intent %q", s)
}

// Classifier is the intent classification capability.
type Classifier interface {
	Classify(ctx context.Context, text string) (Intent, error)
}

// ClassifierFunc adapts a function to Classifier.
type ClassifierFunc func(ctx context.Context, text string) (Intent, error)

// Classify implements Classifier.
func (f ClassifierFunc) Classify(ctx context.Context, text string) (Intent, error) {
	return f(ctx, text)
}

// NudgeText is appended as a user message when the model describes a plan
// instead of acting on it.
const NudgeText = "Your plan is noted. Please proceed with the next action by making a tool call, " +
	"or explicitly state that the task is fully complete if no further actions are needed."

// Action is what the engine should do with a Verdict.
type Action int

const (
	// Terminate ends the session with Verdict.Status.
	Terminate Action = iota
	// Nudge appends Verdict.Text as a user message and continues.
	Nudge
)

func (a Action) String() string {
	switch a {
	case Terminate:
		return "terminate"
	case Nudge:
		return "nudge"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}

// Verdict is the outcome of Decide.
type Verdict struct {
	Action Action
	Status session.Status
	Text   string
}

// Decide maps a classified intent and the number of iterations still
// available after the current one to a verdict. Unknown intents are treated
// as Ambiguous.
func Decide(in Intent, iterationsRemaining int) Verdict {
	switch in {
	case ProvidesFinalAnswer, AsksClarifyingQuestion, GeneralConversation:
		return Verdict{Action: Terminate, Status: session.StatusCompleted}
	case ProvidesPlanWithoutExplicitAction:
		if iterationsRemaining > 0 {
			return Verdict{Action: Nudge, Status: session.StatusInProgress, Text: NudgeText}
		}
		return Verdict{Action: Terminate, Status: session.StatusMaxIterationsExceeded}
	default:
		return Verdict{Action: Terminate, Status: session.StatusAmbiguous}
	}
}
