/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package intent

import (
	"context"
	"errors"
	"strings"
)

// ErrEmptyText is returned when asked to classify blank text.
var ErrEmptyText = errors.New("no text to classify")

// KeywordClassifier classifies text by matching indicator phrases. Matching
// is case-insensitive.
type KeywordClassifier struct {
	Completion []string
	Plan       []string
	Question   []string
	Greeting   []string
}

// NewKeywordClassifier returns a classifier with the default phrase lists.
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{
		Completion: []string{
			"task is fully complete",
			"task is complete",
			"task completed successfully",
			"everything you requested",
			"concludes everything",
			"all requested actions",
			"completely finished",
			"entirely done",
			"nothing more to do",
			"that's all",
		},
		Plan: []string{
			"here's my plan",
			"here is my plan",
			"my plan:",
			"approach will be",
			"steps i'll take",
			"here's what i'll do",
			"i will first",
			"first, i'll",
			"let me start by",
		},
		Question: []string{
			"could you clarify",
			"could you please clarify",
			"can you clarify",
			"need clarification",
			"what exactly",
			"do you mean",
			"would you like me to",
			"what would you like",
		},
		Greeting: []string{
			"hello",
			"hi there",
			"how are you",
			"sounds good",
			"you're welcome",
		},
	}
}

// Classify implements Classifier.
func (k *KeywordClassifier) Classify(_ context.Context, text string) (Intent, error) {
	t := strings.ToLower(strings.TrimSpace(text))
	if t == "" {
		return "", ErrEmptyText
	}

	completion := containsAny(t, k.Completion)
	plan := containsAny(t, k.Plan) ||
		(strings.Contains(t, "first,") && strings.Contains(t, "then,") && strings.Contains(t, "finally,"))

	switch {
	case completion && plan:
		return Ambiguous, nil
	case plan:
		return ProvidesPlanWithoutExplicitAction, nil
	case completion:
		return ProvidesFinalAnswer, nil
	case containsAny(t, k.Question) || strings.HasSuffix(t, "?"):
		return AsksClarifyingQuestion, nil
	case containsAny(t, k.Greeting):
		return GeneralConversation, nil
	case strings.Contains(t, "completed") || strings.Contains(t, "finished") || strings.Contains(t, "done"):
		return ProvidesFinalAnswer, nil
	default:
		return GeneralConversation, nil
	}
}

func containsAny(text string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}
