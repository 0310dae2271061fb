/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package result_test

import (
	"errors"
	"testing"

	"chainguard.dev/reasoner/agents/result"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{{
		name:  "plain object",
		input: `  {"intent": "ambiguous"}  `,
		want:  `{"intent": "ambiguous"}`,
	}, {
		name:  "json fence",
		input: "Here you go:\n```json\n{\"intent\": \"general_conversation\"}\n```\nThanks",
		want:  `{"intent": "general_conversation"}`,
	}, {
		name:  "generic fence",
		input: "```\n[1, 2]\n```",
		want:  `[1, 2]`,
	}, {
		name:  "crlf fence",
		input: "```json\r\n{\"a\": 1}\r\n```",
		want:  `{"a": 1}`,
	}, {
		name:  "object inside prose",
		input: `The classification is {"intent": "provides_final_answer", "note": "braces } in strings"} as requested.`,
		want:  `{"intent": "provides_final_answer", "note": "braces } in strings"}`,
	}, {
		name:  "escaped quote in string",
		input: `result: {"text": "say \"hi\" {"} done`,
		want:  `{"text": "say \"hi\" {"}`,
	}, {
		name:  "empty fence",
		input: "```json\n```",
		want:  "",
	}, {
		name:  "no json",
		input: "nothing structured here",
		want:  "nothing structured here",
	}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := result.ExtractJSON(tt.input); got != tt.want {
				t.Errorf("ExtractJSON(): got = %q, wanted = %q", got, tt.want)
			}
		})
	}
}

func TestExtract(t *testing.T) {
	type verdict struct {
		Intent string `json:"intent"`
	}

	got, err := result.Extract[verdict]("Sure.\n```json\n{\"intent\": \"ambiguous\"}\n```")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if got.Intent != "ambiguous" {
		t.Errorf("Intent: got = %q, wanted = ambiguous", got.Intent)
	}

	if _, err := result.Extract[verdict]("```json\n```"); !errors.Is(err, result.ErrNoJSON) {
		t.Errorf("empty fence: got = %v, wanted = %v", err, result.ErrNoJSON)
	}
	if _, err := result.Extract[verdict]("no braces at all"); err == nil {
		t.Error("prose without JSON: got nil error")
	}
	if _, err := result.Extract[[]int](`[1, 2, 3]`); err != nil {
		t.Errorf("array: unexpected error %v", err)
	}
}
