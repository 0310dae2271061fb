/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package result

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNoJSON is returned by Extract when the response holds no JSON payload.
var ErrNoJSON = errors.New("no JSON found in response")

// ExtractJSON returns the JSON payload of a model response. In order of
// preference it takes the body of the first ```json fence, the body of any
// other fence, or the first balanced object or array in the text.
func ExtractJSON(responseText string) string {
	if body, ok := fenced(responseText, "```json"); ok {
		return body
	}
	if body, ok := fenced(responseText, "```"); ok {
		return body
	}

	text := strings.TrimSpace(responseText)
	if json.Valid([]byte(text)) {
		return text
	}
	if obj, ok := balanced(text); ok {
		return obj
	}
	return text
}

// fenced returns the trimmed content between an opening marker line and the
// next closing ``` line.
func fenced(text, marker string) (string, bool) {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	start := -1
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if start < 0 {
			if trimmed == marker {
				start = i + 1
			}
			continue
		}
		if trimmed == "```" {
			return strings.TrimSpace(strings.Join(lines[start:i], "\n")), true
		}
	}
	return "", false
}

// balanced scans for the first '{' or '[' and returns the shortest balanced
// span starting there, honoring JSON string escapes.
func balanced(text string) (string, bool) {
	start := strings.IndexAny(text, "{[")
	if start < 0 {
		return "", false
	}

	depth := 0
	inString, escaped := false, false
	for i := start; i < len(text); i++ {
		c := text[i]
		switch {
		case escaped:
			escaped = false
		case inString && c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{' || c == '[':
			depth++
		case c == '}' || c == ']':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}

// Extract extracts the JSON payload of responseText and unmarshals it into T.
func Extract[T any](responseText string) (T, error) {
	var out T
	payload := ExtractJSON(responseText)
	if payload == "" {
		return out, ErrNoJSON
	}
	if err := json.Unmarshal([]byte(payload), &out); err != nil {
		return out, fmt.Errorf("decoding response JSON: %w", err)
	}
	return out, nil
}
