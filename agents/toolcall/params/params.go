/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package params

import (
	"encoding/json"
	"fmt"
	"maps"
)

// Extract extracts a required parameter from args with type safety.
// Returns an error if the parameter is missing or cannot be converted to T.
func Extract[T any](args map[string]any, name string) (T, error) {
	value, exists := args[name]
	if !exists {
		var zero T
		return zero, fmt.Errorf("%s parameter is required", name)
	}
	return convert[T](name, value)
}

// ExtractOptional extracts an optional parameter with a default value.
// Returns the default if the parameter doesn't exist or is null.
func ExtractOptional[T any](args map[string]any, name string, defaultValue T) (T, error) {
	value, exists := args[name]
	if !exists || value == nil {
		return defaultValue, nil
	}
	return convert[T](name, value)
}

func convert[T any](name string, value any) (T, error) {
	if v, ok := value.(T); ok {
		return v, nil
	}
	if v, ok := convertNumeric[T](value); ok {
		return v, nil
	}
	if v, ok := convertStrings[T](value); ok {
		return v, nil
	}
	var zero T
	return zero, fmt.Errorf("%s parameter must be of type %T, got %T", name, zero, value)
}

// convertNumeric handles JSON numbers (float64 or json.Number) targeting
// integer and float32 types.
func convertNumeric[T any](value any) (T, bool) {
	var zero T
	var f float64
	switch n := value.(type) {
	case float64:
		f = n
	case json.Number:
		v, err := n.Float64()
		if err != nil {
			return zero, false
		}
		f = v
	default:
		return zero, false
	}

	switch any(zero).(type) {
	case int:
		return any(int(f)).(T), true
	case int32:
		return any(int32(f)).(T), true
	case int64:
		return any(int64(f)).(T), true
	case float32:
		return any(float32(f)).(T), true
	case float64:
		return any(f).(T), true
	}
	return zero, false
}

// convertStrings handles JSON arrays targeting []string.
func convertStrings[T any](value any) (T, bool) {
	var zero T
	if _, ok := any(zero).([]string); !ok {
		return zero, false
	}
	items, ok := value.([]any)
	if !ok {
		return zero, false
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return zero, false
		}
		out = append(out, s)
	}
	return any(out).(T), true
}

// Error creates an error response map.
func Error(format string, args ...any) map[string]any {
	return map[string]any{
		"error": fmt.Sprintf(format, args...),
	}
}

// ErrorWithContext creates an error response with additional context fields.
func ErrorWithContext(err error, context map[string]any) map[string]any {
	response := map[string]any{
		"error": err.Error(),
	}
	maps.Copy(response, context)
	return response
}
