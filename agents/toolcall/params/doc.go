/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package params extracts typed tool arguments from decoded JSON maps and
// renders tool failures in the {"error": "..."} shape models are shown.
//
// Arguments arrive as map[string]any produced by encoding/json, so numbers
// are float64 and arrays are []any. Extract and ExtractOptional convert those
// to the requested Go type where the conversion is lossless in practice.
package params
