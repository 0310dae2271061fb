/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package result pulls structured JSON out of free-form model responses.
//
// Models asked for JSON often wrap it in a fenced ```json block or surround
// it with prose. ExtractJSON finds the payload; Extract also decodes it:
//
//	type verdict struct {
//		Intent string `json:"intent"`
//	}
//	v, err := result.Extract[verdict](responseText)
package result
