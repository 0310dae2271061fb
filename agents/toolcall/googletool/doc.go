/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package googletool converts provider-independent tool definitions and calls
// to and from the Google GenAI SDK types.
package googletool
