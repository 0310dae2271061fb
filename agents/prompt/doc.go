/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package prompt renders instruction templates for model calls.
//
// A Template holds {{name}} placeholders. Values are attached with one of the
// Bind methods, each of which returns a new Template, and Render substitutes
// them in a single pass so that bound values are never re-scanned for
// placeholders. Untrusted data should be bound with BindJSON or BindYAML so
// that it reaches the model encoded rather than as free text.
//
//	tmpl := prompt.MustParse(`Classify this text: {{text}}`)
//	out, err := tmpl.MustBindJSON("text", userText).Render()
package prompt
