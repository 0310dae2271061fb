/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package metrics provides OpenTelemetry GenAI instruments for token and tool
// usage, and a Prometheus sink for reasoning loop metrics.
package metrics
