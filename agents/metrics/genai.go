/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package metrics

import (
	"context"
	"time"

	"github.com/chainguard-dev/clog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// GenAI records token usage and tool calls through the OpenTelemetry metric
// API. Instruments that fail to initialize degrade to no-ops.
type GenAI struct {
	promptTokens     metric.Int64Counter
	completionTokens metric.Int64Counter
	toolCalls        metric.Int64Counter
	toolDuration     metric.Float64Histogram
	attrEnricher     AttributeEnricher
}

// NewGenAI creates GenAI metrics on the global meter provider.
func NewGenAI(ctx context.Context, meterName string) *GenAI {
	return NewGenAIWithProvider(ctx, otel.GetMeterProvider(), meterName)
}

// NewGenAIWithProvider creates GenAI metrics on the given meter provider.
func NewGenAIWithProvider(ctx context.Context, mp metric.MeterProvider, meterName string) *GenAI {
	log := clog.FromContext(ctx).With("meter", meterName)
	meter := mp.Meter(meterName, metric.WithInstrumentationVersion("1.0.0"))

	promptTokens, err := meter.Int64Counter("genai.token.prompt",
		metric.WithDescription("The number of prompt tokens used"),
		metric.WithUnit("{tokens}"))
	if err != nil {
		log.Warn("Failed to create prompt tokens counter, metrics will be disabled", "error", err)
		promptTokens = noop.Int64Counter{}
	}

	completionTokens, err := meter.Int64Counter("genai.token.completion",
		metric.WithDescription("The number of completion tokens used"),
		metric.WithUnit("{tokens}"))
	if err != nil {
		log.Warn("Failed to create completion tokens counter, metrics will be disabled", "error", err)
		completionTokens = noop.Int64Counter{}
	}

	toolCalls, err := meter.Int64Counter("genai.tool.calls",
		metric.WithDescription("The number of tool calls made during a session"),
		metric.WithUnit("{calls}"))
	if err != nil {
		log.Warn("Failed to create tool call counter, metrics will be disabled", "error", err)
		toolCalls = noop.Int64Counter{}
	}

	toolDuration, err := meter.Float64Histogram("genai.tool.duration",
		metric.WithDescription("Duration of tool calls"),
		metric.WithUnit("s"))
	if err != nil {
		log.Warn("Failed to create tool duration histogram, metrics will be disabled", "error", err)
		toolDuration = noop.Float64Histogram{}
	}

	return &GenAI{
		promptTokens:     promptTokens,
		completionTokens: completionTokens,
		toolCalls:        toolCalls,
		toolDuration:     toolDuration,
	}
}

// SetAttributeEnricher sets the enricher applied before each recording.
func (m *GenAI) SetAttributeEnricher(enricher AttributeEnricher) {
	m.attrEnricher = enricher
}

func (m *GenAI) attributes(ctx context.Context, base []attribute.KeyValue, extra []attribute.KeyValue) metric.MeasurementOption {
	if m.attrEnricher != nil {
		base = m.attrEnricher(ctx, base)
	}
	return metric.WithAttributes(append(base, extra...)...)
}

// RecordTokens records prompt and completion token usage for model.
func (m *GenAI) RecordTokens(ctx context.Context, model string, promptTokens, completionTokens int64, attrs ...attribute.KeyValue) {
	opt := m.attributes(ctx, []attribute.KeyValue{attribute.String("model", model)}, attrs)
	m.promptTokens.Add(ctx, promptTokens, opt)
	m.completionTokens.Add(ctx, completionTokens, opt)
}

// RecordToolCall records one tool invocation and how long it took.
func (m *GenAI) RecordToolCall(ctx context.Context, toolName string, success bool, dur time.Duration, attrs ...attribute.KeyValue) {
	opt := m.attributes(ctx, []attribute.KeyValue{
		attribute.String("tool", toolName),
		attribute.Bool("success", success),
	}, attrs)
	m.toolCalls.Add(ctx, 1, opt)
	m.toolDuration.Record(ctx, dur.Seconds(), opt)
}
