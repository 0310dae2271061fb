/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package metrics

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"chainguard.dev/reasoner/agents/session"
)

// Prometheus exports per-iteration, per-tool and per-session metrics.
// Session IDs are never used as labels.
type Prometheus struct {
	iterations        prometheus.Counter
	iterationDuration prometheus.Histogram
	toolCalls         *prometheus.CounterVec
	toolDuration      *prometheus.HistogramVec
	sessions          *prometheus.CounterVec
	sessionIterations prometheus.Histogram
}

// NewPrometheus registers the reasoner metrics with reg. A nil reg uses the
// default registerer.
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Prometheus{
		iterations: f.NewCounter(prometheus.CounterOpts{
			Name: "reasoner_iterations_total",
			Help: "Total number of completed reasoning iterations",
		}),
		iterationDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "reasoner_iteration_duration_seconds",
			Help:    "Duration of a reasoning iteration",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
		toolCalls: f.NewCounterVec(prometheus.CounterOpts{
			Name: "reasoner_tool_calls_total",
			Help: "Total number of tool calls by tool and success",
		}, []string{"tool", "success"}),
		toolDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "reasoner_tool_call_duration_seconds",
			Help:    "Duration of tool calls",
			Buckets: prometheus.DefBuckets,
		}, []string{"tool"}),
		sessions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "reasoner_sessions_total",
			Help: "Total number of finished sessions by terminal status",
		}, []string{"status"}),
		sessionIterations: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "reasoner_session_iterations",
			Help:    "Number of iterations a session ran before terminating",
			Buckets: prometheus.LinearBuckets(1, 5, 10),
		}),
	}
}

// IterationCompleted implements reasoning.MetricsSink.
func (p *Prometheus) IterationCompleted(_ context.Context, _ string, _ int, dur time.Duration) {
	p.iterations.Inc()
	p.iterationDuration.Observe(dur.Seconds())
}

// ToolCallCompleted implements reasoning.MetricsSink.
func (p *Prometheus) ToolCallCompleted(_ context.Context, tool string, success bool, dur time.Duration) {
	p.toolCalls.WithLabelValues(tool, strconv.FormatBool(success)).Inc()
	p.toolDuration.WithLabelValues(tool).Observe(dur.Seconds())
}

// SessionCompleted implements reasoning.MetricsSink.
func (p *Prometheus) SessionCompleted(_ context.Context, status session.Status, iterations int) {
	p.sessions.WithLabelValues(string(status)).Inc()
	p.sessionIterations.Observe(float64(iterations))
}
