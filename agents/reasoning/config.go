/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package reasoning

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"

	"chainguard.dev/reasoner/agents/retry"
)

// Config is the immutable engine configuration.
type Config struct {
	// MaxIterations bounds the number of model round-trips per session.
	MaxIterations int `env:"REASONER_MAX_ITERATIONS,default=50" yaml:"max_iterations"`

	// StreamingTimeout bounds a single model call, including retries.
	StreamingTimeout time.Duration `env:"REASONER_STREAMING_TIMEOUT,default=5m" yaml:"streaming_timeout"`

	// DecisionTimeout bounds intent classification.
	DecisionTimeout time.Duration `env:"REASONER_DECISION_TIMEOUT,default=5s" yaml:"decision_timeout"`

	// ToolTimeout bounds each individual tool call.
	ToolTimeout time.Duration `env:"REASONER_TOOL_TIMEOUT,default=30s" yaml:"tool_timeout"`

	// ToolConcurrency is the number of tool calls of one response that may
	// run at once. 1 executes them sequentially.
	ToolConcurrency int `env:"REASONER_TOOL_CONCURRENCY,default=1" yaml:"tool_concurrency"`

	// PreAnalysisTool names a tool run on the newest user message before the
	// first model call. Empty disables pre-analysis.
	PreAnalysisTool string `env:"REASONER_PRE_ANALYSIS_TOOL" yaml:"pre_analysis_tool"`

	// EventBuffer is the capacity of the event and stream queues. Items
	// arriving while a queue is full are dropped.
	EventBuffer int `env:"REASONER_EVENT_BUFFER,default=256" yaml:"event_buffer"`

	// SinkFlushTimeout bounds how long Process waits for queued events and
	// fragments to drain before returning.
	SinkFlushTimeout time.Duration `env:"REASONER_SINK_FLUSH_TIMEOUT,default=2s" yaml:"sink_flush_timeout"`

	// Retry configures retries of model calls that fail before streaming any text.
	Retry retry.Config `env:",prefix=REASONER_MODEL_" yaml:"retry"`

	// ToolRetry configures retries of tool calls failing with a transient
	// error. Timeouts and unknown tools are never retried.
	ToolRetry retry.Config `env:",prefix=REASONER_TOOL_" yaml:"tool_retry"`
}

// DefaultConfig returns the configuration used by ConfigFromEnv when no
// variables are set.
func DefaultConfig() Config {
	return Config{
		MaxIterations:    50,
		StreamingTimeout: 5 * time.Minute,
		DecisionTimeout:  5 * time.Second,
		ToolTimeout:      30 * time.Second,
		ToolConcurrency:  1,
		EventBuffer:      256,
		SinkFlushTimeout: 2 * time.Second,
		Retry:            retry.DefaultConfig(),
		ToolRetry:        retry.DefaultConfig(),
	}
}

// ConfigFromEnv loads and validates the configuration from the environment.
func ConfigFromEnv(ctx context.Context) (Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return Config{}, fmt.Errorf("processing environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate returns a *ConfigurationError describing the first invalid field.
func (c Config) Validate() error {
	switch {
	case c.MaxIterations < 1:
		return &ConfigurationError{Field: "MaxIterations", Reason: fmt.Sprintf("must be at least 1, got %d", c.MaxIterations)}
	case c.StreamingTimeout <= 0:
		return &ConfigurationError{Field: "StreamingTimeout", Reason: "must be positive"}
	case c.DecisionTimeout <= 0:
		return &ConfigurationError{Field: "DecisionTimeout", Reason: "must be positive"}
	case c.ToolTimeout <= 0:
		return &ConfigurationError{Field: "ToolTimeout", Reason: "must be positive"}
	case c.ToolConcurrency < 0:
		return &ConfigurationError{Field: "ToolConcurrency", Reason: "cannot be negative"}
	case c.EventBuffer < 0:
		return &ConfigurationError{Field: "EventBuffer", Reason: "cannot be negative"}
	case c.SinkFlushTimeout < 0:
		return &ConfigurationError{Field: "SinkFlushTimeout", Reason: "cannot be negative"}
	}
	if err := c.Retry.Validate(); err != nil {
		return &ConfigurationError{Field: "Retry", Reason: err.Error()}
	}
	if err := c.ToolRetry.Validate(); err != nil {
		return &ConfigurationError{Field: "ToolRetry", Reason: err.Error()}
	}
	return nil
}
