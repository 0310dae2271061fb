/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"chainguard.dev/reasoner/agents/reasoning"
)

// loadEngineConfig reads the engine settings from the environment and, when
// path is set, overlays the fields present in that YAML file.
func loadEngineConfig(ctx context.Context, path string) (reasoning.Config, error) {
	cfg, err := reasoning.ConfigFromEnv(ctx)
	if err != nil {
		return reasoning.Config{}, err
	}
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return reasoning.Config{}, fmt.Errorf("reading %s: %w", path, err)
	}
	return overlay(cfg, raw)
}

// overlay decodes raw on top of cfg and validates the result. Unknown keys
// are rejected so that typos surface.
func overlay(cfg reasoning.Config, raw []byte) (reasoning.Config, error) {
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return reasoning.Config{}, fmt.Errorf("decoding YAML config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return reasoning.Config{}, err
	}
	return cfg, nil
}
