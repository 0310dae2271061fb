/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/storage"

	"chainguard.dev/reasoner/agents/sessionstore"
	"chainguard.dev/reasoner/agents/sessionstore/gcsstore"
	"chainguard.dev/reasoner/agents/sessionstore/inmem"
	"chainguard.dev/reasoner/agents/sessionstore/sqlstore"
)

// newStore returns the configured session store and a function releasing it.
func newStore(ctx context.Context, cfg config) (sessionstore.Store, func(), error) {
	noop := func() {}
	switch cfg.Store {
	case "", "memory":
		return inmem.New(), noop, nil

	case "gcs":
		if cfg.GCSBucket == "" {
			return nil, noop, errors.New("REASONER_GCS_BUCKET is required for the gcs store")
		}
		client, err := storage.NewClient(ctx)
		if err != nil {
			return nil, noop, fmt.Errorf("creating storage client: %w", err)
		}
		s, err := gcsstore.New(client, cfg.GCSBucket, cfg.GCSPrefix)
		if err != nil {
			client.Close()
			return nil, noop, err
		}
		return s, func() { client.Close() }, nil

	default:
		if _, err := sqlstore.ParseDialect(cfg.Store); err != nil {
			return nil, noop, fmt.Errorf("unknown store %q: %w", cfg.Store, err)
		}
		if cfg.StoreDSN == "" {
			return nil, noop, fmt.Errorf("REASONER_STORE_DSN is required for the %s store", cfg.Store)
		}
		s, err := sqlstore.Open(ctx, cfg.Store, cfg.StoreDSN)
		if err != nil {
			return nil, noop, err
		}
		return s, func() { s.Close() }, nil
	}
}
