/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package sessionstore holds persistence backends for reasoning sessions.
//
// Every backend implements Store. Save and Load exchange deep copies, so a
// caller never shares mutable state with a store. Load and Delete return
// session.ErrNotFound for unknown IDs.
package sessionstore

import (
	"context"

	"chainguard.dev/reasoner/agents/session"
)

// Store persists session state.
type Store interface {
	Save(ctx context.Context, st *session.State) error
	Load(ctx context.Context, id string) (*session.State, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]string, error)
}
