/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package inmem is a process-local session store.
package inmem

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"chainguard.dev/reasoner/agents/session"
	"chainguard.dev/reasoner/agents/sessionstore"
)

// Store keeps sessions in a map.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*session.State
}

var _ sessionstore.Store = (*Store)(nil)

// New returns an empty Store.
func New() *Store {
	return &Store{sessions: make(map[string]*session.State)}
}

// Save implements sessionstore.Store.
func (s *Store) Save(_ context.Context, st *session.State) error {
	if st == nil || st.ID == "" {
		return errors.New("session ID is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[st.ID] = st.Clone()
	return nil
}

// Load implements sessionstore.Store.
func (s *Store) Load(_ context.Context, id string) (*session.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, session.ErrNotFound)
	}
	return st.Clone(), nil
}

// Delete implements sessionstore.Store.
func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return fmt.Errorf("%s: %w", id, session.ErrNotFound)
	}
	delete(s.sessions, id)
	return nil
}

// List implements sessionstore.Store. IDs are sorted.
func (s *Store) List(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}
