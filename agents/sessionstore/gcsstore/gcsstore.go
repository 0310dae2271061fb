/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package gcsstore persists sessions as JSON objects in a Google Cloud
// Storage bucket, one object per session under a common prefix.
package gcsstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"slices"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/chainguard-dev/clog"
	"google.golang.org/api/iterator"

	"chainguard.dev/reasoner/agents/session"
	"chainguard.dev/reasoner/agents/sessionstore"
)

const suffix = ".json"

// Store implements sessionstore.Store on a bucket.
type Store struct {
	bucket *storage.BucketHandle
	prefix string
}

var _ sessionstore.Store = (*Store)(nil)

// New returns a Store writing under prefix in bucket.
func New(client *storage.Client, bucket, prefix string) (*Store, error) {
	if client == nil {
		return nil, errors.New("storage client is required")
	}
	if bucket == "" {
		return nil, errors.New("bucket is required")
	}
	return &Store{bucket: client.Bucket(bucket), prefix: normalizePrefix(prefix)}, nil
}

func normalizePrefix(p string) string {
	p = strings.Trim(p, "/")
	if p == "" {
		return ""
	}
	return p + "/"
}

func (s *Store) objectName(id string) string {
	return path.Join(s.prefix, id) + suffix
}

// sessionID reverses objectName, reporting false for foreign objects.
func (s *Store) sessionID(name string) (string, bool) {
	rest, ok := strings.CutPrefix(name, s.prefix)
	if !ok {
		return "", false
	}
	id, ok := strings.CutSuffix(rest, suffix)
	if !ok || id == "" || strings.Contains(id, "/") {
		return "", false
	}
	return id, true
}

// Save implements sessionstore.Store.
func (s *Store) Save(ctx context.Context, st *session.State) error {
	if st == nil || st.ID == "" {
		return errors.New("session ID is required")
	}
	if strings.Contains(st.ID, "/") {
		return fmt.Errorf("session ID %q must not contain '/'", st.ID)
	}
	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to marshal session %s: %w", st.ID, err)
	}

	name := s.objectName(st.ID)
	w := s.bucket.Object(name).NewWriter(ctx)
	w.ContentType = "application/json"
	if _, err := w.Write(raw); err != nil {
		w.Close()
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	clog.FromContext(ctx).Debug("Saved session", "object", name, "status", st.Status)
	return nil
}

// Load implements sessionstore.Store.
func (s *Store) Load(ctx context.Context, id string) (*session.State, error) {
	name := s.objectName(id)
	r, err := s.bucket.Object(name).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, fmt.Errorf("%s: %w", id, session.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	defer r.Close()

	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	var st session.State
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", name, err)
	}
	return &st, nil
}

// Delete implements sessionstore.Store.
func (s *Store) Delete(ctx context.Context, id string) error {
	err := s.bucket.Object(s.objectName(id)).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("%s: %w", id, session.ErrNotFound)
	}
	return err
}

// List implements sessionstore.Store. IDs are sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	it := s.bucket.Objects(ctx, &storage.Query{Prefix: s.prefix})
	ids := []string{}
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list sessions: %w", err)
		}
		if id, ok := s.sessionID(attrs.Name); ok {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids, nil
}
