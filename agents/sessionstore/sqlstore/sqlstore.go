/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package sqlstore persists sessions in a SQL database. SQLite, PostgreSQL
// and MySQL are supported; each session is one row holding its JSON state.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/chainguard-dev/clog"

	"chainguard.dev/reasoner/agents/session"
	"chainguard.dev/reasoner/agents/sessionstore"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Dialect names a supported SQL flavour.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
	MySQL    Dialect = "mysql"
)

// ParseDialect normalizes a dialect or driver name.
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(s) {
	case "sqlite", "sqlite3":
		return SQLite, nil
	case "postgres", "postgresql", "pgx":
		return Postgres, nil
	case "mysql", "mariadb":
		return MySQL, nil
	default:
		return "", fmt.Errorf("unsupported dialect: %s (supported: sqlite, postgres, mysql)", s)
	}
}

// Driver returns the database/sql driver name for d.
func (d Dialect) Driver() string {
	if d == SQLite {
		return "sqlite3"
	}
	return string(d)
}

// Store implements sessionstore.Store on a *sql.DB.
type Store struct {
	db      *sql.DB
	dialect Dialect
}

var _ sessionstore.Store = (*Store)(nil)

// Open connects to dsn and prepares the schema.
func Open(ctx context.Context, dialect, dsn string) (*Store, error) {
	d, err := ParseDialect(dialect)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(d.Driver(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", d, err)
	}
	if d == SQLite {
		// SQLite allows a single writer.
		db.SetMaxOpenConns(1)
	}
	s, err := New(ctx, db, d)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an open database and prepares the schema.
func New(ctx context.Context, db *sql.DB, dialect Dialect) (*Store, error) {
	if db == nil {
		return nil, errors.New("database connection is required")
	}
	if _, err := ParseDialect(string(dialect)); err != nil {
		return nil, err
	}
	s := &Store{db: db, dialect: dialect}
	if _, err := db.ExecContext(ctx, s.schema()); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) schema() string {
	payload := "TEXT"
	if s.dialect == MySQL {
		payload = "LONGTEXT"
	}
	return `CREATE TABLE IF NOT EXISTS reasoner_sessions (
    id VARCHAR(255) NOT NULL PRIMARY KEY,
    status VARCHAR(64) NOT NULL,
    state_json ` + payload + ` NOT NULL,
    updated_at TIMESTAMP NOT NULL
)`
}

// Save implements sessionstore.Store.
func (s *Store) Save(ctx context.Context, st *session.State) error {
	if st == nil || st.ID == "" {
		return errors.New("session ID is required")
	}
	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to marshal session %s: %w", st.ID, err)
	}

	var query string
	switch s.dialect {
	case MySQL:
		query = `INSERT INTO reasoner_sessions (id, status, state_json, updated_at) VALUES (?, ?, ?, ?)
ON DUPLICATE KEY UPDATE status = VALUES(status), state_json = VALUES(state_json), updated_at = VALUES(updated_at)`
	default:
		query = `INSERT INTO reasoner_sessions (id, status, state_json, updated_at) VALUES (?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET status = excluded.status, state_json = excluded.state_json, updated_at = excluded.updated_at`
	}
	if _, err := s.db.ExecContext(ctx, s.rebind(query), st.ID, string(st.Status), string(raw), time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to save session %s: %w", st.ID, err)
	}
	clog.FromContext(ctx).Debug("Saved session", "session", st.ID, "status", st.Status)
	return nil
}

// Load implements sessionstore.Store.
func (s *Store) Load(ctx context.Context, id string) (*session.State, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT state_json FROM reasoner_sessions WHERE id = ?`), id).Scan(&raw)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("%s: %w", id, session.ErrNotFound)
	case err != nil:
		return nil, fmt.Errorf("failed to load session %s: %w", id, err)
	}
	var st session.State
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		return nil, fmt.Errorf("failed to decode session %s: %w", id, err)
	}
	return &st, nil
}

// Delete implements sessionstore.Store.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM reasoner_sessions WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to delete session %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete session %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", id, session.ErrNotFound)
	}
	return nil
}

// List implements sessionstore.Store. IDs are sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM reasoner_sessions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to list sessions: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// rebind rewrites ? placeholders as $1, $2, ... for PostgreSQL.
func (s *Store) rebind(query string) string {
	if s.dialect != Postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
