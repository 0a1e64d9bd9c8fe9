// ABOUTME: Small key-value store for terminal client state (the session token)
// ABOUTME: Implements session.Persister on a separate SQLite file per client

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// StateStore keeps namespaced string values in a local SQLite file.
type StateStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// OpenStateStore opens (creating if needed) the client state database at path.
func OpenStateStore(path string) (*StateStore, error) {
	db, err := openSQLite(path)
	if err != nil {
		return nil, err
	}

	schema := `
		CREATE TABLE IF NOT EXISTS client_state (
			namespace  TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating client_state table: %w", err)
	}

	return &StateStore{
		db:     db,
		logger: slog.Default().With("component", "state"),
	}, nil
}

// Read returns the value stored under namespace. ok is false when nothing
// has been written there yet.
func (s *StateStore) Read(ctx context.Context, namespace string) (value string, ok bool, err error) {
	err = s.db.QueryRowContext(ctx, `SELECT value FROM client_state WHERE namespace = ?`, namespace).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading %s: %w", namespace, err)
	}
	return value, true, nil
}

// Write stores value under namespace, replacing any previous value.
func (s *StateStore) Write(ctx context.Context, namespace, value string) error {
	query := `
		INSERT INTO client_state (namespace, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(namespace) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	if _, err := s.db.ExecContext(ctx, query, namespace, value, formatTime(time.Now())); err != nil {
		return fmt.Errorf("writing %s: %w", namespace, err)
	}
	s.logger.Debug("state written", "namespace", namespace)
	return nil
}

// Close closes the database.
func (s *StateStore) Close() error {
	return s.db.Close()
}
