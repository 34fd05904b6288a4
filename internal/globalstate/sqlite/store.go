// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package sqlite persists global state in a SQLite database so that state
// outlives the process that wrote it.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/vk/countergrid/internal/apierror"
	"github.com/vk/countergrid/internal/globalstate"
	"github.com/vk/countergrid/internal/globalstate/sqlite/migrations"
	"github.com/vk/countergrid/internal/key"
	_ "modernc.org/sqlite"
)

// Store is a globalstate.Store backed by one SQLite file.
type Store struct {
	// mu serializes commits from this process; SQLite serializes writers
	// across processes.
	mu    sync.Mutex
	sqlDB *sql.DB
}

var _ globalstate.Store = (*Store)(nil)

// Open opens (creating if needed) the database at path and applies the
// embedded migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	sqlDB, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(ctx, sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// dsn builds the modernc.org/sqlite connection string. The driver applies
// each _pragma on every new connection.
func dsn(path string) string {
	return "file:" + filepath.Clean(path) +
		"?_pragma=journal_mode(WAL)" +
		"&_pragma=foreign_keys(1)" +
		"&_pragma=busy_timeout(5000)" +
		"&_pragma=synchronous(NORMAL)"
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Get loads and decodes the value stored under k.
func (s *Store) Get(ctx context.Context, k key.Key) (globalstate.StoredValue, bool, error) {
	if err := ctx.Err(); err != nil {
		return globalstate.StoredValue{}, false, err
	}
	return get(ctx, s.sqlDB, k)
}

func get(ctx context.Context, q querier, k key.Key) (globalstate.StoredValue, bool, error) {
	var raw string
	err := q.QueryRowContext(ctx,
		"SELECT value FROM global_state WHERE state_key = ?",
		k.Normalize().String(),
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return globalstate.StoredValue{}, false, nil
	}
	if err != nil {
		return globalstate.StoredValue{}, false, apierror.Wrap(apierror.Read, err, "load %s", k)
	}

	var v globalstate.StoredValue
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return globalstate.StoredValue{}, false, apierror.Wrap(apierror.Read, err, "decode %s", k)
	}
	if err := v.Validate(); err != nil {
		return globalstate.StoredValue{}, false, apierror.Wrap(apierror.Read, err, "decode %s", k)
	}
	return v, true, nil
}

// Commit folds effects over the current rows and writes the results inside
// one transaction.
func (s *Store) Commit(ctx context.Context, effects []globalstate.Effect) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(effects) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin commit: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	entries, err := globalstate.Fold(ctx, func(ctx context.Context, k key.Key) (globalstate.StoredValue, bool, error) {
		return get(ctx, tx, k)
	}, effects)
	if err != nil {
		return err
	}

	now := time.Now().UTC().UnixMilli()
	for _, e := range entries {
		payload, err := json.Marshal(e.Value)
		if err != nil {
			return fmt.Errorf("encode %s: %w", e.Key, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO global_state (state_key, kind, value, updated_at) VALUES (?, ?, ?, ?)
			 ON CONFLICT(state_key) DO UPDATE SET kind = excluded.kind, value = excluded.value, updated_at = excluded.updated_at`,
			e.Key.String(), string(e.Value.Kind()), string(payload), now,
		); err != nil {
			return fmt.Errorf("write %s: %w", e.Key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Len returns the number of stored keys.
func (s *Store) Len(ctx context.Context) (int, error) {
	var n int
	if err := s.sqlDB.QueryRowContext(ctx, "SELECT COUNT(*) FROM global_state").Scan(&n); err != nil {
		return 0, fmt.Errorf("count global state: %w", err)
	}
	return n, nil
}
