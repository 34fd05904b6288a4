// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package memory provides an ephemeral, thread-safe, in-memory implementation
// of globalstate.Store. It is the default for tests and one-shot runs; state
// is lost when the process exits.
package memory

import (
	"context"
	"sync"

	"github.com/vk/countergrid/internal/globalstate"
	"github.com/vk/countergrid/internal/key"
)

// Store keeps global state in a map guarded by a single RWMutex. Commits take
// the write lock for the whole batch, which makes them atomic and serializes
// accumulates on the same slot.
type Store struct {
	mu   sync.RWMutex
	data map[key.Key]globalstate.StoredValue
}

// New creates a new, empty in-memory store.
func New() *Store {
	return &Store{data: make(map[key.Key]globalstate.StoredValue)}
}

// Get returns the value under k.
func (s *Store) Get(ctx context.Context, k key.Key) (globalstate.StoredValue, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[k.Normalize()]
	return v, ok, nil
}

// Commit applies effects atomically.
func (s *Store) Commit(ctx context.Context, effects []globalstate.Effect) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := globalstate.Fold(ctx, s.getLocked, effects)
	if err != nil {
		return err
	}
	for _, e := range entries {
		s.data[e.Key] = e.Value
	}
	return nil
}

// Len returns the number of keys held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}

func (s *Store) getLocked(_ context.Context, k key.Key) (globalstate.StoredValue, bool, error) {
	v, ok := s.data[k]
	return v, ok, nil
}
