// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package globalstate

import (
	"context"

	"github.com/vk/countergrid/internal/key"
)

// Store is the persistent arena behind every execution.
//
// # Thread-Safety Requirements
//
// Implementations MUST be safe for concurrent use. Commit MUST be atomic:
// either every effect is applied or none is, and Add transforms MUST be
// applied against the value current at commit time under the same lock that
// guards the write, so concurrent commits never lose an accumulate.
type Store interface {
	// Get returns the value under k. Access rights on URef keys are ignored.
	Get(ctx context.Context, k key.Key) (StoredValue, bool, error)

	// Commit applies effects in order as one atomic batch.
	Commit(ctx context.Context, effects []Effect) error

	// Close releases any resources held by the store.
	Close() error
}
