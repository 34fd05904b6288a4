// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package globalstate

import (
	"context"

	"github.com/vk/countergrid/internal/apierror"
	"github.com/vk/countergrid/internal/clvalue"
	"github.com/vk/countergrid/internal/key"
)

// TrackingCopy is the per-execution view of a Store. Reads see the store
// with this execution's own effects applied; nothing reaches the store until
// the caller commits Effects.
//
// A TrackingCopy is owned by one execution and is not safe for concurrent use.
type TrackingCopy struct {
	store   Store
	cache   map[key.Key]StoredValue
	effects []Effect
}

// NewTrackingCopy creates an empty overlay over store.
func NewTrackingCopy(store Store) *TrackingCopy {
	return &TrackingCopy{
		store: store,
		cache: make(map[key.Key]StoredValue),
	}
}

// Read returns the value under k as this execution currently sees it.
func (tc *TrackingCopy) Read(ctx context.Context, k key.Key) (StoredValue, bool, error) {
	k = k.Normalize()
	if v, ok := tc.cache[k]; ok {
		return v, true, nil
	}
	v, found, err := tc.store.Get(ctx, k)
	if err != nil {
		return StoredValue{}, false, err
	}
	return v, found, nil
}

// Write stages a replacement of the value under k.
func (tc *TrackingCopy) Write(k key.Key, v StoredValue) {
	k = k.Normalize()
	tc.cache[k] = v
	tc.effects = append(tc.effects, Effect{Key: k, Transform: Write(v)})
}

// Add stages an atomic accumulate of delta into the value under k. The
// value must already exist and share delta's numeric type.
func (tc *TrackingCopy) Add(ctx context.Context, k key.Key, delta clvalue.CLValue) error {
	k = k.Normalize()
	current, found, err := tc.Read(ctx, k)
	if err != nil {
		return err
	}
	if !found {
		return apierror.New(apierror.ValueNotFound, "add to absent value %s", k)
	}
	next, err := Add(delta).Apply(&current)
	if err != nil {
		return err
	}
	tc.cache[k] = next
	tc.effects = append(tc.effects, Effect{Key: k, Transform: Add(delta)})
	return nil
}

// Effects returns the staged effects in the order they were made.
func (tc *TrackingCopy) Effects() []Effect {
	out := make([]Effect, len(tc.effects))
	copy(out, tc.effects)
	return out
}
