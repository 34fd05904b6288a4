// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package globalstate

import (
	"context"
	"fmt"

	"github.com/vk/countergrid/internal/apierror"
	"github.com/vk/countergrid/internal/clvalue"
	"github.com/vk/countergrid/internal/key"
)

// TransformKind selects how a Transform changes a value.
type TransformKind uint8

const (
	TransformWrite TransformKind = iota
	TransformAdd
)

// String returns "write" or "add".
func (k TransformKind) String() string {
	if k == TransformAdd {
		return "add"
	}
	return "write"
}

// Transform is one pending change to the value under a key.
type Transform struct {
	Kind  TransformKind
	Value StoredValue     // set for TransformWrite
	Delta clvalue.CLValue // set for TransformAdd
}

// Write returns a Transform replacing the value with v.
func Write(v StoredValue) Transform {
	return Transform{Kind: TransformWrite, Value: v}
}

// Add returns a Transform accumulating delta into an existing numeric value.
func Add(delta clvalue.CLValue) Transform {
	return Transform{Kind: TransformAdd, Delta: delta}
}

// Apply computes the value after t. current is nil when the key is absent.
func (t Transform) Apply(current *StoredValue) (StoredValue, error) {
	switch t.Kind {
	case TransformWrite:
		return t.Value, nil
	case TransformAdd:
		if current == nil {
			return StoredValue{}, apierror.New(apierror.ValueNotFound, "add to absent value")
		}
		if current.CLValue == nil {
			return StoredValue{}, apierror.New(apierror.CLTypeMismatch, "add to %s", current.Kind())
		}
		sum, err := clvalue.Add(*current.CLValue, t.Delta)
		if err != nil {
			return StoredValue{}, err
		}
		return NewCLValue(sum), nil
	default:
		return StoredValue{}, fmt.Errorf("unknown transform kind %d", t.Kind)
	}
}

// Effect is a Transform bound to the key it applies to.
type Effect struct {
	Key       key.Key
	Transform Transform
}

// Entry is a key with its resulting value.
type Entry struct {
	Key   key.Key
	Value StoredValue
}

// Getter reads the current value of a key.
type Getter func(ctx context.Context, k key.Key) (StoredValue, bool, error)

// Fold applies effects in order on top of the values returned by get and
// returns the resulting value of every touched key, in first-touch order.
// Nothing is written; stores call Fold while holding their write lock and
// then persist the entries.
func Fold(ctx context.Context, get Getter, effects []Effect) ([]Entry, error) {
	pending := make(map[key.Key]StoredValue, len(effects))
	var order []key.Key

	for _, eff := range effects {
		k := eff.Key.Normalize()

		var current *StoredValue
		if v, ok := pending[k]; ok {
			current = &v
		} else {
			v, found, err := get(ctx, k)
			if err != nil {
				return nil, fmt.Errorf("read %s: %w", k, err)
			}
			if found {
				current = &v
			}
			order = append(order, k)
		}

		next, err := eff.Transform.Apply(current)
		if err != nil {
			return nil, fmt.Errorf("apply %s to %s: %w", eff.Transform.Kind, k, err)
		}
		pending[k] = next
	}

	entries := make([]Entry, 0, len(order))
	for _, k := range order {
		entries = append(entries, Entry{Key: k, Value: pending[k]})
	}
	return entries, nil
}
