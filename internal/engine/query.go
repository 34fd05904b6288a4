// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package engine

import (
	"context"
	"fmt"

	"github.com/vk/countergrid/internal/apierror"
	"github.com/vk/countergrid/internal/globalstate"
	"github.com/vk/countergrid/internal/key"
	"github.com/vk/countergrid/internal/namedkeys"
)

// Query reads committed state. Starting at base, each element of path is
// looked up in the named keys of the account or contract reached so far.
// Queries bypass reference possession: they observe state, they never
// change it.
func (e *Engine) Query(ctx context.Context, base key.Key, path ...string) (globalstate.StoredValue, error) {
	current := base
	v, err := e.get(ctx, current)
	if err != nil {
		return globalstate.StoredValue{}, err
	}
	for i, name := range path {
		var nk namedkeys.NamedKeys
		switch {
		case v.Account != nil:
			nk = v.Account.NamedKeys
		case v.Contract != nil:
			nk = v.Contract.NamedKeys
		default:
			return globalstate.StoredValue{}, apierror.New(apierror.UnexpectedKeyVariant,
				"path element %d (%q): %s holds %s, which has no named keys", i, name, current, v.Kind())
		}
		next, ok := nk.Get(name)
		if !ok {
			return globalstate.StoredValue{}, apierror.New(apierror.MissingKey, "path element %d: %s has no named key %q", i, current, name)
		}
		current = next
		if v, err = e.get(ctx, current); err != nil {
			return globalstate.StoredValue{}, err
		}
	}
	return v, nil
}

// Account returns the committed record of the account h.
func (e *Engine) Account(ctx context.Context, h key.AccountHash) (globalstate.Account, error) {
	v, err := e.get(ctx, h.Key())
	if err != nil {
		return globalstate.Account{}, err
	}
	if v.Account == nil {
		return globalstate.Account{}, apierror.New(apierror.UnexpectedKeyVariant, "%s holds %s", h, v.Kind())
	}
	return *v.Account, nil
}

func (e *Engine) get(ctx context.Context, k key.Key) (globalstate.StoredValue, error) {
	v, found, err := e.store.Get(ctx, k)
	if err != nil {
		return globalstate.StoredValue{}, fmt.Errorf("query %s: %w", k, err)
	}
	if !found {
		return globalstate.StoredValue{}, apierror.New(apierror.ValueNotFound, "nothing stored under %s", k)
	}
	return v, nil
}
