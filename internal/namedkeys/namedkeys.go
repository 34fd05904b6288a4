// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package namedkeys provides the name-to-reference registry owned by an
// account or an installed contract.
//
// A NamedKeys value is immutable. It is assembled with a Builder and frozen
// by Build, and the host swaps an owner's whole registry for a new one when
// bindings change. No reader can observe a half-built registry.
package namedkeys

import (
	"encoding/json"
	"sort"

	"github.com/vk/countergrid/internal/apierror"
	"github.com/vk/countergrid/internal/key"
)

// NamedKeys maps unique names to keys.
type NamedKeys struct {
	m map[string]key.Key
}

// Empty returns a registry with no bindings.
func Empty() NamedKeys {
	return NamedKeys{}
}

// Get returns the key bound to name.
func (n NamedKeys) Get(name string) (key.Key, bool) {
	k, ok := n.m[name]
	return k, ok
}

// Len returns the number of bindings.
func (n NamedKeys) Len() int {
	return len(n.m)
}

// Names returns all bound names in sorted order.
func (n NamedKeys) Names() []string {
	names := make([]string, 0, len(n.m))
	for name := range n.m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// URefs returns every URef bound in the registry.
func (n NamedKeys) URefs() []key.URef {
	var urefs []key.URef
	for _, name := range n.Names() {
		if u, ok := n.m[name].AsURef(); ok {
			urefs = append(urefs, u)
		}
	}
	return urefs
}

// Keys returns every bound key.
func (n NamedKeys) Keys() []key.Key {
	keys := make([]key.Key, 0, len(n.m))
	for _, name := range n.Names() {
		keys = append(keys, n.m[name])
	}
	return keys
}

// With returns a new registry equal to n with name bound to k, replacing any
// existing binding of name. n itself is left untouched.
func (n NamedKeys) With(name string, k key.Key) NamedKeys {
	m := make(map[string]key.Key, len(n.m)+1)
	for existing, v := range n.m {
		m[existing] = v
	}
	m[name] = k
	return NamedKeys{m: m}
}

// Map returns a copy of the bindings.
func (n NamedKeys) Map() map[string]key.Key {
	m := make(map[string]key.Key, len(n.m))
	for name, k := range n.m {
		m[name] = k
	}
	return m
}

// MarshalJSON encodes the registry as an object of name to key string.
func (n NamedKeys) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.Map())
}

// UnmarshalJSON decodes the form produced by MarshalJSON.
func (n *NamedKeys) UnmarshalJSON(data []byte) error {
	var m map[string]key.Key
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*n = NamedKeys{m: m}
	return nil
}

// Builder assembles a NamedKeys value. A Builder must not be used after
// Build.
type Builder struct {
	m     map[string]key.Key
	built bool
}

// NewBuilder creates an empty Builder.
func NewBuilder() *Builder {
	return &Builder{m: make(map[string]key.Key)}
}

// Insert binds name to k. Names must be unique within one registry.
func (b *Builder) Insert(name string, k key.Key) error {
	if b.built {
		panic("namedkeys: Insert after Build")
	}
	if name == "" {
		return apierror.New(apierror.InvalidArgument, "named key name cannot be empty")
	}
	if k.IsZero() {
		return apierror.New(apierror.InvalidArgument, "named key %q bound to invalid key", name)
	}
	if _, exists := b.m[name]; exists {
		return apierror.New(apierror.DuplicateKey, "named key %q already bound", name)
	}
	b.m[name] = k
	return nil
}

// Build freezes the builder into an immutable NamedKeys.
func (b *Builder) Build() NamedKeys {
	b.built = true
	return NamedKeys{m: b.m}
}
