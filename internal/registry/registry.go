// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package registry

import (
	"sort"

	"github.com/vk/countergrid/internal/runtime"
)

// Module is the interface that all compiled modules must implement to be registered.
type Module interface {
	Register(r *Registry)
}

// Registry holds all the registered session code and contract entry points
// for a single application instance. It is populated once at startup and
// read-only afterwards.
type Registry struct {
	sessions  map[string]runtime.SessionFunc
	contracts map[string]map[string]runtime.EntryPointFunc
}

var _ runtime.Modules = (*Registry)(nil)

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{
		sessions:  make(map[string]runtime.SessionFunc),
		contracts: make(map[string]map[string]runtime.EntryPointFunc),
	}
}

// NewWith creates a Registry and registers every module in order.
func NewWith(modules ...Module) *Registry {
	r := New()
	for _, m := range modules {
		m.Register(r)
	}
	return r
}

// Session returns the session code registered under name.
func (r *Registry) Session(name string) (runtime.SessionFunc, bool) {
	fn, ok := r.sessions[name]
	return fn, ok
}

// EntryPoint returns the handler for entry point name of module.
func (r *Registry) EntryPoint(module, name string) (runtime.EntryPointFunc, bool) {
	eps, ok := r.contracts[module]
	if !ok {
		return nil, false
	}
	fn, ok := eps[name]
	return fn, ok
}

// Sessions returns the registered session names, sorted.
func (r *Registry) Sessions() []string {
	names := make([]string, 0, len(r.sessions))
	for name := range r.sessions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
