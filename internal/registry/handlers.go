// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package registry

import (
	"fmt"
	"log/slog"

	"github.com/vk/countergrid/internal/runtime"
)

// RegisterSession registers compiled session code under name.
func (r *Registry) RegisterSession(name string, fn runtime.SessionFunc) {
	if _, exists := r.sessions[name]; exists {
		panic(fmt.Sprintf("session with name '%s' already registered", name))
	}
	if fn == nil {
		panic(fmt.Sprintf("session '%s' registered without a function", name))
	}
	slog.Debug("Registering session.", "name", name)
	r.sessions[name] = fn
}

// RegisterContract registers the entry point handlers of a contract module.
func (r *Registry) RegisterContract(module string, entryPoints map[string]runtime.EntryPointFunc) {
	if _, exists := r.contracts[module]; exists {
		panic(fmt.Sprintf("contract module with name '%s' already registered", module))
	}
	eps := make(map[string]runtime.EntryPointFunc, len(entryPoints))
	for name, fn := range entryPoints {
		if fn == nil {
			panic(fmt.Sprintf("entry point '%s' of module '%s' registered without a function", name, module))
		}
		eps[name] = fn
	}
	slog.Debug("Registering contract module.", "module", module, "entry_points", len(eps))
	r.contracts[module] = eps
}
