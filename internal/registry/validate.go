// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package registry

import (
	"strings"

	"github.com/vk/countergrid/internal/apierror"
	"github.com/vk/countergrid/internal/contract"
)

// ValidateEntryPoints performs a strict parity check between the entry
// points a contract declares and the handlers compiled into module.
func (r *Registry) ValidateEntryPoints(module string, eps contract.EntryPoints) error {
	handlers, ok := r.contracts[module]
	if !ok {
		return apierror.New(apierror.ModuleNotFound, "no contract module %q", module)
	}

	var missing []string
	for _, name := range eps.Names() {
		if _, ok := handlers[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return apierror.New(apierror.NoSuchEntryPoint, "module %q has no handler for: %s", module, strings.Join(missing, ", "))
	}
	return nil
}
