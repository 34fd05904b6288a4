// Package registry provides the central "glue" for the module system.
//
// The Registry maps the names used by deploys and installed contracts
// (e.g., "counter" or "counter_inc") to the compiled Go functions that
// implement them. Installed contracts only record the name of their module;
// the registry resolves that name back to code every time an entry point is
// called.
//
// Installing a contract validates that every entry point it declares has a
// compiled handler, so a contract can never be stored in a state where one
// of its declared entry points cannot run.
package registry
