// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package runtime is the host API handed to compiled module code.
//
// Every call into module code gets a Runtime bound to one frame: the named
// keys of the account or contract it runs as, the references it possesses
// and the arguments it was called with. All state changes go through the
// execution's tracking copy, so a failed execution leaves nothing behind.
package runtime

import (
	"context"

	"github.com/vk/countergrid/internal/clvalue"
	"github.com/vk/countergrid/internal/contract"
	"github.com/vk/countergrid/internal/key"
	"github.com/vk/countergrid/internal/namedkeys"
)

// Args are the named runtime arguments of a call. URefs passed as Key
// arguments are handed to the callee; the caller must hold them.
type Args map[string]clvalue.CLValue

// Runtime is the host surface visible to session code and entry points.
type Runtime interface {
	// GetKey looks up name in the current frame's named keys.
	GetKey(name string) (key.Key, bool)
	// PutKey binds name in the current frame's named keys, replacing any
	// previous binding. A URef can only be bound with rights the frame
	// already holds (NoAccessRights).
	PutKey(name string, k key.Key) error
	// NamedKeys returns a snapshot of the current frame's named keys.
	NamedKeys() namedkeys.NamedKeys

	// NewURef stores v in a fresh slot and returns a READ_ADD_WRITE
	// reference to it.
	NewURef(v clvalue.CLValue) (key.URef, error)
	// Read returns the value in the slot behind u. found is false when the
	// slot is empty.
	Read(ctx context.Context, u key.URef) (v clvalue.CLValue, found bool, err error)
	// Write replaces the value in the slot behind u.
	Write(u key.URef, v clvalue.CLValue) error
	// Add accumulates delta into the numeric value behind u.
	Add(ctx context.Context, u key.URef, delta clvalue.CLValue) error

	// NewContract registers a contract built from the running module.
	// When packageName already names a package whose access reference is
	// held under accessName, a new version is added to it; otherwise a new
	// package is created. Both names are (re)bound in the current frame.
	NewContract(ctx context.Context, eps contract.EntryPoints, nk namedkeys.NamedKeys, packageName, accessName string) (key.Hash, uint32, error)
	// CallContract invokes an entry point of an installed contract.
	CallContract(ctx context.Context, h key.Hash, entryPoint string, args Args) (clvalue.CLValue, error)
	// CallVersionedContract invokes an entry point of a package version.
	// A nil version selects the latest enabled one.
	CallVersionedContract(ctx context.Context, pkg key.Hash, version *uint32, entryPoint string, args Args) (clvalue.CLValue, error)

	// Arg returns a named runtime argument.
	Arg(name string) (clvalue.CLValue, bool)
	// Ret sets the value returned to the caller.
	Ret(v clvalue.CLValue)
	// Caller is the account that submitted the execution.
	Caller() key.AccountHash
}

// SessionFunc is compiled session code run in the caller's account context.
type SessionFunc func(ctx context.Context, rt Runtime) error

// EntryPointFunc is the compiled body of one contract entry point.
type EntryPointFunc func(ctx context.Context, rt Runtime) error

// Modules resolves compiled code by name.
type Modules interface {
	Session(name string) (SessionFunc, bool)
	EntryPoint(module, name string) (EntryPointFunc, bool)
	ValidateEntryPoints(module string, eps contract.EntryPoints) error
}
