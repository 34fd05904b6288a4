// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package runtime

import (
	"context"

	"github.com/vk/countergrid/internal/apierror"
	"github.com/vk/countergrid/internal/clvalue"
	"github.com/vk/countergrid/internal/contract"
	"github.com/vk/countergrid/internal/globalstate"
	"github.com/vk/countergrid/internal/key"
)

// MaxCallDepth bounds nested contract calls within one execution.
const MaxCallDepth = 16

// Execution is the state shared by every frame of one execution: the
// tracking copy all effects go to and the address generator seeded by the
// deploy hash.
type Execution struct {
	tc      *globalstate.TrackingCopy
	gen     *key.AddressGenerator
	modules Modules
	caller  key.AccountHash
	depth   int
}

// NewExecution prepares an execution submitted by caller.
func NewExecution(tc *globalstate.TrackingCopy, gen *key.AddressGenerator, modules Modules, caller key.AccountHash) *Execution {
	return &Execution{tc: tc, gen: gen, modules: modules, caller: caller}
}

// Effects returns the effects staged so far.
func (e *Execution) Effects() []globalstate.Effect {
	return e.tc.Effects()
}

// accountFrame builds the top-level frame of the calling account.
func (e *Execution) accountFrame(ctx context.Context, module string, args Args) (*frame, error) {
	sv, found, err := e.tc.Read(ctx, e.caller.Key())
	if err != nil {
		return nil, apierror.Wrap(apierror.Read, err, "load account %s", e.caller)
	}
	if !found || sv.Account == nil {
		return nil, apierror.New(apierror.ValueNotFound, "account %s does not exist", e.caller)
	}
	acct := *sv.Account
	f := &frame{
		exec:   e,
		module: module,
		keys:   &keyspace{owner: e.caller.Key(), named: acct.NamedKeys, account: &acct},
		known:  make(map[key.Addr]key.AccessRights),
		args:   args,
	}
	if err := admitArgs(f, f, args); err != nil {
		return nil, err
	}
	return f, nil
}

// RunSession runs the named session code in the caller's account context.
func (e *Execution) RunSession(ctx context.Context, module string, args Args) (clvalue.CLValue, error) {
	fn, ok := e.modules.Session(module)
	if !ok {
		return clvalue.CLValue{}, apierror.New(apierror.ModuleNotFound, "no session module %q", module)
	}
	f, err := e.accountFrame(ctx, module, args)
	if err != nil {
		return clvalue.CLValue{}, err
	}
	if err := fn(ctx, f); err != nil {
		return clvalue.CLValue{}, err
	}
	return f.returned(), nil
}

// CallContract invokes an entry point on behalf of the caller's account.
func (e *Execution) CallContract(ctx context.Context, h key.Hash, entryPoint string, args Args) (clvalue.CLValue, error) {
	f, err := e.accountFrame(ctx, "", nil)
	if err != nil {
		return clvalue.CLValue{}, err
	}
	return e.callContract(ctx, f, h, entryPoint, args)
}

// NamedKey looks up name in the caller account's named keys.
func (e *Execution) NamedKey(ctx context.Context, name string) (key.Key, error) {
	f, err := e.accountFrame(ctx, "", nil)
	if err != nil {
		return key.Key{}, err
	}
	k, ok := f.GetKey(name)
	if !ok {
		return key.Key{}, apierror.New(apierror.MissingKey, "account %s has no named key %q", e.caller, name)
	}
	return k, nil
}

// ResolveVersion returns the contract hash registered under version in the
// package pkg. A nil version selects the latest enabled version.
func (e *Execution) ResolveVersion(ctx context.Context, pkg key.Hash, version *uint32) (key.Hash, error) {
	p, err := e.readPackage(ctx, pkg)
	if err != nil {
		return key.Hash{}, err
	}
	if version == nil {
		_, h, ok := p.Latest()
		if !ok {
			return key.Hash{}, apierror.New(apierror.InvalidContractVersion, "package %s has no enabled version", pkg)
		}
		return h, nil
	}
	h, ok := p.Lookup(*version)
	if !ok {
		return key.Hash{}, apierror.New(apierror.InvalidContractVersion, "package %s has no version %d", pkg, *version)
	}
	return h, nil
}

func (e *Execution) readPackage(ctx context.Context, h key.Hash) (contract.Package, error) {
	sv, found, err := e.tc.Read(ctx, h.Key())
	if err != nil {
		return contract.Package{}, apierror.Wrap(apierror.Read, err, "load package %s", h)
	}
	if !found {
		return contract.Package{}, apierror.New(apierror.ContractNotFound, "package %s not found", h)
	}
	if sv.Package == nil {
		return contract.Package{}, apierror.New(apierror.UnexpectedKeyVariant, "%s holds %s, not a package", h, sv.Kind())
	}
	return *sv.Package, nil
}

func (e *Execution) readContract(ctx context.Context, h key.Hash) (contract.Contract, error) {
	sv, found, err := e.tc.Read(ctx, h.Key())
	if err != nil {
		return contract.Contract{}, apierror.Wrap(apierror.Read, err, "load contract %s", h)
	}
	if !found || sv.Contract == nil {
		return contract.Contract{}, apierror.New(apierror.ContractNotFound, "contract %s not found", h)
	}
	return *sv.Contract, nil
}

func (e *Execution) callContract(ctx context.Context, caller *frame, h key.Hash, name string, args Args) (clvalue.CLValue, error) {
	if e.depth >= MaxCallDepth {
		return clvalue.CLValue{}, apierror.New(apierror.InvalidArgument, "call depth exceeds %d", MaxCallDepth)
	}

	c, err := e.readContract(ctx, h)
	if err != nil {
		return clvalue.CLValue{}, err
	}
	ep, ok := c.EntryPoints.Get(name)
	if !ok {
		return clvalue.CLValue{}, apierror.New(apierror.NoSuchEntryPoint, "contract %s has no entry point %q", h, name)
	}
	if err := e.checkAccess(ctx, caller, c, ep); err != nil {
		return clvalue.CLValue{}, err
	}
	if err := checkArgs(ep, args); err != nil {
		return clvalue.CLValue{}, err
	}
	fn, ok := e.modules.EntryPoint(c.Module, name)
	if !ok {
		return clvalue.CLValue{}, apierror.New(apierror.ModuleNotFound, "module %q has no handler for %q", c.Module, name)
	}

	callee := &frame{exec: e, module: c.Module, args: args}
	switch ep.Type {
	case contract.TypeSession:
		callee.keys = caller.keys
		callee.known = caller.known
	default:
		callee.keys = &keyspace{owner: h.Key(), named: c.NamedKeys, contract: &c}
		callee.known = make(map[key.Addr]key.AccessRights)
	}
	if err := admitArgs(caller, callee, args); err != nil {
		return clvalue.CLValue{}, err
	}

	e.depth++
	err = fn(ctx, callee)
	e.depth--
	if err != nil {
		return clvalue.CLValue{}, err
	}

	ret := callee.returned()
	if ret.Type() != ep.Ret {
		return clvalue.CLValue{}, apierror.New(apierror.CLTypeMismatch, "entry point %q returned %s, declared %s", name, ret.Type(), ep.Ret)
	}
	return ret, nil
}

// checkAccess enforces group-restricted entry points: the calling frame
// must hold a reference granted to one of the entry point's groups.
func (e *Execution) checkAccess(ctx context.Context, caller *frame, c contract.Contract, ep contract.EntryPoint) error {
	if ep.Access.IsPublic() {
		return nil
	}
	p, err := e.readPackage(ctx, c.PackageHash)
	if err != nil {
		return err
	}
	for _, u := range p.GroupURefs(ep.Access.Groups) {
		if caller.possessed(u) != key.AccessNone {
			return nil
		}
	}
	return apierror.New(apierror.PermissionDenied, "caller is not a member of %v", ep.Access.Groups)
}

func checkArgs(ep contract.EntryPoint, args Args) error {
	for _, p := range ep.Params {
		v, ok := args[p.Name]
		if !ok {
			return apierror.New(apierror.MissingArgument, "entry point %q requires %q", ep.Name, p.Name)
		}
		if v.Type() != p.Type {
			return apierror.New(apierror.CLTypeMismatch, "argument %q is %s, want %s", p.Name, v.Type(), p.Type)
		}
	}
	return nil
}

// returned is the value set with Ret, or Unit when nothing was returned.
func (f *frame) returned() clvalue.CLValue {
	if f.ret == nil {
		return clvalue.UnitValue()
	}
	return *f.ret
}
