// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package runtime

import (
	"context"
	"errors"

	"github.com/vk/countergrid/internal/apierror"
	"github.com/vk/countergrid/internal/clvalue"
	"github.com/vk/countergrid/internal/contract"
	"github.com/vk/countergrid/internal/globalstate"
	"github.com/vk/countergrid/internal/key"
	"github.com/vk/countergrid/internal/namedkeys"
)

// keyspace is the owner of a frame's named keys: an account or a contract.
// Session-type calls share their caller's keyspace.
type keyspace struct {
	owner    key.Key
	named    namedkeys.NamedKeys
	account  *globalstate.Account
	contract *contract.Contract
}

// record returns the stored form of the owner with the current named keys.
func (ks *keyspace) record() globalstate.StoredValue {
	if ks.contract != nil {
		c := *ks.contract
		c.NamedKeys = ks.named
		return globalstate.NewContract(c)
	}
	a := *ks.account
	a.NamedKeys = ks.named
	return globalstate.NewAccount(a)
}

// frame implements Runtime for one call.
type frame struct {
	exec   *Execution
	module string
	keys   *keyspace
	known  map[key.Addr]key.AccessRights
	args   Args
	ret    *clvalue.CLValue
}

var _ Runtime = (*frame)(nil)

func (f *frame) grant(u key.URef) {
	f.known[u.Addr] |= u.Rights
}

// admitArgs grants to every URef passed in args after checking that from
// holds each one with the rights it presents.
func admitArgs(from, to *frame, args Args) error {
	for name, v := range args {
		if v.Type() != clvalue.Key {
			continue
		}
		k, err := v.AsKey()
		if err != nil {
			return err
		}
		u, ok := k.AsURef()
		if !ok {
			continue
		}
		if !from.possessed(u).Has(u.Rights) {
			return apierror.New(apierror.NoAccessRights, "argument %q passes %s, which the caller does not hold", name, u)
		}
		to.grant(u)
	}
	return nil
}

// possessed returns the rights this frame holds on the slot behind u.
func (f *frame) possessed(u key.URef) key.AccessRights {
	rights := f.known[u.Addr]
	for _, held := range f.keys.named.URefs() {
		if held.Addr == u.Addr {
			rights |= held.Rights
		}
	}
	return rights
}

// check validates that u carries want and that the frame really holds it.
func (f *frame) check(u key.URef, want key.AccessRights) error {
	if !u.Rights.Has(want) || !f.possessed(u).Has(want) {
		return apierror.New(apierror.NoAccessRights, "%s lacks %s", u, want)
	}
	return nil
}

func (f *frame) GetKey(name string) (key.Key, bool) {
	return f.keys.named.Get(name)
}

func (f *frame) PutKey(name string, k key.Key) error {
	if name == "" {
		return apierror.New(apierror.InvalidArgument, "named key name cannot be empty")
	}
	if k.IsZero() {
		return apierror.New(apierror.InvalidArgument, "named key %q bound to invalid key", name)
	}
	if u, ok := k.AsURef(); ok && !f.possessed(u).Has(u.Rights) {
		return apierror.New(apierror.NoAccessRights, "cannot bind %q to %s without holding it", name, u)
	}
	f.keys.named = f.keys.named.With(name, k)
	f.exec.tc.Write(f.keys.owner, f.keys.record())
	return nil
}

func (f *frame) NamedKeys() namedkeys.NamedKeys {
	return f.keys.named
}

func (f *frame) NewURef(v clvalue.CLValue) (key.URef, error) {
	if !v.IsValid() {
		return key.URef{}, apierror.New(apierror.InvalidArgument, "cannot store an invalid value")
	}
	u := f.exec.gen.NewURef(key.AccessReadAddWrite)
	f.exec.tc.Write(u.Key(), globalstate.NewCLValue(v))
	f.grant(u)
	return u, nil
}

func (f *frame) Read(ctx context.Context, u key.URef) (clvalue.CLValue, bool, error) {
	if err := f.check(u, key.AccessRead); err != nil {
		return clvalue.CLValue{}, false, err
	}
	sv, found, err := f.exec.tc.Read(ctx, u.Key())
	if err != nil {
		return clvalue.CLValue{}, false, asReadFailure(err, u)
	}
	if !found {
		return clvalue.CLValue{}, false, nil
	}
	if sv.CLValue == nil {
		return clvalue.CLValue{}, false, apierror.New(apierror.CLTypeMismatch, "%s holds %s, not a value", u, sv.Kind())
	}
	return *sv.CLValue, true, nil
}

func (f *frame) Write(u key.URef, v clvalue.CLValue) error {
	if err := f.check(u, key.AccessWrite); err != nil {
		return err
	}
	if !v.IsValid() {
		return apierror.New(apierror.InvalidArgument, "cannot store an invalid value")
	}
	f.exec.tc.Write(u.Key(), globalstate.NewCLValue(v))
	return nil
}

func (f *frame) Add(ctx context.Context, u key.URef, delta clvalue.CLValue) error {
	if err := f.check(u, key.AccessAdd); err != nil {
		return err
	}
	if err := f.exec.tc.Add(ctx, u.Key(), delta); err != nil {
		return asReadFailure(err, u)
	}
	return nil
}

func (f *frame) CallContract(ctx context.Context, h key.Hash, entryPoint string, args Args) (clvalue.CLValue, error) {
	return f.exec.callContract(ctx, f, h, entryPoint, args)
}

func (f *frame) CallVersionedContract(ctx context.Context, pkg key.Hash, version *uint32, entryPoint string, args Args) (clvalue.CLValue, error) {
	h, err := f.exec.ResolveVersion(ctx, pkg, version)
	if err != nil {
		return clvalue.CLValue{}, err
	}
	return f.exec.callContract(ctx, f, h, entryPoint, args)
}

func (f *frame) Arg(name string) (clvalue.CLValue, bool) {
	v, ok := f.args[name]
	return v, ok
}

func (f *frame) Ret(v clvalue.CLValue) {
	f.ret = &v
}

func (f *frame) Caller() key.AccountHash {
	return f.exec.caller
}

// asReadFailure keeps reason-coded errors and maps anything else coming out
// of the store to a read failure.
func asReadFailure(err error, u key.URef) error {
	var apiErr *apierror.Error
	if errors.As(err, &apiErr) {
		return err
	}
	return apierror.Wrap(apierror.Read, err, "read %s", u)
}
