// Package countercall is session code that drives an installed counter
// through nested contract calls and checks that one increment adds exactly
// one.
package countercall

import (
	"context"

	"github.com/vk/countergrid/internal/apierror"
	"github.com/vk/countergrid/internal/clvalue"
	"github.com/vk/countergrid/internal/key"
	"github.com/vk/countergrid/internal/registry"
	"github.com/vk/countergrid/internal/runtime"
	"github.com/vk/countergrid/modules/counter"
)

// ModuleName is the session name this module registers.
const ModuleName = "counter_call"

// ArgCounter optionally carries the contract hash to call. Without it the
// caller's "counter" named key is used.
const ArgCounter = "counter"

// ErrUnexpectedCount is the revert code used when the counter did not grow
// by exactly one.
var ErrUnexpectedCount = apierror.User(0)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the session with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterSession(ModuleName, Call)
}

// Call reads the counter, increments it, reads it again and returns the new
// value.
func Call(ctx context.Context, rt runtime.Runtime) error {
	h, err := counterHash(rt)
	if err != nil {
		return err
	}

	before, err := get(ctx, rt, h)
	if err != nil {
		return err
	}
	if _, err := rt.CallContract(ctx, h, counter.EntryPointInc, nil); err != nil {
		return err
	}
	after, err := get(ctx, rt, h)
	if err != nil {
		return err
	}

	if after != before+1 {
		return apierror.New(ErrUnexpectedCount, "counter went from %d to %d", before, after)
	}
	rt.Ret(clvalue.FromI32(after))
	return nil
}

func counterHash(rt runtime.Runtime) (key.Hash, error) {
	k, ok := rt.GetKey(counter.ContractKey)
	if arg, present := rt.Arg(ArgCounter); present {
		ak, err := arg.AsKey()
		if err != nil {
			return key.Hash{}, apierror.Wrap(apierror.InvalidArgument, err, "argument %q", ArgCounter)
		}
		k, ok = ak, true
	}
	if !ok {
		return key.Hash{}, apierror.Revert(apierror.MissingKey)
	}
	h, ok := k.AsHash()
	if !ok {
		return key.Hash{}, apierror.Revert(apierror.UnexpectedKeyVariant)
	}
	return h, nil
}

func get(ctx context.Context, rt runtime.Runtime, h key.Hash) (int32, error) {
	v, err := rt.CallContract(ctx, h, counter.EntryPointGet, nil)
	if err != nil {
		return 0, err
	}
	return v.AsI32()
}
