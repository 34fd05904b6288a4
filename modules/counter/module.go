// Package counter is the counter contract: one stored I32 and two entry
// points, counter_inc and counter_get.
//
// Deploying the "counter" session installs the contract and publishes its
// handles in the deploying account's named keys:
//
//	counter_package_name  package hash
//	counter_access_uref   package access reference
//	counter               contract hash
//	version               reference to the installed version number (U32)
//
// The stored value lives under the contract's own named key "count".
package counter

import (
	"context"

	"github.com/vk/countergrid/internal/apierror"
	"github.com/vk/countergrid/internal/clvalue"
	"github.com/vk/countergrid/internal/contract"
	"github.com/vk/countergrid/internal/key"
	"github.com/vk/countergrid/internal/namedkeys"
	"github.com/vk/countergrid/internal/registry"
	"github.com/vk/countergrid/internal/runtime"
)

const (
	// ModuleName is the name both the install session and the contract
	// module are registered under.
	ModuleName = "counter"

	PackageName = "counter_package_name"
	AccessName  = "counter_access_uref"

	EntryPointInc = "counter_inc"
	EntryPointGet = "counter_get"

	VersionKey  = "version"
	ContractKey = "counter"
	CountKey    = "count"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the install session and the entry points.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterSession(ModuleName, Install)
	r.RegisterContract(ModuleName, map[string]runtime.EntryPointFunc{
		EntryPointInc: Inc,
		EntryPointGet: Get,
	})
}

// EntryPoints returns the entry points the contract declares.
func EntryPoints() (contract.EntryPoints, error) {
	return contract.NewEntryPoints(
		contract.NewEntryPoint(EntryPointGet, nil, clvalue.I32, contract.Public(), contract.TypeContract),
		contract.NewEntryPoint(EntryPointInc, nil, clvalue.Unit, contract.Public(), contract.TypeContract),
	)
}

// Install creates the count slot, registers the contract and publishes the
// version and contract hash in the caller's named keys.
func Install(ctx context.Context, rt runtime.Runtime) error {
	countStart, err := rt.NewURef(clvalue.FromI32(0))
	if err != nil {
		return err
	}

	nk := namedkeys.NewBuilder()
	if err := nk.Insert(CountKey, countStart.Key()); err != nil {
		return err
	}

	eps, err := EntryPoints()
	if err != nil {
		return err
	}

	contractHash, version, err := rt.NewContract(ctx, eps, nk.Build(), PackageName, AccessName)
	if err != nil {
		return err
	}

	versionURef, err := rt.NewURef(clvalue.FromU32(version))
	if err != nil {
		return err
	}
	if err := rt.PutKey(VersionKey, versionURef.Key()); err != nil {
		return err
	}
	return rt.PutKey(ContractKey, contractHash.Key())
}

// Inc adds one to the stored count.
func Inc(ctx context.Context, rt runtime.Runtime) error {
	u, err := countURef(rt)
	if err != nil {
		return err
	}
	return rt.Add(ctx, u, clvalue.FromI32(1))
}

// Get returns the stored count.
func Get(ctx context.Context, rt runtime.Runtime) error {
	u, err := countURef(rt)
	if err != nil {
		return err
	}
	v, found, err := rt.Read(ctx, u)
	if err != nil {
		return err
	}
	if !found {
		return apierror.Revert(apierror.ValueNotFound)
	}
	n, err := v.AsI32()
	if err != nil {
		return err
	}
	rt.Ret(clvalue.FromI32(n))
	return nil
}

func countURef(rt runtime.Runtime) (key.URef, error) {
	k, ok := rt.GetKey(CountKey)
	if !ok {
		return key.URef{}, apierror.Revert(apierror.MissingKey)
	}
	u, ok := k.AsURef()
	if !ok {
		return key.URef{}, apierror.Revert(apierror.UnexpectedKeyVariant)
	}
	return u, nil
}
