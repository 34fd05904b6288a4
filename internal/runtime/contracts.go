// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package runtime

import (
	"context"

	"github.com/vk/countergrid/internal/apierror"
	"github.com/vk/countergrid/internal/contract"
	"github.com/vk/countergrid/internal/globalstate"
	"github.com/vk/countergrid/internal/key"
	"github.com/vk/countergrid/internal/namedkeys"
)

func (f *frame) NewContract(ctx context.Context, eps contract.EntryPoints, nk namedkeys.NamedKeys, packageName, accessName string) (key.Hash, uint32, error) {
	if f.module == "" {
		return key.Hash{}, 0, apierror.New(apierror.ModuleNotFound, "no module is running")
	}
	if err := f.exec.modules.ValidateEntryPoints(f.module, eps); err != nil {
		return key.Hash{}, 0, err
	}
	for _, u := range nk.URefs() {
		if !f.possessed(u).Has(u.Rights) {
			return key.Hash{}, 0, apierror.New(apierror.NoAccessRights, "contract named keys pass %s, which the installer does not hold", u)
		}
	}

	pkgHash, pkg, access, err := f.packageForInstall(ctx, packageName, accessName)
	if err != nil {
		return key.Hash{}, 0, err
	}

	contractHash := f.exec.gen.NewHash()
	pkg, version := pkg.WithVersion(contractHash)

	c := contract.Contract{
		PackageHash: pkgHash,
		Module:      f.module,
		NamedKeys:   nk,
		EntryPoints: eps,
	}
	f.exec.tc.Write(contractHash.Key(), globalstate.NewContract(c))
	f.exec.tc.Write(pkgHash.Key(), globalstate.NewPackage(pkg))
	f.grant(access)

	if packageName != "" {
		if err := f.PutKey(packageName, pkgHash.Key()); err != nil {
			return key.Hash{}, 0, err
		}
	}
	if accessName != "" {
		if err := f.PutKey(accessName, access.Key()); err != nil {
			return key.Hash{}, 0, err
		}
	}
	return contractHash, version, nil
}

// packageForInstall returns the package a new contract version goes into.
// An existing package is reused only when this frame binds it under
// packageName, binds its access reference under accessName and holds that
// reference with full rights. Anything else starts a new package.
func (f *frame) packageForInstall(ctx context.Context, packageName, accessName string) (key.Hash, contract.Package, key.URef, error) {
	existing, ok, err := f.existingPackage(ctx, packageName, accessName)
	if err != nil {
		return key.Hash{}, contract.Package{}, key.URef{}, err
	}
	if ok {
		return existing.hash, existing.pkg, existing.pkg.AccessURef, nil
	}
	access := f.exec.gen.NewURef(key.AccessReadAddWrite)
	return f.exec.gen.NewHash(), contract.NewPackage(access), access, nil
}

type boundPackage struct {
	hash key.Hash
	pkg  contract.Package
}

func (f *frame) existingPackage(ctx context.Context, packageName, accessName string) (boundPackage, bool, error) {
	if packageName == "" || accessName == "" {
		return boundPackage{}, false, nil
	}
	pk, ok := f.GetKey(packageName)
	if !ok {
		return boundPackage{}, false, nil
	}
	h, ok := pk.AsHash()
	if !ok {
		return boundPackage{}, false, nil
	}
	ak, ok := f.GetKey(accessName)
	if !ok {
		return boundPackage{}, false, nil
	}
	access, ok := ak.AsURef()
	if !ok {
		return boundPackage{}, false, nil
	}
	pkg, err := f.exec.readPackage(ctx, h)
	if err != nil {
		if code, _ := apierror.CodeOf(err); code == apierror.Read {
			return boundPackage{}, false, err
		}
		return boundPackage{}, false, nil
	}
	if pkg.AccessURef.Addr != access.Addr || !f.possessed(pkg.AccessURef).Has(pkg.AccessURef.Rights) {
		return boundPackage{}, false, nil
	}
	return boundPackage{hash: h, pkg: pkg}, true, nil
}
