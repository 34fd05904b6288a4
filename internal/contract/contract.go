// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package contract describes installed logic: the versioned Package a
// contract belongs to, the Contract itself and the entry points it exposes.
package contract

import (
	"sort"

	"github.com/vk/countergrid/internal/key"
	"github.com/vk/countergrid/internal/namedkeys"
)

// Contract is one installed version of a package.
type Contract struct {
	PackageHash key.Hash            `json:"package_hash"`
	Module      string              `json:"module"`
	NamedKeys   namedkeys.NamedKeys `json:"named_keys"`
	EntryPoints EntryPoints         `json:"entry_points"`
}

// Package groups the versions of one contract under a stable identity.
// The holder of AccessURef may add new versions.
type Package struct {
	AccessURef key.URef              `json:"access_uref"`
	Versions   map[uint32]key.Hash   `json:"versions"`
	Disabled   map[uint32]bool       `json:"disabled,omitempty"`
	Groups     map[string][]key.URef `json:"groups,omitempty"`
}

// NewPackage creates an empty package guarded by accessURef.
func NewPackage(accessURef key.URef) Package {
	return Package{
		AccessURef: accessURef,
		Versions:   make(map[uint32]key.Hash),
	}
}

// NextVersion returns the version number the next registration receives.
// Versions start at 1 and only ever increase.
func (p Package) NextVersion() uint32 {
	var highest uint32
	for v := range p.Versions {
		if v > highest {
			highest = v
		}
	}
	return highest + 1
}

// WithVersion returns a copy of p with contractHash registered as the next
// version, and that version number. p itself is left untouched.
func (p Package) WithVersion(contractHash key.Hash) (Package, uint32) {
	version := p.NextVersion()
	out := Package{
		AccessURef: p.AccessURef,
		Versions:   make(map[uint32]key.Hash, len(p.Versions)+1),
		Disabled:   p.Disabled,
		Groups:     p.Groups,
	}
	for v, h := range p.Versions {
		out.Versions[v] = h
	}
	out.Versions[version] = contractHash
	return out, version
}

// Lookup returns the contract hash registered as version.
func (p Package) Lookup(version uint32) (key.Hash, bool) {
	if p.Disabled[version] {
		return key.Hash{}, false
	}
	h, ok := p.Versions[version]
	return h, ok
}

// Latest returns the highest enabled version and its contract hash.
func (p Package) Latest() (uint32, key.Hash, bool) {
	versions := make([]uint32, 0, len(p.Versions))
	for v := range p.Versions {
		if !p.Disabled[v] {
			versions = append(versions, v)
		}
	}
	if len(versions) == 0 {
		return 0, key.Hash{}, false
	}
	sort.Slice(versions, func(i, j int) bool { return versions[i] > versions[j] })
	return versions[0], p.Versions[versions[0]], true
}

// GroupURefs returns every URef granted membership in the named groups.
func (p Package) GroupURefs(groups []string) []key.URef {
	var out []key.URef
	for _, g := range groups {
		out = append(out, p.Groups[g]...)
	}
	return out
}
