// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package contract

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/vk/countergrid/internal/apierror"
	"github.com/vk/countergrid/internal/clvalue"
)

// EntryPointType selects whose context an entry point runs in.
type EntryPointType uint8

const (
	// TypeContract runs with the contract's own named keys, whoever calls it.
	TypeContract EntryPointType = iota
	// TypeSession runs with the caller's named keys.
	TypeSession
)

// String returns "contract" or "session".
func (t EntryPointType) String() string {
	if t == TypeSession {
		return "session"
	}
	return "contract"
}

// Access guards who may call an entry point. A nil Groups list means public.
type Access struct {
	Groups []string `json:"groups,omitempty"`
}

// Public returns the access level callable by anyone.
func Public() Access {
	return Access{}
}

// Groups returns an access level callable only by holders of a URef from
// one of the named package groups.
func Groups(names ...string) Access {
	return Access{Groups: names}
}

// IsPublic reports whether a is the public access level.
func (a Access) IsPublic() bool {
	return len(a.Groups) == 0
}

// Parameter declares one named argument of an entry point.
type Parameter struct {
	Name string         `json:"name"`
	Type clvalue.CLType `json:"cl_type"`
}

// EntryPoint declares one externally callable operation.
type EntryPoint struct {
	Name   string         `json:"name"`
	Params []Parameter    `json:"params,omitempty"`
	Ret    clvalue.CLType `json:"ret"`
	Access Access         `json:"access"`
	Type   EntryPointType `json:"type"`
}

// NewEntryPoint creates an entry point declaration.
func NewEntryPoint(name string, params []Parameter, ret clvalue.CLType, access Access, typ EntryPointType) EntryPoint {
	return EntryPoint{Name: name, Params: params, Ret: ret, Access: access, Type: typ}
}

// EntryPoints is an immutable set of entry points with unique names.
type EntryPoints struct {
	m map[string]EntryPoint
}

// NewEntryPoints builds a set from eps. Names must be unique.
func NewEntryPoints(eps ...EntryPoint) (EntryPoints, error) {
	m := make(map[string]EntryPoint, len(eps))
	for _, ep := range eps {
		if ep.Name == "" {
			return EntryPoints{}, apierror.New(apierror.InvalidArgument, "entry point name cannot be empty")
		}
		if _, exists := m[ep.Name]; exists {
			return EntryPoints{}, apierror.New(apierror.DuplicateKey, "entry point %q declared twice", ep.Name)
		}
		m[ep.Name] = ep
	}
	return EntryPoints{m: m}, nil
}

// Get returns the entry point called name.
func (e EntryPoints) Get(name string) (EntryPoint, bool) {
	ep, ok := e.m[name]
	return ep, ok
}

// Names returns all entry point names in sorted order.
func (e EntryPoints) Names() []string {
	names := make([]string, 0, len(e.m))
	for name := range e.m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of entry points.
func (e EntryPoints) Len() int {
	return len(e.m)
}

// All returns the entry points sorted by name.
func (e EntryPoints) All() []EntryPoint {
	out := make([]EntryPoint, 0, len(e.m))
	for _, name := range e.Names() {
		out = append(out, e.m[name])
	}
	return out
}

// MarshalJSON encodes the set as a name-sorted list.
func (e EntryPoints) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.All())
}

// UnmarshalJSON decodes the form produced by MarshalJSON.
func (e *EntryPoints) UnmarshalJSON(data []byte) error {
	var eps []EntryPoint
	if err := json.Unmarshal(data, &eps); err != nil {
		return err
	}
	decoded, err := NewEntryPoints(eps...)
	if err != nil {
		return fmt.Errorf("decode entry points: %w", err)
	}
	*e = decoded
	return nil
}
