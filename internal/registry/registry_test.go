package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/countergrid/internal/apierror"
	"github.com/vk/countergrid/internal/clvalue"
	"github.com/vk/countergrid/internal/contract"
	"github.com/vk/countergrid/internal/runtime"
)

func noop(ctx context.Context, rt runtime.Runtime) error { return nil }

type fakeModule struct{ name string }

func (m *fakeModule) Register(r *Registry) {
	r.RegisterSession(m.name, noop)
	r.RegisterContract(m.name, map[string]runtime.EntryPointFunc{"run": noop})
}

func TestRegistry_Lookup(t *testing.T) {
	r := NewWith(&fakeModule{name: "b"}, &fakeModule{name: "a"})

	_, ok := r.Session("a")
	assert.True(t, ok)
	_, ok = r.Session("c")
	assert.False(t, ok)

	_, ok = r.EntryPoint("b", "run")
	assert.True(t, ok)
	_, ok = r.EntryPoint("b", "walk")
	assert.False(t, ok)
	_, ok = r.EntryPoint("c", "run")
	assert.False(t, ok)

	assert.Equal(t, []string{"a", "b"}, r.Sessions())
}

func TestRegistry_DuplicatesPanic(t *testing.T) {
	r := New()
	r.RegisterSession("x", noop)
	assert.Panics(t, func() { r.RegisterSession("x", noop) })

	r.RegisterContract("x", map[string]runtime.EntryPointFunc{"run": noop})
	assert.Panics(t, func() { r.RegisterContract("x", nil) })

	assert.Panics(t, func() { r.RegisterSession("nil", nil) })
	assert.Panics(t, func() {
		r.RegisterContract("nil", map[string]runtime.EntryPointFunc{"run": nil})
	})
}

func TestValidateEntryPoints(t *testing.T) {
	r := NewWith(&fakeModule{name: "m"})
	ep := func(name string) contract.EntryPoint {
		return contract.NewEntryPoint(name, nil, clvalue.Unit, contract.Public(), contract.TypeContract)
	}

	testCases := []struct {
		name   string
		module string
		eps    []contract.EntryPoint
		code   apierror.Code
	}{
		{name: "all compiled", module: "m", eps: []contract.EntryPoint{ep("run")}},
		{name: "empty set", module: "m"},
		{name: "missing handler", module: "m", eps: []contract.EntryPoint{ep("run"), ep("fly")}, code: apierror.NoSuchEntryPoint},
		{name: "unknown module", module: "z", eps: []contract.EntryPoint{ep("run")}, code: apierror.ModuleNotFound},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			eps, err := contract.NewEntryPoints(tc.eps...)
			require.NoError(t, err)

			err = r.ValidateEntryPoints(tc.module, eps)
			if tc.code == 0 {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, apierror.Revert(tc.code)))
		})
	}
}
