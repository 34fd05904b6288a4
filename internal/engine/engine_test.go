package engine_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/countergrid/internal/apierror"
	"github.com/vk/countergrid/internal/clvalue"
	"github.com/vk/countergrid/internal/engine"
	"github.com/vk/countergrid/internal/globalstate"
	"github.com/vk/countergrid/internal/globalstate/memory"
	"github.com/vk/countergrid/internal/globalstate/sqlite"
	"github.com/vk/countergrid/internal/key"
	"github.com/vk/countergrid/internal/metrics"
	"github.com/vk/countergrid/internal/registry"
	"github.com/vk/countergrid/internal/runtime"
	"github.com/vk/countergrid/modules/counter"
	"github.com/vk/countergrid/modules/countercall"
)

var defaultAccount = key.AccountHashFromName("default")

type failingModule struct{}

func (failingModule) Register(r *registry.Registry) {
	r.RegisterSession("write_then_fail", func(ctx context.Context, rt runtime.Runtime) error {
		u, err := rt.NewURef(clvalue.FromI32(1))
		if err != nil {
			return err
		}
		if err := rt.PutKey("leaked", u.Key()); err != nil {
			return err
		}
		return apierror.Revert(apierror.User(7))
	})
}

func newEngine(t *testing.T, store globalstate.Store, opts ...engine.Option) *engine.Engine {
	t.Helper()
	reg := registry.NewWith(&counter.Module{}, &countercall.Module{}, failingModule{})
	e := engine.New(store, reg, opts...)
	_, err := e.RunGenesis(context.Background(), "default")
	require.NoError(t, err)
	return e
}

func exec(t *testing.T, e *engine.Engine, target engine.Target) *engine.ExecutionResult {
	t.Helper()
	return e.Exec(context.Background(), engine.ExecuteRequest{Caller: defaultAccount, Target: target})
}

func mustSucceed(t *testing.T, r *engine.ExecutionResult) *engine.ExecutionResult {
	t.Helper()
	require.True(t, r.Success, "execution failed: %v", r.Err)
	return r
}

func install(t *testing.T, e *engine.Engine) {
	t.Helper()
	mustSucceed(t, exec(t, e, engine.Session{Module: counter.ModuleName}))
}

func inc(t *testing.T, e *engine.Engine) *engine.ExecutionResult {
	t.Helper()
	return exec(t, e, engine.ContractByName{Name: counter.ContractKey, EntryPoint: counter.EntryPointInc})
}

func queryI32(t *testing.T, e *engine.Engine, path ...string) int32 {
	t.Helper()
	v, err := e.Query(context.Background(), defaultAccount.Key(), path...)
	require.NoError(t, err)
	require.NotNil(t, v.CLValue)
	n, err := v.CLValue.AsI32()
	require.NoError(t, err)
	return n
}

func queryU32(t *testing.T, e *engine.Engine, path ...string) uint32 {
	t.Helper()
	v, err := e.Query(context.Background(), defaultAccount.Key(), path...)
	require.NoError(t, err)
	require.NotNil(t, v.CLValue)
	n, err := v.CLValue.AsU32()
	require.NoError(t, err)
	return n
}

func count(t *testing.T, e *engine.Engine) int32 {
	t.Helper()
	return queryI32(t, e, counter.ContractKey, counter.CountKey)
}

func TestInstall_StartsAtZeroVersionOne(t *testing.T) {
	e := newEngine(t, memory.New())
	install(t, e)

	assert.Equal(t, int32(0), count(t, e))
	assert.Equal(t, uint32(1), queryU32(t, e, counter.VersionKey))

	acct, err := e.Account(context.Background(), defaultAccount)
	require.NoError(t, err)
	for _, name := range []string{counter.PackageName, counter.AccessName, counter.ContractKey, counter.VersionKey} {
		_, ok := acct.NamedKeys.Get(name)
		assert.True(t, ok, "account must publish %q", name)
	}
}

func TestIncrement_Sequence(t *testing.T) {
	e := newEngine(t, memory.New())
	install(t, e)

	assert.Equal(t, int32(0), count(t, e))
	mustSucceed(t, inc(t, e))
	assert.Equal(t, int32(1), count(t, e))
	mustSucceed(t, inc(t, e))
	assert.Equal(t, int32(2), count(t, e))
}

func TestUndeclaredEntryPoint_LeavesValueUnchanged(t *testing.T) {
	e := newEngine(t, memory.New())
	install(t, e)
	mustSucceed(t, inc(t, e))

	res := exec(t, e, engine.ContractByName{Name: counter.ContractKey, EntryPoint: "counter_dec"})
	require.False(t, res.Success)
	code, ok := res.Code()
	require.True(t, ok)
	assert.Equal(t, apierror.NoSuchEntryPoint, code)
	assert.Empty(t, res.Effects)

	get := mustSucceed(t, exec(t, e, engine.ContractByName{Name: counter.ContractKey, EntryPoint: counter.EntryPointGet}))
	n, err := get.Ret.AsI32()
	require.NoError(t, err)
	assert.Equal(t, int32(1), n)
}

func TestGet_IsIdempotent(t *testing.T) {
	e := newEngine(t, memory.New())
	install(t, e)
	mustSucceed(t, inc(t, e))

	for i := 0; i < 3; i++ {
		res := mustSucceed(t, exec(t, e, engine.ContractByName{Name: counter.ContractKey, EntryPoint: counter.EntryPointGet}))
		n, err := res.Ret.AsI32()
		require.NoError(t, err)
		assert.Equal(t, int32(1), n)
		assert.Empty(t, res.Effects, "a read must not change state")
	}
}

func TestConcurrentIncrements(t *testing.T) {
	e := newEngine(t, memory.New())
	install(t, e)

	numGoroutines := 64
	var wg sync.WaitGroup
	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func() {
			defer wg.Done()
			res := e.Exec(context.Background(), engine.ExecuteRequest{
				Caller: defaultAccount,
				Target: engine.ContractByName{Name: counter.ContractKey, EntryPoint: counter.EntryPointInc},
			})
			assert.True(t, res.Success, "increment failed: %v", res.Err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(numGoroutines), count(t, e))
}

func TestReinstall_AddsVersion(t *testing.T) {
	e := newEngine(t, memory.New())
	install(t, e)
	mustSucceed(t, inc(t, e))

	install(t, e)
	assert.Equal(t, uint32(2), queryU32(t, e, counter.VersionKey))
	assert.Equal(t, int32(0), count(t, e), "the new version starts its own count")

	v1 := uint32(1)
	res := mustSucceed(t, exec(t, e, engine.VersionedContractByName{Name: counter.PackageName, Version: &v1, EntryPoint: counter.EntryPointGet}))
	n, _ := res.Ret.AsI32()
	assert.Equal(t, int32(1), n, "version 1 keeps its state")

	mustSucceed(t, exec(t, e, engine.VersionedContractByName{Name: counter.PackageName, EntryPoint: counter.EntryPointInc}))
	assert.Equal(t, int32(1), count(t, e), "nil version resolves to the latest")

	v3 := uint32(3)
	res = exec(t, e, engine.VersionedContractByName{Name: counter.PackageName, Version: &v3, EntryPoint: counter.EntryPointGet})
	code, _ := res.Code()
	assert.Equal(t, apierror.InvalidContractVersion, code)
}

func TestFailedExecution_CommitsNothing(t *testing.T) {
	e := newEngine(t, memory.New())

	res := exec(t, e, engine.Session{Module: "write_then_fail"})
	require.False(t, res.Success)
	code, ok := res.Code()
	require.True(t, ok)
	assert.Equal(t, apierror.User(7), code)

	acct, err := e.Account(context.Background(), defaultAccount)
	require.NoError(t, err)
	assert.Zero(t, acct.NamedKeys.Len())
}

func TestExec_RequestErrors(t *testing.T) {
	e := newEngine(t, memory.New())
	install(t, e)

	testCases := []struct {
		name   string
		caller key.AccountHash
		target engine.Target
		code   apierror.Code
	}{
		{name: "no target", caller: defaultAccount, code: apierror.InvalidArgument},
		{name: "unknown session", caller: defaultAccount, target: engine.Session{Module: "nope"}, code: apierror.ModuleNotFound},
		{name: "unknown account", caller: key.AccountHashFromName("stranger"), target: engine.Session{Module: counter.ModuleName}, code: apierror.ValueNotFound},
		{name: "unbound name", caller: defaultAccount, target: engine.ContractByName{Name: "missing", EntryPoint: counter.EntryPointGet}, code: apierror.MissingKey},
		{name: "name bound to a reference", caller: defaultAccount, target: engine.ContractByName{Name: counter.VersionKey, EntryPoint: counter.EntryPointGet}, code: apierror.UnexpectedKeyVariant},
		{name: "unknown hash", caller: defaultAccount, target: engine.ContractByHash{Hash: key.Hash{1}, EntryPoint: counter.EntryPointGet}, code: apierror.ContractNotFound},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res := e.Exec(context.Background(), engine.ExecuteRequest{Caller: tc.caller, Target: tc.target})
			require.False(t, res.Success)
			code, ok := res.Code()
			require.True(t, ok, "unexpected error: %v", res.Err)
			assert.Equal(t, tc.code, code)
		})
	}
}

func TestCounterCallSession(t *testing.T) {
	e := newEngine(t, memory.New())
	install(t, e)

	res := mustSucceed(t, exec(t, e, engine.Session{Module: countercall.ModuleName}))
	n, _ := res.Ret.AsI32()
	assert.Equal(t, int32(1), n)

	acct, err := e.Account(context.Background(), defaultAccount)
	require.NoError(t, err)
	k, _ := acct.NamedKeys.Get(counter.ContractKey)
	res = e.Exec(context.Background(), engine.ExecuteRequest{
		Caller: defaultAccount,
		Target: engine.Session{Module: countercall.ModuleName},
		Args:   runtime.Args{countercall.ArgCounter: clvalue.FromKey(k)},
	})
	mustSucceed(t, res)
	assert.Equal(t, int32(2), count(t, e))
}

func TestQuery_Errors(t *testing.T) {
	e := newEngine(t, memory.New())
	install(t, e)
	ctx := context.Background()

	_, err := e.Query(ctx, defaultAccount.Key(), "nope")
	assert.True(t, errors.Is(err, apierror.Revert(apierror.MissingKey)))

	_, err = e.Query(ctx, defaultAccount.Key(), counter.VersionKey, "deeper")
	assert.True(t, errors.Is(err, apierror.Revert(apierror.UnexpectedKeyVariant)))

	_, err = e.Query(ctx, key.AccountHashFromName("nobody").Key())
	assert.True(t, errors.Is(err, apierror.Revert(apierror.ValueNotFound)))
}

func TestGenesis_IsIdempotent(t *testing.T) {
	e := newEngine(t, memory.New())
	install(t, e)

	hashes, err := e.RunGenesis(context.Background(), "default", "other")
	require.NoError(t, err)
	assert.Equal(t, []key.AccountHash{defaultAccount, key.AccountHashFromName("other")}, hashes)

	assert.Equal(t, int32(0), count(t, e), "genesis must not reset existing accounts")
}

func TestMetricsAreRecorded(t *testing.T) {
	m := metrics.New()
	e := newEngine(t, memory.New(), engine.WithMetrics(m))
	install(t, e)
	mustSucceed(t, inc(t, e))
	exec(t, e, engine.ContractByName{Name: counter.ContractKey, EntryPoint: "counter_dec"})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ExecTotal(engine.KindSession, metrics.OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ExecTotal(engine.KindContract, metrics.OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ExecTotal(engine.KindContract, metrics.OutcomeFailure)))
	// genesis, install and one increment
	assert.Equal(t, 3.0, testutil.ToFloat64(m.CommitsTotal()))
}

func TestSQLiteState_SurvivesEngines(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.db")

	first, err := sqlite.Open(ctx, path)
	require.NoError(t, err)
	e1 := newEngine(t, first)
	install(t, e1)
	mustSucceed(t, inc(t, e1))
	require.NoError(t, first.Close())

	second, err := sqlite.Open(ctx, path)
	require.NoError(t, err)
	defer second.Close()
	e2 := newEngine(t, second)

	assert.Equal(t, int32(1), count(t, e2))
	mustSucceed(t, inc(t, e2))
	assert.Equal(t, int32(2), count(t, e2))
	assert.Equal(t, uint32(1), queryU32(t, e2, counter.VersionKey))
}
