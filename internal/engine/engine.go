// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vk/countergrid/internal/apierror"
	"github.com/vk/countergrid/internal/clvalue"
	"github.com/vk/countergrid/internal/ctxlog"
	"github.com/vk/countergrid/internal/globalstate"
	"github.com/vk/countergrid/internal/key"
	"github.com/vk/countergrid/internal/metrics"
	"github.com/vk/countergrid/internal/namedkeys"
	"github.com/vk/countergrid/internal/runtime"
	"golang.org/x/crypto/blake2b"
)

// Engine runs requests against global state.
type Engine struct {
	// mu serializes executions.
	mu      sync.Mutex
	store   globalstate.Store
	modules runtime.Modules
	metrics *metrics.Metrics
}

// Option configures an Engine.
type Option func(*Engine)

// WithMetrics records executions and commits in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// New creates an Engine over store running code from modules.
func New(store globalstate.Store, modules runtime.Modules, opts ...Option) *Engine {
	e := &Engine{store: store, modules: modules}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RunGenesis creates every named account that does not exist yet, with an
// empty named-key registry. Existing accounts are left untouched, so
// running genesis again against a persistent store is harmless.
func (e *Engine) RunGenesis(ctx context.Context, names ...string) ([]key.AccountHash, error) {
	logger := ctxlog.FromContext(ctx)

	e.mu.Lock()
	defer e.mu.Unlock()

	hashes := make([]key.AccountHash, 0, len(names))
	var effects []globalstate.Effect
	for _, name := range names {
		h := key.AccountHashFromName(name)
		hashes = append(hashes, h)

		_, found, err := e.store.Get(ctx, h.Key())
		if err != nil {
			return nil, fmt.Errorf("genesis: load account %q: %w", name, err)
		}
		if found {
			logger.Debug("Genesis account already exists.", "account", name, "hash", h)
			continue
		}
		acct := globalstate.Account{Hash: h, NamedKeys: namedkeys.Empty()}
		effects = append(effects, globalstate.Effect{Key: h.Key(), Transform: globalstate.Write(globalstate.NewAccount(acct))})
		logger.Debug("Creating genesis account.", "account", name, "hash", h)
	}

	if len(effects) > 0 {
		if err := e.store.Commit(ctx, effects); err != nil {
			return nil, fmt.Errorf("genesis: commit: %w", err)
		}
		e.metrics.ObserveCommit()
	}
	logger.Info("Genesis complete.", "accounts", len(names), "created", len(effects))
	return hashes, nil
}

// Exec runs req. Effects are committed only when every step succeeds.
func (e *Engine) Exec(ctx context.Context, req ExecuteRequest) *ExecutionResult {
	start := time.Now()
	result := &ExecutionResult{DeployHash: newDeployHash(), Ret: clvalue.UnitValue()}

	kind := "unknown"
	if req.Target != nil {
		kind = req.Target.kind()
	}
	ctx = ctxlog.With(ctx, "deploy", result.DeployHash.String(), "kind", kind, "caller", req.Caller.String())
	logger := ctxlog.FromContext(ctx)

	e.mu.Lock()
	ret, effects, err := e.run(ctx, result.DeployHash, req)
	if err == nil {
		if err = e.store.Commit(ctx, effects); err == nil {
			e.metrics.ObserveCommit()
		}
	}
	e.mu.Unlock()

	result.Duration = time.Since(start)
	e.metrics.ObserveExec(kind, err == nil, result.Duration)

	if err != nil {
		result.Err = err
		logger.Debug("Execution failed; effects discarded.", "error", err, "duration", result.Duration)
		return result
	}
	result.Success = true
	result.Ret = ret
	result.Effects = effects
	logger.Debug("Execution committed.", "effects", len(effects), "ret", ret.String(), "duration", result.Duration)
	return result
}

func (e *Engine) run(ctx context.Context, deploy DeployHash, req ExecuteRequest) (clvalue.CLValue, []globalstate.Effect, error) {
	if err := ctx.Err(); err != nil {
		return clvalue.CLValue{}, nil, err
	}
	x := runtime.NewExecution(globalstate.NewTrackingCopy(e.store), key.NewAddressGenerator(deploy), e.modules, req.Caller)

	var (
		ret clvalue.CLValue
		err error
	)
	switch t := req.Target.(type) {
	case Session:
		ret, err = x.RunSession(ctx, t.Module, req.Args)
	case ContractByHash:
		ret, err = x.CallContract(ctx, t.Hash, t.EntryPoint, req.Args)
	case ContractByName:
		var h key.Hash
		if h, err = namedHash(ctx, x, t.Name); err == nil {
			ret, err = x.CallContract(ctx, h, t.EntryPoint, req.Args)
		}
	case VersionedContractByName:
		var pkg, h key.Hash
		if pkg, err = namedHash(ctx, x, t.Name); err == nil {
			if h, err = x.ResolveVersion(ctx, pkg, t.Version); err == nil {
				ret, err = x.CallContract(ctx, h, t.EntryPoint, req.Args)
			}
		}
	case nil:
		err = apierror.New(apierror.InvalidArgument, "request has no target")
	default:
		err = apierror.New(apierror.InvalidArgument, "unsupported target %T", t)
	}
	if err != nil {
		return clvalue.CLValue{}, nil, err
	}
	return ret, x.Effects(), nil
}

func namedHash(ctx context.Context, x *runtime.Execution, name string) (key.Hash, error) {
	k, err := x.NamedKey(ctx, name)
	if err != nil {
		return key.Hash{}, err
	}
	h, ok := k.AsHash()
	if !ok {
		return key.Hash{}, apierror.New(apierror.UnexpectedKeyVariant, "named key %q is %s, not a hash", name, k.Kind())
	}
	return h, nil
}

func newDeployHash() DeployHash {
	id := uuid.New()
	return DeployHash(blake2b.Sum256(id[:]))
}
