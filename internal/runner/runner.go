// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package runner executes a loaded scenario against an engine and checks
// every step's outcome against its expectation.
package runner

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/vk/countergrid/internal/apierror"
	"github.com/vk/countergrid/internal/ctxlog"
	"github.com/vk/countergrid/internal/engine"
	"github.com/vk/countergrid/internal/key"
	"github.com/vk/countergrid/internal/scenario"
	"golang.org/x/sync/errgroup"
)

// ErrExpectation is wrapped by every error reporting an unmet expectation.
var ErrExpectation = errors.New("expectation not met")

// Runner drives an engine through scenario steps.
type Runner struct {
	engine  *engine.Engine
	workers int
}

// New creates a Runner. workers bounds the concurrency of parallel calls;
// values below one mean one.
func New(e *engine.Engine, workers int) *Runner {
	if workers < 1 {
		workers = 1
	}
	return &Runner{engine: e, workers: workers}
}

// Run executes sc step by step and stops at the first step whose outcome
// does not match its expectation. The report covers every step that ran
// and the final named keys of every genesis account; it is returned even
// when err is non-nil.
func (r *Runner) Run(ctx context.Context, sc *scenario.Scenario) (*Report, error) {
	logger := ctxlog.FromContext(ctx)
	report := &Report{}

	if _, err := r.engine.RunGenesis(ctx, sc.Accounts...); err != nil {
		return report, err
	}

	var runErr error
	for _, step := range sc.Steps {
		logger.Info("Running step.", "kind", step.Kind, "name", step.Name, "account", step.Account)

		sr, err := r.runStep(ctxlog.With(ctx, "step", string(step.Kind)+"."+step.Name), step)
		report.Steps = append(report.Steps, sr)
		if err != nil {
			runErr = fmt.Errorf("%s %q (%s): %w", step.Kind, step.Name, step.Range, err)
			logger.Error("Step failed.", "kind", step.Kind, "name", step.Name, "error", err)
			break
		}
		logger.Debug("Step passed.", "kind", step.Kind, "name", step.Name, "runs", sr.Runs)
	}

	accounts, err := r.accountReports(ctx, sc.Accounts)
	if err != nil && runErr == nil {
		runErr = err
	}
	report.Accounts = accounts
	report.Passed = runErr == nil
	return report, runErr
}

func (r *Runner) runStep(ctx context.Context, step scenario.Step) (StepReport, error) {
	sr := StepReport{
		Kind:     string(step.Kind),
		Name:     step.Name,
		Account:  step.Account,
		Location: step.Range.String(),
	}

	var err error
	switch step.Kind {
	case scenario.StepDeploy:
		err = r.runDeploy(ctx, step, &sr)
	case scenario.StepCall:
		err = r.runCall(ctx, step, &sr)
	case scenario.StepQuery:
		err = r.runQuery(ctx, step, &sr)
	default:
		err = fmt.Errorf("unknown step kind %q", step.Kind)
	}
	if err != nil {
		sr.Problem = err.Error()
		return sr, err
	}
	sr.Passed = true
	return sr, nil
}

func (r *Runner) runDeploy(ctx context.Context, step scenario.Step, sr *StepReport) error {
	res := r.engine.Exec(ctx, engine.ExecuteRequest{
		Caller: key.AccountHashFromName(step.Account),
		Target: engine.Session{Module: step.Deploy.Session},
		Args:   step.Deploy.Args,
	})
	record(sr, res)
	return checkOutcome(step.Expect, res)
}

func (r *Runner) runCall(ctx context.Context, step scenario.Step, sr *StepReport) error {
	call := step.Call
	target, err := callTarget(call)
	if err != nil {
		return err
	}
	req := engine.ExecuteRequest{
		Caller: key.AccountHashFromName(step.Account),
		Target: target,
		Args:   call.Args,
	}

	results := make([]*engine.ExecutionResult, call.Count)
	if call.Parallel && call.Count > 1 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(r.workers)
		for i := range results {
			i := i
			g.Go(func() error {
				results[i] = r.engine.Exec(gctx, req)
				return checkOutcome(step.Expect, results[i])
			})
		}
		err = g.Wait()
	} else {
		for i := range results {
			results[i] = r.engine.Exec(ctx, req)
			if err = checkOutcome(step.Expect, results[i]); err != nil {
				break
			}
		}
	}

	for _, res := range results {
		if res != nil {
			record(sr, res)
		}
	}
	if err != nil {
		return err
	}

	if !call.Returns.IsNull() {
		for _, res := range results {
			if !res.Success {
				continue
			}
			ok, err := scenario.Matches(res.Ret, call.Returns)
			if err != nil {
				return fmt.Errorf("%w: returned %s: %v", ErrExpectation, res.Ret, err)
			}
			if !ok {
				return fmt.Errorf("%w: returned %s, want %s", ErrExpectation, res.Ret, call.Returns.GoString())
			}
		}
	}
	return nil
}

func (r *Runner) runQuery(ctx context.Context, step scenario.Step, sr *StepReport) error {
	q := step.Query
	sr.Runs = 1
	v, err := r.engine.Query(ctx, key.AccountHashFromName(step.Account).Key(), q.Path...)
	if err != nil {
		sr.Failed = 1
		sr.Errors = []string{reason(err)}
		if step.Expect.Success {
			return fmt.Errorf("%w: expected success, got %v", ErrExpectation, err)
		}
		return checkCode(step.Expect, err)
	}

	sr.Succeeded = 1
	sr.Value = v.String()
	if !step.Expect.Success {
		return fmt.Errorf("%w: expected failure, query resolved to %s", ErrExpectation, v)
	}
	if q.Equals.IsNull() {
		return nil
	}
	if v.CLValue == nil {
		return fmt.Errorf("%w: query resolved to %s, not a value", ErrExpectation, v)
	}
	ok, err := scenario.Matches(*v.CLValue, q.Equals)
	if err != nil {
		return fmt.Errorf("%w: value %s: %v", ErrExpectation, v, err)
	}
	if !ok {
		return fmt.Errorf("%w: value %s, want %s", ErrExpectation, v, q.Equals.GoString())
	}
	return nil
}

func callTarget(c *scenario.Call) (engine.Target, error) {
	switch {
	case c.Contract != "":
		return engine.ContractByName{Name: c.Contract, EntryPoint: c.EntryPoint}, nil
	case c.Package != "":
		return engine.VersionedContractByName{Name: c.Package, Version: c.Version, EntryPoint: c.EntryPoint}, nil
	default:
		k, err := key.Parse(c.Hash)
		if err != nil {
			return nil, fmt.Errorf("hash: %w", err)
		}
		h, ok := k.AsHash()
		if !ok {
			return nil, fmt.Errorf("hash: %s is not a hash key", k)
		}
		return engine.ContractByHash{Hash: h, EntryPoint: c.EntryPoint}, nil
	}
}

func checkOutcome(exp scenario.Expectation, res *engine.ExecutionResult) error {
	if exp.Success {
		if !res.Success {
			return fmt.Errorf("%w: expected success, got %v", ErrExpectation, res.Err)
		}
		return nil
	}
	if res.Success {
		return fmt.Errorf("%w: expected failure, got success", ErrExpectation)
	}
	return checkCode(exp, res.Err)
}

func checkCode(exp scenario.Expectation, err error) error {
	if exp.Code == nil {
		return nil
	}
	code, ok := apierror.CodeOf(err)
	if !ok || code != *exp.Code {
		return fmt.Errorf("%w: expected %s, got %v", ErrExpectation, *exp.Code, err)
	}
	return nil
}

func record(sr *StepReport, res *engine.ExecutionResult) {
	sr.Runs++
	if res.Success {
		sr.Succeeded++
		sr.Returned = res.Ret.String()
		return
	}
	sr.Failed++
	why := reason(res.Err)
	for _, e := range sr.Errors {
		if e == why {
			return
		}
	}
	sr.Errors = append(sr.Errors, why)
}

func reason(err error) string {
	if code, ok := apierror.CodeOf(err); ok {
		return code.String()
	}
	return err.Error()
}

func (r *Runner) accountReports(ctx context.Context, names []string) ([]AccountReport, error) {
	out := make([]AccountReport, 0, len(names))
	for _, name := range names {
		h := key.AccountHashFromName(name)
		acct, err := r.engine.Account(ctx, h)
		if err != nil {
			return out, fmt.Errorf("account %q: %w", name, err)
		}
		nk := make(map[string]string, acct.NamedKeys.Len())
		for n, k := range acct.NamedKeys.Map() {
			nk[n] = k.String()
		}
		out = append(out, AccountReport{Name: name, Hash: h.String(), NamedKeys: nk})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
