// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package scenario loads declarative HCL scenario files: the accounts to
// create at genesis and the ordered list of deploys, contract calls and
// state queries to run against an engine, each with its expected outcome.
package scenario

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/vk/countergrid/internal/apierror"
	"github.com/vk/countergrid/internal/clvalue"
	"github.com/zclconf/go-cty/cty"
)

// DefaultAccount is the account steps run as when they name none.
const DefaultAccount = "default"

// StepKind distinguishes the step blocks.
type StepKind string

const (
	StepDeploy StepKind = "deploy"
	StepCall   StepKind = "call"
	StepQuery  StepKind = "query"
)

// Scenario is a fully decoded set of scenario files.
type Scenario struct {
	// Accounts are created at genesis, in order of first mention.
	Accounts []string
	// Steps run in source order; files are read in lexical path order.
	Steps []Step
}

// Expectation is the outcome a step must have.
type Expectation struct {
	Success bool
	// Code, when set, pins the reason code of an expected failure.
	Code *apierror.Code
}

// Step is one deploy, call or query block.
type Step struct {
	Kind    StepKind
	Name    string
	Account string
	Range   hcl.Range
	Expect  Expectation

	Deploy *Deploy
	Call   *Call
	Query  *Query
}

// Deploy runs session code.
type Deploy struct {
	Session string
	Args    map[string]clvalue.CLValue
}

// Call invokes a contract entry point. Exactly one of Contract, Package and
// Hash is set.
type Call struct {
	// Contract is the caller's named key bound to a contract hash.
	Contract string
	// Package is the caller's named key bound to a package hash.
	Package string
	// Version selects a package version; nil means latest.
	Version *uint32
	// Hash is a literal contract hash.
	Hash string

	EntryPoint string
	Args       map[string]clvalue.CLValue

	// Count repeats the call; Parallel fans the repeats out over the
	// runner's workers.
	Count    int
	Parallel bool

	// Returns, when non-null, is compared with the value the entry point
	// returned.
	Returns cty.Value
}

// Query reads committed state along a named-key path starting at the
// step's account.
type Query struct {
	Path   []string
	Equals cty.Value
}
