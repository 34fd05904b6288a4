// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package engine

import (
	"encoding/hex"
	"time"

	"github.com/vk/countergrid/internal/apierror"
	"github.com/vk/countergrid/internal/clvalue"
	"github.com/vk/countergrid/internal/globalstate"
	"github.com/vk/countergrid/internal/key"
	"github.com/vk/countergrid/internal/runtime"
)

// Request kinds used in logs and metrics.
const (
	KindSession  = "session"
	KindContract = "contract"
)

// Target selects the code an ExecuteRequest runs.
type Target interface {
	kind() string
}

// Session runs compiled session code in the caller's account context.
type Session struct {
	Module string
}

// ContractByHash calls an entry point of the contract stored at Hash.
type ContractByHash struct {
	Hash       key.Hash
	EntryPoint string
}

// ContractByName calls an entry point of the contract whose hash the caller
// has bound under Name.
type ContractByName struct {
	Name       string
	EntryPoint string
}

// VersionedContractByName calls an entry point of a package the caller has
// bound under Name. A nil Version selects the latest enabled version.
type VersionedContractByName struct {
	Name       string
	Version    *uint32
	EntryPoint string
}

func (Session) kind() string                 { return KindSession }
func (ContractByHash) kind() string          { return KindContract }
func (ContractByName) kind() string          { return KindContract }
func (VersionedContractByName) kind() string { return KindContract }

// ExecuteRequest is one unit of work submitted by an account.
type ExecuteRequest struct {
	Caller key.AccountHash
	Target Target
	Args   runtime.Args
}

// DeployHash identifies one execution. It also seeds every address the
// execution creates.
type DeployHash [32]byte

// String returns the hex form of d.
func (d DeployHash) String() string {
	return hex.EncodeToString(d[:])
}

// ExecutionResult is the outcome of one Exec.
type ExecutionResult struct {
	DeployHash DeployHash
	Success    bool
	// Err is set when Success is false.
	Err error
	// Ret is the value returned by the code that ran; Unit when nothing
	// was returned.
	Ret clvalue.CLValue
	// Effects are the effects that were committed. Empty on failure.
	Effects  []globalstate.Effect
	Duration time.Duration
}

// Code returns the reason code of a failed result. ok is false for a
// successful result or a failure that did not come from a revert.
func (r *ExecutionResult) Code() (code apierror.Code, ok bool) {
	if r.Err == nil {
		return 0, false
	}
	return apierror.CodeOf(r.Err)
}
