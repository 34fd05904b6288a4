// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package apierror defines the reason codes an execution aborts with.
//
// Module code never recovers from these: returning one from a handler
// aborts the whole execution and discards every effect it staged. The
// caller sees the numeric code and a short message.
package apierror

import (
	"errors"
	"fmt"
)

// Code is the machine-readable reason an execution was aborted.
type Code uint32

const (
	MissingArgument        Code = 2
	InvalidArgument        Code = 3
	Read                   Code = 5
	ValueNotFound          Code = 6
	ContractNotFound       Code = 7
	UnexpectedKeyVariant   Code = 9
	NoAccessRights         Code = 15
	CLTypeMismatch         Code = 16
	DuplicateKey           Code = 22
	PermissionDenied       Code = 23
	MissingKey             Code = 24
	NoSuchEntryPoint       Code = 25
	InvalidContractVersion Code = 26
	ModuleNotFound         Code = 27

	// userBase is the first code available to module-defined reverts.
	userBase Code = 65536
)

var codeNames = map[Code]string{
	MissingArgument:        "MissingArgument",
	InvalidArgument:        "InvalidArgument",
	Read:                   "Read",
	ValueNotFound:          "ValueNotFound",
	ContractNotFound:       "ContractNotFound",
	UnexpectedKeyVariant:   "UnexpectedKeyVariant",
	NoAccessRights:         "NoAccessRights",
	CLTypeMismatch:         "CLTypeMismatch",
	DuplicateKey:           "DuplicateKey",
	PermissionDenied:       "PermissionDenied",
	MissingKey:             "MissingKey",
	NoSuchEntryPoint:       "NoSuchEntryPoint",
	InvalidContractVersion: "InvalidContractVersion",
	ModuleNotFound:         "ModuleNotFound",
}

// User returns the code for a module-defined revert.
func User(n uint16) Code {
	return userBase + Code(n)
}

// IsUser reports whether c is a module-defined revert code.
func (c Code) IsUser() bool {
	return c >= userBase
}

// String returns the name of the code, e.g. "MissingKey" or "User(3)".
func (c Code) String() string {
	if c.IsUser() {
		return fmt.Sprintf("User(%d)", uint32(c-userBase))
	}
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("ApiError(%d)", uint32(c))
}

// ParseCode converts a code name as produced by String back into a Code.
func ParseCode(name string) (Code, error) {
	for c, n := range codeNames {
		if n == name {
			return c, nil
		}
	}
	var user uint16
	if _, err := fmt.Sscanf(name, "User(%d)", &user); err == nil {
		return User(user), nil
	}
	return 0, fmt.Errorf("unknown error code %q", name)
}

// Error is an execution abort carrying a reason code.
type Error struct {
	Code Code
	Msg  string
	Err  error
}

// New creates an Error with the given code and message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error with the given code around an underlying cause.
func Wrap(code Code, err error, format string, args ...any) *Error {
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...), Err: err}
}

// Revert creates an Error with just a code, as module code does.
func Revert(code Code) *Error {
	return &Error{Code: code}
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("api error %d (%s)", uint32(e.Code), e.Code)
	if e.Msg != "" {
		msg += ": " + e.Msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error with the same code, so callers can write
// errors.Is(err, apierror.Revert(apierror.MissingKey)).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// CodeOf extracts the reason code from err. ok is false when err carries
// no *Error.
func CodeOf(err error) (Code, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Code, true
	}
	return 0, false
}
