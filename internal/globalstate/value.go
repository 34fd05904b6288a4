// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package globalstate

import (
	"fmt"

	"github.com/vk/countergrid/internal/clvalue"
	"github.com/vk/countergrid/internal/contract"
	"github.com/vk/countergrid/internal/key"
	"github.com/vk/countergrid/internal/namedkeys"
)

// Account is a principal that can run session code. Its named keys are the
// long-lived registry install routines publish handles into.
type Account struct {
	Hash      key.AccountHash     `json:"hash"`
	NamedKeys namedkeys.NamedKeys `json:"named_keys"`
}

// Kind names the variant held by a StoredValue.
type Kind string

const (
	KindCLValue  Kind = "cl_value"
	KindAccount  Kind = "account"
	KindContract Kind = "contract"
	KindPackage  Kind = "package"
)

// StoredValue is the tagged union kept under each key. Exactly one field is
// set.
type StoredValue struct {
	CLValue  *clvalue.CLValue   `json:"cl_value,omitempty"`
	Account  *Account           `json:"account,omitempty"`
	Contract *contract.Contract `json:"contract,omitempty"`
	Package  *contract.Package  `json:"package,omitempty"`
}

// NewCLValue wraps a CLValue.
func NewCLValue(v clvalue.CLValue) StoredValue { return StoredValue{CLValue: &v} }

// NewAccount wraps an Account.
func NewAccount(a Account) StoredValue { return StoredValue{Account: &a} }

// NewContract wraps a Contract.
func NewContract(c contract.Contract) StoredValue { return StoredValue{Contract: &c} }

// NewPackage wraps a Package.
func NewPackage(p contract.Package) StoredValue { return StoredValue{Package: &p} }

// Kind returns the variant held by v, or "" when v is empty.
func (v StoredValue) Kind() Kind {
	switch {
	case v.CLValue != nil:
		return KindCLValue
	case v.Account != nil:
		return KindAccount
	case v.Contract != nil:
		return KindContract
	case v.Package != nil:
		return KindPackage
	default:
		return ""
	}
}

// Validate checks that exactly one variant is set.
func (v StoredValue) Validate() error {
	n := 0
	for _, set := range []bool{v.CLValue != nil, v.Account != nil, v.Contract != nil, v.Package != nil} {
		if set {
			n++
		}
	}
	if n != 1 {
		return fmt.Errorf("stored value must hold exactly one variant, holds %d", n)
	}
	return nil
}

// String returns a short description for logs.
func (v StoredValue) String() string {
	switch v.Kind() {
	case KindCLValue:
		return v.CLValue.String()
	case KindAccount:
		return fmt.Sprintf("Account(%s)", v.Account.Hash)
	case KindContract:
		return fmt.Sprintf("Contract(%s)", v.Contract.Module)
	case KindPackage:
		return fmt.Sprintf("Package(%d versions)", len(v.Package.Versions))
	default:
		return "Empty"
	}
}
