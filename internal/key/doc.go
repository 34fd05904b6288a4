// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

/*
Package key provides the reference types used to address global state.

A Key is one of three variants:

  - account-hash-<hex>   an account, created at genesis
  - hash-<hex>           an installed contract or a contract package
  - uref-<hex>-<rights>  a storage reference with its access rights

URef addresses are produced by an AddressGenerator seeded per execution and
are never derived from names, so holding a URef is the only way to reach the
slot it points at.
*/
package key
