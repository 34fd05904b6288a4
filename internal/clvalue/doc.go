// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package clvalue defines the typed values stored in global state and passed
// across the host boundary. Each CLValue pairs a CLType tag with a cty.Value,
// so the same value model serves module code, HCL scenario files and the
// persisted JSON form.
package clvalue
