// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package key

import "fmt"

// MarshalText implements encoding.TextMarshaler.
func (u URef) MarshalText() ([]byte, error) { return []byte(u.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (u *URef) UnmarshalText(text []byte) error {
	k, err := Parse(string(text))
	if err != nil {
		return err
	}
	parsed, ok := k.AsURef()
	if !ok {
		return fmt.Errorf("expected uref, got %s key", k.Kind())
	}
	*u = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (h Hash) MarshalText() ([]byte, error) { return []byte(h.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (h *Hash) UnmarshalText(text []byte) error {
	k, err := Parse(string(text))
	if err != nil {
		return err
	}
	parsed, ok := k.AsHash()
	if !ok {
		return fmt.Errorf("expected hash, got %s key", k.Kind())
	}
	*h = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (a AccountHash) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *AccountHash) UnmarshalText(text []byte) error {
	k, err := Parse(string(text))
	if err != nil {
		return err
	}
	parsed, ok := k.AsAccount()
	if !ok {
		return fmt.Errorf("expected account hash, got %s key", k.Kind())
	}
	*a = parsed
	return nil
}
