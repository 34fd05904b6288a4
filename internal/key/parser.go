// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package key

import (
	"encoding/hex"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const (
	prefixAccount = "account-hash-"
	prefixHash    = "hash-"
	prefixURef    = "uref-"
)

// urefRegex matches the body of a uref after its prefix: `<64 hex>-<3 octal>`.
var urefRegex = regexp.MustCompile(`^([0-9a-f]{64})-([0-7]{3})$`)

// Parse creates a Key from its canonical string representation.
func Parse(raw string) (Key, error) {
	if raw == "" {
		return Key{}, fmt.Errorf("key cannot be empty")
	}

	switch {
	case strings.HasPrefix(raw, prefixAccount):
		addr, err := parseAddr(strings.TrimPrefix(raw, prefixAccount))
		if err != nil {
			return Key{}, fmt.Errorf("invalid account key %q: %w", raw, err)
		}
		return AccountHash(addr).Key(), nil

	case strings.HasPrefix(raw, prefixHash):
		addr, err := parseAddr(strings.TrimPrefix(raw, prefixHash))
		if err != nil {
			return Key{}, fmt.Errorf("invalid hash key %q: %w", raw, err)
		}
		return Hash(addr).Key(), nil

	case strings.HasPrefix(raw, prefixURef):
		matches := urefRegex.FindStringSubmatch(strings.TrimPrefix(raw, prefixURef))
		if matches == nil {
			return Key{}, fmt.Errorf("invalid uref format: %q", raw)
		}
		addr, err := parseAddr(matches[1])
		if err != nil {
			return Key{}, fmt.Errorf("invalid uref %q: %w", raw, err)
		}
		rights, err := strconv.ParseUint(matches[2], 8, 8)
		if err != nil {
			// Unreachable due to regex `[0-7]{3}`
			return Key{}, fmt.Errorf("internal error parsing access rights: %w", err)
		}
		if rights > uint64(AccessReadAddWrite) {
			return Key{}, fmt.Errorf("invalid access rights %03o in %q", rights, raw)
		}
		return NewURef(addr, AccessRights(rights)).Key(), nil
	}

	return Key{}, fmt.Errorf("unknown key prefix: %q", raw)
}

// MustParse is like Parse but panics on error. Intended for tests and constants.
func MustParse(raw string) Key {
	k, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return k
}

func parseAddr(s string) (Addr, error) {
	var addr Addr
	if len(s) != AddrLen*2 {
		return addr, fmt.Errorf("address must be %d hex characters, got %d", AddrLen*2, len(s))
	}
	if _, err := hex.Decode(addr[:], []byte(s)); err != nil {
		return addr, err
	}
	return addr, nil
}
