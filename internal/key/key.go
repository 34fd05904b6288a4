// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package key

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// AddrLen is the byte length of every address in global state.
const AddrLen = 32

// Addr is a raw 32-byte global state address.
type Addr [AddrLen]byte

// Hex returns the lowercase hex encoding of the address.
func (a Addr) Hex() string {
	return hex.EncodeToString(a[:])
}

// AccessRights is the bitset of operations a URef permits.
type AccessRights uint8

const (
	AccessNone         AccessRights = 0
	AccessRead         AccessRights = 1
	AccessWrite        AccessRights = 2
	AccessAdd          AccessRights = 4
	AccessReadWrite                 = AccessRead | AccessWrite
	AccessReadAdd                   = AccessRead | AccessAdd
	AccessAddWrite                  = AccessAdd | AccessWrite
	AccessReadAddWrite              = AccessRead | AccessAdd | AccessWrite
)

// Has reports whether every bit of want is present in r.
func (r AccessRights) Has(want AccessRights) bool {
	return r&want == want
}

// String returns a readable name such as "READ_ADD_WRITE".
func (r AccessRights) String() string {
	if r == AccessNone {
		return "NONE"
	}
	var parts []string
	if r.Has(AccessRead) {
		parts = append(parts, "READ")
	}
	if r.Has(AccessAdd) {
		parts = append(parts, "ADD")
	}
	if r.Has(AccessWrite) {
		parts = append(parts, "WRITE")
	}
	return strings.Join(parts, "_")
}

// URef is an unforgeable reference to one storage slot.
type URef struct {
	Addr   Addr
	Rights AccessRights
}

// NewURef creates a URef for addr carrying the given rights.
func NewURef(addr Addr, rights AccessRights) URef {
	return URef{Addr: addr, Rights: rights}
}

// WithRights returns a copy of u carrying rights instead of its own.
func (u URef) WithRights(rights AccessRights) URef {
	return URef{Addr: u.Addr, Rights: rights}
}

// String returns the canonical form, e.g. "uref-<hex>-007".
func (u URef) String() string {
	return fmt.Sprintf("%s%s-%03o", prefixURef, u.Addr.Hex(), uint8(u.Rights))
}

// Key wraps u as a Key.
func (u URef) Key() Key {
	return Key{kind: KindURef, addr: u.Addr, rights: u.Rights}
}

// AccountHash identifies an account.
type AccountHash Addr

// String returns the canonical form, e.g. "account-hash-<hex>".
func (a AccountHash) String() string {
	return prefixAccount + Addr(a).Hex()
}

// Key wraps a as a Key.
func (a AccountHash) Key() Key {
	return Key{kind: KindAccount, addr: Addr(a)}
}

// Hash identifies an installed contract or a contract package.
type Hash Addr

// String returns the canonical form, e.g. "hash-<hex>".
func (h Hash) String() string {
	return prefixHash + Addr(h).Hex()
}

// Key wraps h as a Key.
func (h Hash) Key() Key {
	return Key{kind: KindHash, addr: Addr(h)}
}

// Kind distinguishes the variants of Key.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindAccount
	KindHash
	KindURef
)

// String returns the variant name.
func (k Kind) String() string {
	switch k {
	case KindAccount:
		return "account"
	case KindHash:
		return "hash"
	case KindURef:
		return "uref"
	default:
		return "invalid"
	}
}

// Key is a tagged reference into global state. The zero value is invalid.
type Key struct {
	kind   Kind
	addr   Addr
	rights AccessRights
}

// Kind returns the variant of k.
func (k Key) Kind() Kind { return k.kind }

// Addr returns the raw address of k.
func (k Key) Addr() Addr { return k.addr }

// IsZero reports whether k is the invalid zero Key.
func (k Key) IsZero() bool { return k.kind == KindInvalid }

// AsURef returns the URef held by k, if k is a URef.
func (k Key) AsURef() (URef, bool) {
	if k.kind != KindURef {
		return URef{}, false
	}
	return URef{Addr: k.addr, Rights: k.rights}, true
}

// AsHash returns the Hash held by k, if k is a Hash.
func (k Key) AsHash() (Hash, bool) {
	if k.kind != KindHash {
		return Hash{}, false
	}
	return Hash(k.addr), true
}

// AsAccount returns the AccountHash held by k, if k is an account key.
func (k Key) AsAccount() (AccountHash, bool) {
	if k.kind != KindAccount {
		return AccountHash{}, false
	}
	return AccountHash(k.addr), true
}

// Normalize strips access rights, leaving the storage address of k. Two
// URefs to the same slot normalize to the same Key.
func (k Key) Normalize() Key {
	k.rights = AccessNone
	return k
}

// String returns the canonical text form of k.
func (k Key) String() string {
	switch k.kind {
	case KindAccount:
		return AccountHash(k.addr).String()
	case KindHash:
		return Hash(k.addr).String()
	case KindURef:
		return URef{Addr: k.addr, Rights: k.rights}.String()
	default:
		return "key-invalid"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k Key) MarshalText() ([]byte, error) {
	if k.IsZero() {
		return nil, fmt.Errorf("cannot marshal invalid key")
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Key) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
