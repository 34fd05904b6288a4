// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package key

import (
	"encoding/binary"

	"golang.org/x/crypto/blake2b"
)

// accountDomain separates account hashes from every other blake2b use.
const accountDomain = "countergrid-account\x00"

// AddressGenerator hands out fresh addresses for one execution. The stream
// is a pure function of the seed, and seeds are unique per execution, so
// addresses never collide across executions and can't be guessed from names.
//
// An AddressGenerator is not safe for concurrent use; each execution owns one.
type AddressGenerator struct {
	seed    [32]byte
	counter uint64
}

// NewAddressGenerator creates a generator for the given execution seed.
func NewAddressGenerator(seed [32]byte) *AddressGenerator {
	return &AddressGenerator{seed: seed}
}

// Next returns the next address in the stream.
func (g *AddressGenerator) Next() Addr {
	var buf [32 + 8]byte
	copy(buf[:32], g.seed[:])
	binary.BigEndian.PutUint64(buf[32:], g.counter)
	g.counter++
	return Addr(blake2b.Sum256(buf[:]))
}

// NewURef returns a URef at a fresh address with the given rights.
func (g *AddressGenerator) NewURef(rights AccessRights) URef {
	return NewURef(g.Next(), rights)
}

// NewHash returns a fresh contract or package hash.
func (g *AddressGenerator) NewHash() Hash {
	return Hash(g.Next())
}

// AccountHashFromName derives the account hash of a named account.
func AccountHashFromName(name string) AccountHash {
	return AccountHash(blake2b.Sum256([]byte(accountDomain + name)))
}
