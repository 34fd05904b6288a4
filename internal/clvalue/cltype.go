// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package clvalue

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
)

// CLType tags the type of a CLValue.
type CLType uint8

const (
	Invalid CLType = iota
	Unit
	I32
	U32
	I64
	U64
	String
	Key
)

var typeNames = map[CLType]string{
	Unit:   "Unit",
	I32:    "I32",
	U32:    "U32",
	I64:    "I64",
	U64:    "U64",
	String: "String",
	Key:    "Key",
}

// String returns the name of the type, e.g. "I32".
func (t CLType) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("cltype(%d)", uint8(t))
}

// ParseCLType converts a type name as produced by String into a CLType.
func ParseCLType(name string) (CLType, error) {
	for t, n := range typeNames {
		if n == name {
			return t, nil
		}
	}
	return Invalid, fmt.Errorf("unknown cl type %q", name)
}

// IsNumeric reports whether values of t support Add.
func (t CLType) IsNumeric() bool {
	switch t {
	case I32, U32, I64, U64:
		return true
	default:
		return false
	}
}

// CtyType returns the cty type values of t are carried as.
func (t CLType) CtyType() cty.Type {
	switch t {
	case Unit:
		return cty.EmptyObject
	case I32, U32, I64, U64:
		return cty.Number
	case String, Key:
		return cty.String
	default:
		return cty.DynamicPseudoType
	}
}

// MarshalText implements encoding.TextMarshaler.
func (t CLType) MarshalText() ([]byte, error) {
	if _, ok := typeNames[t]; !ok {
		return nil, fmt.Errorf("cannot marshal %s", t)
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *CLType) UnmarshalText(text []byte) error {
	parsed, err := ParseCLType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
