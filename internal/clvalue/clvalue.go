// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package clvalue

import (
	"encoding/json"
	"fmt"

	"github.com/vk/countergrid/internal/apierror"
	"github.com/vk/countergrid/internal/key"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// CLValue is a typed value. The zero value is invalid.
type CLValue struct {
	typ CLType
	val cty.Value
}

// FromI32 wraps a signed 32-bit integer.
func FromI32(v int32) CLValue { return CLValue{typ: I32, val: cty.NumberIntVal(int64(v))} }

// FromU32 wraps an unsigned 32-bit integer.
func FromU32(v uint32) CLValue { return CLValue{typ: U32, val: cty.NumberUIntVal(uint64(v))} }

// FromI64 wraps a signed 64-bit integer.
func FromI64(v int64) CLValue { return CLValue{typ: I64, val: cty.NumberIntVal(v)} }

// FromU64 wraps an unsigned 64-bit integer.
func FromU64(v uint64) CLValue { return CLValue{typ: U64, val: cty.NumberUIntVal(v)} }

// FromString wraps a string.
func FromString(s string) CLValue { return CLValue{typ: String, val: cty.StringVal(s)} }

// FromKey wraps a global state key.
func FromKey(k key.Key) CLValue { return CLValue{typ: Key, val: cty.StringVal(k.String())} }

// UnitValue returns the single value of type Unit.
func UnitValue() CLValue { return CLValue{typ: Unit, val: cty.EmptyObjectVal} }

// Type returns the CLType of v.
func (v CLValue) Type() CLType { return v.typ }

// IsValid reports whether v holds a value.
func (v CLValue) IsValid() bool { return v.typ != Invalid }

// Cty returns the underlying cty value.
func (v CLValue) Cty() cty.Value { return v.val }

// AsI32 returns the value of an I32.
func (v CLValue) AsI32() (int32, error) {
	var out int32
	return out, v.decode(I32, &out)
}

// AsU32 returns the value of a U32.
func (v CLValue) AsU32() (uint32, error) {
	var out uint32
	return out, v.decode(U32, &out)
}

// AsI64 returns the value of an I64.
func (v CLValue) AsI64() (int64, error) {
	var out int64
	return out, v.decode(I64, &out)
}

// AsU64 returns the value of a U64.
func (v CLValue) AsU64() (uint64, error) {
	var out uint64
	return out, v.decode(U64, &out)
}

// AsString returns the value of a String.
func (v CLValue) AsString() (string, error) {
	var out string
	return out, v.decode(String, &out)
}

// AsKey returns the value of a Key.
func (v CLValue) AsKey() (key.Key, error) {
	var raw string
	if err := v.decode(Key, &raw); err != nil {
		return key.Key{}, err
	}
	k, err := key.Parse(raw)
	if err != nil {
		return key.Key{}, apierror.Wrap(apierror.InvalidArgument, err, "decode key")
	}
	return k, nil
}

func (v CLValue) decode(want CLType, target any) error {
	if v.typ != want {
		return apierror.New(apierror.CLTypeMismatch, "expected %s, got %s", want, v.typ)
	}
	if err := gocty.FromCtyValue(v.val, target); err != nil {
		return apierror.Wrap(apierror.CLTypeMismatch, err, "decode %s", want)
	}
	return nil
}

// Go returns v as a plain Go value (int32, uint32, string, ...). Unit maps
// to nil.
func (v CLValue) Go() any {
	switch v.typ {
	case I32:
		n, _ := v.AsI32()
		return n
	case U32:
		n, _ := v.AsU32()
		return n
	case I64:
		n, _ := v.AsI64()
		return n
	case U64:
		n, _ := v.AsU64()
		return n
	case String:
		s, _ := v.AsString()
		return s
	case Key:
		k, _ := v.AsKey()
		return k.String()
	default:
		return nil
	}
}

// String returns a readable form such as "I32(3)".
func (v CLValue) String() string {
	if v.typ == Unit {
		return "Unit"
	}
	if !v.IsValid() {
		return "Invalid"
	}
	return fmt.Sprintf("%s(%v)", v.typ, v.Go())
}

// Equal reports whether v and other have the same type and value.
func (v CLValue) Equal(other CLValue) bool {
	if v.typ != other.typ {
		return false
	}
	if !v.IsValid() {
		return true
	}
	return v.val.Equals(other.val).True()
}

// Add returns a + b with two's-complement wrapping at the width of the
// type. Both operands must share one numeric type.
func Add(a, b CLValue) (CLValue, error) {
	if a.typ != b.typ {
		return CLValue{}, apierror.New(apierror.CLTypeMismatch, "cannot add %s to %s", b.typ, a.typ)
	}
	switch a.typ {
	case I32:
		x, err := a.AsI32()
		if err != nil {
			return CLValue{}, err
		}
		y, err := b.AsI32()
		if err != nil {
			return CLValue{}, err
		}
		return FromI32(x + y), nil
	case U32:
		x, err := a.AsU32()
		if err != nil {
			return CLValue{}, err
		}
		y, err := b.AsU32()
		if err != nil {
			return CLValue{}, err
		}
		return FromU32(x + y), nil
	case I64:
		x, err := a.AsI64()
		if err != nil {
			return CLValue{}, err
		}
		y, err := b.AsI64()
		if err != nil {
			return CLValue{}, err
		}
		return FromI64(x + y), nil
	case U64:
		x, err := a.AsU64()
		if err != nil {
			return CLValue{}, err
		}
		y, err := b.AsU64()
		if err != nil {
			return CLValue{}, err
		}
		return FromU64(x + y), nil
	default:
		return CLValue{}, apierror.New(apierror.CLTypeMismatch, "%s does not support add", a.typ)
	}
}

// FromCty converts a cty value, typically evaluated from a scenario file,
// into a CLValue of type t. Out-of-range numbers are rejected.
func FromCty(t CLType, val cty.Value) (CLValue, error) {
	if val.IsNull() || !val.IsKnown() {
		return CLValue{}, fmt.Errorf("value for %s must be known and non-null", t)
	}
	var err error
	switch t {
	case Unit:
		return UnitValue(), nil
	case I32:
		var n int32
		if err = gocty.FromCtyValue(val, &n); err == nil {
			return FromI32(n), nil
		}
	case U32:
		var n uint32
		if err = gocty.FromCtyValue(val, &n); err == nil {
			return FromU32(n), nil
		}
	case I64:
		var n int64
		if err = gocty.FromCtyValue(val, &n); err == nil {
			return FromI64(n), nil
		}
	case U64:
		var n uint64
		if err = gocty.FromCtyValue(val, &n); err == nil {
			return FromU64(n), nil
		}
	case String:
		var s string
		if err = gocty.FromCtyValue(val, &s); err == nil {
			return FromString(s), nil
		}
	case Key:
		var s string
		if err = gocty.FromCtyValue(val, &s); err == nil {
			var k key.Key
			if k, err = key.Parse(s); err == nil {
				return FromKey(k), nil
			}
		}
	default:
		return CLValue{}, fmt.Errorf("unsupported cl type %s", t)
	}
	return CLValue{}, fmt.Errorf("cannot convert %s to %s: %w", val.Type().FriendlyName(), t, err)
}

type jsonValue struct {
	CLType CLType          `json:"cl_type"`
	Value  json.RawMessage `json:"value"`
}

// MarshalJSON encodes v with its type tag, e.g. {"cl_type":"I32","value":3}.
func (v CLValue) MarshalJSON() ([]byte, error) {
	if !v.IsValid() {
		return nil, fmt.Errorf("cannot marshal invalid cl value")
	}
	raw, err := ctyjson.Marshal(v.val, v.typ.CtyType())
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", v.typ, err)
	}
	return json.Marshal(jsonValue{CLType: v.typ, Value: raw})
}

// UnmarshalJSON decodes the form produced by MarshalJSON.
func (v *CLValue) UnmarshalJSON(data []byte) error {
	var jv jsonValue
	if err := json.Unmarshal(data, &jv); err != nil {
		return err
	}
	val, err := ctyjson.Unmarshal(jv.Value, jv.CLType.CtyType())
	if err != nil {
		return fmt.Errorf("unmarshal %s: %w", jv.CLType, err)
	}
	decoded, err := FromCty(jv.CLType, val)
	if err != nil {
		return err
	}
	*v = decoded
	return nil
}
