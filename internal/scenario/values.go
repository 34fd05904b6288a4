// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package scenario

import (
	"fmt"
	"math"
	"math/big"
	"sort"

	"github.com/vk/countergrid/internal/clvalue"
	"github.com/vk/countergrid/internal/key"
	"github.com/zclconf/go-cty/cty"
)

// ArgsFromCty converts an args object into runtime arguments. Each
// attribute is either a plain value, whose type is inferred, or an object
// {type = "U32", value = 3} naming the type explicitly.
//
// Inference: whole numbers become I32 (I64 when out of range), strings that
// parse as keys become Key, other strings become String.
func ArgsFromCty(val cty.Value) (map[string]clvalue.CLValue, error) {
	if val.IsNull() {
		return nil, nil
	}
	if !val.IsKnown() {
		return nil, fmt.Errorf("args must be known")
	}
	ty := val.Type()
	if !ty.IsObjectType() && !ty.IsMapType() {
		return nil, fmt.Errorf("args must be an object, got %s", ty.FriendlyName())
	}

	attrs := val.AsValueMap()
	names := make([]string, 0, len(attrs))
	for name := range attrs {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make(map[string]clvalue.CLValue, len(attrs))
	for _, name := range names {
		v, err := ValueFromCty(attrs[name])
		if err != nil {
			return nil, fmt.Errorf("arg %q: %w", name, err)
		}
		out[name] = v
	}
	return out, nil
}

// ValueFromCty converts one scenario value into a CLValue, using the same
// rules as ArgsFromCty.
func ValueFromCty(v cty.Value) (clvalue.CLValue, error) {
	if v.IsNull() || !v.IsKnown() {
		return clvalue.CLValue{}, fmt.Errorf("value must be known and non-null")
	}
	ty := v.Type()
	switch {
	case ty.IsObjectType() && ty.HasAttribute("type") && ty.HasAttribute("value"):
		var typeName string
		tv := v.GetAttr("type")
		if !tv.Type().Equals(cty.String) || tv.IsNull() {
			return clvalue.CLValue{}, fmt.Errorf("type must be a string")
		}
		typeName = tv.AsString()
		t, err := clvalue.ParseCLType(typeName)
		if err != nil {
			return clvalue.CLValue{}, err
		}
		return clvalue.FromCty(t, v.GetAttr("value"))

	case ty.Equals(cty.Number):
		bf := v.AsBigFloat()
		if !bf.IsInt() {
			return clvalue.CLValue{}, fmt.Errorf("only whole numbers are supported, got %s", bf.Text('g', -1))
		}
		n, acc := bf.Int64()
		if acc != big.Exact {
			return clvalue.CLValue{}, fmt.Errorf("number %s out of range", bf.Text('g', -1))
		}
		if n >= math.MinInt32 && n <= math.MaxInt32 {
			return clvalue.FromI32(int32(n)), nil
		}
		return clvalue.FromI64(n), nil

	case ty.Equals(cty.String):
		s := v.AsString()
		if k, err := key.Parse(s); err == nil {
			return clvalue.FromKey(k), nil
		}
		return clvalue.FromString(s), nil

	default:
		return clvalue.CLValue{}, fmt.Errorf("unsupported value of type %s", ty.FriendlyName())
	}
}

// Matches reports whether got equals the scenario value want, converting
// want to got's type.
func Matches(got clvalue.CLValue, want cty.Value) (bool, error) {
	converted, err := clvalue.FromCty(got.Type(), want)
	if err != nil {
		return false, err
	}
	return got.Equal(converted), nil
}
