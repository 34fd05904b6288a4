package clvalue

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/countergrid/internal/apierror"
	"github.com/vk/countergrid/internal/key"
	"github.com/zclconf/go-cty/cty"
)

func TestAdd(t *testing.T) {
	testCases := []struct {
		name     string
		a, b     CLValue
		expected CLValue
	}{
		{name: "i32 increment", a: FromI32(0), b: FromI32(1), expected: FromI32(1)},
		{name: "i32 negative", a: FromI32(5), b: FromI32(-7), expected: FromI32(-2)},
		{name: "i32 wraps at max", a: FromI32(math.MaxInt32), b: FromI32(1), expected: FromI32(math.MinInt32)},
		{name: "u32 wraps at max", a: FromU32(math.MaxUint32), b: FromU32(2), expected: FromU32(1)},
		{name: "u64", a: FromU64(40), b: FromU64(2), expected: FromU64(42)},
		{name: "i64", a: FromI64(-1), b: FromI64(1), expected: FromI64(0)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			sum, err := Add(tc.a, tc.b)
			require.NoError(t, err)
			assert.True(t, tc.expected.Equal(sum), "expected %s, got %s", tc.expected, sum)
		})
	}
}

func TestAdd_TypeMismatch(t *testing.T) {
	_, err := Add(FromI32(1), FromU32(1))
	require.Error(t, err)
	assert.True(t, errors.Is(err, apierror.Revert(apierror.CLTypeMismatch)))

	_, err = Add(FromString("a"), FromString("b"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, apierror.Revert(apierror.CLTypeMismatch)))
}

func TestAccessors_WrongType(t *testing.T) {
	_, err := FromU32(1).AsI32()
	require.Error(t, err)
	code, ok := apierror.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, apierror.CLTypeMismatch, code)
}

func TestFromCty(t *testing.T) {
	v, err := FromCty(I32, cty.NumberIntVal(-3))
	require.NoError(t, err)
	n, err := v.AsI32()
	require.NoError(t, err)
	assert.Equal(t, int32(-3), n)

	_, err = FromCty(I32, cty.NumberIntVal(math.MaxInt32+1))
	require.Error(t, err, "out-of-range values must be rejected")

	_, err = FromCty(U32, cty.NumberIntVal(-1))
	require.Error(t, err)

	_, err = FromCty(I32, cty.NullVal(cty.Number))
	require.Error(t, err)

	k := key.AccountHashFromName("default").Key()
	kv, err := FromCty(Key, cty.StringVal(k.String()))
	require.NoError(t, err)
	got, err := kv.AsKey()
	require.NoError(t, err)
	assert.Equal(t, k, got)
}

func TestJSONRoundTrip(t *testing.T) {
	values := []CLValue{
		FromI32(-12),
		FromU32(1),
		FromU64(math.MaxUint64),
		FromString("hello"),
		FromKey(key.AccountHashFromName("bob").Key()),
		UnitValue(),
	}

	for _, v := range values {
		t.Run(v.String(), func(t *testing.T) {
			data, err := json.Marshal(v)
			require.NoError(t, err)

			var decoded CLValue
			require.NoError(t, json.Unmarshal(data, &decoded))
			assert.True(t, v.Equal(decoded), "expected %s, got %s", v, decoded)
		})
	}
}

func TestJSON_Shape(t *testing.T) {
	data, err := json.Marshal(FromI32(3))
	require.NoError(t, err)
	assert.JSONEq(t, `{"cl_type":"I32","value":3}`, string(data))
}

func TestString(t *testing.T) {
	assert.Equal(t, "I32(3)", FromI32(3).String())
	assert.Equal(t, "Unit", UnitValue().String())
	assert.Equal(t, "Invalid", CLValue{}.String())
}
