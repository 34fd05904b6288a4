package contract

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/countergrid/internal/apierror"
	"github.com/vk/countergrid/internal/clvalue"
	"github.com/vk/countergrid/internal/key"
	"github.com/vk/countergrid/internal/namedkeys"
)

func TestNewEntryPoints(t *testing.T) {
	eps, err := NewEntryPoints(
		NewEntryPoint("counter_get", nil, clvalue.I32, Public(), TypeContract),
		NewEntryPoint("counter_inc", nil, clvalue.Unit, Public(), TypeContract),
	)
	require.NoError(t, err)
	assert.Equal(t, 2, eps.Len())
	assert.Equal(t, []string{"counter_get", "counter_inc"}, eps.Names())

	get, ok := eps.Get("counter_get")
	require.True(t, ok)
	assert.Equal(t, clvalue.I32, get.Ret)
	assert.True(t, get.Access.IsPublic())

	_, ok = eps.Get("counter_dec")
	assert.False(t, ok)
}

func TestNewEntryPoints_Duplicate(t *testing.T) {
	_, err := NewEntryPoints(
		NewEntryPoint("counter_inc", nil, clvalue.Unit, Public(), TypeContract),
		NewEntryPoint("counter_inc", nil, clvalue.Unit, Public(), TypeContract),
	)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apierror.Revert(apierror.DuplicateKey)))
}

func TestPackage_Versions(t *testing.T) {
	gen := key.NewAddressGenerator([32]byte{1})
	pkg := NewPackage(gen.NewURef(key.AccessReadAddWrite))

	_, _, ok := pkg.Latest()
	assert.False(t, ok, "an empty package has no latest version")
	assert.Equal(t, uint32(1), pkg.NextVersion())

	v1Hash := gen.NewHash()
	pkg1, v1 := pkg.WithVersion(v1Hash)
	assert.Equal(t, uint32(1), v1)
	assert.Empty(t, pkg.Versions, "WithVersion must not mutate the receiver")

	v2Hash := gen.NewHash()
	pkg2, v2 := pkg1.WithVersion(v2Hash)
	assert.Equal(t, uint32(2), v2)

	latest, hash, ok := pkg2.Latest()
	require.True(t, ok)
	assert.Equal(t, uint32(2), latest)
	assert.Equal(t, v2Hash, hash)

	got, ok := pkg2.Lookup(1)
	require.True(t, ok)
	assert.Equal(t, v1Hash, got)

	pkg2.Disabled = map[uint32]bool{2: true}
	latest, _, ok = pkg2.Latest()
	require.True(t, ok)
	assert.Equal(t, uint32(1), latest, "disabled versions are skipped")
	_, ok = pkg2.Lookup(2)
	assert.False(t, ok)
}

func TestContract_JSONRoundTrip(t *testing.T) {
	gen := key.NewAddressGenerator([32]byte{2})
	eps, err := NewEntryPoints(
		NewEntryPoint("counter_get", nil, clvalue.I32, Public(), TypeContract),
		NewEntryPoint("admin", []Parameter{{Name: "amount", Type: clvalue.U64}}, clvalue.Unit, Groups("admins"), TypeSession),
	)
	require.NoError(t, err)

	original := Contract{
		PackageHash: gen.NewHash(),
		Module:      "counter",
		NamedKeys:   namedkeys.Empty().With("count", gen.NewURef(key.AccessReadAddWrite).Key()),
		EntryPoints: eps,
	}

	data, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded Contract
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, original.PackageHash, decoded.PackageHash)
	assert.Equal(t, original.Module, decoded.Module)
	assert.Equal(t, original.NamedKeys.Map(), decoded.NamedKeys.Map())
	assert.Equal(t, original.EntryPoints.All(), decoded.EntryPoints.All())
}
