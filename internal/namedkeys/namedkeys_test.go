package namedkeys

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/countergrid/internal/apierror"
	"github.com/vk/countergrid/internal/key"
)

func TestBuilder_InsertAndGet(t *testing.T) {
	gen := key.NewAddressGenerator([32]byte{1})
	count := gen.NewURef(key.AccessReadAddWrite)
	hash := gen.NewHash()

	b := NewBuilder()
	require.NoError(t, b.Insert("count", count.Key()))
	require.NoError(t, b.Insert("counter", hash.Key()))
	nk := b.Build()

	got, ok := nk.Get("count")
	require.True(t, ok)
	assert.Equal(t, count.Key(), got)

	_, ok = nk.Get("missing")
	assert.False(t, ok)

	assert.Equal(t, 2, nk.Len())
	assert.Equal(t, []string{"count", "counter"}, nk.Names())
	assert.Equal(t, []key.URef{count}, nk.URefs())
}

func TestBuilder_RejectsDuplicateAndInvalid(t *testing.T) {
	gen := key.NewAddressGenerator([32]byte{2})
	b := NewBuilder()
	require.NoError(t, b.Insert("count", gen.NewHash().Key()))

	err := b.Insert("count", gen.NewHash().Key())
	require.Error(t, err)
	assert.True(t, errors.Is(err, apierror.Revert(apierror.DuplicateKey)))

	err = b.Insert("", gen.NewHash().Key())
	assert.True(t, errors.Is(err, apierror.Revert(apierror.InvalidArgument)))

	err = b.Insert("zero", key.Key{})
	assert.True(t, errors.Is(err, apierror.Revert(apierror.InvalidArgument)))
}

func TestBuilder_InsertAfterBuildPanics(t *testing.T) {
	b := NewBuilder()
	b.Build()
	assert.Panics(t, func() {
		_ = b.Insert("late", key.AccountHashFromName("x").Key())
	})
}

func TestWith_LeavesOriginalUntouched(t *testing.T) {
	gen := key.NewAddressGenerator([32]byte{3})
	first := gen.NewHash().Key()
	second := gen.NewHash().Key()

	b := NewBuilder()
	require.NoError(t, b.Insert("counter", first))
	original := b.Build()

	updated := original.With("counter", second).With("version", gen.NewHash().Key())

	got, _ := original.Get("counter")
	assert.Equal(t, first, got, "original registry must not change")
	assert.Equal(t, 1, original.Len())

	got, _ = updated.Get("counter")
	assert.Equal(t, second, got)
	assert.Equal(t, 2, updated.Len())
}

func TestEmpty(t *testing.T) {
	nk := Empty()
	assert.Equal(t, 0, nk.Len())
	assert.Empty(t, nk.Names())
	_, ok := nk.Get("anything")
	assert.False(t, ok)
}

func TestJSONRoundTrip(t *testing.T) {
	gen := key.NewAddressGenerator([32]byte{4})
	nk := Empty().With("count", gen.NewURef(key.AccessReadAddWrite).Key()).With("counter", gen.NewHash().Key())

	data, err := json.Marshal(nk)
	require.NoError(t, err)

	var decoded NamedKeys
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, nk.Map(), decoded.Map())
}
