package builtin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingdomsofarden/crafty/internal/item"
	"github.com/kingdomsofarden/crafty/internal/item/memstore"
	"github.com/kingdomsofarden/crafty/internal/logging"
	"github.com/kingdomsofarden/crafty/internal/module"
)

func newRegistry(t *testing.T) *module.Registry {
	t.Helper()
	reg := module.NewRegistry(memstore.New(), module.WithLogger(logging.Discard()))
	require.NoError(t, Register(reg))
	return reg
}

func TestRegisterIsRepeatable(t *testing.T) {
	reg := newRegistry(t)
	require.NoError(t, Register(reg))
	assert.Len(t, reg.List(), 2)
}

func TestDurabilityRoundTrip(t *testing.T) {
	reg := newRegistry(t)
	d := NewDurability(100)
	assert.False(t, d.Damage(30))

	it, err := item.Write(memstore.New(), memstore.NewStack("sword"), DurabilityID, d.Serialize())
	require.NoError(t, err)

	loaded, err := reg.ResolveByName(DurabilityName, it)
	require.NoError(t, err)
	require.IsType(t, &Durability{}, loaded)
	got := loaded.(*Durability)
	assert.Equal(t, 70, got.Current)
	assert.Equal(t, 100, got.Max)
	assert.Equal(t, d.Tag(), got.Tag())
}

func TestDurabilityBreaks(t *testing.T) {
	d := NewDurability(5)
	assert.True(t, d.Damage(9))
	assert.Equal(t, "0/5", d.Serialize())
}

func TestDurabilityRejectsMalformed(t *testing.T) {
	for _, data := range []string{"abc", "5", "6/5", "-1/5", "1/x"} {
		_, err := decodeDurability(module.NewTag(DurabilityID, DurabilityName), data)
		assert.Error(t, err, data)
	}
	mod, err := decodeDurability(module.NewTag(DurabilityID, DurabilityName), "  ")
	assert.NoError(t, err)
	assert.Nil(t, mod)
}

func TestLoreRoundTrip(t *testing.T) {
	reg := newRegistry(t)
	l := NewLore("Forged in dragonfire")
	l.Append("Hums softly at night")

	it, err := item.Write(memstore.New(), memstore.NewStack("sword"), LoreID, l.Serialize())
	require.NoError(t, err)

	loaded, err := reg.Resolve(LoreID, it)
	require.NoError(t, err)
	require.IsType(t, &Lore{}, loaded)
	assert.Equal(t, []string{"Forged in dragonfire", "Hums softly at night"}, loaded.(*Lore).Lines)
}

func TestLoreMalformedIsIsolated(t *testing.T) {
	reg := newRegistry(t)
	it, err := item.Write(memstore.New(), memstore.NewStack("sword"), LoreID, "{not json")
	require.NoError(t, err)
	it, err = item.Write(memstore.New(), it, DurabilityID, "3/4")
	require.NoError(t, err)

	lore, err := reg.Resolve(LoreID, it)
	assert.NoError(t, err)
	assert.Nil(t, lore)

	dura, err := reg.Resolve(DurabilityID, it)
	assert.NoError(t, err)
	assert.NotNil(t, dura)
}

func TestDurabilityStaysDecodable(t *testing.T) {
	reg := newRegistry(t)

	repaired := NewDurability(10)
	assert.False(t, repaired.Damage(-5))
	assert.Equal(t, "10/10", repaired.Serialize())

	empty := NewDurability(-3)
	assert.Equal(t, "0/0", empty.Serialize())
	assert.True(t, empty.Damage(-1))

	for _, d := range []*Durability{repaired, empty} {
		it, err := item.Write(memstore.New(), memstore.NewStack("sword"), DurabilityID, d.Serialize())
		require.NoError(t, err)
		loaded, err := reg.Resolve(DurabilityID, it)
		require.NoError(t, err)
		require.NotNil(t, loaded, d.Serialize())
		assert.Equal(t, d.Current, loaded.(*Durability).Current)
		assert.Equal(t, d.Max, loaded.(*Durability).Max)
	}
}
