package routes

import (
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingdomsofarden/crafty/internal/item/memstore"
	"github.com/kingdomsofarden/crafty/internal/module/builtin"
)

func TestCacheStats(t *testing.T) {
	env := newTestEnv(t)
	_, _, err := env.cache.Lookup(memstore.NewStack("sword"))
	require.NoError(t, err)

	var payload cachePayload
	status := getJSON(t, env.app, "GET", "/-/cache", &payload)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, int64(600), payload.IdleTTLSeconds)
	assert.Equal(t, 1, payload.Stats.Entries)
	assert.Equal(t, uint64(1), payload.Stats.Loads)
}

func TestCacheEntryDetailAndFlush(t *testing.T) {
	env := newTestEnv(t)
	wrapper, key, err := env.cache.Lookup(memstore.NewStack("sword"))
	require.NoError(t, err)
	require.NoError(t, wrapper.Attach(builtin.NewLore("hello")))

	var entry entryPayload
	status := getJSON(t, env.app, "GET", "/-/cache/"+key.ID.String(), &entry)
	assert.Equal(t, fiber.StatusOK, status)
	assert.True(t, entry.Dirty)
	require.Len(t, entry.Modules, 1)
	assert.Equal(t, builtin.LoreName, entry.Modules[0].Name)

	status = getJSON(t, env.app, "POST", "/-/cache/"+key.ID.String()+"/flush", nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, 0, env.cache.Len())

	status = getJSON(t, env.app, "POST", "/-/cache/"+key.ID.String()+"/flush", nil)
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestCacheEntryErrors(t *testing.T) {
	env := newTestEnv(t)
	assert.Equal(t, fiber.StatusBadRequest, getJSON(t, env.app, "GET", "/-/cache/not-a-uuid", nil))
	assert.Equal(t, fiber.StatusNotFound, getJSON(t, env.app, "GET", "/-/cache/"+uuid.NewString(), nil))
}
