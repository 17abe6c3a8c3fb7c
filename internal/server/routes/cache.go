package routes

import (
	"sort"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/kingdomsofarden/crafty/internal/itemcache"
	"github.com/kingdomsofarden/crafty/internal/managed"
	"github.com/kingdomsofarden/crafty/internal/module"
)

// RegisterCacheRoutes 暴露物品缓存的统计、条目详情与手动写回接口。
func RegisterCacheRoutes(app *fiber.App, cache *itemcache.Cache, registry *module.Registry) {
	if app == nil || cache == nil {
		return
	}

	app.Get("/-/cache", func(c fiber.Ctx) error {
		return c.JSON(cachePayload{
			IdleTTLSeconds: int64(cache.IdleTTL() / time.Second),
			Stats:          cache.Stats(),
		})
	})

	app.Get("/-/cache/:id", func(c fiber.Ctx) error {
		id, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_tracking_id"})
		}
		wrapper, ok := cache.Entries()[id]
		if !ok {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "entry_not_found"})
		}
		return c.JSON(encodeEntry(id, wrapper, registry))
	})

	app.Post("/-/cache/:id/flush", func(c fiber.Ctx) error {
		id, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_tracking_id"})
		}
		if !cache.Invalidate(id) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "entry_not_found"})
		}
		return c.JSON(fiber.Map{"flushed": id.String()})
	})
}

type cachePayload struct {
	IdleTTLSeconds int64           `json:"idle_ttl_seconds"`
	Stats          itemcache.Stats `json:"stats"`
}

type entryPayload struct {
	TrackingID string          `json:"tracking_id"`
	Dirty      bool            `json:"dirty"`
	Modules    []modulePayload `json:"modules"`
}

func encodeEntry(id uuid.UUID, wrapper *managed.Item, registry *module.Registry) entryPayload {
	loaded := wrapper.Loaded()
	modules := make([]modulePayload, 0, len(loaded))
	for _, moduleID := range loaded {
		payload := modulePayload{ID: moduleID.String()}
		if registry != nil {
			payload.Name, _ = registry.ModuleName(moduleID)
		}
		modules = append(modules, payload)
	}
	sort.Slice(modules, func(i, j int) bool {
		return modules[i].Name < modules[j].Name
	})
	return entryPayload{
		TrackingID: id.String(),
		Dirty:      wrapper.Dirty(),
		Modules:    modules,
	}
}
