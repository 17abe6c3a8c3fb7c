package routes

import (
	"errors"
	"sort"
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/kingdomsofarden/crafty/internal/item"
	"github.com/kingdomsofarden/crafty/internal/itemcache"
	"github.com/kingdomsofarden/crafty/internal/module"
)

// ItemFactory 按种类构造一件新物品快照。
type ItemFactory func(kind string) item.Item

type itemRequest struct {
	Kind string `json:"kind"`
	// Modules 以模块名（含别名）为键，值为模块序列化后的数据。
	Modules map[string]string `json:"modules"`
}

// RegisterItemRoutes 暴露 POST /-/items：构造物品、写入模块数据并放入缓存，
// 返回 tracking id，之后即可通过 /-/cache/:id 观察或写回该条目。
func RegisterItemRoutes(app *fiber.App, cache *itemcache.Cache, registry *module.Registry, store item.Store, newItem ItemFactory) {
	if app == nil || cache == nil || registry == nil || store == nil || newItem == nil {
		return
	}

	app.Post("/-/items", func(c fiber.Ctx) error {
		var req itemRequest
		if err := c.Bind().JSON(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_body"})
		}
		kind := strings.TrimSpace(req.Kind)
		if kind == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "item_kind_required"})
		}
		it := newItem(kind)
		if item.IsEmpty(it) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "item_kind_invalid"})
		}

		names := make([]string, 0, len(req.Modules))
		for name := range req.Modules {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			id, ok := registry.ModuleID(name)
			if !ok {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "module_not_found", "module": name})
			}
			next, err := item.Write(store, it, id, req.Modules[name])
			if err != nil {
				return err
			}
			it = next
		}

		wrapper, key, err := cache.Lookup(it)
		if err != nil {
			if errors.Is(err, itemcache.ErrClosed) {
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "cache_closed"})
			}
			return err
		}
		for _, name := range names {
			if _, err := wrapper.ModuleByName(name); err != nil {
				return err
			}
		}
		return c.Status(fiber.StatusCreated).JSON(encodeEntry(key.ID, wrapper, registry))
	})
}
