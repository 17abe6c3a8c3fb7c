package routes

import (
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/kingdomsofarden/crafty/internal/module"
)

// RegisterModuleRoutes 暴露 /-/modules 诊断接口，供运维查询模块 id、名称与别名。
func RegisterModuleRoutes(app *fiber.App, registry *module.Registry) {
	if app == nil || registry == nil {
		return
	}

	app.Get("/-/modules", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"modules": encodeModules(registry.List()),
		})
	})

	app.Get("/-/modules/:key", func(c fiber.Ctx) error {
		key := strings.TrimSpace(c.Params("key"))
		if key == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "module_key_required"})
		}
		desc, ok := lookupModule(registry, key)
		if !ok {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "module_not_found"})
		}
		return c.JSON(encodeModule(desc))
	})
}

type modulePayload struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Aliases []string `json:"aliases,omitempty"`
}

// lookupModule 同时接受模块 id 与名称（含别名）。
func lookupModule(registry *module.Registry, key string) (module.Descriptor, bool) {
	if id, err := uuid.Parse(key); err == nil {
		return registry.Lookup(id)
	}
	id, ok := registry.ModuleID(key)
	if !ok {
		return module.Descriptor{}, false
	}
	return registry.Lookup(id)
}

func encodeModules(descs []module.Descriptor) []modulePayload {
	if len(descs) == 0 {
		return nil
	}
	result := make([]modulePayload, 0, len(descs))
	for _, desc := range descs {
		result = append(result, encodeModule(desc))
	}
	return result
}

func encodeModule(desc module.Descriptor) modulePayload {
	return modulePayload{
		ID:      desc.ID.String(),
		Name:    desc.Name,
		Aliases: append([]string(nil), desc.Aliases...),
	}
}
