package builtin

import "github.com/kingdomsofarden/crafty/internal/module"

// Register 将内置模块注册到 reg。
func Register(reg *module.Registry) error {
	if err := reg.Register(DurabilityName, DurabilityID, decodeDurability); err != nil {
		return err
	}
	return reg.Register(LoreName, LoreID, decodeLore)
}
