package builtin

import (
	"encoding/json"
	"fmt"

	"github.com/kingdomsofarden/crafty/internal/module"
)

// Lore 保存附加在物品上的多行描述文本。
type Lore struct {
	module.Base
	Lines []string
}

type lorePayload struct {
	Lines []string `json:"lines"`
}

// NewLore 构造新的描述模块。
func NewLore(lines ...string) *Lore {
	return &Lore{
		Base:  module.NewBase(module.NewTag(LoreID, LoreName)),
		Lines: append([]string(nil), lines...),
	}
}

// Append 追加一行描述。
func (l *Lore) Append(line string) {
	l.Lines = append(l.Lines, line)
}

// Serialize 实现 module.Module。
func (l *Lore) Serialize() string {
	raw, _ := json.Marshal(lorePayload{Lines: l.Lines})
	return string(raw)
}

func decodeLore(tag module.Tag, data string) (module.Module, error) {
	if data == "" {
		return nil, nil
	}
	var payload lorePayload
	if err := json.Unmarshal([]byte(data), &payload); err != nil {
		return nil, fmt.Errorf("lore: %w", err)
	}
	return &Lore{Base: module.NewBase(tag), Lines: payload.Lines}, nil
}
