// Package builtin 提供随 crafty 一起发布的参考模块，演示模块作者如何实现工厂与序列化。
package builtin

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/kingdomsofarden/crafty/internal/module"
)

var (
	// DurabilityID 是耐久度模块的固定 id。
	DurabilityID = uuid.MustParse("5c3e2a1b-7d64-4f0e-b8a9-2e1d0c3b4a59")
	// LoreID 是描述文本模块的固定 id。
	LoreID = uuid.MustParse("a41f6e2d-3c5b-4a97-8e10-6d2c4b8f0e13")
)

const (
	DurabilityName = "durability"
	LoreName       = "lore"
)

// Durability 以 "current/max" 形式保存自定义耐久度。
type Durability struct {
	module.Base
	Current int
	Max     int
}

// NewDurability 构造满耐久的新模块，负数容量按 0 处理。
func NewDurability(capacity int) *Durability {
	if capacity < 0 {
		capacity = 0
	}
	return &Durability{
		Base:    module.NewBase(module.NewTag(DurabilityID, DurabilityName)),
		Current: capacity,
		Max:     capacity,
	}
}

// Damage 扣减耐久度，返回是否已损坏。负数表示修复，结果始终落在 [0, Max]。
func (d *Durability) Damage(amount int) bool {
	d.Current -= amount
	switch {
	case d.Current < 0:
		d.Current = 0
	case d.Current > d.Max:
		d.Current = d.Max
	}
	return d.Current == 0
}

// Serialize 实现 module.Module。
func (d *Durability) Serialize() string {
	return fmt.Sprintf("%d/%d", d.Current, d.Max)
}

func decodeDurability(tag module.Tag, data string) (module.Module, error) {
	if strings.TrimSpace(data) == "" {
		return nil, nil
	}
	cur, limit, ok := strings.Cut(data, "/")
	if !ok {
		return nil, fmt.Errorf("durability: expected current/max, got %q", data)
	}
	current, err := strconv.Atoi(cur)
	if err != nil {
		return nil, fmt.Errorf("durability current: %w", err)
	}
	maximum, err := strconv.Atoi(limit)
	if err != nil {
		return nil, fmt.Errorf("durability max: %w", err)
	}
	if current < 0 || current > maximum {
		return nil, fmt.Errorf("durability: %d out of range 0-%d", current, maximum)
	}
	return &Durability{Base: module.NewBase(tag), Current: current, Max: maximum}, nil
}
