package itemcache

import (
	"github.com/google/uuid"

	"github.com/kingdomsofarden/crafty/internal/item"
)

// Key 以 tracking id 判等；Item 仅用于检测缓存条目是否过时。
type Key struct {
	Item item.Item
	ID   uuid.UUID
}

// NewKey 组合物品快照与其 tracking id。
func NewKey(it item.Item, id uuid.UUID) Key {
	return Key{Item: it, ID: id}
}

// Same 返回两个 Key 是否指向同一件被追踪的物品。
func (k Key) Same(other Key) bool {
	return k.ID == other.ID
}
