package itemcache

import (
	"github.com/google/uuid"

	"github.com/kingdomsofarden/crafty/internal/item"
	"github.com/kingdomsofarden/crafty/internal/managed"
)

// Cause 描述条目被淘汰的原因。
type Cause string

const (
	CauseExpired  Cause = "expired"
	CauseStale    Cause = "stale"
	CauseExplicit Cause = "explicit"
	CauseShutdown Cause = "shutdown"
)

// Eviction 是一次写回的结果，交付给缓存的配置方。
type Eviction struct {
	ID      uuid.UUID
	Wrapper *managed.Item
	// Item 是写回后的物品快照，宿主应以它替换手中的旧快照。
	Item  item.Item
	Cause Cause
	// Dirty 表示写回前包装层是否有未落盘的修改。
	Dirty bool
	// Err 非空时为 *managed.WriteBackError。
	Err error
}

// EvictionListener 接收淘汰结果。它在条目锁之外被调用，可以安全地再次访问缓存。
type EvictionListener func(Eviction)
