package itemcache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/kingdomsofarden/crafty/internal/item"
	"github.com/kingdomsofarden/crafty/internal/logging"
	"github.com/kingdomsofarden/crafty/internal/managed"
	"github.com/kingdomsofarden/crafty/internal/module"
	"github.com/kingdomsofarden/crafty/internal/tracking"
)

// DefaultIdleTTL 是未配置时的空闲淘汰阈值。
const DefaultIdleTTL = 15 * time.Minute

// ErrClosed 表示缓存已关闭，不再接受新的访问。
var ErrClosed = errors.New("item cache closed")

// Options 控制缓存的依赖与淘汰策略。
type Options struct {
	Registry *module.Registry
	Store    item.Store
	// Tracker 为空时基于 Store 创建。
	Tracker *tracking.Tracker
	IdleTTL time.Duration
	Now     func() time.Time
	Logger  logrus.FieldLogger
	OnEvict EvictionListener
}

// Stats 汇总缓存计数器，供诊断接口使用。
type Stats struct {
	Entries           int    `json:"entries"`
	Loads             uint64 `json:"loads"`
	Hits              uint64 `json:"hits"`
	Evictions         uint64 `json:"evictions"`
	WriteBackFailures uint64 `json:"write_back_failures"`
}

// Cache 维护 tracking id → 包装层的映射。全局 mu 只保护 map 本身，
// 同一 key 的加载、过时检测与写回由条目自己的锁串行化，不同 key 互不阻塞。
type Cache struct {
	registry *module.Registry
	store    item.Store
	tracker  *tracking.Tracker
	ttl      time.Duration
	now      func() time.Time
	logger   logrus.FieldLogger
	onEvict  EvictionListener

	mu      sync.Mutex
	entries map[uuid.UUID]*entry
	closed  bool

	loads     atomic.Uint64
	hits      atomic.Uint64
	evictions atomic.Uint64
	failures  atomic.Uint64
}

type entry struct {
	mu         sync.Mutex
	wrapper    *managed.Item
	lastAccess time.Time
	// removed 表示条目已从 map 中摘除，持有旧指针的 Get 需要重试。
	removed bool
}

// New 根据 Options 构造缓存。
func New(opts Options) (*Cache, error) {
	if opts.Registry == nil {
		return nil, errors.New("module registry is required")
	}
	if opts.Store == nil {
		return nil, errors.New("attribute store is required")
	}
	if opts.IdleTTL < 0 {
		return nil, errors.New("idle ttl must not be negative")
	}

	c := &Cache{
		registry: opts.Registry,
		store:    opts.Store,
		tracker:  opts.Tracker,
		ttl:      opts.IdleTTL,
		now:      opts.Now,
		onEvict:  opts.OnEvict,
		entries:  make(map[uuid.UUID]*entry),
	}
	if c.tracker == nil {
		c.tracker = tracking.New(opts.Store)
	}
	if c.ttl == 0 {
		c.ttl = DefaultIdleTTL
	}
	if c.now == nil {
		c.now = time.Now
	}
	c.logger = logging.Component(opts.Logger, "itemcache")
	return c, nil
}

// IdleTTL 返回生效的空闲淘汰阈值。
func (c *Cache) IdleTTL() time.Duration {
	return c.ttl
}

// Lookup 识别物品并返回其包装层。未被追踪的物品会被分配 tracking id，
// 返回的 Key.Item 即带 id 的新快照，调用方应以它替换旧快照。
func (c *Cache) Lookup(it item.Item) (*managed.Item, Key, error) {
	tracked, id, err := c.tracker.Identify(it)
	if err != nil {
		return nil, Key{}, err
	}
	key := NewKey(tracked, id)
	wrapper, err := c.Get(key)
	if err != nil {
		return nil, key, err
	}
	return wrapper, key, nil
}

// Get 返回 key 对应的包装层。同一 key 的并发调用只会构造一个包装层；
// 条目已过期，或 key.Item 既不是包装层的原始快照也不是它自己写回产生的快照时，
// 先写回旧包装层再重新加载。
func (c *Cache) Get(key Key) (*managed.Item, error) {
	if key.ID == uuid.Nil {
		return nil, errors.New("tracking id is required")
	}
	if item.IsEmpty(key.Item) {
		return nil, item.ErrInvalidTarget
	}

	for {
		e, err := c.acquire(key.ID)
		if err != nil {
			return nil, err
		}

		e.mu.Lock()
		if e.removed {
			e.mu.Unlock()
			continue
		}
		wrapper, evicted := c.getLocked(e, key)
		e.mu.Unlock()

		c.notify(evicted)
		return wrapper, nil
	}
}

// Invalidate 立即写回并移除指定条目，返回是否存在可写回的包装层。
func (c *Cache) Invalidate(id uuid.UUID) bool {
	c.mu.Lock()
	e := c.entries[id]
	c.mu.Unlock()
	if e == nil {
		return false
	}

	e.mu.Lock()
	evicted := c.removeLocked(id, e, CauseExplicit)
	e.mu.Unlock()

	c.notify(evicted)
	return len(evicted) > 0
}

// InvalidateAll 写回并移除所有条目。
func (c *Cache) InvalidateAll() int {
	return c.evictWhere(CauseExplicit, func(*entry, time.Time) bool { return true })
}

// Sweep 淘汰所有空闲时间达到阈值的条目，返回写回的数量。
func (c *Cache) Sweep() int {
	return c.evictWhere(CauseExpired, c.expiredLocked)
}

// Run 按 interval 周期执行 Sweep，直到 ctx 结束。
func (c *Cache) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return errors.New("sweep interval must be positive")
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := c.Sweep(); n > 0 {
				c.logger.WithFields(logrus.Fields{
					"action":  "cache_sweep",
					"evicted": n,
				}).Debug("idle items flushed")
			}
		}
	}
}

// Close 拒绝后续访问并写回所有条目，适合进程退出前调用。
func (c *Cache) Close() int {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return c.evictWhere(CauseShutdown, func(*entry, time.Time) bool { return true })
}

// Entries 返回当前存活包装层的快照，仅用于观察与遍历。
func (c *Cache) Entries() map[uuid.UUID]*managed.Item {
	result := make(map[uuid.UUID]*managed.Item)
	for id, e := range c.snapshot() {
		e.mu.Lock()
		if !e.removed && e.wrapper != nil {
			result[id] = e.wrapper
		}
		e.mu.Unlock()
	}
	return result
}

// Len 返回 map 中的条目数量。
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats 返回计数器快照。
func (c *Cache) Stats() Stats {
	return Stats{
		Entries:           c.Len(),
		Loads:             c.loads.Load(),
		Hits:              c.hits.Load(),
		Evictions:         c.evictions.Load(),
		WriteBackFailures: c.failures.Load(),
	}
}

func (c *Cache) acquire(id uuid.UUID) (*entry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}
	e := c.entries[id]
	if e == nil {
		e = &entry{}
		c.entries[id] = e
	}
	return e, nil
}

func (c *Cache) snapshot() map[uuid.UUID]*entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	result := make(map[uuid.UUID]*entry, len(c.entries))
	for id, e := range c.entries {
		result[id] = e
	}
	return result
}

// getLocked 在持有条目锁的情况下完成“过期/过时检测 → 写回 → 加载”。
func (c *Cache) getLocked(e *entry, key Key) (*managed.Item, []Eviction) {
	now := c.now()
	var evicted []Eviction

	if e.wrapper != nil {
		switch {
		case c.expiredLocked(e, now):
			evicted = append(evicted, c.flushLocked(key.ID, e, CauseExpired))
		case !e.wrapper.Owns(key.Item):
			evicted = append(evicted, c.flushLocked(key.ID, e, CauseStale))
		}
	}

	if e.wrapper == nil {
		e.wrapper = managed.New(c.registry, c.store, key.Item)
		c.loads.Add(1)
	} else {
		c.hits.Add(1)
	}
	e.lastAccess = now
	return e.wrapper, evicted
}

func (c *Cache) expiredLocked(e *entry, now time.Time) bool {
	return now.Sub(e.lastAccess) >= c.ttl
}

// evictWhere 对满足条件的条目写回并移除。
func (c *Cache) evictWhere(cause Cause, match func(*entry, time.Time) bool) int {
	now := c.now()
	var evicted []Eviction
	for id, e := range c.snapshot() {
		e.mu.Lock()
		if !e.removed && (e.wrapper == nil || match(e, now)) {
			evicted = append(evicted, c.removeLocked(id, e, cause)...)
		}
		e.mu.Unlock()
	}
	c.notify(evicted)
	return len(evicted)
}

// removeLocked 写回（如有包装层）并将条目从 map 摘除。调用方持有 e.mu。
func (c *Cache) removeLocked(id uuid.UUID, e *entry, cause Cause) []Eviction {
	if e.removed {
		return nil
	}
	var evicted []Eviction
	if e.wrapper != nil {
		evicted = append(evicted, c.flushLocked(id, e, cause))
	}
	e.removed = true

	c.mu.Lock()
	if c.entries[id] == e {
		delete(c.entries, id)
	}
	c.mu.Unlock()
	return evicted
}

// flushLocked 对包装层执行唯一一次写回，并使其不可再被取得。
func (c *Cache) flushLocked(id uuid.UUID, e *entry, cause Cause) Eviction {
	wrapper := e.wrapper
	dirty := wrapper.Dirty()
	target, err := wrapper.Flush()
	e.wrapper = nil

	c.evictions.Add(1)
	if err != nil {
		c.failures.Add(1)
	}
	return Eviction{
		ID:      id,
		Wrapper: wrapper,
		Item:    target,
		Cause:   cause,
		Dirty:   dirty,
		Err:     err,
	}
}

// notify 在条目锁之外记录日志并回调配置方。
func (c *Cache) notify(evicted []Eviction) {
	for _, ev := range evicted {
		fields := logging.CacheFields("cache_evict", ev.ID, string(ev.Cause))
		fields["dirty"] = ev.Dirty
		if ev.Err != nil {
			c.logger.WithFields(fields).WithError(ev.Err).Warn("item write-back failed")
		} else {
			c.logger.WithFields(fields).Debug("item flushed")
		}
		if c.onEvict != nil {
			c.onEvict(ev)
		}
	}
}
