// Package managed 提供物品包装层：持有一件物品当前已加载的模块，
// 记录是否被修改，并在 Flush 时把模块状态写回物品属性存储。
package managed

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/kingdomsofarden/crafty/internal/item"
	"github.com/kingdomsofarden/crafty/internal/module"
)

// ErrUnregisteredModule 表示 Attach 的模块 id 未在注册表中登记。
var ErrUnregisteredModule = errors.New("module not registered")

// WriteBackError 汇总一次 Flush 中失败的模块写回。
type WriteBackError struct {
	Failed []uuid.UUID
	Err    error
}

func (e *WriteBackError) Error() string {
	return fmt.Sprintf("write back %d module(s): %v", len(e.Failed), e.Err)
}

func (e *WriteBackError) Unwrap() error {
	return e.Err
}

// Item 独占持有一件物品的已加载模块。所有方法并发安全，
// 调用方不会观察到 Flush 进行到一半的状态。
type Item struct {
	registry *module.Registry
	store    item.Store

	mu     sync.Mutex
	target item.Item
	// lineage 记录创建时的快照以及 Flush 产生的每个快照。
	lineage []item.Item
	loaded  map[uuid.UUID]module.Module
	dirty   bool
}

// New 为 target 创建包装。
func New(registry *module.Registry, store item.Store, target item.Item) *Item {
	return &Item{
		registry: registry,
		store:    store,
		target:   target,
		lineage:  []item.Item{target},
		loaded:   make(map[uuid.UUID]module.Module),
	}
}

// Target 返回当前持有的物品快照（Flush 后为写回后的新快照）。
func (m *Item) Target() item.Item {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.target
}

// Owns 判断 it 是否为包装层创建时的快照或由它自己写回产生的快照。
// 持有这些快照的调用方看到的仍是同一件物品，不应触发失效。
func (m *Item) Owns(it item.Item) bool {
	if it == nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, known := range m.lineage {
		if known != nil && known.Equal(it) {
			return true
		}
	}
	return false
}

// Module 返回已加载的模块；未加载时从物品中解析并在包装生命周期内复用。
// 物品上没有该模块数据时返回 (nil, nil)。
func (m *Item) Module(id uuid.UUID) (module.Module, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if mod, ok := m.loaded[id]; ok {
		return mod, nil
	}
	mod, err := m.registry.Resolve(id, m.target)
	if err != nil || mod == nil {
		return nil, err
	}
	m.loaded[id] = mod
	return mod, nil
}

// ModuleByName 按名称（含别名）获取模块。
func (m *Item) ModuleByName(name string) (module.Module, error) {
	id, ok := m.registry.ModuleID(name)
	if !ok {
		return nil, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if mod, ok := m.loaded[id]; ok {
		return mod, nil
	}
	mod, err := m.registry.ResolveByName(name, m.target)
	if err != nil || mod == nil {
		return nil, err
	}
	m.loaded[id] = mod
	return mod, nil
}

// Attach 挂载由应用代码新建的模块，覆盖同 id 的已加载实例并标记为脏。
func (m *Item) Attach(mod module.Module) error {
	if mod == nil {
		return errors.New("module is nil")
	}
	tag := mod.Tag()
	if _, ok := m.registry.ModuleName(tag.ID); !ok {
		return fmt.Errorf("%w: %q (%s)", ErrUnregisteredModule, tag.Name, tag.ID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if item.IsEmpty(m.target) {
		return item.ErrInvalidTarget
	}
	m.loaded[tag.ID] = mod
	m.dirty = true
	return nil
}

// MarkDirty 由模块的修改路径调用，表示序列化结果可能已变化。
func (m *Item) MarkDirty() {
	m.mu.Lock()
	m.dirty = true
	m.mu.Unlock()
}

// Dirty 返回自上次成功 Flush 以来是否有修改。
func (m *Item) Dirty() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dirty
}

// Loaded 返回已加载模块的 id，按字符串排序。
func (m *Item) Loaded() []uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadedIDsLocked()
}

// Flush 序列化所有已加载模块并写回物品，返回写回后的快照。
// 单个模块失败不会阻止其它模块写回；失败信息以 *WriteBackError 返回。
// 重复调用会再次写入，但最终持久化状态相同。
func (m *Item) Flush() (item.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.loaded) == 0 {
		m.dirty = false
		return m.target, nil
	}
	if item.IsEmpty(m.target) {
		return m.target, &WriteBackError{Failed: m.loadedIDsLocked(), Err: item.ErrInvalidTarget}
	}

	var (
		failed []uuid.UUID
		errs   []error
	)
	target := m.target
	for _, id := range m.loadedIDsLocked() {
		next, err := item.Write(m.store, target, id, m.loaded[id].Serialize())
		if err != nil {
			failed = append(failed, id)
			errs = append(errs, fmt.Errorf("module %s: %w", id, err))
			continue
		}
		target = next
	}
	if !target.Equal(m.target) {
		m.lineage = append(m.lineage, target)
	}
	m.target = target

	if len(errs) > 0 {
		return target, &WriteBackError{Failed: failed, Err: errors.Join(errs...)}
	}
	m.dirty = false
	return target, nil
}

func (m *Item) loadedIDsLocked() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(m.loaded))
	for id := range m.loaded {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return ids[i].String() < ids[j].String()
	})
	return ids
}
