package module

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/kingdomsofarden/crafty/internal/item"
	"github.com/kingdomsofarden/crafty/internal/logging"
)

// Registry 维护 id → 工厂、名称 → id、id → 名称三张表。
// 注册只应发生在初始化阶段，解析可与注册并发进行。
type Registry struct {
	store  item.Store
	logger logrus.FieldLogger

	mu       sync.RWMutex
	byID     map[uuid.UUID]Descriptor
	nameToID map[string]uuid.UUID
	idToName map[uuid.UUID]string
}

// Option 调整注册表行为。
type Option func(*Registry)

// WithLogger 指定反序列化失败时使用的日志器。
func WithLogger(logger logrus.FieldLogger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRegistry 创建空注册表，store 用于读取物品上的模块数据。
func NewRegistry(store item.Store, opts ...Option) *Registry {
	r := &Registry{
		store:    store,
		logger:   logrus.StandardLogger(),
		byID:     make(map[uuid.UUID]Descriptor),
		nameToID: make(map[string]uuid.UUID),
		idToName: make(map[uuid.UUID]string),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register 绑定 (name, id, factory)。完全相同的重复注册直接成功；
// 同一 id + 同一工厂搭配未占用的新名称会追加别名。
func (r *Registry) Register(name string, id uuid.UUID, factory Factory) error {
	name = strings.TrimSpace(name)
	if factory == nil {
		return registrationError(name, id, ErrCapability, "factory is required")
	}
	if name == "" || id == uuid.Nil {
		return registrationError(name, id, ErrInvalidDescriptor, "name and id are required")
	}
	if id == item.TrackingKey {
		return registrationError(name, id, ErrConflict, "id is reserved for item tracking")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	boundID, nameBound := r.nameToID[name]

	if existing, ok := r.byID[id]; ok {
		if !sameFactory(existing.Factory, factory) {
			return registrationError(name, id, ErrConflict, "id already registered as %q with a different factory", r.idToName[id])
		}
		if !nameBound {
			r.nameToID[name] = id
			return nil
		}
		if boundID == id {
			return nil
		}
		return registrationError(name, id, ErrConflict, "name already bound to %s", boundID)
	}

	if nameBound {
		return registrationError(name, id, ErrConflict, "name already bound to %s", boundID)
	}

	r.byID[id] = Descriptor{ID: id, Name: name, Factory: factory}
	r.nameToID[name] = id
	r.idToName[id] = name
	return nil
}

// MustRegister 在注册失败时 panic，适合启动阶段调用。
func (r *Registry) MustRegister(name string, id uuid.UUID, factory Factory) {
	if err := r.Register(name, id, factory); err != nil {
		panic(err)
	}
}

// ModuleID 根据名称（含别名）查询模块 id。
func (r *Registry) ModuleID(name string) (uuid.UUID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.nameToID[strings.TrimSpace(name)]
	return id, ok
}

// ModuleName 返回模块首次注册时的名称。
func (r *Registry) ModuleName(id uuid.UUID) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	name, ok := r.idToName[id]
	return name, ok
}

// Lookup 返回 id 对应的注册项（含别名列表）。
func (r *Registry) Lookup(id uuid.UUID) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	desc, ok := r.byID[id]
	if !ok {
		return Descriptor{}, false
	}
	desc.Aliases = r.aliasesLocked(id, desc.Name)
	return desc, true
}

// List 返回按名称排序的注册项。
func (r *Registry) List() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.byID) == 0 {
		return nil
	}
	result := make([]Descriptor, 0, len(r.byID))
	for id, desc := range r.byID {
		desc.Aliases = r.aliasesLocked(id, desc.Name)
		result = append(result, desc)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result
}

// Resolve 按 id 从物品中加载模块。模块未注册、物品上无数据或数据无法还原时返回 (nil, nil)。
func (r *Registry) Resolve(id uuid.UUID, it item.Item) (Module, error) {
	if item.IsEmpty(it) {
		return nil, item.ErrInvalidTarget
	}
	r.mu.RLock()
	desc, ok := r.byID[id]
	name := r.idToName[id]
	r.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return r.load(desc.Factory, Tag{ID: id, Name: name}, it)
}

// ResolveByName 按名称（含别名）加载模块。模块的 Tag 始终使用首次注册的名称。
func (r *Registry) ResolveByName(name string, it item.Item) (Module, error) {
	if item.IsEmpty(it) {
		return nil, item.ErrInvalidTarget
	}
	name = strings.TrimSpace(name)
	r.mu.RLock()
	id, ok := r.nameToID[name]
	desc := r.byID[id]
	canonical := r.idToName[id]
	r.mu.RUnlock()
	if !ok || desc.Factory == nil {
		return nil, nil
	}
	return r.load(desc.Factory, Tag{ID: id, Name: canonical}, it)
}

func (r *Registry) load(factory Factory, tag Tag, it item.Item) (Module, error) {
	data, ok, err := item.Read(r.store, it, tag.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	mod, err := deserialize(factory, tag, data)
	if err != nil {
		fields := logging.ModuleFields("module_load", tag.ID, tag.Name)
		r.logger.WithFields(fields).WithError(err).Warn("module deserialization failed")
		return nil, nil
	}
	return mod, nil
}

// deserialize 隔离单个工厂的错误与 panic，避免影响同一物品上的其它模块。
func deserialize(factory Factory, tag Tag, data string) (mod Module, err error) {
	defer func() {
		if p := recover(); p != nil {
			mod = nil
			err = &DeserializationError{Tag: tag, Err: fmt.Errorf("panic: %v", p)}
		}
	}()

	mod, err = factory(tag, data)
	if err != nil {
		return nil, &DeserializationError{Tag: tag, Err: err}
	}
	if mod == nil {
		return nil, nil
	}
	if got := mod.Tag(); got != tag {
		return nil, &DeserializationError{Tag: tag, Err: fmt.Errorf("factory produced module tagged %q (%s)", got.Name, got.ID)}
	}
	return mod, nil
}

func (r *Registry) aliasesLocked(id uuid.UUID, canonical string) []string {
	var aliases []string
	for name, bound := range r.nameToID {
		if bound == id && name != canonical {
			aliases = append(aliases, name)
		}
	}
	sort.Strings(aliases)
	return aliases
}

// sameFactory 以函数入口地址判断两个工厂是否为同一实现。
func sameFactory(a, b Factory) bool {
	return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
}
