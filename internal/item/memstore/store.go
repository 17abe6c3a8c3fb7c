package memstore

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/kingdomsofarden/crafty/internal/item"
)

// Store 是 *Stack 的属性存储实现，本身无状态，可并发使用。
type Store struct{}

// New 返回一个内存属性存储。
func New() Store {
	return Store{}
}

// NewTarget 实现 item.Store。
func (Store) NewTarget(it item.Item, key uuid.UUID) (item.Handle, error) {
	if item.IsEmpty(it) {
		return nil, item.ErrInvalidTarget
	}
	stack, ok := it.(*Stack)
	if !ok {
		return nil, fmt.Errorf("memstore: unsupported item type %T", it)
	}
	return &handle{stack: stack, key: key}, nil
}

// handle 在每次 SetData 后持有最新快照。
type handle struct {
	stack *Stack
	key   uuid.UUID
}

func (h *handle) HasData() bool {
	_, ok := h.stack.attrs[h.key]
	return ok
}

func (h *handle) Data(def string) string {
	if v, ok := h.stack.attrs[h.key]; ok {
		return v
	}
	return def
}

func (h *handle) SetData(value string) error {
	if h.stack.Empty() {
		return item.ErrInvalidTarget
	}
	h.stack = h.stack.with(h.key, value)
	return nil
}

func (h *handle) Target() item.Item {
	return h.stack
}
