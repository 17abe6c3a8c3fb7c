package item

import (
	"errors"

	"github.com/google/uuid"
)

// TrackingKey 是存放 tracking id 的保留键，模块 id 不允许与之冲突。
var TrackingKey = uuid.MustParse("198d8160-c487-11e3-9c1a-0800200c9a66")

// ErrInvalidTarget 表示在空物品（占位符）上尝试读写数据。
var ErrInvalidTarget = errors.New("invalid item target")

// Item 描述宿主物品的一个不可变快照。
type Item interface {
	// Empty 返回该快照是否为“空物品”占位符，空物品上不允许任何存储操作。
	Empty() bool
	// Equal 使用宿主自身的相等语义比较两个快照。
	Equal(other Item) bool
}

// Store 是嵌入在物品元数据中的键值存储，按 UUID 寻址。
type Store interface {
	// NewTarget 打开 it 上 key 对应的存储句柄。空物品返回 ErrInvalidTarget。
	NewTarget(it Item, key uuid.UUID) (Handle, error)
}

// Handle 是针对单个键的读写句柄。写入后 Target 可能返回新的快照。
type Handle interface {
	HasData() bool
	// Data 返回已存储的值，不存在时返回 def。
	Data(def string) string
	SetData(value string) error
	Target() Item
}

// IsEmpty 同时处理 nil 与空物品。
func IsEmpty(it Item) bool {
	return it == nil || it.Empty()
}

// Read 读取 key 下的数据，第二个返回值表示是否存在。
func Read(store Store, it Item, key uuid.UUID) (string, bool, error) {
	if IsEmpty(it) {
		return "", false, ErrInvalidTarget
	}
	handle, err := store.NewTarget(it, key)
	if err != nil {
		return "", false, err
	}
	if !handle.HasData() {
		return "", false, nil
	}
	return handle.Data(""), true, nil
}

// Write 将 value 写入 key，并返回写入后的新快照。
func Write(store Store, it Item, key uuid.UUID, value string) (Item, error) {
	if IsEmpty(it) {
		return it, ErrInvalidTarget
	}
	handle, err := store.NewTarget(it, key)
	if err != nil {
		return it, err
	}
	if err := handle.SetData(value); err != nil {
		return it, err
	}
	return handle.Target(), nil
}
