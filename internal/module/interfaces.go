package module

import "github.com/google/uuid"

// Tag 记录模块实例来自哪个注册项。
type Tag struct {
	ID   uuid.UUID
	Name string
}

// NewTag 供应用代码直接构造新模块时使用。
func NewTag(id uuid.UUID, name string) Tag {
	return Tag{ID: id, Name: name}
}

// Module 是挂载在物品上的一段类型化状态。
type Module interface {
	Tag() Tag
	// Serialize 输出可被对应 Factory 还原的字符串。
	Serialize() string
}

// Factory 由存储的字符串还原模块。返回 (nil, nil) 表示没有可用数据；
// 返回 error 或 panic 会被视为反序列化失败并记录日志。
// 实现必须把 tag 原样交给构造出的模块，且不要返回带类型的 nil 指针。
type Factory func(tag Tag, data string) (Module, error)

// Base 可嵌入模块实现，提供 Tag 方法。
type Base struct {
	tag Tag
}

// NewBase 返回携带 tag 的 Base。
func NewBase(tag Tag) Base {
	return Base{tag: tag}
}

// Tag 实现 Module。
func (b Base) Tag() Tag {
	return b.tag
}

// Descriptor 描述一个已注册的模块。
type Descriptor struct {
	ID      uuid.UUID
	Name    string
	Aliases []string
	Factory Factory
}
