// Package memstore 提供基于内存的写时复制属性存储，作为参考宿主供 CLI 与测试使用。
package memstore

import (
	"sort"

	"github.com/google/uuid"

	"github.com/kingdomsofarden/crafty/internal/item"
)

// Stack 是一个不可变的物品快照。Kind 为空表示空物品（AIR）。
type Stack struct {
	kind  string
	attrs map[uuid.UUID]string
}

// NewStack 创建指定类型、无任何属性的物品快照。
func NewStack(kind string) *Stack {
	return &Stack{kind: kind}
}

// Air 返回空物品占位符。
func Air() *Stack {
	return &Stack{}
}

// Kind 返回物品类型。
func (s *Stack) Kind() string {
	if s == nil {
		return ""
	}
	return s.kind
}

// Empty 实现 item.Item。
func (s *Stack) Empty() bool {
	return s == nil || s.kind == ""
}

// Equal 使用快照身份比较：写时复制产生的新快照与旧快照不相等。
func (s *Stack) Equal(other item.Item) bool {
	o, ok := other.(*Stack)
	return ok && o == s
}

// Attribute 直接读取属性值，便于诊断与测试。
func (s *Stack) Attribute(key uuid.UUID) (string, bool) {
	if s == nil {
		return "", false
	}
	v, ok := s.attrs[key]
	return v, ok
}

// Keys 返回按字符串排序的属性键。
func (s *Stack) Keys() []uuid.UUID {
	if s == nil || len(s.attrs) == 0 {
		return nil
	}
	keys := make([]uuid.UUID, 0, len(s.attrs))
	for k := range s.attrs {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].String() < keys[j].String()
	})
	return keys
}

// with 复制当前快照并设置 key 的值。
func (s *Stack) with(key uuid.UUID, value string) *Stack {
	attrs := make(map[uuid.UUID]string, len(s.attrs)+1)
	for k, v := range s.attrs {
		attrs[k] = v
	}
	attrs[key] = value
	return &Stack{kind: s.kind, attrs: attrs}
}
