// Package tracking 负责为物品分配并识别稳定的 tracking id。
//
// tracking id 以 UUID 形式写入物品属性存储的保留键 item.TrackingKey，
// 之后无论宿主如何复制快照，只要属性随快照传递，就能识别为“同一个”物品。
package tracking

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/kingdomsofarden/crafty/internal/item"
)

// ErrMalformedTrackingID 表示保留键下存在无法解析的值。
var ErrMalformedTrackingID = errors.New("malformed tracking id")

// Tracker 基于属性存储读写 tracking id。
type Tracker struct {
	store item.Store
	newID func() uuid.UUID
}

// Option 调整 Tracker 行为。
type Option func(*Tracker)

// WithIDSource 替换随机 id 生成器，测试中用于得到确定的 id。
func WithIDSource(fn func() uuid.UUID) Option {
	return func(t *Tracker) {
		if fn != nil {
			t.newID = fn
		}
	}
}

// New 创建 Tracker，默认使用 uuid.New 生成随机 id。
func New(store item.Store, opts ...Option) *Tracker {
	t := &Tracker{store: store, newID: uuid.New}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Identify 返回物品的 tracking id；不存在时生成新 id 写入，并返回写入后的新快照。
func (t *Tracker) Identify(it item.Item) (item.Item, uuid.UUID, error) {
	if item.IsEmpty(it) {
		return it, uuid.Nil, item.ErrInvalidTarget
	}
	handle, err := t.store.NewTarget(it, item.TrackingKey)
	if err != nil {
		return it, uuid.Nil, err
	}
	if handle.HasData() {
		id, err := parse(handle.Data(""))
		return it, id, err
	}

	id := t.newID()
	if err := handle.SetData(id.String()); err != nil {
		return it, uuid.Nil, fmt.Errorf("write tracking id: %w", err)
	}
	return handle.Target(), id, nil
}

// TrackingID 只读查询 tracking id，不会分配新 id。
func (t *Tracker) TrackingID(it item.Item) (uuid.UUID, bool, error) {
	raw, ok, err := item.Read(t.store, it, item.TrackingKey)
	if err != nil || !ok {
		return uuid.Nil, false, err
	}
	id, err := parse(raw)
	if err != nil {
		return uuid.Nil, false, err
	}
	return id, true, nil
}

// IsTracked 返回物品是否已经带有 tracking id。空物品永远返回 false。
func (t *Tracker) IsTracked(it item.Item) bool {
	_, ok, err := t.TrackingID(it)
	return err == nil && ok
}

func parse(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %q", ErrMalformedTrackingID, raw)
	}
	return id, nil
}
