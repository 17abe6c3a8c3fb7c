package module

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrConflict 表示 id 或名称已绑定到不同的注册项。
	ErrConflict = errors.New("module registration conflict")
	// ErrCapability 表示工厂无法反序列化模块。
	ErrCapability = errors.New("module factory missing")
	// ErrInvalidDescriptor 表示名称或 id 为空。
	ErrInvalidDescriptor = errors.New("invalid module descriptor")
)

// RegistrationError 携带注册失败的上下文，可通过 errors.Is 匹配哨兵错误。
type RegistrationError struct {
	Name   string
	ID     uuid.UUID
	Reason string
	Err    error
}

func (e *RegistrationError) Error() string {
	return fmt.Sprintf("register module %q (%s): %s: %v", e.Name, e.ID, e.Reason, e.Err)
}

func (e *RegistrationError) Unwrap() error {
	return e.Err
}

func registrationError(name string, id uuid.UUID, err error, format string, args ...any) error {
	return &RegistrationError{Name: name, ID: id, Reason: fmt.Sprintf(format, args...), Err: err}
}

// DeserializationError 表示工厂在还原模块时意外失败。
type DeserializationError struct {
	Tag Tag
	Err error
}

func (e *DeserializationError) Error() string {
	return fmt.Sprintf("deserialize module %q (%s): %v", e.Tag.Name, e.Tag.ID, e.Err)
}

func (e *DeserializationError) Unwrap() error {
	return e.Err
}
