package apperr

import (
	"errors"
	"fmt"
)

// 错误类别，调用方统一使用 errors.Is 判断。
var (
	ErrValidation      = errors.New("validation error")
	ErrWeakPassword    = errors.New("weak password")
	ErrDuplicateEmail  = errors.New("duplicate email")
	ErrAuthFailure     = errors.New("authentication failed")
	ErrNotFound        = errors.New("not found")
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrEntryNotFound   = errors.New("entry not found")
	ErrStorage         = errors.New("storage error")
	ErrNoSession       = errors.New("no open session")
)

// Validation 构造携带字段说明的校验错误。
func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// NotFound 构造资源缺失错误，kind 形如 "cv"、"user"。
func NotFound(kind string, id any) error {
	return fmt.Errorf("%w: %s %v", ErrNotFound, kind, id)
}

// Storage 将底层持久化错误包装为 ErrStorage，同时保留原始错误链。
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	return &storageError{op: op, err: err}
}

type storageError struct {
	op  string
	err error
}

func (e *storageError) Error() string { return e.op + ": " + e.err.Error() }

func (e *storageError) Unwrap() []error { return []error{ErrStorage, e.err} }

// Kind 返回错误所属类别的简短名称，用于日志与 API 响应。
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrWeakPassword):
		return "weak_password"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrDuplicateEmail):
		return "duplicate_email"
	case errors.Is(err, ErrAuthFailure):
		return "auth_failure"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrIndexOutOfRange):
		return "index_out_of_range"
	case errors.Is(err, ErrEntryNotFound):
		return "entry_not_found"
	case errors.Is(err, ErrNoSession):
		return "no_session"
	case errors.Is(err, ErrStorage):
		return "storage"
	default:
		return "internal"
	}
}
