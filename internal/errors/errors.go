package errors

import (
	stdErrors "errors"
	"fmt"
	"sync"
)

// Code 表示链访问层的统一错误码。
type Code string

const (
	CodeUnknown         Code = "UNKNOWN"
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	CodeConfigNotFound  Code = "CONFIG_NOT_FOUND"
	CodeAccountNotFound Code = "ACCOUNT_NOT_FOUND"
	CodeCallFailed      Code = "CALL_FAILED"
)

var (
	registryMu sync.RWMutex
	registry   = map[Code]string{
		CodeUnknown:         "unknown error",
		CodeInvalidArgument: "invalid argument",
		CodeConfigNotFound:  "network configuration not found",
		CodeAccountNotFound: "account not found",
		CodeCallFailed:      "aggregated call failed",
	}
)

// 可直接配合 errors.Is 使用的哨兵错误。
var (
	ErrConfigNotFound  = New(CodeConfigNotFound, "")
	ErrAccountNotFound = New(CodeAccountNotFound, "")
	ErrCallFailed      = New(CodeCallFailed, "")
	ErrInvalidArgument = New(CodeInvalidArgument, "")
)

// Register 允许业务模块在初始化阶段注册新的错误码描述。
func Register(code Code, message string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[code] = message
}

// MessageOf 返回错误码的默认描述。若未注册则返回 UNKNOWN 的描述。
func MessageOf(code Code) string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	if msg, ok := registry[code]; ok {
		return msg
	}
	return registry[CodeUnknown]
}

// Error 是链访问层统一的错误类型。
type Error struct {
	code     Code
	message  string
	cause    error
	metadata map[string]string
}

// Option 定义可选配置。
type Option func(*Error)

// WithMetadata 附加额外信息。
func WithMetadata(key, value string) Option {
	return func(e *Error) {
		if e.metadata == nil {
			e.metadata = make(map[string]string)
		}
		e.metadata[key] = value
	}
}

// New 创建一个新的错误实例。
func New(code Code, message string, opts ...Option) *Error {
	if message == "" {
		message = MessageOf(code)
	}
	e := &Error{code: code, message: message}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// Newf 使用格式化信息创建错误。
func Newf(code Code, format string, args ...any) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap 在已有错误外包裹统一错误类型。
func Wrap(code Code, cause error, message string, opts ...Option) *Error {
	e := New(code, message, opts...)
	e.cause = cause
	return e
}

// Error 实现 error 接口。
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.code, e.message)
}

// Unwrap 实现 errors.Unwrap。
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// Is 允许通过 errors.Is 判断是否相同错误码。
func (e *Error) Is(target error) bool {
	if e == nil || target == nil {
		return false
	}
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.code == t.code
}

// Code 返回错误码。
func (e *Error) Code() Code {
	if e == nil {
		return CodeUnknown
	}
	return e.code
}

// Message 返回错误信息。
func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

// Metadata 返回附加信息。
func (e *Error) Metadata() map[string]string {
	if e == nil || len(e.metadata) == 0 {
		return nil
	}
	clone := make(map[string]string, len(e.metadata))
	for k, v := range e.metadata {
		clone[k] = v
	}
	return clone
}

// From 尝试从 error 中解析统一错误类型。
func From(err error) (*Error, bool) {
	if err == nil {
		return nil, false
	}
	var target *Error
	if stdErrors.As(err, &target) {
		return target, true
	}
	return nil, false
}

// CodeOf 返回错误对应的错误码。
func CodeOf(err error) Code {
	if e, ok := From(err); ok {
		return e.Code()
	}
	return CodeUnknown
}
