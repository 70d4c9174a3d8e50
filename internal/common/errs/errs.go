package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind 业务错误分类。
// 约定：
// - InvalidInput / InvalidTransition / Unauthorized / NotFound 原样透传给调用方
// - DependencyDegraded 表示非关键读失败后的降级结果，操作继续但必须可在日志/数据中区分
// - StorageFailure 表示写入未提交，调用方可重试，服务端不做内部重试
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidInput
	KindInvalidTransition
	KindUnauthorized
	KindNotFound
	KindDependencyDegraded
	KindStorageFailure
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindInvalidTransition:
		return "invalid_transition"
	case KindUnauthorized:
		return "unauthorized"
	case KindNotFound:
		return "not_found"
	case KindDependencyDegraded:
		return "dependency_degraded"
	case KindStorageFailure:
		return "storage_failure"
	default:
		return "unknown"
	}
}

// Error 带分类的业务错误
type Error struct {
	Kind  Kind
	Msg   string
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Cause }

// InvalidInput 必填字段缺失/非法
func InvalidInput(format string, args ...interface{}) error {
	return &Error{Kind: KindInvalidInput, Msg: fmt.Sprintf(format, args...)}
}

// InvalidTransition 当前状态不允许该变更
func InvalidTransition(format string, args ...interface{}) error {
	return &Error{Kind: KindInvalidTransition, Msg: fmt.Sprintf(format, args...)}
}

// Unauthorized 调用方角色不满足
func Unauthorized(format string, args ...interface{}) error {
	return &Error{Kind: KindUnauthorized, Msg: fmt.Sprintf(format, args...)}
}

// NotFound 记录不存在
func NotFound(format string, args ...interface{}) error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

// Storage 包装一次未提交的写失败
func Storage(cause error, format string, args ...interface{}) error {
	return &Error{Kind: KindStorageFailure, Msg: fmt.Sprintf(format, args...), Cause: cause}
}

// Degraded 包装一次降级的读失败
func Degraded(cause error, format string, args ...interface{}) error {
	return &Error{Kind: KindDependencyDegraded, Msg: fmt.Sprintf(format, args...), Cause: cause}
}

// KindOf 返回 err 的分类；非 *Error 一律 KindUnknown。
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsKind 判断 err 是否属于某分类
func IsKind(err error, k Kind) bool {
	return KindOf(err) == k
}

// HTTPStatus 错误分类到 HTTP 状态码的映射。
// DependencyDegraded 正常不会到达传输层（服务内降级吞掉），
// 若真的冒出来按 503 处理。
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindInvalidTransition:
		return http.StatusConflict
	case KindUnauthorized:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindDependencyDegraded:
		return http.StatusServiceUnavailable
	case KindStorageFailure:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
