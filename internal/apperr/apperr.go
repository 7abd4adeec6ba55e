// Package apperr 定义了业务层统一使用的带类别的错误。
//
// handler 层只根据 Kind 决定 HTTP 状态码，不解析错误文本。
package apperr

import (
	"errors"
	"fmt"
)

// Kind 是错误类别。
type Kind uint8

const (
	KindInternal Kind = iota
	KindUnauthorized
	KindForbidden
	// KindNotFoundOrUnauthorized 有意合并“不存在”和“不属于当前用户”两种情况，
	// 避免泄露其他用户会话的存在。
	KindNotFoundOrUnauthorized
	KindNotFound
	KindBadRequest
	KindConflict
	KindPersistence
	KindConfiguration
)

func (k Kind) String() string {
	switch k {
	case KindUnauthorized:
		return "Unauthorized"
	case KindForbidden:
		return "Forbidden"
	case KindNotFoundOrUnauthorized:
		return "NotFoundOrUnauthorized"
	case KindNotFound:
		return "NotFound"
	case KindBadRequest:
		return "BadRequest"
	case KindConflict:
		return "Conflict"
	case KindPersistence:
		return "PersistenceFailure"
	case KindConfiguration:
		return "ConfigurationFailure"
	default:
		return "Internal"
	}
}

// Error 是带类别的业务错误。
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	case e.Msg != "":
		return e.Msg
	case e.Err != nil:
		return e.Err.Error()
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is 按类别匹配，使 errors.Is(err, apperr.ErrNotFound) 之类的判断成立。
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// 各类别的哨兵值，仅用于 errors.Is 比较。
var (
	ErrUnauthorized           = &Error{Kind: KindUnauthorized, Msg: "unauthorized"}
	ErrForbidden              = &Error{Kind: KindForbidden, Msg: "forbidden"}
	ErrNotFoundOrUnauthorized = &Error{Kind: KindNotFoundOrUnauthorized, Msg: "not found or unauthorized"}
	ErrNotFound               = &Error{Kind: KindNotFound, Msg: "not found"}
	ErrBadRequest             = &Error{Kind: KindBadRequest, Msg: "bad request"}
	ErrConflict               = &Error{Kind: KindConflict, Msg: "conflict"}
	ErrPersistence            = &Error{Kind: KindPersistence, Msg: "persistence failure"}
	ErrConfiguration          = &Error{Kind: KindConfiguration, Msg: "configuration failure"}
)

// New 创建一个指定类别的错误。
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Wrap 用指定类别包装底层错误。err 为 nil 时返回 nil。
func Wrap(kind Kind, msg string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf 返回错误链上第一个 *Error 的类别，找不到时返回 KindInternal。
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
