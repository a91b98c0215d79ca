// Package client はストアAPIのクライアントと、画面が参照するアプリケーション状態を提供する。
//
// APIのエンベロープはネットワーク境界でResultにデコードし、
// 以降の層ではsuccessフィールドの有無を直接見ない。
package client

import (
	"fmt"
	"net/http"
)

// ErrorKind は失敗したAPI呼び出しの分類。
type ErrorKind int

const (
	// KindInternal はサーバー内部エラー、または分類できない失敗。
	KindInternal ErrorKind = iota
	// KindUnauthorized は認証情報がない、または無効な場合。
	KindUnauthorized
	// KindForbidden は権限不足。
	KindForbidden
	// KindInvalidArgument は不正な入力値。
	KindInvalidArgument
	// KindNotFound は参照先が存在しない場合。
	KindNotFound
	// KindConflict は一意制約などの競合。
	KindConflict
	// KindRateLimited はレート制限超過。
	KindRateLimited
	// KindTransport は接続失敗やエンベロープとして解釈できない応答。
	KindTransport
)

func (k ErrorKind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindInvalidArgument:
		return "invalid_argument"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindRateLimited:
		return "rate_limited"
	case KindTransport:
		return "transport"
	default:
		return "internal"
	}
}

// Error はResultの失敗側。Codeはサーバーのエラーコード（トランスポート失敗時は空）。
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
	Status  int // HTTPステータス。応答を受け取れなかった場合は0
}

// Error はerrorインターフェースを実装する。
func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s [%s]: %s", e.Kind, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Result はAPI呼び出しの結果。Ok(値)かErr(分類, メッセージ)のどちらか一方を保持する。
type Result[T any] struct {
	value   T
	message string
	err     *Error
}

// Ok は成功のResultを生成する。messageはサーバーが返した案内文。
func Ok[T any](value T, message string) Result[T] {
	return Result[T]{value: value, message: message}
}

// Err は失敗のResultを生成する。
func Err[T any](err *Error) Result[T] {
	return Result[T]{err: err}
}

// IsOk は成功かどうかを返す。
func (r Result[T]) IsOk() bool {
	return r.err == nil
}

// Value は成功時の値を返す。失敗時はゼロ値。
func (r Result[T]) Value() T {
	return r.value
}

// Message は成功時はサーバーの案内文、失敗時はエラーメッセージを返す。
func (r Result[T]) Message() string {
	if r.err != nil {
		return r.err.Message
	}
	return r.message
}

// Error は失敗時のErrorを返す。成功時はnil。
func (r Result[T]) Error() *Error {
	return r.err
}

// Unwrap は値とerrorの組に変換する。成功時のerrorは必ずnilインターフェース。
func (r Result[T]) Unwrap() (T, error) {
	if r.err != nil {
		return r.value, r.err
	}
	return r.value, nil
}

// kindFromCode はサーバーのエラーコードを分類する。
// 未知のコードはHTTPステータスから推定する。
func kindFromCode(code string, status int) ErrorKind {
	switch code {
	case "UNAUTHORIZED", "INVALID_CREDENTIALS":
		return KindUnauthorized
	case "FORBIDDEN":
		return KindForbidden
	case "INVALID_PRODUCT_ID", "INVALID_REQUEST", "VALIDATION_FAILED":
		return KindInvalidArgument
	case "PRODUCT_NOT_FOUND", "USER_NOT_FOUND", "ROUTE_NOT_FOUND":
		return KindNotFound
	case "EMAIL_TAKEN":
		return KindConflict
	case "RATE_LIMITED":
		return KindRateLimited
	case "INTERNAL_ERROR":
		return KindInternal
	}
	return kindFromStatus(status)
}

func kindFromStatus(status int) ErrorKind {
	switch status {
	case http.StatusUnauthorized:
		return KindUnauthorized
	case http.StatusForbidden:
		return KindForbidden
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return KindInvalidArgument
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusConflict:
		return KindConflict
	case http.StatusTooManyRequests:
		return KindRateLimited
	default:
		return KindInternal
	}
}
