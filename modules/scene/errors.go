package scene

import (
	"errors"
	"fmt"
	"net/http"

	"scene-studio-server/modules/common/quota"
)

// Kind - 호출자에게 보이는 에러 분류
type Kind int

const (
	KindGeneration     Kind = iota // 원격 생성 실패, 응답에 이미지 없음 (500)
	KindAuthentication             // connect에서 키 거부/네트워크 실패 (400)
	KindInvalidRequest             // 잘못된 JSON, 필수 필드 누락 (400)
	KindQuotaExceeded              // 이미지 한도 초과 (429)
)

// Error - Kind와 원인 에러
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string { return e.Err.Error() }

func (e *Error) Unwrap() error { return e.Err }

// StatusCode - Kind에 대응하는 HTTP 상태 코드
func (e *Error) StatusCode() int {
	switch e.Kind {
	case KindAuthentication, KindInvalidRequest:
		return http.StatusBadRequest
	case KindQuotaExceeded:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func newError(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// classify - 이미 분류된 에러는 그대로, 아니면 fallbackKind로 감싼다
func classify(err error, fallbackKind Kind) error {
	if err == nil {
		return nil
	}
	var se *Error
	if errors.As(err, &se) {
		return err
	}
	if errors.Is(err, quota.ErrExceeded) {
		return &Error{Kind: KindQuotaExceeded, Err: err}
	}
	return &Error{Kind: fallbackKind, Err: err}
}

// KindOf - 에러의 분류 (분류되지 않은 에러는 Generation)
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindGeneration
}

// StatusOf - 에러의 HTTP 상태 코드
func StatusOf(err error) int {
	var se *Error
	if errors.As(err, &se) {
		return se.StatusCode()
	}
	return http.StatusInternalServerError
}
