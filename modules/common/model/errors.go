package model

import (
	"errors"
	"fmt"
)

// ValidationError - 폼 검증 실패 (생성기까지 가지 않음)
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// APIKeyError - API 키 거부 (잘못됨/만료/폐기)
type APIKeyError struct {
	Err error
}

func (e *APIKeyError) Error() string {
	return "API Key error. Please re-select your key."
}

func (e *APIKeyError) Unwrap() error {
	return e.Err
}

// GenerationFailedError - 그 외 모든 생성 실패
type GenerationFailedError struct {
	Message string
	Err     error
}

func (e *GenerationFailedError) Error() string {
	return e.Message
}

func (e *GenerationFailedError) Unwrap() error {
	return e.Err
}

// GenerationFailed - 메시지가 없으면 원인 에러 메시지 사용
func GenerationFailed(message string, cause error) *GenerationFailedError {
	if message == "" && cause != nil {
		message = cause.Error()
	}
	if message == "" {
		message = "An unknown error occurred while communicating with the Gemini API."
	}
	return &GenerationFailedError{Message: message, Err: cause}
}

func IsAPIKeyError(err error) bool {
	var target *APIKeyError
	return errors.As(err, &target)
}

func IsValidationError(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// ErrNotReady - 현재 상태에서 허용되지 않는 요청
var ErrNotReady = errors.New("studio is not ready for this action")
