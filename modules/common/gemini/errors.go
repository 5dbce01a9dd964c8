package gemini

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

// entityNotFound - 키가 더 이상 유효하지 않을 때 Gemini API가 주는 메시지
const entityNotFound = "Requested entity was not found"

// DownloadError - 생성 파일 다운로드 시 2xx 아닌 응답
type DownloadError struct {
	StatusCode int
	Status     string
}

func (e *DownloadError) Error() string {
	status := e.Status
	if status == "" {
		status = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("Failed to download video: %s", status)
}

// IsEntityNotFound - 키가 잘못됐거나 만료됐다는 신호인지 확인
// (알려진 메시지, NOT_FOUND API 에러, 다운로드 404)
func IsEntityNotFound(err error) bool {
	if err == nil {
		return false
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) && isNotFoundStatus(apiErr.Code, apiErr.Status) {
		return true
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil && isNotFoundStatus(apiErrPtr.Code, apiErrPtr.Status) {
		return true
	}

	var dlErr *DownloadError
	if errors.As(err, &dlErr) && dlErr.StatusCode == http.StatusNotFound {
		return true
	}

	// TODO: API가 폐기된 키 전용 에러 reason을 제공하면 문자열 검사 제거
	return strings.Contains(err.Error(), entityNotFound)
}

func isNotFoundStatus(code int, status string) bool {
	return code == http.StatusNotFound || strings.EqualFold(status, "NOT_FOUND")
}

// Message - err에서 가장 구체적인 메시지 추출
func Message(err error) string {
	if err == nil {
		return ""
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil && apiErrPtr.Message != "" {
		return apiErrPtr.Message
	}
	return err.Error()
}

// OperationError - 완료된 operation의 에러 payload를 error로 변환 (없으면 nil)
func OperationError(payload map[string]any) error {
	if len(payload) == 0 {
		return nil
	}
	apiErr := genai.APIError{}
	if msg, ok := payload["message"].(string); ok {
		apiErr.Message = msg
	}
	switch code := payload["code"].(type) {
	case float64:
		apiErr.Code = int(code)
	case int:
		apiErr.Code = code
	case int32:
		apiErr.Code = int(code)
	case int64:
		apiErr.Code = int(code)
	}
	if status, ok := payload["status"].(string); ok {
		apiErr.Status = status
	}
	if apiErr.Message == "" {
		apiErr.Message = fmt.Sprintf("video operation failed: %v", payload)
	}
	return apiErr
}
