package llm

import (
	"errors"
	"net/http"
	"strings"

	"github.com/openai/openai-go"
	"google.golang.org/genai"
)

var (
	ErrEmptyResponse   = errors.New("model returned no output")
	ErrContentFiltered = errors.New("response blocked by content filter")
	ErrNoImageData     = errors.New("response contained no image data")
	ErrRateLimited     = errors.New("rate limited")
)

const statusResourceExhausted = "RESOURCE_EXHAUSTED"

// rateLimitMarkers are matched against error text only when no structured code is available
var rateLimitMarkers = []string{
	"resource_exhausted",
	"resource exhausted",
	"rate limit",
	"too many requests",
	"quota",
	"429",
}

// IsRateLimited reports whether err is a quota/throughput rejection.
// Structured codes are checked first; message inspection is the last resort.
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrRateLimited) {
		return true
	}

	if code, status, ok := apiErrorCode(err); ok {
		return code == http.StatusTooManyRequests || status == statusResourceExhausted
	}

	var openaiErr *openai.Error
	if errors.As(err, &openaiErr) {
		return openaiErr.StatusCode == http.StatusTooManyRequests
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range rateLimitMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// apiErrorCode extracts the Gemini API error code, which the SDK may return by value or pointer
func apiErrorCode(err error) (int, string, bool) {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code, apiErr.Status, true
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Code, apiErrPtr.Status, true
	}
	return 0, "", false
}
