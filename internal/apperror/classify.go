package apperror

import (
	"context"
	"errors"
	"net"
	"net/http"
	"regexp"
	"strings"

	"google.golang.org/genai"
)

const providerEndpoint = "/api/chat"

// ratePattern needs "rate" as its own word, not a bare substring, so
// "generate" or "accelerate" stay API_INTERNAL_ERROR. "limit" is checked
// before it, which makes "rate limit exceeded" a quota error.
var ratePattern = regexp.MustCompile(`(?i)\brate(\b|[_ -]?limit)`)

// Classify maps any failure onto the taxonomy. Already classified errors are
// returned unchanged; unrecognised failures become a medium severity
// INTERNAL_ERROR.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}

	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}

	if _, ok := providerStatus(err); ok {
		return FromProvider(err, nil)
	}

	if isTimeout(err) || isNetwork(err) {
		return FromTransport(err, "")
	}

	return New(Internal, "", SeverityMedium, map[string]any{"originalError": err.Error()}).WithCause(err)
}

// FromStatus classifies an HTTP status code.
func FromStatus(status int, endpoint string, fields map[string]any) *Error {
	switch status {
	case http.StatusTooManyRequests:
		return NewAPI(APIRateLimit, status, endpoint, "", fields)
	case http.StatusUnauthorized:
		return NewAPI(APIKeyInvalid, status, endpoint, "", fields)
	default:
		return NewAPI(APIInternal, status, endpoint, "", fields)
	}
}

// FromTransport classifies a failure of the transport itself: aborts and
// timeouts or unreachable networks. Anything else is an API internal error.
func FromTransport(err error, endpoint string) *Error {
	ctx := map[string]any{"originalError": err.Error()}

	if isTimeout(err) {
		return NewNetwork("リクエストがタイムアウトしました", true, ctx).WithCause(err)
	}
	if isNetwork(err) {
		return NewNetwork("ネットワーク接続に問題があります", false, ctx).WithCause(err)
	}

	return NewAPI(APIInternal, http.StatusInternalServerError, endpoint, "", ctx).WithCause(err)
}

// FromProvider classifies an error returned by the generation provider.
// Message patterns win over status codes because providers report bad
// credentials and exhausted quotas under generic statuses.
func FromProvider(err error, fields map[string]any) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	if isTimeout(err) {
		return FromTransport(err, providerEndpoint)
	}

	msg := err.Error()
	lower := strings.ToLower(msg)

	switch {
	case strings.Contains(msg, "API_KEY") || strings.Contains(lower, "authentication"):
		return NewAPI(APIKeyInvalid, http.StatusUnauthorized, providerEndpoint, "APIキーが無効です", fields).WithCause(err)
	case strings.Contains(lower, "quota") || strings.Contains(lower, "limit"):
		return NewAPI(APIQuota, http.StatusTooManyRequests, providerEndpoint, "API使用量の上限に達しました", fields).WithCause(err)
	case ratePattern.MatchString(msg):
		return NewAPI(APIRateLimit, http.StatusTooManyRequests, providerEndpoint, "リクエストが多すぎます", fields).WithCause(err)
	}

	if status, ok := providerStatus(err); ok && status != 0 {
		return FromStatus(status, providerEndpoint, fields).WithCause(err)
	}
	if isNetwork(err) {
		return FromTransport(err, providerEndpoint)
	}

	return NewAPI(APIInternal, http.StatusInternalServerError, providerEndpoint, "AIサービスに一時的な問題が発生しています", fields).WithCause(err)
}

func providerStatus(err error) (int, bool) {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code, true
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Code, true
	}
	return 0, false
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "timeout")
}

func isNetwork(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	lower := strings.ToLower(err.Error())
	return strings.Contains(lower, "fetch") ||
		strings.Contains(lower, "network") ||
		strings.Contains(lower, "connection refused") ||
		strings.Contains(lower, "no such host")
}
