package apperror

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestRetryableTable(t *testing.T) {
	want := map[Code]bool{
		APITimeout:          true,
		APIInternal:         true,
		NetworkError:        true,
		NetworkTimeout:      true,
		CharacterLoadFailed: true,
	}

	for _, code := range Codes() {
		assert.Equal(t, want[code], code.Retryable(), "code %s", code)
	}
}

func TestEveryCodeHasMessage(t *testing.T) {
	assert.Len(t, Codes(), 16)
	for _, code := range Codes() {
		assert.NotEmpty(t, messages[code], "code %s", code)
	}
	assert.Equal(t, messages[Unknown], Code("NOPE").DefaultMessage())
}

func TestRetryIgnoresSeverity(t *testing.T) {
	low := New(APIInternal, "", SeverityLow, nil)
	critical := New(APIKeyMissing, "", SeverityCritical, nil)

	assert.True(t, low.Retryable())
	assert.False(t, critical.Retryable())
}

func TestNewFillsDefaults(t *testing.T) {
	err := New(CharacterNotFound, "", SeverityMedium, nil)

	assert.Equal(t, "指定されたキャラクターが見つかりません", err.Message)
	assert.False(t, err.Timestamp.IsZero())

	api := NewAPI(APIRateLimit, 429, "/api/chat", "", nil)
	assert.Equal(t, SeverityHigh, api.Severity)
	assert.Equal(t, 429, api.StatusCode)
	assert.Equal(t, "/api/chat", api.Endpoint)

	network := NewNetwork("", true, nil)
	assert.Equal(t, NetworkTimeout, network.Code)
	assert.True(t, network.Network)
	assert.True(t, network.IsTimeout)
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o deadline reached" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestFromTransport(t *testing.T) {
	cases := []struct {
		name      string
		err       error
		code      Code
		isTimeout bool
	}{
		{"deadline", context.DeadlineExceeded, NetworkTimeout, true},
		{"abort", fmt.Errorf("call aborted: %w", context.Canceled), NetworkTimeout, true},
		{"net timeout", timeoutErr{}, NetworkTimeout, true},
		{"timeout text", errors.New("upstream timeout"), NetworkTimeout, true},
		{"dial", &net.OpError{Op: "dial", Err: errors.New("refused")}, NetworkError, false},
		{"network text", errors.New("failed to fetch"), NetworkError, false},
		{"other", errors.New("boom"), APIInternal, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := FromTransport(tc.err, "/api/chat")
			assert.Equal(t, tc.code, got.Code)
			assert.Equal(t, tc.isTimeout, got.IsTimeout)
			assert.Equal(t, SeverityHigh, got.Severity)
			assert.ErrorIs(t, got, tc.err)
		})
	}
}

func TestFromStatus(t *testing.T) {
	assert.Equal(t, APIRateLimit, FromStatus(http.StatusTooManyRequests, "/e", nil).Code)
	assert.Equal(t, APIKeyInvalid, FromStatus(http.StatusUnauthorized, "/e", nil).Code)
	assert.Equal(t, APIInternal, FromStatus(http.StatusBadGateway, "/e", nil).Code)
	assert.Equal(t, APIInternal, FromStatus(http.StatusNotFound, "/e", nil).Code)

	assert.False(t, FromStatus(http.StatusTooManyRequests, "/e", nil).Retryable())
	assert.False(t, FromStatus(http.StatusUnauthorized, "/e", nil).Retryable())
	assert.True(t, FromStatus(http.StatusServiceUnavailable, "/e", nil).Retryable())
}

func TestFromProvider(t *testing.T) {
	cases := []struct {
		msg       string
		code      Code
		retryable bool
	}{
		{"API_KEY_INVALID: key rejected", APIKeyInvalid, false},
		{"authentication failed", APIKeyInvalid, false},
		{"quota exhausted for project", APIQuota, false},
		{"daily limit reached", APIQuota, false},
		{"rate exceeded, slow down", APIRateLimit, false},
		{"Rate exceeded", APIRateLimit, false},
		{"Rate Limit exceeded", APIQuota, false},
		{"failed to generate content", APIInternal, true},
		{"please accelerate", APIInternal, true},
		{"model overloaded", APIInternal, true},
	}

	for _, tc := range cases {
		t.Run(tc.msg, func(t *testing.T) {
			got := FromProvider(errors.New(tc.msg), map[string]any{"characterId": "nekomimi"})
			assert.Equal(t, tc.code, got.Code)
			assert.Equal(t, tc.retryable, got.Retryable())
			assert.Equal(t, "nekomimi", got.Context["characterId"])
		})
	}
}

func TestFromProviderStatusCodes(t *testing.T) {
	got := FromProvider(genai.APIError{Code: http.StatusUnauthorized, Message: "denied"}, nil)
	assert.Equal(t, APIKeyInvalid, got.Code)

	got = FromProvider(genai.APIError{Code: http.StatusServiceUnavailable, Message: "overloaded"}, nil)
	assert.Equal(t, APIInternal, got.Code)
	assert.Equal(t, http.StatusServiceUnavailable, got.StatusCode)

	got = FromProvider(fmt.Errorf("wrapped: %w", context.DeadlineExceeded), nil)
	assert.Equal(t, NetworkTimeout, got.Code)
}

func TestClassifyIsTotal(t *testing.T) {
	inputs := []error{
		errors.New("anything"),
		context.DeadlineExceeded,
		&net.DNSError{Err: "no such host", Name: "example.invalid"},
		genai.APIError{Code: 401, Message: "denied"},
		genai.APIError{Code: 500, Message: "backend"},
		genai.APIError{Code: 429, Message: "too many"},
		New(InvalidInput, "", SeverityLow, nil),
	}

	known := map[Code]bool{}
	for _, c := range Codes() {
		known[c] = true
	}

	for _, in := range inputs {
		got := Classify(in)
		require.NotNil(t, got, "input %v", in)
		assert.True(t, known[got.Code], "input %v gave %s", in, got.Code)
		assert.Equal(t, got.Code.Retryable(), got.Retryable())
	}

	assert.Nil(t, Classify(nil))
}

func TestClassifyDefaultsToMediumInternal(t *testing.T) {
	got := Classify(errors.New("disk on fire"))

	assert.Equal(t, Internal, got.Code)
	assert.Equal(t, SeverityMedium, got.Severity)
	assert.False(t, got.Retryable())
}

func TestClassifyKeepsClassifiedErrors(t *testing.T) {
	original := New(CharacterLoadFailed, "", SeverityHigh, nil)
	wrapped := fmt.Errorf("load: %w", original)

	assert.Same(t, original, Classify(wrapped))
}

func TestPayload(t *testing.T) {
	low := New(InvalidInput, "", SeverityLow, map[string]any{"secret": "x"}).Payload()
	assert.Equal(t, PresentToast, low.Presentation)
	assert.False(t, low.Retryable)

	high := NewNetwork("", true, nil).Payload()
	assert.Equal(t, PresentBanner, high.Presentation)
	assert.True(t, high.Retryable)
	assert.True(t, high.IsTimeout)
}

func TestSeverityOrderAndText(t *testing.T) {
	assert.Less(t, SeverityLow, SeverityMedium)
	assert.Less(t, SeverityMedium, SeverityHigh)
	assert.Less(t, SeverityHigh, SeverityCritical)

	text, err := SeverityCritical.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "critical", string(text))
}
