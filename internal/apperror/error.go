// Package apperror holds the application error taxonomy and the classifier
// that maps transport, HTTP and provider failures onto it.
package apperror

import (
	"fmt"
	"time"
)

// Severity orders errors for presentation. It never affects retries.
type Severity int

const (
	SeverityLow Severity = iota
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// MarshalText encodes the severity by name.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Presentation is how a client should surface an error.
type Presentation string

const (
	PresentToast  Presentation = "toast"
	PresentBanner Presentation = "banner"
)

// Presentation maps a severity to its display style: low severity is a
// transient notice, anything else a persistent banner.
func (s Severity) Presentation() Presentation {
	if s == SeverityLow {
		return PresentToast
	}
	return PresentBanner
}

// Error is a classified application error.
type Error struct {
	Code      Code
	Message   string
	Severity  Severity
	Timestamp time.Time
	Context   map[string]any

	// API-layer fields.
	StatusCode int
	Endpoint   string

	// Network-layer fields.
	Network   bool
	IsTimeout bool

	cause error
}

// New creates an Error. An empty message falls back to the code's default.
func New(code Code, message string, severity Severity, context map[string]any) *Error {
	if message == "" {
		message = code.DefaultMessage()
	}
	return &Error{
		Code:      code,
		Message:   message,
		Severity:  severity,
		Timestamp: time.Now().UTC(),
		Context:   context,
	}
}

// NewAPI creates an API-layer error, always high severity.
func NewAPI(code Code, statusCode int, endpoint, message string, context map[string]any) *Error {
	e := New(code, message, SeverityHigh, context)
	e.StatusCode = statusCode
	e.Endpoint = endpoint
	return e
}

// NewNetwork creates a network-layer error, always high severity.
func NewNetwork(message string, isTimeout bool, context map[string]any) *Error {
	code := NetworkError
	if isTimeout {
		code = NetworkTimeout
	}
	e := New(code, message, SeverityHigh, context)
	e.Network = true
	e.IsTimeout = isTimeout
	return e
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the raw failure the error was classified from.
func (e *Error) Unwrap() error {
	return e.cause
}

// Retryable reports whether the error code is in the retryable set.
func (e *Error) Retryable() bool {
	return e.Code.Retryable()
}

// WithCause records the underlying failure without exposing it to clients.
func (e *Error) WithCause(err error) *Error {
	e.cause = err
	return e
}

// Payload is the client-facing rendering of an Error.
type Payload struct {
	Code         Code         `json:"code"`
	Message      string       `json:"message"`
	Severity     Severity     `json:"severity"`
	Retryable    bool         `json:"retryable"`
	Presentation Presentation `json:"presentation"`
	Timestamp    time.Time    `json:"timestamp"`
	IsTimeout    bool         `json:"isTimeout,omitempty"`
}

// Payload renders the error for clients. Raw causes, context and upstream
// status codes stay server side.
func (e *Error) Payload() Payload {
	return Payload{
		Code:         e.Code,
		Message:      e.Message,
		Severity:     e.Severity,
		Retryable:    e.Retryable(),
		Presentation: e.Severity.Presentation(),
		Timestamp:    e.Timestamp,
		IsTimeout:    e.IsTimeout,
	}
}
