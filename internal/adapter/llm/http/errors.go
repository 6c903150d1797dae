package http

import "fmt"

// ErrorType represents the category of transport error that occurred.
type ErrorType int

const (
	ErrTypeConfiguration ErrorType = iota
	ErrTypeAuthentication
	ErrTypeRateLimit
	ErrTypeServiceUnavailable
	ErrTypeInvalidRequest
	ErrTypeTimeout
	ErrTypeUnknown
)

// String returns a human-readable description of the error type.
func (e ErrorType) String() string {
	switch e {
	case ErrTypeConfiguration:
		return "configuration error"
	case ErrTypeAuthentication:
		return "authentication error"
	case ErrTypeRateLimit:
		return "rate limit exceeded"
	case ErrTypeServiceUnavailable:
		return "service unavailable"
	case ErrTypeInvalidRequest:
		return "invalid request"
	case ErrTypeTimeout:
		return "timeout"
	default:
		return "unknown error"
	}
}

// Error represents a provider transport error with additional context.
type Error struct {
	Type       ErrorType
	Message    string
	StatusCode int
	Provider   string
	Endpoint   string
	Retryable  bool
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Endpoint != "" {
		return fmt.Sprintf("%s: %s: %s (status: %d, endpoint: %s)", e.Provider, e.Type.String(), e.Message, e.StatusCode, e.Endpoint)
	}
	return fmt.Sprintf("%s: %s: %s (status: %d)", e.Provider, e.Type.String(), e.Message, e.StatusCode)
}

// Is implements error equality checking for errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// IsRetryable reports whether another endpoint candidate or transport is
// worth trying. Authentication and malformed-request failures are not:
// they would fail identically everywhere.
func IsRetryable(err error) bool {
	e, ok := err.(*Error)
	if !ok {
		// Untyped errors are transport-level; trying elsewhere may help.
		return true
	}
	return e.Retryable
}

// NewConfigurationError creates an error for missing or invalid client
// configuration. Configuration errors are never retried.
func NewConfigurationError(provider, message string) *Error {
	return &Error{
		Type:     ErrTypeConfiguration,
		Message:  message,
		Provider: provider,
	}
}

// FromStatusCode maps an HTTP status code to a typed error.
func FromStatusCode(provider, endpoint string, statusCode int, message string) *Error {
	err := &Error{
		Message:    message,
		StatusCode: statusCode,
		Provider:   provider,
		Endpoint:   endpoint,
	}

	switch statusCode {
	case 401, 403:
		err.Type = ErrTypeAuthentication
	case 429:
		err.Type = ErrTypeRateLimit
		err.Retryable = true
	case 400, 422:
		err.Type = ErrTypeInvalidRequest
	case 500, 502, 503, 504, 529:
		err.Type = ErrTypeServiceUnavailable
		err.Retryable = true
	default:
		err.Type = ErrTypeUnknown
		err.Retryable = true
	}

	return err
}
