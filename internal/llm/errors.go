package llm

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies provider failures so callers can decide between
// retrying, degrading gracefully, and failing the request.
type ErrorKind int

const (
	// KindConfiguration covers missing or invalid credentials and endpoints.
	KindConfiguration ErrorKind = iota
	// KindTransient covers rate limits and connection failures worth retrying.
	KindTransient
	// KindAuth covers rejected credentials. Never retried.
	KindAuth
	// KindResponse covers non-2xx provider responses that are not auth or
	// rate-limit related.
	KindResponse
	// KindMalformed covers 2xx responses whose body cannot be used.
	KindMalformed
)

func (k ErrorKind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindTransient:
		return "transient"
	case KindAuth:
		return "auth"
	case KindResponse:
		return "response"
	case KindMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// ProviderError is the typed error returned by the Azure client.
type ProviderError struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("azure %s error (status %d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("azure %s error: %s", e.Kind, e.Message)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// IsTransient reports whether err is a retryable provider failure.
func IsTransient(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Kind == KindTransient
}

// IsAuth reports whether err is an authentication failure.
func IsAuth(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Kind == KindAuth
}

func classifyStatus(code int, body string) *ProviderError {
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return &ProviderError{Kind: KindAuth, StatusCode: code, Message: body}
	case code == http.StatusTooManyRequests:
		return &ProviderError{Kind: KindTransient, StatusCode: code, Message: body}
	case code >= 500:
		return &ProviderError{Kind: KindTransient, StatusCode: code, Message: body}
	default:
		return &ProviderError{Kind: KindResponse, StatusCode: code, Message: body}
	}
}
