package domain

import (
	"errors"
	"net/http"
	"time"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
type HTTPError interface {
	error
	StatusCode() int
}

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound            = errors.New("not found")
	ErrValidation          = errors.New("validation failed")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrForbidden           = errors.New("forbidden")
	ErrQuotaExceeded       = errors.New("rate limit exceeded")
	ErrUpstreamUnavailable = errors.New("service unavailable")
	ErrSignatureInvalid    = errors.New("invalid signature")
)

// Domain error types implementing HTTPError interface
type (
	// ValidationError indicates missing or malformed input (InputInvalid)
	ValidationError struct {
		Message string
	}

	// UnauthorizedError indicates the caller supplied no identity
	UnauthorizedError struct {
		Message string
	}

	// ForbiddenError indicates the identity is unknown or revoked (IdentityRejected)
	ForbiddenError struct {
		Message string
	}

	// NotFoundError indicates a resource was not found
	NotFoundError struct {
		Message string
	}
)

func (e *ValidationError) Error() string   { return e.Message }
func (e *UnauthorizedError) Error() string { return e.Message }
func (e *ForbiddenError) Error() string    { return e.Message }
func (e *NotFoundError) Error() string     { return e.Message }

func (e *ValidationError) StatusCode() int   { return http.StatusBadRequest }
func (e *UnauthorizedError) StatusCode() int { return http.StatusUnauthorized }
func (e *ForbiddenError) StatusCode() int    { return http.StatusForbidden }
func (e *NotFoundError) StatusCode() int     { return http.StatusNotFound }

func (e *ValidationError) Is(target error) bool   { return target == ErrValidation }
func (e *UnauthorizedError) Is(target error) bool { return target == ErrUnauthorized }
func (e *ForbiddenError) Is(target error) bool    { return target == ErrForbidden }
func (e *NotFoundError) Is(target error) bool     { return target == ErrNotFound }

// QuotaExceededError is returned when an identity has used up its window.
// Retryable once ResetAt has passed.
type QuotaExceededError struct {
	Limit   int
	ResetAt time.Time
}

func (e *QuotaExceededError) Error() string        { return "rate limit exceeded, try again later" }
func (e *QuotaExceededError) StatusCode() int      { return http.StatusTooManyRequests }
func (e *QuotaExceededError) Is(target error) bool { return target == ErrQuotaExceeded }

// ResetSeconds returns whole seconds until the window resets, rounded up.
func (e *QuotaExceededError) ResetSeconds(now time.Time) int {
	return SecondsUntil(now, e.ResetAt)
}

// UpstreamError wraps a failure of an external collaborator (catalog source,
// completion service, identity store). The cause is kept for logging only and
// never rendered to the caller.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	if e.Err == nil {
		return e.Op + ": " + ErrUpstreamUnavailable.Error()
	}
	return e.Op + ": " + e.Err.Error()
}
func (e *UpstreamError) Unwrap() error        { return e.Err }
func (e *UpstreamError) StatusCode() int      { return http.StatusBadGateway }
func (e *UpstreamError) Is(target error) bool { return target == ErrUpstreamUnavailable }

// SignatureInvalidError is returned for webhook payloads that fail verification.
type SignatureInvalidError struct {
	Reason string
}

func (e *SignatureInvalidError) Error() string        { return "invalid webhook signature: " + e.Reason }
func (e *SignatureInvalidError) StatusCode() int      { return http.StatusBadRequest }
func (e *SignatureInvalidError) Is(target error) bool { return target == ErrSignatureInvalid }

// SecondsUntil returns the number of whole seconds from now until t, rounded
// up, and never negative.
func SecondsUntil(now, t time.Time) int {
	d := t.Sub(now)
	if d <= 0 {
		return 0
	}
	secs := int(d / time.Second)
	if d%time.Second != 0 {
		secs++
	}
	return secs
}
