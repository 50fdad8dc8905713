package domain

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking
// infrastructure details.
var (
	ErrValidation         = errors.New("validation failed")
	ErrAlreadyRegistered  = errors.New("already registered")
	ErrRateLimited        = errors.New("rate limited")
	ErrNotificationFailed = errors.New("notification failed")
	ErrInvalidCode        = errors.New("invalid verification code")
	ErrCodeExpired        = errors.New("verification code expired")
	ErrStorage            = errors.New("storage failure")
	ErrToken              = errors.New("invalid token")
	ErrNotFound           = errors.New("not found")
)

// RateLimitError carries the client-facing hints attached to a rate-limit
// rejection. It unwraps to ErrRateLimited so handlers can still discriminate
// with errors.Is.
type RateLimitError struct {
	Remaining  int
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("too many attempts, retry in %s", e.RetryAfter)
}

func (e *RateLimitError) Unwrap() error { return ErrRateLimited }
