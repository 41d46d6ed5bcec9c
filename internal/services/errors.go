package services

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidResetToken  = errors.New("invalid or expired reset token")
	ErrTokenMissing       = errors.New("token not provided")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("token invalid")
	ErrTokenRevoked       = errors.New("token revoked")
	ErrMenuNotFound       = errors.New("menu not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrDuplicateRequest   = errors.New("duplicate request")
	ErrTicketNotFound     = errors.New("ticket not found, expired or already used")
	ErrTicketsUnavailable = errors.New("ticket storage unavailable")
)

// ValidationError is a malformed or out-of-range input. It is always
// detected before any state is touched.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ConflictError reports a write that clashes with existing data.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

// RateLimitError is returned while a client is locked out of login.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("too many attempts, retry in %s", e.RetryAfter)
}

// Minutes rounds the remaining lockout up to whole minutes.
func (e *RateLimitError) Minutes() int {
	m := int(math.Ceil(e.RetryAfter.Minutes()))
	if m < 1 {
		return 1
	}
	return m
}
