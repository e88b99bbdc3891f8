package domain

import (
	"errors"
	"fmt"
)

// Authentication failures.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrSessionInactive    = errors.New("session expired due to inactivity")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenRevoked       = errors.New("token revoked")
	ErrForbidden          = errors.New("access forbidden")
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrUserExists      = errors.New("user already exists")
	ErrOrderNotFound   = errors.New("order not found")
	ErrPaymentNotFound = errors.New("payment not found")
	ErrOrderPaid       = errors.New("order already paid")
)

// ErrTransient marks failures of the network or a collaborator that the
// user may retry.
var ErrTransient = errors.New("service temporarily unavailable")

// ErrLocked is matched by every *LockoutError.
var ErrLocked = errors.New("too many failed login attempts")

// ValidationError reports a problem with a single input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// TransientError wraps err so that errors.Is(result, ErrTransient) holds.
func TransientError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrTransient, err)
}
