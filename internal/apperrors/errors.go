// Package apperrors defines the error taxonomy shared across the
// gateway. Every operation failure maps to exactly one sentinel, and the
// HTTP layer translates sentinels to status codes in one place.
package apperrors

import (
	"errors"
	"fmt"
)

var (
	// Input and account errors
	ErrInvalidInput    = errors.New("invalid input")
	ErrConflict        = errors.New("already exists")
	ErrNotFound        = errors.New("not found")
	ErrUnauthenticated = errors.New("not authenticated")

	// Delegation errors
	ErrNotConnected     = errors.New("drive not connected")
	ErrDelegationFailed = errors.New("authorization failed")

	// Provider errors
	ErrUnavailable = errors.New("provider unavailable")
	ErrRateLimited = errors.New("rate limited")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
