// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import (
	"errors"
	"fmt"
)

// Common sentinels across repo/service layers.
var (
	// ErrNotFound indicates the requested entity does not exist or is owned by someone else.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized indicates a missing, unknown or expired token.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates an operation rejected by a business rule.
	ErrForbidden = errors.New("forbidden")

	// ErrLastPocket is returned when removing the only non-deleted pocket of an account.
	ErrLastPocket = fmt.Errorf("cannot remove the last pocket: %w", ErrForbidden)

	// ErrAlreadyExists indicates a unique constraint violation.
	ErrAlreadyExists = errors.New("already exists")

	// ErrUsernameTaken indicates the normalized username is registered.
	ErrUsernameTaken = fmt.Errorf("username taken: %w", ErrAlreadyExists)

	// ErrEmailTaken indicates the email is registered.
	ErrEmailTaken = fmt.Errorf("email taken: %w", ErrAlreadyExists)

	// ErrRateLimited indicates temporary login lock due to rate limiting.
	ErrRateLimited = errors.New("rate limited")

	// ErrLoginFailed indicates unknown user or wrong password.
	ErrLoginFailed = errors.New("login failed")

	// ErrInvalidInput is the parent of every ValidationError.
	ErrInvalidInput = errors.New("invalid input")
)

// ValidationError carries a user-facing message for a rejected field.
type ValidationError struct{ Msg string }

func (e *ValidationError) Error() string { return e.Msg }

// Unwrap makes errors.Is(err, ErrInvalidInput) hold.
func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// Invalid returns a ValidationError with the given message.
func Invalid(msg string) error { return &ValidationError{Msg: msg} }
