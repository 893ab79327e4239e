package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the application.
var (
	ErrNotFound          = errors.New("resource not found")
	ErrNotAuthenticated  = errors.New("not authenticated")
	ErrForbidden         = errors.New("forbidden")
	ErrConflict          = errors.New("resource already exists")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// NotAuthenticatedError is returned when an operation that needs a viewer
// runs without one.
type NotAuthenticatedError struct {
	Op string
}

func (e *NotAuthenticatedError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, ErrNotAuthenticated)
}

func (e *NotAuthenticatedError) Unwrap() error { return ErrNotAuthenticated }

// TransitionError reports a swap request that is not in a state allowing the
// requested change, typically because it already reached a terminal state.
type TransitionError struct {
	RequestID string
	From      SwapStatus
	To        SwapStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("swap request %s: cannot move from %s to %s", e.RequestID, e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// Invalid wraps ErrInvalidInput with a human readable reason.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
