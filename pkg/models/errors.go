package models

import (
	"fmt"
	"time"
)

// NotFoundError reports an unknown session or path.
type NotFoundError struct {
	Kind string // "session" or "path"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// NotConnectedError reports a session that is known but no longer
// holds a live connection.
type NotConnectedError struct {
	SessionID string
}

func (e *NotConnectedError) Error() string {
	return fmt.Sprintf("session %s is not connected", e.SessionID)
}

// ResourceExhaustedError reports that the session ceiling was reached.
type ResourceExhaustedError struct {
	Limit int
}

func (e *ResourceExhaustedError) Error() string {
	return fmt.Sprintf("maximum number of sessions (%d) reached", e.Limit)
}

// AuthenticationError reports a rejected credential.
type AuthenticationError struct {
	Target string
	Err    error
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("authentication to %s failed: %v", e.Target, e.Err)
}

func (e *AuthenticationError) Unwrap() error { return e.Err }

// TimeoutError reports an operation that exceeded its bound.
type TimeoutError struct {
	Op      string
	Elapsed time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out after %s", e.Op, e.Elapsed)
}

// TransportError reports an underlying stream or connection fault.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport error: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ConflictError reports a destination that exists or a source that is
// missing where the overwrite policy forbids proceeding.
type ConflictError struct {
	Path   string
	Reason string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Reason)
}
