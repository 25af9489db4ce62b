// File: api/errors.go
// Author: lennyferrell
// License: Apache-2.0
//
// Common error types and error handling utilities for the library.

package api

import (
	"errors"
	"fmt"
)

// Common errors used across the library.
var (
	// ErrPoolClosed is returned by Borrow after Shutdown, and delivered to
	// waiters that were still queued when the pool closed.
	ErrPoolClosed = errors.New("pool is closed")

	// ErrExecutorClosed is returned by Executor.Submit after Close.
	ErrExecutorClosed = errors.New("executor is closed")

	// ErrInvariantViolation reports a defect in the pool itself: a
	// connection establishment was attempted beyond the configured budget.
	// It is surfaced as an ordinary failure, never a panic.
	ErrInvariantViolation = errors.New("connection budget invariant violated")
)

// EstablishError wraps a builder failure for a specific destination. The
// allocation slot is released before the error is surfaced, so the failure
// never leaks pool capacity.
type EstablishError struct {
	Key Key
	Err error
}

func (e *EstablishError) Error() string {
	return fmt.Sprintf("establish %s: %v", e.Key, e.Err)
}

func (e *EstablishError) Unwrap() error { return e.Err }

// ErrorCode represents specific error conditions in the library.
type ErrorCode int

const (
	ErrCodeOK ErrorCode = iota
	ErrCodePoolClosed
	ErrCodeEstablish
	ErrCodeInvariant
	ErrCodeInvalidArgument
)

// Error represents a structured error with code and context.
type Error struct {
	Code    ErrorCode
	Message string
	Context map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string {
	if len(e.Context) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (context: %+v)", e.Message, e.Context)
}

// NewError creates a new structured error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Context: make(map[string]any),
	}
}

// WithContext adds context information to the error.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}
