// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ErrorType categorizes client errors for handling.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	ErrTypeUnavailable
	ErrTypeTimeout
	ErrTypeStatus
	ErrTypeInvalidResponse
	ErrTypeStream
)

func (t ErrorType) String() string {
	switch t {
	case ErrTypeUnavailable:
		return "unavailable"
	case ErrTypeTimeout:
		return "timeout"
	case ErrTypeStatus:
		return "status"
	case ErrTypeInvalidResponse:
		return "invalid_response"
	case ErrTypeStream:
		return "stream"
	default:
		return "unknown"
	}
}

// ClientError is returned by every Client operation that fails.
type ClientError struct {
	Type ErrorType

	// Op names the endpoint: "chat", "upload", "reset", "health", "history".
	Op string

	// Status is the HTTP status for ErrTypeStatus, 0 otherwise.
	Status int

	// Message is the server-provided detail when there is one.
	Message string

	Cause error
}

func (e *ClientError) Error() string {
	msg := e.Op + ": " + e.Type.String()
	if e.Status != 0 {
		msg += fmt.Sprintf(" (HTTP %d)", e.Status)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// ErrFrameTooLarge is returned when a single event-stream line exceeds
// MaxFrameSize.
var ErrFrameTooLarge = errors.New("event stream frame too large")

// MalformedFrameError reports a data payload that is not a valid frame.
// Streams skip these and keep reading.
type MalformedFrameError struct {
	Data string
	Err  error
}

func (e *MalformedFrameError) Error() string {
	return fmt.Sprintf("malformed frame %q: %v", truncate(e.Data, 80), e.Err)
}

func (e *MalformedFrameError) Unwrap() error {
	return e.Err
}

// =============================================================================
// CLASSIFICATION
// =============================================================================

func errorType(err error) ErrorType {
	var ce *ClientError
	if errors.As(err, &ce) {
		return ce.Type
	}
	return ErrTypeUnknown
}

// IsUnavailable reports whether the backend could not be reached.
func IsUnavailable(err error) bool {
	return errorType(err) == ErrTypeUnavailable
}

// IsTimeout reports whether the request ran out of time.
func IsTimeout(err error) bool {
	return errorType(err) == ErrTypeTimeout
}

// IsStreamError reports whether the server sent an error frame.
func IsStreamError(err error) bool {
	return errorType(err) == ErrTypeStream
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var ce *ClientError
	if errors.As(err, &ce) {
		return ce.Status
	}
	return 0
}

// transportError classifies an error from http.Client.Do or a body read.
func transportError(op string, err error) *ClientError {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &netErr) && netErr.Timeout():
		return &ClientError{Type: ErrTypeTimeout, Op: op, Cause: err}
	case errors.Is(err, context.Canceled):
		return &ClientError{Type: ErrTypeUnknown, Op: op, Message: "cancelled", Cause: err}
	case errors.Is(err, syscall.ECONNREFUSED), errors.Is(err, syscall.ECONNRESET):
		return &ClientError{Type: ErrTypeUnavailable, Op: op, Cause: err}
	}
	var opErr *net.OpError
	var dnsErr *net.DNSError
	if errors.As(err, &opErr) || errors.As(err, &dnsErr) {
		return &ClientError{Type: ErrTypeUnavailable, Op: op, Cause: err}
	}
	return &ClientError{Type: ErrTypeUnknown, Op: op, Cause: err}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
