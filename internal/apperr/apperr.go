// Package apperr defines the error taxonomy shared by the remote client, the
// collection stores and the analysis orchestrator.
package apperr

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// ErrBusy is returned when an analysis is requested while another one runs.
var ErrBusy = errors.New("an analysis is already running")

// Kind classifies an error for reporting.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindNetwork
	KindTimeout
	KindRemoteRejected
	KindParse
	KindConflict
	KindBusy
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNetwork:
		return "network"
	case KindTimeout:
		return "timeout"
	case KindRemoteRejected:
		return "remote_rejected"
	case KindParse:
		return "parse"
	case KindConflict:
		return "conflict"
	case KindBusy:
		return "busy"
	default:
		return "unknown"
	}
}

// ValidationError reports bad caller input detected before any I/O.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Invalid builds a ValidationError.
func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// NetworkError reports an unreachable backend or an expired deadline.
type NetworkError struct {
	Op      string
	Timeout bool
	Cause   error
}

func (e *NetworkError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("%s: request timed out", e.Op)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Cause)
}

func (e *NetworkError) Unwrap() error { return e.Cause }

// Network wraps a transport failure, flagging deadline expiry as a timeout.
func Network(op string, err error) error {
	return &NetworkError{Op: op, Timeout: IsTimeout(err), Cause: err}
}

// RemoteRejectedError reports a non-2xx response.
type RemoteRejectedError struct {
	Op         string
	StatusCode int
	Reason     string
}

func (e *RemoteRejectedError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s: server returned %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: server returned %d: %s", e.Op, e.StatusCode, e.Reason)
}

// ParseError reports a malformed response body or payload.
type ParseError struct {
	Op    string
	Cause error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: malformed response: %v", e.Op, e.Cause)
}

func (e *ParseError) Unwrap() error { return e.Cause }

// ConflictError reports a write discarded because a concurrent write won.
type ConflictError struct {
	ID      string
	Message string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict on %s: %s", e.ID, e.Message)
}

// IsTimeout reports whether err is a deadline or net timeout.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var nerr *NetworkError
	return errors.As(err, &nerr) && nerr.Timeout
}

// KindOf classifies err.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	if errors.Is(err, ErrBusy) {
		return KindBusy
	}

	var (
		verr *ValidationError
		nerr *NetworkError
		rerr *RemoteRejectedError
		perr *ParseError
		cerr *ConflictError
	)
	switch {
	case errors.As(err, &verr):
		return KindValidation
	case errors.As(err, &nerr):
		if nerr.Timeout {
			return KindTimeout
		}
		return KindNetwork
	case errors.As(err, &rerr):
		return KindRemoteRejected
	case errors.As(err, &perr):
		return KindParse
	case errors.As(err, &cerr):
		return KindConflict
	case IsTimeout(err):
		return KindTimeout
	}
	return KindUnknown
}

// UserMessage is the text shown to a user for err: the server-provided reason
// when there is one, otherwise a generic message for the error kind.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var rerr *RemoteRejectedError
	if errors.As(err, &rerr) && strings.TrimSpace(rerr.Reason) != "" {
		return rerr.Reason
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Error()
	}
	var cerr *ConflictError
	if errors.As(err, &cerr) {
		return cerr.Message
	}

	switch KindOf(err) {
	case KindTimeout:
		return "The server took too long to respond. Please try again."
	case KindNetwork:
		return "Could not reach the server. Check that the backend is running."
	case KindRemoteRejected:
		return "The server rejected the request."
	case KindParse:
		return "The server sent a response that could not be read."
	case KindBusy:
		return "An analysis is already running. Wait for it to finish."
	}
	return "Something went wrong. Please try again."
}
