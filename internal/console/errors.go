package console

import (
	"errors"
	"fmt"
)

// Sentinel errors for console sessions.
var (
	// ErrReadTimeout is returned by Transport.ReadUntil when the bounded wait
	// expires before the marker is seen.
	ErrReadTimeout = errors.New("read timed out")

	// ErrInvalidCommand indicates a command line with an embedded line break.
	ErrInvalidCommand = errors.New("invalid command line")

	// ErrNotConnected indicates an exchange was attempted before login.
	ErrNotConnected = errors.New("not connected")

	// ErrSessionClosed indicates the session was closed and cannot be reused.
	ErrSessionClosed = errors.New("session closed")

	// ErrSessionFailed indicates an earlier fatal error left the session unusable.
	ErrSessionFailed = errors.New("session failed")
)

// ConnectionError means the transport could not be established or was lost.
type ConnectionError struct {
	Address string
	Message string
	Cause   error
}

func (e *ConnectionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("console %s: %s: %v", e.Address, e.Message, e.Cause)
	}
	return fmt.Sprintf("console %s: %s", e.Address, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *ConnectionError) Unwrap() error {
	return e.Cause
}

// AuthenticationError means the login prompts were not observed or the
// console rejected the credentials.
type AuthenticationError struct {
	User    string
	Message string
	Cause   error
}

func (e *AuthenticationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("login as %q failed: %s: %v", e.User, e.Message, e.Cause)
	}
	return fmt.Sprintf("login as %q failed: %s", e.User, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *AuthenticationError) Unwrap() error {
	return e.Cause
}

// ProtocolError means the stream state is unknown: a blocking read failed,
// the stream closed mid-reply, or a write did not go through.
type ProtocolError struct {
	Op      string
	Message string
	Cause   error
}

func (e *ProtocolError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("console protocol error during %s: %s: %v", e.Op, e.Message, e.Cause)
	}
	return fmt.Sprintf("console protocol error during %s: %s", e.Op, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *ProtocolError) Unwrap() error {
	return e.Cause
}

// IsFatal reports whether err leaves the session unusable. Fatal errors must
// not be retried on the same session; the caller has to open a new one.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	var connErr *ConnectionError
	var authErr *AuthenticationError
	var protoErr *ProtocolError
	return errors.As(err, &connErr) ||
		errors.As(err, &authErr) ||
		errors.As(err, &protoErr) ||
		errors.Is(err, ErrSessionClosed)
}
