package draco

import (
	"errors"
	"fmt"
)

var (
	// ErrReplyTooLarge is returned when a reply body exceeds MaxDecodeSize.
	ErrReplyTooLarge = errors.New("draco: reply exceeds maximum decode size")

	// ErrTooManyEventArgs is returned when an event is given more than three
	// arguments.
	ErrTooManyEventArgs = errors.New("draco: events take at most three arguments")

	// ErrMissingUserID is returned when an auth reply carries no user id.
	ErrMissingUserID = errors.New("draco: reply has no user id")
)

// CallError wraps any failure of a service call: encoding, transport or
// decoding.
type CallError struct {
	Service string
	Method  string
	Err     error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("draco: %s.%s: %v", e.Service, e.Method, e.Err)
}

func (e *CallError) Unwrap() error {
	return e.Err
}

// StatusError is returned by transports when the server answers with a
// non-2xx status.
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("draco: unexpected status %s", e.Status)
}
