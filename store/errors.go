package store

import (
	"errors"
	"fmt"
)

var (
	// ErrNil is returned when a key or list element does not exist.
	ErrNil = errors.New("resque/store: nil")

	// ErrClosed is returned by operations on a closed connection.
	ErrClosed = errors.New("resque/store: connection closed")
)

// Error is a store access failure: connection or protocol problems, or
// a payload that could not be decoded. It carries the failing operation
// and key.
type Error struct {
	Op  string
	Key string
	Err error
}

func (e *Error) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("resque/store: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("resque/store: %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Wrap returns err as an *Error unless it is nil, ErrNil, or already a
// store error.
func Wrap(op, key string, err error) error {
	if err == nil || errors.Is(err, ErrNil) {
		return err
	}
	var se *Error
	if errors.As(err, &se) {
		return err
	}
	return &Error{Op: op, Key: key, Err: err}
}

// IsStoreError reports whether err is a store access failure.
func IsStoreError(err error) bool {
	var se *Error
	return errors.As(err, &se)
}
