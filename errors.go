package resque

import "errors"

var (
	// ErrNoRegistry is returned when a nil job registry is supplied.
	ErrNoRegistry = errors.New("resque: nil job registry")

	// ErrNoDialer is returned when a nil store dialer is supplied.
	ErrNoDialer = errors.New("resque: nil store dialer")

	// ErrInvalidConfig is returned when a Config fails validation.
	ErrInvalidConfig = errors.New("resque: invalid config")
)
