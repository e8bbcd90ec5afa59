// Package process provides the address types, read contracts and typed
// readers shared by every memory backend.
package process

import "errors"

var (
	// ErrAddressNotMapped is returned when a memory address is not found within any mapped region of a process.
	ErrAddressNotMapped = errors.New("address not mapped")

	// ErrProcessNotOpen is returned when an operation requiring an open process is attempted
	// before the process has been successfully opened or after it has been closed.
	ErrProcessNotOpen = errors.New("process not open")

	// ErrPartialRead is returned when the backend copied fewer bytes than requested.
	ErrPartialRead = errors.New("partial read")

	ErrInvalidPointer = errors.New("invalid pointer read")
)
