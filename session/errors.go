package session

import (
	"fmt"
	"strings"

	"cs2mem/process"
)

// DeviceNotFoundError means the introspection device could not be opened.
// Only AttachViaIntrospection returns it; the direct scan path is still usable.
type DeviceNotFoundError struct {
	Driver string
	Config string
	Err    error
}

func (e *DeviceNotFoundError) Error() string {
	return fmt.Sprintf("introspection device not found (driver %s, %s): %v", e.Driver, e.Config, e.Err)
}

func (e *DeviceNotFoundError) Unwrap() error { return e.Err }

// ProcessNotFoundError means the target process is not running or could not be opened
type ProcessNotFoundError struct {
	Backend Backend
	Name    string
	Err     error
}

func (e *ProcessNotFoundError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: process %s not found", e.Backend, e.Name)
	}
	return fmt.Sprintf("%s: process %s not found: %v", e.Backend, e.Name, e.Err)
}

func (e *ProcessNotFoundError) Unwrap() error { return e.Err }

// ProcessModuleNotFoundError means the process was found but at least one
// required module is missing, or the module list could not be read.
type ProcessModuleNotFoundError struct {
	Backend Backend
	Process string
	PID     process.ProcessID
	Missing []string
	Err     error
}

func (e *ProcessModuleNotFoundError) Error() string {
	msg := fmt.Sprintf("%s: %s[%d]", e.Backend, e.Process, e.PID)
	if len(e.Missing) > 0 {
		msg += ": missing modules " + strings.Join(e.Missing, ", ")
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ProcessModuleNotFoundError) Unwrap() error { return e.Err }

// ReadError is returned by every MemoryAccessor read that fails. Err is the
// backend error, usually wrapping process.ErrAddressNotMapped or
// process.ErrProcessNotOpen.
type ReadError struct {
	Backend Backend
	Address process.ProcessMemoryAddress
	Size    process.ProcessMemorySize
	Err     error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("%s: read %s+%d: %v", e.Backend, e.Address, uint(e.Size), e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }
