// Package vmm is the boundary to a virtual-machine introspection device such
// as an FPGA DMA card driven by MemProcFS. It describes what the session
// layer consumes; drivers live in sub packages.
package vmm

import (
	"errors"
	"strings"

	"cs2mem/process"
)

var (
	// ErrDeviceUnavailable is returned by a driver when no device can be opened
	ErrDeviceUnavailable = errors.New("introspection device unavailable")

	// ErrProcessNotFound is returned by Device.FindProcess when no process has the name
	ErrProcessNotFound = errors.New("process not found")
)

// Config is the device configuration handed to a driver
type Config struct {
	Device string
	Args   []string
}

// DefaultConfig is the only configuration sessions are opened with. The
// driver's own symbol, scripting and yara subsystems stay off: offsets come
// from this module's resolvers, never from the driver.
func DefaultConfig() Config {
	return Config{
		Device: "fpga",
		Args: []string{
			"-disable-python",
			"-disable-symbols",
			"-disable-symbolserver",
			"-disable-yara",
			"-disable-yara-builtin",
			"-debug-pte-quality-threshold", "64",
		},
	}
}

// Argv returns the command line form, "-device <dev>" first
func (c Config) Argv() []string {
	argv := []string{"-device", c.Device}
	return append(argv, c.Args...)
}

// Disabled reports whether a "-disable-<name>" switch is present
func (c Config) Disabled(name string) bool {
	for _, arg := range c.Args {
		if strings.EqualFold(arg, "-disable-"+name) {
			return true
		}
	}
	return false
}

func (c Config) String() string {
	return strings.Join(c.Argv(), " ")
}

// Driver opens devices
type Driver interface {
	Name() string
	Open(cfg Config) (Device, error)
}

// Device is an opened introspection device
type Device interface {
	// FindProcess locates a process by exact executable name
	FindProcess(name string) (Process, error)
	Close() error
}

// Process is a process seen through the device
type Process interface {
	PID() process.ProcessID
	IsAlive() bool
	ModuleList() ([]process.ModuleRecord, error)
	ReadMemory(addr process.ProcessMemoryAddress, size process.ProcessMemorySize) ([]byte, error)
}
