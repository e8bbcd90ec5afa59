package session

import (
	"cs2mem/process"
	"cs2mem/vmm"
)

// Backend names an acquisition mechanism
type Backend string

const (
	BackendIntrospection Backend = "vmm"
	BackendDirectScan    Backend = "direct"
)

// ParseBackend accepts the names used in configuration
func ParseBackend(s string) (Backend, bool) {
	switch s {
	case "vmm", "introspection", "memprocfs":
		return BackendIntrospection, true
	case "direct", "directscan", "scan":
		return BackendDirectScan, true
	}
	return "", false
}

// ProcessHandle is the normalized handle to the target process
type ProcessHandle interface {
	PID() process.ProcessID
	IsAlive() bool
	ListModules() ([]process.ModuleRecord, error)
}

// DirectScanner is the direct scan backend boundary
type DirectScanner interface {
	// ProcessExists reports whether a process with exactly this executable name runs
	ProcessExists(name string) bool
	OpenProcess(name string) (DirectProcess, error)
}

// DirectProcess is a process opened by a DirectScanner
type DirectProcess interface {
	PID() process.ProcessID
	IsAlive() bool
	Modules() ([]process.ModuleRecord, error)
	ReadMemory(addr process.ProcessMemoryAddress, size process.ProcessMemorySize) ([]byte, error)
	Close() error
}

type vmmHandle struct {
	vmm.Process
}

func (h vmmHandle) ListModules() ([]process.ModuleRecord, error) {
	return h.ModuleList()
}

type directHandle struct {
	DirectProcess
}

func (h directHandle) ListModules() ([]process.ModuleRecord, error) {
	return h.Modules()
}
