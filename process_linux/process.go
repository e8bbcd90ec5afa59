//go:build linux

package process_linux

import (
	"fmt"
	"sync"

	"cs2mem/process"
	"cs2mem/process/memory_map"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
)

// LinuxProcess is a read-only handle on a running process
type LinuxProcess struct {
	pid  process.ProcessID
	name string
	log  *logger.Logger
	mm   []memory_map.MemoryMapItem
	mu   sync.Mutex
}

// NewWithPID opens the process with the given PID
func NewWithPID(pid process.ProcessID) (*LinuxProcess, error) {
	p := &LinuxProcess{}
	if err := p.Open(pid); err != nil {
		return nil, err
	}
	return p, nil
}

// OpenByName opens the lowest PID whose comm or exe basename equals name
func OpenByName(name string) (*LinuxProcess, error) {
	found, err := OneByName(name)
	if err != nil {
		return nil, fmt.Errorf("find process %q: %w", name, err)
	}

	p := &LinuxProcess{name: name}
	if err := p.Open(process.ProcessID(found.PID)); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *LinuxProcess) Open(pid process.ProcessID) error {
	if !procExists(int(pid)) {
		return fmt.Errorf("process with PID %d does not exist", pid)
	}

	p.mu.Lock()
	p.pid = pid
	p.log = logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, fmt.Sprintf("process-%d", pid)))
	p.mu.Unlock()

	if err := p.UpdateMemoryMap(); err != nil {
		return fmt.Errorf("failed to initialize memory map: %w", err)
	}

	p.logger().Infoln("Process opened")

	return nil
}

// Close forgets the process. Nothing is held open on Linux.
func (p *LinuxProcess) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.pid == 0 {
		return nil
	}

	p.pid = 0
	p.mm = nil

	p.log.Infoln("Process closed")
	p.log = logger.NewLogger(coloransi.Color(coloransi.Red, coloransi.ColorOrange, "process-not-open"))

	return nil
}

// GetPID returns the process ID
func (p *LinuxProcess) GetPID() process.ProcessID {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pid
}

func (p *LinuxProcess) PID() process.ProcessID {
	return p.GetPID()
}

// IsAlive reports whether the PID still exists
func (p *LinuxProcess) IsAlive() bool {
	pid := p.GetPID()
	return pid != 0 && procExists(int(pid))
}

func (p *LinuxProcess) UpdateMemoryMap() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pid == 0 {
		return process.ErrProcessNotOpen
	}

	mm, err := memory_map.NewLinuxMemoryMap().ReadMemoryMap(int(p.pid))
	if err != nil {
		return fmt.Errorf("failed to read memory map: %w", err)
	}

	p.mm = mm
	return nil
}

func (p *LinuxProcess) IsValidAddress(addr process.ProcessMemoryAddress) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.isRangeReadableInternal(addr, 1)
}

// Internal helper function that assumes the mutex is already locked
func (p *LinuxProcess) isRangeReadableInternal(addr process.ProcessMemoryAddress, size process.ProcessMemorySize) bool {
	if addr <= 0x10000 {
		return false
	}

	return memory_map.IsRangeReadable(uint64(addr), uint64(size), p.mm)
}

func (p *LinuxProcess) GetMemoryMap() ([]memory_map.MemoryMapItem, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.pid == 0 {
		return nil, process.ErrProcessNotOpen
	}

	// Make a copy of the memory map to prevent external modification
	result := make([]memory_map.MemoryMapItem, len(p.mm))
	copy(result, p.mm)

	return result, nil
}

// Modules refreshes the memory map and reports one module per mapped file.
// Under Wine/Proton a PE image is mapped from its file, so client.dll shows
// up here like any shared object.
func (p *LinuxProcess) Modules() ([]process.ModuleRecord, error) {
	if err := p.UpdateMemoryMap(); err != nil {
		return nil, err
	}

	mm, err := p.GetMemoryMap()
	if err != nil {
		return nil, err
	}

	var modules []process.ModuleRecord
	for _, span := range memory_map.GroupByPath(mm) {
		modules = append(modules, process.ModuleRecord{
			Name: process.ModuleName(span.Path),
			Path: span.Path,
			Base: process.ProcessMemoryAddress(span.Address),
			Size: process.ProcessMemorySize(span.Size),
		})
	}

	p.logger().Debugln("Enumerated", len(modules), "mapped files")
	return modules, nil
}

// logger returns the current logger; Close swaps it
func (p *LinuxProcess) logger() *logger.Logger {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.log
}

func (p *LinuxProcess) String() string {
	return fmt.Sprintf("%s[%d]", p.name, p.GetPID())
}
