//go:build windows

package process_windows

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"

	"cs2mem/process"
	"cs2mem/process/memory_map"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
	"golang.org/x/sys/windows"
)

const (
	processAccess = windows.PROCESS_QUERY_INFORMATION | windows.PROCESS_VM_READ

	// GetExitCodeProcess value for a process that has not exited
	stillActive = 259
)

// WindowsProcess is a read-only handle on a running process
type WindowsProcess struct {
	pid    process.ProcessID
	name   string
	handle windows.Handle
	log    *logger.Logger
	mm     []memory_map.MemoryMapItem
	mu     sync.Mutex
}

// NewWithPID opens the process with the given PID
func NewWithPID(pid process.ProcessID) (*WindowsProcess, error) {
	p := &WindowsProcess{}
	if err := p.Open(pid); err != nil {
		return nil, err
	}
	return p, nil
}

// OpenByName opens the first process whose executable name equals name
func OpenByName(name string) (*WindowsProcess, error) {
	pid, err := FindPID(name)
	if err != nil {
		return nil, err
	}

	p := &WindowsProcess{name: name}
	if err := p.Open(pid); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *WindowsProcess) Open(pid process.ProcessID) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	handle, err := windows.OpenProcess(processAccess, false, uint32(pid))
	if err != nil {
		return fmt.Errorf("OpenProcess(%d): %w", pid, err)
	}

	p.pid = pid
	p.handle = handle
	p.log = logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, fmt.Sprintf("process-%d", pid)))

	if err := p.updateMemoryMapInternal(); err != nil {
		p.log.Warn("Failed to initialize memory map: ", err)
	}

	p.log.Infoln("Process opened")
	return nil
}

func (p *WindowsProcess) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.handle == 0 {
		return nil
	}

	if err := windows.CloseHandle(p.handle); err != nil {
		return fmt.Errorf("CloseHandle: %w", err)
	}

	p.handle = 0
	p.pid = 0
	p.mm = nil
	p.log.Infoln("Process closed")
	p.log = logger.NewLogger(coloransi.Color(coloransi.Red, coloransi.ColorOrange, "process-not-open"))

	return nil
}

func (p *WindowsProcess) GetPID() process.ProcessID {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pid
}

func (p *WindowsProcess) PID() process.ProcessID {
	return p.GetPID()
}

// IsAlive asks the kernel for the exit code of the open handle
func (p *WindowsProcess) IsAlive() bool {
	p.mu.Lock()
	handle := p.handle
	p.mu.Unlock()

	if handle == 0 {
		return false
	}

	var code uint32
	if err := windows.GetExitCodeProcess(handle, &code); err != nil {
		return false
	}
	return code == stillActive
}

func (p *WindowsProcess) UpdateMemoryMap() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.updateMemoryMapInternal()
}

func (p *WindowsProcess) updateMemoryMapInternal() error {
	if p.handle == 0 {
		return process.ErrProcessNotOpen
	}

	mm, err := memory_map.NewWindowsMemoryMap().ReadMemoryMapHandle(p.handle)
	if err != nil {
		return err
	}
	p.mm = mm
	return nil
}

func (p *WindowsProcess) IsValidAddress(addr process.ProcessMemoryAddress) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return memory_map.IsValidAddress(uint64(addr), p.mm)
}

func (p *WindowsProcess) GetMemoryMap() ([]memory_map.MemoryMapItem, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.handle == 0 {
		return nil, process.ErrProcessNotOpen
	}
	result := make([]memory_map.MemoryMapItem, len(p.mm))
	copy(result, p.mm)
	return result, nil
}

// Modules walks a toolhelp module snapshot of the process
func (p *WindowsProcess) Modules() ([]process.ModuleRecord, error) {
	pid := p.GetPID()
	if pid == 0 {
		return nil, process.ErrProcessNotOpen
	}

	snapshot, err := windows.CreateToolhelp32Snapshot(windows.TH32CS_SNAPMODULE|windows.TH32CS_SNAPMODULE32, uint32(pid))
	if err != nil {
		return nil, fmt.Errorf("CreateToolhelp32Snapshot: %w", err)
	}
	defer windows.CloseHandle(snapshot)

	var entry windows.ModuleEntry32
	entry.Size = uint32(unsafe.Sizeof(entry))

	if err := windows.Module32First(snapshot, &entry); err != nil {
		return nil, fmt.Errorf("Module32First: %w", err)
	}

	var modules []process.ModuleRecord
	for {
		modules = append(modules, process.ModuleRecord{
			Name: windows.UTF16ToString(entry.Module[:]),
			Path: windows.UTF16ToString(entry.ExePath[:]),
			Base: process.ProcessMemoryAddress(entry.ModBaseAddr),
			Size: process.ProcessMemorySize(entry.ModBaseSize),
		})

		if err := windows.Module32Next(snapshot, &entry); err != nil {
			if errors.Is(err, windows.ERROR_NO_MORE_FILES) {
				break
			}
			return nil, fmt.Errorf("Module32Next: %w", err)
		}
	}

	p.logger().Debugln("Enumerated", len(modules), "modules")
	return modules, nil
}

// ReadMemory reads memory from the process at the specified address.
// ReadProcessMemory is reentrant, so the lock only guards the handle.
func (p *WindowsProcess) ReadMemory(addr process.ProcessMemoryAddress, size process.ProcessMemorySize) ([]byte, error) {
	if size == 0 {
		return []byte{}, nil
	}

	p.mu.Lock()
	handle := p.handle
	p.mu.Unlock()

	if handle == 0 {
		return nil, process.ErrProcessNotOpen
	}

	buf := make([]byte, size)
	var bytesRead uintptr
	err := windows.ReadProcessMemory(handle, uintptr(addr), &buf[0], uintptr(size), &bytesRead)
	if err != nil {
		if errors.Is(err, windows.ERROR_PARTIAL_COPY) || errors.Is(err, windows.ERROR_NOACCESS) {
			return nil, fmt.Errorf("ReadProcessMemory 0x%x+%d: %w", uint64(addr), size, process.ErrAddressNotMapped)
		}
		return nil, fmt.Errorf("ReadProcessMemory 0x%x+%d: %w", uint64(addr), size, err)
	}

	if bytesRead != uintptr(size) {
		return nil, fmt.Errorf("ReadProcessMemory: %d of %d bytes: %w", bytesRead, size, process.ErrPartialRead)
	}

	return buf, nil
}

// logger returns the current logger; Close swaps it
func (p *WindowsProcess) logger() *logger.Logger {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.log
}

func (p *WindowsProcess) String() string {
	return fmt.Sprintf("%s[%d]", p.name, p.GetPID())
}
