//go:build linux

package process_linux

import (
	"errors"
	"fmt"
	"unsafe"

	"cs2mem/process"

	"golang.org/x/sys/unix"
)

// process_vm_readv uses the process_vm_readv syscall to read memory from another process
func process_vm_readv(
	pid process.ProcessID,
	remoteAddr process.ProcessMemoryAddress,
	bytesToRead process.ProcessMemorySize,
) ([]byte, error) {
	localBuf := make([]byte, bytesToRead)

	localIov := unix.Iovec{
		Base: &localBuf[0],
		Len:  uint64(bytesToRead),
	}

	remoteIov := unix.RemoteIovec{
		Base: uintptr(remoteAddr),
		Len:  int(bytesToRead),
	}

	n, _, errno := unix.Syscall6(
		unix.SYS_PROCESS_VM_READV,
		uintptr(pid),                        // Remote process PID
		uintptr(unsafe.Pointer(&localIov)),  // Local iovec
		uintptr(1),                          // Number of local iovecs
		uintptr(unsafe.Pointer(&remoteIov)), // Remote iovec
		uintptr(1),                          // Number of remote iovecs
		uintptr(0),                          // Flags (reserved for future use)
	)

	if errno != 0 {
		if errors.Is(errno, unix.ESRCH) {
			return nil, fmt.Errorf("process_vm_readv: process %d exited: %w", pid, process.ErrProcessNotOpen)
		}
		if errors.Is(errno, unix.EFAULT) {
			return nil, fmt.Errorf("process_vm_readv: 0x%x: %w", uint64(remoteAddr), process.ErrAddressNotMapped)
		}
		return nil, fmt.Errorf("process_vm_readv failed: %w", errno)
	}

	if int(n) != int(bytesToRead) {
		return nil, fmt.Errorf("process_vm_readv: %d of %d bytes: %w", n, bytesToRead, process.ErrPartialRead)
	}

	return localBuf, nil
}

// ReadMemory reads memory from the process at the specified address.
// Safe for concurrent use: the lock only guards the memory map lookup.
func (p *LinuxProcess) ReadMemory(addr process.ProcessMemoryAddress, size process.ProcessMemorySize) ([]byte, error) {
	if size == 0 {
		return []byte{}, nil
	}

	p.mu.Lock()
	pid := p.pid
	valid := pid != 0 && p.isRangeReadableInternal(addr, size)
	p.mu.Unlock()

	if pid == 0 {
		return nil, process.ErrProcessNotOpen
	}
	if !valid {
		return nil, fmt.Errorf("0x%x+%d: %w", uint64(addr), size, process.ErrAddressNotMapped)
	}

	return process_vm_readv(pid, addr, size)
}
