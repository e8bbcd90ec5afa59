//go:build windows

package memory_map

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

// maximum user mode address on x64 Windows
const maxUserAddress = 0x7FFFFFFEFFFF

// WindowsMemoryMap implements MemoryMap for Windows
type WindowsMemoryMap struct{}

// NewWindowsMemoryMap creates a new WindowsMemoryMap instance
func NewWindowsMemoryMap() *WindowsMemoryMap {
	return &WindowsMemoryMap{}
}

// ReadMemoryMap opens the process for querying and walks its regions
func (w *WindowsMemoryMap) ReadMemoryMap(pid int) ([]MemoryMapItem, error) {
	handle, err := windows.OpenProcess(windows.PROCESS_QUERY_INFORMATION, false, uint32(pid))
	if err != nil {
		return nil, fmt.Errorf("OpenProcess(%d): %w", pid, err)
	}
	defer windows.CloseHandle(handle)

	return w.ReadMemoryMapHandle(handle)
}

// ReadMemoryMapHandle walks the committed regions of an already opened process with VirtualQueryEx
func (w *WindowsMemoryMap) ReadMemoryMapHandle(handle windows.Handle) ([]MemoryMapItem, error) {
	var memoryMap []MemoryMapItem
	var mbi windows.MemoryBasicInformation

	for addr := uintptr(0); addr < maxUserAddress; {
		if err := windows.VirtualQueryEx(handle, addr, &mbi, unsafe.Sizeof(mbi)); err != nil {
			if len(memoryMap) == 0 {
				return nil, fmt.Errorf("VirtualQueryEx at 0x%x: %w", addr, err)
			}
			break
		}
		if mbi.RegionSize == 0 {
			break
		}

		if mbi.State == windows.MEM_COMMIT {
			memoryMap = append(memoryMap, MemoryMapItem{
				Address: uint64(mbi.BaseAddress),
				Size:    uint(mbi.RegionSize),
				Perms:   protectToPerms(mbi.Protect),
			})
		}

		addr = mbi.BaseAddress + mbi.RegionSize
	}

	SortByAddress(memoryMap)
	return memoryMap, nil
}

func protectToPerms(protect uint32) string {
	perms := []byte("---p")
	if protect&(windows.PAGE_GUARD|windows.PAGE_NOACCESS) != 0 {
		return string(perms)
	}
	switch protect & 0xFF {
	case windows.PAGE_READONLY:
		perms[0] = 'r'
	case windows.PAGE_READWRITE, windows.PAGE_WRITECOPY:
		perms[0], perms[1] = 'r', 'w'
	case windows.PAGE_EXECUTE:
		perms[2] = 'x'
	case windows.PAGE_EXECUTE_READ:
		perms[0], perms[2] = 'r', 'x'
	case windows.PAGE_EXECUTE_READWRITE, windows.PAGE_EXECUTE_WRITECOPY:
		perms[0], perms[1], perms[2] = 'r', 'w', 'x'
	}
	return string(perms)
}

func (w *WindowsMemoryMap) IsReadablePerms(perms string) bool {
	return len(perms) > 0 && perms[0] == 'r'
}

func (w *WindowsMemoryMap) IsWritablePerms(perms string) bool {
	return len(perms) > 1 && perms[1] == 'w'
}

func (w *WindowsMemoryMap) IsExecutablePerms(perms string) bool {
	return len(perms) > 2 && perms[2] == 'x'
}
