//go:build windows

package process_windows

import (
	"errors"
	"fmt"
	"os"
	"unsafe"

	"cs2mem/process"

	"golang.org/x/sys/windows"
)

// ListByName returns the PIDs of every process whose executable name equals name (case-sensitive)
func ListByName(name string) ([]process.ProcessID, error) {
	if name == "" {
		return nil, errors.New("empty name")
	}

	snapshot, err := windows.CreateToolhelp32Snapshot(windows.TH32CS_SNAPPROCESS, 0)
	if err != nil {
		return nil, fmt.Errorf("CreateToolhelp32Snapshot: %w", err)
	}
	defer windows.CloseHandle(snapshot)

	var entry windows.ProcessEntry32
	entry.Size = uint32(unsafe.Sizeof(entry))

	if err := windows.Process32First(snapshot, &entry); err != nil {
		return nil, fmt.Errorf("Process32First: %w", err)
	}

	var out []process.ProcessID
	for {
		if windows.UTF16ToString(entry.ExeFile[:]) == name {
			out = append(out, process.ProcessID(entry.ProcessID))
		}
		if err := windows.Process32Next(snapshot, &entry); err != nil {
			if errors.Is(err, windows.ERROR_NO_MORE_FILES) {
				break
			}
			return nil, fmt.Errorf("Process32Next: %w", err)
		}
	}

	return out, nil
}

// FindPID returns the first match for name, or os.ErrNotExist if none
func FindPID(name string) (process.ProcessID, error) {
	pids, err := ListByName(name)
	if err != nil {
		return 0, err
	}
	if len(pids) == 0 {
		return 0, fmt.Errorf("find process %q: %w", name, os.ErrNotExist)
	}
	return pids[0], nil
}
