package process

import (
	"fmt"
	"strings"
)

// ProcessID represents a unique identifier for a process
type ProcessID int

// ModuleRecord is a loaded module as reported by a backend, before any
// normalization. Path is empty when the backend only knows the name.
type ModuleRecord struct {
	Name string
	Path string
	Base ProcessMemoryAddress
	Size ProcessMemorySize
}

func (m ModuleRecord) String() string {
	return fmt.Sprintf("%s@%s+0x%X", m.Name, m.Base, uint(m.Size))
}

// ModuleName returns the file name part of a module path. Windows paths are
// handled on every platform since Wine maps them with either separator.
func ModuleName(path string) string {
	if i := strings.LastIndexAny(path, `\/`); i >= 0 {
		return path[i+1:]
	}
	return path
}
