package signature

import (
	"fmt"

	"cs2mem/process"
	"cs2mem/process_blob"
	"cs2mem/session"
)

// PageSize is the granularity of module snapshots
const PageSize = 0x1000

// Snapshot copies a whole module image out of the target page by page.
// Pages that cannot be read (guard pages, discarded sections) are left zeroed;
// a module where no page is readable is an error.
func Snapshot(mem process.MemoryReader, module session.ModuleDescriptor) (*process_blob.ProcessBlob, error) {
	if module.Size == 0 {
		return nil, fmt.Errorf("module %s has zero size", module.Name)
	}

	data := make([]byte, module.Size)
	readable := 0

	for off := process.ProcessMemorySize(0); off < module.Size; off += PageSize {
		n := min(process.ProcessMemorySize(PageSize), module.Size-off)
		page, err := mem.ReadMemory(module.Base+process.ProcessMemoryAddress(off), n)
		if err != nil {
			continue
		}
		copy(data[off:], page)
		readable++
	}

	if readable == 0 {
		return nil, fmt.Errorf("module %s: no readable page in %s+0x%X", module.Name, module.Base, uint(module.Size))
	}

	return process_blob.NewProcessBlob(module.Base, data), nil
}
