// Package process_blob holds captured process memory: a single contiguous
// ProcessBlob, or an Image made of several blobs that behaves like a sparse
// address space.
package process_blob

import (
	"fmt"

	"cs2mem/process"
)

// ProcessBlob is a copy of size bytes of process memory starting at a base address
type ProcessBlob struct {
	process.Typed
	baseaddress process.ProcessMemoryAddress
	data        []byte
}

var _ process.MemoryReader = (*ProcessBlob)(nil)
var _ process.ProcessRead = (*ProcessBlob)(nil)

func NewProcessBlob(baseAddress process.ProcessMemoryAddress, data []byte) *ProcessBlob {
	p := &ProcessBlob{
		baseaddress: baseAddress,
		data:        data,
	}
	p.Typed = process.Typed{MemoryReader: process.ReaderFunc(p.ReadMemory)}
	return p
}

func (p *ProcessBlob) Data() []byte {
	return p.data
}

func (p *ProcessBlob) Base() process.ProcessMemoryAddress {
	return p.baseaddress
}

func (p *ProcessBlob) End() process.ProcessMemoryAddress {
	return p.baseaddress + process.ProcessMemoryAddress(len(p.data))
}

// Contains reports whether [addr, addr+size) lies inside the blob
func (p *ProcessBlob) Contains(addr process.ProcessMemoryAddress, size process.ProcessMemorySize) bool {
	end := addr + process.ProcessMemoryAddress(size)
	return addr >= p.baseaddress && end >= addr && end <= p.End()
}

// ReadMemory returns a slice of the blob. The slice aliases the blob data.
func (p *ProcessBlob) ReadMemory(addr process.ProcessMemoryAddress, size process.ProcessMemorySize) ([]byte, error) {
	if !p.Contains(addr, size) {
		return nil, fmt.Errorf("read 0x%x+%d outside blob 0x%x-0x%x: %w",
			uint64(addr), size, uint64(p.baseaddress), uint64(p.End()), process.ErrAddressNotMapped)
	}
	offset := addr - p.baseaddress
	return p.data[offset : uint64(offset)+uint64(size)], nil
}

// Offset returns the blob-relative offset of an absolute address
func (p *ProcessBlob) Offset(addr process.ProcessMemoryAddress) (uint, bool) {
	if !p.Contains(addr, 0) {
		return 0, false
	}
	return uint(addr - p.baseaddress), true
}
