package session

import (
	"sync"

	"cs2mem/process"
)

// MemoryAccessor reads the target's address space. Every failed read returns
// a *ReadError and leaves the accessor usable; nothing is ever written to the
// target. Accessors are safe for concurrent use: Serialized reports whether
// reads are funnelled through an internal lock because the backend read
// primitive is not reentrant.
type MemoryAccessor interface {
	process.MemoryReader
	process.ProcessRead

	Backend() Backend
	Serialized() bool
}

type accessor struct {
	process.Typed

	backend   Backend
	read      process.ReaderFunc
	serialize bool
	mu        sync.Mutex
}

// newIntrospectionAccessor binds reads to the device's per-process read
// primitive. The device is one channel shared by every reader, so reads are
// serialized.
func newIntrospectionAccessor(read process.ReaderFunc) *accessor {
	return newAccessor(BackendIntrospection, read, true)
}

// newDirectScanAccessor binds reads to the opened process handle.
// process_vm_readv and ReadProcessMemory are reentrant.
func newDirectScanAccessor(read process.ReaderFunc) *accessor {
	return newAccessor(BackendDirectScan, read, false)
}

func newAccessor(backend Backend, read process.ReaderFunc, serialize bool) *accessor {
	a := &accessor{
		backend:   backend,
		read:      read,
		serialize: serialize,
	}
	a.Typed = process.Typed{MemoryReader: process.ReaderFunc(a.ReadMemory)}
	return a
}

func (a *accessor) ReadMemory(addr process.ProcessMemoryAddress, size process.ProcessMemorySize) ([]byte, error) {
	if size == 0 {
		return []byte{}, nil
	}

	if a.serialize {
		a.mu.Lock()
		defer a.mu.Unlock()
	}

	data, err := a.read(addr, size)
	if err != nil {
		return nil, &ReadError{Backend: a.backend, Address: addr, Size: size, Err: err}
	}
	if process.ProcessMemorySize(len(data)) != size {
		return nil, &ReadError{Backend: a.backend, Address: addr, Size: size, Err: process.ErrPartialRead}
	}
	return data, nil
}

func (a *accessor) Backend() Backend {
	return a.backend
}

func (a *accessor) Serialized() bool {
	return a.serialize
}
