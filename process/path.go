package process

import (
	"fmt"
	"unsafe"
)

// ReadPath reads a value of type T at the end of a pointer path.
// It starts at base, adds the first offset, reads a pointer, adds the next offset, reads a pointer, etc.
// The last offset is added to the final pointer, and then T is read from that address.
// If offsets is empty, it reads T from base.
func ReadPath[T any](r MemoryReader, base ProcessMemoryAddress, offsets ...ProcessMemorySize) (T, error) {
	var zero T
	currentAddr := base

	for i := 0; i < len(offsets)-1; i++ {
		ptrAddr := currentAddr + ProcessMemoryAddress(offsets[i])

		ptrVal, err := Read[uint64](r, ptrAddr)
		if err != nil {
			return zero, fmt.Errorf("failed to read pointer at offset %d (addr 0x%x): %w", i, uint64(ptrAddr), err)
		}

		if ptrVal == 0 {
			return zero, fmt.Errorf("pointer at offset %d (addr 0x%x) is null: %w", i, uint64(ptrAddr), ErrInvalidPointer)
		}

		currentAddr = ProcessMemoryAddress(ptrVal)
	}

	finalOffset := ProcessMemorySize(0)
	if len(offsets) > 0 {
		finalOffset = offsets[len(offsets)-1]
	}

	finalAddr := currentAddr + ProcessMemoryAddress(finalOffset)

	val, err := Read[T](r, finalAddr)
	if err != nil {
		return zero, fmt.Errorf("failed to read final value at 0x%x: %w", uint64(finalAddr), err)
	}

	return val, nil
}

// Read reads a single plain-old-data value of type T from memory using the
// in-memory layout of T.
func Read[T any](r MemoryReader, addr ProcessMemoryAddress) (T, error) {
	var t T
	size := ProcessMemorySize(unsafe.Sizeof(t))
	if size == 0 {
		return t, nil
	}

	data, err := r.ReadMemory(addr, size)
	if err != nil {
		return t, err
	}
	if ProcessMemorySize(len(data)) < size {
		return t, ErrPartialRead
	}

	copy(unsafe.Slice((*byte)(unsafe.Pointer(&t)), size), data)
	return t, nil
}
