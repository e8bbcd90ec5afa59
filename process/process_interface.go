package process

// MemoryReader is the raw read primitive every backend provides
type MemoryReader interface {
	// ReadMemory reads size bytes at addr. A read that cannot be fully
	// satisfied returns an error and no data.
	ReadMemory(addr ProcessMemoryAddress, size ProcessMemorySize) ([]byte, error)
}

// ReaderFunc adapts a plain function to MemoryReader
type ReaderFunc func(addr ProcessMemoryAddress, size ProcessMemorySize) ([]byte, error)

func (f ReaderFunc) ReadMemory(addr ProcessMemoryAddress, size ProcessMemorySize) ([]byte, error) {
	return f(addr, size)
}

// ProcessRead defines typed read operations for process memory
type ProcessRead interface {
	// ReadUINT8 reads an unsigned 8-bit integer from the specified address
	ReadUINT8(addr ProcessMemoryAddress) (uint8, error)

	// ReadUINT16 reads an unsigned 16-bit integer from the specified address
	ReadUINT16(addr ProcessMemoryAddress) (uint16, error)

	// ReadUINT32 reads an unsigned 32-bit integer from the specified address
	ReadUINT32(addr ProcessMemoryAddress) (uint32, error)

	// ReadUINT64 reads an unsigned 64-bit integer from the specified address
	ReadUINT64(addr ProcessMemoryAddress) (uint64, error)

	// ReadINT16 reads a signed 16-bit integer from the specified address
	ReadINT16(addr ProcessMemoryAddress) (int16, error)

	// ReadINT32 reads a signed 32-bit integer from the specified address
	ReadINT32(addr ProcessMemoryAddress) (int32, error)

	// ReadINT64 reads a signed 64-bit integer from the specified address
	ReadINT64(addr ProcessMemoryAddress) (int64, error)

	// ReadFLOAT32 reads a 32-bit floating point number from the specified address
	ReadFLOAT32(addr ProcessMemoryAddress) (float32, error)

	// ReadFLOAT64 reads a 64-bit floating point number from the specified address
	ReadFLOAT64(addr ProcessMemoryAddress) (float64, error)

	// ReadNTS reads a null-terminated string from the specified address with a maximum length
	ReadNTS(addr ProcessMemoryAddress, maxLength ProcessMemorySize) (string, error)

	// ReadFixedString reads exactly length bytes and trims them at the first NUL
	ReadFixedString(addr ProcessMemoryAddress, length ProcessMemorySize) (string, error)

	// ReadPOINTER reads a pointer value from the specified address
	ReadPOINTER(addr ProcessMemoryAddress) (ProcessMemoryAddress, error)

	// ReadPointers reads a list of pointers from the specified address
	ReadPointers(base ProcessMemoryAddress, count int) ([]ProcessMemoryAddress, error)
}
