package process

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// ntsChunk is how much ReadNTS asks for at once. Chunks never cross a page
// boundary, so a string that ends right before an unmapped page still reads.
const (
	ntsChunk = 64
	ntsPage  = 0x1000
)

// Typed implements ProcessRead on top of any MemoryReader. All values are
// little endian with 8 byte pointers.
type Typed struct {
	MemoryReader
}

var _ ProcessRead = Typed{}

// ReadUINT8 reads an unsigned 8-bit integer from the specified address
func (t Typed) ReadUINT8(addr ProcessMemoryAddress) (uint8, error) {
	data, err := t.ReadMemory(addr, 1)
	if err != nil {
		return 0, err
	}
	return data[0], nil
}

// ReadUINT16 reads an unsigned 16-bit integer from the specified address
func (t Typed) ReadUINT16(addr ProcessMemoryAddress) (uint16, error) {
	data, err := t.ReadMemory(addr, 2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(data), nil
}

// ReadUINT32 reads an unsigned 32-bit integer from the specified address
func (t Typed) ReadUINT32(addr ProcessMemoryAddress) (uint32, error) {
	data, err := t.ReadMemory(addr, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(data), nil
}

// ReadUINT64 reads an unsigned 64-bit integer from the specified address
func (t Typed) ReadUINT64(addr ProcessMemoryAddress) (uint64, error) {
	data, err := t.ReadMemory(addr, 8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(data), nil
}

// ReadINT16 reads a signed 16-bit integer from the specified address
func (t Typed) ReadINT16(addr ProcessMemoryAddress) (int16, error) {
	v, err := t.ReadUINT16(addr)
	return int16(v), err
}

// ReadINT32 reads a signed 32-bit integer from the specified address
func (t Typed) ReadINT32(addr ProcessMemoryAddress) (int32, error) {
	v, err := t.ReadUINT32(addr)
	return int32(v), err
}

// ReadINT64 reads a signed 64-bit integer from the specified address
func (t Typed) ReadINT64(addr ProcessMemoryAddress) (int64, error) {
	v, err := t.ReadUINT64(addr)
	return int64(v), err
}

// ReadFLOAT32 reads a 32-bit floating point number from the specified address
func (t Typed) ReadFLOAT32(addr ProcessMemoryAddress) (float32, error) {
	v, err := t.ReadUINT32(addr)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

// ReadFLOAT64 reads a 64-bit floating point number from the specified address
func (t Typed) ReadFLOAT64(addr ProcessMemoryAddress) (float64, error) {
	v, err := t.ReadUINT64(addr)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(v), nil
}

// ReadNTS reads a null-terminated string from the specified address with a maximum length
func (t Typed) ReadNTS(addr ProcessMemoryAddress, maxLength ProcessMemorySize) (string, error) {
	if maxLength == 0 {
		return "", nil
	}

	var out []byte
	for read := ProcessMemorySize(0); read < maxLength; {
		at := addr + ProcessMemoryAddress(read)
		n := min(ProcessMemorySize(ntsChunk), maxLength-read, ProcessMemorySize(ntsPage-uint64(at)%ntsPage))
		data, err := t.ReadMemory(at, n)
		if err != nil {
			return "", err
		}
		if i := bytes.IndexByte(data, 0); i >= 0 {
			return string(append(out, data[:i]...)), nil
		}
		out = append(out, data...)
		read += n
	}

	return string(out), nil
}

// ReadFixedString reads exactly length bytes and trims them at the first NUL
func (t Typed) ReadFixedString(addr ProcessMemoryAddress, length ProcessMemorySize) (string, error) {
	data, err := t.ReadMemory(addr, length)
	if err != nil {
		return "", err
	}
	if i := bytes.IndexByte(data, 0); i >= 0 {
		data = data[:i]
	}
	return string(data), nil
}

// ReadPOINTER reads a pointer value from the specified address
func (t Typed) ReadPOINTER(addr ProcessMemoryAddress) (ProcessMemoryAddress, error) {
	v, err := t.ReadUINT64(addr)
	if err != nil {
		return 0, err
	}
	return ProcessMemoryAddress(v), nil
}

// ReadPointers reads a list of pointers from the specified address
func (t Typed) ReadPointers(base ProcessMemoryAddress, count int) ([]ProcessMemoryAddress, error) {
	if count < 0 {
		return nil, fmt.Errorf("ReadPointers: negative count %d", count)
	}
	if count == 0 {
		return []ProcessMemoryAddress{}, nil
	}

	data, err := t.ReadMemory(base, ProcessMemorySize(count*8))
	if err != nil {
		return nil, err
	}

	results := make([]ProcessMemoryAddress, count)
	for i := range results {
		results[i] = ProcessMemoryAddress(binary.LittleEndian.Uint64(data[i*8:]))
	}
	return results, nil
}
