package process_blob

import (
	"encoding/binary"
	"fmt"
	"sort"
	"sync"

	"cs2mem/process"
)

// Image is a sparse address space assembled from blobs. Reads must fall
// entirely inside one blob; anything else is ErrAddressNotMapped. Image is
// safe for concurrent use.
type Image struct {
	process.Typed
	mu    sync.RWMutex
	blobs []*ProcessBlob
}

func NewImage() *Image {
	img := &Image{}
	img.Typed = process.Typed{MemoryReader: process.ReaderFunc(img.ReadMemory)}
	return img
}

// Map adds a zeroed region of size bytes at base and returns it for filling.
// Overlapping an existing region is an error.
func (img *Image) Map(base process.ProcessMemoryAddress, size process.ProcessMemorySize) (*ProcessBlob, error) {
	blob := NewProcessBlob(base, make([]byte, size))
	if err := img.Add(blob); err != nil {
		return nil, err
	}
	return blob, nil
}

// Add inserts an existing blob
func (img *Image) Add(blob *ProcessBlob) error {
	img.mu.Lock()
	defer img.mu.Unlock()

	for _, b := range img.blobs {
		if blob.Base() < b.End() && b.Base() < blob.End() {
			return fmt.Errorf("region 0x%x-0x%x overlaps 0x%x-0x%x",
				uint64(blob.Base()), uint64(blob.End()), uint64(b.Base()), uint64(b.End()))
		}
	}

	img.blobs = append(img.blobs, blob)
	sort.Slice(img.blobs, func(i, j int) bool {
		return img.blobs[i].Base() < img.blobs[j].Base()
	})
	return nil
}

// Blobs returns the regions in address order
func (img *Image) Blobs() []*ProcessBlob {
	img.mu.RLock()
	defer img.mu.RUnlock()
	out := make([]*ProcessBlob, len(img.blobs))
	copy(out, img.blobs)
	return out
}

// ReadMemory copies size bytes at addr out of the owning blob
func (img *Image) ReadMemory(addr process.ProcessMemoryAddress, size process.ProcessMemorySize) ([]byte, error) {
	img.mu.RLock()
	defer img.mu.RUnlock()

	i := sort.Search(len(img.blobs), func(i int) bool {
		return img.blobs[i].End() > addr
	})
	if i == len(img.blobs) || !img.blobs[i].Contains(addr, size) {
		return nil, fmt.Errorf("read 0x%x+%d: %w", uint64(addr), size, process.ErrAddressNotMapped)
	}

	data, err := img.blobs[i].ReadMemory(addr, size)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// WriteAt copies data into the image. It exists to build fixtures and
// captured snapshots; no backend writes to a live target.
func (img *Image) WriteAt(addr process.ProcessMemoryAddress, data []byte) error {
	img.mu.Lock()
	defer img.mu.Unlock()

	for _, b := range img.blobs {
		if b.Contains(addr, process.ProcessMemorySize(len(data))) {
			copy(b.data[addr-b.baseaddress:], data)
			return nil
		}
	}
	return fmt.Errorf("write 0x%x+%d: %w", uint64(addr), len(data), process.ErrAddressNotMapped)
}

func (img *Image) PutUINT16(addr process.ProcessMemoryAddress, v uint16) error {
	return img.WriteAt(addr, binary.LittleEndian.AppendUint16(nil, v))
}

func (img *Image) PutUINT32(addr process.ProcessMemoryAddress, v uint32) error {
	return img.WriteAt(addr, binary.LittleEndian.AppendUint32(nil, v))
}

func (img *Image) PutUINT64(addr process.ProcessMemoryAddress, v uint64) error {
	return img.WriteAt(addr, binary.LittleEndian.AppendUint64(nil, v))
}

// PutString writes s followed by a NUL terminator
func (img *Image) PutString(addr process.ProcessMemoryAddress, s string) error {
	return img.WriteAt(addr, append([]byte(s), 0))
}
