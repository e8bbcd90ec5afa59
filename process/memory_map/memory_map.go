package memory_map

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// MemoryMapItem represents a memory region in a process's address space
type MemoryMapItem struct {
	Address uint64 // The starting address of the memory region
	Size    uint   // The size of the memory region in bytes
	Perms   string // Permissions (e.g., "r-xp" for read, execute, private)
	Path    string // Backing file, empty for anonymous mappings
}

// String returns a string representation of the memory map item
func (mmItem MemoryMapItem) String() string {
	return fmt.Sprintf("Address: %x, Size: %d, Perms: %s, Path: %s", mmItem.Address, mmItem.Size, mmItem.Perms, mmItem.Path)
}

func (mmItem MemoryMapItem) End() uint64 {
	return mmItem.Address + uint64(mmItem.Size)
}

func (mmItem MemoryMapItem) IsReadable() bool {
	return len(mmItem.Perms) > 0 && mmItem.Perms[0] == 'r'
}

func (mmItem MemoryMapItem) IsWritable() bool {
	return len(mmItem.Perms) > 1 && mmItem.Perms[1] == 'w'
}

// MemoryMap defines the interface for operations related to a process's memory map
type MemoryMap interface {
	// ReadMemoryMap reads and parses the memory map for a process
	ReadMemoryMap(pid int) ([]MemoryMapItem, error)

	// IsReadablePerms checks if a memory region has read permissions
	IsReadablePerms(perms string) bool

	// IsWritablePerms checks if a memory region has write permissions
	IsWritablePerms(perms string) bool

	// IsExecutablePerms checks if a memory region has execute permissions
	IsExecutablePerms(perms string) bool
}

// ParseMaps parses the /proc/<pid>/maps text format. Malformed lines are skipped.
// The result is sorted by address.
func ParseMaps(r io.Reader) ([]MemoryMapItem, error) {
	var memoryMap []MemoryMapItem
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}

		// Parse address range (e.g., "00400000-0040b000")
		startText, endText, ok := strings.Cut(fields[0], "-")
		if !ok {
			continue
		}

		startAddr, err := strconv.ParseUint(startText, 16, 64)
		if err != nil {
			continue
		}

		endAddr, err := strconv.ParseUint(endText, 16, 64)
		if err != nil || endAddr < startAddr {
			continue
		}

		item := MemoryMapItem{
			Address: startAddr,
			Size:    uint(endAddr - startAddr),
			Perms:   fields[1],
		}

		// address perms offset dev inode [path], the path may contain spaces
		if len(fields) >= 6 {
			item.Path = strings.Join(fields[5:], " ")
		}

		memoryMap = append(memoryMap, item)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	SortByAddress(memoryMap)
	return memoryMap, nil
}

// SortByAddress sorts the map in place, FindRegion depends on it
func SortByAddress(memoryMap []MemoryMapItem) {
	sort.Slice(memoryMap, func(i, j int) bool {
		return memoryMap[i].Address < memoryMap[j].Address
	})
}

// IsValidAddress checks if an address is within a mapped region
func IsValidAddress(addr uint64, memoryMap []MemoryMapItem) bool {
	return FindRegion(addr, memoryMap) != nil
}

// FindRegion returns the region containing addr. memoryMap must be sorted by address.
func FindRegion(addr uint64, memoryMap []MemoryMapItem) *MemoryMapItem {
	i := sort.Search(len(memoryMap), func(i int) bool {
		return memoryMap[i].End() > addr
	})
	if i < len(memoryMap) && memoryMap[i].Address <= addr {
		return &memoryMap[i]
	}

	return nil
}

// IsRangeReadable reports whether [addr, addr+size) is covered by contiguous
// readable regions.
func IsRangeReadable(addr uint64, size uint64, memoryMap []MemoryMapItem) bool {
	end := addr + size
	if end < addr {
		return false
	}
	for cur := addr; cur < end; {
		item := FindRegion(cur, memoryMap)
		if item == nil || !item.IsReadable() {
			return false
		}
		cur = item.End()
	}
	return true
}

// GroupByPath collapses every file-backed mapping into one span per backing
// file, from the lowest start to the highest end. Anonymous and pseudo
// mappings ("[heap]", "[stack]") are ignored. Spans are returned in address order.
func GroupByPath(memoryMap []MemoryMapItem) []MemoryMapItem {
	index := make(map[string]int)
	var spans []MemoryMapItem

	for _, item := range memoryMap {
		if item.Path == "" || strings.HasPrefix(item.Path, "[") {
			continue
		}

		i, ok := index[item.Path]
		if !ok {
			index[item.Path] = len(spans)
			spans = append(spans, MemoryMapItem{
				Address: item.Address,
				Size:    item.Size,
				Perms:   item.Perms,
				Path:    item.Path,
			})
			continue
		}

		span := &spans[i]
		start := min(span.Address, item.Address)
		end := max(span.End(), item.End())
		span.Address = start
		span.Size = uint(end - start)
	}

	SortByAddress(spans)
	return spans
}
