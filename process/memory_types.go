package process

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// ProcessMemoryAddress represents a memory address within a process
type ProcessMemoryAddress uint64

func (pma ProcessMemoryAddress) String() string {
	return fmt.Sprintf("0x%X", uint64(pma))
}

// ProcessMemorySize represents a size of memory region
type ProcessMemorySize uint

func (pms ProcessMemorySize) String() string {
	return fmt.Sprintf("%d bytes", uint(pms))
}

// AOB (Array of Bytes) represents a pattern to search for in memory
type AOB struct {
	Pattern []byte // The byte pattern to search for
	Mask    []byte // Optional mask where 0xFF means exact match and 0x00 means wildcard
}

// IsValid checks if the AOB pattern is valid
func (aob AOB) IsValid() bool {
	return len(aob.Pattern) > 0 && len(aob.Pattern) == len(aob.Mask)
}

func NewAOB(pattern, mask []byte) (AOB, error) {
	if len(pattern) != len(mask) {
		return AOB{}, fmt.Errorf("pattern and mask must be of the same length")
	}
	return AOB{Pattern: pattern, Mask: mask}, nil
}

// ParseAOB parses an IDA style pattern such as "48 8B 05 ?? ?? ?? ??".
// Bytes may be separated by spaces or commas; "?" and "??" are wildcards.
func ParseAOB(s string) (AOB, error) {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' '
	})
	if len(parts) == 0 {
		return AOB{}, fmt.Errorf("empty pattern")
	}

	aob := AOB{
		Pattern: make([]byte, 0, len(parts)),
		Mask:    make([]byte, 0, len(parts)),
	}

	for _, part := range parts {
		if part == "??" || part == "?" {
			aob.Pattern = append(aob.Pattern, 0)
			aob.Mask = append(aob.Mask, 0)
			continue
		}

		val, err := strconv.ParseUint(part, 16, 8)
		if err != nil {
			return AOB{}, fmt.Errorf("invalid hex byte %q in pattern: %w", part, err)
		}
		aob.Pattern = append(aob.Pattern, byte(val))
		aob.Mask = append(aob.Mask, 0xFF)
	}

	return aob, nil
}

// String formats the pattern back into the IDA style notation
func (aob AOB) String() string {
	var sb strings.Builder
	for i, b := range aob.Pattern {
		if i > 0 {
			sb.WriteString(" ")
		}
		if i < len(aob.Mask) && aob.Mask[i] == 0 {
			sb.WriteString("??")
			continue
		}
		sb.WriteString(strings.ToUpper(hex.EncodeToString([]byte{b})))
	}
	return sb.String()
}

// Find returns the offsets of every match of the pattern in data.
// A missing mask means an exact match on every byte.
func (aob AOB) Find(data []byte) []uint {
	return aob.find(data, false)
}

// FindFirst returns the offset of the first match, or false.
func (aob AOB) FindFirst(data []byte) (uint, bool) {
	matches := aob.find(data, true)
	if len(matches) == 0 {
		return 0, false
	}
	return matches[0], true
}

func (aob AOB) find(data []byte, first bool) []uint {
	pattern := aob.Pattern
	mask := aob.Mask
	if len(pattern) == 0 || len(data) < len(pattern) {
		return nil
	}
	if len(mask) == 0 {
		mask = bytes.Repeat([]byte{0xFF}, len(pattern))
	}

	var matches []uint

	for i := 0; i <= len(data)-len(pattern); i++ {
		matched := true

		for j := 0; j < len(pattern); j++ {
			// mask byte 0 is a wildcard
			if mask[j] == 0 {
				continue
			}
			if data[i+j]&mask[j] != pattern[j]&mask[j] {
				matched = false
				break
			}
		}

		if matched {
			matches = append(matches, uint(i))
			if first {
				break
			}
		}
	}

	return matches
}
