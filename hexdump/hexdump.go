// Package hexdump renders memory around signature matches.
package hexdump

import (
	"bytes"
	"fmt"
	"io"
	"strings"
)

// Span marks Length bytes starting at Start, relative to the dumped data
type Span struct {
	Start  int
	Length int
}

func (s Span) contains(i int) bool {
	return i >= s.Start && i < s.Start+s.Length
}

// Options defines options for customizing the hexdump output
type Options struct {
	// BytesPerLine defines the number of bytes to display per line
	BytesPerLine int

	// Base is the address printed for the first byte
	Base uint64

	// Highlight marks matched bytes, wildcards included
	Highlight []Span

	// Color enables ANSI colors
	Color bool

	// MaxLines is the maximum number of lines to show (0 for no limit)
	MaxLines int
}

func DefaultOptions() Options {
	return Options{
		BytesPerLine: 16,
		Color:        true,
	}
}

// Dump creates a hex dump of the given data with specified options
func Dump(data []byte, options Options) string {
	var buffer bytes.Buffer
	DumpToWriter(&buffer, data, options)
	return buffer.String()
}

// DumpToWriter writes a hex dump of the given data to the specified writer
func DumpToWriter(writer io.Writer, data []byte, options Options) {
	if options.BytesPerLine <= 0 {
		options.BytesPerLine = 16
	}

	lines := 0
	for offset := 0; offset < len(data); offset += options.BytesPerLine {
		if options.MaxLines > 0 && lines >= options.MaxLines {
			fmt.Fprintf(writer, "... %d more bytes\n", len(data)-offset)
			break
		}
		end := min(offset+options.BytesPerLine, len(data))
		formatLine(writer, data, offset, end, options)
		lines++
	}
}

// formatLine prints data[start:end] as
//
//	0000000000001000  48 8b 05 00 10 00 00 c3 | 00 ... | H...... ........
func formatLine(writer io.Writer, data []byte, start, end int, options Options) {
	p := palette{enabled: options.Color}

	fmt.Fprint(writer, p.paint(colorAddress, fmt.Sprintf("%016x", options.Base+uint64(start))), "  ")

	half := options.BytesPerLine / 2
	hex := make([]string, 0, options.BytesPerLine)
	for i := start; i < end; i++ {
		if options.BytesPerLine >= 8 && i-start == half {
			hex = append(hex, "|")
		}
		hex = append(hex, p.paint(byteColor(data[i], highlighted(options.Highlight, i)), fmt.Sprintf("%02x", data[i])))
	}
	fmt.Fprint(writer, strings.Join(hex, " "))

	if missing := options.BytesPerLine - (end - start); missing > 0 {
		pad := missing * 3
		if options.BytesPerLine >= 8 && end-start <= half {
			pad += 2
		}
		fmt.Fprint(writer, strings.Repeat(" ", pad))
	}

	fmt.Fprint(writer, " | ")
	for i := start; i < end; i++ {
		if options.BytesPerLine >= 8 && i-start == half {
			fmt.Fprint(writer, " ")
		}
		c := data[i]
		s := "."
		if c >= 0x20 && c < 0x7f {
			s = string(rune(c))
		}
		fmt.Fprint(writer, p.paint(byteColor(c, highlighted(options.Highlight, i)), s))
	}
	fmt.Fprintln(writer)
}

func highlighted(spans []Span, i int) bool {
	for _, s := range spans {
		if s.contains(i) {
			return true
		}
	}
	return false
}
