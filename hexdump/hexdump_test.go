package hexdump

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDumpPlain(t *testing.T) {
	data := []byte("H\x00AB")
	out := Dump(data, Options{BytesPerLine: 16, Base: 0x1000})

	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	require.Len(t, lines, 1)
	assert.True(t, strings.HasPrefix(lines[0], "0000000000001000  48 00 41 42"))
	assert.True(t, strings.HasSuffix(lines[0], " | H.AB"))
}

func TestDumpColumnsAlign(t *testing.T) {
	data := make([]byte, 20)
	out := Dump(data, Options{BytesPerLine: 16})

	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, strings.Index(lines[0], " | ."), strings.Index(lines[1], " | ."))
	assert.True(t, strings.HasPrefix(lines[1], "0000000000000010"))
}

func TestDumpMaxLines(t *testing.T) {
	out := Dump(make([]byte, 64), Options{BytesPerLine: 16, MaxLines: 2})
	assert.Contains(t, out, "... 32 more bytes")
}

func TestDumpHighlight(t *testing.T) {
	data := []byte{0x90, 0x48, 0x8B, 0x05, 0x90}
	opts := DefaultOptions()
	opts.Highlight = []Span{{Start: 1, Length: 3}}
	out := Dump(data, opts)

	assert.Contains(t, out, "\x1b[38;2;255;140;0m48\x1b[0m")
	assert.Contains(t, out, "\x1b[38;2;50;205;50m90\x1b[0m")
}
