package hexdump

import "fmt"

type color struct{ r, g, b uint8 }

var (
	colorAddress   = color{0, 128, 128}
	colorByte      = color{50, 205, 50}
	colorZero      = color{110, 110, 110}
	colorHighlight = color{255, 140, 0}
)

func byteColor(b byte, highlight bool) color {
	switch {
	case highlight:
		return colorHighlight
	case b == 0:
		return colorZero
	}
	return colorByte
}

type palette struct {
	enabled bool
}

func (p palette) paint(c color, s string) string {
	if !p.enabled {
		return s
	}
	return fmt.Sprintf("\x1b[38;2;%d;%d;%dm%s\x1b[0m", c.r, c.g, c.b, s)
}
