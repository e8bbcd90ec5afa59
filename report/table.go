// Package report renders resolved offsets as aligned text tables.
package report

import (
	"fmt"
	"io"
	"strings"
)

// FormatFunc colors a cell after its width has been measured
type FormatFunc func(value string) string

// Column defines a column's properties
type Column struct {
	Header     string
	Blank      string     // shown for empty cells, "-" when unset
	Format     FormatFunc // optional
	AlignRight bool
}

// Table collects rows and renders them with every column padded to its
// widest cell. Widths ignore ANSI escape sequences.
type Table struct {
	columns []Column
	rows    [][]string
	widths  []int
}

func NewTable(cols ...Column) *Table {
	t := &Table{
		columns: cols,
		widths:  make([]int, len(cols)),
	}
	for i := range t.columns {
		if t.columns[i].Blank == "" {
			t.columns[i].Blank = "-"
		}
		t.widths[i] = visibleLength(t.columns[i].Header)
	}
	return t
}

// AddRow appends a row; missing or empty cells get the column's Blank value
func (t *Table) AddRow(data ...string) {
	row := make([]string, len(t.columns))
	for i := range row {
		if i < len(data) && data[i] != "" {
			row[i] = data[i]
		} else {
			row[i] = t.columns[i].Blank
		}
		t.widths[i] = max(t.widths[i], visibleLength(row[i]))
	}
	t.rows = append(t.rows, row)
}

func (t *Table) Len() int {
	return len(t.rows)
}

// Render writes the header, a rule and every row
func (t *Table) Render(w io.Writer) error {
	headers := make([]string, len(t.columns))
	rule := make([]string, len(t.columns))
	for i, col := range t.columns {
		headers[i] = t.pad(i, col.Header)
		rule[i] = strings.Repeat("-", t.widths[i])
	}
	if _, err := fmt.Fprintln(w, strings.TrimRight(strings.Join(headers, "  "), " ")); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, strings.Join(rule, "  ")); err != nil {
		return err
	}

	for _, row := range t.rows {
		cells := make([]string, len(row))
		for i, val := range row {
			cells[i] = t.pad(i, val)
		}
		if _, err := fmt.Fprintln(w, strings.TrimRight(strings.Join(cells, "  "), " ")); err != nil {
			return err
		}
	}
	return nil
}

// pad measures val, then formats it and pads to the column width
func (t *Table) pad(col int, val string) string {
	n := t.widths[col] - visibleLength(val)
	if f := t.columns[col].Format; f != nil {
		val = f(val)
	}
	if n <= 0 {
		return val
	}
	if t.columns[col].AlignRight {
		return strings.Repeat(" ", n) + val
	}
	return val + strings.Repeat(" ", n)
}

// visibleLength counts runes outside ANSI escape sequences
func visibleLength(s string) int {
	length := 0
	inEscape := false
	for _, r := range s {
		switch {
		case r == '\033':
			inEscape = true
		case inEscape:
			if r == 'm' {
				inEscape = false
			}
		default:
			length++
		}
	}
	return length
}
