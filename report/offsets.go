package report

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"cs2mem/offset"
)

// Options controls WriteOffsets
type Options struct {
	Color bool
}

func gray(s string) string {
	if s == "-" {
		return "\033[90m-\033[0m"
	}
	return s
}

func hex(v uint64) string {
	return fmt.Sprintf("0x%X", v)
}

// WriteOffsets prints the signatures, every schema class and the convars of
// table as three sections, each sorted by name.
func WriteOffsets(w io.Writer, table *offset.Table, opts Options) error {
	var blank FormatFunc
	if opts.Color {
		blank = gray
	}

	fmt.Fprintf(w, "offsets v%d (%s) resolved %s\n\n", table.Version(), table.Backend(), table.ResolvedAt().Format("2006-01-02 15:04:05"))

	sigs := NewTable(Column{Header: "SIGNATURE"}, Column{Header: "RVA", AlignRight: true})
	signatures := table.Signatures()
	for _, name := range sortedKeys(signatures) {
		sigs.AddRow(name, hex(signatures[name]))
	}
	if err := sigs.Render(w); err != nil {
		return err
	}

	schemas := table.Schemas()
	for _, class := range table.ClassNames() {
		fields := schemas[class]
		t := NewTable(Column{Header: class}, Column{Header: "OFFSET", AlignRight: true, Format: blank})
		for _, field := range sortedKeys(fields) {
			t.AddRow(field, hex(uint64(fields[field])))
		}
		if t.Len() == 0 {
			t.AddRow("", "")
		}
		fmt.Fprintln(w)
		if err := t.Render(w); err != nil {
			return err
		}
	}

	cvs := NewTable(
		Column{Header: "CONVAR"},
		Column{Header: "TYPE"},
		Column{Header: "DEFAULT", Format: blank},
		Column{Header: "FLAGS", AlignRight: true},
	)
	convars := table.Convars()
	for _, name := range sortedKeys(convars) {
		cv := convars[name]
		cvs.AddRow(name, cv.Type.String(), strings.TrimSpace(cv.Default), hex(cv.Flags))
	}
	fmt.Fprintln(w)
	return cvs.Render(w)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
