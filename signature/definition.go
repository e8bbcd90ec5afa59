// Package signature locates functions and globals inside module images by
// byte pattern, optionally following the RIP relative operand of the
// matched instruction.
package signature

import (
	"errors"
	"fmt"

	"cs2mem/process"
)

const (
	// ResolveMatch returns the address of the match plus Offset
	ResolveMatch = ""
	// ResolveRIP decodes the instruction at match+Offset and returns the
	// target of its RIP relative memory operand
	ResolveRIP = "rip"
)

// Definition describes one signature
type Definition struct {
	Name    string `yaml:"name"`
	Module  string `yaml:"module"`
	Pattern string `yaml:"pattern"`
	Offset  int    `yaml:"offset,omitempty"`
	Resolve string `yaml:"resolve,omitempty"`
	Extra   int64  `yaml:"extra,omitempty"`
}

// Validate checks the definition without touching memory
func (d Definition) Validate() error {
	if d.Name == "" {
		return errors.New("signature without name")
	}
	if d.Module == "" {
		return fmt.Errorf("signature %s: no module", d.Name)
	}
	if d.Resolve != ResolveMatch && d.Resolve != ResolveRIP {
		return fmt.Errorf("signature %s: unknown resolve mode %q", d.Name, d.Resolve)
	}
	if _, err := process.ParseAOB(d.Pattern); err != nil {
		return fmt.Errorf("signature %s: %w", d.Name, err)
	}
	return nil
}

type compiled struct {
	Definition
	aob process.AOB
}
