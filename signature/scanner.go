package signature

import (
	"errors"
	"fmt"

	"cs2mem/offset"
	"cs2mem/process"
	"cs2mem/process_blob"
	"cs2mem/session"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
	"golang.org/x/arch/x86/x86asm"
)

var errNoMatch = errors.New("pattern not found")

// Scanner resolves a fixed set of definitions. It implements offset.SignatureSource.
type Scanner struct {
	defs []compiled
	log  *logger.Logger
}

var _ offset.SignatureSource = (*Scanner)(nil)

// NewScanner validates and compiles the definitions. Names must be unique.
func NewScanner(defs []Definition) (*Scanner, error) {
	s := &Scanner{
		log: logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, "signature")),
	}

	seen := make(map[string]bool, len(defs))
	for _, d := range defs {
		if err := d.Validate(); err != nil {
			return nil, err
		}
		if seen[d.Name] {
			return nil, fmt.Errorf("signature %s defined twice", d.Name)
		}
		seen[d.Name] = true

		aob, _ := process.ParseAOB(d.Pattern)
		s.defs = append(s.defs, compiled{Definition: d, aob: aob})
	}
	return s, nil
}

func (s *Scanner) Definitions() []Definition {
	out := make([]Definition, len(s.defs))
	for i, d := range s.defs {
		out[i] = d.Definition
	}
	return out
}

// DumpSignatures snapshots each referenced module once and resolves every
// definition against it. The first failure stops the dump.
func (s *Scanner) DumpSignatures(sess *session.Session) (map[string]uint64, error) {
	images := make(map[string]*process_blob.ProcessBlob)
	results := make(map[string]uint64, len(s.defs))

	for _, d := range s.defs {
		module, err := sess.Module(d.Module)
		if err != nil {
			return nil, &offset.SignatureResolutionError{Name: d.Name, Module: d.Module, Err: err}
		}

		image, ok := images[d.Module]
		if !ok {
			image, err = Snapshot(sess.Memory(), module)
			if err != nil {
				return nil, &offset.SignatureResolutionError{Name: d.Name, Module: d.Module, Err: err}
			}
			images[d.Module] = image
		}

		addr, err := resolve(d, image)
		if err != nil {
			return nil, &offset.SignatureResolutionError{Name: d.Name, Module: d.Module, Err: err}
		}

		results[d.Name] = module.RVA(addr)
		s.log.Debugln("Signature", d.Name, "->", d.Module, fmt.Sprintf("+0x%X", results[d.Name]))
	}

	return results, nil
}

// Find resolves a single definition to an absolute address
func Find(sess *session.Session, d Definition) (process.ProcessMemoryAddress, error) {
	if err := d.Validate(); err != nil {
		return 0, err
	}
	module, err := sess.Module(d.Module)
	if err != nil {
		return 0, &offset.SignatureResolutionError{Name: d.Name, Module: d.Module, Err: err}
	}
	image, err := Snapshot(sess.Memory(), module)
	if err != nil {
		return 0, &offset.SignatureResolutionError{Name: d.Name, Module: d.Module, Err: err}
	}
	aob, _ := process.ParseAOB(d.Pattern)
	addr, err := resolve(compiled{Definition: d, aob: aob}, image)
	if err != nil {
		return 0, &offset.SignatureResolutionError{Name: d.Name, Module: d.Module, Err: err}
	}
	return addr, nil
}

func resolve(d compiled, image *process_blob.ProcessBlob) (process.ProcessMemoryAddress, error) {
	match, ok := d.aob.FindFirst(image.Data())
	if !ok {
		return 0, errNoMatch
	}

	at := image.Base() + process.ProcessMemoryAddress(int64(match)+int64(d.Offset))

	switch d.Resolve {
	case ResolveRIP:
		target, err := followRIP(image, at)
		if err != nil {
			return 0, err
		}
		at = target
	}

	return process.ProcessMemoryAddress(int64(at) + d.Extra), nil
}

// followRIP decodes the instruction at addr and returns the absolute target
// of its RIP relative memory operand.
func followRIP(image *process_blob.ProcessBlob, addr process.ProcessMemoryAddress) (process.ProcessMemoryAddress, error) {
	off, ok := image.Offset(addr)
	if !ok {
		return 0, fmt.Errorf("instruction at %s outside module", addr)
	}

	inst, err := x86asm.Decode(image.Data()[off:], 64)
	if err != nil {
		return 0, fmt.Errorf("decode instruction at %s: %w", addr, err)
	}

	for _, arg := range inst.Args {
		mem, ok := arg.(x86asm.Mem)
		if !ok || mem.Base != x86asm.RIP {
			continue
		}
		// Disp carries disp32 zero-extended
		next := int64(addr) + int64(inst.Len)
		return process.ProcessMemoryAddress(next + int64(int32(mem.Disp))), nil
	}

	return 0, fmt.Errorf("instruction %q at %s has no rip relative operand", inst.String(), addr)
}
