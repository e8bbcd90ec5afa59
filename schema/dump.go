package schema

import (
	"errors"
	"fmt"

	"cs2mem/offset"
	"cs2mem/process"
	"cs2mem/session"
	"cs2mem/signature"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
)

var errVectorTooLarge = errors.New("vector count out of range")

// Dumper implements offset.SchemaSource
type Dumper struct {
	layout Layout
	log    *logger.Logger
}

var _ offset.SchemaSource = (*Dumper)(nil)

func NewDumper(layout Layout) *Dumper {
	return &Dumper{
		layout: layout,
		log:    logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, "schema")),
	}
}

// DumpSchemas walks every type scope until each requested class is found.
// A class found in an earlier scope wins over later ones.
func (d *Dumper) DumpSchemas(sess *session.Session, classNames []string) (map[string]map[string]uint32, error) {
	result := make(map[string]map[string]uint32, len(classNames))
	if len(classNames) == 0 {
		return result, nil
	}

	wanted := make(map[string]bool, len(classNames))
	for _, name := range classNames {
		wanted[name] = true
	}

	mem := sess.Memory()

	system, err := d.locateSystem(sess)
	if err != nil {
		return nil, &offset.SchemaResolutionError{Class: classNames[0], Err: fmt.Errorf("locate schema system: %w", err)}
	}

	scopes, err := readVector(mem, system+process.ProcessMemoryAddress(d.layout.ScopeVector), d.layout.MaxScopes)
	if err != nil {
		return nil, &offset.SchemaResolutionError{Class: classNames[0], Err: fmt.Errorf("read type scopes: %w", err)}
	}

	for _, scope := range scopes {
		if len(result) == len(wanted) {
			break
		}
		if scope == 0 {
			continue
		}

		scopeName, _ := mem.ReadFixedString(scope+process.ProcessMemoryAddress(d.layout.ScopeName), ScopeNameLength)

		classes, err := readVector(mem, scope+process.ProcessMemoryAddress(d.layout.ScopeClasses), d.layout.MaxClasses)
		if err != nil {
			d.log.Debugln("Skipping scope", scopeName, err)
			continue
		}

		for _, class := range classes {
			if class == 0 {
				continue
			}
			name, err := readName(mem, class+process.ProcessMemoryAddress(d.layout.ClassName))
			if err != nil || !wanted[name] {
				continue
			}
			if _, done := result[name]; done {
				continue
			}

			fields, err := d.readFields(mem, name, class)
			if err != nil {
				return nil, err
			}
			result[name] = fields
			d.log.Debugln("Class", name, "in scope", scopeName, "fields", len(fields))
		}
	}

	for _, name := range classNames {
		if _, ok := result[name]; !ok {
			return nil, &offset.SchemaResolutionError{Class: name, Err: offset.ErrNotFound}
		}
	}

	return result, nil
}

func (d *Dumper) locateSystem(sess *session.Session) (process.ProcessMemoryAddress, error) {
	addr, err := signature.Find(sess, d.layout.System)
	if err != nil {
		return 0, err
	}
	if d.layout.Deref {
		addr, err = process.Read[process.ProcessMemoryAddress](sess.Memory(), addr)
		if err != nil {
			return 0, err
		}
	}
	if addr == 0 {
		return 0, process.ErrInvalidPointer
	}
	return addr, nil
}

func (d *Dumper) readFields(mem session.MemoryAccessor, class string, info process.ProcessMemoryAddress) (map[string]uint32, error) {
	count, err := mem.ReadINT16(info + process.ProcessMemoryAddress(d.layout.ClassFieldCount))
	if err != nil {
		return nil, &offset.SchemaResolutionError{Class: class, Err: fmt.Errorf("field count: %w", err)}
	}
	if count < 0 || int(count) > d.layout.MaxFields {
		return nil, &offset.SchemaResolutionError{Class: class, Err: fmt.Errorf("field count %d: %w", count, errVectorTooLarge)}
	}

	fields := make(map[string]uint32, count)
	if count == 0 {
		return fields, nil
	}

	base, err := mem.ReadPOINTER(info + process.ProcessMemoryAddress(d.layout.ClassFields))
	if err == nil && base == 0 {
		err = process.ErrInvalidPointer
	}
	if err != nil {
		return nil, &offset.SchemaResolutionError{Class: class, Err: fmt.Errorf("field array: %w", err)}
	}

	for i := 0; i < int(count); i++ {
		field := base + process.ProcessMemoryAddress(uint64(i)*d.layout.FieldStride)

		name, err := readName(mem, field+process.ProcessMemoryAddress(d.layout.FieldName))
		if err != nil {
			return nil, &offset.SchemaResolutionError{Class: class, Field: fmt.Sprintf("#%d", i), Err: err}
		}

		off, err := mem.ReadUINT32(field + process.ProcessMemoryAddress(d.layout.FieldOffset))
		if err != nil {
			return nil, &offset.SchemaResolutionError{Class: class, Field: name, Err: err}
		}

		fields[name] = off
	}

	return fields, nil
}

// readVector reads a {int32 count; pad; T **data} vector of pointers
func readVector(mem session.MemoryAccessor, addr process.ProcessMemoryAddress, limit int) ([]process.ProcessMemoryAddress, error) {
	count, err := mem.ReadINT32(addr)
	if err != nil {
		return nil, err
	}
	if count < 0 || int(count) > limit {
		return nil, fmt.Errorf("count %d: %w", count, errVectorTooLarge)
	}
	if count == 0 {
		return nil, nil
	}

	data, err := mem.ReadPOINTER(addr + 8)
	if err != nil {
		return nil, err
	}
	if data == 0 {
		return nil, process.ErrInvalidPointer
	}
	return mem.ReadPointers(data, int(count))
}

func readName(mem session.MemoryAccessor, at process.ProcessMemoryAddress) (string, error) {
	ptr, err := mem.ReadPOINTER(at)
	if err != nil {
		return "", err
	}
	if ptr == 0 {
		return "", process.ErrInvalidPointer
	}
	name, err := mem.ReadNTS(ptr, NameLength)
	if err != nil {
		return "", err
	}
	if name == "" {
		return "", errors.New("empty name")
	}
	return name, nil
}
