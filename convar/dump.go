package convar

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"cs2mem/offset"
	"cs2mem/process"
	"cs2mem/session"
	"cs2mem/signature"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
)

const (
	nameLength   = 256
	stringLength = 512
)

// Dumper implements offset.ConvarSource
type Dumper struct {
	cfg Config
	log *logger.Logger
}

var _ offset.ConvarSource = (*Dumper)(nil)

func NewDumper(cfg Config) *Dumper {
	return &Dumper{
		cfg: cfg,
		log: logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, "convar")),
	}
}

// DumpConvars decodes every entry of the list. Entries that fail to decode
// and required names that never show up are returned together in one
// *offset.ConvarResolutionError; nothing is dropped silently.
func (d *Dumper) DumpConvars(sess *session.Session) (map[string]offset.ConvarDescriptor, error) {
	mem := sess.Memory()
	layout := d.cfg.Layout

	list, err := signature.Find(sess, d.cfg.List)
	if err != nil {
		return nil, &offset.ConvarResolutionError{Names: d.cfg.Required, Err: fmt.Errorf("locate cvar list: %w", err)}
	}

	count, err := process.ReadPath[uint32](mem, list, d.listPath(layout.ListCount)...)
	if err != nil {
		return nil, &offset.ConvarResolutionError{Names: d.cfg.Required, Err: fmt.Errorf("entry count: %w", err)}
	}
	if int(count) > layout.MaxEntries {
		return nil, &offset.ConvarResolutionError{Names: d.cfg.Required, Err: fmt.Errorf("entry count %d out of range", count)}
	}

	entries, err := process.ReadPath[process.ProcessMemoryAddress](mem, list, d.listPath(layout.ListEntries)...)
	if err == nil && entries == 0 && count > 0 {
		err = process.ErrInvalidPointer
	}
	if err != nil {
		return nil, &offset.ConvarResolutionError{Names: d.cfg.Required, Err: fmt.Errorf("entry array: %w", err)}
	}

	result := make(map[string]offset.ConvarDescriptor, count)
	var failed []string
	var firstErr error

	for i := uint32(0); i < count; i++ {
		entry := entries + process.ProcessMemoryAddress(uint64(i)*layout.EntryStride)

		cv, err := mem.ReadPOINTER(entry)
		if err != nil {
			failed = append(failed, fmt.Sprintf("#%d", i))
			firstErr = cmpErr(firstErr, err)
			continue
		}
		if cv == 0 {
			// free list slot
			continue
		}

		desc, err := d.decode(mem, cv)
		if err != nil {
			name := desc.Name
			if name == "" {
				name = fmt.Sprintf("#%d", i)
			}
			failed = append(failed, name)
			firstErr = cmpErr(firstErr, err)
			continue
		}
		if _, dup := result[desc.Name]; dup {
			continue
		}
		result[desc.Name] = desc
	}

	for _, name := range d.cfg.Required {
		if _, ok := result[name]; !ok && !contains(failed, name) {
			failed = append(failed, name)
			firstErr = cmpErr(firstErr, offset.ErrNotFound)
		}
	}

	if len(failed) > 0 {
		sort.Strings(failed)
		return nil, &offset.ConvarResolutionError{Names: failed, Err: firstErr}
	}

	d.log.Debugln("Decoded", len(result), "convars")
	return result, nil
}

// listPath is the pointer path from the signature result to a list header
// field, through the global slot when Deref is set.
func (d *Dumper) listPath(field uint64) []process.ProcessMemorySize {
	if d.cfg.Deref {
		return []process.ProcessMemorySize{0, process.ProcessMemorySize(field)}
	}
	return []process.ProcessMemorySize{process.ProcessMemorySize(field)}
}

// decode reads one convar. The returned descriptor carries the name even
// when a later field fails, so the error can name it.
func (d *Dumper) decode(mem session.MemoryAccessor, cv process.ProcessMemoryAddress) (offset.ConvarDescriptor, error) {
	layout := d.cfg.Layout
	desc := offset.ConvarDescriptor{Address: uint64(cv)}

	namePtr, err := mem.ReadPOINTER(cv + process.ProcessMemoryAddress(layout.Name))
	if err != nil {
		return desc, err
	}
	if namePtr == 0 {
		return desc, process.ErrInvalidPointer
	}
	desc.Name, err = mem.ReadNTS(namePtr, nameLength)
	if err != nil {
		return desc, err
	}
	if desc.Name == "" {
		return desc, errors.New("empty convar name")
	}

	typ, err := mem.ReadINT16(cv + process.ProcessMemoryAddress(layout.Type))
	if err != nil {
		return desc, err
	}
	desc.Type = offset.ConvarType(typ)
	if !desc.Type.Valid() {
		return desc, fmt.Errorf("convar %s: unknown type %d", desc.Name, typ)
	}

	desc.Flags, err = mem.ReadUINT64(cv + process.ProcessMemoryAddress(layout.Flags))
	if err != nil {
		return desc, err
	}

	valuePtr, err := mem.ReadPOINTER(cv + process.ProcessMemoryAddress(layout.Default))
	if err != nil {
		return desc, err
	}
	if valuePtr != 0 {
		desc.Default, err = FormatValue(mem, desc.Type, valuePtr)
		if err != nil {
			return desc, fmt.Errorf("convar %s default: %w", desc.Name, err)
		}
	}

	return desc, nil
}

// FormatValue renders the value stored at addr as text
func FormatValue(mem process.ProcessRead, typ offset.ConvarType, addr process.ProcessMemoryAddress) (string, error) {
	switch typ {
	case offset.ConvarBool:
		v, err := mem.ReadUINT8(addr)
		return strconv.FormatBool(v != 0), err
	case offset.ConvarInt16:
		v, err := mem.ReadINT16(addr)
		return strconv.FormatInt(int64(v), 10), err
	case offset.ConvarUint16:
		v, err := mem.ReadUINT16(addr)
		return strconv.FormatUint(uint64(v), 10), err
	case offset.ConvarInt32:
		v, err := mem.ReadINT32(addr)
		return strconv.FormatInt(int64(v), 10), err
	case offset.ConvarUint32:
		v, err := mem.ReadUINT32(addr)
		return strconv.FormatUint(uint64(v), 10), err
	case offset.ConvarInt64:
		v, err := mem.ReadINT64(addr)
		return strconv.FormatInt(v, 10), err
	case offset.ConvarUint64:
		v, err := mem.ReadUINT64(addr)
		return strconv.FormatUint(v, 10), err
	case offset.ConvarFloat32:
		v, err := mem.ReadFLOAT32(addr)
		return strconv.FormatFloat(float64(v), 'g', -1, 32), err
	case offset.ConvarFloat64:
		v, err := mem.ReadFLOAT64(addr)
		return strconv.FormatFloat(v, 'g', -1, 64), err
	case offset.ConvarString:
		ptr, err := mem.ReadPOINTER(addr)
		if err != nil || ptr == 0 {
			return "", err
		}
		return mem.ReadNTS(ptr, stringLength)
	case offset.ConvarColor:
		parts := make([]string, 4)
		for i := range parts {
			v, err := mem.ReadUINT8(addr + process.ProcessMemoryAddress(i))
			if err != nil {
				return "", err
			}
			parts[i] = strconv.Itoa(int(v))
		}
		return strings.Join(parts, " "), nil
	case offset.ConvarVector2:
		return formatFloats(mem, addr, 2)
	case offset.ConvarVector3, offset.ConvarQAngle:
		return formatFloats(mem, addr, 3)
	case offset.ConvarVector4:
		return formatFloats(mem, addr, 4)
	}
	return "", fmt.Errorf("unknown type %d", int16(typ))
}

func formatFloats(mem process.ProcessRead, addr process.ProcessMemoryAddress, n int) (string, error) {
	parts := make([]string, n)
	for i := range parts {
		v, err := mem.ReadFLOAT32(addr + process.ProcessMemoryAddress(i*4))
		if err != nil {
			return "", err
		}
		parts[i] = strconv.FormatFloat(float64(v), 'g', -1, 32)
	}
	return strings.Join(parts, " "), nil
}

func cmpErr(first, err error) error {
	if first != nil {
		return first
	}
	return err
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
