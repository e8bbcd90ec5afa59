package convar

import (
	"encoding/binary"
	"math"
	"testing"

	"cs2mem/offset"
	"cs2mem/process"
	"cs2mem/process_blob"
	"cs2mem/session"
	"cs2mem/session/sessiontest"
	"cs2mem/signature"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const heap = process.ProcessMemoryAddress(0x10000)

type cvar struct {
	name  string
	typ   offset.ConvarType
	flags uint64
	value []byte // nil leaves the default pointer null
	str   string // string convars: value becomes a pointer to str
}

func f32(vs ...float32) []byte {
	var out []byte
	for _, v := range vs {
		out = binary.LittleEndian.AppendUint32(out, math.Float32bits(v))
	}
	return out
}

type fixture struct {
	t      *testing.T
	target *sessiontest.Target
	next   process.ProcessMemoryAddress
}

func (f *fixture) alloc(data []byte) process.ProcessMemoryAddress {
	at := f.next
	require.NoError(f.t, f.target.Memory.WriteAt(at, data))
	f.next += process.ProcessMemoryAddress((len(data) + 15) &^ 15)
	return at
}

func (f *fixture) ptr(at, v process.ProcessMemoryAddress) {
	require.NoError(f.t, f.target.Memory.PutUINT64(at, uint64(v)))
}

// newFixture builds a cvar list at heap; a nil entry in vars is a free slot.
// tier0.dll+0x100 holds a lea that points at the list.
func newFixture(t *testing.T, vars ...*cvar) *fixture {
	target := sessiontest.NewTarget(t)
	_, err := target.Memory.Map(heap, 0x8000)
	require.NoError(t, err)

	f := &fixture{t: t, target: target, next: heap + 0x4000}
	layout := DefaultLayout()

	entries := heap + 0x200
	require.NoError(t, target.Memory.PutUINT32(heap+process.ProcessMemoryAddress(layout.ListCount), uint32(len(vars))))
	f.ptr(heap+process.ProcessMemoryAddress(layout.ListEntries), entries)

	for i, v := range vars {
		if v == nil {
			continue
		}
		cv := heap + 0x1000 + process.ProcessMemoryAddress(i*0x100)
		f.ptr(entries+process.ProcessMemoryAddress(uint64(i)*layout.EntryStride), cv)
		f.ptr(cv+process.ProcessMemoryAddress(layout.Name), f.alloc(append([]byte(v.name), 0)))
		require.NoError(t, target.Memory.PutUINT16(cv+process.ProcessMemoryAddress(layout.Type), uint16(v.typ)))
		require.NoError(t, target.Memory.PutUINT64(cv+process.ProcessMemoryAddress(layout.Flags), v.flags))
		if v.str != "" {
			v.value = binary.LittleEndian.AppendUint64(nil, uint64(f.alloc(append([]byte(v.str), 0))))
		}
		if v.value != nil {
			f.ptr(cv+process.ProcessMemoryAddress(layout.Default), f.alloc(v.value))
		}
	}

	lea := []byte{0x48, 0x8D, 0x0D, 0, 0, 0, 0, 0xC3}
	binary.LittleEndian.PutUint32(lea[3:], uint32(heap-0x4107))
	require.NoError(t, target.Memory.WriteAt(0x4100, lea))

	return f
}

func testConfig(required ...string) Config {
	layout := DefaultLayout()
	layout.List = signature.Definition{
		Name:    "CCvar",
		Module:  session.ModuleTier0,
		Pattern: "48 8D 0D ?? ?? ?? ?? C3",
		Resolve: signature.ResolveRIP,
	}
	return Config{Layout: layout, Required: required}
}

func TestDumpConvars(t *testing.T) {
	f := newFixture(t,
		&cvar{name: "sv_cheats", typ: offset.ConvarBool, flags: 0x4000, value: []byte{0}},
		nil,
		&cvar{name: "sv_gravity", typ: offset.ConvarFloat32, value: f32(800)},
		&cvar{name: "mp_teammates_are_enemies", typ: offset.ConvarBool, value: []byte{1}},
		&cvar{name: "sv_skyname", typ: offset.ConvarString, str: "sky_cs15_daylight01_hdr"},
		&cvar{name: "cl_color", typ: offset.ConvarColor, value: []byte{255, 0, 0, 255}},
		&cvar{name: "cam_offset", typ: offset.ConvarVector3, value: f32(1.5, 2, -3)},
		&cvar{name: "sv_maxrate", typ: offset.ConvarInt32, value: binary.LittleEndian.AppendUint32(nil, 786432)},
		&cvar{name: "sv_nodefault", typ: offset.ConvarInt32},
	)

	s := sessiontest.Attach(t, f.target)
	defer s.Close()

	got, err := NewDumper(testConfig("sv_gravity", "mp_teammates_are_enemies")).DumpConvars(s)
	require.NoError(t, err)
	require.Len(t, got, 8)

	assert.Equal(t, "false", got["sv_cheats"].Default)
	assert.Equal(t, uint64(0x4000), got["sv_cheats"].Flags)
	assert.Equal(t, offset.ConvarBool, got["sv_cheats"].Type)
	assert.Equal(t, uint64(heap+0x1000), got["sv_cheats"].Address)
	assert.Equal(t, "800", got["sv_gravity"].Default)
	assert.Equal(t, "true", got["mp_teammates_are_enemies"].Default)
	assert.Equal(t, "sky_cs15_daylight01_hdr", got["sv_skyname"].Default)
	assert.Equal(t, "255 0 0 255", got["cl_color"].Default)
	assert.Equal(t, "1.5 2 -3", got["cam_offset"].Default)
	assert.Equal(t, "786432", got["sv_maxrate"].Default)
	assert.Equal(t, "", got["sv_nodefault"].Default)
	assert.Equal(t, "sv_nodefault", got["sv_nodefault"].Name)
}

func TestDumpConvarsReportsFailures(t *testing.T) {
	f := newFixture(t,
		&cvar{name: "sv_gravity", typ: offset.ConvarFloat32, value: f32(800)},
		&cvar{name: "sv_broken", typ: offset.ConvarType(99), value: []byte{0}},
	)
	s := sessiontest.Attach(t, f.target)
	defer s.Close()

	_, err := NewDumper(testConfig("sv_gravity", "sv_cheats")).DumpConvars(s)
	var cvErr *offset.ConvarResolutionError
	require.ErrorAs(t, err, &cvErr)
	assert.Equal(t, []string{"sv_broken", "sv_cheats"}, cvErr.Names)
}

func TestDumpConvarsUnreadableEntry(t *testing.T) {
	f := newFixture(t, &cvar{name: "sv_gravity", typ: offset.ConvarFloat32, value: f32(800)}, nil)
	// second slot points outside every mapping
	f.ptr(heap+0x200+0x10, 0xdead0000)

	s := sessiontest.Attach(t, f.target)
	defer s.Close()

	_, err := NewDumper(testConfig()).DumpConvars(s)
	var cvErr *offset.ConvarResolutionError
	require.ErrorAs(t, err, &cvErr)
	assert.Equal(t, []string{"#1"}, cvErr.Names)
	assert.ErrorIs(t, err, process.ErrAddressNotMapped)
}

func TestDumpConvarsListNotFound(t *testing.T) {
	s := sessiontest.Attach(t, sessiontest.NewTarget(t))
	defer s.Close()

	_, err := NewDumper(testConfig("sv_cheats")).DumpConvars(s)
	var cvErr *offset.ConvarResolutionError
	require.ErrorAs(t, err, &cvErr)
	assert.Equal(t, []string{"sv_cheats"}, cvErr.Names)
	var sigErr *offset.SignatureResolutionError
	assert.ErrorAs(t, err, &sigErr)
}

// derefConfig points the list signature at tier0.dll+0x200, a lea that
// loads the address of the global slot at tier0.dll+0x800.
func derefConfig(f *fixture, slot process.ProcessMemoryAddress) Config {
	lea := []byte{0x48, 0x8D, 0x0D, 0, 0, 0, 0, 0xCC}
	binary.LittleEndian.PutUint32(lea[3:], uint32(0x4800-0x4207))
	require.NoError(f.t, f.target.Memory.WriteAt(0x4200, lea))
	f.ptr(0x4800, slot)

	cfg := testConfig("sv_gravity")
	cfg.List.Pattern = "48 8D 0D ?? ?? ?? ?? CC"
	cfg.Deref = true
	return cfg
}

func TestDumpConvarsDeref(t *testing.T) {
	f := newFixture(t, &cvar{name: "sv_gravity", typ: offset.ConvarFloat32, value: f32(800)})
	cfg := derefConfig(f, heap)

	s := sessiontest.Attach(t, f.target)
	defer s.Close()

	got, err := NewDumper(cfg).DumpConvars(s)
	require.NoError(t, err)
	assert.Equal(t, "800", got["sv_gravity"].Default)
}

func TestDumpConvarsDerefNullSlot(t *testing.T) {
	f := newFixture(t, &cvar{name: "sv_gravity", typ: offset.ConvarFloat32, value: f32(800)})
	cfg := derefConfig(f, 0)

	s := sessiontest.Attach(t, f.target)
	defer s.Close()

	_, err := NewDumper(cfg).DumpConvars(s)
	var cvErr *offset.ConvarResolutionError
	require.ErrorAs(t, err, &cvErr)
	assert.Equal(t, []string{"sv_gravity"}, cvErr.Names)
	assert.ErrorIs(t, err, process.ErrInvalidPointer)
}

func TestFormatValue(t *testing.T) {
	img := process_blob.NewImage()
	_, err := img.Map(0x1000, 0x1000)
	require.NoError(t, err)

	tests := []struct {
		typ  offset.ConvarType
		data []byte
		want string
	}{
		{offset.ConvarInt16, binary.LittleEndian.AppendUint16(nil, 0xFFFF), "-1"},
		{offset.ConvarUint16, binary.LittleEndian.AppendUint16(nil, 0xFFFF), "65535"},
		{offset.ConvarUint32, binary.LittleEndian.AppendUint32(nil, 7), "7"},
		{offset.ConvarInt64, binary.LittleEndian.AppendUint64(nil, ^uint64(0)), "-1"},
		{offset.ConvarUint64, binary.LittleEndian.AppendUint64(nil, 1<<40), "1099511627776"},
		{offset.ConvarFloat64, binary.LittleEndian.AppendUint64(nil, math.Float64bits(0.125)), "0.125"},
		{offset.ConvarVector2, f32(1, 2), "1 2"},
		{offset.ConvarVector4, f32(1, 2, 3, 4), "1 2 3 4"},
		{offset.ConvarQAngle, f32(0, 90, 0), "0 90 0"},
	}

	for _, tt := range tests {
		t.Run(tt.typ.String(), func(t *testing.T) {
			require.NoError(t, img.WriteAt(0x1100, tt.data))
			got, err := FormatValue(img, tt.typ, 0x1100)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err = FormatValue(img, offset.ConvarType(42), 0x1100)
	assert.Error(t, err)

	_, err = FormatValue(img, offset.ConvarFloat32, 0x9000)
	assert.ErrorIs(t, err, process.ErrAddressNotMapped)
}
