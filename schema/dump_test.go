package schema

import (
	"encoding/binary"
	"testing"

	"cs2mem/offset"
	"cs2mem/process"
	"cs2mem/session"
	"cs2mem/session/sessiontest"
	"cs2mem/signature"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const heap = process.ProcessMemoryAddress(0x10000)

type field struct {
	name   string
	offset uint32
}

// fixture builds a schema system in a heap region next to the standard modules
type fixture struct {
	t       *testing.T
	target  *sessiontest.Target
	strings process.ProcessMemoryAddress
}

func (f *fixture) ptr(at, v process.ProcessMemoryAddress) {
	require.NoError(f.t, f.target.Memory.PutUINT64(at, uint64(v)))
}

func (f *fixture) str(s string) process.ProcessMemoryAddress {
	at := f.strings
	require.NoError(f.t, f.target.Memory.PutString(at, s))
	f.strings += process.ProcessMemoryAddress(len(s) + 1)
	return at
}

// vector writes {int32 count; pad; ptr data} at at, with data at arr
func (f *fixture) vector(at, arr process.ProcessMemoryAddress, items ...process.ProcessMemoryAddress) {
	require.NoError(f.t, f.target.Memory.PutUINT32(at, uint32(len(items))))
	f.ptr(at+8, arr)
	for i, it := range items {
		f.ptr(arr+process.ProcessMemoryAddress(i*8), it)
	}
}

func (f *fixture) class(at process.ProcessMemoryAddress, name string, fieldsAt process.ProcessMemoryAddress, fields ...field) {
	layout := DefaultLayout()
	f.ptr(at+process.ProcessMemoryAddress(layout.ClassName), f.str(name))
	require.NoError(f.t, f.target.Memory.PutUINT16(at+process.ProcessMemoryAddress(layout.ClassFieldCount), uint16(len(fields))))
	f.ptr(at+process.ProcessMemoryAddress(layout.ClassFields), fieldsAt)
	for i, fd := range fields {
		entry := fieldsAt + process.ProcessMemoryAddress(uint64(i)*layout.FieldStride)
		f.ptr(entry+process.ProcessMemoryAddress(layout.FieldName), f.str(fd.name))
		require.NoError(f.t, f.target.Memory.PutUINT32(entry+process.ProcessMemoryAddress(layout.FieldOffset), fd.offset))
	}
}

// newFixture lays out
//
//	scope "client.dll":    C_BaseEntity, <null>, CCSPlayerController
//	scope "!GlobalTypes":  C_BaseEntity (shadowed), C_PlantedC4
//
// and a lea in schemasystem.dll that points at the system.
func newFixture(t *testing.T) *fixture {
	target := sessiontest.NewTarget(t)
	_, err := target.Memory.Map(heap, 0x4000)
	require.NoError(t, err)

	f := &fixture{t: t, target: target, strings: heap + 0x3000}
	layout := DefaultLayout()

	system := heap
	scope0 := heap + 0x800
	scope1 := heap + 0x1000

	f.vector(system+process.ProcessMemoryAddress(layout.ScopeVector), heap+0x400, scope0, scope1)

	require.NoError(t, target.Memory.PutString(scope0+process.ProcessMemoryAddress(layout.ScopeName), "client.dll"))
	f.vector(scope0+process.ProcessMemoryAddress(layout.ScopeClasses), heap+0x2000, heap+0x2100, 0, heap+0x2200)
	f.class(heap+0x2100, "C_BaseEntity", heap+0x2400, field{"m_iHealth", 0x344}, field{"m_iTeamNum", 0x3E3})
	f.class(heap+0x2200, "CCSPlayerController", heap+0x2500, field{"m_hPlayerPawn", 0x824}, field{"m_iszPlayerName", 0x660})

	require.NoError(t, target.Memory.PutString(scope1+process.ProcessMemoryAddress(layout.ScopeName), "!GlobalTypes"))
	f.vector(scope1+process.ProcessMemoryAddress(layout.ScopeClasses), heap+0x2800, heap+0x2900, heap+0x2A00)
	f.class(heap+0x2900, "C_BaseEntity", heap+0x2C00, field{"m_iHealth", 0x999})
	f.class(heap+0x2A00, "C_PlantedC4", heap+0x2D00)

	// schemasystem.dll+0x100: lea rcx, [rip+disp] -> system
	lea := []byte{0x48, 0x8D, 0x0D, 0, 0, 0, 0, 0xC3}
	binary.LittleEndian.PutUint32(lea[3:], uint32(system-0x3107))
	require.NoError(t, target.Memory.WriteAt(0x3100, lea))

	return f
}

func testLayout() Layout {
	layout := DefaultLayout()
	layout.System = signature.Definition{
		Name:    "SchemaSystem",
		Module:  session.ModuleSchemaSystem,
		Pattern: "48 8D 0D ?? ?? ?? ?? C3",
		Resolve: signature.ResolveRIP,
	}
	return layout
}

func TestDumpSchemas(t *testing.T) {
	f := newFixture(t)
	s := sessiontest.Attach(t, f.target)
	defer s.Close()

	got, err := NewDumper(testLayout()).DumpSchemas(s, []string{"C_BaseEntity", "CCSPlayerController", "C_PlantedC4"})
	require.NoError(t, err)

	assert.Equal(t, map[string]map[string]uint32{
		"C_BaseEntity":        {"m_iHealth": 0x344, "m_iTeamNum": 0x3E3},
		"CCSPlayerController": {"m_hPlayerPawn": 0x824, "m_iszPlayerName": 0x660},
		"C_PlantedC4":         {},
	}, got)
}

func TestDumpSchemasMissingClass(t *testing.T) {
	f := newFixture(t)
	s := sessiontest.Attach(t, f.target)
	defer s.Close()

	_, err := NewDumper(testLayout()).DumpSchemas(s, []string{"C_BaseEntity", "C_Nope"})
	var schemaErr *offset.SchemaResolutionError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, "C_Nope", schemaErr.Class)
	assert.ErrorIs(t, err, offset.ErrNotFound)
}

func TestDumpSchemasEmptyClassSet(t *testing.T) {
	// nothing is laid out; an empty request must not touch memory
	s := sessiontest.Attach(t, sessiontest.NewTarget(t))
	defer s.Close()

	got, err := NewDumper(testLayout()).DumpSchemas(s, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDumpSchemasUnreadableField(t *testing.T) {
	f := newFixture(t)
	// second field name of CCSPlayerController points nowhere
	f.ptr(heap+0x2500+0x20, 0xdead0000)

	s := sessiontest.Attach(t, f.target)
	defer s.Close()

	_, err := NewDumper(testLayout()).DumpSchemas(s, []string{"CCSPlayerController"})
	var schemaErr *offset.SchemaResolutionError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, "CCSPlayerController", schemaErr.Class)
	assert.Equal(t, "#1", schemaErr.Field)
}

func TestDumpSchemasSystemNotFound(t *testing.T) {
	s := sessiontest.Attach(t, sessiontest.NewTarget(t))
	defer s.Close()

	_, err := NewDumper(testLayout()).DumpSchemas(s, []string{"C_BaseEntity"})
	var schemaErr *offset.SchemaResolutionError
	require.ErrorAs(t, err, &schemaErr)
	var sigErr *offset.SignatureResolutionError
	assert.ErrorAs(t, err, &sigErr)
}

func TestDumpSchemasDeref(t *testing.T) {
	f := newFixture(t)
	// schemasystem.dll+0x200: lea rcx, [rip+disp] -> slot at 0x3800 holding the system pointer
	lea := []byte{0x48, 0x8D, 0x0D, 0, 0, 0, 0, 0xCC}
	binary.LittleEndian.PutUint32(lea[3:], uint32(0x3800-0x3207))
	require.NoError(t, f.target.Memory.WriteAt(0x3200, lea))
	f.ptr(0x3800, heap)

	s := sessiontest.Attach(t, f.target)
	defer s.Close()

	layout := testLayout()
	layout.System.Pattern = "48 8D 0D ?? ?? ?? ?? CC"
	layout.Deref = true

	got, err := NewDumper(layout).DumpSchemas(s, []string{"C_PlantedC4"})
	require.NoError(t, err)
	assert.Contains(t, got, "C_PlantedC4")
}
