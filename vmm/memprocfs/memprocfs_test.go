package memprocfs

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"cs2mem/process"
	"cs2mem/session"
	"cs2mem/vmm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newMount lays out a MemProcFS tree with cs2.exe at pid 4242 and returns its root
func newMount(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	mkdir := func(parts ...string) {
		require.NoError(t, os.MkdirAll(filepath.Join(append([]string{root}, parts...)...), 0755))
	}
	write := func(data []byte, parts ...string) {
		require.NoError(t, os.WriteFile(filepath.Join(append([]string{root}, parts...)...), data, 0644))
	}

	mkdir("name", "cs2.exe-5000")
	mkdir("name", "cs2.exe-4242")
	mkdir("name", "explorer.exe-10")
	mkdir("name", "cs2.exe-bogus")

	modules := map[string][2]string{
		"client.dll":       {"0x1000", "1000"},
		"engine2.dll":      {"2000", "0x1000"},
		"schemasystem.dll": {"0x3000\n", "0x1000\n"},
		"tier0.dll":        {"0x4000", "0x1000"},
		"kernel32.dll":     {"0x7ff000000000", "0x10000"},
	}
	for name, v := range modules {
		mkdir("pid", "4242", "modules", name)
		write([]byte(v[0]), "pid", "4242", "modules", name, "base.txt")
		write([]byte(v[1]), "pid", "4242", "modules", name, "size.txt")
	}

	mem := make([]byte, 0x5000)
	binary.LittleEndian.PutUint64(mem[0x1100:], 0xCAFEBABE)
	write(mem, "pid", "4242", "memory.vmem")

	return root
}

func TestOpenRequiresMount(t *testing.T) {
	_, err := New(t.TempDir()).Open(vmm.DefaultConfig())
	assert.ErrorIs(t, err, vmm.ErrDeviceUnavailable)

	_, err = New("").Open(vmm.DefaultConfig())
	assert.ErrorIs(t, err, vmm.ErrDeviceUnavailable)
}

func TestFindProcessLowestPID(t *testing.T) {
	dev, err := New(newMount(t)).Open(vmm.DefaultConfig())
	require.NoError(t, err)
	defer dev.Close()

	p, err := dev.FindProcess("cs2.exe")
	require.NoError(t, err)
	assert.Equal(t, process.ProcessID(4242), p.PID())
	assert.True(t, p.IsAlive())

	_, err = dev.FindProcess("cs2")
	assert.ErrorIs(t, err, vmm.ErrProcessNotFound)
}

func TestModuleList(t *testing.T) {
	dev, err := New(newMount(t)).Open(vmm.DefaultConfig())
	require.NoError(t, err)
	defer dev.Close()

	p, err := dev.FindProcess("cs2.exe")
	require.NoError(t, err)

	mods, err := p.ModuleList()
	require.NoError(t, err)
	require.Len(t, mods, 5)

	byName := map[string]process.ModuleRecord{}
	for _, m := range mods {
		byName[m.Name] = m
	}
	assert.Equal(t, process.ProcessMemoryAddress(0x2000), byName["engine2.dll"].Base)
	assert.Equal(t, process.ProcessMemorySize(0x1000), byName["schemasystem.dll"].Size)
	assert.Equal(t, process.ProcessMemoryAddress(0x7ff000000000), byName["kernel32.dll"].Base)
}

func TestReadMemory(t *testing.T) {
	dev, err := New(newMount(t)).Open(vmm.DefaultConfig())
	require.NoError(t, err)

	p, err := dev.FindProcess("cs2.exe")
	require.NoError(t, err)

	data, err := p.ReadMemory(0x1100, 8)
	require.NoError(t, err)
	assert.Equal(t, uint64(0xCAFEBABE), binary.LittleEndian.Uint64(data))

	_, err = p.ReadMemory(0x9000, 8)
	assert.ErrorIs(t, err, process.ErrAddressNotMapped)

	_, err = p.ReadMemory(0x4ffc, 8)
	assert.ErrorIs(t, err, process.ErrPartialRead)

	require.NoError(t, dev.Close())
	_, err = p.ReadMemory(0x1100, 8)
	assert.ErrorIs(t, err, process.ErrProcessNotOpen)
}

func TestCloseBeforeFirstRead(t *testing.T) {
	dev, err := New(newMount(t)).Open(vmm.DefaultConfig())
	require.NoError(t, err)

	p, err := dev.FindProcess("cs2.exe")
	require.NoError(t, err)
	require.NoError(t, dev.Close())

	_, err = p.ReadMemory(0x1100, 8)
	assert.ErrorIs(t, err, process.ErrProcessNotOpen)
	assert.Nil(t, p.(*Process).mem)
}

func TestReadsRacingClose(t *testing.T) {
	dev, err := New(newMount(t)).Open(vmm.DefaultConfig())
	require.NoError(t, err)

	p, err := dev.FindProcess("cs2.exe")
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 8*100)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				data, err := p.ReadMemory(0x1100, 8)
				if err != nil {
					errs <- err
					continue
				}
				if binary.LittleEndian.Uint64(data) != 0xCAFEBABE {
					errs <- assert.AnError
				}
			}
		}()
	}
	require.NoError(t, dev.Close())
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.ErrorIs(t, err, process.ErrProcessNotOpen)
	}
	assert.Nil(t, p.(*Process).mem)
}

func TestAttachThroughMount(t *testing.T) {
	f := session.NewFactory(session.WithIntrospectionDriver(New(newMount(t))))

	s, err := f.AttachViaIntrospection()
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, session.BackendIntrospection, s.Backend())
	assert.Equal(t, process.ProcessID(4242), s.PID())
	assert.Equal(t, process.ProcessMemoryAddress(0x4000), s.Modules().Tier0.Base)

	v, err := s.Memory().ReadUINT64(0x1100)
	require.NoError(t, err)
	assert.Equal(t, uint64(0xCAFEBABE), v)
}

func TestAttachThroughMountMissingModule(t *testing.T) {
	root := newMount(t)
	require.NoError(t, os.RemoveAll(filepath.Join(root, "pid", "4242", "modules", "engine2.dll")))

	_, err := session.NewFactory(session.WithIntrospectionDriver(New(root))).AttachViaIntrospection()
	var modErr *session.ProcessModuleNotFoundError
	require.ErrorAs(t, err, &modErr)
	assert.Equal(t, []string{"engine2.dll"}, modErr.Missing)
}
