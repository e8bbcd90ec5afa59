// Package memprocfs drives an introspection device through a mounted
// MemProcFS file system. MemProcFS is started separately with the argv from
// vmm.Config and mounted at MountPoint; this driver only reads the mount.
//
// Layout used:
//
//	<mount>/name/<exe>-<pid>/                 one directory per process
//	<mount>/pid/<pid>/modules/<name>/base.txt module base, hex
//	<mount>/pid/<pid>/modules/<name>/size.txt module size, hex
//	<mount>/pid/<pid>/memory.vmem             virtual memory, file offset = address
package memprocfs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"cs2mem/process"
	"cs2mem/vmm"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
)

// Driver opens the MemProcFS mount at MountPoint
type Driver struct {
	MountPoint string
}

var _ vmm.Driver = Driver{}

func New(mountPoint string) Driver {
	return Driver{MountPoint: mountPoint}
}

func (d Driver) Name() string {
	return "memprocfs"
}

// Open checks that the mount is live. A mount without the name directory
// means MemProcFS is not running or failed to find the device.
func (d Driver) Open(cfg vmm.Config) (vmm.Device, error) {
	if d.MountPoint == "" {
		return nil, fmt.Errorf("memprocfs: no mount point configured: %w", vmm.ErrDeviceUnavailable)
	}

	info, err := os.Stat(filepath.Join(d.MountPoint, "name"))
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("memprocfs: %s is not a MemProcFS mount: %w", d.MountPoint, vmm.ErrDeviceUnavailable)
	}

	log := logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, "memprocfs"))
	log.Infoln("Device mounted at", d.MountPoint, "expected argv:", cfg.String())

	return &Device{root: d.MountPoint, cfg: cfg, log: log}, nil
}

// Device is an open MemProcFS mount
type Device struct {
	root string
	cfg  vmm.Config
	log  *logger.Logger

	mu    sync.Mutex
	procs []*Process
}

// FindProcess returns the lowest PID listed as <name>-<pid>
func (d *Device) FindProcess(name string) (vmm.Process, error) {
	entries, err := os.ReadDir(filepath.Join(d.root, "name"))
	if err != nil {
		return nil, fmt.Errorf("memprocfs: list processes: %w", err)
	}

	pid := -1
	for _, e := range entries {
		exe, pidText, ok := cutLast(e.Name(), "-")
		if !ok || exe != name {
			continue
		}
		n, err := strconv.Atoi(pidText)
		if err != nil || n <= 0 {
			continue
		}
		if pid == -1 || n < pid {
			pid = n
		}
	}

	if pid == -1 {
		return nil, fmt.Errorf("memprocfs: %q: %w", name, vmm.ErrProcessNotFound)
	}

	p := &Process{
		dir:  filepath.Join(d.root, "pid", strconv.Itoa(pid)),
		name: name,
		pid:  process.ProcessID(pid),
	}

	d.mu.Lock()
	d.procs = append(d.procs, p)
	d.mu.Unlock()

	d.log.Debugln("Found", name, "pid", pid)
	return p, nil
}

// Close closes every memory file handed out by this device
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var errs []error
	for _, p := range d.procs {
		errs = append(errs, p.close())
	}
	d.procs = nil
	return errors.Join(errs...)
}

// Process is a process directory under the mount
type Process struct {
	dir  string
	name string
	pid  process.ProcessID

	// mu guards the lazily opened memory file. Reads hold it shared so
	// close waits for them.
	mu      sync.RWMutex
	mem     *os.File
	openErr error
	closed  bool
}

var _ vmm.Process = (*Process)(nil)

func (p *Process) PID() process.ProcessID {
	return p.pid
}

// IsAlive reports whether MemProcFS still lists the process
func (p *Process) IsAlive() bool {
	_, err := os.Stat(p.dir)
	return err == nil
}

// ModuleList reads base.txt and size.txt of every module directory
func (p *Process) ModuleList() ([]process.ModuleRecord, error) {
	entries, err := os.ReadDir(filepath.Join(p.dir, "modules"))
	if err != nil {
		return nil, fmt.Errorf("memprocfs: list modules of %d: %w", p.pid, err)
	}

	var modules []process.ModuleRecord
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(p.dir, "modules", e.Name())

		base, err := readHex(filepath.Join(dir, "base.txt"))
		if err != nil {
			return nil, fmt.Errorf("memprocfs: module %s: %w", e.Name(), err)
		}
		size, err := readHex(filepath.Join(dir, "size.txt"))
		if err != nil {
			return nil, fmt.Errorf("memprocfs: module %s: %w", e.Name(), err)
		}

		modules = append(modules, process.ModuleRecord{
			Name: e.Name(),
			Base: process.ProcessMemoryAddress(base),
			Size: process.ProcessMemorySize(size),
		})
	}

	return modules, nil
}

// ReadMemory preads memory.vmem at addr. MemProcFS fails reads of pages it
// cannot translate, which surface as ErrAddressNotMapped.
func (p *Process) ReadMemory(addr process.ProcessMemoryAddress, size process.ProcessMemorySize) ([]byte, error) {
	p.mu.RLock()
	if p.mem == nil && !p.closed {
		p.mu.RUnlock()
		if err := p.open(); err != nil {
			return nil, err
		}
		p.mu.RLock()
	}
	defer p.mu.RUnlock()

	if p.closed {
		return nil, fmt.Errorf("memprocfs: device closed: %w", process.ErrProcessNotOpen)
	}

	buf := make([]byte, size)
	n, err := p.mem.ReadAt(buf, int64(addr))
	if n == int(size) {
		return buf, nil
	}
	if err != nil && n == 0 {
		return nil, fmt.Errorf("memprocfs: read 0x%x+%d: %v: %w", uint64(addr), size, err, process.ErrAddressNotMapped)
	}
	return nil, fmt.Errorf("memprocfs: read 0x%x: %d of %d bytes: %w", uint64(addr), n, size, process.ErrPartialRead)
}

// open opens memory.vmem once. A failed open is remembered.
func (p *Process) open() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return fmt.Errorf("memprocfs: device closed: %w", process.ErrProcessNotOpen)
	}
	if p.mem == nil && p.openErr == nil {
		p.mem, p.openErr = os.Open(filepath.Join(p.dir, "memory.vmem"))
	}
	if p.openErr != nil {
		if errors.Is(p.openErr, fs.ErrNotExist) {
			return fmt.Errorf("memprocfs: process %d gone: %w", p.pid, process.ErrProcessNotOpen)
		}
		return fmt.Errorf("memprocfs: open memory of %d: %w", p.pid, p.openErr)
	}
	return nil
}

func (p *Process) close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.closed = true
	if p.mem == nil {
		return nil
	}
	err := p.mem.Close()
	p.mem = nil
	return err
}

func readHex(path string) (uint64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	text := strings.TrimSpace(string(data))
	text = strings.TrimPrefix(strings.TrimPrefix(text, "0x"), "0X")
	return strconv.ParseUint(text, 16, 64)
}

func cutLast(s, sep string) (before, after string, found bool) {
	if i := strings.LastIndex(s, sep); i >= 0 {
		return s[:i], s[i+len(sep):], true
	}
	return s, "", false
}
