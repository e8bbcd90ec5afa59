// Package sessiontest provides in-memory backends for tests. Both fakes are
// backed by a process_blob.Image, so sessions built from them read whatever
// the test wrote into the image.
package sessiontest

import (
	"errors"
	"sync"
	"testing"

	"cs2mem/process"
	"cs2mem/process_blob"
	"cs2mem/session"
	"cs2mem/vmm"
)

// Target describes a simulated process
type Target struct {
	Name    string
	PID     process.ProcessID
	Modules []process.ModuleRecord
	Memory  *process_blob.Image

	// ModulesErr makes module enumeration fail
	ModulesErr error
}

// StandardModules are the four required modules at 0x1000 steps
func StandardModules() []process.ModuleRecord {
	return []process.ModuleRecord{
		{Name: session.ModuleClient, Base: 0x1000, Size: 0x1000},
		{Name: session.ModuleEngine2, Base: 0x2000, Size: 0x1000},
		{Name: session.ModuleSchemaSystem, Base: 0x3000, Size: 0x1000},
		{Name: session.ModuleTier0, Base: 0x4000, Size: 0x1000},
	}
}

// NewTarget returns a cs2.exe target with pid 4242, the standard modules and
// every module image mapped (zeroed) in memory.
func NewTarget(t testing.TB) *Target {
	t.Helper()

	target := &Target{
		Name:    session.DefaultProcessName,
		PID:     4242,
		Modules: StandardModules(),
		Memory:  process_blob.NewImage(),
	}
	for _, m := range target.Modules {
		if _, err := target.Memory.Map(m.Base, m.Size); err != nil {
			t.Fatalf("map %s: %v", m.Name, err)
		}
	}
	return target
}

// Without returns a copy of the module list without name
func (t *Target) Without(name string) *Target {
	out := *t
	out.Modules = nil
	for _, m := range t.Modules {
		if m.Name != name {
			out.Modules = append(out.Modules, m)
		}
	}
	return &out
}

type targetProcess struct {
	target *Target

	mu     sync.Mutex
	closed bool
}

func (p *targetProcess) PID() process.ProcessID { return p.target.PID }

func (p *targetProcess) IsAlive() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.closed
}

func (p *targetProcess) Modules() ([]process.ModuleRecord, error) {
	if p.target.ModulesErr != nil {
		return nil, p.target.ModulesErr
	}
	out := make([]process.ModuleRecord, len(p.target.Modules))
	copy(out, p.target.Modules)
	return out, nil
}

func (p *targetProcess) ModuleList() ([]process.ModuleRecord, error) {
	return p.Modules()
}

func (p *targetProcess) ReadMemory(addr process.ProcessMemoryAddress, size process.ProcessMemorySize) ([]byte, error) {
	if !p.IsAlive() {
		return nil, process.ErrProcessNotOpen
	}
	return p.target.Memory.ReadMemory(addr, size)
}

func (p *targetProcess) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// Scanner is a session.DirectScanner over simulated targets
type Scanner struct {
	Targets []*Target
	OpenErr error
}

var _ session.DirectScanner = (*Scanner)(nil)

func (s *Scanner) find(name string) *Target {
	for _, t := range s.Targets {
		if t.Name == name {
			return t
		}
	}
	return nil
}

func (s *Scanner) ProcessExists(name string) bool {
	return s.find(name) != nil
}

func (s *Scanner) OpenProcess(name string) (session.DirectProcess, error) {
	if s.OpenErr != nil {
		return nil, s.OpenErr
	}
	t := s.find(name)
	if t == nil {
		return nil, errors.New("no such process")
	}
	return &targetProcess{target: t}, nil
}

// Driver is a vmm.Driver over simulated targets
type Driver struct {
	Targets []*Target
	OpenErr error

	// Opened records the configuration of every Open call
	Opened []vmm.Config
}

var _ vmm.Driver = (*Driver)(nil)

func (d *Driver) Name() string { return "sessiontest" }

func (d *Driver) Open(cfg vmm.Config) (vmm.Device, error) {
	d.Opened = append(d.Opened, cfg)
	if d.OpenErr != nil {
		return nil, d.OpenErr
	}
	return &device{driver: d}, nil
}

type device struct {
	driver *Driver
	procs  []*targetProcess
}

func (d *device) FindProcess(name string) (vmm.Process, error) {
	for _, t := range d.driver.Targets {
		if t.Name == name {
			p := &targetProcess{target: t}
			d.procs = append(d.procs, p)
			return p, nil
		}
	}
	return nil, vmm.ErrProcessNotFound
}

// Close ends every process found through the device
func (d *device) Close() error {
	for _, p := range d.procs {
		p.Close()
	}
	return nil
}

// Attach builds a session over target through the direct scan path
func Attach(t testing.TB, target *Target) *session.Session {
	t.Helper()
	f := session.NewFactory(session.WithDirectScanner(&Scanner{Targets: []*Target{target}}))
	s, err := f.AttachViaDirectScan()
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	return s
}
