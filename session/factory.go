package session

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"cs2mem/vmm"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
)

// DefaultProcessName is the executable sessions attach to
const DefaultProcessName = "cs2.exe"

// Factory builds sessions. AttachViaIntrospection and AttachViaDirectScan are
// the only backend specific code paths; both require the same modules and
// fail with the same error kinds. Lookups are single attempts, retrying is up
// to the caller.
type Factory struct {
	processName string
	driver      vmm.Driver
	scanner     DirectScanner
	log         *logger.Logger
}

// Option is a function that configures a Factory
type Option func(*Factory)

func WithProcessName(name string) Option {
	return func(f *Factory) {
		f.processName = name
	}
}

// WithIntrospectionDriver sets the driver used by AttachViaIntrospection
func WithIntrospectionDriver(d vmm.Driver) Option {
	return func(f *Factory) {
		f.driver = d
	}
}

// WithDirectScanner sets the backend used by AttachViaDirectScan
func WithDirectScanner(s DirectScanner) Option {
	return func(f *Factory) {
		f.scanner = s
	}
}

func NewFactory(options ...Option) *Factory {
	f := &Factory{
		processName: DefaultProcessName,
		log:         logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, "session")),
	}
	for _, opt := range options {
		opt(f)
	}
	return f
}

func (f *Factory) ProcessName() string {
	return f.processName
}

// Attach dispatches to the construction path for backend
func (f *Factory) Attach(backend Backend) (*Session, error) {
	switch backend {
	case BackendIntrospection:
		return f.AttachViaIntrospection()
	case BackendDirectScan:
		return f.AttachViaDirectScan()
	}
	return nil, fmt.Errorf("unknown backend %q", backend)
}

// AttachViaIntrospection opens the introspection device with vmm.DefaultConfig,
// finds the target process and resolves the required modules.
func (f *Factory) AttachViaIntrospection() (*Session, error) {
	cfg := vmm.DefaultConfig()

	if f.driver == nil {
		return nil, f.fail(&DeviceNotFoundError{Driver: "none", Config: cfg.String(), Err: vmm.ErrDeviceUnavailable})
	}

	device, err := f.driver.Open(cfg)
	if err != nil {
		return nil, f.fail(&DeviceNotFoundError{Driver: f.driver.Name(), Config: cfg.String(), Err: err})
	}
	f.log.Infoln("Success Found Vmm Device:", f.driver.Name())

	proc, err := device.FindProcess(f.processName)
	if err != nil {
		device.Close()
		return nil, f.fail(&ProcessNotFoundError{Backend: BackendIntrospection, Name: f.processName, Err: err})
	}
	f.log.Infoln("Success Found", f.processName, "Process: pid->", proc.PID())

	handle := vmmHandle{Process: proc}
	modules, err := f.resolveModules(BackendIntrospection, handle)
	if err != nil {
		device.Close()
		return nil, f.fail(err)
	}

	return &Session{
		backend:     BackendIntrospection,
		processName: f.processName,
		handle:      handle,
		modules:     modules,
		memory:      newIntrospectionAccessor(proc.ReadMemory),
		closer:      device,
		attachedAt:  time.Now(),
	}, nil
}

// AttachViaDirectScan checks the process is alive, opens it directly and
// resolves the required modules.
func (f *Factory) AttachViaDirectScan() (*Session, error) {
	if f.scanner == nil {
		return nil, f.fail(&ProcessNotFoundError{Backend: BackendDirectScan, Name: f.processName, Err: errors.New("no direct scan backend configured")})
	}

	if !f.scanner.ProcessExists(f.processName) {
		return nil, f.fail(&ProcessNotFoundError{Backend: BackendDirectScan, Name: f.processName})
	}

	proc, err := f.scanner.OpenProcess(f.processName)
	if err != nil {
		return nil, f.fail(&ProcessNotFoundError{Backend: BackendDirectScan, Name: f.processName, Err: err})
	}
	f.log.Infoln("Success Found", f.processName, "Process: pid->", proc.PID())

	handle := directHandle{DirectProcess: proc}
	modules, err := f.resolveModules(BackendDirectScan, handle)
	if err != nil {
		proc.Close()
		return nil, f.fail(err)
	}

	return &Session{
		backend:     BackendDirectScan,
		processName: f.processName,
		handle:      handle,
		modules:     modules,
		memory:      newDirectScanAccessor(proc.ReadMemory),
		closer:      proc,
		attachedAt:  time.Now(),
	}, nil
}

func (f *Factory) resolveModules(backend Backend, handle ProcessHandle) (Modules, error) {
	records, err := handle.ListModules()
	if err != nil {
		return Modules{}, &ProcessModuleNotFoundError{
			Backend: backend,
			Process: f.processName,
			PID:     handle.PID(),
			Missing: append([]string(nil), RequiredModules[:]...),
			Err:     err,
		}
	}

	modules, missing := selectModules(records)
	if len(missing) > 0 {
		return Modules{}, &ProcessModuleNotFoundError{
			Backend: backend,
			Process: f.processName,
			PID:     handle.PID(),
			Missing: missing,
		}
	}

	pairs := make([]string, 0, len(RequiredModules))
	for _, m := range modules.All() {
		pairs = append(pairs, m.String())
	}
	f.log.Infoln("Success Found Modules:", strings.Join(pairs, ", "))

	return modules, nil
}

func (f *Factory) fail(err error) error {
	f.log.Warn("attach failed: ", err)
	return err
}
