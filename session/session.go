// Package session binds a target process, its required modules and a memory
// accessor into one value, whichever backend produced it. Nothing outside
// this package needs to know which backend is active.
package session

import (
	"fmt"
	"io"
	"sync"
	"time"

	"cs2mem/process"
)

// Session is a live attachment to the target. It is built once by a Factory
// and never re-targeted; attaching again yields a new Session.
type Session struct {
	backend     Backend
	processName string
	handle      ProcessHandle
	modules     Modules
	memory      *accessor
	closer      io.Closer
	attachedAt  time.Time

	closeOnce sync.Once
	closeErr  error
}

func (s *Session) mustBeAttached() {
	if s == nil || s.memory == nil {
		panic("session: used before attach completed")
	}
}

func (s *Session) Backend() Backend {
	s.mustBeAttached()
	return s.backend
}

func (s *Session) ProcessName() string {
	s.mustBeAttached()
	return s.processName
}

func (s *Session) PID() process.ProcessID {
	s.mustBeAttached()
	return s.handle.PID()
}

func (s *Session) Process() ProcessHandle {
	s.mustBeAttached()
	return s.handle
}

func (s *Session) Modules() Modules {
	s.mustBeAttached()
	return s.modules
}

// Module returns a required module by name
func (s *Session) Module(name string) (ModuleDescriptor, error) {
	s.mustBeAttached()
	if m, ok := s.modules.ByName(name); ok {
		return m, nil
	}
	return ModuleDescriptor{}, fmt.Errorf("module %s is not part of the session", name)
}

// Memory returns the accessor bound at attach time. Reading through a Session
// that was not produced by a Factory is a programming error and panics.
func (s *Session) Memory() MemoryAccessor {
	s.mustBeAttached()
	return s.memory
}

func (s *Session) AttachedAt() time.Time {
	s.mustBeAttached()
	return s.attachedAt
}

// Close releases the backend handle. Reads after Close fail with a ReadError.
func (s *Session) Close() error {
	s.mustBeAttached()
	s.closeOnce.Do(func() {
		if s.closer != nil {
			s.closeErr = s.closer.Close()
		}
	})
	return s.closeErr
}

func (s *Session) String() string {
	if s == nil || s.memory == nil {
		return "session(unattached)"
	}
	return fmt.Sprintf("session(%s %s[%d])", s.backend, s.processName, s.handle.PID())
}
