// Package directscan is the direct process-memory backend: it finds the
// target with gopsutil and opens it with the native process package of the
// running OS.
package directscan

import (
	"cs2mem/session"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
	"github.com/shirou/gopsutil/v4/process"
)

// Backend implements session.DirectScanner
type Backend struct {
	log *logger.Logger
}

var _ session.DirectScanner = (*Backend)(nil)

func New() *Backend {
	return &Backend{
		log: logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, "directscan")),
	}
}

// ProcessExists reports whether a running process has exactly this name.
// Processes that vanish or deny access while being listed are skipped.
func (b *Backend) ProcessExists(name string) bool {
	procs, err := process.Processes()
	if err != nil {
		b.log.Warn("list processes: ", err)
		return false
	}

	for _, p := range procs {
		n, err := p.Name()
		if err != nil {
			continue
		}
		if n == name {
			return true
		}
	}
	return false
}

// OpenProcess opens the process by name with the native backend
func (b *Backend) OpenProcess(name string) (session.DirectProcess, error) {
	return openNative(name)
}
