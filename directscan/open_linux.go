//go:build linux

package directscan

import (
	"cs2mem/process_linux"
	"cs2mem/session"
)

func openNative(name string) (session.DirectProcess, error) {
	p, err := process_linux.OpenByName(name)
	if err != nil {
		return nil, err
	}
	return p, nil
}
