//go:build windows

package directscan

import (
	"cs2mem/process_windows"
	"cs2mem/session"
)

func openNative(name string) (session.DirectProcess, error) {
	p, err := process_windows.OpenByName(name)
	if err != nil {
		return nil, err
	}
	return p, nil
}
