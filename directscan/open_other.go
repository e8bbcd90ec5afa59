//go:build !linux && !windows

package directscan

import (
	"errors"
	"fmt"
	"runtime"

	"cs2mem/session"
)

var errUnsupported = errors.New("direct process access is not supported on " + runtime.GOOS)

func openNative(name string) (session.DirectProcess, error) {
	return nil, fmt.Errorf("open %s: %w", name, errUnsupported)
}
