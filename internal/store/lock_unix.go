//go:build !windows

package store

import (
	"os"
	"syscall"
)

// syscallZero returns the zero-signal used to probe whether a pid is
// still alive without actually signaling it.
func syscallZero() os.Signal {
	return syscall.Signal(0)
}
