package store

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/postforge/postforge/internal/apperr"
)

// AcquireLock creates a PID lockfile next to the database, refusing to
// start if another live process already holds it. This is how the
// specification's "exactly one Orchestrator instance per database" is
// enforced without relying on OS-level advisory locks, which SQLite's
// own locking does not cover across process restarts.
func AcquireLock(pidFile string) (func(), error) {
	if data, err := os.ReadFile(pidFile); err == nil {
		if pid, perr := strconv.Atoi(strings.TrimSpace(string(data))); perr == nil && processAlive(pid) {
			return nil, &apperr.LockContended{PIDFile: pidFile, HeldBy: pid}
		}
	}

	if err := os.WriteFile(pidFile, []byte(strconv.Itoa(os.Getpid())), 0o644); err != nil {
		return nil, fmt.Errorf("write lockfile %s: %w", pidFile, err)
	}

	return func() { os.Remove(pidFile) }, nil
}

func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	if runtime.GOOS == "windows" {
		// FindProcess fails there for a pid that is not running.
		return true
	}
	return proc.Signal(syscallZero()) == nil
}
