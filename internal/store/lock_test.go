package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/postforge/postforge/internal/apperr"
)

func TestAcquireLock_SucceedsWhenNoLockfile(t *testing.T) {
	dir := t.TempDir()
	pidFile := filepath.Join(dir, "postforge.pid")

	release, err := AcquireLock(pidFile)
	require.NoError(t, err)
	require.NotNil(t, release)

	_, statErr := os.Stat(pidFile)
	require.NoError(t, statErr)

	release()
	_, statErr = os.Stat(pidFile)
	require.True(t, os.IsNotExist(statErr))
}

func TestAcquireLock_RefusesWhenHeldByLiveProcess(t *testing.T) {
	dir := t.TempDir()
	pidFile := filepath.Join(dir, "postforge.pid")

	require.NoError(t, os.WriteFile(pidFile, []byte("1"), 0o644))

	_, err := AcquireLock(pidFile)
	require.Error(t, err)

	var contended *apperr.LockContended
	require.True(t, errors.As(err, &contended))
}

func TestAcquireLock_ReclaimsStalePIDFromDeadProcess(t *testing.T) {
	dir := t.TempDir()
	pidFile := filepath.Join(dir, "postforge.pid")

	// PID 999999 is extremely unlikely to correspond to a live process.
	require.NoError(t, os.WriteFile(pidFile, []byte("999999"), 0o644))

	release, err := AcquireLock(pidFile)
	require.NoError(t, err)
	release()
}
