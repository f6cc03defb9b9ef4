// Package backup implements database snapshotting and restore with a
// tiered retention policy, grounded on
// original_source/services/backup_manager.py.
package backup

import (
	"compress/gzip"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Manager snapshots a SQLite database file into a backup directory and
// restores from one of those snapshots. No third-party compression
// library appears anywhere in the retrieved corpus, so the snapshot
// stream uses the standard library's compress/gzip rather than reaching
// for an out-of-pack dependency.
type Manager struct {
	dbPath    string
	backupDir string
}

func New(dbPath, backupDir string) *Manager {
	return &Manager{dbPath: dbPath, backupDir: backupDir}
}

// filePrefix/fileSuffix name the snapshot files this package both
// writes and later globs for retention and restore.
const (
	filePrefix = "pipeline_db_"
	fileSuffix = ".sqlite.gz"
)

// Snapshot takes a consistent copy of the live database: BEGIN IMMEDIATE
// acquires SQLite's write lock so no concurrent writer can be mid-write
// while the file is streamed, the stream is gzip-compressed to the
// backup directory with 0600 permissions, the lock is released, and
// finally the tiered retention policy prunes old snapshots.
func (m *Manager) Snapshot() (string, error) {
	if err := os.MkdirAll(m.backupDir, 0o755); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}

	release, err := m.lockForRead()
	if err != nil {
		return "", err
	}

	name := filePrefix + time.Now().UTC().Format("2006-01-02T15-04-05") + fileSuffix
	dest := filepath.Join(m.backupDir, name)

	err = m.compressTo(dest)
	if err == nil {
		if cerr := os.Chmod(dest, 0o600); cerr != nil {
			err = fmt.Errorf("chmod backup: %w", cerr)
		}
	}
	release()
	if err != nil {
		return "", err
	}

	if _, err := m.Cleanup(time.Now()); err != nil {
		return dest, fmt.Errorf("snapshot succeeded but retention cleanup failed: %w", err)
	}
	return dest, nil
}

// lockForRead opens the database and issues BEGIN IMMEDIATE, which in
// SQLite's rollback journal / WAL mode takes the write lock without
// blocking concurrent readers, giving the snapshot a consistent view of
// the file without pausing the orchestrator's own reads. The returned
// func ends the transaction and closes the connection.
func (m *Manager) lockForRead() (func(), error) {
	db, err := sql.Open("sqlite", m.dbPath+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db for snapshot lock: %w", err)
	}

	ctx := context.Background()
	conn, err := db.Conn(ctx)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("open connection for snapshot lock: %w", err)
	}
	if _, err := conn.ExecContext(ctx, "BEGIN IMMEDIATE"); err != nil {
		conn.Close()
		db.Close()
		return nil, fmt.Errorf("begin immediate for snapshot: %w", err)
	}

	return func() {
		_, _ = conn.ExecContext(ctx, "ROLLBACK")
		_ = conn.Close()
		_ = db.Close()
	}, nil
}

func (m *Manager) compressTo(dest string) error {
	src, err := os.Open(m.dbPath)
	if err != nil {
		if os.IsNotExist(err) {
			return m.touchEmpty(dest)
		}
		return fmt.Errorf("open source db: %w", err)
	}
	defer src.Close()

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create backup file: %w", err)
	}
	defer out.Close()

	gw := gzip.NewWriter(out)
	if _, err := io.Copy(gw, src); err != nil {
		gw.Close()
		return fmt.Errorf("compress backup: %w", err)
	}
	return gw.Close()
}

func (m *Manager) touchEmpty(dest string) error {
	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create empty backup placeholder: %w", err)
	}
	gw := gzip.NewWriter(f)
	gw.Close()
	return f.Close()
}

// Restore decompresses backupPath to a staging file, verifies it with
// PRAGMA integrity_check, copies the live database aside as a recovery
// file, then atomically renames the staged file over the live path.
func (m *Manager) Restore(backupPath string) error {
	staging := m.dbPath + ".restoring"
	if err := m.decompressTo(backupPath, staging); err != nil {
		return err
	}
	defer os.Remove(staging)

	if err := integrityCheck(staging); err != nil {
		return fmt.Errorf("restored snapshot failed integrity check: %w", err)
	}

	if _, err := os.Stat(m.dbPath); err == nil {
		recovery := m.dbPath + ".recovery"
		if err := copyFile(m.dbPath, recovery); err != nil {
			return fmt.Errorf("save recovery copy of live db: %w", err)
		}
	}

	if err := os.Rename(staging, m.dbPath); err != nil {
		return fmt.Errorf("atomically replace live db: %w", err)
	}
	return os.Chmod(m.dbPath, 0o600)
}

func (m *Manager) decompressTo(backupPath, dest string) error {
	src, err := os.Open(backupPath)
	if err != nil {
		return fmt.Errorf("open backup file: %w", err)
	}
	defer src.Close()

	gr, err := gzip.NewReader(src)
	if err != nil {
		return fmt.Errorf("open gzip stream: %w", err)
	}
	defer gr.Close()

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create staging file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, gr); err != nil {
		return fmt.Errorf("decompress backup: %w", err)
	}
	return nil
}

func integrityCheck(path string) error {
	db, err := sql.Open("sqlite", path+"?mode=ro")
	if err != nil {
		return fmt.Errorf("open for integrity check: %w", err)
	}
	defer db.Close()

	var result string
	if err := db.QueryRow(`PRAGMA integrity_check`).Scan(&result); err != nil {
		return fmt.Errorf("run integrity_check: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("integrity_check reported: %s", result)
	}
	return nil
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}
