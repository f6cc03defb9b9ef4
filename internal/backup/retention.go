package backup

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Tiered retention: the original backup_manager.py's cleanup_old_backups
// only keeps the N most recent files regardless of spacing, so a burst
// of same-day snapshots can crowd out the weekly/monthly history a
// three-tier policy is meant to preserve. This implementation buckets
// each snapshot by calendar day, ISO week, and calendar month, and keeps
// the newest snapshot in each of the most recent dailyKeep days,
// weeklyKeep weeks, and monthlyKeep months — the union is retained,
// everything else is deleted.
const (
	dailyKeep   = 7
	weeklyKeep  = 4
	monthlyKeep = 12
)

type snapshot struct {
	path    string
	modTime time.Time
}

// Cleanup applies the tiered retention policy against now, returning how
// many snapshot files were deleted.
func (m *Manager) Cleanup(now time.Time) (int, error) {
	snaps, err := m.listSnapshots()
	if err != nil {
		return 0, err
	}
	if len(snaps) == 0 {
		return 0, nil
	}

	keep := make(map[string]bool, len(snaps))
	keepNewestPerBucket(snaps, keep, now, dailyKeep, dayBucket)
	keepNewestPerBucket(snaps, keep, now, weeklyKeep, weekBucket)
	keepNewestPerBucket(snaps, keep, now, monthlyKeep, monthBucket)

	deleted := 0
	for _, s := range snaps {
		if keep[s.path] {
			continue
		}
		if err := os.Remove(s.path); err != nil {
			return deleted, err
		}
		deleted++
	}
	return deleted, nil
}

func (m *Manager) listSnapshots() ([]snapshot, error) {
	entries, err := os.ReadDir(m.backupDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var out []snapshot
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), filePrefix) || !strings.HasSuffix(e.Name(), fileSuffix) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, snapshot{path: filepath.Join(m.backupDir, e.Name()), modTime: info.ModTime()})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].modTime.After(out[j].modTime) })
	return out, nil
}

// bucketFunc maps a snapshot's mod time to a bucket key and an "age" in
// bucket units relative to now (0 = current bucket), so the caller can
// cap how far back each tier reaches.
type bucketFunc func(t, now time.Time) (key string, age int)

func dayBucket(t, now time.Time) (string, int) {
	days := int(now.Truncate(24*time.Hour).Sub(t.Truncate(24*time.Hour)).Hours() / 24)
	return t.Format("2006-01-02"), days
}

func weekBucket(t, now time.Time) (string, int) {
	ty, tw := t.ISOWeek()
	ny, nw := now.ISOWeek()
	age := (ny-ty)*52 + (nw - tw)
	return fmt.Sprintf("%04d-W%02d", ty, tw), age
}

func monthBucket(t, now time.Time) (string, int) {
	age := (now.Year()-t.Year())*12 + int(now.Month()) - int(t.Month())
	return t.Format("2006-01"), age
}

// keepNewestPerBucket marks the newest snapshot in each of the most
// recent `count` buckets (by the given bucketFunc) as kept. snaps must
// already be sorted newest-first so the first snapshot seen for a
// bucket is its newest.
func keepNewestPerBucket(snaps []snapshot, keep map[string]bool, now time.Time, count int, bucket bucketFunc) {
	seen := make(map[string]bool)
	for _, s := range snaps {
		key, age := bucket(s.modTime, now)
		if age < 0 || age >= count {
			continue
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		keep[s.path] = true
	}
}
