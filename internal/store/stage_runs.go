package store

import (
	"fmt"

	"github.com/postforge/postforge/internal/types"
)

// InsertStageRun appends an immutable StageRun record. Regeneration
// produces a second row for the same (post_id, stage) with attempt+1
// rather than mutating the first — this method never updates an
// existing row.
func (s *Store) InsertStageRun(r types.StageRun) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO stage_runs (post_id, stage, attempt, status, started_at, finished_at, artifact_id, error_class, error_detail)
		 VALUES (?,?,?,?,?,?,?,?,?)`,
		r.PostID, string(r.Stage), r.Attempt, string(r.Status),
		unixMilli(r.StartedAt), unixMilli(r.FinishedAt), nullableString(r.ArtifactID),
		nullableString(r.ErrorClass), nullableString(r.ErrorDetail),
	)
	if err != nil {
		return 0, fmt.Errorf("insert stage_run %s/%s: %w", r.PostID, r.Stage, err)
	}
	return res.LastInsertId()
}

// ListStageRuns returns every StageRun recorded for a post, in
// attempt/time order, e.g. for the dashboard's activity feed.
func (s *Store) ListStageRuns(postID string) ([]types.StageRun, error) {
	rows, err := s.db.Query(
		`SELECT id, post_id, stage, attempt, status, started_at, finished_at, COALESCE(artifact_id,''), COALESCE(error_class,''), COALESCE(error_detail,'')
		 FROM stage_runs WHERE post_id = ? ORDER BY started_at ASC, id ASC`, postID)
	if err != nil {
		return nil, fmt.Errorf("list stage_runs for %s: %w", postID, err)
	}
	defer rows.Close()

	var out []types.StageRun
	for rows.Next() {
		var r types.StageRun
		var startedAt, finishedAt int64
		var stage, status string
		if err := rows.Scan(&r.ID, &r.PostID, &stage, &r.Attempt, &status, &startedAt, &finishedAt, &r.ArtifactID, &r.ErrorClass, &r.ErrorDetail); err != nil {
			return nil, err
		}
		r.Stage = types.Stage(stage)
		r.Status = types.StageStatus(status)
		r.StartedAt = fromMilli(startedAt)
		r.FinishedAt = fromMilli(finishedAt)
		out = append(out, r)
	}
	return out, rows.Err()
}

// AttemptCount returns how many StageRuns already exist for (post_id,
// stage), used by the orchestrator to enforce
// attempts = 1 + max_regenerations.
func (s *Store) AttemptCount(postID string, stage types.Stage) (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM stage_runs WHERE post_id = ? AND stage = ?`, postID, string(stage)).Scan(&n)
	return n, err
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
