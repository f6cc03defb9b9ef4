package store

import (
	"database/sql"
	"fmt"
	"time"
)

// StateCounts is a state→count map for the dashboard's stats endpoint.
type StateCounts map[string]int

// derivePostState maps a post's latest StageRun (stage, status) to the
// PostState label the dashboard renders. Post itself carries no status
// column — this is derived fresh from the append-only StageRun history
// every time, since a post is never mutated after ingestion.
func derivePostState(stage, status string, hasRun bool) string {
	if !hasRun {
		return "INGESTED"
	}
	switch status {
	case "completed":
		switch stage {
		case "problem":
			return "PROBLEM_OK"
		case "spec":
			return "SPEC_OK"
		case "content":
			return "CONTENT_OK"
		case "verify":
			return "VERIFIED"
		case "listing":
			return "LISTED"
		case "upload":
			return "UPLOADED"
		}
	case "discarded":
		if stage == "verify" {
			return "HARD_DISCARD"
		}
		return "DISCARDED"
	case "rejected":
		if stage == "verify" {
			return "REGENERATE_CONTENT"
		}
		return "REJECTED"
	case "failed":
		return "FAILED"
	case "cost_exhausted":
		return "COST_EXHAUSTED"
	}
	return "INGESTED"
}

const latestStageRunJoin = `
	LEFT JOIN (
		SELECT post_id, stage, status,
		       ROW_NUMBER() OVER (PARTITION BY post_id ORDER BY id DESC) AS rn
		FROM stage_runs
	) latest ON latest.post_id = p.post_id AND latest.rn = 1`

// CountsByState groups every post by its derived pipeline state, for the
// dashboard's at-a-glance funnel view.
func (s *Store) CountsByState() (StateCounts, error) {
	rows, err := s.db.Query(`
		SELECT latest.stage, latest.status, latest.post_id IS NOT NULL
		FROM posts p` + latestStageRunJoin)
	if err != nil {
		return nil, fmt.Errorf("count posts by state: %w", err)
	}
	defer rows.Close()

	counts := make(StateCounts)
	for rows.Next() {
		var stage, status sql.NullString
		var hasRun bool
		if err := rows.Scan(&stage, &status, &hasRun); err != nil {
			return nil, err
		}
		counts[derivePostState(stage.String, status.String, hasRun)]++
	}
	return counts, rows.Err()
}

// RecentPosts returns the most recently ingested posts regardless of
// state, for the dashboard's post list.
func (s *Store) RecentPosts(limit int) ([]DashboardPost, error) {
	rows, err := s.db.Query(`
		SELECT p.post_id, p.source, p.title, p.score, p.ingested_at,
		       latest.stage, latest.status, latest.post_id IS NOT NULL
		FROM posts p`+latestStageRunJoin+`
		ORDER BY p.ingested_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent posts: %w", err)
	}
	defer rows.Close()

	var out []DashboardPost
	for rows.Next() {
		var p DashboardPost
		var ingestedAt int64
		var stage, status sql.NullString
		var hasRun bool
		if err := rows.Scan(&p.PostID, &p.Source, &p.Title, &p.Score, &ingestedAt, &stage, &status, &hasRun); err != nil {
			return nil, err
		}
		p.IngestedAt = fromMilli(ingestedAt)
		p.State = derivePostState(stage.String, status.String, hasRun)
		out = append(out, p)
	}
	return out, rows.Err()
}

// DashboardPost is the trimmed post projection the dashboard renders —
// deliberately smaller than types.Post, which also carries body text the
// dashboard has no need to transmit. State is derived from the post's
// latest StageRun, not stored.
type DashboardPost struct {
	PostID     string    `json:"post_id"`
	Source     string    `json:"source"`
	Title      string    `json:"title"`
	State      string    `json:"state"`
	Score      int       `json:"score"`
	IngestedAt time.Time `json:"ingested_at"`
}
