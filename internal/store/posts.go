package store

import (
	"database/sql"
	"fmt"

	"github.com/postforge/postforge/internal/types"
)

// InsertPost persists a newly-ingested post. post_id is the natural key;
// re-ingesting the same post_id is a no-op via INSERT OR IGNORE, since
// ingestion may observe the same forum item across runs. A Post is
// never updated after this call — its progress lives in StageRun rows.
func (s *Store) InsertPost(p types.Post) error {
	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO posts (post_id, source, title, body, author, url, score, created_at, ingested_at)
		 VALUES (?,?,?,?,?,?,?,?,?)`,
		p.PostID, p.Source, p.Title, p.Body, p.Author, p.URL, p.Score,
		unixMilli(p.CreatedAt), unixMilli(p.IngestedAt),
	)
	if err != nil {
		return fmt.Errorf("insert post %s: %w", p.PostID, err)
	}
	return nil
}

// GetPost loads one post by ID, or sql.ErrNoRows via the returned error.
func (s *Store) GetPost(postID string) (*types.Post, error) {
	row := s.db.QueryRow(`SELECT post_id, source, title, body, author, url, score, created_at, ingested_at FROM posts WHERE post_id = ?`, postID)
	return scanPost(row)
}

// ListUnprocessedPosts returns posts that have never completed a
// successful upload StageRun, via an anti-join against stage_runs,
// ordered by original post timestamp descending.
func (s *Store) ListUnprocessedPosts(limit int) ([]types.Post, error) {
	rows, err := s.db.Query(`
		SELECT p.post_id, p.source, p.title, p.body, p.author, p.url, p.score, p.created_at, p.ingested_at
		FROM posts p
		LEFT JOIN (
			SELECT DISTINCT post_id FROM stage_runs WHERE stage = 'upload' AND status = 'completed'
		) done ON done.post_id = p.post_id
		WHERE done.post_id IS NULL
		ORDER BY p.created_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list unprocessed posts: %w", err)
	}
	defer rows.Close()

	var out []types.Post
	for rows.Next() {
		p, err := scanPostRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

type scannable interface {
	Scan(dest ...interface{}) error
}

func scanPost(row *sql.Row) (*types.Post, error) {
	return scanPostScannable(row)
}

func scanPostRows(rows *sql.Rows) (*types.Post, error) {
	return scanPostScannable(rows)
}

func scanPostScannable(sc scannable) (*types.Post, error) {
	var p types.Post
	var createdAt, ingestedAt int64
	if err := sc.Scan(&p.PostID, &p.Source, &p.Title, &p.Body, &p.Author, &p.URL, &p.Score, &createdAt, &ingestedAt); err != nil {
		return nil, err
	}
	p.CreatedAt = fromMilli(createdAt)
	p.IngestedAt = fromMilli(ingestedAt)
	return &p, nil
}
