package store

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/postforge/postforge/internal/types"
)

// WriteArtifact writes content once to
// <artifacts_root>/<post_id>/<stage>_<unix_ts>.<ext>, refusing to
// overwrite an existing file (artifacts are write-once), then records
// the Artifact row.
func (s *Store) WriteArtifact(postID string, stage types.Stage, ext string, content []byte) (*types.Artifact, error) {
	dir := filepath.Join(s.artifactsRoot, postID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact dir %s: %w", dir, err)
	}

	now := time.Now()
	name := fmt.Sprintf("%s_%d.%s", stage, now.Unix(), ext)
	path := filepath.Join(dir, name)

	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("artifact %s already exists (write-once)", path)
	}

	if err := os.WriteFile(path, content, 0o644); err != nil {
		return nil, fmt.Errorf("write artifact %s: %w", path, err)
	}

	a := types.Artifact{
		ID:        uuid.NewString(),
		PostID:    postID,
		Stage:     stage,
		Path:      path,
		Ext:       ext,
		CreatedAt: now,
		SizeBytes: int64(len(content)),
	}

	_, err := s.db.Exec(
		`INSERT INTO artifacts (id, post_id, stage, path, ext, created_at, size_bytes) VALUES (?,?,?,?,?,?,?)`,
		a.ID, a.PostID, string(a.Stage), a.Path, a.Ext, unixMilli(a.CreatedAt), a.SizeBytes,
	)
	if err != nil {
		return nil, fmt.Errorf("record artifact: %w", err)
	}
	return &a, nil
}

// ReadArtifact loads a previously-written artifact's bytes by ID.
func (s *Store) ReadArtifact(id string) ([]byte, error) {
	var path string
	if err := s.db.QueryRow(`SELECT path FROM artifacts WHERE id = ?`, id).Scan(&path); err != nil {
		return nil, fmt.Errorf("lookup artifact %s: %w", id, err)
	}
	return os.ReadFile(path)
}

// ListArtifacts returns all artifacts recorded for a post.
func (s *Store) ListArtifacts(postID string) ([]types.Artifact, error) {
	rows, err := s.db.Query(`SELECT id, post_id, stage, path, ext, created_at, size_bytes FROM artifacts WHERE post_id = ? ORDER BY created_at ASC`, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []types.Artifact
	for rows.Next() {
		var a types.Artifact
		var stage string
		var createdAt int64
		if err := rows.Scan(&a.ID, &a.PostID, &stage, &a.Path, &a.Ext, &createdAt, &a.SizeBytes); err != nil {
			return nil, err
		}
		a.Stage = types.Stage(stage)
		a.CreatedAt = fromMilli(createdAt)
		out = append(out, a)
	}
	return out, rows.Err()
}
