package store

import (
	"fmt"
	"time"

	"github.com/postforge/postforge/internal/types"
)

// AppendAuditEvent writes one immutable audit record. The audit_log
// table is never the target of UPDATE or DELETE anywhere in this
// codebase — enforced by convention and checked by a static grep-based
// test, since SQLite has no append-only table constraint.
func (s *Store) AppendAuditEvent(e types.AuditEvent) error {
	ts := e.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err := s.db.Exec(
		`INSERT INTO audit_log (post_id, action, timestamp, detail, cost_exhausted_flag) VALUES (?,?,?,?,?)`,
		nullableString(e.PostID), string(e.Action), unixMilli(ts), nullableString(e.Detail), boolToInt(e.CostExhaustedFlag),
	)
	if err != nil {
		return fmt.Errorf("append audit event %s: %w", e.Action, err)
	}
	return nil
}

// ListAuditEvents returns the N most recent audit events across all
// posts, newest first, for the dashboard's activity feed.
func (s *Store) ListAuditEvents(limit int) ([]types.AuditEvent, error) {
	rows, err := s.db.Query(
		`SELECT id, COALESCE(post_id,''), action, timestamp, COALESCE(detail,''), cost_exhausted_flag
		 FROM audit_log ORDER BY timestamp DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var out []types.AuditEvent
	for rows.Next() {
		var e types.AuditEvent
		var ts int64
		var flag int
		var action string
		if err := rows.Scan(&e.ID, &e.PostID, &action, &ts, &e.Detail, &flag); err != nil {
			return nil, err
		}
		e.Action = types.AuditAction(action)
		e.Timestamp = fromMilli(ts)
		e.CostExhaustedFlag = flag == 1
		out = append(out, e)
	}
	return out, rows.Err()
}
