// Package audit provides a typed, append-only audit trail over
// internal/store's audit_log table.
package audit

import (
	"github.com/postforge/postforge/internal/store"
	"github.com/postforge/postforge/internal/types"
)

// Log appends audit events for one orchestrator run.
type Log struct {
	store *store.Store
}

func New(s *store.Store) *Log {
	return &Log{store: s}
}

func (l *Log) record(postID string, action types.AuditAction, detail string, costExhausted bool) error {
	return l.store.AppendAuditEvent(types.AuditEvent{
		PostID:            postID,
		Action:            action,
		Detail:            detail,
		CostExhaustedFlag: costExhausted,
	})
}

func (l *Log) PostIngested(postID string) error { return l.record(postID, types.ActionPostIngested, "", false) }

func (l *Log) ProblemExtracted(postID, detail string) error {
	return l.record(postID, types.ActionProblemExtracted, detail, false)
}

func (l *Log) SpecGenerated(postID, detail string) error {
	return l.record(postID, types.ActionSpecGenerated, detail, false)
}

func (l *Log) ContentGenerated(postID, detail string) error {
	return l.record(postID, types.ActionContentGenerated, detail, false)
}

func (l *Log) ContentVerified(postID, detail string) error {
	return l.record(postID, types.ActionContentVerified, detail, false)
}

func (l *Log) ContentRejected(postID, reason string) error {
	return l.record(postID, types.ActionContentRejected, reason, false)
}

func (l *Log) ListingGenerated(postID, detail string) error {
	return l.record(postID, types.ActionListingGenerated, detail, false)
}

func (l *Log) UploadSucceeded(postID, detail string) error {
	return l.record(postID, types.ActionUploadSucceeded, detail, false)
}

func (l *Log) UploadFailed(postID, reason string) error {
	return l.record(postID, types.ActionUploadFailed, reason, false)
}

func (l *Log) PostDiscarded(postID, reason string) error {
	return l.record(postID, types.ActionPostDiscarded, reason, false)
}

func (l *Log) CostExhausted(postID, reason string) error {
	return l.record(postID, types.ActionCostExhausted, reason, true)
}

func (l *Log) ErrorOccurred(postID, detail string) error {
	return l.record(postID, types.ActionErrorOccurred, detail, false)
}

func (l *Log) SalesFeedbackIngested(postID, detail string) error {
	return l.record(postID, types.ActionSalesFeedbackIngested, detail, false)
}

func (l *Log) PublishingSuppressed(postID, reason string) error {
	return l.record(postID, types.ActionPublishingSuppressed, reason, false)
}

// Recent returns the N most recent audit events, for the dashboard.
func (l *Log) Recent(limit int) ([]types.AuditEvent, error) {
	return l.store.ListAuditEvents(limit)
}
