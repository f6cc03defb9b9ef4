package store

import (
	"fmt"
	"time"

	"github.com/postforge/postforge/internal/types"
)

// InsertCostEntry records one LLM call attempt, allowed or refused.
func (s *Store) InsertCostEntry(c types.CostEntry) error {
	ts := c.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err := s.db.Exec(
		`INSERT INTO cost_entries (post_id, stage, model, tokens_in, tokens_out, usd_cost, timestamp, allowed, abort_reason)
		 VALUES (?,?,?,?,?,?,?,?,?)`,
		nullableString(c.PostID), nullableString(string(c.Stage)), nullableString(c.Model),
		c.TokensIn, c.TokensOut, c.USDCost, unixMilli(ts), boolToInt(c.Allowed), nullableString(c.AbortReason),
	)
	if err != nil {
		return fmt.Errorf("insert cost_entry: %w", err)
	}
	return nil
}

// LifetimeSpend sums usd_cost across every allowed cost entry ever
// recorded, seeding a fresh Governor's lifetime budget at startup.
func (s *Store) LifetimeSpend() (float64, error) {
	var total float64
	err := s.db.QueryRow(`SELECT COALESCE(SUM(usd_cost), 0) FROM cost_entries WHERE allowed = 1`).Scan(&total)
	return total, err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
