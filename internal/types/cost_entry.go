package types

import "time"

// CostEntry records one LLM call's token usage and derived USD cost,
// whether the call was permitted or refused by the cost governor.
type CostEntry struct {
	ID          int64     `json:"id"`
	PostID      string    `json:"post_id,omitempty"`
	Stage       Stage     `json:"stage,omitempty"`
	Model       string    `json:"model"`
	TokensIn    int       `json:"tokens_in"`
	TokensOut   int       `json:"tokens_out"`
	USDCost     float64   `json:"usd_cost"`
	Timestamp   time.Time `json:"timestamp"`
	Allowed     bool      `json:"allowed"`
	AbortReason string    `json:"abort_reason,omitempty"`
}
