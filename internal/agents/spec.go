package agents

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/postforge/postforge/internal/llm"
	"github.com/postforge/postforge/internal/prompts"
	"github.com/postforge/postforge/internal/types"
)

// SpecResult is the typed form of the spec stage's schema-gated output.
// Build, Confidence, and the Deliverables count are the stage's three
// terminal gates: build=false, confidence<70, or fewer than three
// deliverables all end the post at REJECTED.
type SpecResult struct {
	Build         bool     `json:"build"`
	Type          string   `json:"type"` // one of: guide, template, prompt_pack
	Title         string   `json:"title"`
	Buyer         string   `json:"buyer"`
	JobToBeDone   string   `json:"job_to_be_done"`
	Deliverables  []string `json:"deliverables"`
	FailureReason string   `json:"failure_reason"`
	Price         float64  `json:"price"`
	Confidence    int      `json:"confidence"`
}

// SpecAgent turns a ProblemResult into a concrete product specification.
type SpecAgent struct {
	gateway *llm.Gateway
}

func NewSpecAgent(gw *llm.Gateway) *SpecAgent {
	return &SpecAgent{gateway: gw}
}

func (a *SpecAgent) Run(ctx context.Context, post types.Post, problem ProblemResult) (*SpecResult, error) {
	template, err := prompts.Get("stages.json", "spec")
	if err != nil {
		return nil, fmt.Errorf("load spec prompt: %w", err)
	}
	prompt := prompts.Format(template, map[string]string{
		"Problem":  problem.Summary,
		"Audience": problem.Audience,
	})

	raw, err := a.gateway.CallStructured(ctx, post.PostID, types.StageSpec, "spec", llm.TierStandard, prompt)
	if err != nil {
		return nil, err
	}

	var result SpecResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, fmt.Errorf("unmarshal spec result: %w", err)
	}
	return &result, nil
}
