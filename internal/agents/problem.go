// Package agents implements the ingest agent and the six stage
// transformers that drive a post through the pipeline: problem, spec,
// content, verify, listing, upload.
package agents

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/postforge/postforge/internal/llm"
	"github.com/postforge/postforge/internal/prompts"
	"github.com/postforge/postforge/internal/types"
)

// ProblemResult is the typed form of the problem stage's schema-gated
// output. Discard is the stage's terminal gate: discard=true ends the
// post at DISCARDED without running any further stage.
type ProblemResult struct {
	Discard      bool     `json:"discard"`
	Summary      string   `json:"summary"`
	Audience     string   `json:"audience"`
	WhyMatters   string   `json:"why_matters"`
	BadSolutions []string `json:"bad_solutions"`
	Urgency      int      `json:"urgency"`
	Quotes       []string `json:"quotes"`
}

// ProblemAgent extracts a candidate problem statement from a post's
// title and body.
type ProblemAgent struct {
	gateway *llm.Gateway
}

func NewProblemAgent(gw *llm.Gateway) *ProblemAgent {
	return &ProblemAgent{gateway: gw}
}

func (a *ProblemAgent) Run(ctx context.Context, post types.Post) (*ProblemResult, error) {
	template, err := prompts.Get("stages.json", "problem")
	if err != nil {
		return nil, fmt.Errorf("load problem prompt: %w", err)
	}
	prompt := prompts.Format(template, map[string]string{
		"Title": post.Title,
		"Body":  post.Body,
	})

	raw, err := a.gateway.CallStructured(ctx, post.PostID, types.StageProblem, "problem", llm.TierLite, prompt)
	if err != nil {
		return nil, err
	}

	var result ProblemResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, fmt.Errorf("unmarshal problem result: %w", err)
	}
	return &result, nil
}
