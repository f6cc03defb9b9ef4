package agents

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/postforge/postforge/internal/llm"
	"github.com/postforge/postforge/internal/prompts"
	"github.com/postforge/postforge/internal/types"
)

// VerifyResult is the typed form of the verify stage's schema-gated
// output, including the example-quality hard-override gate supplemented
// from original_source/agents/verifier_agent.py.
type VerifyResult struct {
	Pass                    bool     `json:"pass"`
	ExampleQualityScore     int      `json:"example_quality_score"`
	GenericLanguageDetected bool     `json:"generic_language_detected"`
	MissingElements         []string `json:"missing_elements"`
}

// minExampleQualityScore below which a verdict is force-failed
// regardless of what the model reported for "pass", per the original
// verifier's override logic.
const minExampleQualityScore = 7

// VerifyAgent checks generated content against quality gates.
type VerifyAgent struct {
	gateway *llm.Gateway
}

func NewVerifyAgent(gw *llm.Gateway) *VerifyAgent {
	return &VerifyAgent{gateway: gw}
}

func (a *VerifyAgent) Run(ctx context.Context, post types.Post, content string) (*VerifyResult, error) {
	template, err := prompts.Get("stages.json", "verify")
	if err != nil {
		return nil, fmt.Errorf("load verify prompt: %w", err)
	}
	prompt := prompts.Format(template, map[string]string{
		"Content": content,
	})

	raw, err := a.gateway.CallStructured(ctx, post.PostID, types.StageVerify, "verify", llm.TierStandard, prompt)
	if err != nil {
		return nil, err
	}

	var result VerifyResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, fmt.Errorf("unmarshal verify result: %w", err)
	}

	// Hard override: a low example-quality score, detected generic
	// language, or any missing element forces failure even if the model
	// itself reported pass=true.
	if result.ExampleQualityScore < minExampleQualityScore || result.GenericLanguageDetected || len(result.MissingElements) > 0 {
		result.Pass = false
	}

	return &result, nil
}
