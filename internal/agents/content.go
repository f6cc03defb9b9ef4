package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/postforge/postforge/internal/llm"
	"github.com/postforge/postforge/internal/prompts"
	"github.com/postforge/postforge/internal/sanitizer"
	"github.com/postforge/postforge/internal/types"
)

// ContentAgent generates the full product content (markdown) from a
// SpecResult. Content is freeform, not schema-gated — verification
// happens as a separate stage.
type ContentAgent struct {
	gateway *llm.Gateway
}

func NewContentAgent(gw *llm.Gateway) *ContentAgent {
	return &ContentAgent{gateway: gw}
}

func (a *ContentAgent) Run(ctx context.Context, post types.Post, spec SpecResult) (string, error) {
	template, err := prompts.Get("stages.json", "content")
	if err != nil {
		return "", fmt.Errorf("load content prompt: %w", err)
	}
	prompt := prompts.Format(template, map[string]string{
		"Title":    spec.Title,
		"Summary":  spec.JobToBeDone,
		"Features": strings.Join(spec.Deliverables, "\n- "),
	})

	raw, err := a.gateway.CallText(ctx, post.PostID, types.StageContent, llm.TierAdvanced, prompt)
	if err != nil {
		return "", err
	}

	sanitized, err := sanitizer.Listing(raw)
	if err != nil {
		return "", fmt.Errorf("sanitize content: %w", err)
	}
	return sanitized, nil
}
