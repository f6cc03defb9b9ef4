package agents

import (
	"context"
	"fmt"

	"github.com/postforge/postforge/internal/llm"
	"github.com/postforge/postforge/internal/prompts"
	"github.com/postforge/postforge/internal/sanitizer"
	"github.com/postforge/postforge/internal/types"
)

// ListingResult is the sanitized storefront-listing copy produced from
// verified content.
type ListingResult struct {
	Title    string
	DescHTML string
}

// ListingAgent generates storefront listing copy and runs it through the
// aggressive "listing" sanitizer context before it is trusted for
// upload.
type ListingAgent struct {
	gateway *llm.Gateway
}

func NewListingAgent(gw *llm.Gateway) *ListingAgent {
	return &ListingAgent{gateway: gw}
}

func (a *ListingAgent) Run(ctx context.Context, post types.Post, spec SpecResult, content string) (*ListingResult, error) {
	template, err := prompts.Get("stages.json", "listing")
	if err != nil {
		return nil, fmt.Errorf("load listing prompt: %w", err)
	}
	prompt := prompts.Format(template, map[string]string{
		"Title":   spec.Title,
		"Content": content,
	})

	raw, err := a.gateway.CallText(ctx, post.PostID, types.StageListing, llm.TierStandard, prompt)
	if err != nil {
		return nil, err
	}

	sanitized, err := sanitizer.Listing(raw)
	if err != nil {
		return nil, fmt.Errorf("sanitize listing copy: %w", err)
	}

	return &ListingResult{Title: spec.Title, DescHTML: sanitized}, nil
}
