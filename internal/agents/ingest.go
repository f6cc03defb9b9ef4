package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/postforge/postforge/internal/remotes/forum"
	"github.com/postforge/postforge/internal/types"
)

// IngestAgent pulls candidate posts from every configured origin via the
// Fetcher factory (supplemented multi-source design, see SPEC_FULL.md
// §2.[FULL]).
type IngestAgent struct {
	useBrowserFallback bool
}

func NewIngestAgent(useBrowserFallback bool) *IngestAgent {
	return &IngestAgent{useBrowserFallback: useBrowserFallback}
}

// Run fetches posts for every "kind:identifier" origin in origins,
// skipping (not failing the whole run on) a single origin's fetch
// error — one dead subreddit should not block the whole ingest pass.
func (a *IngestAgent) Run(ctx context.Context, origins string, minScore, limitPerOrigin int) ([]types.Post, []error) {
	var posts []types.Post
	var errs []error

	for _, raw := range strings.Split(origins, ",") {
		pair := strings.TrimSpace(raw)
		if pair == "" {
			continue
		}
		parts := strings.SplitN(pair, ":", 2)
		if len(parts) != 2 {
			errs = append(errs, fmt.Errorf("malformed origin %q", pair))
			continue
		}

		fetcher, err := forum.New(strings.ToLower(parts[0]), a.useBrowserFallback)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		fetched, err := fetcher.Fetch(ctx, parts[1], minScore, limitPerOrigin)
		if err != nil {
			errs = append(errs, fmt.Errorf("fetch origin %s: %w", pair, err))
			continue
		}
		posts = append(posts, fetched...)
	}

	return posts, errs
}
