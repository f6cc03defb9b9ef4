// Package forum provides the pluggable ingestion-source interface and a
// concrete Reddit-shaped HTTP fetcher with an HTML-scraping path and a
// headless-browser fallback for JS-rendered listings.
package forum

import (
	"context"

	"github.com/postforge/postforge/internal/types"
)

// Fetcher is the one interface every ingestion source satisfies,
// generalizing the distilled specification's single "forum client" back
// to the original implementation's pluggable source factory
// (reddit/hackernews/rss/file).
type Fetcher interface {
	// Fetch retrieves up to limit candidate posts scoring at least
	// minScore from the named origin (e.g. subreddit name, RSS URL).
	Fetch(ctx context.Context, origin string, minScore, limit int) ([]types.Post, error)
}

// New builds the Fetcher for one "kind:identifier" origin pair (see
// config.validateOrigins), as produced by splitting a configured
// ORIGINS entry.
func New(kind string, useBrowserFallback bool) (Fetcher, error) {
	switch kind {
	case "reddit":
		return NewRedditFetcher(useBrowserFallback), nil
	default:
		return nil, unsupportedKindError(kind)
	}
}

type unsupportedKindError string

func (e unsupportedKindError) Error() string {
	return "unsupported origin kind: " + string(e)
}
