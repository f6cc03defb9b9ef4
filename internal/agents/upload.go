package agents

import (
	"context"
	"fmt"

	"github.com/postforge/postforge/internal/remotes/storefront"
	"github.com/postforge/postforge/internal/retrypolicy"
	"github.com/postforge/postforge/internal/types"
)

// UploadAgent pushes a finished listing to the storefront.
type UploadAgent struct {
	client storefront.Client
}

func NewUploadAgent(client storefront.Client) *UploadAgent {
	return &UploadAgent{client: client}
}

func (a *UploadAgent) Run(ctx context.Context, post types.Post, listing ListingResult, priceCents int) (*storefront.UploadResult, error) {
	var result *storefront.UploadResult
	err := retrypolicy.Execute(ctx, retrypolicy.RemoteStorefront, func() error {
		res, uerr := a.client.Upload(ctx, storefront.Listing{
			Title:      listing.Title,
			DescHTML:   listing.DescHTML,
			PriceCents: priceCents,
		})
		if uerr != nil {
			return uerr
		}
		result = res
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("upload post %s: %w", post.PostID, err)
	}
	return result, nil
}
