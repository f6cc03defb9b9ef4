package llm

import (
	"context"
	"fmt"

	"github.com/postforge/postforge/internal/costgov"
	"github.com/postforge/postforge/internal/retrypolicy"
	"github.com/postforge/postforge/internal/schemas"
	"github.com/postforge/postforge/internal/types"
)

// Gateway is the sole path any stage agent uses to reach an LLM: every
// call passes the cost governor's pre-call gate, goes through
// retrypolicy's backoff on transient failure, and (for CallStructured)
// is validated against the calling stage's JSON Schema before it is
// trusted by the caller.
type Gateway struct {
	client Client
	gov    *costgov.Governor
}

func NewGateway(client Client, gov *costgov.Governor) *Gateway {
	return &Gateway{client: client, gov: gov}
}

// CallText runs a plain-text generation through the cost gate and retry
// policy, recording actual usage on success.
func (g *Gateway) CallText(ctx context.Context, postID string, stage types.Stage, tier ModelTier, prompt string) (string, error) {
	estIn := costgov.EstimateTokens(prompt)
	estOut := estIn // conservative symmetric estimate when no output-specific signal exists
	if err := g.gov.Check(stage, postID, estIn, estOut); err != nil {
		return "", err
	}

	var result string
	err := retrypolicy.Execute(ctx, retrypolicy.RemoteLLM, func() error {
		text, err := g.client.GenerateContent(ctx, prompt, tier)
		if err != nil {
			return &retrypolicy.TransientError{Err: err}
		}
		result = text
		return nil
	})
	if err != nil {
		return "", err
	}

	actualOut := costgov.EstimateTokens(result)
	if err := g.gov.Record(stage, postID, g.client.GetModel(tier), estIn, actualOut); err != nil {
		return "", fmt.Errorf("record usage: %w", err)
	}
	return result, nil
}

// CallStructured runs a JSON-mode generation through the same gate and
// retry policy, then validates the result against stageName's schema
// before returning it. A schema failure is returned unwrapped so callers
// (and retrypolicy.Classify) see *apperr.SchemaInvalid directly — it is
// never retried.
func (g *Gateway) CallStructured(ctx context.Context, postID string, stage types.Stage, stageName string, tier ModelTier, prompt string) (string, error) {
	estIn := costgov.EstimateTokens(prompt)
	estOut := estIn
	if err := g.gov.Check(stage, postID, estIn, estOut); err != nil {
		return "", err
	}

	var result string
	err := retrypolicy.Execute(ctx, retrypolicy.RemoteLLM, func() error {
		text, err := g.client.GenerateJSON(ctx, prompt, tier)
		if err != nil {
			return &retrypolicy.TransientError{Err: err}
		}
		result = text
		return nil
	})
	if err != nil {
		return "", err
	}

	actualOut := costgov.EstimateTokens(result)
	if err := g.gov.Record(stage, postID, g.client.GetModel(tier), estIn, actualOut); err != nil {
		return "", fmt.Errorf("record usage: %w", err)
	}

	if err := schemas.ValidateStage(stageName, result); err != nil {
		return "", err
	}
	return result, nil
}
