// Package costgov implements the pre-call budget gate and post-call usage
// recording for LLM calls: three budgets (per-run tokens, per-run spend,
// lifetime spend) checked in that order before any call is made.
package costgov

import (
	"fmt"
	"math"

	"github.com/postforge/postforge/internal/store"
	"github.com/postforge/postforge/internal/types"
)

// CostLimitExceeded is returned by Check when a hypothetical call would
// exceed one of the three budgets. RetryPolicy must never retry it.
type CostLimitExceeded struct {
	Which  string
	Actual float64
	Limit  float64
}

func (e *CostLimitExceeded) Error() string {
	return fmt.Sprintf("cost limit exceeded (%s): %.4f > %.4f", e.Which, e.Actual, e.Limit)
}

// Governor enforces RunContext's three budgets against a Store's
// persisted cost history.
type Governor struct {
	store *store.Store
	ctx   *types.RunContext
	price PriceTable
}

// PriceTable gives the per-token USD price for a model, split input vs
// output, matching CostEntry.usd_cost = tokens_in*price_in + tokens_out*price_out.
type PriceTable struct {
	PriceInPerToken  float64
	PriceOutPerToken float64
}

// New builds a Governor for one orchestrator run. lifetimeSpent is read
// once at startup from the store's full cost-entry history.
func New(s *store.Store, runID string, maxTokens int, maxUSDRun, maxUSDLifetime float64, lifetimeSpent float64, price PriceTable) *Governor {
	return &Governor{
		store: s,
		ctx: &types.RunContext{
			RunID:            runID,
			MaxTokensPerRun:  maxTokens,
			MaxUSDPerRun:     maxUSDRun,
			MaxUSDLifetime:   maxUSDLifetime,
			USDSpentLifetime: lifetimeSpent,
		},
		price: price,
	}
}

// EstimateTokens approximates a prompt's token count as
// ceil(len(text)/3.5), rounding up. It is the only estimator in the
// package: no model-specific tokenizer is consulted, and the gateway
// uses this heuristic for every call.
func EstimateTokens(text string) int {
	return int(math.Ceil(float64(len(text)) / 3.5))
}

// Check runs the three-budget gate in order (tokens, run cost, lifetime
// cost) for a hypothetical call of the given size. On refusal it
// persists a disallowed CostEntry and returns *CostLimitExceeded; the
// caller must not make the LLM call.
func (g *Governor) Check(stage types.Stage, postID string, estTokensIn, estTokensOut int) error {
	estUSD := float64(estTokensIn)*g.price.PriceInPerToken + float64(estTokensOut)*g.price.PriceOutPerToken
	reason := g.ctx.Exhausted(estTokensIn+estTokensOut, estUSD)
	if reason == "" {
		return nil
	}

	limit := g.limitFor(reason)
	actual := g.actualFor(reason, estTokensIn+estTokensOut, estUSD)

	_ = g.store.InsertCostEntry(types.CostEntry{
		PostID:      postID,
		Stage:       stage,
		TokensIn:    estTokensIn,
		TokensOut:   estTokensOut,
		USDCost:     0,
		Allowed:     false,
		AbortReason: reason,
	})

	return &CostLimitExceeded{Which: reason, Actual: actual, Limit: limit}
}

func (g *Governor) limitFor(reason string) float64 {
	switch reason {
	case "tokens_per_run":
		return float64(g.ctx.MaxTokensPerRun)
	case "usd_per_run":
		return g.ctx.MaxUSDPerRun
	default:
		return g.ctx.MaxUSDLifetime
	}
}

func (g *Governor) actualFor(reason string, tokens int, usd float64) float64 {
	switch reason {
	case "tokens_per_run":
		return float64(g.ctx.TokensSpent + tokens)
	case "usd_per_run":
		return g.ctx.USDSpentThisRun + usd
	default:
		return g.ctx.USDSpentLifetime + usd
	}
}

// Record persists actual usage after a permitted call completes,
// updating the in-memory run/lifetime totals so subsequent Check calls
// see the new balance.
func (g *Governor) Record(stage types.Stage, postID, model string, tokensIn, tokensOut int) error {
	usd := float64(tokensIn)*g.price.PriceInPerToken + float64(tokensOut)*g.price.PriceOutPerToken

	g.ctx.TokensSpent += tokensIn + tokensOut
	g.ctx.USDSpentThisRun += usd
	g.ctx.USDSpentLifetime += usd

	return g.store.InsertCostEntry(types.CostEntry{
		PostID:    postID,
		Stage:     stage,
		Model:     model,
		TokensIn:  tokensIn,
		TokensOut: tokensOut,
		USDCost:   usd,
		Allowed:   true,
	})
}

// RunContext exposes the current budget snapshot, e.g. for dashboard
// reporting or tests.
func (g *Governor) RunContext() types.RunContext {
	return *g.ctx
}
