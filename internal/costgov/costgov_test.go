package costgov

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/postforge/postforge/internal/store"
	"github.com/postforge/postforge/internal/types"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	dir := t.TempDir()
	st, err := store.Open(filepath.Join(dir, "pipeline.db"), filepath.Join(dir, "artifacts"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestCheck_AllowsUnderBudget(t *testing.T) {
	st := newTestStore(t)
	gov := New(st, "run-1", 1000, 10.0, 100.0, 0, PriceTable{PriceInPerToken: 0.001, PriceOutPerToken: 0.002})

	require.NoError(t, gov.Check(types.StageContent, "p1", 100, 100))
}

func TestCheck_RefusesOverTokensPerRun(t *testing.T) {
	st := newTestStore(t)
	gov := New(st, "run-1", 100, 10.0, 100.0, 0, PriceTable{PriceInPerToken: 0.001, PriceOutPerToken: 0.002})

	err := gov.Check(types.StageContent, "p1", 80, 80)
	require.Error(t, err)

	var costErr *CostLimitExceeded
	require.True(t, errors.As(err, &costErr))
	require.Equal(t, "tokens_per_run", costErr.Which)
}

func TestCheck_RefusesOverUSDPerRun(t *testing.T) {
	st := newTestStore(t)
	gov := New(st, "run-1", 1000000, 0.01, 100.0, 0, PriceTable{PriceInPerToken: 1, PriceOutPerToken: 1})

	err := gov.Check(types.StageContent, "p1", 10, 10)
	require.Error(t, err)

	var costErr *CostLimitExceeded
	require.True(t, errors.As(err, &costErr))
	require.Equal(t, "usd_per_run", costErr.Which)
}

func TestCheck_RefusesOverUSDLifetime(t *testing.T) {
	st := newTestStore(t)
	gov := New(st, "run-1", 1000000, 100.0, 5.0, 4.99, PriceTable{PriceInPerToken: 1, PriceOutPerToken: 1})

	err := gov.Check(types.StageContent, "p1", 1, 1)
	require.Error(t, err)

	var costErr *CostLimitExceeded
	require.True(t, errors.As(err, &costErr))
	require.Equal(t, "usd_lifetime", costErr.Which)
}

func TestRecord_UpdatesRunningTotals(t *testing.T) {
	st := newTestStore(t)
	gov := New(st, "run-1", 1000, 10.0, 100.0, 0, PriceTable{PriceInPerToken: 0.01, PriceOutPerToken: 0.01})

	require.NoError(t, gov.Record(types.StageContent, "p1", "gemini-2.5-flash", 100, 100))

	ctx := gov.RunContext()
	require.Equal(t, 200, ctx.TokensSpent)
	require.InDelta(t, 2.0, ctx.USDSpentThisRun, 0.0001)
	require.InDelta(t, 2.0, ctx.USDSpentLifetime, 0.0001)

	// A subsequent check against the now-reduced remaining budget refuses.
	err := gov.Check(types.StageContent, "p1", 1000, 1000)
	require.Error(t, err)
}

func TestEstimateTokens_RoundsUp(t *testing.T) {
	require.Equal(t, 1, EstimateTokens("ab"))
	require.Equal(t, 0, EstimateTokens(""))
	require.Greater(t, EstimateTokens("hello world, this is a longer prompt"), 0)
}
