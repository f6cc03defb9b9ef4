package store

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/postforge/postforge/internal/types"
)

func TestInsertCostEntryAndLifetimeSpend(t *testing.T) {
	st := newOpenTestStore(t)

	require.NoError(t, st.InsertCostEntry(types.CostEntry{
		PostID: "p1", Stage: types.StageContent, Model: "gemini-2.5-flash",
		TokensIn: 100, TokensOut: 50, USDCost: 1.25, Allowed: true,
	}))
	require.NoError(t, st.InsertCostEntry(types.CostEntry{
		PostID: "p1", Stage: types.StageContent,
		TokensIn: 100, TokensOut: 50, USDCost: 0, Allowed: false, AbortReason: "tokens_per_run",
	}))

	total, err := st.LifetimeSpend()
	require.NoError(t, err)
	require.InDelta(t, 1.25, total, 0.0001)
}

func TestLifetimeSpend_ZeroWhenEmpty(t *testing.T) {
	st := newOpenTestStore(t)
	total, err := st.LifetimeSpend()
	require.NoError(t, err)
	require.Equal(t, 0.0, total)
}
