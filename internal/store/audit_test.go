package store

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/postforge/postforge/internal/types"
)

func TestAppendAuditEventAndList(t *testing.T) {
	st := newOpenTestStore(t)

	require.NoError(t, st.AppendAuditEvent(types.AuditEvent{PostID: "p1", Action: types.ActionPostIngested, Detail: "reddit:SideProject"}))
	require.NoError(t, st.AppendAuditEvent(types.AuditEvent{PostID: "p1", Action: types.ActionCostExhausted, CostExhaustedFlag: true}))

	events, err := st.ListAuditEvents(10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, types.ActionCostExhausted, events[0].Action)
	require.True(t, events[0].CostExhaustedFlag)
}

func TestListAuditEvents_RespectsLimit(t *testing.T) {
	st := newOpenTestStore(t)
	for i := 0; i < 5; i++ {
		require.NoError(t, st.AppendAuditEvent(types.AuditEvent{Action: types.ActionPostIngested}))
	}
	events, err := st.ListAuditEvents(2)
	require.NoError(t, err)
	require.Len(t, events, 2)
}

// TestAuditLogNeverUpdatedOrDeleted statically checks that no source file
// in this package issues an UPDATE or DELETE against audit_log, since
// SQLite itself cannot enforce append-only semantics.
func TestAuditLogNeverUpdatedOrDeleted(t *testing.T) {
	entries, err := os.ReadDir(".")
	require.NoError(t, err)

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".go") || strings.HasSuffix(e.Name(), "_test.go") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(".", e.Name()))
		require.NoError(t, err)
		lower := strings.ToLower(string(data))
		require.NotContains(t, lower, "update audit_log", "file %s", e.Name())
		require.NotContains(t, lower, "delete from audit_log", "file %s", e.Name())
	}
}
