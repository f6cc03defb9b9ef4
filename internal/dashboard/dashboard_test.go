package dashboard

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/postforge/postforge/internal/store"
	"github.com/postforge/postforge/internal/types"
)

func newTestServer(t *testing.T) (*Server, *store.Store) {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "pipeline.db")
	st, err := store.Open(dbPath, filepath.Join(dir, "artifacts"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.InsertPost(types.Post{PostID: "p1", Source: "reddit:SideProject", Title: "t1", Body: "b1"}))
	_, err = st.InsertStageRun(types.StageRun{
		PostID:     "p1",
		Stage:      types.StageUpload,
		Attempt:    1,
		Status:     types.StatusCompleted,
		StartedAt:  time.Now(),
		FinishedAt: time.Now(),
	})
	require.NoError(t, err)

	srv, err := New("127.0.0.1:0", st)
	require.NoError(t, err)
	return srv, st
}

func TestHandleHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	srv.handleHealth(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
}

func TestHandleStats(t *testing.T) {
	srv, _ := newTestServer(t)
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	srv.handleStats(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "UPLOADED")
}

func TestHandlePosts(t *testing.T) {
	srv, _ := newTestServer(t)
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
	srv.handlePosts(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "p1")
}

func TestHandleIndexRendersHTML(t *testing.T) {
	srv, _ := newTestServer(t)
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	srv.handleIndex(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "postforge")
}
