package forum

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// redirectTransport rewrites every outbound request to target regardless
// of the scheme/host the fetcher hardcodes, so Fetch can be exercised
// against an httptest.Server without reaching the real network.
type redirectTransport struct {
	target *url.URL
}

func (rt *redirectTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.URL.Scheme = rt.target.Scheme
	req.URL.Host = rt.target.Host
	return http.DefaultTransport.RoundTrip(req)
}

const sampleListing = `{
  "data": {
    "children": [
      {"data": {"id": "abc123", "title": "I need a better invoice tool", "selftext": "long body", "author": "u1", "permalink": "/r/x/abc123", "score": 50, "created_utc": 1700000000}},
      {"data": {"id": "low1", "title": "low score", "selftext": "x", "author": "u2", "permalink": "/r/x/low1", "score": 1, "created_utc": 1700000000}}
    ]
  }
}`

func newTestFetcher(srv *httptest.Server) *RedditFetcher {
	f := NewRedditFetcher(false)
	target, _ := url.Parse(srv.URL)
	f.httpClient.Transport = &redirectTransport{target: target}
	return f
}

func TestRedditFetcher_Fetch_FiltersByMinScore(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleListing))
	}))
	defer srv.Close()

	f := newTestFetcher(srv)
	posts, err := f.Fetch(context.Background(), "SideProject", 10, 25)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	require.Equal(t, "reddit:abc123", posts[0].PostID)
}

func TestRedditFetcher_Fetch_SanitizesTitleAndBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"children":[{"data":{"id":"x1","title":"title &amp; more","selftext":"body\u0000text","author":"u","permalink":"/r/x/x1","score":10,"created_utc":1700000000}}]}}`))
	}))
	defer srv.Close()

	f := newTestFetcher(srv)
	posts, err := f.Fetch(context.Background(), "SideProject", 0, 25)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	require.Equal(t, "title & more", posts[0].Title)
	require.NotContains(t, posts[0].Body, "\x00")
}

func TestRedditFetcher_Fetch_5xxIsRetriedThenFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := newTestFetcher(srv)
	_, err := f.Fetch(context.Background(), "SideProject", 0, 25)
	require.Error(t, err)
}

func TestRedditFetcher_Fetch_4xxFailsWithoutRetry(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	f := newTestFetcher(srv)
	_, err := f.Fetch(context.Background(), "SideProject", 0, 25)
	require.Error(t, err)
	require.Equal(t, 1, calls)
}

func TestExtractMainText_StripsChrome(t *testing.T) {
	html := `<html><body><header>nav</header><p>real content</p><footer>foot</footer></body></html>`
	got := extractMainText(html)
	require.Contains(t, got, "real content")
	require.False(t, strings.Contains(got, "nav") && strings.Contains(got, "foot"))
}
