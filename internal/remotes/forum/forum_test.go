package forum

import "testing"

func TestNew_UnsupportedKindReturnsError(t *testing.T) {
	_, err := New("hackernews", false)
	if err == nil {
		t.Fatal("expected error for unsupported kind")
	}
}

func TestNew_RedditReturnsFetcher(t *testing.T) {
	f, err := New("reddit", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f == nil {
		t.Fatal("expected non-nil fetcher")
	}
}
