package sanitizer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestListing_RemovesScriptTags(t *testing.T) {
	out, err := Listing(`<p>hello</p><script>alert(1)</script>`)
	require.NoError(t, err)
	require.NotContains(t, out, "<script")
	require.Contains(t, out, "hello")
}

func TestListing_StripsEventHandlerAttributes(t *testing.T) {
	out, err := Listing(`<img src="a.png" onerror="alert(1)">`)
	require.NoError(t, err)
	require.NotContains(t, out, "onerror")
}

func TestListing_NeutralizesUnsafeHref(t *testing.T) {
	out, err := Listing(`<a href="javascript:alert(1)">click</a>`)
	require.NoError(t, err)
	require.Contains(t, out, `href="#"`)
}

func TestListing_KeepsSafeLinks(t *testing.T) {
	out, err := Listing(`<a href="https://example.com">click</a>`)
	require.NoError(t, err)
	require.Contains(t, out, "https://example.com")
}

func TestListing_Empty(t *testing.T) {
	out, err := Listing("")
	require.NoError(t, err)
	require.Equal(t, "", out)
}
