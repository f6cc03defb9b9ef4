package sanitizer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIngress_DecodesEntitiesAndStripsControlChars(t *testing.T) {
	in := "Caf\x01\x00e &amp; Tea\r\nmore"
	got := Ingress(in)
	require.Equal(t, "Cafe & Tea\nmore", got)
}

func TestIngress_Empty(t *testing.T) {
	require.Equal(t, "", Ingress(""))
}

func TestStore_StripsNULAndControlAndKeepsNoLF(t *testing.T) {
	in := "line1\nline2\x00\x07"
	got := Store(in)
	require.Equal(t, "line1line2", got)
}

func TestStore_ReplacesInvalidUTF8(t *testing.T) {
	in := "valid" + string([]byte{0xff, 0xfe}) + "text"
	got := Store(in)
	require.True(t, len(got) > 0)
	require.NotContains(t, got, string([]byte{0xff}))
}

func TestIsSafeURL(t *testing.T) {
	cases := map[string]bool{
		"":                              true,
		"https://example.com":           true,
		"http://example.com/a?b=c":      true,
		"javascript:alert(1)":           false,
		"JAVASCRIPT:alert(1)":           false,
		"data:text/html;base64,abcd":    false,
		"vbscript:msgbox(1)":            false,
		"file:///etc/passwd":            false,
		"  javascript:alert(1)":         false,
	}
	for url, want := range cases {
		require.Equal(t, want, IsSafeURL(url), "url=%q", url)
	}
}
