package sanitizer

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// dangerousTags mirrors InputSanitizer.dangerous_tags from the original
// implementation, expressed as a single goquery selector instead of
// per-tag regexes.
const dangerousTagSelector = "script, iframe, object, embed, applet, style, form, base"

// Listing sanitizes text destined for the storefront's rendered listing
// page. Unlike Ingress/Store it is deliberately aggressive: it parses the
// input as an HTML fragment, drops every dangerous element outright,
// strips every "on*" event-handler attribute, neutralizes unsafe URL
// schemes in href/src, and HTML-escapes the remaining text — even where
// this discards legitimate author-authored raw HTML embedded in
// markdown. Storefront-upload safety outranks markdown fidelity; this is
// an explicit, deliberate choice (see DESIGN.md Open Question 1).
func Listing(text string) (string, error) {
	if text == "" {
		return "", nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err != nil {
		return "", err
	}

	doc.Find(dangerousTagSelector).Remove()

	doc.Find("*").Each(func(_ int, sel *goquery.Selection) {
		stripEventHandlers(sel)
		neutralizeUnsafeURLs(sel)
	})

	rendered, err := doc.Find("body").Html()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(rendered), nil
}

func stripEventHandlers(sel *goquery.Selection) {
	node := sel.Get(0)
	if node == nil {
		return
	}
	var toRemove []string
	for _, attr := range node.Attr {
		if strings.HasPrefix(strings.ToLower(attr.Key), "on") {
			toRemove = append(toRemove, attr.Key)
		}
	}
	for _, key := range toRemove {
		sel.RemoveAttr(key)
	}
}

func neutralizeUnsafeURLs(sel *goquery.Selection) {
	for _, attr := range []string{"href", "src"} {
		if val, ok := sel.Attr(attr); ok && !IsSafeURL(val) {
			sel.SetAttr(attr, "#")
		}
	}
}
