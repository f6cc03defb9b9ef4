package forum

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"

	"github.com/postforge/postforge/internal/retrypolicy"
	"github.com/postforge/postforge/internal/sanitizer"
	"github.com/postforge/postforge/internal/types"
)

const (
	userAgent          = "Mozilla/5.0 (compatible; PostForge/1.0)"
	minContentLength   = 500
	defaultHTTPTimeout = 30 * time.Second
)

// RedditFetcher retrieves candidate posts from a subreddit's public JSON
// listing endpoint. It falls back to a headless-browser render only when
// that listing's HTML body (used for post bodies lacking selftext) comes
// back thin, mirroring the teacher's ShouldUseBrowser heuristic.
type RedditFetcher struct {
	httpClient         *http.Client
	useBrowserFallback bool
}

func NewRedditFetcher(useBrowserFallback bool) *RedditFetcher {
	return &RedditFetcher{
		httpClient:         &http.Client{Timeout: defaultHTTPTimeout},
		useBrowserFallback: useBrowserFallback,
	}
}

type redditListing struct {
	Data struct {
		Children []struct {
			Data struct {
				ID        string  `json:"id"`
				Title     string  `json:"title"`
				Selftext  string  `json:"selftext"`
				Author    string  `json:"author"`
				Permalink string  `json:"permalink"`
				Score     int     `json:"score"`
				CreatedUT float64 `json:"created_utc"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// Fetch retrieves up to limit posts from r/<origin> scoring at least
// minScore, sanitizing title/body through the ingress context before
// returning them.
func (f *RedditFetcher) Fetch(ctx context.Context, origin string, minScore, limit int) ([]types.Post, error) {
	url := fmt.Sprintf("https://www.reddit.com/r/%s/top.json?limit=%d&t=week", origin, limit)

	var body []byte
	err := retrypolicy.Execute(ctx, retrypolicy.RemoteForum, func() error {
		b, ferr := f.fetchJSON(ctx, url)
		if ferr != nil {
			return ferr
		}
		body = b
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetch subreddit %s: %w", origin, err)
	}

	var listing redditListing
	if err := json.Unmarshal(body, &listing); err != nil {
		return nil, fmt.Errorf("parse reddit listing for %s: %w", origin, err)
	}

	now := time.Now()
	var posts []types.Post
	for _, child := range listing.Data.Children {
		d := child.Data
		if d.Score < minScore {
			continue
		}

		text := d.Selftext
		if f.useBrowserFallback && len(strings.TrimSpace(text)) < minContentLength {
			if rendered, berr := f.renderWithBrowser(ctx, "https://www.reddit.com"+d.Permalink); berr == nil {
				text = extractMainText(rendered)
			}
		}

		posts = append(posts, types.Post{
			PostID:     "reddit:" + d.ID,
			Source:     "reddit:" + origin,
			Title:      sanitizer.Ingress(d.Title),
			Body:       sanitizer.Ingress(text),
			Author:     d.Author,
			URL:        "https://www.reddit.com" + d.Permalink,
			Score:      d.Score,
			CreatedAt:  time.Unix(int64(d.CreatedUT), 0),
			IngestedAt: now,
		})
	}
	return posts, nil
}

func (f *RedditFetcher) fetchJSON(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, &retrypolicy.TransientError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return nil, &retrypolicy.TransientError{Err: fmt.Errorf("reddit returned status %d", resp.StatusCode)}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("reddit returned non-retryable status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// renderWithBrowser renders a JS-heavy permalink page in headless Chrome,
// adapted from the teacher's fetch.WithBrowser.
func (f *RedditFetcher) renderWithBrowser(ctx context.Context, url string) (string, error) {
	allocCtx, cancel := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
		)...,
	)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	browserCtx, cancel = context.WithTimeout(browserCtx, defaultHTTPTimeout)
	defer cancel()

	var html string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		chromedp.Sleep(2*time.Second),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return "", fmt.Errorf("browser render failed: %w", err)
	}
	return html, nil
}

func extractMainText(htmlStr string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlStr))
	if err != nil {
		return ""
	}
	doc.Find("nav, footer, header, script, style, noscript").Remove()
	return strings.TrimSpace(doc.Find("body").Text())
}

// parseScore converts a score given as a decimal string to an int,
// returning 0 when it does not parse. Nothing in the package calls it;
// the Reddit path decodes scores as JSON numbers.
func parseScore(raw string) int {
	n, _ := strconv.Atoi(raw)
	return n
}
