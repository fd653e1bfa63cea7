// Package readable fetches a web page and extracts its readable article
// text for summarization.
package readable

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"

	"github.com/norihq/nori/internal/summary"
)

const defaultMaxChars = 12000

// Doc is the readable extraction of one page.
type Doc struct {
	URL      string `json:"url"`
	Title    string `json:"title"`
	Byline   string `json:"byline,omitempty"`
	SiteName string `json:"site_name,omitempty"`
	Text     string `json:"text"`
}

// Fetcher retrieves pages over plain HTTP and runs readability extraction.
type Fetcher struct {
	client   *http.Client
	maxChars int
}

func NewFetcher(timeout time.Duration, maxChars int) *Fetcher {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	if maxChars <= 0 {
		maxChars = defaultMaxChars
	}
	return &Fetcher{
		client:   &http.Client{Timeout: timeout},
		maxChars: maxChars,
	}
}

// Fetch downloads rawurl and extracts its main article text, clipped to
// the configured character budget.
func (f *Fetcher) Fetch(ctx context.Context, rawurl string) (Doc, error) {
	u, err := url.Parse(rawurl)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return Doc{}, fmt.Errorf("invalid article url %q", rawurl)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Doc{}, err
	}
	req.Header.Set("User-Agent", "nori-news-agent/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return Doc{}, fmt.Errorf("fetching article: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Doc{}, fmt.Errorf("fetching article: unexpected status %s", resp.Status)
	}

	article, err := readability.FromReader(resp.Body, u)
	if err != nil {
		return Doc{}, fmt.Errorf("extracting article: %w", err)
	}

	text := strings.Join(strings.Fields(article.TextContent), " ")
	return Doc{
		URL:      u.String(),
		Title:    article.Title,
		Byline:   article.Byline,
		SiteName: article.SiteName,
		Text:     summary.Truncate(text, f.maxChars),
	}, nil
}
