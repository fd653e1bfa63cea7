// Package news adapts the external news provider into normalized article
// records.
package news

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/norihq/nori/config"
	"github.com/norihq/nori/internal/httpx"
	"github.com/norihq/nori/internal/intent"
	"github.com/norihq/nori/internal/telemetry"
)

// DefaultPageSize bounds downstream fan-out cost.
const DefaultPageSize = 5

// generalQuery is issued when neither query text nor topic is present;
// the provider rejects empty q parameters.
const generalQuery = "technology OR startups OR AI"

// Article is a normalized news item. Missing provider fields become empty
// strings, never a parse failure.
type Article struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Source      string `json:"source,omitempty"`
	Description string `json:"description,omitempty"`
}

// ProviderError indicates the upstream news call could not be completed or
// its payload could not be parsed.
type ProviderError struct {
	Malformed bool
	Err       error
}

func (e *ProviderError) Error() string {
	if e.Malformed {
		return fmt.Sprintf("news provider returned malformed response: %v", e.Err)
	}
	return fmt.Sprintf("news provider unavailable: %v", e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Client queries the news provider. Construct with NewClient; the cache is
// optional and nil-safe.
type Client struct {
	cfg     config.NewsConfig
	http    *httpx.Client
	limiter *rate.Limiter
	cache   *Cache
	logger  *log.Logger
}

func NewClient(cfg config.NewsConfig, cache *Cache) *Client {
	burst := cfg.PageSize
	if burst < 1 {
		burst = 1
	}
	return &Client{
		cfg:     cfg,
		http:    httpx.New(cfg.Timeout, cfg.MaxRetries, 0),
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSec), burst),
		cache:   cache,
		logger:  log.New(log.Writer(), "[NEWS] ", log.LstdFlags),
	}
}

// Search returns up to pageSize articles matching the query. The provider's
// items are normalized defensively: a single malformed item is skipped, not
// fatal. A nil error always means a well-formed (possibly empty) result.
func (c *Client) Search(ctx context.Context, q intent.Query, pageSize int) ([]Article, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	params := c.buildParams(q, pageSize)
	key := cacheKey(params)
	if cached, ok := c.cache.Get(ctx, key); ok {
		telemetry.CacheLookups.WithLabelValues("hit").Inc()
		return cached, nil
	}
	telemetry.CacheLookups.WithLabelValues("miss").Inc()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &ProviderError{Err: err}
	}

	endpoint := c.cfg.Endpoint
	if endpoint == "" {
		endpoint = "https://newsapi.org/v2/everything"
	}
	headers := map[string]string{"X-Api-Key": c.cfg.APIKey}
	raw, err := c.http.DoJSONRaw(ctx, "GET", endpoint+"?"+params.Encode(), headers, nil)
	if err != nil {
		telemetry.ProviderRequests.WithLabelValues("newsapi", "error").Inc()
		return nil, &ProviderError{Err: err}
	}
	telemetry.ProviderRequests.WithLabelValues("newsapi", "ok").Inc()

	articles, err := decodeArticles(raw, pageSize)
	if err != nil {
		return nil, &ProviderError{Malformed: true, Err: err}
	}

	c.cache.Set(ctx, key, articles)
	c.logger.Printf("fetched %d articles for %q", len(articles), params.Get("q"))
	return articles, nil
}

func (c *Client) buildParams(q intent.Query, pageSize int) url.Values {
	params := url.Values{}
	text := q.ResolvedQuery
	if text == "" {
		text = q.Topic
	}
	if text == "" {
		text = generalQuery
	}
	params.Set("q", text)
	params.Set("sortBy", "publishedAt")
	params.Set("pageSize", fmt.Sprintf("%d", pageSize))

	lang := c.cfg.Language
	if lang == "" {
		lang = "en"
	}
	params.Set("language", lang)

	if q.Region != "" {
		params.Set("country", q.Region)
	}
	if q.RecencyDays > 0 {
		from := time.Now().UTC().AddDate(0, 0, -q.RecencyDays)
		params.Set("from", from.Format("2006-01-02"))
	}
	return params
}

// decodeArticles tolerates per-item damage: the article list must decode,
// individual items that do not are skipped.
func decodeArticles(raw []byte, pageSize int) ([]Article, error) {
	var resp struct {
		Articles []json.RawMessage `json:"articles"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, err
	}

	articles := make([]Article, 0, len(resp.Articles))
	for _, item := range resp.Articles {
		var a struct {
			Title       string `json:"title"`
			URL         string `json:"url"`
			Description string `json:"description"`
			Source      struct {
				Name string `json:"name"`
			} `json:"source"`
		}
		if err := json.Unmarshal(item, &a); err != nil {
			continue
		}
		if a.Title == "" && a.URL == "" {
			continue
		}
		articles = append(articles, Article{
			Title:       a.Title,
			URL:         a.URL,
			Source:      a.Source.Name,
			Description: a.Description,
		})
		if len(articles) >= pageSize {
			break
		}
	}
	return articles, nil
}
