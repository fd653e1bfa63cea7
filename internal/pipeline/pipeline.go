// Package pipeline coordinates one search+summarize run: article retrieval,
// bounded concurrent summarization, and assembly of the aggregated result.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/norihq/nori/internal/intent"
	"github.com/norihq/nori/internal/news"
	"github.com/norihq/nori/internal/summary"
	"github.com/norihq/nori/internal/telemetry"
)

// State is the terminal state of a pipeline run.
type State string

const (
	// StateCompleted: retrieval succeeded; per-article summarization may
	// have degraded but never voids the run.
	StateCompleted State = "completed"
	// StateCompletedEmpty: retrieval succeeded with zero articles.
	StateCompletedEmpty State = "completed_empty"
	// StateFailed: the article source itself was unreachable or rejected
	// the query. The only failure path.
	StateFailed State = "failed"
)

// Item pairs an article with its summarization outcome. Order matches the
// article source's returned order.
type Item struct {
	Article news.Article
	Summary summary.Outcome
}

// SummaryText resolves the text to present for the item: the summary on
// success, else the article's description or title.
func (it Item) SummaryText() string {
	if !it.Summary.Failed() && strings.TrimSpace(it.Summary.Text) != "" {
		return it.Summary.Text
	}
	if it.Article.Description != "" {
		return it.Article.Description
	}
	return it.Article.Title
}

// Result is the aggregated outcome of one pipeline run. Built exactly once
// per run; immutable afterwards.
type Result struct {
	Query intent.Query
	Items []Item
	State State
	Err   error
}

// Searcher is the article retrieval dependency.
type Searcher interface {
	Search(ctx context.Context, q intent.Query, pageSize int) ([]news.Article, error)
}

// Summarizer is the per-article summarization dependency.
type Summarizer interface {
	Summarize(ctx context.Context, text string) summary.Outcome
}

// Orchestrator fans one summarization call out per retrieved article and
// fans back in once every call has settled.
type Orchestrator struct {
	search            Searcher
	summarizer        Summarizer
	pageSize          int
	perArticleTimeout time.Duration
	logger            *log.Logger
}

func NewOrchestrator(search Searcher, summarizer Summarizer, pageSize int, perArticleTimeout time.Duration) *Orchestrator {
	if pageSize <= 0 {
		pageSize = news.DefaultPageSize
	}
	if perArticleTimeout <= 0 {
		perArticleTimeout = 15 * time.Second
	}
	return &Orchestrator{
		search:            search,
		summarizer:        summarizer,
		pageSize:          pageSize,
		perArticleTimeout: perArticleTimeout,
		logger:            log.New(log.Writer(), "[PIPELINE] ", log.LstdFlags),
	}
}

// Run executes the full pipeline for the query. Only an article-source
// failure yields StateFailed; per-article summarization failures degrade
// to the article's own description or title and the run still completes.
func (o *Orchestrator) Run(ctx context.Context, q intent.Query) Result {
	start := time.Now()
	defer func() {
		telemetry.PipelineDuration.Observe(time.Since(start).Seconds())
	}()

	articles, err := o.search.Search(ctx, q, o.pageSize)
	if err != nil {
		o.logger.Printf("search failed for %q: %v", q.ResolvedQuery, err)
		telemetry.PipelineRuns.WithLabelValues(string(StateFailed)).Inc()
		return Result{Query: q, State: StateFailed, Err: err}
	}
	if len(articles) == 0 {
		telemetry.PipelineRuns.WithLabelValues(string(StateCompletedEmpty)).Inc()
		return Result{Query: q, Items: []Item{}, State: StateCompletedEmpty}
	}

	// Fan out one call per article; the batch is already bounded by
	// pageSize so no extra concurrency cap is needed. Results are written
	// positionally so item order always matches article order, regardless
	// of completion order.
	items := make([]Item, len(articles))
	var wg sync.WaitGroup
	for i, a := range articles {
		wg.Add(1)
		go func(i int, a news.Article) {
			defer wg.Done()
			items[i] = Item{Article: a, Summary: o.summarizeOne(ctx, a)}
		}(i, a)
	}
	wg.Wait()

	telemetry.PipelineRuns.WithLabelValues(string(StateCompleted)).Inc()
	return Result{Query: q, Items: items, State: StateCompleted}
}

// summarizeOne runs a single bounded summarization call. Panics and
// timeouts are captured as failed outcomes so one broken article never
// aborts the batch.
func (o *Orchestrator) summarizeOne(ctx context.Context, a news.Article) (out summary.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Printf("summarizer panic for %q: %v", a.URL, r)
			out = summary.Failure(fmt.Errorf("summarizer panic: %v", r))
		}
	}()

	cctx, cancel := context.WithTimeout(ctx, o.perArticleTimeout)
	defer cancel()

	text := a.Title
	if a.Description != "" {
		text = text + ". " + a.Description
	}
	return o.summarizer.Summarize(cctx, text)
}
