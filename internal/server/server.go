package server

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/norihq/nori/config"
	"github.com/norihq/nori/internal/intent"
	"github.com/norihq/nori/internal/news"
	"github.com/norihq/nori/internal/pipeline"
	"github.com/norihq/nori/internal/readable"
	"github.com/norihq/nori/internal/summary"
	"github.com/norihq/nori/internal/telex"
)

// Run builds the full dependency graph and serves HTTP until the listener
// fails.
func Run(addr string, cfg *config.Config) error {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	baseLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Content-Type"},
	}))

	cache, err := news.NewCache(context.Background(), cfg.Cache)
	if err != nil {
		return fmt.Errorf("connecting search cache: %w", err)
	}
	if cache != nil {
		defer cache.Close()
	}

	extractor := intent.New()
	newsClient := news.NewClient(cfg.News, cache)
	summarizer := summary.New(cfg.Summarizer)
	orch := pipeline.NewOrchestrator(newsClient, summarizer, cfg.News.PageSize, cfg.Summarizer.PerArticleTimeout)
	fetcher := readable.NewFetcher(cfg.General.DefaultTimeout, 0)
	notifier := telex.NewClient(cfg.Telex)

	card := AgentCard{
		ID:           cfg.Server.AgentID,
		Name:         "Nori",
		Description:  "Nori — friendly news summarizer",
		Capabilities: []string{"news.search", "news.fetch", "notifications"},
		Endpoints: map[string]string{
			"a2a":    cfg.Server.PublicURL + "/a2a/jsonrpc",
			"events": cfg.Server.PublicURL + "/webhook/events",
		},
	}

	dispatcher := NewDispatcher(extractor, orch, fetcher, summarizer, card)
	webhook := NewWebhookHandler(extractor, orch, notifier, 0)

	rpc := func(c echo.Context) error {
		body, err := io.ReadAll(c.Request().Body)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "unreadable request body")
		}
		resp := dispatcher.Handle(c.Request().Context(), body)
		return c.JSON(http.StatusOK, resp)
	}
	e.POST("/a2a/nori", rpc)
	e.POST("/a2a/jsonrpc", rpc)
	e.POST("/webhook/events", webhook.Handle)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok", "agent": "Nori"})
	})
	e.GET("/.well-known/agent.json", func(c echo.Context) error {
		return c.JSON(http.StatusOK, card)
	})
	if cfg.Telemetry.Enabled {
		e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	}

	return e.Start(addr)
}
