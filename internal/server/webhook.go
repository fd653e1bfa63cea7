package server

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/norihq/nori/internal/intent"
	"github.com/norihq/nori/internal/pipeline"
	"github.com/norihq/nori/internal/protocol"
)

// newsKeywords is the cheap gate deciding whether a chat message warrants
// a news lookup at all. Anything else is acknowledged and dropped.
var newsKeywords = []string{
	"news", "headline", "headlines", "latest", "update", "updates",
	"what's happening", "whats happening", "top stories",
	"technology", "tech", "business", "sports", "health", "science",
	"politics", "entertainment",
}

// Notifier delivers the final digest to the originating user.
type Notifier interface {
	Notify(ctx context.Context, recipientID, text string) error
}

// WebhookHandler ingests chat-platform events. Event acceptance is
// decoupled from processing: the handler acknowledges immediately and the
// retrieval/summarization/notify sequence runs as a detached task.
type WebhookHandler struct {
	extractor *intent.Extractor
	pipeline  *pipeline.Orchestrator
	notifier  Notifier
	timeout   time.Duration
	logger    *log.Logger
}

func NewWebhookHandler(extractor *intent.Extractor, orch *pipeline.Orchestrator, notifier Notifier, timeout time.Duration) *WebhookHandler {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &WebhookHandler{
		extractor: extractor,
		pipeline:  orch,
		notifier:  notifier,
		timeout:   timeout,
		logger:    log.New(log.Writer(), "[WEBHOOK] ", log.LstdFlags),
	}
}

// Handle accepts an inbound event. Callers must not assume the
// notification has been sent by the time the acknowledgment is observed.
func (h *WebhookHandler) Handle(c echo.Context) error {
	var ev protocol.MessageEvent
	if err := c.Bind(&ev); err != nil {
		return c.JSON(http.StatusOK, map[string]string{"status": "ignored"})
	}
	if !ev.IsMessageCreation() {
		return c.JSON(http.StatusOK, map[string]string{"status": "ignored"})
	}
	if !looksLikeNewsQuery(ev.Content) {
		return c.JSON(http.StatusOK, map[string]string{"status": "not-news-query"})
	}

	go h.process(ev)
	return c.JSON(http.StatusOK, map[string]string{"status": "accepted"})
}

func (h *WebhookHandler) process(ev protocol.MessageEvent) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Printf("recovered from webhook processing panic: %v", r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	q := h.extractor.Extract([]protocol.Part{protocol.TextPart(ev.Content)})
	result := h.pipeline.Run(ctx, q)

	var text string
	switch result.State {
	case pipeline.StateFailed:
		text = "Sorry — I couldn't reach the news source right now. Please try again later."
	case pipeline.StateCompletedEmpty:
		text = "I couldn't find recent results for that. Try a broader topic or different wording."
	default:
		text = formatDigest(result)
	}

	if err := h.notifier.Notify(ctx, ev.AuthorID, text); err != nil {
		h.logger.Printf("notify %s for message %s: %v", ev.AuthorID, ev.MessageID, err)
	}
}

func looksLikeNewsQuery(content string) bool {
	s := strings.ToLower(content)
	if strings.TrimSpace(s) == "" {
		return false
	}
	for _, kw := range newsKeywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
