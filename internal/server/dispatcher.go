package server

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/norihq/nori/internal/intent"
	"github.com/norihq/nori/internal/pipeline"
	"github.com/norihq/nori/internal/protocol"
	"github.com/norihq/nori/internal/readable"
	"github.com/norihq/nori/internal/summary"
)

// AgentCard is the static capability metadata served to peers.
type AgentCard struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Description  string            `json:"description"`
	Capabilities []string          `json:"capabilities"`
	Endpoints    map[string]string `json:"endpoints"`
}

// Dispatcher maps inbound JSON-RPC requests onto the intent extractor and
// the pipeline, and projects pipeline results into task envelopes. It is
// the last line of defense: no fault escapes to the transport layer.
type Dispatcher struct {
	extractor  *intent.Extractor
	pipeline   *pipeline.Orchestrator
	fetcher    *readable.Fetcher
	summarizer *summary.Summarizer
	card       AgentCard
	logger     *log.Logger
}

func NewDispatcher(extractor *intent.Extractor, orch *pipeline.Orchestrator, fetcher *readable.Fetcher, summarizer *summary.Summarizer, card AgentCard) *Dispatcher {
	return &Dispatcher{
		extractor:  extractor,
		pipeline:   orch,
		fetcher:    fetcher,
		summarizer: summarizer,
		card:       card,
		logger:     log.New(log.Writer(), "[DISPATCH] ", log.LstdFlags),
	}
}

// Handle decodes and dispatches a raw JSON-RPC request body. It always
// returns a well-formed response: business failures become "failed" task
// envelopes, never transport errors.
func (d *Dispatcher) Handle(ctx context.Context, body []byte) protocol.Response {
	req := protocol.DecodeRequest(body)
	return d.dispatch(ctx, req)
}

func (d *Dispatcher) dispatch(ctx context.Context, req protocol.Request) (resp protocol.Response) {
	taskID := req.TaskID()
	if taskID == "" {
		taskID = uuid.NewString()
	}

	defer func() {
		if r := recover(); r != nil {
			d.logger.Printf("recovered from dispatch panic: %v", r)
			env := failedEnvelope(taskID, fmt.Sprintf("internal error: %v", r))
			resp = protocol.NewResponse(req.ID, env)
		}
	}()

	switch req.Method {
	case "agent.info":
		return protocol.NewResponse(req.ID, d.card)
	case "news.fetch":
		return protocol.NewResponse(req.ID, d.fetchTask(ctx, taskID, req.Params.URL))
	case "news.search":
		q := queryFromParams(req.Params)
		result := d.pipeline.Run(ctx, q)
		return protocol.NewResponse(req.ID, envelopeFromResult(taskID, result))
	default:
		// message/send, execute, and any legacy shape all take the
		// extract-intent path.
		q := d.extractor.Extract(req.UserParts())
		result := d.pipeline.Run(ctx, q)
		return protocol.NewResponse(req.ID, envelopeFromResult(taskID, result))
	}
}

// queryFromParams builds a Query directly from explicit news.search params,
// bypassing intent extraction.
func queryFromParams(p protocol.Params) intent.Query {
	q := intent.Query{
		RawText:       p.Query,
		ResolvedQuery: p.Query,
		Topic:         p.Category,
		Region:        p.Country,
		RecencyDays:   p.Days,
	}
	if q.ResolvedQuery == "" && q.Topic == "" {
		q.ResolvedQuery = intent.DefaultQuery
	}
	return q
}

// fetchTask retrieves one article by URL, summarizes its readable text and
// wraps the outcome in a task envelope.
func (d *Dispatcher) fetchTask(ctx context.Context, taskID, url string) protocol.TaskEnvelope {
	if url == "" {
		return failedEnvelope(taskID, "news.fetch requires a url parameter")
	}
	doc, err := d.fetcher.Fetch(ctx, url)
	if err != nil {
		d.logger.Printf("fetch %s: %v", url, err)
		return failedEnvelope(taskID, fmt.Sprintf("couldn't fetch the article: %v", err))
	}

	out := d.summarizer.Summarize(ctx, doc.Text)
	text := out.Text
	if out.Failed() || text == "" {
		text = d.summarizer.Extractive(doc.Text)
	}

	body := doc.Title
	if body != "" {
		body += "\n\n"
	}
	body += text

	msg := agentMessage(taskID, body)
	return protocol.TaskEnvelope{
		ID:        taskID,
		ContextID: contextID,
		Status:    protocol.TaskStatus{State: "completed", Message: &msg},
		Artifacts: []protocol.Artifact{{
			Name:  "article_text",
			Parts: []protocol.Part{protocol.TextPart(doc.Text)},
		}},
		History: []protocol.Message{msg},
	}
}
