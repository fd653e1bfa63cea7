package server

import (
	"fmt"
	"strings"

	"github.com/norihq/nori/internal/pipeline"
	"github.com/norihq/nori/internal/protocol"
)

const (
	contextID       = "nori-context"
	rawArtifactName = "news_raw"
)

func agentMessage(taskID, text string) protocol.Message {
	return protocol.Message{
		Role:   "agent",
		Parts:  []protocol.Part{protocol.TextPart(text)},
		TaskID: taskID,
	}
}

// envelopeFromResult projects a pipeline result into the outbound task
// envelope. Article order in the message body and the raw artifact matches
// the source adapter's returned order.
func envelopeFromResult(taskID string, result pipeline.Result) protocol.TaskEnvelope {
	switch result.State {
	case pipeline.StateFailed:
		msg := "Sorry — I couldn't reach the news source right now. Please try again later."
		if result.Err != nil {
			msg = fmt.Sprintf("Sorry — I couldn't reach the news source right now: %v", result.Err)
		}
		return failedEnvelope(taskID, msg)

	case pipeline.StateCompletedEmpty:
		msg := agentMessage(taskID, fmt.Sprintf(
			"I couldn't find recent results for %q. Try a broader topic or different wording.",
			result.Query.ResolvedQuery))
		return protocol.TaskEnvelope{
			ID:        taskID,
			ContextID: contextID,
			Status:    protocol.TaskStatus{State: "completed", Message: &msg},
			Artifacts: []protocol.Artifact{emptyRawArtifact()},
			History:   []protocol.Message{msg},
		}

	default:
		msg := agentMessage(taskID, formatDigest(result))
		return protocol.TaskEnvelope{
			ID:        taskID,
			ContextID: contextID,
			Status:    protocol.TaskStatus{State: "completed", Message: &msg},
			Artifacts: []protocol.Artifact{{
				Name:  rawArtifactName,
				Parts: []protocol.Part{protocol.TextPart(rawDigest(result))},
			}},
			History: []protocol.Message{msg},
		}
	}
}

func failedEnvelope(taskID, errText string) protocol.TaskEnvelope {
	msg := agentMessage(taskID, errText)
	return protocol.TaskEnvelope{
		ID:        taskID,
		ContextID: contextID,
		Status:    protocol.TaskStatus{State: "failed", Message: &msg},
		Artifacts: []protocol.Artifact{emptyRawArtifact()},
		History:   []protocol.Message{msg},
	}
}

func emptyRawArtifact() protocol.Artifact {
	return protocol.Artifact{
		Name:  rawArtifactName,
		Parts: []protocol.Part{protocol.TextPart("")},
	}
}

// formatDigest renders the multi-article message body.
func formatDigest(result pipeline.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Here's what I found for %q:\n", result.Query.ResolvedQuery)
	for i, item := range result.Items {
		b.WriteString("\n")
		title := item.Article.Title
		if title == "" {
			title = item.Article.URL
		}
		if item.Article.Source != "" {
			fmt.Fprintf(&b, "%d. %s (%s)\n", i+1, title, item.Article.Source)
		} else {
			fmt.Fprintf(&b, "%d. %s\n", i+1, title)
		}
		if s := item.SummaryText(); s != "" {
			fmt.Fprintf(&b, "   %s\n", s)
		}
		if item.Article.URL != "" {
			fmt.Fprintf(&b, "   %s\n", item.Article.URL)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// rawDigest is the unformatted concatenation of title/description/url per
// article, carried in the raw-news artifact.
func rawDigest(result pipeline.Result) string {
	var lines []string
	for _, item := range result.Items {
		lines = append(lines, item.Article.Title, item.Article.Description, item.Article.URL)
	}
	return strings.Join(lines, "\n")
}
