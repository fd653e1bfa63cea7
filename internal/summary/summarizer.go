// Package summary normalizes the variably-shaped responses of the external
// summarization provider and supplies a deterministic local fallback.
package summary

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"

	"github.com/norihq/nori/config"
	"github.com/norihq/nori/internal/httpx"
	"github.com/norihq/nori/internal/telemetry"
)

// Outcome is the per-article result of summarization: success with text,
// or failure with a reason.
type Outcome struct {
	Text string
	Err  error
}

func Success(text string) Outcome { return Outcome{Text: text} }
func Failure(err error) Outcome   { return Outcome{Err: err} }

// Failed reports whether the outcome carries a failure.
func (o Outcome) Failed() bool { return o.Err != nil }

// Summarizer calls the inference provider and falls back to a local
// extractive summary when the provider misbehaves.
type Summarizer struct {
	cfg    config.SummarizerConfig
	http   *httpx.Client
	logger *log.Logger
}

func New(cfg config.SummarizerConfig) *Summarizer {
	return &Summarizer{
		cfg:    cfg,
		http:   httpx.New(cfg.Timeout, 0, 0),
		logger: log.New(log.Writer(), "[SUMMARY] ", log.LstdFlags),
	}
}

// Summarize produces a short summary of text. Provider failures are
// absorbed: unrecognized response shapes and non-timeout errors resolve to
// the local extractive fallback. Context cancellation and deadline expiry
// are surfaced as a failed Outcome so that a fan-out caller can apply its
// own degraded-text policy instead of silently substituting.
func (s *Summarizer) Summarize(ctx context.Context, text string) Outcome {
	text = Truncate(text, s.cfg.MaxInputChars)
	if text == "" {
		return Success("")
	}

	if s.cfg.Backend != "hf_inference" || s.cfg.Endpoint == "" {
		telemetry.Summaries.WithLabelValues("local").Inc()
		return Success(s.Extractive(text))
	}

	endpoint := strings.TrimSuffix(s.cfg.Endpoint, "/") + "/" + s.cfg.Model
	headers := map[string]string{}
	if s.cfg.APIKey != "" {
		headers["Authorization"] = "Bearer " + s.cfg.APIKey
	}

	raw, err := s.http.DoJSONRaw(ctx, "POST", endpoint, headers, map[string]string{"inputs": text})
	if err != nil {
		telemetry.ProviderRequests.WithLabelValues("summarizer", "error").Inc()
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return Failure(err)
		}
		s.logger.Printf("provider failed, using extractive fallback: %v", err)
		telemetry.Summaries.WithLabelValues("fallback").Inc()
		return Success(s.Extractive(text))
	}
	telemetry.ProviderRequests.WithLabelValues("summarizer", "ok").Inc()

	if out, ok := decodeSummary(raw); ok {
		telemetry.Summaries.WithLabelValues("provider").Inc()
		return Success(strings.TrimSpace(out))
	}

	// Unrecognized shape degrades, never errors.
	s.logger.Printf("unrecognized provider response shape, using extractive fallback")
	telemetry.Summaries.WithLabelValues("fallback").Inc()
	return Success(s.Extractive(text))
}

// decodeSummary tries the known provider response shapes in fixed priority
// order: a sequence of objects carrying generated_text or summary_text, a
// single object carrying summary_text, or a raw string.
func decodeSummary(raw []byte) (string, bool) {
	var arr []map[string]any
	if err := json.Unmarshal(raw, &arr); err == nil && len(arr) > 0 {
		if s, ok := arr[0]["generated_text"].(string); ok && s != "" {
			return s, true
		}
		if s, ok := arr[0]["summary_text"].(string); ok && s != "" {
			return s, true
		}
		return "", false
	}

	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err == nil {
		if s, ok := obj["summary_text"].(string); ok && s != "" {
			return s, true
		}
		return "", false
	}

	var str string
	if err := json.Unmarshal(raw, &str); err == nil && str != "" {
		return str, true
	}
	return "", false
}

// Extractive builds a deterministic local summary: the first sentences of
// the input, or a character-budget truncation when no sentence boundary
// exists.
func (s *Summarizer) Extractive(text string) string {
	text = strings.TrimSpace(text)
	maxSentences := s.cfg.FallbackSentences
	if maxSentences <= 0 {
		maxSentences = 2
	}
	maxChars := s.cfg.FallbackMaxChars
	if maxChars <= 0 {
		maxChars = 400
	}

	sentences := SplitSentences(text)
	if len(sentences) > 1 {
		if len(sentences) > maxSentences {
			sentences = sentences[:maxSentences]
		}
		return strings.Join(sentences, " ")
	}
	return Truncate(text, maxChars)
}

// SplitSentences splits text on ./!/? boundaries followed by whitespace,
// keeping the terminator with its sentence.
func SplitSentences(text string) []string {
	var sentences []string
	runes := []rune(text)
	start := 0
	for i := 0; i < len(runes); i++ {
		switch runes[i] {
		case '.', '!', '?':
			if i+1 < len(runes) && isSpace(runes[i+1]) {
				sentence := strings.TrimSpace(string(runes[start : i+1]))
				if sentence != "" {
					sentences = append(sentences, sentence)
				}
				start = i + 1
			}
		}
	}
	if tail := strings.TrimSpace(string(runes[start:])); tail != "" {
		sentences = append(sentences, tail)
	}
	return sentences
}

func isSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r':
		return true
	}
	return false
}

// Truncate clips s to at most max runes.
func Truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return strings.TrimSpace(string(runes[:max]))
}
