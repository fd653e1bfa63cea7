// Package intent turns raw, possibly HTML-polluted chat messages into a
// clean news query plus optional topic/region/recency hints.
package intent

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"

	"github.com/norihq/nori/internal/protocol"
)

// DefaultQuery is used whenever no genuine user utterance survives
// filtering. It must be non-empty: the news provider rejects empty queries.
const DefaultQuery = "latest world news"

// DefaultEchoPrefixes is the filter list for assistant/system-generated
// restatements that must not be mistaken for user intent. The list has
// grown release to release; this is the most permissive set.
var DefaultEchoPrefixes = []string{
	"fetching",
	"checking",
	"loading",
	"here are",
	"give me",
	"getting",
}

// Query is the resolved search intent derived from a user's message.
// Immutable once built.
type Query struct {
	RawText       string
	ResolvedQuery string
	Topic         string
	Region        string
	RecencyDays   int
}

// Extractor filters and normalizes message parts into a Query. The zero
// value is not usable; use New.
type Extractor struct {
	echoPrefixes []string
}

func New(echoPrefixes ...string) *Extractor {
	if len(echoPrefixes) == 0 {
		echoPrefixes = DefaultEchoPrefixes
	}
	return &Extractor{echoPrefixes: echoPrefixes}
}

var (
	strictPolicyOnce sync.Once
	strictPolicy     *bluemonday.Policy
)

func strictHTMLPolicy() *bluemonday.Policy {
	strictPolicyOnce.Do(func() {
		strictPolicy = bluemonday.StrictPolicy()
	})
	return strictPolicy
}

// StripHTML removes every HTML tag from s, leaving trimmed plain text.
func StripHTML(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return strings.TrimSpace(strictHTMLPolicy().Sanitize(s))
}

// Extract walks the message parts, recursing one level into data parts,
// and selects the last candidate that survives filtering: HTML stripped,
// pure URLs discarded, system-echo prefixed text discarded. Pure function,
// never fails; when nothing survives it falls back to DefaultQuery.
func (e *Extractor) Extract(parts []protocol.Part) Query {
	var candidates []string
	for _, p := range parts {
		switch p.Kind {
		case protocol.KindText:
			if p.Text != "" {
				candidates = append(candidates, p.Text)
			}
		case protocol.KindData:
			for _, inner := range p.Data {
				if inner.Kind == protocol.KindText && inner.Text != "" {
					candidates = append(candidates, inner.Text)
				}
			}
		}
	}

	var raw, chosen string
	for _, c := range candidates {
		clean := StripHTML(c)
		if clean == "" || isURL(clean) || e.isEcho(clean) {
			continue
		}
		// Last genuine utterance wins over earlier turns in the batch.
		raw = c
		chosen = clean
	}

	chosen = CollapseRepeats(chosen)
	if len(chosen) < 2 {
		return Query{RawText: raw, ResolvedQuery: DefaultQuery}
	}

	q := Query{RawText: raw, ResolvedQuery: chosen}
	q.Topic, q.Region, q.RecencyDays = ParseHints(chosen)
	return q
}

func (e *Extractor) isEcho(s string) bool {
	lower := strings.ToLower(s)
	for _, p := range e.echoPrefixes {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	return false
}

func isURL(s string) bool {
	if strings.ContainsAny(s, " \t\n") {
		return false
	}
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") ||
		strings.HasPrefix(lower, "https://") ||
		strings.HasPrefix(lower, "www.")
}

// CollapseRepeats removes immediately-repeated word or phrase runs, a
// defensive normalization against upstream echo duplication. Longer runs
// collapse first; the operation is idempotent.
func CollapseRepeats(s string) string {
	words := strings.Fields(s)
	const maxRun = 4
	for changed := true; changed; {
		changed = false
		for n := maxRun; n >= 1; n-- {
			for i := 0; i+2*n <= len(words); i++ {
				if equalRun(words[i:i+n], words[i+n:i+2*n]) {
					words = append(words[:i+n], words[i+2*n:]...)
					changed = true
					i--
				}
			}
		}
	}
	return strings.Join(words, " ")
}

func equalRun(a, b []string) bool {
	for i := range a {
		if !strings.EqualFold(a[i], b[i]) {
			return false
		}
	}
	return true
}
