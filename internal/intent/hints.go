package intent

import (
	"regexp"
	"strconv"
	"strings"
)

// topicAliases maps user phrasing to the provider's category names.
var topicAliases = map[string]string{
	"technology":    "technology",
	"tech":          "technology",
	"business":      "business",
	"sports":        "sports",
	"health":        "health",
	"science":       "science",
	"politics":      "politics",
	"entertainment": "entertainment",
}

// Order matters: longer aliases first so "technology" is not matched as
// the substring check for "tech".
var topicOrder = []string{
	"entertainment", "technology", "business", "politics",
	"science", "sports", "health", "tech",
}

var regionPatterns = []struct {
	re   *regexp.Regexp
	code string
}{
	{regexp.MustCompile(`\bnigeria\b|\bng\b`), "ng"},
	{regexp.MustCompile(`\bus\b|\bamerica\b|\bunited states\b`), "us"},
	{regexp.MustCompile(`\buk\b|\bengland\b|\bbritain\b`), "gb"},
}

var daysPattern = regexp.MustCompile(`past\s+(\d+)\s+days?`)

// ParseHints derives optional topic, region and recency hints from a
// resolved query. Best-effort: absence of a match leaves the value zero.
func ParseHints(text string) (topic, region string, days int) {
	s := strings.ToLower(text)

	for _, alias := range topicOrder {
		if strings.Contains(s, alias) {
			topic = topicAliases[alias]
			break
		}
	}

	for _, rp := range regionPatterns {
		if rp.re.MatchString(s) {
			region = rp.code
			break
		}
	}

	if m := daysPattern.FindStringSubmatch(s); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			days = n
		}
	} else if strings.Contains(s, "today") {
		days = 1
	}
	return topic, region, days
}
