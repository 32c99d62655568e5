package profanity

import (
	"regexp"
	"strings"
	"sync"
)

var (
	defaultFilter *Filter
	once          sync.Once
)

// defaultBannedWords seeds the filter; deployments extend the list through
// NewFilterWithWords.
var defaultBannedWords = []string{
	"damn", "crap", "jerk", "idiot", "stupid",
}

// Filter masks banned words in chat content before it reaches the broker.
type Filter struct {
	regex *regexp.Regexp
}

// NewFilter returns the shared filter built from the default word list.
func NewFilter() *Filter {
	once.Do(func() {
		defaultFilter = NewFilterWithWords(defaultBannedWords)
	})
	return defaultFilter
}

func NewFilterWithWords(words []string) *Filter {
	patterns := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.TrimSpace(strings.ToLower(w))
		if w == "" {
			continue
		}
		patterns = append(patterns, regexp.QuoteMeta(w))
	}

	expression := `(?i)\b(` + strings.Join(patterns, "|") + `)\b`
	return &Filter{regex: regexp.MustCompile(expression)}
}

func (f *Filter) Contains(text string) bool {
	return text != "" && f.regex.MatchString(text)
}

// Mask replaces each banned word with asterisks of the same length.
func (f *Filter) Mask(text string) string {
	if text == "" {
		return text
	}
	return f.regex.ReplaceAllStringFunc(text, func(match string) string {
		return strings.Repeat("*", len(match))
	})
}
