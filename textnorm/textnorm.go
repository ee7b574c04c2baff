// Package textnorm normalizes synthesis input before it reaches an
// engine: classifying it as markup, markdown, or plain text, reducing
// markdown to speakable prose, chunking oversized requests, and
// estimating speaking duration when no engine-reported timing exists.
package textnorm

import (
	"regexp"
	"strings"
	"time"

	"github.com/polyvox/polyvox/markup"
)

// Kind classifies raw synthesis input.
type Kind int

const (
	// KindPlain is prose that can be synthesized as-is.
	KindPlain Kind = iota
	// KindMarkdown is markdown that must be reduced to prose first.
	KindMarkdown
	// KindMarkup is a synthesis markup document.
	KindMarkup
)

// String returns a human-readable kind name.
func (k Kind) String() string {
	switch k {
	case KindPlain:
		return "plain"
	case KindMarkdown:
		return "markdown"
	case KindMarkup:
		return "markup"
	default:
		return "unknown"
	}
}

// markdownCueRe matches structures that only show up in markdown:
// headings, list items, blockquotes, fenced code, links, strong
// emphasis. One hit is enough to classify.
var markdownCueRe = regexp.MustCompile(
	"(?m)^#{1,6}\\s|^\\s*[-*+]\\s+\\S|^>\\s|```|\\[[^\\]]+\\]\\([^)]+\\)|\\*\\*[^*]+\\*\\*",
)

// DetectKind classifies input. Markup wins over markdown: a speak
// document containing a hash sign is still a speak document.
func DetectKind(input string) Kind {
	if markup.IsDocument(input) {
		return KindMarkup
	}
	if markdownCueRe.MatchString(input) {
		return KindMarkdown
	}
	return KindPlain
}

var whitespaceRe = regexp.MustCompile(`\s+`)

// CollapseWhitespace reduces whitespace runs to single spaces and trims
// the ends.
func CollapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// wordsPerMinute is the base speaking rate for duration estimation.
const wordsPerMinute = 150.0

var (
	numberRe      = regexp.MustCompile(`\d+`)
	punctuationRe = regexp.MustCompile(`[,;:\-()]`)
)

// EstimateDuration approximates how long text takes to speak at the
// given rate multiplier (1.0 is normal speed). The base pace is 150
// words per minute, slowed for numbers, pause punctuation, and long
// words. A coarse heuristic; used only when an engine reports no
// duration of its own.
func EstimateDuration(text string, rate float64) time.Duration {
	words := len(strings.Fields(text))
	if words == 0 {
		words = 1
	}
	if rate <= 0 {
		rate = 1.0
	}

	adjusted := wordsPerMinute * (1.0 - complexity(text)*0.2) * rate
	seconds := float64(words) * 60.0 / adjusted
	return time.Duration(seconds * float64(time.Second))
}

// complexity scores text features that slow speech, capped at 0.5.
func complexity(text string) float64 {
	c := 0.0
	c += float64(len(numberRe.FindAllString(text, -1))) * 0.02
	c += float64(len(punctuationRe.FindAllString(text, -1))) * 0.01

	words := strings.Fields(text)
	long := 0
	for _, w := range words {
		if len(w) > 10 {
			long++
		}
	}
	c += float64(long) / float64(len(words)+1) * 0.1

	if c > 0.5 {
		c = 0.5
	}
	return c
}
