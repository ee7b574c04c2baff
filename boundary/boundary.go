// Package boundary produces normalized word-boundary timelines for
// synthesized audio. Engines that report native word timing pass
// through Normalize; for everyone else Estimate derives a proportional
// timeline from the text and the total audio duration. Consumers treat
// both the same way, so cross-vendor callers never branch on timing
// provenance.
package boundary

import (
	"strings"
	"time"
	"unicode/utf8"
)

// Source records how a mark's timing was obtained.
type Source int

const (
	// SourceNative timing came from the engine itself.
	SourceNative Source = iota
	// SourceEstimated timing was derived from text length.
	SourceEstimated
)

// String returns a human-readable source name.
func (s Source) String() string {
	switch s {
	case SourceNative:
		return "native"
	case SourceEstimated:
		return "estimated"
	default:
		return "unknown"
	}
}

// Mark is one spoken word with its position on the audio timeline.
type Mark struct {
	// Text is the word as spoken, punctuation attached.
	Text string

	// Offset is the start of the word relative to the beginning of the
	// audio.
	Offset time.Duration

	// Duration is how long the word takes to speak.
	Duration time.Duration

	// Source tells whether the timing is native or estimated.
	Source Source
}

// End returns the offset at which the word finishes.
func (m Mark) End() time.Duration { return m.Offset + m.Duration }

// Normalize cleans a native mark sequence without reordering it:
// negative offsets and durations clamp to zero, exact duplicate
// zero-width marks collapse to one, and every mark is labeled
// SourceNative. The input slice is not modified.
func Normalize(raw []Mark) []Mark {
	out := make([]Mark, 0, len(raw))
	for _, m := range raw {
		if m.Offset < 0 {
			m.Offset = 0
		}
		if m.Duration < 0 {
			m.Duration = 0
		}
		m.Source = SourceNative
		if n := len(out); n > 0 && m.Duration == 0 {
			prev := out[n-1]
			if prev.Duration == 0 && prev.Offset == m.Offset && prev.Text == m.Text {
				continue
			}
		}
		out = append(out, m)
	}
	return out
}

// Estimate builds a proportional timeline for text spoken over total.
// Tokens are whitespace-separated words with punctuation attached; each
// token's share of the timeline is its rune count (minimum one), so
// longer words get proportionally more time. Offsets tile the timeline
// exactly: each mark ends where the next begins and the last mark ends
// at total.
//
// Accuracy is a coarse approximation on purpose. Real speech pacing
// varies with phonemes and prosody; this is for caption-style
// highlighting, not lip sync.
func Estimate(text string, total time.Duration) []Mark {
	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return nil
	}
	if total < 0 {
		total = 0
	}

	weights := make([]int64, len(tokens))
	var sum int64
	for i, tok := range tokens {
		w := int64(utf8.RuneCountInString(tok))
		if w < 1 {
			w = 1
		}
		weights[i] = w
		sum += w
	}

	marks := make([]Mark, len(tokens))
	var prefix int64
	for i, tok := range tokens {
		start := time.Duration(int64(total) * prefix / sum)
		prefix += weights[i]
		end := time.Duration(int64(total) * prefix / sum)
		marks[i] = Mark{
			Text:     tok,
			Offset:   start,
			Duration: end - start,
			Source:   SourceEstimated,
		}
	}
	return marks
}

// TotalDuration returns the end of the last mark, the audio length the
// sequence claims to cover.
func TotalDuration(marks []Mark) time.Duration {
	if len(marks) == 0 {
		return 0
	}
	return marks[len(marks)-1].End()
}
