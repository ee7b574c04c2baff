package textnorm

import (
	"strings"

	"github.com/muesli/reflow/wordwrap"
)

// ChunkText splits text into pieces of at most limit bytes, breaking at
// word boundaries, for engines with a maximum request size. A limit of
// zero or less means no chunking. A single word longer than the limit
// stays whole; engines that cannot take it will reject it themselves.
func ChunkText(text string, limit int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if limit <= 0 || len(text) <= limit {
		return []string{text}
	}

	wrapped := wordwrap.String(text, limit)
	lines := strings.Split(wrapped, "\n")
	chunks := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			chunks = append(chunks, line)
		}
	}
	return chunks
}
