package textnorm

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Extractor reduces markdown to speakable prose via the goldmark AST.
// Code fences are skipped by default because reading source aloud is
// useless; headings and list items get sentence-ending punctuation so
// downstream pacing treats them as statements.
type Extractor struct {
	includeCode bool
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithCodeBlocks includes a spoken placeholder for code blocks instead
// of dropping them.
func WithCodeBlocks(include bool) ExtractorOption {
	return func(e *Extractor) {
		e.includeCode = include
	}
}

// NewExtractor creates an extractor with the given options applied.
func NewExtractor(opts ...ExtractorOption) *Extractor {
	e := &Extractor{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// MarkdownText reduces markdown to prose with default extractor
// settings.
func MarkdownText(markdown string) string {
	return NewExtractor().Text(markdown)
}

// Text walks the markdown AST and returns collapsed speakable prose.
func (e *Extractor) Text(markdown string) string {
	md := goldmark.New()
	reader := text.NewReader([]byte(markdown))
	doc := md.Parser().Parse(reader)

	var buf strings.Builder
	e.walk(doc, reader.Source(), &buf)

	return CollapseWhitespace(buf.String())
}

func (e *Extractor) walk(node ast.Node, source []byte, buf *strings.Builder) {
	switch n := node.(type) {
	case *ast.CodeBlock, *ast.FencedCodeBlock:
		if e.includeCode {
			buf.WriteString("Code block omitted. ")
		}
		return

	case *ast.HTMLBlock:
		return

	case *ast.Text:
		buf.Write(n.Segment.Value(source))

	case *ast.CodeSpan:
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			if t, ok := c.(*ast.Text); ok {
				buf.Write(t.Segment.Value(source))
			}
		}
		return

	case *ast.Heading:
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			e.walk(c, source, buf)
		}
		buf.WriteString(". ")
		return

	case *ast.Paragraph:
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			e.walk(c, source, buf)
		}
		punctuate(buf)
		return

	case *ast.ListItem:
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			e.walk(c, source, buf)
		}
		punctuate(buf)
		return

	case *ast.Link:
		// Speak the link text, never the URL.
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			e.walk(c, source, buf)
		}
		return

	case *ast.Image:
		return

	case *ast.ThematicBreak:
		buf.WriteString(". ")
		return
	}

	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		e.walk(c, source, buf)
	}
}

// punctuate closes the current clause with ". " unless it already ends
// in sentence punctuation.
func punctuate(buf *strings.Builder) {
	s := strings.TrimRight(buf.String(), " \t\n")
	if s == "" {
		return
	}
	if strings.ContainsRune(".!?:", rune(s[len(s)-1])) {
		buf.WriteByte(' ')
		return
	}
	buf.WriteString(". ")
}
