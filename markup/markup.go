// Package markup validates and rewrites synthesis markup documents
// against engine capability profiles. The dialect is the usual
// speech-synthesis tag vocabulary: a speak root wrapping break, prosody,
// emphasis and friends. Parsing is deliberately minimal and tolerant:
// malformed input degrades to text instead of failing, because
// correctness of vendor markup is advisory here, not enforced.
package markup

import "strings"

// Namespace is the document namespace injected for engines that require
// a namespace declaration on the root element.
const Namespace = "http://www.w3.org/2001/10/synthesis"

// Version is the dialect version injected for engines that require a
// version declaration on the root element.
const Version = "1.0"

// RootTag is the required wrapper element of a markup document.
const RootTag = "speak"

// knownTags is the tag vocabulary this processor understands. Anything
// else is reported as unknown during validation and treated like a
// regular element during transformation.
var knownTags = map[string]struct{}{
	"speak": {}, "break": {}, "prosody": {}, "emphasis": {},
	"say-as": {}, "phoneme": {}, "sub": {}, "voice": {},
	"p": {}, "s": {}, "audio": {}, "mark": {}, "lang": {},
}

// pauseTags render as silence. Stripping one must leave a single space
// so the surrounding words do not run together.
var pauseTags = map[string]struct{}{
	"break": {},
}

// KnownTag reports whether tag belongs to the dialect vocabulary.
func KnownTag(tag string) bool {
	_, ok := knownTags[strings.ToLower(tag)]
	return ok
}

// IsDocument reports whether input looks like a markup document rather
// than plain text or markdown: after trimming it must open with the
// speak root tag.
func IsDocument(input string) bool {
	s := strings.TrimSpace(input)
	if len(s) < len(RootTag)+1 || s[0] != '<' {
		return false
	}
	rest := s[1:]
	if len(rest) < len(RootTag) || !strings.EqualFold(rest[:len(RootTag)], RootTag) {
		return false
	}
	// Reject prefixes like <speakeasy>.
	if len(rest) > len(RootTag) {
		c := rest[len(RootTag)]
		if c != '>' && c != ' ' && c != '\t' && c != '\n' && c != '\r' && c != '/' {
			return false
		}
	}
	return true
}

// Attr is a single element attribute. Order is preserved end to end so
// transforming an already-transformed document is byte-stable.
type Attr struct {
	Key   string
	Value string
}

// Node is one element or text run in the parsed document tree.
type Node struct {
	// Tag is the element name, empty for text nodes.
	Tag string

	// Attrs holds the element attributes in source order.
	Attrs []Attr

	// SelfClosing marks elements written as <tag/>.
	SelfClosing bool

	// Children are the nested nodes of a paired element.
	Children []*Node

	// Text is the literal content of a text node.
	Text string
}

// IsText reports whether the node is a text run.
func (n *Node) IsText() bool { return n.Tag == "" }

// Attr returns the value of the named attribute and whether it exists.
func (n *Node) Attr(key string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}

// Document is a parsed markup document: a forest of top-level nodes,
// since tolerant parsing accepts text outside the root element.
type Document struct {
	Nodes []*Node
}

// Root returns the first speak element, or nil when the document has no
// recognizable root.
func (d *Document) Root() *Node {
	for _, n := range d.Nodes {
		if !n.IsText() && strings.EqualFold(n.Tag, RootTag) {
			return n
		}
	}
	return nil
}

// Tags returns the set of element names present anywhere in the
// document, lowercased.
func (d *Document) Tags() map[string]struct{} {
	out := make(map[string]struct{})
	var walk func(n *Node)
	walk = func(n *Node) {
		if !n.IsText() {
			out[strings.ToLower(n.Tag)] = struct{}{}
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	for _, n := range d.Nodes {
		walk(n)
	}
	return out
}

// String serializes the document back to markup text in canonical form:
// single spaces between attributes and no space before the self-closing
// slash. Serializing a parse result and parsing it again yields the
// same tree, which is what makes transformation idempotent.
func (d *Document) String() string {
	var b strings.Builder
	for _, n := range d.Nodes {
		writeNode(&b, n)
	}
	return b.String()
}

func writeNode(b *strings.Builder, n *Node) {
	if n.IsText() {
		b.WriteString(n.Text)
		return
	}
	b.WriteByte('<')
	b.WriteString(n.Tag)
	for _, a := range n.Attrs {
		b.WriteByte(' ')
		b.WriteString(a.Key)
		b.WriteString(`="`)
		b.WriteString(a.Value)
		b.WriteByte('"')
	}
	if n.SelfClosing {
		b.WriteString("/>")
		return
	}
	b.WriteByte('>')
	for _, c := range n.Children {
		writeNode(b, c)
	}
	b.WriteString("</")
	b.WriteString(n.Tag)
	b.WriteByte('>')
}
