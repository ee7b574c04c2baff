package markup

import (
	"regexp"
	"strings"
)

// Tag scanning is regex-driven and stack-based. Anything that does not
// match a tag shape stays in the output as literal text, so stray angle
// brackets and malformed fragments never abort a synthesis request.
var (
	startTagRe = regexp.MustCompile(`^<([a-zA-Z][a-zA-Z0-9:-]*)([^<>]*)>`)
	endTagRe   = regexp.MustCompile(`^</([a-zA-Z][a-zA-Z0-9:-]*)\s*>`)
	attrRe     = regexp.MustCompile(`([a-zA-Z_][a-zA-Z0-9_:.-]*)\s*=\s*"([^"]*)"`)
)

// Parse builds the document tree for input. It never fails: unclosed
// elements are closed at end of input, stray end tags are dropped, and
// unparseable angle brackets are kept as text.
func Parse(input string) *Document {
	root := &Node{}
	stack := []*Node{root}
	top := func() *Node { return stack[len(stack)-1] }

	var text strings.Builder
	flush := func() {
		if text.Len() == 0 {
			return
		}
		parent := top()
		parent.Children = append(parent.Children, &Node{Text: text.String()})
		text.Reset()
	}

	i := 0
	for i < len(input) {
		if input[i] != '<' {
			j := strings.IndexByte(input[i:], '<')
			if j < 0 {
				text.WriteString(input[i:])
				break
			}
			text.WriteString(input[i : i+j])
			i += j
			continue
		}

		rest := input[i:]
		if m := endTagRe.FindStringSubmatch(rest); m != nil {
			flush()
			closeTag(&stack, m[1])
			i += len(m[0])
			continue
		}
		if m := startTagRe.FindStringSubmatch(rest); m != nil {
			flush()
			n := &Node{Tag: m[1], Attrs: parseAttrs(m[2])}
			raw := strings.TrimSpace(m[2])
			if strings.HasSuffix(raw, "/") {
				n.SelfClosing = true
			}
			parent := top()
			parent.Children = append(parent.Children, n)
			if !n.SelfClosing {
				stack = append(stack, n)
			}
			i += len(m[0])
			continue
		}

		// Literal '<' that opens no recognizable tag.
		text.WriteByte('<')
		i++
	}
	flush()

	return &Document{Nodes: root.Children}
}

// closeTag pops the stack down to the nearest matching open element,
// implicitly closing anything unclosed in between. A close tag with no
// matching open element is dropped.
func closeTag(stack *[]*Node, tag string) {
	s := *stack
	for idx := len(s) - 1; idx > 0; idx-- {
		if strings.EqualFold(s[idx].Tag, tag) {
			*stack = s[:idx]
			return
		}
	}
}

func parseAttrs(raw string) []Attr {
	raw = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(raw), "/"))
	if raw == "" {
		return nil
	}
	ms := attrRe.FindAllStringSubmatch(raw, -1)
	if len(ms) == 0 {
		return nil
	}
	attrs := make([]Attr, 0, len(ms))
	for _, m := range ms {
		attrs = append(attrs, Attr{Key: m[1], Value: m[2]})
	}
	return attrs
}
