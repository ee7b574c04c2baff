package markup

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/polyvox/polyvox/capability"
)

// Validation sentinel errors.
var (
	// ErrMissingRoot reports a document without a recognizable speak
	// root element.
	ErrMissingRoot = errors.New("missing speak root element")

	// ErrEmptyDocument reports an empty or whitespace-only document.
	ErrEmptyDocument = errors.New("empty document")
)

// ValidationError is a fatal structural validation failure. Capability
// mismatches are warnings, never ValidationErrors.
type ValidationError struct {
	Err    error
	Detail string
}

func (e *ValidationError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("markup validation: %v: %s", e.Err, e.Detail)
	}
	return fmt.Sprintf("markup validation: %v", e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// WarningCode classifies capability-mismatch warnings.
type WarningCode int

const (
	// WarnStripAll: the profile cannot use markup, every tag will be
	// removed before synthesis.
	WarnStripAll WarningCode = iota
	// WarnUnsupportedTag: a tag present in the document is not
	// supported by the profile and will be stripped.
	WarnUnsupportedTag
	// WarnUnknownTag: a tag is outside the dialect vocabulary.
	WarnUnknownTag
	// WarnMissingNamespace: the profile requires a namespace
	// declaration the document lacks; it will be injected.
	WarnMissingNamespace
	// WarnMissingVersion: the profile requires a version declaration
	// the document lacks; it will be injected.
	WarnMissingVersion
)

func (c WarningCode) String() string {
	switch c {
	case WarnStripAll:
		return "strip-all"
	case WarnUnsupportedTag:
		return "unsupported-tag"
	case WarnUnknownTag:
		return "unknown-tag"
	case WarnMissingNamespace:
		return "missing-namespace"
	case WarnMissingVersion:
		return "missing-version"
	default:
		return "unknown"
	}
}

// Warning is a non-fatal capability mismatch. Synthesis proceeds with
// degraded markup; the warning tells the caller what will change.
type Warning struct {
	Code    WarningCode
	Tag     string
	Message string
}

func (w Warning) String() string {
	if w.Tag != "" {
		return fmt.Sprintf("%s (%s): %s", w.Code, w.Tag, w.Message)
	}
	return fmt.Sprintf("%s: %s", w.Code, w.Message)
}

// Report is the outcome of validating a document against a profile.
// Valid=false only for structural failures; capability mismatches keep
// the document valid and show up as warnings.
type Report struct {
	Valid    bool
	Errors   []error
	Warnings []Warning
}

// Validate checks document structure and compares the tags present
// against the capability profile. It never rejects a document for
// capability reasons.
func Validate(doc string, p capability.Profile) Report {
	rep := Report{Valid: true}

	if strings.TrimSpace(doc) == "" {
		rep.Valid = false
		rep.Errors = append(rep.Errors, &ValidationError{Err: ErrEmptyDocument})
		return rep
	}

	parsed := Parse(doc)
	root := parsed.Root()
	if root == nil {
		rep.Valid = false
		rep.Errors = append(rep.Errors, &ValidationError{
			Err:    ErrMissingRoot,
			Detail: fmt.Sprintf("document starts with %q", excerpt(doc)),
		})
	}

	present := parsed.Tags()
	for _, tag := range sortedTags(present) {
		if !KnownTag(tag) {
			rep.Warnings = append(rep.Warnings, Warning{
				Code:    WarnUnknownTag,
				Tag:     tag,
				Message: "tag is outside the dialect vocabulary",
			})
		}
	}

	switch {
	case p.StripAll():
		rep.Warnings = append(rep.Warnings, Warning{
			Code:    WarnStripAll,
			Message: "engine does not accept markup; all tags will be removed",
		})
	case p.Level == capability.LevelLimited:
		for _, tag := range sortedTags(present) {
			if tag != RootTag && p.UnsupportedTags.Has(tag) {
				rep.Warnings = append(rep.Warnings, Warning{
					Code:    WarnUnsupportedTag,
					Tag:     tag,
					Message: "tag will be stripped for this engine",
				})
			}
		}
	}

	if root != nil && !p.StripAll() {
		if p.RequiresNamespaceDecl {
			if _, ok := root.Attr("xmlns"); !ok {
				rep.Warnings = append(rep.Warnings, Warning{
					Code:    WarnMissingNamespace,
					Message: "namespace declaration missing; it will be injected",
				})
			}
		}
		if p.RequiresVersionDecl {
			if _, ok := root.Attr("version"); !ok {
				rep.Warnings = append(rep.Warnings, Warning{
					Code:    WarnMissingVersion,
					Message: "version declaration missing; it will be injected",
				})
			}
		}
	}

	return rep
}

// Transform rewrites doc for the profile: strip everything for
// no-markup profiles, strip exactly the unsupported tags for limited
// profiles, and inject required root declarations for full profiles.
// Transform is idempotent: applying it to its own output returns the
// output unchanged.
func Transform(doc string, p capability.Profile) string {
	if p.StripAll() {
		return Text(doc)
	}

	parsed := Parse(doc)
	if p.Level == capability.LevelLimited {
		parsed.Nodes = filterNodes(parsed.Nodes, p)
	}
	if root := parsed.Root(); root != nil {
		if p.RequiresNamespaceDecl {
			ensureAttr(root, "xmlns", Namespace)
		}
		if p.RequiresVersionDecl {
			ensureAttr(root, "version", Version)
		}
	}
	return parsed.String()
}

// Text reduces a document to speakable plain text: every tag is
// unwrapped, pause tags become a single space, leftover tag syntax is
// swept, and whitespace runs collapse to one space.
func Text(doc string) string {
	parsed := Parse(doc)
	var b strings.Builder
	for _, n := range parsed.Nodes {
		writeText(&b, n)
	}
	return collapseWhitespace(StripTags(b.String()))
}

func writeText(b *strings.Builder, n *Node) {
	if n.IsText() {
		b.WriteString(n.Text)
		return
	}
	if _, pause := pauseTags[strings.ToLower(n.Tag)]; pause {
		b.WriteByte(' ')
		return
	}
	for _, c := range n.Children {
		writeText(b, c)
	}
}

// filterNodes rebuilds the node list with unsupported elements
// unwrapped in place. Children are filtered first so nested and
// same-tag-nested occurrences are handled completely in one pass.
func filterNodes(nodes []*Node, p capability.Profile) []*Node {
	out := make([]*Node, 0, len(nodes))
	for _, n := range nodes {
		if n.IsText() {
			out = append(out, n)
			continue
		}
		n.Children = filterNodes(n.Children, p)
		tag := strings.ToLower(n.Tag)
		if tag != RootTag && p.UnsupportedTags.Has(tag) {
			if _, pause := pauseTags[tag]; pause {
				out = append(out, &Node{Text: " "})
				continue
			}
			out = append(out, n.Children...)
			continue
		}
		out = append(out, n)
	}
	return out
}

func ensureAttr(n *Node, key, value string) {
	if _, ok := n.Attr(key); ok {
		return
	}
	n.Attrs = append(n.Attrs, Attr{Key: key, Value: value})
}

var whitespaceRe = regexp.MustCompile(`\s+`)

func collapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

func sortedTags(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	// Small sets; insertion sort keeps it allocation-free.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j] < out[j-1]; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

func excerpt(doc string) string {
	s := strings.TrimSpace(doc)
	if len(s) > 24 {
		return s[:24] + "..."
	}
	return s
}
