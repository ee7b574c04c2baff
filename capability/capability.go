// Package capability maps speech-engine and voice identifiers to markup
// capability profiles. A profile tells the markup processor whether an
// engine understands the synthesis markup dialect at all, which tags it
// accepts, and which document declarations it insists on. Profiles are
// advisory: engines that misreport their own capabilities are tolerated
// downstream, never crashed on.
package capability

import "sort"

// SupportLevel classifies how much of the markup dialect an engine/voice
// pair understands.
type SupportLevel int

const (
	// LevelNone means markup must be reduced to plain text before
	// synthesis.
	LevelNone SupportLevel = iota
	// LevelLimited means the engine accepts the dialect but chokes on
	// specific tags, listed in Profile.UnsupportedTags.
	LevelLimited
	// LevelFull means the whole dialect is accepted as-is.
	LevelFull
)

// String returns a human-readable support level name.
func (l SupportLevel) String() string {
	switch l {
	case LevelNone:
		return "none"
	case LevelLimited:
		return "limited"
	case LevelFull:
		return "full"
	default:
		return "unknown"
	}
}

// Wildcard inside UnsupportedTags marks every tag as unsupported,
// regardless of what SupportedTags claims.
const Wildcard = "all"

// TagSet is a set of markup tag names.
type TagSet map[string]struct{}

// NewTagSet builds a set from the given tag names.
func NewTagSet(tags ...string) TagSet {
	s := make(TagSet, len(tags))
	for _, t := range tags {
		s[t] = struct{}{}
	}
	return s
}

// Has reports whether tag is in the set.
func (s TagSet) Has(tag string) bool {
	_, ok := s[tag]
	return ok
}

// Clone returns an independent copy of the set.
func (s TagSet) Clone() TagSet {
	if s == nil {
		return nil
	}
	c := make(TagSet, len(s))
	for t := range s {
		c[t] = struct{}{}
	}
	return c
}

// Sorted returns the tag names in lexical order, for stable warning
// messages and logs.
func (s TagSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Profile describes the markup capabilities of one engine/voice pair.
type Profile struct {
	// SupportsMarkup is false when the engine wants plain text only.
	SupportsMarkup bool

	// Level refines SupportsMarkup into none/limited/full.
	Level SupportLevel

	// SupportedTags lists tags known to work. Informational when Level
	// is LevelFull.
	SupportedTags TagSet

	// UnsupportedTags lists tags that must be removed before synthesis.
	// The Wildcard entry marks all tags unsupported.
	UnsupportedTags TagSet

	// RequiresNamespaceDecl indicates the root element must carry the
	// dialect namespace declaration.
	RequiresNamespaceDecl bool

	// RequiresVersionDecl indicates the root element must carry a
	// version declaration.
	RequiresVersionDecl bool
}

// StripAll reports whether every tag has to be removed: the engine does
// not speak markup, its level is none, or the unsupported set carries
// the wildcard.
func (p Profile) StripAll() bool {
	return !p.SupportsMarkup || p.Level == LevelNone || p.UnsupportedTags.Has(Wildcard)
}

// Unsupported reports whether the given tag must be stripped under this
// profile.
func (p Profile) Unsupported(tag string) bool {
	if p.StripAll() {
		return true
	}
	return p.UnsupportedTags.Has(tag)
}

// clone returns a deep copy so registry entries stay immutable.
func (p Profile) clone() Profile {
	p.SupportedTags = p.SupportedTags.Clone()
	p.UnsupportedTags = p.UnsupportedTags.Clone()
	return p
}

// noneProfile is what unknown engines resolve to: strip everything.
func noneProfile() Profile {
	return Profile{
		SupportsMarkup:  false,
		Level:           LevelNone,
		UnsupportedTags: NewTagSet(Wildcard),
	}
}
