package capability

import (
	"sort"
	"strings"
)

// VoiceRule downgrades or adjusts the engine base profile for voices
// whose identifier contains Match (case-insensitive). Vendors encode
// voice tiers in the identifier ("neural", "journey", "standard"), so a
// substring heuristic covers the catalogs without per-voice tables.
// Misclassification is acceptable: downstream processing degrades
// gracefully either way.
type VoiceRule struct {
	// Match is the lowercased substring looked up in the voice id.
	Match string

	// Level replaces the base profile level when the rule fires.
	Level SupportLevel

	// Unsupported tags are added on top of the base profile. Use
	// Wildcard to strip everything for this tier.
	Unsupported []string
}

type engineEntry struct {
	base  Profile
	rules []VoiceRule
}

// Registry resolves engine/voice pairs to capability profiles. Entries
// are added at construction time; afterwards the registry is read-only
// and safe for concurrent use.
type Registry struct {
	engines map[string]engineEntry
}

// NewRegistry returns an empty registry. Callers populate it with Add
// before sharing it.
func NewRegistry() *Registry {
	return &Registry{engines: make(map[string]engineEntry)}
}

// Add registers the base profile and optional voice-tier rules for an
// engine id. Later Adds for the same id replace earlier ones.
func (r *Registry) Add(engineID string, base Profile, rules ...VoiceRule) {
	r.engines[strings.ToLower(engineID)] = engineEntry{base: base, rules: rules}
}

// Engines returns the registered engine ids in lexical order.
func (r *Registry) Engines() []string {
	out := make([]string, 0, len(r.engines))
	for id := range r.engines {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Resolve returns the capability profile for the engine/voice pair.
// Resolution order: voice-tier rule, then engine base profile, then the
// strip-everything profile for unknown engines. The returned profile is
// a copy; callers may mutate it freely.
func (r *Registry) Resolve(engineID, voiceID string) Profile {
	entry, ok := r.engines[strings.ToLower(engineID)]
	if !ok {
		return noneProfile()
	}
	p := entry.base.clone()
	voice := strings.ToLower(voiceID)
	for _, rule := range entry.rules {
		if rule.Match == "" || !strings.Contains(voice, rule.Match) {
			continue
		}
		p.Level = rule.Level
		p.SupportsMarkup = rule.Level != LevelNone
		if len(rule.Unsupported) > 0 {
			if p.UnsupportedTags == nil {
				p.UnsupportedTags = NewTagSet()
			}
			for _, t := range rule.Unsupported {
				p.UnsupportedTags[t] = struct{}{}
			}
		}
		break
	}
	return p
}

// std is the built-in table covering the engines this module ships
// adapters for. Tag lists reflect vendor documentation at the time of
// writing; treat them as advisory.
var std = newBuiltinRegistry()

// Default returns the shared built-in registry.
func Default() *Registry {
	return std
}

// Resolve looks up the pair in the built-in registry.
func Resolve(engineID, voiceID string) Profile {
	return std.Resolve(engineID, voiceID)
}

func newBuiltinRegistry() *Registry {
	fullDialect := []string{
		"speak", "break", "prosody", "emphasis", "say-as", "phoneme",
		"sub", "voice", "p", "s", "audio", "mark", "lang",
	}

	r := NewRegistry()

	r.Add("azure", Profile{
		SupportsMarkup:        true,
		Level:                 LevelFull,
		SupportedTags:         NewTagSet(fullDialect...),
		RequiresNamespaceDecl: true,
		RequiresVersionDecl:   true,
	})

	r.Add("google", Profile{
		SupportsMarkup: true,
		Level:          LevelFull,
		SupportedTags:  NewTagSet(fullDialect...),
	},
		// Journey and Chirp voices reject markup outright.
		VoiceRule{Match: "journey", Level: LevelNone, Unsupported: []string{Wildcard}},
		VoiceRule{Match: "chirp", Level: LevelNone, Unsupported: []string{Wildcard}},
	)

	r.Add("polly", Profile{
		SupportsMarkup: true,
		Level:          LevelFull,
		SupportedTags:  NewTagSet(fullDialect...),
	},
		// Neural voices drop emphasis and restrict prosody.
		VoiceRule{Match: "neural", Level: LevelLimited, Unsupported: []string{"emphasis"}},
	)

	r.Add("edge", Profile{
		SupportsMarkup:  true,
		Level:           LevelLimited,
		SupportedTags:   NewTagSet("speak", "voice", "prosody", "break", "p", "s"),
		UnsupportedTags: NewTagSet("emphasis", "say-as", "phoneme", "sub", "audio", "mark", "lang"),
	})

	r.Add("espeak", Profile{
		SupportsMarkup:  true,
		Level:           LevelLimited,
		SupportedTags:   NewTagSet("speak", "voice", "prosody", "emphasis", "say-as", "phoneme", "sub", "break", "mark", "p", "s"),
		UnsupportedTags: NewTagSet("audio", "lang"),
	})

	r.Add("elevenlabs", Profile{
		SupportsMarkup:  true,
		Level:           LevelLimited,
		SupportedTags:   NewTagSet("speak", "break"),
		UnsupportedTags: NewTagSet("prosody", "emphasis", "say-as", "phoneme", "sub", "voice", "p", "s", "audio", "mark", "lang"),
	})

	r.Add("openai", Profile{
		SupportsMarkup:  false,
		Level:           LevelNone,
		UnsupportedTags: NewTagSet(Wildcard),
	})

	r.Add("gtts", Profile{
		SupportsMarkup:  false,
		Level:           LevelNone,
		UnsupportedTags: NewTagSet(Wildcard),
	})

	r.Add("piper", Profile{
		SupportsMarkup:  false,
		Level:           LevelNone,
		UnsupportedTags: NewTagSet(Wildcard),
	})

	r.Add("witai", Profile{
		SupportsMarkup:  false,
		Level:           LevelNone,
		UnsupportedTags: NewTagSet(Wildcard),
	})

	return r
}
