// Package voices models engine voice catalogs: the normalized voice
// descriptor every adapter returns, plus an in-memory catalog with
// fuzzy lookup and BCP-47 language filtering.
package voices

import (
	"strings"
	"sync"
	"time"

	"github.com/sahilm/fuzzy"
	"golang.org/x/text/language"
)

// Gender is the vendor-reported voice gender, normalized to a small
// vocabulary.
type Gender string

const (
	GenderUnspecified Gender = ""
	GenderFemale      Gender = "female"
	GenderMale        Gender = "male"
	GenderNeutral     Gender = "neutral"
)

// Voice is one synthesizable voice as reported by an engine adapter.
type Voice struct {
	// ID is the engine-scoped voice identifier used in synthesis
	// requests.
	ID string

	// Name is the human-readable display name.
	Name string

	// Gender is normalized vendor metadata, possibly empty.
	Gender Gender

	// LanguageCodes are the BCP-47 tags the voice can speak, primary
	// first.
	LanguageCodes []string

	// EngineID names the adapter the voice came from.
	EngineID string
}

// Catalog is a thread-safe snapshot of an engine's voices with a
// staleness TTL, so orchestrators can avoid refetching the list on
// every call.
type Catalog struct {
	mu       sync.RWMutex
	voices   []Voice
	byID     map[string]int
	loadedAt time.Time
	ttl      time.Duration
}

// NewCatalog creates an empty catalog. A ttl of zero means snapshots
// never expire.
func NewCatalog(ttl time.Duration) *Catalog {
	return &Catalog{ttl: ttl}
}

// SetVoices replaces the catalog contents and resets the staleness
// clock.
func (c *Catalog) SetVoices(vs []Voice) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.voices = make([]Voice, len(vs))
	copy(c.voices, vs)
	c.byID = make(map[string]int, len(vs))
	for i, v := range c.voices {
		c.byID[strings.ToLower(v.ID)] = i
	}
	c.loadedAt = time.Now()
}

// Voices returns a copy of the current snapshot.
func (c *Catalog) Voices() []Voice {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Voice, len(c.voices))
	copy(out, c.voices)
	return out
}

// Len returns the number of voices in the snapshot.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.voices)
}

// Stale reports whether the catalog needs a refresh: never loaded, or
// older than the TTL.
func (c *Catalog) Stale() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.loadedAt.IsZero() {
		return true
	}
	if c.ttl <= 0 {
		return false
	}
	return time.Since(c.loadedAt) > c.ttl
}

// Get looks up a voice by id, case-insensitively.
func (c *Catalog) Get(id string) (Voice, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, ok := c.byID[strings.ToLower(id)]
	if !ok {
		return Voice{}, false
	}
	return c.voices[i], true
}

// Find fuzzy-matches query against voice ids and names and returns the
// hits ranked best-first. An empty query returns nothing.
func (c *Catalog) Find(query string) []Voice {
	if strings.TrimSpace(query) == "" {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	targets := make([]string, len(c.voices))
	for i, v := range c.voices {
		targets[i] = v.ID + " " + v.Name
	}
	matches := fuzzy.Find(query, targets)
	out := make([]Voice, 0, len(matches))
	for _, m := range matches {
		out = append(out, c.voices[m.Index])
	}
	return out
}

// ByLanguage returns the voices speaking the given BCP-47 tag. A bare
// language ("en") matches every region; a tag with an explicit region
// ("en-GB") requires that region.
func (c *Catalog) ByLanguage(code string) []Voice {
	want, err := language.Parse(code)
	if err != nil {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []Voice
	for _, v := range c.voices {
		for _, lc := range v.LanguageCodes {
			have, err := language.Parse(lc)
			if err != nil {
				continue
			}
			if tagMatches(want, have) {
				out = append(out, v)
				break
			}
		}
	}
	return out
}

// tagMatches compares language bases, and regions only when the query
// names one explicitly.
func tagMatches(want, have language.Tag) bool {
	wantBase, conf := want.Base()
	if conf == language.No {
		return false
	}
	haveBase, _ := have.Base()
	if wantBase != haveBase {
		return false
	}
	wantRegion, conf := want.Region()
	if conf != language.Exact {
		return true
	}
	haveRegion, _ := have.Region()
	return wantRegion == haveRegion
}
