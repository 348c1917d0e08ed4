// Package registry holds the in-memory registry of reference
// embeddings and the matching and verification rules applied to live
// window embeddings.
package registry

import (
	"sort"

	"github.com/ayusman/mudra/internal/embedding"
)

// Entry is one concept's reference embedding in one language scope.
// Entries are created by offline registry tooling and are read-only
// during recognition.
type Entry struct {
	ConceptID string
	Language  string
	Name      string
	Vector    embedding.Vector
}

// Snapshot is an immutable set of registry entries grouped by language.
// Recognition always runs against one snapshot reference; concept
// changes are applied by building a new snapshot and swapping the
// reference atomically between evaluation cycles, never by mutating
// entries in place.
type Snapshot struct {
	byLanguage map[string][]Entry
	count      int
}

// NewSnapshot builds a snapshot from entries, copying them so later
// changes to the input slice cannot reach a live snapshot. Entries are
// kept sorted by concept ID within each language.
func NewSnapshot(entries []Entry) *Snapshot {
	s := &Snapshot{byLanguage: make(map[string][]Entry)}
	for _, e := range entries {
		s.byLanguage[e.Language] = append(s.byLanguage[e.Language], e)
		s.count++
	}
	for _, scoped := range s.byLanguage {
		sort.Slice(scoped, func(i, j int) bool {
			return scoped[i].ConceptID < scoped[j].ConceptID
		})
	}
	return s
}

// Len returns the total number of entries across all languages.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return s.count
}

// Languages returns the language scopes present, sorted.
func (s *Snapshot) Languages() []string {
	if s == nil {
		return nil
	}
	langs := make([]string, 0, len(s.byLanguage))
	for lang := range s.byLanguage {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

// Scope returns the entries of one language, sorted by concept ID. The
// returned slice is shared; callers must not modify it.
func (s *Snapshot) Scope(language string) []Entry {
	if s == nil {
		return nil
	}
	return s.byLanguage[language]
}

// Lookup returns the entry for a concept ID within a language scope.
func (s *Snapshot) Lookup(language, conceptID string) (Entry, bool) {
	for _, e := range s.Scope(language) {
		if e.ConceptID == conceptID {
			return e, true
		}
	}
	return Entry{}, false
}
