package registry

import (
	"fmt"
	"sort"

	"github.com/ayusman/mudra/internal/embedding"
)

// Candidate is one row of a ranked match result.
type Candidate struct {
	ConceptID  string  `json:"concept_id"`
	Name       string  `json:"name,omitempty"`
	Similarity float64 `json:"similarity"`
}

// Match compares a live embedding against every entry of one language
// scope and returns the full ranked list, best similarity first.
// Candidates with identical similarity are ordered by concept ID so the
// ranking is deterministic.
//
// An empty scope yields an empty list: no match is a defined outcome,
// not an error. A stored entry whose vector length differs from the
// live embedding aborts the whole match; that can only come from a
// registry built against a different layout and must surface
// immediately rather than skew a ranking.
func (s *Snapshot) Match(language string, live embedding.Vector) ([]Candidate, error) {
	scoped := s.Scope(language)
	if len(scoped) == 0 {
		return nil, nil
	}

	candidates := make([]Candidate, 0, len(scoped))
	for _, e := range scoped {
		sim, err := embedding.Cosine(live, e.Vector)
		if err != nil {
			return nil, fmt.Errorf("concept %s/%s: %w", language, e.ConceptID, err)
		}
		candidates = append(candidates, Candidate{
			ConceptID:  e.ConceptID,
			Name:       e.Name,
			Similarity: sim,
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Similarity != candidates[j].Similarity {
			return candidates[i].Similarity > candidates[j].Similarity
		}
		return candidates[i].ConceptID < candidates[j].ConceptID
	})
	return candidates, nil
}
