package store

import (
	"github.com/ayusman/mudra/internal/registry"
)

// Snapshot loads the concepts of one language into an immutable
// registry snapshot.
func (s *Store) Snapshot(language string) (*registry.Snapshot, error) {
	return s.snapshot(language)
}

// SnapshotAll loads the concepts of every language into an immutable
// registry snapshot.
func (s *Store) SnapshotAll() (*registry.Snapshot, error) {
	return s.snapshot("")
}

func (s *Store) snapshot(language string) (*registry.Snapshot, error) {
	concepts, err := s.Concepts().List(language)
	if err != nil {
		return nil, err
	}

	entries := make([]registry.Entry, 0, len(concepts))
	for _, c := range concepts {
		entries = append(entries, registry.Entry{
			ConceptID: c.ID,
			Language:  c.Language,
			Name:      c.Name,
			Vector:    c.Vector,
		})
	}

	return registry.NewSnapshot(entries), nil
}
