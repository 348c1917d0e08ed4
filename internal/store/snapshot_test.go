package store

import (
	"testing"
)

func TestStore_SnapshotAll(t *testing.T) {
	s := newTestStore(t)
	repo := s.Concepts()

	concepts := []*Concept{
		{ID: "hello", Language: "asl", Name: "Hello", Vector: []float64{1, 0, 0}},
		{ID: "water", Language: "asl", Name: "Water", Vector: []float64{0, 1, 0}},
		{ID: "hello", Language: "bsl", Name: "Hello", Vector: []float64{0, 0, 1}},
	}
	for _, c := range concepts {
		if err := repo.Create(c); err != nil {
			t.Fatalf("failed to create concept %s/%s: %v", c.ID, c.Language, err)
		}
	}

	snap, err := s.SnapshotAll()
	if err != nil {
		t.Fatalf("failed to load snapshot: %v", err)
	}

	if snap.Len() != 3 {
		t.Errorf("snapshot has %d entries, want 3", snap.Len())
	}
	if got := len(snap.Scope("asl")); got != 2 {
		t.Errorf("asl scope has %d entries, want 2", got)
	}

	entry, ok := snap.Lookup("bsl", "hello")
	if !ok {
		t.Fatal("bsl/hello missing from snapshot")
	}
	if entry.Name != "Hello" {
		t.Errorf("entry name = %q, want Hello", entry.Name)
	}
	if len(entry.Vector) != 3 || entry.Vector[2] != 1 {
		t.Errorf("entry vector = %v, want [0 0 1]", entry.Vector)
	}
}

func TestStore_Snapshot_ScopedToLanguage(t *testing.T) {
	s := newTestStore(t)
	repo := s.Concepts()

	if err := repo.Create(&Concept{ID: "hello", Language: "asl", Name: "Hello", Vector: []float64{1}}); err != nil {
		t.Fatalf("failed to create concept: %v", err)
	}
	if err := repo.Create(&Concept{ID: "hello", Language: "bsl", Name: "Hello", Vector: []float64{2}}); err != nil {
		t.Fatalf("failed to create concept: %v", err)
	}

	snap, err := s.Snapshot("asl")
	if err != nil {
		t.Fatalf("failed to load scoped snapshot: %v", err)
	}

	if snap.Len() != 1 {
		t.Errorf("scoped snapshot has %d entries, want 1", snap.Len())
	}
	if _, ok := snap.Lookup("bsl", "hello"); ok {
		t.Error("bsl entry leaked into an asl-scoped snapshot")
	}
}

func TestStore_Snapshot_EmptyStore(t *testing.T) {
	s := newTestStore(t)

	snap, err := s.SnapshotAll()
	if err != nil {
		t.Fatalf("failed to load snapshot from empty store: %v", err)
	}
	if snap == nil {
		t.Fatal("empty store should still produce a snapshot")
	}
	if snap.Len() != 0 {
		t.Errorf("empty store snapshot has %d entries, want 0", snap.Len())
	}
}
