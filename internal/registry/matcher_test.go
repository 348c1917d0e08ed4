package registry

import (
	"errors"
	"testing"

	"github.com/ayusman/mudra/internal/embedding"
)

func TestMatch_RanksBestFirst(t *testing.T) {
	s := NewSnapshot([]Entry{
		{ConceptID: "C_AWAY_001", Language: "asl", Vector: embedding.Vector{-1, 0}},
		{ConceptID: "C_SAME_001", Language: "asl", Vector: embedding.Vector{1, 0}},
		{ConceptID: "C_SIDE_001", Language: "asl", Vector: embedding.Vector{0, 1}},
	})

	candidates, err := s.Match("asl", embedding.Vector{1, 0})
	if err != nil {
		t.Fatalf("Match() error = %v", err)
	}
	if len(candidates) != 3 {
		t.Fatalf("Match() returned %d candidates, want the full ranked list of 3", len(candidates))
	}

	wantOrder := []string{"C_SAME_001", "C_SIDE_001", "C_AWAY_001"}
	for i, want := range wantOrder {
		if candidates[i].ConceptID != want {
			t.Errorf("rank %d = %s, want %s", i, candidates[i].ConceptID, want)
		}
	}
	if candidates[0].Similarity != 1 {
		t.Errorf("best similarity = %v, want exactly 1", candidates[0].Similarity)
	}
	if candidates[2].Similarity != -1 {
		t.Errorf("worst similarity = %v, want exactly -1", candidates[2].Similarity)
	}
}

func TestMatch_TiesOrderedByConceptID(t *testing.T) {
	// Identical reference vectors produce identical similarities; the
	// ranking must still be deterministic.
	s := NewSnapshot([]Entry{
		{ConceptID: "C_ZETA_001", Language: "asl", Vector: embedding.Vector{2, 0}},
		{ConceptID: "C_ALPHA_001", Language: "asl", Vector: embedding.Vector{3, 0}},
	})

	candidates, err := s.Match("asl", embedding.Vector{1, 0})
	if err != nil {
		t.Fatalf("Match() error = %v", err)
	}

	if candidates[0].Similarity != candidates[1].Similarity {
		t.Fatalf("similarities differ (%v vs %v), tie expected", candidates[0].Similarity, candidates[1].Similarity)
	}
	if candidates[0].ConceptID != "C_ALPHA_001" {
		t.Errorf("tie broken toward %s, want C_ALPHA_001", candidates[0].ConceptID)
	}
}

func TestMatch_RestrictedToLanguageScope(t *testing.T) {
	s := NewSnapshot([]Entry{
		{ConceptID: "C_GREETING_001", Language: "asl", Vector: embedding.Vector{1, 0}},
		{ConceptID: "C_GREETING_001", Language: "bsl", Vector: embedding.Vector{1, 0}},
	})

	candidates, err := s.Match("bsl", embedding.Vector{1, 0})
	if err != nil {
		t.Fatalf("Match() error = %v", err)
	}
	if len(candidates) != 1 {
		t.Errorf("Match(bsl) = %d candidates, want 1", len(candidates))
	}
}

func TestMatch_EmptyScopeIsNoMatch(t *testing.T) {
	s := NewSnapshot([]Entry{
		{ConceptID: "C_GREETING_001", Language: "asl", Vector: embedding.Vector{1, 0}},
	})

	candidates, err := s.Match("jsl", embedding.Vector{1, 0})
	if err != nil {
		t.Fatalf("Match() on an empty scope error = %v, want nil", err)
	}
	if len(candidates) != 0 {
		t.Errorf("Match() on an empty scope = %v, want no candidates", candidates)
	}
}

func TestMatch_LengthMismatchFailsFast(t *testing.T) {
	s := NewSnapshot([]Entry{
		{ConceptID: "C_GOOD_001", Language: "asl", Vector: embedding.Vector{1, 0}},
		{ConceptID: "C_STALE_001", Language: "asl", Vector: embedding.Vector{1, 0, 0}},
	})

	_, err := s.Match("asl", embedding.Vector{1, 0})
	if err == nil {
		t.Fatal("Match() tolerated a stored vector of mismatched length")
	}

	var mismatch *embedding.LengthMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("error = %v, want LengthMismatchError", err)
	}
}

func TestMatch_AddingUnrelatedConceptChangesNothing(t *testing.T) {
	gate := Gate{Abs: 0.80, Gap: 0.15}
	live := embedding.Vector{1, 0}

	small := NewSnapshot([]Entry{
		{ConceptID: "C_TARGET_001", Language: "asl", Vector: embedding.Vector{1, 0}},
		{ConceptID: "C_OTHER_001", Language: "asl", Vector: embedding.Vector{0, 1}},
	})
	grown := NewSnapshot([]Entry{
		{ConceptID: "C_TARGET_001", Language: "asl", Vector: embedding.Vector{1, 0}},
		{ConceptID: "C_OTHER_001", Language: "asl", Vector: embedding.Vector{0, 1}},
		{ConceptID: "C_UNRELATED_001", Language: "asl", Vector: embedding.Vector{0, -1}},
	})

	before, err := small.Match("asl", live)
	if err != nil {
		t.Fatalf("Match(small) error = %v", err)
	}
	after, err := grown.Match("asl", live)
	if err != nil {
		t.Fatalf("Match(grown) error = %v", err)
	}

	beforeStatus, b1, s1 := gate.ClassifyCandidates(before)
	afterStatus, b2, s2 := gate.ClassifyCandidates(after)

	if beforeStatus != StatusVerified || afterStatus != StatusVerified {
		t.Errorf("status before/after = %v/%v, want verified/verified", beforeStatus, afterStatus)
	}
	if before[0].ConceptID != after[0].ConceptID {
		t.Errorf("best concept changed from %s to %s", before[0].ConceptID, after[0].ConceptID)
	}
	if b1 != b2 || s1 != s2 {
		t.Errorf("top-two similarities changed: (%v, %v) vs (%v, %v)", b1, s1, b2, s2)
	}
}
