// Package recognizer composes the per-frame recognition pipeline and
// the debounce state machine that turns its results into discrete
// recognition events.
package recognizer

import (
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/mudra/internal/registry"
)

// Band is a coarse confidence label attached to emissions, for
// consumers that want a traffic light rather than a similarity value.
type Band string

const (
	BandHigh   Band = "high"
	BandMedium Band = "medium"
	BandLow    Band = "low"
)

// Confidence band cutoffs.
const (
	bandHighMin   = 0.90
	bandMediumMin = 0.80
)

// BandFor maps a similarity to its confidence band.
func BandFor(similarity float64) Band {
	switch {
	case similarity >= bandHighMin:
		return BandHigh
	case similarity >= bandMediumMin:
		return BandMedium
	default:
		return BandLow
	}
}

// Event is one emitted recognition: the sole externally visible output
// of the pipeline, produced at most once per cooldown period.
type Event struct {
	ID         string    `json:"id"`
	ConceptID  string    `json:"concept_id"`
	Name       string    `json:"name,omitempty"`
	Language   string    `json:"language"`
	Similarity float64   `json:"similarity"`
	Band       Band      `json:"band"`
	Timestamp  time.Time `json:"timestamp"`
}

// newEvent mints the emission record for a verified result.
func newEvent(res Result, language string, ts time.Time) Event {
	return Event{
		ID:         uuid.NewString(),
		ConceptID:  res.BestConceptID,
		Name:       res.BestName,
		Language:   language,
		Similarity: res.BestSimilarity,
		Band:       BandFor(res.BestSimilarity),
		Timestamp:  ts,
	}
}

// Result is one full-window evaluation. It is immutable once created;
// only the debounce controller may turn it into an Event.
type Result struct {
	// BestConceptID is empty when the scope held no concepts.
	BestConceptID        string
	BestName             string
	BestSimilarity       float64
	SecondBestSimilarity float64

	// Status is empty until WindowReady is true.
	Status registry.Status

	WindowReady  bool
	WindowFill   int
	WindowUsable int
}
