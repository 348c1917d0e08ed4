package registry

import "fmt"

// Status classifies one full-window evaluation.
type Status string

const (
	// StatusVerified: the best candidate clears the absolute threshold
	// and leads the runner-up by at least the gap threshold.
	StatusVerified Status = "verified"

	// StatusAmbiguous: the best candidate clears the absolute
	// threshold but the runner-up is too close. The motion was clearly
	// something, just not clearly this something.
	StatusAmbiguous Status = "ambiguous"

	// StatusLowConfidence: the best candidate stays below the absolute
	// threshold, whatever the gap.
	StatusLowConfidence Status = "low_confidence"
)

// Gate applies the absolute-confidence and relative-gap rules to a
// ranked candidate list. The rule only ever consults the top two
// candidates, so growing the registry requires no retuning and no
// concept gets an individual threshold.
type Gate struct {
	// Abs is the minimum best-candidate similarity.
	Abs float64
	// Gap is the minimum lead over the runner-up.
	Gap float64
}

// Classify maps the best and runner-up similarities to a status.
// Callers pass second = 0 when fewer than two candidates exist.
func (g Gate) Classify(best, second float64) Status {
	if best < g.Abs {
		return StatusLowConfidence
	}
	if best-second < g.Gap {
		return StatusAmbiguous
	}
	return StatusVerified
}

// ClassifyCandidates applies the gate to a ranked list, returning the
// status together with the similarities it consulted. An empty list is
// the defined no-match outcome: low confidence with zero similarity.
func (g Gate) ClassifyCandidates(candidates []Candidate) (status Status, best, second float64) {
	if len(candidates) == 0 {
		return StatusLowConfidence, 0, 0
	}
	best = candidates[0].Similarity
	if len(candidates) > 1 {
		second = candidates[1].Similarity
	}
	return g.Classify(best, second), best, second
}

// Validate rejects threshold combinations that could never verify
// anything or that fall outside the similarity range.
func (g Gate) Validate() error {
	if g.Abs <= 0 || g.Abs > 1 {
		return fmt.Errorf("absolute threshold %v outside (0, 1]", g.Abs)
	}
	if g.Gap < 0 || g.Gap >= 1 {
		return fmt.Errorf("gap threshold %v outside [0, 1)", g.Gap)
	}
	return nil
}
