// Package embedding turns windows of normalized landmark frames into
// fixed-length vectors and provides the similarity math used to compare
// them against registry references.
package embedding

import (
	"fmt"
	"math"

	"github.com/ayusman/mudra/internal/landmark"
)

// Vector is a fixed-length embedding: the flattened concatenation of
// every landmark group across all coordinate axes, averaged over a
// window of motion. All vectors compared against each other must have
// the same length and layout.
type Vector []float64

// LengthMismatchError reports an attempt to compare vectors of
// different lengths. It always indicates a registry built against a
// different layout, never a runtime condition to tolerate.
type LengthMismatchError struct {
	Want int
	Got  int
}

func (e *LengthMismatchError) Error() string {
	return fmt.Sprintf("embedding length mismatch: %d vs %d", e.Want, e.Got)
}

// Cosine returns the cosine similarity of two equal-length vectors, in
// [-1, 1]. A zero-norm operand yields 0. Vectors of different lengths
// fail fast with a LengthMismatchError; they are never truncated or
// padded to fit.
func Cosine(a, b Vector) (float64, error) {
	if len(a) != len(b) {
		return 0, &LengthMismatchError{Want: len(a), Got: len(b)}
	}

	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0, nil
	}

	sim := dot / math.Sqrt(na*nb)
	// Accumulated rounding can push the ratio a hair outside the
	// mathematical range.
	if sim > 1 {
		sim = 1
	} else if sim < -1 {
		sim = -1
	}
	return sim, nil
}

// MaskedMean averages frames position by position into one vector of
// length landmark.Dim. A missing point contributes to neither the sum
// nor the count of its three positions. Positions with no samples in
// any frame are set to 0 and returned as degenerate; the zero there is
// a documented placeholder, not a measured coordinate.
func MaskedMean(frames []*landmark.Frame) (Vector, []int) {
	sums := make([]float64, landmark.Dim)
	counts := make([]int, landmark.Dim)

	for _, f := range frames {
		if f == nil {
			continue
		}
		for i, p := range f.Points() {
			if p.Missing {
				continue
			}
			base := i * landmark.NumAxes
			sums[base] += p.X
			sums[base+1] += p.Y
			sums[base+2] += p.Z
			counts[base]++
			counts[base+1]++
			counts[base+2]++
		}
	}

	vec := make(Vector, landmark.Dim)
	var degenerate []int
	for i := range vec {
		if counts[i] == 0 {
			degenerate = append(degenerate, i)
			continue
		}
		vec[i] = sums[i] / float64(counts[i])
	}
	return vec, degenerate
}
