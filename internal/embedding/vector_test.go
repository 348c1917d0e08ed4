package embedding

import (
	"errors"
	"testing"

	"github.com/ayusman/mudra/internal/landmark"
)

func TestCosine_IdentityIsExactlyOne(t *testing.T) {
	v := Vector{1, 2, 2, 0, 4}

	sim, err := Cosine(v, v)
	if err != nil {
		t.Fatalf("Cosine() error = %v", err)
	}
	if sim != 1 {
		t.Errorf("Cosine(v, v) = %v, want exactly 1", sim)
	}
}

func TestCosine_OppositeIsExactlyMinusOne(t *testing.T) {
	a := Vector{1, 2, 2}
	b := Vector{-1, -2, -2}

	sim, err := Cosine(a, b)
	if err != nil {
		t.Fatalf("Cosine() error = %v", err)
	}
	if sim != -1 {
		t.Errorf("Cosine(v, -v) = %v, want exactly -1", sim)
	}
}

func TestCosine_Symmetric(t *testing.T) {
	a := Vector{0.3, -1.7, 2.42, 0.001}
	b := Vector{-0.9, 0.33, 1.08, 7.5}

	ab, err := Cosine(a, b)
	if err != nil {
		t.Fatalf("Cosine(a, b) error = %v", err)
	}
	ba, err := Cosine(b, a)
	if err != nil {
		t.Fatalf("Cosine(b, a) error = %v", err)
	}
	if ab != ba {
		t.Errorf("Cosine(a, b) = %v, Cosine(b, a) = %v, want equal", ab, ba)
	}
}

func TestCosine_Bounded(t *testing.T) {
	vectors := []Vector{
		{1, 0, 0},
		{0.0001, 99999, -3},
		{-1e9, 1e-9, 0.5},
		{7, 7, 7},
	}
	for i, a := range vectors {
		for j, b := range vectors {
			sim, err := Cosine(a, b)
			if err != nil {
				t.Fatalf("Cosine(%d, %d) error = %v", i, j, err)
			}
			if sim < -1 || sim > 1 {
				t.Errorf("Cosine(%d, %d) = %v, outside [-1, 1]", i, j, sim)
			}
		}
	}
}

func TestCosine_Orthogonal(t *testing.T) {
	sim, err := Cosine(Vector{1, 0}, Vector{0, 1})
	if err != nil {
		t.Fatalf("Cosine() error = %v", err)
	}
	if sim != 0 {
		t.Errorf("Cosine(orthogonal) = %v, want 0", sim)
	}
}

func TestCosine_ZeroNormYieldsZero(t *testing.T) {
	sim, err := Cosine(Vector{0, 0, 0}, Vector{1, 2, 3})
	if err != nil {
		t.Fatalf("Cosine() error = %v", err)
	}
	if sim != 0 {
		t.Errorf("Cosine(zero, v) = %v, want 0", sim)
	}
}

func TestCosine_LengthMismatchFailsFast(t *testing.T) {
	_, err := Cosine(Vector{1, 2}, Vector{1, 2, 3})
	if err == nil {
		t.Fatal("Cosine() accepted vectors of different lengths")
	}

	var mismatch *LengthMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("error = %v, want LengthMismatchError", err)
	}
	if mismatch.Want != 2 || mismatch.Got != 3 {
		t.Errorf("mismatch = %+v, want {2 3}", mismatch)
	}
}

// maskedFrame builds a frame whose points all sit at (v, v, v) except
// the listed flat indices, which are missing.
func maskedFrame(t *testing.T, v float64, missing ...int) *landmark.Frame {
	t.Helper()
	skip := make(map[int]bool, len(missing))
	for _, i := range missing {
		skip[i] = true
	}

	groups := make(map[string][]landmark.Point)
	for _, spec := range landmark.Groups() {
		pts := make([]landmark.Point, spec.Size)
		for i := range pts {
			pts[i] = landmark.Point{X: v, Y: v, Z: v, Confidence: 1, Missing: skip[spec.Offset+i]}
		}
		groups[spec.Name] = pts
	}

	f, err := landmark.NewFrame(groups)
	if err != nil {
		t.Fatalf("NewFrame() error = %v", err)
	}
	return f
}

func TestMaskedMean_ExcludesMissingFromSumAndCount(t *testing.T) {
	// Point 3 is present only in the second frame, so its positions
	// must average over that single sample, not over both frames.
	a := maskedFrame(t, 1, 3)
	b := maskedFrame(t, 5)

	vec, degenerate := MaskedMean([]*landmark.Frame{a, b})

	if len(vec) != landmark.Dim {
		t.Fatalf("vector length = %d, want %d", len(vec), landmark.Dim)
	}
	if len(degenerate) != 0 {
		t.Errorf("degenerate = %v, want none", degenerate)
	}
	if vec[0] != 3 {
		t.Errorf("fully present position = %v, want 3", vec[0])
	}
	if vec[3*landmark.NumAxes] != 5 {
		t.Errorf("partially present position = %v, want 5 (mean of the one sample)", vec[3*landmark.NumAxes])
	}
}

func TestMaskedMean_AllMissingPositionIsZeroAndFlagged(t *testing.T) {
	a := maskedFrame(t, 1, 10)
	b := maskedFrame(t, 2, 10)

	vec, degenerate := MaskedMean([]*landmark.Frame{a, b})

	base := 10 * landmark.NumAxes
	want := []int{base, base + 1, base + 2}
	if len(degenerate) != len(want) {
		t.Fatalf("degenerate = %v, want %v", degenerate, want)
	}
	for i, pos := range want {
		if degenerate[i] != pos {
			t.Errorf("degenerate[%d] = %d, want %d", i, degenerate[i], pos)
		}
		if vec[pos] != 0 {
			t.Errorf("vec[%d] = %v, want 0", pos, vec[pos])
		}
	}
}

func TestMaskedMean_SkipsNilFrames(t *testing.T) {
	vec, _ := MaskedMean([]*landmark.Frame{nil, maskedFrame(t, 4)})
	if vec[0] != 4 {
		t.Errorf("vec[0] = %v, want 4", vec[0])
	}
}
