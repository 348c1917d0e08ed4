package landmark

import (
	"errors"
	"math"
)

// minShoulderScale is the smallest shoulder distance accepted as a
// normalization reference. Below it the frame geometry is degenerate
// and dividing by it would amplify noise without bound.
const minShoulderScale = 1e-6

var (
	// ErrMissingReference means one or both shoulders are missing, so
	// no normalization origin exists for the frame.
	ErrMissingReference = errors.New("missing shoulder reference")

	// ErrDegenerateScale means the shoulders are (near) coincident and
	// the frame cannot be scaled meaningfully.
	ErrDegenerateScale = errors.New("degenerate shoulder scale")
)

// Normalize maps the frame into a body-centric coordinate space: every
// visible point is translated so the shoulder midpoint becomes the
// origin, then scaled by the shoulder distance. The result is invariant
// to the subject's position in the image and distance from the camera,
// which is what makes live frames comparable to recorded references.
//
// Missing points stay missing; they are never coerced to a coordinate.
// Frames whose shoulders are missing or nearly coincident cannot be
// normalized and return an error; callers treat that as one more
// unusable frame, not as a pipeline failure.
func (f *Frame) Normalize() (*Frame, error) {
	ls := f.Point(GroupPose, LeftShoulder)
	rs := f.Point(GroupPose, RightShoulder)
	if ls.Missing || rs.Missing {
		return nil, ErrMissingReference
	}

	scale := distance3D(ls, rs)
	if scale < minShoulderScale {
		return nil, ErrDegenerateScale
	}

	ox := (ls.X + rs.X) / 2
	oy := (ls.Y + rs.Y) / 2
	oz := (ls.Z + rs.Z) / 2

	out := f.clone()
	for i := range out.points {
		p := &out.points[i]
		if p.Missing {
			continue
		}
		p.X = (p.X - ox) / scale
		p.Y = (p.Y - oy) / scale
		p.Z = (p.Z - oz) / scale
	}
	return out, nil
}

// distance3D returns the Euclidean distance between two points.
func distance3D(a, b Point) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	dz := a.Z - b.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}
