package landmark

import (
	"fmt"
)

// Point is a single detected landmark: a 3D coordinate, the detector's
// confidence for it, and an explicit missing marker. Zero is a valid
// coordinate, so absence is never encoded as (0,0,0).
type Point struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Confidence float64 `json:"confidence"`
	Missing    bool    `json:"missing,omitempty"`
}

// Frame holds the landmarks of one detector invocation: every group of
// the layout, stored in flatten order in a single fixed-size array.
// Frames are never mutated after construction; the filter and the
// normalizer derive new frames instead.
type Frame struct {
	points [NumPoints]Point
}

// CardinalityError reports a landmark group whose point count does not
// match the fixed layout. It indicates malformed detector or signature
// input and is never recovered by masking or truncation.
type CardinalityError struct {
	Group string
	Want  int
	Got   int
}

func (e *CardinalityError) Error() string {
	return fmt.Sprintf("landmark group %q has %d points, layout requires %d", e.Group, e.Got, e.Want)
}

// NewFrame assembles a frame from named group slices. Groups absent from
// the map are filled with missing points (a detector that saw no hand
// still yields a complete frame). A group with the wrong cardinality or
// an unknown name fails fast with an error.
func NewFrame(groups map[string][]Point) (*Frame, error) {
	f := &Frame{}
	for i := range f.points {
		f.points[i] = Point{Missing: true}
	}

	for name, pts := range groups {
		size := GroupSize(name)
		if size < 0 {
			return nil, fmt.Errorf("unknown landmark group %q", name)
		}
		if len(pts) != size {
			return nil, &CardinalityError{Group: name, Want: size, Got: len(pts)}
		}
		copy(f.points[GroupOffset(name):], pts)
	}

	return f, nil
}

// Group returns the points of a named group in layout order. The
// returned slice aliases the frame and must not be modified.
func (f *Frame) Group(name string) []Point {
	off := GroupOffset(name)
	if off < 0 {
		return nil
	}
	return f.points[off : off+GroupSize(name)]
}

// Point returns one point by group name and index within the group.
func (f *Frame) Point(group string, i int) Point {
	return f.points[GroupOffset(group)+i]
}

// At returns one point by its flat layout index.
func (f *Frame) At(i int) Point {
	return f.points[i]
}

// Points returns all points in flatten order. The returned slice aliases
// the frame and must not be modified.
func (f *Frame) Points() []Point {
	return f.points[:]
}

// MissingCount returns how many points of the frame are marked missing.
func (f *Frame) MissingCount() int {
	n := 0
	for i := range f.points {
		if f.points[i].Missing {
			n++
		}
	}
	return n
}

// clone returns a copy the caller may mutate.
func (f *Frame) clone() *Frame {
	out := *f
	return &out
}
