package landmark

// Edge is one anatomical connection between two points of the flattened
// layout, identified by their flat indices.
type Edge struct {
	A, B int
}

// DefaultEdges returns the arm connections checked by the quality
// filter: shoulder to elbow and elbow to wrist on each side, plus the
// shoulder line itself. The shoulder line doubles as the normalization
// reference, so a frame that breaks it can never be normalized either.
func DefaultEdges() []Edge {
	return []Edge{
		{PoseOffset + LeftShoulder, PoseOffset + LeftElbow},
		{PoseOffset + LeftElbow, PoseOffset + LeftWrist},
		{PoseOffset + RightShoulder, PoseOffset + RightElbow},
		{PoseOffset + RightElbow, PoseOffset + RightWrist},
		{PoseOffset + LeftShoulder, PoseOffset + RightShoulder},
	}
}

// Verdict records the quality assessment of one frame: whether it may
// contribute to a window embedding, which points the visibility rule
// masked, and which skeletal edges ended up broken.
type Verdict struct {
	Usable      bool
	Masked      []int
	BrokenEdges []Edge
}

// Filter applies per-point visibility masking and skeletal connectivity
// checks to frames. It is a pure function of the frame and its
// configuration; it never mutates its input.
type Filter struct {
	// Visibility is the minimum per-point confidence; points below it
	// are marked missing in the derived frame.
	Visibility float64

	// Edges are the anatomical connections that must survive masking
	// for a frame to be structurally sound.
	Edges []Edge

	// RequireAny lists groups of which at least one must keep a visible
	// point for the frame to be usable. Signs are articulated with the
	// hands, so by default a frame without either hand carries no
	// gesture information.
	RequireAny []string
}

// NewFilter returns a filter with the default edge set and hand
// presence rule at the given visibility threshold.
func NewFilter(visibility float64) *Filter {
	return &Filter{
		Visibility: visibility,
		Edges:      DefaultEdges(),
		RequireAny: []string{GroupLeftHand, GroupRightHand},
	}
}

// Apply derives a masked copy of the frame and its quality verdict.
//
// A point survives if the detector reported it and its confidence is at
// least the visibility threshold. An edge is broken if either endpoint
// is missing after masking. The frame is usable only if no edge is
// broken and the RequireAny rule holds. Unusable frames still enter the
// window downstream; the verdict is what excludes them from averaging.
func (f *Filter) Apply(frame *Frame) (*Frame, Verdict) {
	derived := frame.clone()
	verdict := Verdict{}

	for i := range derived.points {
		p := &derived.points[i]
		if p.Missing {
			continue
		}
		if p.Confidence < f.Visibility {
			p.Missing = true
			verdict.Masked = append(verdict.Masked, i)
		}
	}

	for _, e := range f.Edges {
		if derived.points[e.A].Missing || derived.points[e.B].Missing {
			verdict.BrokenEdges = append(verdict.BrokenEdges, e)
		}
	}

	verdict.Usable = len(verdict.BrokenEdges) == 0 && f.anyGroupVisible(derived)
	return derived, verdict
}

// anyGroupVisible reports whether at least one RequireAny group kept a
// visible point. An empty rule set always passes.
func (f *Filter) anyGroupVisible(frame *Frame) bool {
	if len(f.RequireAny) == 0 {
		return true
	}
	for _, name := range f.RequireAny {
		for _, p := range frame.Group(name) {
			if !p.Missing {
				return true
			}
		}
	}
	return false
}
