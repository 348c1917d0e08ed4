// Package landmark defines the skeletal landmark frame model shared by the
// recognition pipeline: the fixed group layout produced by the upstream
// detector, per-point quality filtering, and body-centric normalization.
package landmark

// Landmark group names, in flatten order.
const (
	GroupPose      = "pose"
	GroupLeftHand  = "left_hand"
	GroupRightHand = "right_hand"
	GroupFace      = "face"
)

// Pose point indices within the pose group.
const (
	LeftShoulder = iota
	RightShoulder
	LeftElbow
	RightElbow
	LeftWrist
	RightWrist
	NumPosePoints
)

// Group cardinalities and derived layout sizes.
const (
	NumHandPoints = 21
	NumFacePoints = 4

	// NumPoints is the total point count of one frame.
	NumPoints = NumPosePoints + 2*NumHandPoints + NumFacePoints

	// NumAxes is the number of coordinate axes flattened per point.
	NumAxes = 3

	// Dim is the length of every embedding vector derived from this
	// layout. Reference embeddings in the registry must match it.
	Dim = NumPoints * NumAxes
)

// Offsets of each group's first point in the flattened layout.
const (
	PoseOffset      = 0
	LeftHandOffset  = PoseOffset + NumPosePoints
	RightHandOffset = LeftHandOffset + NumHandPoints
	FaceOffset      = RightHandOffset + NumHandPoints
)

// GroupSpec describes one landmark group of the layout.
type GroupSpec struct {
	Name   string
	Size   int
	Offset int
}

// Groups lists the landmark groups in flatten order. The order, names,
// and sizes are fixed configuration shared with whatever produced the
// registry; changing them invalidates every stored embedding.
func Groups() []GroupSpec {
	return []GroupSpec{
		{Name: GroupPose, Size: NumPosePoints, Offset: PoseOffset},
		{Name: GroupLeftHand, Size: NumHandPoints, Offset: LeftHandOffset},
		{Name: GroupRightHand, Size: NumHandPoints, Offset: RightHandOffset},
		{Name: GroupFace, Size: NumFacePoints, Offset: FaceOffset},
	}
}

// GroupSize returns the fixed cardinality of a named group, or -1 if the
// group is not part of the layout.
func GroupSize(name string) int {
	switch name {
	case GroupPose:
		return NumPosePoints
	case GroupLeftHand, GroupRightHand:
		return NumHandPoints
	case GroupFace:
		return NumFacePoints
	}
	return -1
}

// GroupOffset returns the flat index of a named group's first point, or
// -1 if the group is not part of the layout.
func GroupOffset(name string) int {
	switch name {
	case GroupPose:
		return PoseOffset
	case GroupLeftHand:
		return LeftHandOffset
	case GroupRightHand:
		return RightHandOffset
	case GroupFace:
		return FaceOffset
	}
	return -1
}
