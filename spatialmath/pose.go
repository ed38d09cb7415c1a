package spatialmath

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// Pose represents a 6dof pose, position and orientation, of a rigid body in
// 3D Euclidean space.
type Pose interface {
	Point() r3.Vector
	Orientation() Orientation
}

type basicPose struct {
	point       r3.Vector
	orientation Orientation
}

// NewZeroPose returns a pose at (0,0,0) with no rotation.
func NewZeroPose() Pose {
	return &basicPose{orientation: NewZeroOrientation()}
}

// NewPose takes in a position and orientation and returns a Pose.
func NewPose(p r3.Vector, o Orientation) Pose {
	if o == nil {
		return NewPoseFromPoint(p)
	}
	return &basicPose{point: p, orientation: o}
}

// NewPoseFromPoint takes in a cartesian (x,y,z) and stores it as a vector.
// It will have the same orientation as the frame it is in reference to.
func NewPoseFromPoint(point r3.Vector) Pose {
	return &basicPose{point: point, orientation: NewZeroOrientation()}
}

// NewPoseFromOrientation takes in a position and orientation and returns a Pose.
func NewPoseFromOrientation(point r3.Vector, o Orientation) Pose {
	return NewPose(point, o)
}

func (bp *basicPose) Point() r3.Vector {
	return bp.point
}

func (bp *basicPose) Orientation() Orientation {
	return bp.orientation
}

// Compose treats Poses as functions A(x) and B(x), and produces a new function
// C(x) = A(B(x)), the same as if the transformations were applied in sequence.
func Compose(a, b Pose) Pose {
	qa := a.Orientation().Quaternion()
	q := quaternion(Normalize(quat.Mul(qa, b.Orientation().Quaternion())))
	return &basicPose{
		point:       a.Point().Add(QuatRotateVector(qa, b.Point())),
		orientation: &q,
	}
}

// PoseInverse returns the pose representing the inverse transformation, such
// that Compose(p, PoseInverse(p)) is the identity.
func PoseInverse(p Pose) Pose {
	qInv := quaternion(quat.Conj(Normalize(p.Orientation().Quaternion())))
	return &basicPose{
		point:       QuatRotateVector(quat.Number(qInv), p.Point().Mul(-1)),
		orientation: &qInv,
	}
}

// TransformPoint applies a pose to a point, rotating it and then translating it.
func TransformPoint(p Pose, pt r3.Vector) r3.Vector {
	return QuatRotateVector(p.Orientation().Quaternion(), pt).Add(p.Point())
}

// PoseAlmostCoincident checks if two poses are approximately the same, within
// a micron in position and 1e-8 in each quaternion component.
func PoseAlmostCoincident(a, b Pose) bool {
	return R3VectorAlmostEqual(a.Point(), b.Point(), 1e-6) &&
		OrientationAlmostEqual(a.Orientation(), b.Orientation())
}

// R3VectorAlmostEqual compares two r3 vectors, returning true if all components
// are within epsilon of each other.
func R3VectorAlmostEqual(a, b r3.Vector, epsilon float64) bool {
	return a.Sub(b).Norm() < epsilon
}
