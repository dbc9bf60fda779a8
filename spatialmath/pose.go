package spatialmath

import (
	"fmt"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// Pose represents a 6dof pose, position and orientation, with respect to the origin.
// The Point() method returns the position in (x,y,z) in meters,
// and the Orientation() method returns an Orientation object.
type Pose interface {
	Point() r3.Vector
	Orientation() Orientation
}

// basicPose stores the translation and rotation of a rigid transform directly.
type basicPose struct {
	point    r3.Vector
	rotation quat.Number
}

// NewZeroPose returns a pose at (0,0,0) with same orientation as whatever frame it is placed in.
func NewZeroPose() Pose {
	return &basicPose{rotation: quat.Number{Real: 1}}
}

// NewPose takes in a position and orientation and returns a Pose.
func NewPose(p r3.Vector, o Orientation) Pose {
	if o == nil {
		return NewPoseFromPoint(p)
	}
	return &basicPose{point: p, rotation: Normalize(o.Quaternion())}
}

// NewPoseFromOrientation takes in an orientation and returns a Pose at the origin.
func NewPoseFromOrientation(o Orientation) Pose {
	return NewPose(r3.Vector{}, o)
}

// NewPoseFromPoint takes in a cartesian (x,y,z) and stores it as a vector.
// It will have the same orientation as the frame it is in.
func NewPoseFromPoint(point r3.Vector) Pose {
	return &basicPose{point: point, rotation: quat.Number{Real: 1}}
}

// Point returns the position of the pose.
func (p *basicPose) Point() r3.Vector {
	return p.point
}

// Orientation returns the orientation of the pose.
func (p *basicPose) Orientation() Orientation {
	q := quaternion(p.rotation)
	return &q
}

func (p *basicPose) String() string {
	return fmt.Sprintf("{X:%.4f Y:%.4f Z:%.4f q:%v}", p.point.X, p.point.Y, p.point.Z, p.rotation)
}

// Compose takes in two poses and returns a new pose that is the result of applying b in the frame of a.
// Compose(a, b).Point() == a.Point() + a.Orientation() applied to b.Point().
func Compose(a, b Pose) Pose {
	qa := a.Orientation().Quaternion()
	return &basicPose{
		point:    a.Point().Add(rotateVector(qa, b.Point())),
		rotation: Normalize(quat.Mul(qa, b.Orientation().Quaternion())),
	}
}

// PoseInverse will return the inverse of a pose, such that Compose(p, PoseInverse(p)) is the zero pose.
func PoseInverse(p Pose) Pose {
	inv := quat.Conj(p.Orientation().Quaternion())
	return &basicPose{
		point:    rotateVector(inv, p.Point()).Mul(-1),
		rotation: inv,
	}
}

// PoseBetween returns the difference between two spatialmath.Pose objects, such that Compose(a, PoseBetween(a, b)) == b.
func PoseBetween(a, b Pose) Pose {
	return Compose(PoseInverse(a), b)
}

// TransformPoint maps a point expressed in the frame described by p into p's parent frame.
func TransformPoint(p Pose, pt r3.Vector) r3.Vector {
	return p.Point().Add(rotateVector(p.Orientation().Quaternion(), pt))
}

// PoseAlmostEqual will return a bool describing whether 2 poses are approximately the same.
func PoseAlmostEqual(a, b Pose) bool {
	return PoseAlmostEqualEps(a, b, 1e-6)
}

// PoseAlmostEqualEps will return a bool describing whether 2 poses are approximately the same within epsilon.
func PoseAlmostEqualEps(a, b Pose, epsilon float64) bool {
	return R3VectorAlmostEqual(a.Point(), b.Point(), epsilon) &&
		QuaternionAlmostEqual(a.Orientation().Quaternion(), b.Orientation().Quaternion(), epsilon)
}

// PoseAlmostCoincident will return a bool describing whether 2 poses approximately are at the same 3D coordinate location.
func PoseAlmostCoincident(a, b Pose) bool {
	return PoseAlmostCoincidentEps(a, b, 1e-6)
}

// PoseAlmostCoincidentEps will return a bool describing whether 2 poses approximately are at the same 3D coordinate location.
func PoseAlmostCoincidentEps(a, b Pose, epsilon float64) bool {
	return R3VectorAlmostEqual(a.Point(), b.Point(), epsilon)
}
