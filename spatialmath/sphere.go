package spatialmath

import (
	"fmt"

	"github.com/golang/geo/r3"
)

// sphere is a collision geometry that represents a sphere, it has a pose and a radius that fully define it.
type sphere struct {
	pose   Pose
	radius float64
	label  string
}

// NewSphere instantiates a new sphere Geometry.
func NewSphere(offset Pose, radius float64, label string) (Geometry, error) {
	if radius <= 0 {
		return nil, newBadGeometryDimensionsError(&sphere{})
	}
	return &sphere{offset, radius, label}, nil
}

func (s *sphere) String() string {
	return fmt.Sprintf("Type: Sphere | Position: X:%.4f, Y:%.4f, Z:%.4f | Radius: %.4f",
		s.pose.Point().X, s.pose.Point().Y, s.pose.Point().Z, s.radius)
}

// Label returns the label of the sphere.
func (s *sphere) Label() string {
	return s.label
}

// SetLabel sets the label of the sphere.
func (s *sphere) SetLabel(label string) {
	s.label = label
}

// Pose returns the pose of the sphere.
func (s *sphere) Pose() Pose {
	return s.pose
}

// Radius returns the radius of the sphere.
func (s *sphere) Radius() float64 {
	return s.radius
}

// AlmostEqual compares the sphere with another geometry and checks if they are equivalent.
func (s *sphere) AlmostEqual(g Geometry) bool {
	other, ok := g.(*sphere)
	if !ok {
		return false
	}
	return PoseAlmostEqual(s.pose, other.pose) && s.radius-other.radius < 1e-8 && other.radius-s.radius < 1e-8
}

// Transform premultiplies the sphere pose with a transform, allowing the sphere to be moved in space.
func (s *sphere) Transform(toPremultiply Pose) Geometry {
	return &sphere{Compose(toPremultiply, s.pose), s.radius, s.label}
}

// DistanceFromPoint returns the signed distance from pt to the sphere surface.
func (s *sphere) DistanceFromPoint(pt r3.Vector) float64 {
	return pt.Sub(s.pose.Point()).Norm() - s.radius
}

// BoundingBox returns the axis aligned box enclosing the sphere.
func (s *sphere) BoundingBox() (r3.Vector, r3.Vector) {
	r := r3.Vector{X: s.radius, Y: s.radius, Z: s.radius}
	return s.pose.Point().Sub(r), s.pose.Point().Add(r)
}
