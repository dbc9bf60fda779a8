package spatialmath

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
)

// cylinder is a collision geometry that represents a solid cylinder whose axis is the local Z axis, centered on its pose.
type cylinder struct {
	pose   Pose
	radius float64
	length float64
	label  string
}

// NewCylinder instantiates a new cylinder Geometry. The length is measured along the local Z axis.
func NewCylinder(offset Pose, radius, length float64, label string) (Geometry, error) {
	if radius <= 0 || length <= 0 {
		return nil, newBadGeometryDimensionsError(&cylinder{})
	}
	return &cylinder{pose: offset, radius: radius, length: length, label: label}, nil
}

func (c *cylinder) String() string {
	return fmt.Sprintf("Type: Cylinder | Position: X:%.4f, Y:%.4f, Z:%.4f | Radius: %.4f | Length: %.4f",
		c.pose.Point().X, c.pose.Point().Y, c.pose.Point().Z, c.radius, c.length)
}

// Label returns the label of this cylinder.
func (c *cylinder) Label() string {
	return c.label
}

// SetLabel sets the label of this cylinder.
func (c *cylinder) SetLabel(label string) {
	c.label = label
}

// Pose returns the pose of this cylinder.
func (c *cylinder) Pose() Pose {
	return c.pose
}

// AlmostEqual compares the cylinder with another geometry and checks if they are equivalent.
func (c *cylinder) AlmostEqual(g Geometry) bool {
	other, ok := g.(*cylinder)
	if !ok {
		return false
	}
	return PoseAlmostEqual(c.pose, other.pose) &&
		math.Abs(c.radius-other.radius) < 1e-8 &&
		math.Abs(c.length-other.length) < 1e-8
}

// Transform premultiplies the cylinder pose with a transform, allowing the cylinder to be moved in space.
func (c *cylinder) Transform(toPremultiply Pose) Geometry {
	return &cylinder{pose: Compose(toPremultiply, c.pose), radius: c.radius, length: c.length, label: c.label}
}

// DistanceFromPoint returns the signed distance from pt to the cylinder surface.
func (c *cylinder) DistanceFromPoint(pt r3.Vector) float64 {
	local := TransformPoint(PoseInverse(c.pose), pt)
	dRadial := math.Hypot(local.X, local.Y) - c.radius
	dAxial := math.Abs(local.Z) - c.length/2
	outside := math.Hypot(math.Max(dRadial, 0), math.Max(dAxial, 0))
	inside := math.Min(math.Max(dRadial, dAxial), 0)
	return outside + inside
}

// BoundingBox returns the axis aligned box enclosing the cylinder's circumscribing box.
func (c *cylinder) BoundingBox() (r3.Vector, r3.Vector) {
	verts := make([]r3.Vector, 0, 8)
	for _, vert := range boxVertices {
		offset := r3.Vector{X: vert.X * c.radius, Y: vert.Y * c.radius, Z: vert.Z * c.length / 2}
		verts = append(verts, TransformPoint(c.pose, offset))
	}
	return boundsOfPoints(verts)
}
