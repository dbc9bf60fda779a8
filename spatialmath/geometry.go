package spatialmath

import (
	"fmt"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// GeometryType defines what geometry creator representations are known.
type GeometryType string

// The set of allowed representations for geometries.
const (
	SphereType   = GeometryType("sphere")
	BoxType      = GeometryType("box")
	CylinderType = GeometryType("cylinder")
	MeshType     = GeometryType("mesh")
)

// Geometry is an entry point with which to access all types of collision geometries.
type Geometry interface {
	Pose() Pose
	Label() string
	SetLabel(string)
	AlmostEqual(Geometry) bool
	// Transform premultiplies the geometry's pose by the given pose, moving it into the parent frame of toPremultiply.
	Transform(toPremultiply Pose) Geometry
	// DistanceFromPoint is the signed distance from pt to the surface of the geometry; points inside are negative.
	DistanceFromPoint(pt r3.Vector) float64
	// BoundingBox returns the min and max corners of an axis aligned box, in the parent frame, enclosing the geometry.
	BoundingBox() (r3.Vector, r3.Vector)
	fmt.Stringer
}

func newBadGeometryDimensionsError(g Geometry) error {
	return fmt.Errorf("invalid dimension(s) for Geometry type %T", g)
}

func newGeometryTypeUnsupportedError(shape GeometryType) error {
	return errors.Errorf("%s geometry type is unsupported", shape)
}

// BoundingSphereRadius returns the radius of the smallest sphere centered on the geometry's bounding box center
// that encloses the bounding box.
func BoundingSphereRadius(g Geometry) (r3.Vector, float64) {
	lo, hi := g.BoundingBox()
	center := lo.Add(hi).Mul(0.5)
	return center, hi.Sub(center).Norm()
}
