package spatialmath

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
)

// Ordered list of box vertices.
var boxVertices = [8]r3.Vector{
	{X: 1, Y: 1, Z: 1},
	{X: 1, Y: 1, Z: -1},
	{X: 1, Y: -1, Z: 1},
	{X: 1, Y: -1, Z: -1},
	{X: -1, Y: 1, Z: 1},
	{X: -1, Y: 1, Z: -1},
	{X: -1, Y: -1, Z: 1},
	{X: -1, Y: -1, Z: -1},
}

// box is a collision geometry that represents a 3D rectangular prism, it has a pose and half size that fully define it.
type box struct {
	center   Pose
	halfSize [3]float64
	label    string
}

// NewBox instantiates a new box Geometry.
func NewBox(pose Pose, dims r3.Vector, label string) (Geometry, error) {
	// Negative dimensions not allowed. Zero dimensions are allowed for bounding boxes, etc.
	if dims.X < 0 || dims.Y < 0 || dims.Z < 0 {
		return nil, newBadGeometryDimensionsError(&box{})
	}
	return &box{center: pose, halfSize: [3]float64{dims.X / 2, dims.Y / 2, dims.Z / 2}, label: label}, nil
}

func (b *box) String() string {
	return fmt.Sprintf("Type: Box | Position: X:%.4f, Y:%.4f, Z:%.4f | Dims: X:%.4f, Y:%.4f, Z:%.4f",
		b.center.Point().X, b.center.Point().Y, b.center.Point().Z, 2*b.halfSize[0], 2*b.halfSize[1], 2*b.halfSize[2])
}

// SetLabel sets the label of this box.
func (b *box) SetLabel(label string) {
	b.label = label
}

// Label returns the label of this box.
func (b *box) Label() string {
	return b.label
}

// Pose returns the pose of the box.
func (b *box) Pose() Pose {
	return b.center
}

// AlmostEqual compares the box with another geometry and checks if they are equivalent.
func (b *box) AlmostEqual(g Geometry) bool {
	other, ok := g.(*box)
	if !ok {
		return false
	}
	for i := 0; i < 3; i++ {
		if math.Abs(b.halfSize[i]-other.halfSize[i]) > 1e-8 {
			return false
		}
	}
	return PoseAlmostEqual(b.center, other.center)
}

// Transform premultiplies the box pose with a transform, allowing the box to be moved in space.
func (b *box) Transform(toPremultiply Pose) Geometry {
	return &box{center: Compose(toPremultiply, b.center), halfSize: b.halfSize, label: b.label}
}

// DistanceFromPoint returns the signed distance from pt to the box surface.
// Reference: https://iquilezles.org/articles/distfunctions/
func (b *box) DistanceFromPoint(pt r3.Vector) float64 {
	local := TransformPoint(PoseInverse(b.center), pt)
	q := r3.Vector{
		X: math.Abs(local.X) - b.halfSize[0],
		Y: math.Abs(local.Y) - b.halfSize[1],
		Z: math.Abs(local.Z) - b.halfSize[2],
	}
	outside := r3.Vector{X: math.Max(q.X, 0), Y: math.Max(q.Y, 0), Z: math.Max(q.Z, 0)}.Norm()
	inside := math.Min(math.Max(q.X, math.Max(q.Y, q.Z)), 0)
	return outside + inside
}

// BoundingBox returns the axis aligned box enclosing the vertices of the box.
func (b *box) BoundingBox() (r3.Vector, r3.Vector) {
	return boundsOfPoints(b.vertices())
}

// vertices returns the vertices defining the box.
func (b *box) vertices() []r3.Vector {
	verts := make([]r3.Vector, 0, 8)
	for _, vert := range boxVertices {
		offset := r3.Vector{X: vert.X * b.halfSize[0], Y: vert.Y * b.halfSize[1], Z: vert.Z * b.halfSize[2]}
		verts = append(verts, TransformPoint(b.center, offset))
	}
	return verts
}
