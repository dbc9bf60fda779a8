package spatialmath

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// An arbitrary direction that is unlikely to graze mesh edges, used for inside/outside parity tests.
var meshParityRay = r3.Vector{X: 1, Y: 0.0013, Z: 0.0027}.Normalize()

// mesh is a collision geometry that represents a set of triangles expressed in the frame of its pose.
type mesh struct {
	pose      Pose
	triangles []*Triangle
	label     string
}

// NewMesh creates a mesh Geometry from triangles expressed in the frame of pose.
func NewMesh(pose Pose, triangles []*Triangle, label string) Geometry {
	return &mesh{
		pose:      pose,
		triangles: triangles,
		label:     label,
	}
}

// NewMeshFromVertices creates a mesh Geometry from a vertex list and triangles indexing into it.
func NewMeshFromVertices(pose Pose, vertices []r3.Vector, triangles [][3]int, label string) (Geometry, error) {
	if len(triangles) == 0 {
		return nil, errors.New("mesh must have at least one triangle")
	}
	tris := make([]*Triangle, 0, len(triangles))
	for i, tri := range triangles {
		for _, idx := range tri {
			if idx < 0 || idx >= len(vertices) {
				return nil, errors.Errorf("triangle %d references vertex %d but mesh has %d vertices", i, idx, len(vertices))
			}
		}
		tris = append(tris, NewTriangle(vertices[tri[0]], vertices[tri[1]], vertices[tri[2]]))
	}
	return NewMesh(pose, tris, label), nil
}

func (m *mesh) String() string {
	return fmt.Sprintf("Type: Mesh | Position: X:%.4f, Y:%.4f, Z:%.4f | Triangles: %d",
		m.pose.Point().X, m.pose.Point().Y, m.pose.Point().Z, len(m.triangles))
}

// Label returns the label of this mesh.
func (m *mesh) Label() string {
	return m.label
}

// SetLabel sets the label of this mesh.
func (m *mesh) SetLabel(label string) {
	m.label = label
}

// Pose returns the pose of the mesh.
func (m *mesh) Pose() Pose {
	return m.pose
}

// Triangles returns the triangles of the mesh in the mesh's own frame.
func (m *mesh) Triangles() []*Triangle {
	return m.triangles
}

// AlmostEqual compares the mesh with another geometry and checks if they are equivalent.
func (m *mesh) AlmostEqual(g Geometry) bool {
	other, ok := g.(*mesh)
	if !ok || len(m.triangles) != len(other.triangles) {
		return false
	}
	for i, tri := range m.triangles {
		otherPts := other.triangles[i].Points()
		for j, pt := range tri.Points() {
			if !R3VectorAlmostEqual(pt, otherPts[j], 1e-8) {
				return false
			}
		}
	}
	return PoseAlmostEqual(m.pose, other.pose)
}

// Transform premultiplies the mesh pose with a transform. Triangle points are in frame of mesh,
// like the corners of a box, so there is no need to transform them.
func (m *mesh) Transform(toPremultiply Pose) Geometry {
	return &mesh{
		pose:      Compose(toPremultiply, m.pose),
		triangles: m.triangles,
		label:     m.label,
	}
}

// DistanceFromPoint returns the distance from pt to the nearest triangle, negated if pt is enclosed by the mesh.
// Open meshes have no inside and always report non-negative distances.
func (m *mesh) DistanceFromPoint(pt r3.Vector) float64 {
	local := TransformPoint(PoseInverse(m.pose), pt)
	best := math.Inf(1)
	crossings := 0
	for _, tri := range m.triangles {
		if d := local.Sub(tri.ClosestPointToPoint(local)).Norm(); d < best {
			best = d
		}
		if tri.intersectsRay(local, meshParityRay) {
			crossings++
		}
	}
	if crossings%2 == 1 {
		return -best
	}
	return best
}

// BoundingBox returns the axis aligned box enclosing all mesh vertices.
func (m *mesh) BoundingBox() (r3.Vector, r3.Vector) {
	pts := make([]r3.Vector, 0, 3*len(m.triangles))
	for _, tri := range m.triangles {
		for _, pt := range tri.Points() {
			pts = append(pts, TransformPoint(m.pose, pt))
		}
	}
	return boundsOfPoints(pts)
}
