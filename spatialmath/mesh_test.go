package spatialmath

import (
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

// makeCubeMesh returns a closed mesh of an axis aligned cube with the given half size.
func makeCubeMesh(t *testing.T, pose Pose, half float64) Geometry {
	t.Helper()
	verts := make([]r3.Vector, 0, len(boxVertices))
	for _, v := range boxVertices {
		verts = append(verts, v.Mul(half))
	}
	// indices into boxVertices, two triangles per face
	tris := [][3]int{
		{0, 2, 3}, {0, 3, 1}, // +x
		{4, 5, 7}, {4, 7, 6}, // -x
		{0, 1, 5}, {0, 5, 4}, // +y
		{2, 6, 7}, {2, 7, 3}, // -y
		{0, 4, 6}, {0, 6, 2}, // +z
		{1, 3, 7}, {1, 7, 5}, // -z
	}
	m, err := NewMeshFromVertices(pose, verts, tris, "cube")
	test.That(t, err, test.ShouldBeNil)
	return m
}

func TestClosestPointToPoint(t *testing.T) {
	tri := NewTriangle(r3.Vector{}, r3.Vector{X: 1}, r3.Vector{Y: 1})

	inside := tri.ClosestPointToPoint(r3.Vector{X: 0.25, Y: 0.25, Z: 2})
	test.That(t, R3VectorAlmostEqual(inside, r3.Vector{X: 0.25, Y: 0.25}, 1e-9), test.ShouldBeTrue)

	edge := tri.ClosestPointToPoint(r3.Vector{X: 0.5, Y: -1})
	test.That(t, R3VectorAlmostEqual(edge, r3.Vector{X: 0.5}, 1e-9), test.ShouldBeTrue)

	vertex := tri.ClosestPointToPoint(r3.Vector{X: -1, Y: -1, Z: 1})
	test.That(t, R3VectorAlmostEqual(vertex, r3.Vector{}, 1e-9), test.ShouldBeTrue)

	test.That(t, R3VectorAlmostEqual(tri.Normal(), r3.Vector{Z: 1}, 1e-9), test.ShouldBeTrue)
}

func TestMeshDistanceFromPoint(t *testing.T) {
	m := makeCubeMesh(t, NewPoseFromPoint(r3.Vector{X: 10}), 1)

	test.That(t, m.DistanceFromPoint(r3.Vector{X: 10}), test.ShouldAlmostEqual, -1)
	test.That(t, m.DistanceFromPoint(r3.Vector{X: 10.5, Y: 0.2}), test.ShouldAlmostEqual, -0.5)
	test.That(t, m.DistanceFromPoint(r3.Vector{X: 13}), test.ShouldAlmostEqual, 2)
	test.That(t, m.DistanceFromPoint(r3.Vector{X: 10, Z: -4}), test.ShouldAlmostEqual, 3)

	lo, hi := m.BoundingBox()
	test.That(t, R3VectorAlmostEqual(lo, r3.Vector{X: 9, Y: -1, Z: -1}, 1e-9), test.ShouldBeTrue)
	test.That(t, R3VectorAlmostEqual(hi, r3.Vector{X: 11, Y: 1, Z: 1}, 1e-9), test.ShouldBeTrue)
}

func TestMeshTransform(t *testing.T) {
	m := makeCubeMesh(t, NewZeroPose(), 0.5)
	moved := m.Transform(NewPoseFromPoint(r3.Vector{Y: 3}))
	test.That(t, moved.DistanceFromPoint(r3.Vector{Y: 3}), test.ShouldAlmostEqual, -0.5)
	test.That(t, moved.AlmostEqual(m), test.ShouldBeFalse)
	test.That(t, m.AlmostEqual(makeCubeMesh(t, NewZeroPose(), 0.5)), test.ShouldBeTrue)
}

func TestNewMeshFromVerticesErrors(t *testing.T) {
	_, err := NewMeshFromVertices(NewZeroPose(), nil, nil, "")
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewMeshFromVertices(NewZeroPose(), []r3.Vector{{}}, [][3]int{{0, 0, -1}}, "")
	test.That(t, err, test.ShouldNotBeNil)
}
