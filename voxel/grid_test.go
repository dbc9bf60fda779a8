package voxel

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func newTestGrid(t *testing.T) *OccupancyGrid {
	t.Helper()
	g, err := NewOccupancyGrid(r3.Vector{X: 10, Y: 10, Z: 10}, 1, r3.Vector{}, 5)
	test.That(t, err, test.ShouldBeNil)
	return g
}

func TestNewOccupancyGrid(t *testing.T) {
	g, err := NewOccupancyGrid(r3.Vector{X: 1, Y: 2, Z: 0.55}, 0.1, r3.Vector{X: -0.5}, 0.4)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, g.Size(), test.ShouldResemble, [3]int{10, 20, 6})
	test.That(t, g.MaxDistance(), test.ShouldAlmostEqual, 4)
	test.That(t, g.DistanceFieldStale(), test.ShouldBeFalse)

	_, err = NewOccupancyGrid(r3.Vector{X: 1, Y: 1, Z: 1}, 0, r3.Vector{}, 1)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewOccupancyGrid(r3.Vector{X: 1, Y: -1, Z: 1}, 0.1, r3.Vector{}, 1)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewOccupancyGrid(r3.Vector{X: 1, Y: 1, Z: 1}, 0.1, r3.Vector{}, 0)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestWorldToCell(t *testing.T) {
	g, err := NewOccupancyGrid(r3.Vector{X: 1, Y: 1, Z: 1}, 0.25, r3.Vector{X: -0.5, Y: -0.5, Z: 0}, 1)
	test.That(t, err, test.ShouldBeNil)

	c, ok := g.WorldToCell(r3.Vector{X: 0.1, Y: -0.3, Z: 0.9})
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, c, test.ShouldResemble, Coords{2, 0, 3})
	test.That(t, g.CellToWorld(c), test.ShouldResemble, r3.Vector{X: 0.125, Y: -0.375, Z: 0.875})

	c, ok = g.WorldToCell(r3.Vector{X: -0.6})
	test.That(t, ok, test.ShouldBeFalse)
	test.That(t, c.I, test.ShouldEqual, -1)
	test.That(t, g.Clearance(c), test.ShouldEqual, 0)
	test.That(t, g.Occupied(c), test.ShouldBeTrue)
}

func TestDistanceField(t *testing.T) {
	g := newTestGrid(t)
	center := r3.Vector{X: 5.5, Y: 5.5, Z: 5.5}
	g.InsertVoxels([]r3.Vector{center})
	test.That(t, g.DistanceFieldStale(), test.ShouldBeTrue)
	g.RecomputeDistanceField()
	test.That(t, g.DistanceFieldStale(), test.ShouldBeFalse)

	cases := []struct {
		cell     Coords
		expected float64
	}{
		{Coords{5, 5, 5}, 0},
		{Coords{6, 5, 5}, 1},
		{Coords{6, 6, 5}, math.Sqrt2},
		{Coords{4, 4, 4}, math.Sqrt(3)},
		{Coords{5, 8, 9}, 5},
		{Coords{9, 5, 5}, 4},
		{Coords{0, 0, 0}, 5},
	}
	for _, c := range cases {
		test.That(t, g.Clearance(c.cell), test.ShouldAlmostEqual, c.expected)
	}

	nearest, ok := g.NearestOccupied(Coords{7, 5, 5})
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, nearest, test.ShouldResemble, Coords{5, 5, 5})
	_, ok = g.NearestOccupied(Coords{0, 0, 0})
	test.That(t, ok, test.ShouldBeFalse)
}

func TestDistanceFieldTwoObstacles(t *testing.T) {
	g := newTestGrid(t)
	g.InsertVoxels([]r3.Vector{{X: 1.5, Y: 5.5, Z: 5.5}, {X: 8.5, Y: 5.5, Z: 5.5}})
	g.RecomputeDistanceField()

	for i := 0; i < 10; i++ {
		expected := math.Min(math.Abs(float64(i-1)), math.Abs(float64(i-8)))
		test.That(t, g.Clearance(Coords{i, 5, 5}), test.ShouldAlmostEqual, expected)
	}
}

func TestReferenceCounting(t *testing.T) {
	g := newTestGrid(t)
	pt := r3.Vector{X: 2.2, Y: 2.2, Z: 2.2}
	c, _ := g.WorldToCell(pt)

	g.InsertVoxels([]r3.Vector{pt})
	g.InsertVoxels([]r3.Vector{{X: 2.7, Y: 2.1, Z: 2.9}})
	g.RecomputeDistanceField()
	test.That(t, g.Occupied(c), test.ShouldBeTrue)

	g.RemoveVoxels([]r3.Vector{pt})
	test.That(t, g.Occupied(c), test.ShouldBeTrue)
	test.That(t, g.DistanceFieldStale(), test.ShouldBeFalse)

	g.RemoveVoxels([]r3.Vector{pt})
	test.That(t, g.Occupied(c), test.ShouldBeFalse)
	test.That(t, g.DistanceFieldStale(), test.ShouldBeTrue)

	// removing from an empty cell is a no-op
	g.RemoveVoxels([]r3.Vector{pt})
	g.RecomputeDistanceField()
	test.That(t, g.Clearance(c), test.ShouldAlmostEqual, 5)
	test.That(t, len(g.OccupiedCells()), test.ShouldEqual, 0)

	// out of bounds voxels are ignored
	g.InsertVoxels([]r3.Vector{{X: 50}})
	test.That(t, g.DistanceFieldStale(), test.ShouldBeFalse)

	g.InsertVoxels([]r3.Vector{pt})
	test.That(t, g.OccupiedCells(), test.ShouldResemble, []Coords{c})
	g.Reset()
	g.RecomputeDistanceField()
	test.That(t, len(g.OccupiedCells()), test.ShouldEqual, 0)
}

func TestGridConfig(t *testing.T) {
	cfg := GridConfig{Size: r3.Vector{X: 1, Y: 1, Z: 1}, Resolution: 0.1, MaxDistance: 0.5}
	g, err := cfg.NewGrid()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, g.Resolution(), test.ShouldEqual, 0.1)

	bad := GridConfig{}
	err = bad.Validate()
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "resolution")
	test.That(t, err.Error(), test.ShouldContainSubstring, "size")
	test.That(t, err.Error(), test.ShouldContainSubstring, "max_distance")
}

func TestLine(t *testing.T) {
	cells := Line(Coords{0, 0, 0}, Coords{4, 2, 0})
	test.That(t, len(cells), test.ShouldEqual, 5)
	test.That(t, cells[0], test.ShouldResemble, Coords{0, 0, 0})
	test.That(t, cells[4], test.ShouldResemble, Coords{4, 2, 0})

	cells = Line(Coords{1, 1, 1}, Coords{1, 1, 1})
	test.That(t, cells, test.ShouldResemble, []Coords{{1, 1, 1}})

	cells = Line(Coords{3, 0, 5}, Coords{0, -1, -1})
	test.That(t, len(cells), test.ShouldEqual, 7)
	test.That(t, cells[6], test.ShouldResemble, Coords{0, -1, -1})
	for i := 1; i < len(cells); i++ {
		step := cells[i].DistanceSquared(cells[i-1])
		test.That(t, step, test.ShouldBeGreaterThanOrEqualTo, 1)
		test.That(t, step, test.ShouldBeLessThanOrEqualTo, 3)
	}
}
