package collision

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/collisionspace/logging"
	"go.viam.com/collisionspace/referenceframe"
	"go.viam.com/collisionspace/spatialmath"
	"go.viam.com/collisionspace/voxel"
)

// stubGrid reports clearances from a function of the cell so tests control the world exactly.
type stubGrid struct {
	res        float64
	clearance  func(voxel.Coords) float64
	stale      bool
	recomputes int
	lookups    int
	inserted   int
}

func newStubGrid(res, clearance float64) *stubGrid {
	return &stubGrid{res: res, clearance: func(voxel.Coords) float64 { return clearance }}
}

func (g *stubGrid) Resolution() float64 { return g.res }

func (g *stubGrid) Origin() r3.Vector { return r3.Vector{} }

func (g *stubGrid) WorldToCell(pt r3.Vector) (voxel.Coords, bool) {
	return voxel.Coords{
		I: int(math.Floor(pt.X / g.res)),
		J: int(math.Floor(pt.Y / g.res)),
		K: int(math.Floor(pt.Z / g.res)),
	}, true
}

func (g *stubGrid) CellToWorld(c voxel.Coords) r3.Vector {
	return r3.Vector{
		X: (float64(c.I) + 0.5) * g.res,
		Y: (float64(c.J) + 0.5) * g.res,
		Z: (float64(c.K) + 0.5) * g.res,
	}
}

func (g *stubGrid) Clearance(c voxel.Coords) float64 {
	g.lookups++
	return g.clearance(c)
}

func (g *stubGrid) InsertVoxels(pts []r3.Vector) {
	g.inserted += len(pts)
	g.stale = true
}

func (g *stubGrid) RemoveVoxels(pts []r3.Vector) {
	g.inserted -= len(pts)
	g.stale = true
}

func (g *stubGrid) RecomputeDistanceField() {
	g.recomputes++
	g.stale = false
}

func (g *stubGrid) DistanceFieldStale() bool { return g.stale }

// sliderModel is a single prismatic joint moving link "slider" along x within [-1, 2].
func sliderModel(t *testing.T) *referenceframe.SimpleModel {
	t.Helper()
	slider, err := referenceframe.NewTranslationalFrame("slider", r3.Vector{X: 1}, referenceframe.Limit{Min: -1, Max: 2})
	test.That(t, err, test.ShouldBeNil)
	m, err := referenceframe.NewSerialModel("slider_arm", []referenceframe.Frame{slider})
	test.That(t, err, test.ShouldBeNil)
	return m
}

func sliderConfig(groups ...GroupConfig) *Config {
	return &Config{
		GroupName: "slider_arm",
		Joints:    []JointConfig{{Name: "slider", Min: -1, Max: 2, MaxStep: 0.1}},
		Groups:    groups,
	}
}

// armGroup is a small sphere on the slider, centered in a cell of a 5cm grid with origin (-1, -1, -1) when the
// slider value is a multiple of 5cm.
func armGroup() GroupConfig {
	return GroupConfig{
		Name:    "arm",
		Link:    "slider",
		Spheres: []SphereConfig{{Name: "tip", X: 0.025, Y: 0.025, Z: 0.025, Radius: 0.01}},
	}
}

// newWorldGrid is a 5cm grid spanning x in [-1, 3] and y, z in [-1, 1].
func newWorldGrid(t *testing.T) *voxel.OccupancyGrid {
	t.Helper()
	grid, err := voxel.NewOccupancyGrid(r3.Vector{X: 4, Y: 2, Z: 2}, 0.05, r3.Vector{X: -1, Y: -1, Z: -1}, 1)
	test.That(t, err, test.ShouldBeNil)
	return grid
}

// obstacleCell is the cell the arm tip occupies when the slider is at 0.5.
var obstacleCell = voxel.Coords{I: 30, J: 20, K: 20}

func newSpace(t *testing.T, grid Grid, cfg *Config) *Space {
	t.Helper()
	space := New(grid, logging.NewTestLogger(t))
	test.That(t, space.Init(cfg, sliderModel(t)), test.ShouldBeNil)
	return space
}

func inputs(values ...float64) []referenceframe.Input {
	return referenceframe.FloatsToInputs(values)
}

// flakyKinematics wraps a model and fails on demand.
type flakyKinematics struct {
	referenceframe.Kinematics
	fail bool
}

func (k *flakyKinematics) LinkPoses(in []referenceframe.Input) (map[string]spatialmath.Pose, error) {
	if k.fail {
		return nil, errors.New("solver exploded")
	}
	return k.Kinematics.LinkPoses(in)
}
