package collision

import (
	"github.com/golang/geo/r3"

	"go.viam.com/collisionspace/voxel"
)

// Grid is the occupancy grid and distance field a collision space checks against.
// Clearance is measured in cells and is 0 for occupied and out of bounds cells.
type Grid interface {
	Resolution() float64
	Origin() r3.Vector
	WorldToCell(pt r3.Vector) (voxel.Coords, bool)
	CellToWorld(c voxel.Coords) r3.Vector
	Clearance(c voxel.Coords) float64
	InsertVoxels(pts []r3.Vector)
	RemoveVoxels(pts []r3.Vector)
	RecomputeDistanceField()
	DistanceFieldStale() bool
}

var _ Grid = (*voxel.OccupancyGrid)(nil)

// clearanceAt returns the clearance in cells of the cell containing pt.
func clearanceAt(g Grid, pt r3.Vector) float64 {
	c, ok := g.WorldToCell(pt)
	if !ok {
		return 0
	}
	return g.Clearance(c)
}

// worldDistance is the gap in cells between a sphere and the nearest obstacle, measured from its center cell.
func worldDistance(g Grid, s PlacedSphere, padding float64) float64 {
	return clearanceAt(g, s.Center) - (s.Radius+padding)/g.Resolution()
}

// isValidCell reports whether a sphere of radius cells fits around cell c.
func isValidCell(g Grid, c voxel.Coords, radius float64) bool {
	return g.Clearance(c) > radius
}
