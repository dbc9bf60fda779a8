package voxel

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// OccupancyGrid is a dense box of cells with reference counted occupancy and a distance field
// that is recomputed on demand after occupancy changes.
type OccupancyGrid struct {
	origin     r3.Vector // world position of the minimum corner of cell (0, 0, 0)
	resolution float64
	size       [3]int

	// distances at or beyond maxDist cells are reported as maxDist
	maxDist   float64
	maxDistSq int

	counts  []uint32 // how many voxels occupy each cell
	dist2   []int    // squared distance, in cells, to nearest occupied cell
	nearest []int    // index of the nearest occupied cell, or -1
	stale   bool
}

// NewOccupancyGrid creates an empty grid covering dims meters from origin at the given resolution.
// maxDistance, in meters, bounds the distance field.
func NewOccupancyGrid(dims r3.Vector, resolution float64, origin r3.Vector, maxDistance float64) (*OccupancyGrid, error) {
	if resolution <= 0 {
		return nil, errors.Errorf("grid resolution must be positive, got %v", resolution)
	}
	if dims.X <= 0 || dims.Y <= 0 || dims.Z <= 0 {
		return nil, errors.Errorf("grid dimensions must be positive, got %v", dims)
	}
	if maxDistance <= 0 {
		return nil, errors.Errorf("grid max distance must be positive, got %v", maxDistance)
	}
	cells := func(d float64) int {
		return int(math.Ceil(d/resolution - 1e-9))
	}
	g := &OccupancyGrid{
		origin:     origin,
		resolution: resolution,
		size:       [3]int{cells(dims.X), cells(dims.Y), cells(dims.Z)},
		maxDist:    maxDistance / resolution,
	}
	g.maxDistSq = int(math.Floor(g.maxDist * g.maxDist))
	n := g.size[0] * g.size[1] * g.size[2]
	g.counts = make([]uint32, n)
	g.dist2 = make([]int, n)
	g.nearest = make([]int, n)
	g.RecomputeDistanceField()
	return g, nil
}

// Resolution returns the side length of a cell in meters.
func (g *OccupancyGrid) Resolution() float64 {
	return g.resolution
}

// Origin returns the world position of the minimum corner of the grid.
func (g *OccupancyGrid) Origin() r3.Vector {
	return g.origin
}

// Size returns the number of cells along each axis.
func (g *OccupancyGrid) Size() [3]int {
	return g.size
}

// MaxDistance returns the cap of the distance field in cells.
func (g *OccupancyGrid) MaxDistance() float64 {
	return g.maxDist
}

// InBounds reports whether c is a cell of the grid.
func (g *OccupancyGrid) InBounds(c Coords) bool {
	return c.I >= 0 && c.J >= 0 && c.K >= 0 && c.I < g.size[0] && c.J < g.size[1] && c.K < g.size[2]
}

// WorldToCell returns the cell containing pt, and whether that cell is inside the grid.
func (g *OccupancyGrid) WorldToCell(pt r3.Vector) (Coords, bool) {
	rel := pt.Sub(g.origin).Mul(1 / g.resolution)
	c := Coords{int(math.Floor(rel.X)), int(math.Floor(rel.Y)), int(math.Floor(rel.Z))}
	return c, g.InBounds(c)
}

// CellToWorld returns the world position of the center of c.
func (g *OccupancyGrid) CellToWorld(c Coords) r3.Vector {
	return g.origin.Add(r3.Vector{
		X: (float64(c.I) + 0.5) * g.resolution,
		Y: (float64(c.J) + 0.5) * g.resolution,
		Z: (float64(c.K) + 0.5) * g.resolution,
	})
}

func (g *OccupancyGrid) index(c Coords) int {
	return (c.I*g.size[1]+c.J)*g.size[2] + c.K
}

func (g *OccupancyGrid) coords(idx int) Coords {
	k := idx % g.size[2]
	idx /= g.size[2]
	return Coords{idx / g.size[1], idx % g.size[1], k}
}

// Occupied reports whether any voxel occupies c. Cells outside the grid count as occupied.
func (g *OccupancyGrid) Occupied(c Coords) bool {
	if !g.InBounds(c) {
		return true
	}
	return g.counts[g.index(c)] > 0
}

// Clearance returns the distance, in cells, from c to the nearest occupied cell as of the last distance field
// computation. Cells outside the grid have no clearance.
func (g *OccupancyGrid) Clearance(c Coords) float64 {
	if !g.InBounds(c) {
		return 0
	}
	d2 := g.dist2[g.index(c)]
	if d2 > g.maxDistSq {
		return g.maxDist
	}
	return math.Sqrt(float64(d2))
}

// InsertVoxels marks the cells containing each point as occupied. Points outside the grid are ignored.
// A cell stays occupied until every voxel inserted into it has been removed.
func (g *OccupancyGrid) InsertVoxels(pts []r3.Vector) {
	for _, pt := range pts {
		c, ok := g.WorldToCell(pt)
		if !ok {
			continue
		}
		idx := g.index(c)
		if g.counts[idx] == 0 {
			g.stale = true
		}
		g.counts[idx]++
	}
}

// RemoveVoxels releases one voxel from the cell containing each point.
func (g *OccupancyGrid) RemoveVoxels(pts []r3.Vector) {
	for _, pt := range pts {
		c, ok := g.WorldToCell(pt)
		if !ok {
			continue
		}
		idx := g.index(c)
		if g.counts[idx] == 0 {
			continue
		}
		g.counts[idx]--
		if g.counts[idx] == 0 {
			g.stale = true
		}
	}
}

// Reset clears every cell of the grid.
func (g *OccupancyGrid) Reset() {
	for i := range g.counts {
		g.counts[i] = 0
	}
	g.stale = true
}

// OccupiedCells returns every occupied cell of the grid.
func (g *OccupancyGrid) OccupiedCells() []Coords {
	var cells []Coords
	for idx, n := range g.counts {
		if n > 0 {
			cells = append(cells, g.coords(idx))
		}
	}
	return cells
}

// DistanceFieldStale reports whether occupancy changed since the distance field was last computed.
func (g *OccupancyGrid) DistanceFieldStale() bool {
	return g.stale
}

// RecomputeDistanceField propagates the nearest occupied cell outwards from every occupied cell.
// Cells are expanded in order of their squared distance so each cell settles on its nearest obstacle,
// and propagation stops at the max distance.
func (g *OccupancyGrid) RecomputeDistanceField() {
	buckets := make([][]int, g.maxDistSq+1)
	for idx, n := range g.counts {
		if n > 0 {
			g.dist2[idx] = 0
			g.nearest[idx] = idx
			buckets[0] = append(buckets[0], idx)
		} else {
			g.dist2[idx] = g.maxDistSq + 1
			g.nearest[idx] = -1
		}
	}

	for b := 0; b <= g.maxDistSq; b++ {
		// the bucket may grow while it is drained
		for i := 0; i < len(buckets[b]); i++ {
			idx := buckets[b][i]
			src := g.coords(g.nearest[idx])
			cell := g.coords(idx)
			for _, d := range neighbors {
				n := cell.Add(d)
				if !g.InBounds(n) {
					continue
				}
				nIdx := g.index(n)
				sq := n.DistanceSquared(src)
				if sq >= g.dist2[nIdx] || sq > g.maxDistSq {
					continue
				}
				g.dist2[nIdx] = sq
				g.nearest[nIdx] = g.nearest[idx]
				// a cell can only be queued at or after the bucket being drained
				if sq < b {
					sq = b
				}
				buckets[sq] = append(buckets[sq], nIdx)
			}
		}
	}
	g.stale = false
}

// NearestOccupied returns the nearest occupied cell to c within the max distance, if any.
func (g *OccupancyGrid) NearestOccupied(c Coords) (Coords, bool) {
	if !g.InBounds(c) {
		return c, false
	}
	n := g.nearest[g.index(c)]
	if n < 0 {
		return Coords{}, false
	}
	return g.coords(n), true
}
