// Package voxel implements a dense occupancy grid with a propagated distance field.
// Queries are answered in cell units: the clearance of a cell is the Euclidean distance,
// in cells, from its center to the center of the nearest occupied cell.
package voxel

import "fmt"

// Coords stores voxel coordinates in grid axes.
type Coords struct {
	I, J, K int
}

// Add returns the coordinates offset by d.
func (c Coords) Add(d Coords) Coords {
	return Coords{c.I + d.I, c.J + d.J, c.K + d.K}
}

// DistanceSquared returns the squared Euclidean distance between two cells, in cells.
func (c Coords) DistanceSquared(c2 Coords) int {
	di, dj, dk := c.I-c2.I, c.J-c2.J, c.K-c2.K
	return di*di + dj*dj + dk*dk
}

func (c Coords) String() string {
	return fmt.Sprintf("(%d, %d, %d)", c.I, c.J, c.K)
}

// neighbors are the 26 offsets of the cells touching a cell by face, edge or corner.
var neighbors []Coords

func init() {
	for _, x := range []int{-1, 0, 1} {
		for _, y := range []int{-1, 0, 1} {
			for _, z := range []int{-1, 0, 1} {
				if x == 0 && y == 0 && z == 0 {
					continue
				}
				neighbors = append(neighbors, Coords{x, y, z})
			}
		}
	}
}
