package voxel

import (
	"go.viam.com/collisionspace/utils"
)

// Line returns the cells visited by a 3D Bresenham walk from a to b, both endpoints included.
func Line(a, b Coords) []Coords {
	dx, dy, dz := utils.AbsInt(b.I-a.I), utils.AbsInt(b.J-a.J), utils.AbsInt(b.K-a.K)
	sx, sy, sz := sign(b.I-a.I), sign(b.J-a.J), sign(b.K-a.K)

	cells := make([]Coords, 0, utils.MaxInt(dx, utils.MaxInt(dy, dz))+1)
	cur := a
	cells = append(cells, cur)

	switch {
	case dx >= dy && dx >= dz:
		e1, e2 := 2*dy-dx, 2*dz-dx
		for i := 0; i < dx; i++ {
			if e1 > 0 {
				cur.J += sy
				e1 -= 2 * dx
			}
			if e2 > 0 {
				cur.K += sz
				e2 -= 2 * dx
			}
			e1 += 2 * dy
			e2 += 2 * dz
			cur.I += sx
			cells = append(cells, cur)
		}
	case dy >= dx && dy >= dz:
		e1, e2 := 2*dx-dy, 2*dz-dy
		for i := 0; i < dy; i++ {
			if e1 > 0 {
				cur.I += sx
				e1 -= 2 * dy
			}
			if e2 > 0 {
				cur.K += sz
				e2 -= 2 * dy
			}
			e1 += 2 * dx
			e2 += 2 * dz
			cur.J += sy
			cells = append(cells, cur)
		}
	default:
		e1, e2 := 2*dy-dz, 2*dx-dz
		for i := 0; i < dz; i++ {
			if e1 > 0 {
				cur.J += sy
				e1 -= 2 * dz
			}
			if e2 > 0 {
				cur.I += sx
				e2 -= 2 * dz
			}
			e1 += 2 * dy
			e2 += 2 * dx
			cur.K += sz
			cells = append(cells, cur)
		}
	}
	return cells
}

func sign(n int) int {
	switch {
	case n > 0:
		return 1
	case n < 0:
		return -1
	default:
		return 0
	}
}
