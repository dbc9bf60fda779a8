// Package packing converts geometries into the collision primitives the collision space works with:
// sets of enclosing spheres at a target radius, and sets of occupied voxel centers at a grid resolution.
package packing

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/collisionspace/spatialmath"
)

// Sphere is a packed sphere center and radius, expressed in the same frame as the geometry it was packed from.
type Sphere struct {
	Center r3.Vector
	Radius float64
}

type radiusGeometry interface {
	Radius() float64
}

// PackIntoSpheres covers g with spheres of the given radius. Every point of g lies inside at least one sphere.
// A sphere geometry is returned as itself regardless of the radius.
func PackIntoSpheres(g spatialmath.Geometry, radius float64) ([]Sphere, error) {
	if g == nil {
		return nil, errors.New("cannot pack a nil geometry")
	}
	if s, ok := g.(radiusGeometry); ok {
		return []Sphere{{Center: g.Pose().Point(), Radius: s.Radius()}}, nil
	}
	if radius <= 0 {
		return nil, errors.Errorf("packing radius must be positive, got %v", radius)
	}

	// A cube of side 2r/sqrt(3) is exactly enclosed by a sphere of radius r about its center, so a lattice of such
	// cubes over the bounding box covers the geometry once cells that cannot touch it are dropped.
	side := 2 * radius / math.Sqrt(3)
	lo, hi := g.BoundingBox()
	spheres := []Sphere{}
	for _, center := range lattice(lo, hi, side) {
		if g.DistanceFromPoint(center) <= radius {
			spheres = append(spheres, Sphere{Center: center, Radius: radius})
		}
	}
	if len(spheres) == 0 {
		return nil, errors.Errorf("packing %v produced no spheres", g)
	}
	return spheres, nil
}

// Voxelize returns the centers of the cells of a resolution sized lattice aligned with origin whose centers lie within
// half a cell of g.
func Voxelize(g spatialmath.Geometry, resolution float64, origin r3.Vector) ([]r3.Vector, error) {
	if g == nil {
		return nil, errors.New("cannot voxelize a nil geometry")
	}
	if resolution <= 0 {
		return nil, errors.Errorf("voxel resolution must be positive, got %v", resolution)
	}
	lo, hi := g.BoundingBox()
	// snap the box outwards onto the grid so voxel centers coincide with grid cell centers
	snap := func(v r3.Vector, round func(float64) float64) r3.Vector {
		return r3.Vector{
			X: origin.X + round((v.X-origin.X)/resolution)*resolution,
			Y: origin.Y + round((v.Y-origin.Y)/resolution)*resolution,
			Z: origin.Z + round((v.Z-origin.Z)/resolution)*resolution,
		}
	}
	lo = snap(lo, math.Floor)
	hi = snap(hi, math.Ceil)

	var voxels []r3.Vector
	for _, center := range lattice(lo, hi, resolution) {
		if g.DistanceFromPoint(center) <= resolution/2 {
			voxels = append(voxels, center)
		}
	}
	return voxels, nil
}

// lattice returns the centers of cubes of the given side tiling the box [lo, hi].
func lattice(lo, hi r3.Vector, side float64) []r3.Vector {
	count := func(extent float64) int {
		n := int(math.Ceil(extent/side - 1e-9))
		if n < 1 {
			n = 1
		}
		return n
	}
	nx, ny, nz := count(hi.X-lo.X), count(hi.Y-lo.Y), count(hi.Z-lo.Z)
	// center the lattice on the box so thin geometries are covered symmetrically
	start := lo.Add(hi).Mul(0.5).Sub(r3.Vector{
		X: float64(nx-1) * side / 2,
		Y: float64(ny-1) * side / 2,
		Z: float64(nz-1) * side / 2,
	})
	centers := make([]r3.Vector, 0, nx*ny*nz)
	for i := 0; i < nx; i++ {
		for j := 0; j < ny; j++ {
			for k := 0; k < nz; k++ {
				centers = append(centers, start.Add(r3.Vector{X: float64(i) * side, Y: float64(j) * side, Z: float64(k) * side}))
			}
		}
	}
	return centers
}
