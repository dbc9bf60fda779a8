package collision

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"

	"go.viam.com/collisionspace/referenceframe"
	"go.viam.com/collisionspace/voxel"
)

// SpheresInCollision returns the colliding spheres found by the most recent check.
func (s *Space) SpheresInCollision() []CollidingSphere {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]CollidingSphere(nil), s.colliding...)
}

// CollisionSpheres returns the spheres of a group placed in the world for a configuration. An empty group name
// returns the spheres of every group in the check set.
func (s *Space) CollisionSpheres(inputs []referenceframe.Input, group string, lowRes bool) ([]PlacedSphere, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.collisionSpheres(inputs, group, lowRes)
}

func (s *Space) collisionSpheres(inputs []referenceframe.Input, group string, lowRes bool) ([]PlacedSphere, error) {
	if err := s.validateInputs(inputs); err != nil {
		return nil, err
	}
	var names []string
	if group != "" {
		names = []string{group}
	}
	groups, err := s.resolveGroups(names)
	if err != nil {
		return nil, err
	}
	poses, err := linkPoses(s.kin, inputs)
	if err != nil {
		return nil, err
	}
	tier := HighRes
	if lowRes {
		tier = LowRes
	}
	var placed []PlacedSphere
	for _, g := range groups {
		pose, ok := poses[g.Link]
		if !ok {
			return nil, NewMissingLinkError(g.Link)
		}
		placed = append(placed, placeSpheres(g.Name, g.tierSpheres(tier), pose)...)
	}
	return placed, nil
}

// Clearance returns the mean and minimum world distance, in cells, of the first n high res spheres of the check set.
// A non-positive n uses every sphere.
func (s *Space) Clearance(inputs []referenceframe.Input, n int) (float64, float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	spheres, err := s.collisionSpheres(inputs, "", false)
	if err != nil {
		return 0, 0, err
	}
	if err := s.prepareGrid(); err != nil {
		return 0, 0, err
	}
	if n > 0 && n < len(spheres) {
		spheres = spheres[:n]
	}
	if len(spheres) == 0 {
		return 0, 0, errors.New("no spheres to measure clearance for")
	}
	dists := make([]float64, 0, len(spheres))
	for _, sp := range spheres {
		dists = append(dists, worldDistance(s.grid, sp, s.padding))
	}
	mean, err := stats.Mean(dists)
	if err != nil {
		return 0, 0, err
	}
	lowest, err := stats.Min(dists)
	if err != nil {
		return 0, 0, err
	}
	return mean, lowest, nil
}

// IsValidLineSegment reports whether a sphere of the given radius, in meters, can sweep from a to b without touching
// an obstacle. It also returns the smallest clearance, in cells, along the segment, or 0 when the segment is invalid.
func (s *Space) IsValidLineSegment(a, b r3.Vector, radius float64) (bool, float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.prepareGrid(); err != nil {
		return false, 0, err
	}
	ca, okA := s.grid.WorldToCell(a)
	cb, okB := s.grid.WorldToCell(b)
	if !okA || !okB {
		return false, 0, nil
	}
	r := radius / s.grid.Resolution()
	lowest := math.Inf(1)
	for _, c := range voxel.Line(ca, cb) {
		if !isValidCell(s.grid, c, r) {
			return false, 0, nil
		}
		lowest = math.Min(lowest, s.grid.Clearance(c))
	}
	return true, lowest, nil
}
