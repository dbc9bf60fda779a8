package collision

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"go.viam.com/collisionspace/spatialmath"
)

// Tier is the approximation level a sphere belongs to.
type Tier int

const (
	// HighRes spheres closely follow the geometry they approximate.
	HighRes Tier = iota
	// LowRes spheres are fewer and larger, and enclose the high res spheres where possible.
	LowRes
)

func (t Tier) String() string {
	if t == LowRes {
		return "low"
	}
	return "high"
}

// Sphere is a collision sphere expressed in the frame of the link its group is bound to.
type Sphere struct {
	Name     string
	Offset   r3.Vector
	Radius   float64
	Priority int
	Tier     Tier
}

// PriorityRange is the inclusive interval of sphere priorities a group checks against other groups.
type PriorityRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Overlaps reports whether two ranges share at least one priority.
func (p PriorityRange) Overlaps(o PriorityRange) bool {
	return p.Min <= o.Max && o.Min <= p.Max
}

// Contains reports whether priority lies within the range.
func (p PriorityRange) Contains(priority int) bool {
	return priority >= p.Min && priority <= p.Max
}

// GroupKind distinguishes groups made of analytic spheres from groups made of occupied grid cells.
type GroupKind int

const (
	// SphereGroup groups are checked sphere by sphere.
	SphereGroup GroupKind = iota
	// VoxelGroup groups are pushed into the grid as occupied cells.
	VoxelGroup
)

func (k GroupKind) String() string {
	if k == VoxelGroup {
		return "voxels"
	}
	return "spheres"
}

// Group is a named set of collision geometry bound to one link.
type Group struct {
	Name string
	Link string
	Kind GroupKind
	// Priority is nil for groups that take no part in self collision checks.
	Priority *PriorityRange

	// spheres are stored low res first so each tier is a contiguous view.
	spheres   []Sphere
	numLowRes int
	// enclosedBy holds, for each high res sphere, the index of a low res sphere enclosing it, or -1.
	enclosedBy []int

	// voxel groups
	geometry    spatialmath.Geometry
	localVoxels []r3.Vector
	voxels      []r3.Vector
	dirty       bool
}

// NewSphereGroup creates a group of spheres bound to link.
func NewSphereGroup(name, link string, spheres []Sphere, priority *PriorityRange) (*Group, error) {
	if name == "" {
		return nil, errors.New("collision group must have a name")
	}
	if len(spheres) == 0 {
		return nil, errors.Errorf("sphere group %q has no spheres", name)
	}
	if priority != nil && priority.Min > priority.Max {
		return nil, errors.Errorf("group %q priority range min %d is greater than max %d", name, priority.Min, priority.Max)
	}
	g := &Group{Name: name, Link: link, Kind: SphereGroup, Priority: priority}
	g.spheres = make([]Sphere, 0, len(spheres))
	for _, tier := range []Tier{LowRes, HighRes} {
		for _, s := range spheres {
			if s.Tier != tier {
				continue
			}
			if s.Radius <= 0 {
				return nil, errors.Errorf("sphere %q of group %q has non-positive radius %v", s.Name, name, s.Radius)
			}
			g.spheres = append(g.spheres, s)
		}
	}
	for _, s := range g.spheres {
		if s.Tier == LowRes {
			g.numLowRes++
		}
	}

	low := g.LowResSpheres()
	high := g.HighResSpheres()
	g.enclosedBy = make([]int, len(high))
	for i, h := range high {
		g.enclosedBy[i] = -1
		if g.numLowRes == 0 {
			continue
		}
		for j, l := range low {
			if encloses(l, h) {
				g.enclosedBy[i] = j
				break
			}
		}
	}
	return g, nil
}

// NewVoxelGroup creates a group whose geometry, expressed in the frame of link, is represented as occupied grid cells.
func NewVoxelGroup(name, link string, geometry spatialmath.Geometry) (*Group, error) {
	if name == "" {
		return nil, errors.New("collision group must have a name")
	}
	if geometry == nil {
		return nil, errors.Errorf("voxel group %q has no geometry", name)
	}
	return &Group{Name: name, Link: link, Kind: VoxelGroup, geometry: geometry, dirty: true}, nil
}

// Spheres returns every sphere of the group, low res first.
func (g *Group) Spheres() []Sphere {
	return g.spheres
}

// HasLowRes reports whether the group defines its own low res spheres.
func (g *Group) HasLowRes() bool {
	return g.numLowRes > 0
}

// LowResSpheres returns the low res view of the group's spheres.
// Groups without low res spheres fall back to their high res spheres.
func (g *Group) LowResSpheres() []Sphere {
	if g.numLowRes == 0 {
		return g.spheres
	}
	return g.spheres[:g.numLowRes]
}

// HighResSpheres returns the high res view of the group's spheres.
func (g *Group) HighResSpheres() []Sphere {
	if g.numLowRes == len(g.spheres) {
		return g.spheres
	}
	return g.spheres[g.numLowRes:]
}

// lowResEncloses reports whether the group has low res spheres with a priority in r, and every high res sphere with
// a priority in r is enclosed by one of them.
func (g *Group) lowResEncloses(r PriorityRange) bool {
	if !g.HasLowRes() {
		return false
	}
	low := filterPriority(g.LowResSpheres(), r)
	if len(low) == 0 {
		return false
	}
	for _, h := range filterPriority(g.HighResSpheres(), r) {
		if !lo.ContainsBy(low, func(l Sphere) bool { return encloses(l, h) }) {
			return false
		}
	}
	return true
}

// tierSpheres returns the view for a tier.
func (g *Group) tierSpheres(t Tier) []Sphere {
	if t == LowRes {
		return g.LowResSpheres()
	}
	return g.HighResSpheres()
}

// Voxels returns the world voxel centers the group currently occupies in the grid.
func (g *Group) Voxels() []r3.Vector {
	return g.voxels
}

// participates reports whether the group takes part in self collision checks.
func (g *Group) participates() bool {
	return g.Kind == SphereGroup && g.Priority != nil
}

// PlacedSphere is a sphere positioned in the world frame for one configuration.
type PlacedSphere struct {
	Group  string
	Name   string
	Center r3.Vector
	Radius float64
}

// placeSpheres positions spheres in the world using the pose of their link.
func placeSpheres(group string, spheres []Sphere, linkPose spatialmath.Pose) []PlacedSphere {
	placed := make([]PlacedSphere, 0, len(spheres))
	for _, s := range spheres {
		placed = append(placed, PlacedSphere{
			Group:  group,
			Name:   s.Name,
			Center: spatialmath.TransformPoint(linkPose, s.Offset),
			Radius: s.Radius,
		})
	}
	return placed
}

// sphereDistance is the gap between two spheres, negative when they overlap.
func sphereDistance(a, b PlacedSphere, padding float64) float64 {
	return a.Center.Sub(b.Center).Norm() - a.Radius - b.Radius - 2*padding
}

// fullPriorityRange admits every priority.
var fullPriorityRange = PriorityRange{Min: math.MinInt, Max: math.MaxInt}

// encloses reports whether inner lies entirely within outer.
func encloses(outer, inner Sphere) bool {
	return inner.Offset.Sub(outer.Offset).Norm()+inner.Radius <= outer.Radius+1e-9
}
