package collision

import (
	"math"

	"github.com/golang/geo/r3"

	"go.viam.com/collisionspace/referenceframe"
	"go.viam.com/collisionspace/spatialmath"
)

// Resolution selects which sphere tiers a check uses.
type Resolution int

const (
	// ResolutionDefault uses the space's multi level setting: MultiLevel when enabled, High otherwise.
	ResolutionDefault Resolution = iota
	// ResolutionLow checks low res spheres only.
	ResolutionLow
	// ResolutionHigh checks high res spheres only.
	ResolutionHigh
	// ResolutionMultiLevel checks low res spheres first and skips the high res spheres they clear.
	ResolutionMultiLevel
)

func (r Resolution) String() string {
	switch r {
	case ResolutionLow:
		return "low"
	case ResolutionHigh:
		return "high"
	case ResolutionMultiLevel:
		return "multi_level"
	case ResolutionDefault:
		fallthrough
	default:
		return "default"
	}
}

// ContactKind says what a colliding sphere hit.
type ContactKind string

// Contact kinds.
const (
	ContactWorld    ContactKind = "world"
	ContactSelf     ContactKind = "self"
	ContactAttached ContactKind = "attached"
)

// CheckOptions tune a single check.
type CheckOptions struct {
	// Resolution overrides the space's multi level setting for this call.
	Resolution Resolution
	// Verbose logs every collision found.
	Verbose bool
	// Diagnostics keeps checking after the first collision so every colliding sphere is reported.
	Diagnostics bool
	// Groups overrides the groups checked for this call.
	Groups []string
}

// CollidingSphere describes a sphere found in collision.
type CollidingSphere struct {
	Group  string
	Sphere string
	Center r3.Vector
	Radius float64
	// Distance in cells; negative or zero for world contacts, negative for self contacts.
	Distance float64
	Kind     ContactKind
	// Other is the group or object the sphere collided with, empty for world contacts.
	Other string
}

// CheckResult is the outcome of checking one configuration.
type CheckResult struct {
	Valid bool
	// Distance is the smallest distance, in cells, found between checked spheres and obstacles or each other.
	// It is +Inf when nothing was checked.
	Distance  float64
	Colliding []CollidingSphere
}

// Check checks a configuration against the world, the robot itself, and the attached object.
func (s *Space) Check(inputs []referenceframe.Input, opts CheckOptions) (*CheckResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.validateInputs(inputs); err != nil {
		return nil, err
	}
	if err := s.prepareGrid(); err != nil {
		return nil, err
	}
	res, err := s.check(inputs, opts)
	if err != nil {
		return nil, err
	}
	s.colliding = res.Colliding
	return res, nil
}

// IsStateValid reports whether a configuration is collision free, and its distance in cells.
func (s *Space) IsStateValid(inputs []referenceframe.Input) (bool, float64, error) {
	res, err := s.Check(inputs, CheckOptions{})
	if err != nil {
		return false, 0, err
	}
	return res.Valid, res.Distance, nil
}

func (s *Space) resolution(r Resolution) Resolution {
	if r != ResolutionDefault {
		return r
	}
	if s.multiLevel {
		return ResolutionMultiLevel
	}
	return ResolutionHigh
}

// stateCheck accumulates the outcome of one configuration check.
type stateCheck struct {
	space       *Space
	poses       map[string]spatialmath.Pose
	res         Resolution
	verbose     bool
	diagnostics bool
	result      *CheckResult
}

// check runs a configuration check. Inputs must already be validated and the grid prepared.
func (s *Space) check(inputs []referenceframe.Input, opts CheckOptions) (*CheckResult, error) {
	checked, err := s.resolveGroups(opts.Groups)
	if err != nil {
		return nil, err
	}
	poses, err := linkPoses(s.kin, inputs)
	if err != nil {
		return nil, err
	}
	sc := &stateCheck{
		space:       s,
		poses:       poses,
		res:         s.resolution(opts.Resolution),
		verbose:     opts.Verbose,
		diagnostics: opts.Diagnostics,
		result:      &CheckResult{Valid: true, Distance: math.Inf(1)},
	}

	worldGroups := checked
	if s.nonDefaultToWorld {
		worldGroups = s.sphereGroups()
	}
	for _, g := range worldGroups {
		done, err := sc.checkGroupWorld(g.Name, g)
		if err != nil || done {
			return sc.result, err
		}
	}
	if done, err := sc.checkSelf(checked); err != nil || done {
		return sc.result, err
	}
	if s.attached != nil {
		if done, err := sc.checkGroupWorld(s.attached.Name, s.attached.group); err != nil || done {
			return sc.result, err
		}
		if _, err := sc.checkAttachedToRobot(); err != nil {
			return sc.result, err
		}
	}
	return sc.result, nil
}

func (s *Space) sphereGroups() []*Group {
	groups := make([]*Group, 0, len(s.groups))
	for _, g := range s.groups {
		if g.Kind == SphereGroup {
			groups = append(groups, g)
		}
	}
	return groups
}

// record notes a distance and, when it is a collision, the colliding sphere. It returns true when checking should stop.
func (sc *stateCheck) record(d float64, collides bool, sphere PlacedSphere, kind ContactKind, other string) bool {
	if d < sc.result.Distance {
		sc.result.Distance = d
	}
	if !collides {
		return false
	}
	sc.result.Valid = false
	contact := CollidingSphere{
		Group:    sphere.Group,
		Sphere:   sphere.Name,
		Center:   sphere.Center,
		Radius:   sphere.Radius,
		Distance: d,
		Kind:     kind,
		Other:    other,
	}
	sc.result.Colliding = append(sc.result.Colliding, contact)
	if sc.verbose {
		sc.space.logger.Infow("sphere in collision",
			"group", contact.Group,
			"sphere", contact.Sphere,
			"kind", string(kind),
			"other", other,
			"distance", d,
		)
	}
	return !sc.diagnostics
}

func (sc *stateCheck) linkPose(link string) (spatialmath.Pose, error) {
	pose, ok := sc.poses[link]
	if !ok {
		return nil, NewMissingLinkError(link)
	}
	return pose, nil
}

// checkGroupWorld checks one group's spheres against the distance field.
func (sc *stateCheck) checkGroupWorld(name string, g *Group) (bool, error) {
	pose, err := sc.linkPose(g.Link)
	if err != nil {
		return false, err
	}
	switch {
	case sc.res == ResolutionLow:
		return sc.checkSpheresWorld(placeSpheres(name, g.LowResSpheres(), pose), nil), nil
	case sc.res == ResolutionHigh || !g.HasLowRes():
		return sc.checkSpheresWorld(placeSpheres(name, g.HighResSpheres(), pose), nil), nil
	default:
		return sc.checkGroupWorldMultiLevel(name, g, pose), nil
	}
}

func (sc *stateCheck) checkSpheresWorld(spheres []PlacedSphere, skip func(int) bool) bool {
	grid := sc.space.grid
	for i, sp := range spheres {
		if skip != nil && skip(i) {
			continue
		}
		d := worldDistance(grid, sp, sc.space.padding)
		if sc.record(d, d <= 0, sp, ContactWorld, "") {
			return true
		}
	}
	return false
}

// checkGroupWorldMultiLevel checks low res spheres first. A low res sphere whose center cell is occupied is a deep
// collision; one clear by more than the low res margin clears every high res sphere it encloses.
func (sc *stateCheck) checkGroupWorldMultiLevel(name string, g *Group, pose spatialmath.Pose) bool {
	grid := sc.space.grid
	low := placeSpheres(name, g.LowResSpheres(), pose)
	cleared := make([]bool, len(low))
	for i, sp := range low {
		clearance := clearanceAt(grid, sp.Center)
		d := clearance - (sp.Radius+sc.space.padding)/grid.Resolution()
		if clearance <= 0 {
			if sc.record(d, true, sp, ContactWorld, "") {
				return true
			}
			continue
		}
		if d > sc.space.lowResMargin {
			cleared[i] = true
			if d < sc.result.Distance {
				sc.result.Distance = d
			}
		}
	}
	high := placeSpheres(name, g.HighResSpheres(), pose)
	return sc.checkSpheresWorld(high, func(i int) bool {
		e := g.enclosedBy[i]
		return e >= 0 && cleared[e]
	})
}

// selfPairEligible reports whether two groups are checked against each other.
func (s *Space) selfPairEligible(a, b *Group) bool {
	if a == b || !a.participates() || !b.participates() {
		return false
	}
	if a.Link == b.Link {
		return false
	}
	if !a.Priority.Overlaps(*b.Priority) {
		return false
	}
	return !s.allowed[pairKey(a.Name, b.Name)]
}

// checkSelf checks every eligible pair with at least one group in the check set.
func (sc *stateCheck) checkSelf(checked []*Group) (bool, error) {
	s := sc.space
	inCheck := map[string]bool{}
	for _, g := range checked {
		inCheck[g.Name] = true
	}
	groups := s.sphereGroups()
	for i, a := range groups {
		for _, b := range groups[i+1:] {
			if !inCheck[a.Name] && !inCheck[b.Name] {
				continue
			}
			if !s.selfPairEligible(a, b) {
				continue
			}
			done, err := sc.checkPair(a.Name, a, *a.Priority, b.Name, b, *b.Priority, ContactSelf)
			if err != nil || done {
				return done, err
			}
		}
	}
	return false, nil
}

// checkAttachedToRobot checks the attached object against every robot group it may collide with.
func (sc *stateCheck) checkAttachedToRobot() (bool, error) {
	s := sc.space
	obj := s.attached
	for _, g := range s.sphereGroups() {
		if !g.participates() || g.Link == obj.Link || !obj.priority.Overlaps(*g.Priority) {
			continue
		}
		if s.allowed[pairKey(obj.Name, g.Name)] {
			continue
		}
		done, err := sc.checkPair(obj.Name, obj.group, obj.priority, g.Name, g, *g.Priority, ContactAttached)
		if err != nil || done {
			return done, err
		}
	}
	return false, nil
}

// checkPair checks the spheres of two groups against each other. Only spheres whose priority lies in their own
// group's range take part. With multi level checks, high res spheres are skipped when every low res pair is beyond
// the low res margin and the low res spheres of both groups enclose all of their high res spheres.
func (sc *stateCheck) checkPair(nameA string, a *Group, rangeA PriorityRange, nameB string, b *Group, rangeB PriorityRange,
	kind ContactKind,
) (bool, error) {
	poseA, err := sc.linkPose(a.Link)
	if err != nil {
		return false, err
	}
	poseB, err := sc.linkPose(b.Link)
	if err != nil {
		return false, err
	}
	tier := HighRes
	if sc.res == ResolutionLow {
		tier = LowRes
	}
	if sc.res == ResolutionMultiLevel && a.lowResEncloses(rangeA) && b.lowResEncloses(rangeB) {
		lowA := placeSpheres(nameA, filterPriority(a.LowResSpheres(), rangeA), poseA)
		lowB := placeSpheres(nameB, filterPriority(b.LowResSpheres(), rangeB), poseB)
		minD := math.Inf(1)
		res := sc.space.grid.Resolution()
		for _, sa := range lowA {
			for _, sb := range lowB {
				minD = math.Min(minD, sphereDistance(sa, sb, sc.space.padding)/res)
			}
		}
		if minD > sc.space.lowResMargin {
			if minD < sc.result.Distance {
				sc.result.Distance = minD
			}
			return false, nil
		}
	}
	spheresA := placeSpheres(nameA, filterPriority(a.tierSpheres(tier), rangeA), poseA)
	spheresB := placeSpheres(nameB, filterPriority(b.tierSpheres(tier), rangeB), poseB)
	res := sc.space.grid.Resolution()
	for _, sa := range spheresA {
		for _, sb := range spheresB {
			d := sphereDistance(sa, sb, sc.space.padding) / res
			if sc.record(d, d < 0, sa, kind, nameB) {
				return true, nil
			}
		}
	}
	return false, nil
}

func filterPriority(spheres []Sphere, r PriorityRange) []Sphere {
	out := make([]Sphere, 0, len(spheres))
	for _, s := range spheres {
		if r.Contains(s.Priority) {
			out = append(out, s)
		}
	}
	return out
}
