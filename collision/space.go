// Package collision checks configurations and paths of an articulated robot against a voxelized world, against
// itself, and for an object held by the robot. Robot links are approximated by spheres at two resolutions and the
// world by a distance field over an occupancy grid.
package collision

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"go.viam.com/collisionspace/logging"
	"go.viam.com/collisionspace/packing"
	"go.viam.com/collisionspace/referenceframe"
	"go.viam.com/collisionspace/spatialmath"
)

// Space is a collision space for one planning group. A Space is safe for concurrent use, but calls are serialized.
type Space struct {
	mu     sync.Mutex
	logger logging.Logger
	grid   Grid

	initialized bool
	cfg         *Config
	kin         referenceframe.Kinematics
	joints      []JointConfig

	groups      []*Group
	groupByName map[string]*Group
	checkGroups []string
	allowed     map[[2]string]bool

	padding           float64
	multiLevel        bool
	lowResMargin      float64
	nonDefaultToWorld bool
	callerManaged     bool

	interpolationMode string
	numSteps          int
	interpolator      InterpolationFunc

	robotState []referenceframe.Input
	attached   *AttachedObject
	objects    map[string]*trackedObject
	colliding  []CollidingSphere
}

// New returns an uninitialized collision space over grid. Collision objects may be added before Init, but checks
// fail until Init succeeds.
func New(grid Grid, logger logging.Logger) *Space {
	return &Space{
		logger:  logger,
		grid:    grid,
		objects: map[string]*trackedObject{},
	}
}

// Init configures the planning group. cfg is validated, which also fills in its defaults. Init may be called again to
// replace the planning group; collision objects are kept, the attached object is dropped.
func (s *Space) Init(cfg *Config, kin referenceframe.Kinematics) error {
	if cfg == nil {
		return errors.New("collision config is required")
	}
	if kin == nil {
		return errors.New("kinematics are required")
	}
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "invalid collision config")
	}

	dof := kin.DoF()
	joints := cfg.Joints
	if len(joints) == 0 {
		joints = make([]JointConfig, 0, len(dof))
		for i, lim := range dof {
			joints = append(joints, JointConfig{
				Name:       kin.Name() + "_joint_" + strconv.Itoa(i),
				Min:        lim.Min,
				Max:        lim.Max,
				Continuous: lim.Unbounded(),
				MaxStep:    DefaultJointMaxStep,
			})
		}
	} else if len(joints) != len(dof) {
		return NewConfigurationSizeError(len(joints), len(dof))
	}

	var linkGeometry func(string) (spatialmath.Geometry, bool)
	if lg, ok := kin.(interface {
		LinkGeometry(string) (spatialmath.Geometry, bool)
	}); ok {
		linkGeometry = lg.LinkGeometry
	}
	groups := make([]*Group, 0, len(cfg.Groups))
	for i := range cfg.Groups {
		g, err := cfg.Groups[i].buildGroup(linkGeometry)
		if err != nil {
			return err
		}
		groups = append(groups, g)
	}

	groupByName := lo.KeyBy(groups, func(g *Group) string { return g.Name })
	checkGroups := cfg.CheckGroups
	if len(checkGroups) == 0 {
		checkGroups = defaultCheckGroups(groups, groupByName, cfg.GroupName)
	}
	for _, name := range checkGroups {
		if groupByName[name].Kind != SphereGroup {
			return errors.Errorf("check group %q must be a sphere group", name)
		}
	}

	allowed := map[[2]string]bool{}
	for _, pair := range cfg.AllowedCollisions {
		allowed[pairKey(pair.Group1, pair.Group2)] = true
	}

	state := make([]referenceframe.Input, len(joints))
	for i, j := range joints {
		lim := j.Limit()
		if lim.Min > 0 || lim.Max < 0 {
			state[i] = referenceframe.Input{Value: lim.Min}
		}
	}
	poses, err := linkPoses(kin, state)
	if err != nil {
		return err
	}
	for _, g := range groups {
		if _, ok := poses[g.Link]; !ok {
			return NewMissingLinkError(g.Link)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range groups {
		if g.Kind == VoxelGroup {
			local, err := packing.Voxelize(g.geometry, s.grid.Resolution(), r3.Vector{})
			if err != nil {
				return errors.Wrapf(err, "failed to voxelize group %q", g.Name)
			}
			g.localVoxels = local
		}
	}
	// voxels of a previous planning group leave the grid with it
	for _, g := range s.groups {
		if len(g.voxels) > 0 {
			s.grid.RemoveVoxels(g.voxels)
			g.voxels = nil
		}
	}

	s.cfg = cfg
	s.kin = kin
	s.joints = joints
	s.groups = groups
	s.groupByName = groupByName
	s.checkGroups = checkGroups
	s.allowed = allowed
	s.padding = cfg.Padding
	s.multiLevel = cfg.MultiLevelCheck
	s.lowResMargin = cfg.LowResMargin
	s.nonDefaultToWorld = cfg.CheckNonDefaultGroupsAgainstWorld
	s.callerManaged = cfg.CallerManagedRecompute
	s.interpolationMode = cfg.Interpolation.Mode
	s.numSteps = cfg.Interpolation.NumSteps
	s.interpolator = NewJointInterpolator(lo.Map(joints, func(j JointConfig, _ int) bool { return j.Continuous }))
	s.robotState = state
	s.attached = nil
	s.colliding = nil
	s.initialized = true

	s.logger.Infow("initialized collision space",
		"group", cfg.GroupName,
		"joints", len(joints),
		"groups", len(groups),
		"check_groups", checkGroups,
		"multi_level", s.multiLevel,
	)
	return nil
}

// GroupName returns the name of the planning group, or an empty string before Init.
func (s *Space) GroupName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cfg == nil {
		return ""
	}
	return s.cfg.GroupName
}

// ReferenceFrame returns the frame collision geometry is expressed in. It defaults to the world frame.
func (s *Space) ReferenceFrame() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cfg == nil || s.cfg.ReferenceFrame == "" {
		return referenceframe.World
	}
	return s.cfg.ReferenceFrame
}

// Groups returns the names of every collision group, in config order.
func (s *Space) Groups() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return lo.Map(s.groups, func(g *Group, _ int) string { return g.Name })
}

// Group returns the collision group of the given name.
func (s *Space) Group(name string) (*Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groupByName[name]
	if !ok {
		return nil, NewUnknownGroupError(name)
	}
	return g, nil
}

// Joints returns the joint limits used to validate configurations.
func (s *Space) Joints() []JointConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]JointConfig(nil), s.joints...)
}

// SetPadding sets the distance, in meters, every sphere is inflated by.
func (s *Space) SetPadding(padding float64) error {
	if padding < 0 {
		return errors.Errorf("padding must not be negative, got %v", padding)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.padding = padding
	return nil
}

// Padding returns the distance every sphere is inflated by.
func (s *Space) Padding() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.padding
}

// SetMultiLevelCheck enables or disables checking low res spheres before high res spheres.
func (s *Space) SetMultiLevelCheck(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.multiLevel = enabled
}

// SetGroupsForCheck replaces the sphere groups checked when a call does not name its own. An empty list restores
// the default: the group named after the planning group, or every sphere group when there is none.
func (s *Space) SetGroupsForCheck(names []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return NewUninitializedError()
	}
	if len(names) == 0 {
		names = defaultCheckGroups(s.groups, s.groupByName, s.cfg.GroupName)
	}
	if _, err := s.resolveGroups(names); err != nil {
		return err
	}
	s.checkGroups = lo.Uniq(names)
	return nil
}

// EnableNonDefaultGroupsToWorldCheck makes world checks include sphere groups outside the check set.
func (s *Space) EnableNonDefaultGroupsToWorldCheck(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nonDefaultToWorld = enabled
}

// SetInterpolationParams selects how paths are sampled. numSteps is only used by fixed step interpolation; a
// non-positive value keeps the current setting.
func (s *Space) SetInterpolationParams(mode string, numSteps int) error {
	if mode != InterpolationIncrement && mode != InterpolationFixedSteps {
		return errors.Errorf("unknown interpolation mode %q", mode)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.interpolationMode = mode
	if numSteps > 0 {
		s.numSteps = numSteps
	}
	return nil
}

// SetInterpolator replaces the function used to sample paths. A nil function restores joint aware linear
// interpolation.
func (s *Space) SetInterpolator(fn InterpolationFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return NewUninitializedError()
	}
	if fn == nil {
		fn = NewJointInterpolator(lo.Map(s.joints, func(j JointConfig, _ int) bool { return j.Continuous }))
	}
	s.interpolator = fn
	return nil
}

// SetRobotState records the configuration voxel groups are placed at. Voxel groups are updated before the next
// check, or by UpdateVoxelGroups.
func (s *Space) SetRobotState(inputs []referenceframe.Input) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.validateInputs(inputs); err != nil {
		return err
	}
	s.robotState = append([]referenceframe.Input(nil), inputs...)
	s.markVoxelGroupsDirty()
	return nil
}

// SetJointPosition sets one joint of the robot state by name. Voxel groups are updated before the next check, or by
// UpdateVoxelGroups.
func (s *Space) SetJointPosition(name string, value float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return NewUninitializedError()
	}
	_, i, ok := lo.FindIndexOf(s.joints, func(j JointConfig) bool { return j.Name == name })
	if !ok {
		return errors.Errorf("no joint named %q", name)
	}
	j := s.joints[i]
	if !j.Continuous && (value < j.Min || value > j.Max || math.IsNaN(value)) {
		return NewJointLimitError(j.Name, value, j.Limit())
	}
	s.robotState[i] = referenceframe.Input{Value: value}
	s.markVoxelGroupsDirty()
	return nil
}

// RobotState returns the configuration voxel groups are placed at.
func (s *Space) RobotState() []referenceframe.Input {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]referenceframe.Input(nil), s.robotState...)
}

// UpdateVoxelGroups moves every voxel group to the current robot state.
func (s *Space) UpdateVoxelGroups() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return NewUninitializedError()
	}
	return s.updateVoxelGroups(true)
}

// UpdateVoxelGroup moves the named voxel group to the current robot state.
func (s *Space) UpdateVoxelGroup(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return NewUninitializedError()
	}
	g, ok := s.groupByName[name]
	if !ok {
		return NewUnknownGroupError(name)
	}
	if g.Kind != VoxelGroup {
		return errors.Errorf("group %q is not a voxel group", name)
	}
	poses, err := linkPoses(s.kin, s.robotState)
	if err != nil {
		return err
	}
	return s.updateVoxelGroup(g, poses)
}

// RecomputeDistanceField brings the distance field up to date with the occupancy grid.
func (s *Space) RecomputeDistanceField() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.grid.RecomputeDistanceField()
}

func (s *Space) markVoxelGroupsDirty() {
	for _, g := range s.groups {
		if g.Kind == VoxelGroup {
			g.dirty = true
		}
	}
}

func (s *Space) updateVoxelGroups(force bool) error {
	var poses map[string]spatialmath.Pose
	for _, g := range s.groups {
		if g.Kind != VoxelGroup || (!force && !g.dirty) {
			continue
		}
		if poses == nil {
			p, err := linkPoses(s.kin, s.robotState)
			if err != nil {
				return err
			}
			poses = p
		}
		if err := s.updateVoxelGroup(g, poses); err != nil {
			return err
		}
	}
	return nil
}

func (s *Space) updateVoxelGroup(g *Group, poses map[string]spatialmath.Pose) error {
	pose, ok := poses[g.Link]
	if !ok {
		return NewMissingLinkError(g.Link)
	}
	if len(g.voxels) > 0 {
		s.grid.RemoveVoxels(g.voxels)
	}
	res := s.grid.Resolution()
	origin := s.grid.Origin()
	seen := map[[3]int]bool{}
	voxels := make([]r3.Vector, 0, len(g.localVoxels))
	for _, v := range g.localVoxels {
		pt := spatialmath.TransformPoint(pose, v)
		// snap onto grid cell centers so a rotated group never occupies a cell twice
		key := [3]int{
			int(math.Floor((pt.X - origin.X) / res)),
			int(math.Floor((pt.Y - origin.Y) / res)),
			int(math.Floor((pt.Z - origin.Z) / res)),
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		voxels = append(voxels, r3.Vector{
			X: origin.X + (float64(key[0])+0.5)*res,
			Y: origin.Y + (float64(key[1])+0.5)*res,
			Z: origin.Z + (float64(key[2])+0.5)*res,
		})
	}
	s.grid.InsertVoxels(voxels)
	g.voxels = voxels
	g.dirty = false
	s.logger.Debugw("updated voxel group", "group", g.Name, "voxels", len(voxels))
	return nil
}

// prepareGrid updates dirty voxel groups and makes sure the distance field can be queried.
func (s *Space) prepareGrid() error {
	if err := s.updateVoxelGroups(false); err != nil {
		return err
	}
	if !s.grid.DistanceFieldStale() {
		return nil
	}
	if s.callerManaged {
		return NewGridStateError()
	}
	s.grid.RecomputeDistanceField()
	return nil
}

// validateInputs checks that the space is initialized and inputs are a complete, in limit configuration.
func (s *Space) validateInputs(inputs []referenceframe.Input) error {
	if !s.initialized {
		return NewUninitializedError()
	}
	if len(inputs) != len(s.joints) {
		return NewConfigurationSizeError(len(inputs), len(s.joints))
	}
	for i, j := range s.joints {
		if j.Continuous {
			continue
		}
		v := inputs[i].Value
		if v < j.Min || v > j.Max || math.IsNaN(v) {
			return NewJointLimitError(j.Name, v, j.Limit())
		}
	}
	return nil
}

// resolveGroups returns the named sphere groups, or the default check set when names is empty.
func (s *Space) resolveGroups(names []string) ([]*Group, error) {
	if len(names) == 0 {
		names = s.checkGroups
	}
	groups := make([]*Group, 0, len(names))
	for _, name := range lo.Uniq(names) {
		g, ok := s.groupByName[name]
		if !ok {
			return nil, NewUnknownGroupError(name)
		}
		if g.Kind != SphereGroup {
			return nil, errors.Errorf("group %q is not a sphere group", name)
		}
		groups = append(groups, g)
	}
	return groups, nil
}

// defaultCheckGroups is the sphere group named after the planning group, or every sphere group when no such group
// exists.
func defaultCheckGroups(groups []*Group, byName map[string]*Group, planningGroup string) []string {
	if g, ok := byName[planningGroup]; ok && g.Kind == SphereGroup {
		return []string{planningGroup}
	}
	return lo.FilterMap(groups, func(g *Group, _ int) (string, bool) {
		return g.Name, g.Kind == SphereGroup
	})
}

// linkPoses computes link poses, tolerating out of bounds errors since limits are validated against the config.
func linkPoses(kin referenceframe.Kinematics, inputs []referenceframe.Input) (map[string]spatialmath.Pose, error) {
	poses, err := kin.LinkPoses(inputs)
	if err != nil && !isOutOfBounds(err) {
		return nil, NewKinematicsError(err)
	}
	if poses == nil {
		return nil, NewKinematicsError(errors.New("kinematics returned no link poses"))
	}
	return poses, nil
}

func isOutOfBounds(err error) bool {
	return err != nil && strings.Contains(err.Error(), referenceframe.OOBErrString)
}

func pairKey(a, b string) [2]string {
	pair := []string{a, b}
	sort.Strings(pair)
	return [2]string{pair[0], pair[1]}
}
