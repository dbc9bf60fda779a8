package collision

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/go-viper/mapstructure/v2"
	"github.com/golang/geo/r3"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/collisionspace/referenceframe"
	"go.viam.com/collisionspace/spatialmath"
)

const (
	// InterpolationIncrement sizes path samples so no joint moves more than its max step between samples.
	InterpolationIncrement = "increment"
	// InterpolationFixedSteps divides every path into the same number of segments.
	InterpolationFixedSteps = "fixed_steps"

	groupKindSpheres = "spheres"
	groupKindVoxels  = "voxels"

	// DefaultJointMaxStep is the interpolation increment, in radians or meters, of joints that do not set one.
	DefaultJointMaxStep = 0.02
	// DefaultNumSteps is the number of path segments used by fixed step interpolation when none is configured.
	DefaultNumSteps = 10
	// DefaultAttachedHighResRadius is the radius, in meters, of high res spheres packed into attached objects.
	DefaultAttachedHighResRadius = 0.02
	// DefaultAttachedLowResRadius is the radius, in meters, of low res spheres packed into attached objects.
	DefaultAttachedLowResRadius = 0.05
)

// Config describes the planning group a collision space checks.
type Config struct {
	GroupName      string `json:"group_name"`
	ReferenceFrame string `json:"reference_frame,omitempty"`

	// Joints bounds each degree of freedom of the kinematics. When empty the kinematics limits are used.
	Joints []JointConfig `json:"joints,omitempty"`
	Groups []GroupConfig `json:"groups"`
	// CheckGroups names the sphere groups checked by default. When empty every sphere group is checked.
	CheckGroups []string `json:"check_groups,omitempty"`

	// Padding inflates every sphere, in meters.
	Padding         float64 `json:"padding,omitempty"`
	MultiLevelCheck bool    `json:"multi_level_check,omitempty"`
	// LowResMargin is the clearance, in cells, a low res sphere needs beyond its radius for the high res spheres it
	// encloses to be skipped.
	LowResMargin float64 `json:"low_res_margin,omitempty"`

	CheckNonDefaultGroupsAgainstWorld bool `json:"check_nondefault_groups_against_world,omitempty"`

	AllowedCollisions []AllowedCollision   `json:"allowed_collisions,omitempty"`
	AttachedObject    AttachedObjectConfig `json:"attached_object"`
	Interpolation     InterpolationConfig  `json:"interpolation"`

	// CallerManagedRecompute makes checks fail on a stale distance field instead of recomputing it.
	CallerManagedRecompute bool `json:"caller_managed_recompute,omitempty"`
}

// JointConfig bounds one degree of freedom. Limits are in radians or meters.
type JointConfig struct {
	Name       string  `json:"name"`
	Min        float64 `json:"min"`
	Max        float64 `json:"max"`
	Continuous bool    `json:"continuous,omitempty"`
	MaxStep    float64 `json:"max_step,omitempty"`
}

// Limit returns the joint limit, unbounded for continuous joints.
func (j JointConfig) Limit() referenceframe.Limit {
	if j.Continuous {
		return referenceframe.Limit{Min: math.Inf(-1), Max: math.Inf(1)}
	}
	return referenceframe.Limit{Min: j.Min, Max: j.Max}
}

// GroupConfig describes one collision group bound to a link.
type GroupConfig struct {
	Name     string                      `json:"name"`
	Link     string                      `json:"link"`
	Kind     string                      `json:"kind,omitempty"`
	Spheres  []SphereConfig              `json:"spheres,omitempty"`
	Priority *PriorityRange              `json:"priority,omitempty"`
	Geometry *spatialmath.GeometryConfig `json:"geometry,omitempty"`
}

// SphereConfig describes a sphere in the frame of its group's link.
type SphereConfig struct {
	Name     string  `json:"name"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Z        float64 `json:"z"`
	Radius   float64 `json:"radius"`
	Priority int     `json:"priority,omitempty"`
	LowRes   bool    `json:"low_res,omitempty"`
}

// AllowedCollision names two groups, or a group and the attached object, that are never checked against each other.
type AllowedCollision struct {
	Group1 string `json:"group1"`
	Group2 string `json:"group2"`
}

// AttachedObjectConfig controls how attached objects are approximated.
type AttachedObjectConfig struct {
	HighResRadius float64 `json:"high_res_radius,omitempty"`
	LowResRadius  float64 `json:"low_res_radius,omitempty"`
	// Priority restricts the robot groups the attached object is checked against. When nil every group that takes
	// part in self collision checks is used.
	Priority *int `json:"priority,omitempty"`
}

// InterpolationConfig selects how paths are sampled.
type InterpolationConfig struct {
	Mode     string `json:"mode,omitempty"`
	NumSteps int    `json:"num_steps,omitempty"`
}

// Validate ensures all parts of the config are valid, and fills in defaults.
func (cfg *Config) Validate() error {
	var err error
	if cfg.GroupName == "" {
		err = multierr.Append(err, errors.New("group_name is required"))
	}
	if cfg.Padding < 0 {
		err = multierr.Append(err, errors.Errorf("padding must not be negative, got %v", cfg.Padding))
	}
	if cfg.LowResMargin < 0 {
		err = multierr.Append(err, errors.Errorf("low_res_margin must not be negative, got %v", cfg.LowResMargin))
	}
	for i := range cfg.Joints {
		j := &cfg.Joints[i]
		if j.Name == "" {
			err = multierr.Append(err, errors.Errorf("joint %d has no name", i))
		}
		if !j.Continuous && j.Min > j.Max {
			err = multierr.Append(err, errors.Errorf("joint %s min %v is greater than max %v", j.Name, j.Min, j.Max))
		}
		if j.MaxStep < 0 {
			err = multierr.Append(err, errors.Errorf("joint %s max_step must not be negative", j.Name))
		}
		if j.MaxStep == 0 {
			j.MaxStep = DefaultJointMaxStep
		}
	}

	names := map[string]bool{}
	for i := range cfg.Groups {
		g := &cfg.Groups[i]
		if g.Name == "" {
			err = multierr.Append(err, errors.Errorf("group %d has no name", i))
			continue
		}
		if names[g.Name] {
			err = multierr.Append(err, errors.Errorf("duplicate group name %q", g.Name))
		}
		names[g.Name] = true
		if g.Link == "" {
			err = multierr.Append(err, errors.Errorf("group %q has no link", g.Name))
		}
		switch g.Kind {
		case "":
			g.Kind = groupKindSpheres
			fallthrough
		case groupKindSpheres:
			if len(g.Spheres) == 0 {
				err = multierr.Append(err, errors.Errorf("sphere group %q has no spheres", g.Name))
			}
			for _, s := range g.Spheres {
				if s.Radius <= 0 {
					err = multierr.Append(err, errors.Errorf("sphere %q of group %q must have a positive radius", s.Name, g.Name))
				}
			}
		case groupKindVoxels:
		default:
			err = multierr.Append(err, errors.Errorf("group %q has unknown kind %q", g.Name, g.Kind))
		}
		if g.Priority != nil && g.Priority.Min > g.Priority.Max {
			err = multierr.Append(err, errors.Errorf("group %q priority min is greater than max", g.Name))
		}
	}
	for _, name := range cfg.CheckGroups {
		if !names[name] {
			err = multierr.Append(err, errors.Errorf("check group %q is not defined", name))
		}
	}
	for _, pair := range cfg.AllowedCollisions {
		if pair.Group1 == "" || pair.Group2 == "" {
			err = multierr.Append(err, errors.New("allowed collision pairs need two names"))
		}
	}

	if cfg.AttachedObject.HighResRadius < 0 || cfg.AttachedObject.LowResRadius < 0 {
		err = multierr.Append(err, errors.New("attached object radii must not be negative"))
	}
	if cfg.AttachedObject.HighResRadius == 0 {
		cfg.AttachedObject.HighResRadius = DefaultAttachedHighResRadius
	}
	if cfg.AttachedObject.LowResRadius == 0 {
		cfg.AttachedObject.LowResRadius = DefaultAttachedLowResRadius
	}

	switch cfg.Interpolation.Mode {
	case "":
		cfg.Interpolation.Mode = InterpolationIncrement
	case InterpolationIncrement, InterpolationFixedSteps:
	default:
		err = multierr.Append(err, errors.Errorf("unknown interpolation mode %q", cfg.Interpolation.Mode))
	}
	if cfg.Interpolation.NumSteps < 0 {
		err = multierr.Append(err, errors.New("interpolation num_steps must not be negative"))
	}
	if cfg.Interpolation.NumSteps == 0 {
		cfg.Interpolation.NumSteps = DefaultNumSteps
	}
	return err
}

// ReadConfigFile reads and validates a JSON collision config.
func ReadConfigFile(path string) (*Config, error) {
	//nolint:gosec
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read collision config")
	}
	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal collision config %q", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// NewConfigFromAttributes decodes and validates a collision config from a generic attribute map, as found when the
// config is embedded in a larger document.
func NewConfigFromAttributes(attributes map[string]interface{}) (*Config, error) {
	cfg := &Config{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           cfg,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(attributes); err != nil {
		return nil, errors.Wrap(err, "failed to decode collision config attributes")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// String prints a table of the configured groups, with columns of name, link, kind, sphere counts, priority and
// whether the group is checked by default.
func (cfg *Config) String() string {
	checked := make(map[string]bool, len(cfg.CheckGroups))
	for _, name := range cfg.CheckGroups {
		checked[name] = true
	}
	t := table.NewWriter()
	t.SetTitle(cfg.GroupName)
	t.AppendHeader(table.Row{"#", "Name", "Link", "Kind", "Low Res", "High Res", "Priority", "Checked"})
	for i, gc := range cfg.Groups {
		kind := gc.Kind
		if kind == "" {
			kind = groupKindSpheres
		}
		var low, high int
		for _, sc := range gc.Spheres {
			if sc.LowRes {
				low++
			} else {
				high++
			}
		}
		priority := ""
		if gc.Priority != nil {
			priority = fmt.Sprintf("[%d, %d]", gc.Priority.Min, gc.Priority.Max)
		}
		isChecked := kind == groupKindSpheres && (len(checked) == 0 || checked[gc.Name])
		t.AppendRow(table.Row{i + 1, gc.Name, gc.Link, kind, low, high, priority, isChecked})
	}
	return t.Render()
}

// buildGroup turns a group config into a group. Voxel groups without their own geometry use the link's geometry.
func (gc *GroupConfig) buildGroup(linkGeometry func(string) (spatialmath.Geometry, bool)) (*Group, error) {
	if gc.Kind == groupKindVoxels {
		var geom spatialmath.Geometry
		if gc.Geometry != nil {
			g, err := gc.Geometry.ParseConfig()
			if err != nil {
				return nil, errors.Wrapf(err, "voxel group %q", gc.Name)
			}
			geom = g
		} else if linkGeometry != nil {
			if g, ok := linkGeometry(gc.Link); ok {
				geom = g
			}
		}
		if geom == nil {
			return nil, errors.Errorf("voxel group %q has no geometry and link %q provides none", gc.Name, gc.Link)
		}
		return NewVoxelGroup(gc.Name, gc.Link, geom)
	}
	spheres := make([]Sphere, 0, len(gc.Spheres))
	for _, s := range gc.Spheres {
		tier := HighRes
		if s.LowRes {
			tier = LowRes
		}
		spheres = append(spheres, Sphere{
			Name:     s.Name,
			Offset:   r3.Vector{X: s.X, Y: s.Y, Z: s.Z},
			Radius:   s.Radius,
			Priority: s.Priority,
			Tier:     tier,
		})
	}
	return NewSphereGroup(gc.Name, gc.Link, spheres, gc.Priority)
}
