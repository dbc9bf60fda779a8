package main

import (
	"encoding/json"
	"os"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/collisionspace/collision"
	"go.viam.com/collisionspace/spatialmath"
	"go.viam.com/collisionspace/voxel"
)

// defaultGrid covers a two meter cube around the robot base.
var defaultGrid = voxel.GridConfig{
	Size:        r3.Vector{X: 2, Y: 2, Z: 2},
	Origin:      r3.Vector{X: -1, Y: -1, Z: -1},
	Resolution:  0.02,
	MaxDistance: 0.4,
}

// sceneConfig describes the world a configuration is checked in.
type sceneConfig struct {
	Grid      *voxel.GridConfig `json:"grid,omitempty"`
	Obstacles []obstacleConfig  `json:"obstacles,omitempty"`
	Attached  *attachedConfig   `json:"attached,omitempty"`
}

type obstacleConfig struct {
	Name       string                       `json:"name,omitempty"`
	Geometries []spatialmath.GeometryConfig `json:"geometries"`
}

// attachedConfig places a geometry in the frame of a link; the geometry's translation and orientation are relative to
// the link.
type attachedConfig struct {
	Name     string                     `json:"name"`
	Link     string                     `json:"link"`
	Geometry spatialmath.GeometryConfig `json:"geometry"`
}

func (cfg *sceneConfig) Validate() error {
	var err error
	if cfg.Grid != nil {
		multierr.AppendInto(&err, cfg.Grid.Validate())
	}
	for i, o := range cfg.Obstacles {
		if len(o.Geometries) == 0 {
			multierr.AppendInto(&err, errors.Errorf("obstacle %d has no geometries", i))
		}
	}
	if cfg.Attached != nil && (cfg.Attached.Name == "" || cfg.Attached.Link == "") {
		multierr.AppendInto(&err, errors.New("attached object needs a name and a link"))
	}
	return err
}

func readScene(path string) (*sceneConfig, error) {
	scene := &sceneConfig{}
	if path == "" {
		return scene, nil
	}
	//nolint:gosec
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read scene")
	}
	if err := json.Unmarshal(data, scene); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal scene %q", path)
	}
	if err := scene.Validate(); err != nil {
		return nil, err
	}
	return scene, nil
}

func (cfg *sceneConfig) newGrid() (*voxel.OccupancyGrid, error) {
	grid := defaultGrid
	if cfg.Grid != nil {
		grid = *cfg.Grid
	}
	return grid.NewGrid()
}

// populate adds the scene's obstacles to space. The attached object is only added once space is initialized.
func (cfg *sceneConfig) populate(space *collision.Space) error {
	for _, o := range cfg.Obstacles {
		obj := &collision.CollisionObject{Name: o.Name}
		for i := range o.Geometries {
			g, err := o.Geometries[i].ParseConfig()
			if err != nil {
				return errors.Wrapf(err, "obstacle %q", o.Name)
			}
			obj.Geometries = append(obj.Geometries, g)
		}
		if _, err := space.AddCollisionObject(obj); err != nil {
			return err
		}
	}
	return nil
}

func (cfg *sceneConfig) attach(space *collision.Space) error {
	if cfg.Attached == nil {
		return nil
	}
	g, err := cfg.Attached.Geometry.ParseConfig()
	if err != nil {
		return errors.Wrapf(err, "attached object %q", cfg.Attached.Name)
	}
	return space.AttachObject(cfg.Attached.Name, cfg.Attached.Link, spatialmath.NewZeroPose(), g)
}
