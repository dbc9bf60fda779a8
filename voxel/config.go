package voxel

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// GridConfig describes the workspace covered by an OccupancyGrid.
type GridConfig struct {
	// Size is the extent of the grid along each axis in meters.
	Size r3.Vector `json:"size"`
	// Origin is the world position of the minimum corner of the grid.
	Origin     r3.Vector `json:"origin"`
	Resolution float64   `json:"resolution"`
	// MaxDistance, in meters, caps the distance field.
	MaxDistance float64 `json:"max_distance"`
}

// Validate ensures all parts of the config are valid.
func (cfg *GridConfig) Validate() error {
	var err error
	if cfg.Resolution <= 0 {
		multierr.AppendInto(&err, errors.New("grid resolution must be positive"))
	}
	if cfg.Size.X <= 0 || cfg.Size.Y <= 0 || cfg.Size.Z <= 0 {
		multierr.AppendInto(&err, errors.Errorf("grid size must be positive along every axis, got %v", cfg.Size))
	}
	if cfg.MaxDistance <= 0 {
		multierr.AppendInto(&err, errors.New("grid max_distance must be positive"))
	}
	return err
}

// NewGrid builds an empty OccupancyGrid from the config.
func (cfg *GridConfig) NewGrid() (*OccupancyGrid, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return NewOccupancyGrid(cfg.Size, cfg.Resolution, cfg.Origin, cfg.MaxDistance)
}
