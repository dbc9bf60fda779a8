package spatialmath

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// GeometryConfig specifies the format of geometries specified through JSON configuration files.
type GeometryConfig struct {
	Type GeometryType `json:"type"`

	// parameters used for defining a box's rectangular cross section
	X float64 `json:"x,omitempty"`
	Y float64 `json:"y,omitempty"`
	Z float64 `json:"z,omitempty"`

	// parameters used for defining a sphere or cylinder's radius'
	R float64 `json:"r,omitempty"`

	// cylinder length
	L float64 `json:"l,omitempty"`

	// mesh definition, triangles index into vertices
	Vertices  []r3.Vector `json:"vertices,omitempty"`
	Triangles [][3]int    `json:"triangles,omitempty"`

	// define an offset to position the geometry
	TranslationOffset r3.Vector    `json:"translation,omitempty"`
	OrientationOffset *EulerAngles `json:"orientation,omitempty"`

	Label string `json:"label,omitempty"`
}

// Pose returns the offset described by the config.
func (config *GeometryConfig) Pose() Pose {
	if config.OrientationOffset == nil {
		return NewPoseFromPoint(config.TranslationOffset)
	}
	return NewPose(config.TranslationOffset, config.OrientationOffset)
}

// ParseConfig converts a GeometryConfig into the correct Geometry.
func (config *GeometryConfig) ParseConfig() (Geometry, error) {
	offset := config.Pose()
	switch config.Type {
	case BoxType:
		return NewBox(offset, r3.Vector{X: config.X, Y: config.Y, Z: config.Z}, config.Label)
	case SphereType:
		return NewSphere(offset, config.R, config.Label)
	case CylinderType:
		return NewCylinder(offset, config.R, config.L, config.Label)
	case MeshType:
		return NewMeshFromVertices(offset, config.Vertices, config.Triangles, config.Label)
	case "":
		return nil, errors.New("geometry config is missing a type")
	default:
		return nil, newGeometryTypeUnsupportedError(config.Type)
	}
}
