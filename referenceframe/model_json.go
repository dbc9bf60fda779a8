package referenceframe

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"go.viam.com/collisionspace/spatialmath"
	"go.viam.com/collisionspace/utils"
)

// Supported joint types.
const (
	RevoluteJoint  = "revolute"
	PrismaticJoint = "prismatic"
)

// ModelConfigJSON represents all supported fields in a kinematics JSON file.
type ModelConfigJSON struct {
	Name   string        `json:"name"`
	Links  []LinkConfig  `json:"links,omitempty"`
	Joints []JointConfig `json:"joints,omitempty"`
}

// LinkConfig is a fixed transform from its parent frame, optionally carrying the geometry of the link.
type LinkConfig struct {
	ID          string                      `json:"id"`
	Translation r3.Vector                   `json:"translation"`
	Orientation *spatialmath.EulerAngles    `json:"orientation,omitempty"`
	Geometry    *spatialmath.GeometryConfig `json:"geometry,omitempty"`
	Parent      string                      `json:"parent"`
}

// JointConfig describes a single degree of freedom between a parent frame and a child link.
type JointConfig struct {
	ID     string    `json:"id"`
	Type   string    `json:"type"`
	Parent string    `json:"parent"`
	Axis   r3.Vector `json:"axis"`
	Max    float64   `json:"max"` // in meters or degs
	Min    float64   `json:"min"` // in meters or degs
	// Continuous revolute joints wrap around and ignore min and max.
	Continuous bool `json:"continuous,omitempty"`
}

// ToStaticFrame converts a LinkConfig into a staticFrame.
func (cfg *LinkConfig) ToStaticFrame() (Frame, error) {
	var orientation spatialmath.Orientation
	if cfg.Orientation != nil {
		orientation = cfg.Orientation
	}
	return NewStaticFrame(cfg.ID, spatialmath.NewPose(cfg.Translation, orientation))
}

// ToFrame converts a JointConfig into a joint frame.
func (cfg *JointConfig) ToFrame() (Frame, error) {
	switch cfg.Type {
	case RevoluteJoint:
		limit := Limit{Min: utils.DegToRad(cfg.Min), Max: utils.DegToRad(cfg.Max)}
		if cfg.Continuous {
			limit = Limit{Min: math.Inf(-1), Max: math.Inf(1)}
		}
		return NewRotationalFrame(cfg.ID, spatialmath.R4AA{RX: cfg.Axis.X, RY: cfg.Axis.Y, RZ: cfg.Axis.Z}, limit)
	case PrismaticJoint:
		return NewTranslationalFrame(cfg.ID, cfg.Axis, Limit{Min: cfg.Min, Max: cfg.Max})
	default:
		return nil, NewUnsupportedJointTypeError(cfg.Type)
	}
}

// UnmarshalModelJSON will parse the given JSON data into a kinematics model. modelName sets the name of the model,
// will use the name from the JSON if string is empty.
func UnmarshalModelJSON(jsonData []byte, modelName string) (*SimpleModel, error) {
	// empty data probably means that the robot has no model information
	if len(jsonData) == 0 {
		return nil, ErrNoModelInformation
	}

	m := &ModelConfigJSON{}
	if err := json.Unmarshal(jsonData, m); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal json file")
	}

	return m.ParseConfig(modelName)
}

// ParseConfig converts the ModelConfigJSON struct into a full model with the name modelName.
func (cfg *ModelConfigJSON) ParseConfig(modelName string) (*SimpleModel, error) {
	if modelName == "" {
		modelName = cfg.Name
	}

	model := NewSimpleModel(modelName)
	transforms := map[string]Frame{}

	// Make a map of parents for each element for post-process, to allow items to be processed out of order
	parentMap := map[string]string{}

	for _, link := range cfg.Links {
		if link.ID == World {
			return nil, NewReservedWordError("link", World)
		}
	}
	for _, joint := range cfg.Joints {
		if joint.ID == World {
			return nil, NewReservedWordError("joint", World)
		}
	}

	for _, link := range cfg.Links {
		if _, ok := transforms[link.ID]; ok {
			return nil, NewDuplicateFrameNameError(link.ID)
		}
		parentMap[link.ID] = link.Parent
		frame, err := link.ToStaticFrame()
		if err != nil {
			return nil, err
		}
		transforms[link.ID] = frame
		if link.Geometry != nil {
			g, err := link.Geometry.ParseConfig()
			if err != nil {
				return nil, errors.Wrapf(err, "link %s", link.ID)
			}
			model.SetLinkGeometry(link.ID, g)
		}
	}

	for _, joint := range cfg.Joints {
		if _, ok := transforms[joint.ID]; ok {
			return nil, NewDuplicateFrameNameError(joint.ID)
		}
		parentMap[joint.ID] = joint.Parent
		frame, err := joint.ToFrame()
		if err != nil {
			return nil, err
		}
		transforms[joint.ID] = frame
	}

	// Create an ordered list of transforms
	ot, err := sortTransforms(transforms, parentMap)
	if err != nil {
		return nil, err
	}

	model.setOrdTransforms(ot)

	return model, nil
}

// ParseModelJSONFile will read a given file and then parse the contained JSON data.
func ParseModelJSONFile(filename, modelName string) (*SimpleModel, error) {
	//nolint:gosec
	jsonData, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read json file")
	}
	return UnmarshalModelJSON(jsonData, modelName)
}

// Create an ordered list of transforms given a mapping of child to parent frames.
func sortTransforms(transforms map[string]Frame, parents map[string]string) ([]Frame, error) {
	// find the end effector first - determine which transforms have no children
	// copy the map of children -> parents
	ees := map[string]string{}
	for child, parent := range parents {
		ees[child] = parent
	}
	// now remove all parents
	for _, parent := range parents {
		delete(ees, parent)
	}
	// ensure there is only on end effector
	if len(ees) != 1 {
		return nil, fmt.Errorf("%w, have %v", ErrNeedOneEndEffector, ees)
	}

	// start the search from the end effector
	curr := lo.Keys(ees)[0]
	seen := map[string]bool{curr: true}
	orderedTransforms := []Frame{}
	for i := 0; i < len(parents); i++ {
		frame, ok := transforms[curr]
		if !ok {
			return nil, NewFrameNotInListOfTransformsError(curr)
		}
		orderedTransforms = append(orderedTransforms, frame)

		// find the parent of the current transform
		parent, ok := parents[curr]
		if !ok {
			return nil, NewParentFrameNotInMapOfParentsError(curr)
		}

		// make sure it wasn't seen, mark it seen, then add it to the list
		if seen[parent] {
			return nil, ErrCircularReference
		}
		seen[parent] = true

		// update the frame to add next
		curr = parent
	}
	if curr != World {
		return nil, NewFrameNotInListOfTransformsError(curr)
	}

	// After the above loop, the transforms are in reverse order, so we reverse the list.
	for i, j := 0, len(orderedTransforms)-1; i < j; i, j = i+1, j-1 {
		orderedTransforms[i], orderedTransforms[j] = orderedTransforms[j], orderedTransforms[i]
	}

	return orderedTransforms, nil
}
