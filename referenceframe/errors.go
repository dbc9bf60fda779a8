package referenceframe

import (
	"github.com/pkg/errors"
)

// World is the name of the root frame that every model is expressed in.
const World = "world"

// ErrCircularReference is an error indicating that a circular path exists somewhere between the end effector and the base.
var ErrCircularReference = errors.New("infinite loop finding path from end effector to base")

// ErrNeedOneEndEffector is an error indicating that a model does not form a single serial chain.
var ErrNeedOneEndEffector = errors.New("need exactly one end effector")

// ErrNoModelInformation is used when there is no model information.
var ErrNoModelInformation = errors.New("no model information")

// NewIncorrectDoFError returns an error indicating that the number of inputs is not what the frame expects.
func NewIncorrectDoFError(actual, expected int) error {
	return errors.Errorf("number of inputs does not match frame DoF, expected %d but got %d", expected, actual)
}

// NewFrameNotInListOfTransformsError returns an error indicating that a frame of the given name
// is missing from the provided list of transforms.
func NewFrameNotInListOfTransformsError(frameName string) error {
	return errors.Errorf("frame named '%s' not in the list of transforms", frameName)
}

// NewParentFrameNotInMapOfParentsError returns an error indicating that the parent of the named frame is unknown.
func NewParentFrameNotInMapOfParentsError(frameName string) error {
	return errors.Errorf("parent of frame named '%s' not in map of parents", frameName)
}

// NewReservedWordError returns an error indicating that a config used a name reserved for the root frame.
func NewReservedWordError(configType, reservedWord string) error {
	return errors.Errorf("reserved word: cannot name a %s '%s'", configType, reservedWord)
}

// NewDuplicateFrameNameError returns an error indicating that two frames of a model share a name.
func NewDuplicateFrameNameError(frameName string) error {
	return errors.Errorf("cannot have more than one frame with name %s", frameName)
}

// NewUnsupportedJointTypeError returns an error indicating that the joint type is not one we can build a frame for.
func NewUnsupportedJointTypeError(jointType string) error {
	return errors.Errorf("unsupported joint type detected: %q", jointType)
}
