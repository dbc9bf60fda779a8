package collision

import (
	"github.com/pkg/errors"

	"go.viam.com/collisionspace/referenceframe"
)

var (
	// ErrConfigurationSize is returned when a configuration does not have one value per joint.
	ErrConfigurationSize = errors.New("configuration size mismatch")

	// ErrJointLimit is returned when a configuration places a bounded joint outside its limits.
	ErrJointLimit = errors.New("joint limit violated")

	// ErrKinematics is returned when link poses cannot be computed or a required link is missing.
	ErrKinematics = errors.New("kinematics failure")

	// ErrUninitialized is returned when the space is queried before a planning group is configured.
	ErrUninitialized = errors.New("collision space is not initialized")

	// ErrGridState is returned when the distance field is stale and recomputation is left to the caller.
	ErrGridState = errors.New("distance field is stale")
)

// NewConfigurationSizeError returns an error indicating that a configuration has the wrong number of values.
func NewConfigurationSizeError(actual, expected int) error {
	return errors.Wrapf(ErrConfigurationSize, "got %d joint values, expected %d", actual, expected)
}

// NewJointLimitError returns an error indicating that the named joint is outside of its limits.
func NewJointLimitError(joint string, value float64, limit referenceframe.Limit) error {
	return errors.Wrapf(ErrJointLimit, "joint %s value %.5f outside [%.5f, %.5f]", joint, value, limit.Min, limit.Max)
}

// NewKinematicsError wraps a failure of the kinematics collaborator. The result matches ErrKinematics and keeps err
// as its cause.
func NewKinematicsError(err error) error {
	return errors.WithStack(&kinematicsError{cause: err})
}

type kinematicsError struct {
	cause error
}

func (e *kinematicsError) Error() string {
	return ErrKinematics.Error() + ": " + e.cause.Error()
}

func (e *kinematicsError) Is(target error) bool {
	return target == ErrKinematics
}

func (e *kinematicsError) Unwrap() error {
	return e.cause
}

// Cause lets errors.Cause reach the kinematics failure.
func (e *kinematicsError) Cause() error {
	return e.cause
}

// NewMissingLinkError returns an error indicating that kinematics produced no pose for a link a group is bound to.
func NewMissingLinkError(link string) error {
	return errors.Wrapf(ErrKinematics, "no pose for link %q", link)
}

// NewUninitializedError returns an error indicating that Init has not succeeded yet.
func NewUninitializedError() error {
	return errors.WithStack(ErrUninitialized)
}

// NewGridStateError returns an error indicating that the distance field must be recomputed before querying.
func NewGridStateError() error {
	return errors.Wrap(ErrGridState, "call RecomputeDistanceField before checking")
}

// NewUnknownGroupError returns an error indicating that no group of the given name exists.
func NewUnknownGroupError(name string) error {
	return errors.Errorf("no collision group named %q", name)
}

// NewObjectNotFoundError returns an error indicating that no collision object of the given name is known.
func NewObjectNotFoundError(name string) error {
	return errors.Errorf("no collision object named %q", name)
}
