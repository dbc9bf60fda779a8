package referenceframe

import (
	"strings"

	"go.uber.org/multierr"

	"go.viam.com/collisionspace/spatialmath"
)

// Kinematics computes the pose of every named link of a robot for a joint configuration.
type Kinematics interface {
	Name() string
	// DoF describes the limits of each input, in order.
	DoF() []Limit
	// LinkPoses returns the pose of every frame of the model, in the model's base frame.
	// Out of bounds inputs still produce poses, alongside an error containing OOBErrString.
	LinkPoses(inputs []Input) (map[string]spatialmath.Pose, error)
}

// SimpleModel is a serial chain of frames, ordered from the base outwards.
// Generally speaking, a joint will attach a link to a frame
// and a link will place the next joint relative to its parent.
type SimpleModel struct {
	name string
	// ordTransforms is the list of transforms ordered from base to end effector
	ordTransforms []Frame
	// geometries of each link, expressed in that link's frame
	geometries map[string]spatialmath.Geometry
	limits     []Limit
}

// NewSimpleModel constructs a new, empty model.
func NewSimpleModel(name string) *SimpleModel {
	return &SimpleModel{name: name, geometries: map[string]spatialmath.Geometry{}}
}

// NewSerialModel builds a model from frames ordered from the base outwards.
func NewSerialModel(name string, frames []Frame) (*SimpleModel, error) {
	m := NewSimpleModel(name)
	seen := map[string]bool{}
	for _, f := range frames {
		if seen[f.Name()] {
			return nil, NewDuplicateFrameNameError(f.Name())
		}
		seen[f.Name()] = true
	}
	m.setOrdTransforms(frames)
	return m, nil
}

func (m *SimpleModel) setOrdTransforms(frames []Frame) {
	m.ordTransforms = frames
	m.limits = make([]Limit, 0, len(frames))
	for _, transform := range frames {
		m.limits = append(m.limits, transform.DoF()...)
	}
}

// Name returns the name of this model.
func (m *SimpleModel) Name() string {
	return m.name
}

// ChangeName changes the name of this model.
func (m *SimpleModel) ChangeName(name string) {
	m.name = name
}

// DoF returns the limits of every degree of freedom within the model.
func (m *SimpleModel) DoF() []Limit {
	return m.limits
}

// SetLinkGeometry associates a geometry, expressed in the frame of the named link, with that link.
func (m *SimpleModel) SetLinkGeometry(link string, g spatialmath.Geometry) {
	m.geometries[link] = g
}

// LinkGeometry returns the geometry of the named link in the link's own frame.
func (m *SimpleModel) LinkGeometry(link string) (spatialmath.Geometry, bool) {
	g, ok := m.geometries[link]
	return g, ok
}

// Transform takes a list of joint inputs and computes the pose of the end effector.
func (m *SimpleModel) Transform(inputs []Input) (spatialmath.Pose, error) {
	var eePose spatialmath.Pose = spatialmath.NewZeroPose()
	err := m.walk(inputs, func(_ string, pose spatialmath.Pose) {
		eePose = pose
	})
	if err != nil && !strings.Contains(err.Error(), OOBErrString) {
		return nil, err
	}
	return eePose, err
}

// LinkPoses returns the pose of every frame in the model, in the model's base frame.
func (m *SimpleModel) LinkPoses(inputs []Input) (map[string]spatialmath.Pose, error) {
	poses := make(map[string]spatialmath.Pose, len(m.ordTransforms)+1)
	poses[World] = spatialmath.NewZeroPose()
	err := m.walk(inputs, func(name string, pose spatialmath.Pose) {
		poses[name] = pose
	})
	if err != nil && !strings.Contains(err.Error(), OOBErrString) {
		return nil, err
	}
	return poses, err
}

// Geometries returns the geometry of every link that has one, placed for the given inputs.
func (m *SimpleModel) Geometries(inputs []Input) (map[string]spatialmath.Geometry, error) {
	poses, err := m.LinkPoses(inputs)
	if poses == nil {
		return nil, err
	}
	placed := make(map[string]spatialmath.Geometry, len(m.geometries))
	for link, g := range m.geometries {
		pose, ok := poses[link]
		if !ok {
			multierr.AppendInto(&err, NewFrameNotInListOfTransformsError(link))
			continue
		}
		placed[m.name+":"+link] = g.Transform(pose)
	}
	return placed, err
}

// walk composes the frames from the base outwards, handing each frame's accumulated pose to visit.
func (m *SimpleModel) walk(inputs []Input, visit func(string, spatialmath.Pose)) error {
	if len(inputs) != len(m.limits) {
		return NewIncorrectDoFError(len(inputs), len(m.limits))
	}
	var err error
	composed := spatialmath.NewZeroPose()
	posIdx := 0
	for _, transform := range m.ordTransforms {
		dof := len(transform.DoF()) + posIdx
		input := inputs[posIdx:dof]
		posIdx = dof

		pose, errNew := transform.Transform(input)
		// Fail if inputs are incorrect and pose is nil, but allow querying out-of-bounds positions
		if pose == nil {
			return errNew
		}
		multierr.AppendInto(&err, errNew)
		composed = spatialmath.Compose(composed, pose)
		visit(transform.Name(), composed)
	}
	return err
}

// AreInputsValid checks whether the given inputs violate any joint limits.
func (m *SimpleModel) AreInputsValid(inputs []Input) bool {
	if len(inputs) != len(m.limits) {
		return false
	}
	for i, limit := range m.limits {
		if inputs[i].Value < limit.Min || inputs[i].Value > limit.Max {
			return false
		}
	}
	return true
}

// AlmostEquals returns whether two models have the same name and frames.
func (m *SimpleModel) AlmostEquals(other *SimpleModel) bool {
	if m.name != other.name || len(m.ordTransforms) != len(other.ordTransforms) {
		return false
	}
	for i, f := range m.ordTransforms {
		if !f.AlmostEquals(other.ordTransforms[i]) {
			return false
		}
	}
	return true
}
