package referenceframe

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	spatial "go.viam.com/collisionspace/spatialmath"
)

func TestModelLoading(t *testing.T) {
	m, err := ParseModelJSONFile("testdata/planar_arm.json", "")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, m.Name(), test.ShouldEqual, "planar_arm")
	test.That(t, len(m.DoF()), test.ShouldEqual, 2)
	test.That(t, m.DoF()[0].Max, test.ShouldAlmostEqual, math.Pi)
	test.That(t, m.DoF()[1].Unbounded(), test.ShouldBeTrue)

	test.That(t, m.AreInputsValid(FloatsToInputs([]float64{0.1, 20})), test.ShouldBeTrue)
	test.That(t, m.AreInputsValid(FloatsToInputs([]float64{4, 0})), test.ShouldBeFalse)
	test.That(t, m.AreInputsValid(FloatsToInputs([]float64{0})), test.ShouldBeFalse)

	_, ok := m.LinkGeometry("link1")
	test.That(t, ok, test.ShouldBeTrue)

	m, err = ParseModelJSONFile("testdata/planar_arm.json", "foo")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, m.Name(), test.ShouldEqual, "foo")

	_, err = ParseModelJSONFile("testdata/missing.json", "")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestLinkPoses(t *testing.T) {
	m, err := ParseModelJSONFile("testdata/planar_arm.json", "")
	test.That(t, err, test.ShouldBeNil)

	poses, err := m.LinkPoses(FloatsToInputs([]float64{math.Pi / 2, 0}))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, spatial.R3VectorAlmostEqual(poses["base"].Point(), r3.Vector{Z: 0.1}, 1e-9), test.ShouldBeTrue)
	test.That(t, spatial.R3VectorAlmostEqual(poses["link1"].Point(), r3.Vector{Y: 0.5, Z: 0.1}, 1e-9), test.ShouldBeTrue)
	test.That(t, spatial.R3VectorAlmostEqual(poses["link2"].Point(), r3.Vector{Y: 1, Z: 0.1}, 1e-9), test.ShouldBeTrue)
	test.That(t, spatial.PoseAlmostEqual(poses[World], spatial.NewZeroPose()), test.ShouldBeTrue)

	ee, err := m.Transform(FloatsToInputs([]float64{math.Pi / 2, -math.Pi / 2}))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, spatial.R3VectorAlmostEqual(ee.Point(), r3.Vector{X: 0.5, Y: 0.5, Z: 0.1}, 1e-9), test.ShouldBeTrue)

	t.Run("out of bounds inputs still produce poses", func(t *testing.T) {
		poses, err := m.LinkPoses(FloatsToInputs([]float64{4, 0}))
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, OOBErrString)
		test.That(t, poses, test.ShouldNotBeNil)
	})

	t.Run("incorrect number of inputs", func(t *testing.T) {
		poses, err := m.LinkPoses(FloatsToInputs([]float64{0}))
		test.That(t, poses, test.ShouldBeNil)
		test.That(t, err.Error(), test.ShouldEqual, NewIncorrectDoFError(1, 2).Error())
	})
}

func TestModelGeometries(t *testing.T) {
	m, err := ParseModelJSONFile("testdata/planar_arm.json", "")
	test.That(t, err, test.ShouldBeNil)

	geometries, err := m.Geometries(FloatsToInputs([]float64{math.Pi / 2, 0}))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(geometries), test.ShouldEqual, 1)
	link1 := geometries["planar_arm:link1"]
	test.That(t, link1, test.ShouldNotBeNil)
	test.That(t, spatial.R3VectorAlmostEqual(link1.Pose().Point(), r3.Vector{Y: 0.25, Z: 0.1}, 1e-9), test.ShouldBeTrue)
}

func TestNewSerialModel(t *testing.T) {
	link, err := NewStaticFrame("link", spatial.NewPoseFromPoint(r3.Vector{Z: 1}))
	test.That(t, err, test.ShouldBeNil)
	slide, err := NewTranslationalFrame("slide", r3.Vector{X: 2}, Limit{Min: -1, Max: 1})
	test.That(t, err, test.ShouldBeNil)

	m, err := NewSerialModel("gantry", []Frame{link, slide})
	test.That(t, err, test.ShouldBeNil)
	pose, err := m.Transform([]Input{{0.5}})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, spatial.R3VectorAlmostEqual(pose.Point(), r3.Vector{X: 0.5, Z: 1}, 1e-9), test.ShouldBeTrue)

	_, err = NewSerialModel("dup", []Frame{link, link})
	test.That(t, err, test.ShouldBeError, NewDuplicateFrameNameError("link"))

	other, err := NewSerialModel("gantry", []Frame{link, slide})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, m.AlmostEquals(other), test.ShouldBeTrue)
}

func TestModelConfigErrors(t *testing.T) {
	_, err := UnmarshalModelJSON(nil, "")
	test.That(t, err, test.ShouldBeError, ErrNoModelInformation)

	_, err = UnmarshalModelJSON([]byte(`{"links": [{"id": "world", "parent": "world"}]}`), "")
	test.That(t, err, test.ShouldBeError, NewReservedWordError("link", World))

	_, err = UnmarshalModelJSON([]byte(`{"joints": [{"id": "j", "type": "spherical", "parent": "world"}]}`), "")
	test.That(t, err, test.ShouldBeError, NewUnsupportedJointTypeError("spherical"))

	branched := `{"links": [
		{"id": "a", "parent": "world"},
		{"id": "b", "parent": "world"}
	]}`
	_, err = UnmarshalModelJSON([]byte(branched), "")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, ErrNeedOneEndEffector.Error())

	dangling := `{"links": [{"id": "a", "parent": "nowhere"}]}`
	_, err = UnmarshalModelJSON([]byte(dangling), "")
	test.That(t, err, test.ShouldBeError, NewFrameNotInListOfTransformsError("nowhere"))
}
