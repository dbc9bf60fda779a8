package spatialmath

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func TestComposeAndInverse(t *testing.T) {
	a := NewPose(r3.Vector{X: 1, Y: 2, Z: 3}, &EulerAngles{Yaw: math.Pi / 2})
	b := NewPose(r3.Vector{X: 1}, &R4AA{Theta: 0.3, RX: 1})

	composed := Compose(a, b)
	test.That(t, R3VectorAlmostEqual(composed.Point(), r3.Vector{X: 1, Y: 3, Z: 3}, 1e-9), test.ShouldBeTrue)

	roundTrip := Compose(composed, PoseInverse(b))
	test.That(t, PoseAlmostEqual(roundTrip, a), test.ShouldBeTrue)

	test.That(t, PoseAlmostEqual(Compose(a, PoseInverse(a)), NewZeroPose()), test.ShouldBeTrue)
	test.That(t, PoseAlmostEqual(Compose(a, PoseBetween(a, b)), b), test.ShouldBeTrue)
}

func TestTransformPoint(t *testing.T) {
	p := NewPose(r3.Vector{Z: 1}, &EulerAngles{Yaw: math.Pi / 2})
	pt := TransformPoint(p, r3.Vector{X: 1})
	test.That(t, R3VectorAlmostEqual(pt, r3.Vector{Y: 1, Z: 1}, 1e-9), test.ShouldBeTrue)

	back := TransformPoint(PoseInverse(p), pt)
	test.That(t, R3VectorAlmostEqual(back, r3.Vector{X: 1}, 1e-9), test.ShouldBeTrue)
}

func TestOrientationConversions(t *testing.T) {
	ea := &EulerAngles{Roll: 0.1, Pitch: -0.4, Yaw: 1.2}
	q := ea.Quaternion()

	back := QuatToEulerAngles(q)
	test.That(t, back.Roll, test.ShouldAlmostEqual, ea.Roll)
	test.That(t, back.Pitch, test.ShouldAlmostEqual, ea.Pitch)
	test.That(t, back.Yaw, test.ShouldAlmostEqual, ea.Yaw)

	aa := ea.AxisAngles()
	test.That(t, OrientationAlmostEqual(aa, ea), test.ShouldBeTrue)

	rm := ea.RotationMatrix()
	v := r3.Vector{X: 0.3, Y: -2, Z: 5}
	test.That(t, R3VectorAlmostEqual(rm.MulVec(v), rotateVector(q, v), 1e-9), test.ShouldBeTrue)

	// q and -q are the same rotation
	test.That(t, QuaternionAlmostEqual(q, Flip(q), 1e-9), test.ShouldBeTrue)

	t.Run("negative real part keeps a positive angle", func(t *testing.T) {
		r4 := QuatToR4AA(Flip((&R4AA{Theta: 1, RZ: 1}).ToQuat()))
		test.That(t, r4.Theta, test.ShouldAlmostEqual, 1)
		test.That(t, r4.RZ, test.ShouldAlmostEqual, 1)
	})

	t.Run("between", func(t *testing.T) {
		o1 := &EulerAngles{Yaw: 0.5}
		o2 := &EulerAngles{Yaw: 1.5}
		diff := OrientationBetween(o1, o2)
		test.That(t, diff.EulerAngles().Yaw, test.ShouldAlmostEqual, 1)
	})
}

func TestPoseAlmostCoincident(t *testing.T) {
	a := NewPose(r3.Vector{X: 1}, &EulerAngles{Roll: 1})
	b := NewPoseFromPoint(r3.Vector{X: 1 + 1e-8})
	test.That(t, PoseAlmostCoincident(a, b), test.ShouldBeTrue)
	test.That(t, PoseAlmostEqual(a, b), test.ShouldBeFalse)
}
