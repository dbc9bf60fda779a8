package utils

import (
	"math"
	"testing"

	"go.viam.com/test"
)

func TestFloat64AlmostEqual(t *testing.T) {
	test.That(t, Float64AlmostEqual(1, 1.0001, 1e-3), test.ShouldBeTrue)
	test.That(t, Float64AlmostEqual(1, 1.01, 1e-3), test.ShouldBeFalse)
}

func TestCeilWithTolerance(t *testing.T) {
	test.That(t, CeilWithTolerance(9.000000000000002, 1e-9), test.ShouldEqual, 9)
	test.That(t, CeilWithTolerance(9.1, 1e-9), test.ShouldEqual, 10)
	test.That(t, CeilWithTolerance(0, 1e-9), test.ShouldEqual, 0)
}

func TestNormalizeAngle(t *testing.T) {
	for _, tc := range []struct {
		in, out float64
	}{
		{0, 0},
		{math.Pi, math.Pi},
		{-math.Pi, math.Pi},
		{3 * math.Pi / 2, -math.Pi / 2},
		{-3 * math.Pi / 2, math.Pi / 2},
		{4 * math.Pi, 0},
	} {
		test.That(t, NormalizeAngle(tc.in), test.ShouldAlmostEqual, tc.out, 1e-9)
	}
}

func TestShortestAngularDistance(t *testing.T) {
	test.That(t, ShortestAngularDistance(0.1, -0.1), test.ShouldAlmostEqual, -0.2, 1e-9)
	// crossing the +/- pi seam goes the short way around
	test.That(t, ShortestAngularDistance(3, -3), test.ShouldAlmostEqual, 2*math.Pi-6, 1e-9)
	test.That(t, ShortestAngularDistance(-3, 3), test.ShouldAlmostEqual, 6-2*math.Pi, 1e-9)
	test.That(t, AngleDiffDeg(350, 10), test.ShouldEqual, 20)
}
