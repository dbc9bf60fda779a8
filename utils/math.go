package utils

import (
	"math"
)

// DegToRad converts degrees to radians.
func DegToRad(degrees float64) float64 {
	return degrees * math.Pi / 180
}

// RadToDeg converts radians to degrees.
func RadToDeg(radians float64) float64 {
	return radians * 180 / math.Pi
}

// Float64AlmostEqual compares two float64s and returns if the difference between them is less than epsilon.
func Float64AlmostEqual(a, b, epsilon float64) bool {
	return math.Abs(a-b) <= epsilon
}

// Square returns n*n; math.Pow( x, 2 ) is slow.
func Square(n float64) float64 {
	return n * n
}

// SquareInt returns n*n.
func SquareInt(n int) int {
	return n * n
}

// AbsInt returns the absolute value of n.
func AbsInt(n int) int {
	if n < 0 {
		return -1 * n
	}
	return n
}

// MaxInt returns the larger of a and b.
func MaxInt(a, b int) int {
	if a < b {
		return b
	}
	return a
}

// MinInt returns the smaller of a and b.
func MinInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// CeilWithTolerance returns the ceiling of x, ignoring floating point noise smaller than tol above an integer.
// For example CeilWithTolerance(9.000000000000002, 1e-9) is 9 rather than 10.
func CeilWithTolerance(x, tol float64) float64 {
	return math.Ceil(x - tol)
}
