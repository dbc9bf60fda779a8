package utils

import "math"

// NormalizeAngle wraps the given angle in radians into the half open interval (-pi, pi].
func NormalizeAngle(angle float64) float64 {
	a := math.Mod(angle, 2*math.Pi)
	if a <= -math.Pi {
		a += 2 * math.Pi
	} else if a > math.Pi {
		a -= 2 * math.Pi
	}
	return a
}

// ShortestAngularDistance returns the signed angle in radians that moves from `from` to `to` along the shorter arc.
// The result is in (-pi, pi].
func ShortestAngularDistance(from, to float64) float64 {
	return NormalizeAngle(to - from)
}

// AngleDiffDeg returns the closest difference from the two given
// angles. The arguments are commutative.
func AngleDiffDeg(a1, a2 float64) float64 {
	return float64(180) - math.Abs(math.Abs(a1-a2)-float64(180))
}
