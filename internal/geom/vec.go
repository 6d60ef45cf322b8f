// Package geom holds the small amount of 2D vector maths shared by the track
// generator, the car model and the state extractor, plus the closed-loop index
// arithmetic used everywhere a cyclic centerline is walked.
package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Epsilon is the length under which a vector is treated as degenerate.
const Epsilon = 1e-6

// NormalizeWithEpsilon returns v scaled to unit length, or the exact zero
// vector when |v| < Epsilon.
func NormalizeWithEpsilon(v r2.Vec) r2.Vec {
	length := r2.Norm(v)
	if length < Epsilon {
		return r2.Vec{}
	}
	return r2.Scale(1/length, v)
}

// Side returns v rotated by -90°, i.e. (y, -x). For a forward vector this is
// the right-hand side.
func Side(v r2.Vec) r2.Vec {
	return r2.Vec{X: v.Y, Y: -v.X}
}

// SignedAngle returns the angle between v1 and v2 in [-π, π]. The magnitude
// is acos of the clamped dot product of the normalized inputs; the sign
// follows the 2D cross product v1.x*v2.y - v1.y*v2.x (negative cross gives a
// negative angle).
func SignedAngle(v1, v2 r2.Vec) float64 {
	dot := r2.Dot(NormalizeWithEpsilon(v1), NormalizeWithEpsilon(v2))
	dot = math.Max(-1, math.Min(1, dot))
	angle := math.Acos(dot)
	if math.Signbit(r2.Cross(v1, v2)) {
		return -angle
	}
	return angle
}

// Rotate rotates v counter-clockwise by angle radians around the origin.
func Rotate(v r2.Vec, angle float64) r2.Vec {
	s, c := math.Sincos(angle)
	return r2.Vec{X: c*v.X - s*v.Y, Y: s*v.X + c*v.Y}
}

// Forward returns the unit vector a body with the given angle points along,
// using the local +Y axis as "forward".
func Forward(angle float64) r2.Vec {
	return Rotate(r2.Vec{X: 0, Y: 1}, angle)
}

// HeadingAngle is the inverse of Forward: the body angle whose local +Y axis
// points along dir.
func HeadingAngle(dir r2.Vec) float64 {
	return math.Atan2(-dir.X, dir.Y)
}

// Distance returns |a - b|.
func Distance(a, b r2.Vec) float64 {
	return r2.Norm(r2.Sub(a, b))
}
