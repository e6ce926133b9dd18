// Package math3d holds the small amount of 3D math the camera rig needs:
// vector helpers on top of gonum's r3, quaternion construction from an
// orthonormal basis, look-at rotation and XYZ Euler conversions.
package math3d

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Epsilon is the length below which a vector is treated as zero.
const Epsilon = 1e-12

// WorldUp is the Y-up axis used by every look-at computation.
var WorldUp = r3.Vec{X: 0, Y: 1, Z: 0}

// Normalize returns v scaled to unit length. Zero-length vectors are
// returned unchanged instead of producing NaNs.
func Normalize(v r3.Vec) r3.Vec {
	n := r3.Norm(v)
	if n <= Epsilon {
		return v
	}
	return r3.Scale(1/n, v)
}

// ClampLength shortens v to maxLen while keeping its direction.
func ClampLength(v r3.Vec, maxLen float64) r3.Vec {
	n := r3.Norm(v)
	if n <= Epsilon || n <= maxLen {
		return v
	}
	return r3.Scale(maxLen/n, v)
}

// Distance returns the euclidean distance between a and b.
func Distance(a, b r3.Vec) float64 {
	return r3.Norm(r3.Sub(b, a))
}

// VecFromSlice converts a [x, y, z] slice to a vector. ok is false when the
// slice does not hold exactly three finite values.
func VecFromSlice(s []float64) (v r3.Vec, ok bool) {
	if len(s) != 3 {
		return r3.Vec{}, false
	}
	for _, c := range s {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return r3.Vec{}, false
		}
	}
	return r3.Vec{X: s[0], Y: s[1], Z: s[2]}, true
}

// Lerp performs linear interpolation between a and b.
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// Clamp restricts x to [lo, hi].
func Clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}

// Clamp01 restricts x to [0, 1].
func Clamp01(x float64) float64 {
	return Clamp(x, 0, 1)
}
