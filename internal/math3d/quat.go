package math3d

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Identity is the rotation that leaves every vector unchanged.
var Identity = quat.Number{Real: 1}

// QuatFromMatrix converts a 3x3 rotation matrix (row-major, m[row][col])
// into a quaternion. The branch on the trace keeps the square root argument
// well away from zero.
func QuatFromMatrix(m [3][3]float64) quat.Number {
	t := m[0][0] + m[1][1] + m[2][2]
	switch {
	case t > 0:
		s := math.Sqrt(t+1) * 2
		return quat.Number{
			Real: 0.25 * s,
			Imag: (m[2][1] - m[1][2]) / s,
			Jmag: (m[0][2] - m[2][0]) / s,
			Kmag: (m[1][0] - m[0][1]) / s,
		}
	case m[0][0] > m[1][1] && m[0][0] > m[2][2]:
		s := math.Sqrt(1+m[0][0]-m[1][1]-m[2][2]) * 2
		return quat.Number{
			Real: (m[2][1] - m[1][2]) / s,
			Imag: 0.25 * s,
			Jmag: (m[0][1] + m[1][0]) / s,
			Kmag: (m[0][2] + m[2][0]) / s,
		}
	case m[1][1] > m[2][2]:
		s := math.Sqrt(1+m[1][1]-m[0][0]-m[2][2]) * 2
		return quat.Number{
			Real: (m[0][2] - m[2][0]) / s,
			Imag: (m[0][1] + m[1][0]) / s,
			Jmag: 0.25 * s,
			Kmag: (m[1][2] + m[2][1]) / s,
		}
	default:
		s := math.Sqrt(1+m[2][2]-m[0][0]-m[1][1]) * 2
		return quat.Number{
			Real: (m[1][0] - m[0][1]) / s,
			Imag: (m[0][2] + m[2][0]) / s,
			Jmag: (m[1][2] + m[2][1]) / s,
			Kmag: 0.25 * s,
		}
	}
}

// LookAtRotation builds the rotation whose basis columns are right, up and
// forward for a camera at eye looking at target. A zero up vector selects
// WorldUp. When eye and target coincide, or the view is parallel to up, the
// basis is undefined and Identity is returned.
func LookAtRotation(eye, target, up r3.Vec) quat.Number {
	if r3.Norm(up) <= Epsilon {
		up = WorldUp
	}
	forward := Normalize(r3.Sub(target, eye))
	side := r3.Cross(up, forward)
	if r3.Norm(side) <= Epsilon {
		return Identity
	}
	right := Normalize(side)
	trueUp := Normalize(r3.Cross(forward, right))

	m := [3][3]float64{
		{right.X, trueUp.X, forward.X},
		{right.Y, trueUp.Y, forward.Y},
		{right.Z, trueUp.Z, forward.Z},
	}
	return QuatFromMatrix(m)
}
