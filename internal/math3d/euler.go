package math3d

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
)

// DefaultSensorWidthMM is the full-frame sensor width used for FOV export.
const DefaultSensorWidthMM = 36.0

func deg(r float64) float64 { return r * 180 / math.Pi }
func rad(d float64) float64 { return d * math.Pi / 180 }

// QuatToEulerXYZDeg returns the (x, y, z) Euler angles of q in degrees.
// X is treated as roll by the horizon lock and the baked roll channel.
func QuatToEulerXYZDeg(q quat.Number) (x, y, z float64) {
	w, qx, qy, qz := q.Real, q.Imag, q.Jmag, q.Kmag

	sinrCosp := 2 * (w*qx + qy*qz)
	cosrCosp := 1 - 2*(qx*qx+qy*qy)
	x = math.Atan2(sinrCosp, cosrCosp)

	sinp := 2 * (w*qy - qz*qx)
	if math.Abs(sinp) >= 1 {
		y = math.Copysign(math.Pi/2, sinp)
	} else {
		y = math.Asin(sinp)
	}

	sinyCosp := 2 * (w*qz + qx*qy)
	cosyCosp := 1 - 2*(qy*qy+qz*qz)
	z = math.Atan2(sinyCosp, cosyCosp)

	return deg(x), deg(y), deg(z)
}

// EulerXYZDegToQuat composes qx * qy * qz from angles in degrees.
func EulerXYZDegToQuat(xDeg, yDeg, zDeg float64) quat.Number {
	hx, hy, hz := rad(xDeg)/2, rad(yDeg)/2, rad(zDeg)/2
	qx := quat.Number{Real: math.Cos(hx), Imag: math.Sin(hx)}
	qy := quat.Number{Real: math.Cos(hy), Jmag: math.Sin(hy)}
	qz := quat.Number{Real: math.Cos(hz), Kmag: math.Sin(hz)}
	return quat.Mul(quat.Mul(qx, qy), qz)
}

// LockRoll zeroes the X (roll) Euler component of q and keeps pitch and yaw.
func LockRoll(q quat.Number) quat.Number {
	_, y, z := QuatToEulerXYZDeg(q)
	return EulerXYZDegToQuat(0, y, z)
}

// AddRoll rotates q about its local X axis by deltaDeg. The X angle read
// by QuatToEulerXYZDeg grows by deltaDeg; Y and Z are kept.
func AddRoll(q quat.Number, deltaDeg float64) quat.Number {
	h := rad(deltaDeg) / 2
	return quat.Mul(q, quat.Number{Real: math.Cos(h), Imag: math.Sin(h)})
}

// FocalToFOVDeg converts a focal length to a horizontal field of view for
// the given sensor width. Non-positive sensor widths use DefaultSensorWidthMM.
func FocalToFOVDeg(focalMM, sensorWidthMM float64) float64 {
	if sensorWidthMM <= 0 {
		sensorWidthMM = DefaultSensorWidthMM
	}
	f := math.Max(1e-6, focalMM)
	return deg(2 * math.Atan(sensorWidthMM/(2*f)))
}
