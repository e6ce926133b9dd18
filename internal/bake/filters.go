package bake

import (
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/ivlev/camrig/internal/math3d"
	"github.com/ivlev/camrig/internal/project"
	"github.com/ivlev/camrig/internal/rig"
)

// series is the per-frame camera data the filters and reducer work on.
type series struct {
	pos      []r3.Vec
	target   []r3.Vec
	roll     []float64
	focal    []float64
	focus    []float64
	aperture []float64
}

func newSeries(states []rig.CameraState) series {
	n := len(states)
	s := series{
		pos:      make([]r3.Vec, n),
		target:   make([]r3.Vec, n),
		roll:     make([]float64, n),
		focal:    make([]float64, n),
		focus:    make([]float64, n),
		aperture: make([]float64, n),
	}
	for i, st := range states {
		s.pos[i] = st.Position
		s.target[i] = st.Target
		s.roll[i], _, _ = st.EulerDeg()
		s.focal[i] = st.FocalLengthMM
		s.focus[i] = st.FocusDistanceM
		s.aperture[i] = st.ApertureF
	}
	return s
}

// FilterStates returns a copy of states smoothed and rate limited by c.
// Rotations follow the filtered position and target, plus the roll change
// made by the filter. Consecutive states are treated as consecutive samples.
func FilterStates(states []rig.CameraState, c *project.CameraConstraints) []rig.CameraState {
	out := make([]rig.CameraState, len(states))
	copy(out, states)
	if c == nil || !c.IsEnabled() || len(states) <= 1 {
		return out
	}

	s := newSeries(states)
	rolls := append([]float64(nil), s.roll...)
	applyConstraints(s, c)
	for i, st := range states {
		// Offset of the stored rotation from the plain look-at, carried
		// over to the filtered look-at.
		before := math3d.LookAtRotation(st.Position, st.Target, math3d.WorldUp)
		after := math3d.LookAtRotation(s.pos[i], s.target[i], math3d.WorldUp)
		rot := quat.Mul(after, quat.Mul(quat.Conj(before), st.Rotation))

		out[i].Position = s.pos[i]
		out[i].Target = s.target[i]
		out[i].Rotation = math3d.AddRoll(rot, s.roll[i]-rolls[i])
		out[i].FocalLengthMM = s.focal[i]
	}
	return out
}

func (s series) slice(i, j int) series {
	return series{
		pos:      s.pos[i:j],
		target:   s.target[i:j],
		roll:     s.roll[i:j],
		focal:    s.focal[i:j],
		focus:    s.focus[i:j],
		aperture: s.aperture[i:j],
	}
}

// applyConstraints smooths and rate limits s in place. Focus and aperture
// pass through untouched.
func applyConstraints(s series, c *project.CameraConstraints) {
	if c == nil || !c.IsEnabled() || len(s.pos) <= 1 {
		return
	}

	if w := c.GetSmoothingWindow(); w > 1 {
		copy(s.pos, movingAverageVec(s.pos, w))
		copy(s.target, movingAverageVec(s.target, w))
		copy(s.roll, movingAverage(s.roll, w))
		copy(s.focal, movingAverage(s.focal, w))
	}

	copy(s.pos, limitSpeedAccelVec(s.pos, c.GetMaxSpeedPos(), c.GetMaxAccelPos()))
	copy(s.target, limitSpeedAccelVec(s.target, c.GetMaxSpeedTarget(), c.GetMaxAccelTarget()))
	copy(s.roll, limitSpeed(s.roll, c.GetMaxSpeedRollDeg()))
	copy(s.focal, limitSpeed(s.focal, c.GetMaxSpeedFocalMM()))
}

// movingAverage is a trailing mean over at most window samples, kept as a
// running sum over a bounded queue.
func movingAverage(xs []float64, window int) []float64 {
	out := make([]float64, len(xs))
	if window <= 1 {
		copy(out, xs)
		return out
	}
	var sum float64
	for i, x := range xs {
		sum += x
		n := i + 1
		if n > window {
			sum -= xs[i-window]
			n = window
		}
		out[i] = sum / float64(n)
	}
	return out
}

func movingAverageVec(vs []r3.Vec, window int) []r3.Vec {
	xs := make([]float64, len(vs))
	ys := make([]float64, len(vs))
	zs := make([]float64, len(vs))
	for i, v := range vs {
		xs[i], ys[i], zs[i] = v.X, v.Y, v.Z
	}
	xs = movingAverage(xs, window)
	ys = movingAverage(ys, window)
	zs = movingAverage(zs, window)
	out := make([]r3.Vec, len(vs))
	for i := range out {
		out[i] = r3.Vec{X: xs[i], Y: ys[i], Z: zs[i]}
	}
	return out
}

// limitSpeedAccelVec clamps the per-frame step to maxSpeed and the change of
// step to maxAccel, both by length. A limit <= 0 is off. The filter is
// causal: each output depends only on the previous output.
func limitSpeedAccelVec(vs []r3.Vec, maxSpeed, maxAccel float64) []r3.Vec {
	out := make([]r3.Vec, len(vs))
	copy(out, vs)
	if (maxSpeed <= 0 && maxAccel <= 0) || len(vs) <= 1 {
		return out
	}
	var prevV r3.Vec
	for i := 1; i < len(vs); i++ {
		prev := out[i-1]
		v := r3.Sub(vs[i], prev)
		if maxSpeed > 0 {
			v = math3d.ClampLength(v, maxSpeed)
		}
		if maxAccel > 0 {
			da := math3d.ClampLength(r3.Sub(v, prevV), maxAccel)
			v = r3.Add(prevV, da)
		}
		out[i] = r3.Add(prev, v)
		prevV = v
	}
	return out
}

// limitSpeed clamps the per-frame change of a scalar to maxSpeed.
func limitSpeed(xs []float64, maxSpeed float64) []float64 {
	out := make([]float64, len(xs))
	copy(out, xs)
	if maxSpeed <= 0 || len(xs) <= 1 {
		return out
	}
	for i := 1; i < len(xs); i++ {
		d := math3d.Clamp(xs[i]-out[i-1], -maxSpeed, maxSpeed)
		out[i] = out[i-1] + d
	}
	return out
}
