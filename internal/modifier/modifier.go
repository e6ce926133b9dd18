// Package modifier applies range-level camera modifiers. Every modifier
// works on a whole evaluated range because it needs temporal context; all
// running state lives in locals of one call.
package modifier

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/ivlev/camrig/internal/math3d"
	"github.com/ivlev/camrig/internal/project"
)

// NoiseLowPass is the smoothing factor of the shake filter.
const NoiseLowPass = 0.25

// Frames is the per-frame camera data modifiers operate on.
type Frames struct {
	Positions []r3.Vec
	Targets   []r3.Vec
	Focals    []float64
	// LockRoll is set by horizonLock; rotations built from these frames
	// must have their roll zeroed.
	LockRoll bool
}

func (f Frames) clone() Frames {
	return Frames{
		Positions: append([]r3.Vec(nil), f.Positions...),
		Targets:   append([]r3.Vec(nil), f.Targets...),
		Focals:    append([]float64(nil), f.Focals...),
		LockRoll:  f.LockRoll,
	}
}

// Apply runs the enabled modifiers in stack order over a copy of f. The
// stack must already be sorted by Order.
func Apply(stack []project.Modifier, f Frames, fps int) Frames {
	out := f.clone()
	for _, m := range stack {
		if !m.Enabled {
			continue
		}
		switch p := m.Params.(type) {
		case project.AimSpringParams:
			if fps > 0 {
				out.Targets = AimSpring(out.Targets, 1/float64(fps), p)
			}
		case project.NoiseShakeParams:
			out.Positions, out.Targets = NoiseShake(out.Positions, out.Targets, p, fps)
		case project.HorizonLockParams:
			out.LockRoll = true
		case project.DollyZoomParams:
			out.Focals = DollyZoom(out.Positions, out.Targets, p)
		}
	}
	return out
}

// MaxSpringSubsteps bounds the integration work of AimSpring per frame.
const MaxSpringSubsteps = 256

// AimSpring smooths a target trajectory with a damped spring
//
//	x'' + 2·damping·stiffness·x' + stiffness²·(x - target) = 0
//
// integrated with semi-implicit Euler. Each frame of length dt is split into
// substeps h with h·(2·damping·stiffness + stiffness) <= 1, at most
// MaxSpringSubsteps; stiffer springs switch to an update implicit in the
// velocity, which is stable for any step. The spring starts
// at the first target at rest. dt <= 0 returns the targets unchanged.
func AimSpring(targets []r3.Vec, dt float64, p project.AimSpringParams) []r3.Vec {
	if len(targets) == 0 || dt <= 0 {
		return targets
	}
	w, z := p.Stiffness, p.Damping
	c := 2 * z * w
	k := w * w

	steps := 1
	if n := math.Ceil(dt * math.Abs(c+w)); n > 1 {
		steps = int(math.Min(n, MaxSpringSubsteps))
	}
	stable := float64(steps) >= math.Ceil(dt*math.Abs(c+w))
	h := dt / float64(steps)

	x := targets[0]
	var v r3.Vec
	out := make([]r3.Vec, len(targets))
	for i, tgt := range targets {
		for s := 0; s < steps; s++ {
			if stable {
				a := r3.Add(r3.Scale(-c, v), r3.Scale(-k, r3.Sub(x, tgt)))
				v = r3.Add(v, r3.Scale(h, a))
			} else {
				// Implicit in velocity: stable for any h.
				v = r3.Scale(1/(1+h*c+h*h*k), r3.Sub(v, r3.Scale(h*k, r3.Sub(x, tgt))))
			}
			x = r3.Add(x, r3.Scale(h, v))
		}
		out[i] = x
	}
	return out
}

// NoiseShake adds seeded jitter to positions and targets. Each frame draws
// six values (position xyz, then target xyz) from a stream seeded with
// p.Seed, low-passes them per axis and scales them by a sine envelope at
// p.FreqHz. Identical inputs always give identical output.
func NoiseShake(positions, targets []r3.Vec, p project.NoiseShakeParams, fps int) ([]r3.Vec, []r3.Vec) {
	if len(positions) == 0 {
		return positions, targets
	}
	n := len(positions)
	if len(targets) < n {
		n = len(targets)
	}

	rnd := rand.New(rand.NewSource(p.Seed))
	jitter := func(amp float64) r3.Vec {
		return r3.Vec{
			X: (rnd.Float64()*2 - 1) * amp,
			Y: (rnd.Float64()*2 - 1) * amp,
			Z: (rnd.Float64()*2 - 1) * amp,
		}
	}

	outPos := make([]r3.Vec, n)
	outTgt := make([]r3.Vec, n)
	dphase := 2 * math.Pi * p.FreqHz / float64(max(1, fps))
	var phase float64
	var lp, lt r3.Vec
	for i := 0; i < n; i++ {
		phase += dphase
		blend := 0.5 + 0.5*math.Sin(phase)

		jp := jitter(p.AmpPos)
		jt := jitter(p.AmpTgt)
		lp = r3.Add(r3.Scale(1-NoiseLowPass, lp), r3.Scale(NoiseLowPass, jp))
		lt = r3.Add(r3.Scale(1-NoiseLowPass, lt), r3.Scale(NoiseLowPass, jt))

		outPos[i] = r3.Add(positions[i], r3.Scale(blend, lp))
		outTgt[i] = r3.Add(targets[i], r3.Scale(blend, lt))
	}
	return outPos, outTgt
}

// DollyZoomFocal scales the reference focal length with distance so the
// subject keeps its apparent size. A reference distance at or below 1e-6
// returns the reference focal.
func DollyZoomFocal(refFocalMM, refDistanceM, distanceM, minFocalMM, maxFocalMM float64) float64 {
	if refDistanceM <= 1e-6 {
		return refFocalMM
	}
	return math3d.Clamp(refFocalMM*(distanceM/refDistanceM), minFocalMM, maxFocalMM)
}

// DollyZoom returns one focal length per frame. Without an explicit
// reference distance the first frame's camera-target distance is used.
func DollyZoom(positions, targets []r3.Vec, p project.DollyZoomParams) []float64 {
	n := len(positions)
	if len(targets) < n {
		n = len(targets)
	}
	if n == 0 {
		return nil
	}
	ref := p.ReferenceDistanceM
	if ref <= 0 {
		ref = math3d.Distance(positions[0], targets[0])
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = DollyZoomFocal(p.ReferenceFocalMM, ref, math3d.Distance(positions[i], targets[i]), p.MinFocalMM, p.MaxFocalMM)
	}
	return out
}

// Rotations builds the look-at rotation of every frame, zeroing roll when
// LockRoll is set.
func (f Frames) Rotations() []quat.Number {
	n := len(f.Positions)
	if len(f.Targets) < n {
		n = len(f.Targets)
	}
	out := make([]quat.Number, n)
	for i := 0; i < n; i++ {
		q := math3d.LookAtRotation(f.Positions[i], f.Targets[i], math3d.WorldUp)
		if f.LockRoll {
			q = math3d.LockRoll(q)
		}
		out[i] = q
	}
	return out
}
