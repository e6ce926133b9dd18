package bake

import (
	"math"
)

// Budget relaxation parameters for MaxKeysPerChannel.
const (
	relaxFactor  = 1.25
	relaxRetries = 16
)

// perpendicularDistance is the distance from p to the infinite line through
// a and b, or to a when a and b coincide.
func perpendicularDistance(p, a, b Key) float64 {
	dx := float64(b.T - a.T)
	dy := b.V - a.V
	px, py := float64(p.T), p.V
	if math.Abs(dx) < 1e-12 && math.Abs(dy) < 1e-12 {
		return math.Hypot(px-float64(a.T), py-a.V)
	}
	return math.Abs(dy*px-dx*py+float64(b.T)*a.V-b.V*float64(a.T)) / math.Hypot(dx, dy)
}

// douglasPeucker keeps the points needed to stay within epsilon of the
// input. First and last points are always kept and retained values are
// never altered.
func douglasPeucker(pts []Key, epsilon float64) []Key {
	if len(pts) <= 2 {
		return append([]Key(nil), pts...)
	}
	a, b := pts[0], pts[len(pts)-1]
	maxD, idx := -1.0, -1
	for i := 1; i < len(pts)-1; i++ {
		if d := perpendicularDistance(pts[i], a, b); d > maxD {
			maxD, idx = d, i
		}
	}
	if maxD <= epsilon || idx < 0 {
		return []Key{a, b}
	}
	left := douglasPeucker(pts[:idx+1], epsilon)
	right := douglasPeucker(pts[idx:], epsilon)
	return append(left[:len(left)-1], right...)
}

// reduce runs Douglas-Peucker at epsilon, then relaxes epsilon until the
// result fits maxKeys. If it still does not fit, an evenly spaced subset
// including both ends is kept. epsilon <= 0 disables reduction.
func reduce(pts []Key, epsilon float64, maxKeys int) []Key {
	if epsilon <= 0 || len(pts) <= 2 {
		return fitBudget(append([]Key(nil), pts...), maxKeys)
	}
	out := douglasPeucker(pts, epsilon)
	if maxKeys <= 0 {
		return out
	}
	eps := epsilon
	for i := 0; i < relaxRetries && len(out) > maxKeys; i++ {
		eps *= relaxFactor
		out = douglasPeucker(pts, eps)
	}
	return fitBudget(out, maxKeys)
}

func fitBudget(pts []Key, maxKeys int) []Key {
	if maxKeys <= 0 || len(pts) <= maxKeys {
		return pts
	}
	if maxKeys < 2 {
		maxKeys = 2
	}
	out := make([]Key, maxKeys)
	last := len(pts) - 1
	for i := range out {
		out[i] = pts[int(math.Round(float64(i*last)/float64(maxKeys-1)))]
	}
	return out
}
