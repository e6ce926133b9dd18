package curve

// DefaultHandleDT is the time offset of a handle that was left unspecified.
const DefaultHandleDT = 0.33

// bisectIterations bounds the time-axis solve; 24 halvings resolve s to
// roughly 6e-8, well below one frame on any practical segment.
const bisectIterations = 24

func bezierCubic(u, p0, p1, p2, p3 float64) float64 {
	v := 1 - u
	return v*v*v*p0 + 3*v*v*u*p1 + 3*v*u*u*p2 + u*u*u*p3
}

// handles returns the out handle of k0 and the in handle of k1, filling in
// the defaults when a key carries no explicit tangent.
func handles(k0, k1 Keyframe) (out, in Handle) {
	delta := k1.V - k0.V
	if k0.OutTan == nil {
		out = Handle{DefaultHandleDT, delta * DefaultHandleDT}
	} else {
		out = *k0.OutTan
	}
	if k1.InTan == nil {
		in = Handle{-DefaultHandleDT, delta * -DefaultHandleDT}
	} else {
		in = *k1.InTan
	}
	return out, in
}

// solveBezierTime finds s in [0,1] with x(s) = u, where x is the cubic
// bezier through 0, x1, x2, 1.
func solveBezierTime(u, x1, x2 float64) float64 {
	u = clamp01(u)
	x1 = clamp01(x1)
	x2 = clamp01(x2)
	lo, hi := 0.0, 1.0
	for i := 0; i < bisectIterations; i++ {
		mid := (lo + hi) * 0.5
		if bezierCubic(mid, 0, x1, x2, 1) < u {
			lo = mid
		} else {
			hi = mid
		}
	}
	return (lo + hi) * 0.5
}

// evalBezier is the time-warped bezier: handle dt values shape the time
// axis, handle dv values shape the value axis.
func evalBezier(k0, k1 Keyframe, u float64) float64 {
	out, in := handles(k0, k1)
	s := solveBezierTime(u, out.DT(), 1+in.DT())
	y0, y3 := k0.V, k1.V
	y1 := y0 + out.DV()
	y2 := y3 + in.DV()
	return bezierCubic(s, y0, y1, y2, y3)
}
