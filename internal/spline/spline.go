// Package spline samples 3D Catmull-Rom and cubic Bezier paths.
package spline

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/ivlev/camrig/internal/math3d"
	"github.com/ivlev/camrig/internal/project"
)

// Kind selects the sampler of a path.
type Kind int

const (
	KindCatmullRom Kind = iota
	KindBezier
)

func (k Kind) String() string {
	switch k {
	case KindCatmullRom:
		return "catmull_rom"
	case KindBezier:
		return "bezier"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

var (
	ErrUnknownType = errors.New("unknown spline type")
	ErrDegenerate  = errors.New("degenerate spline")
	ErrMalformed   = errors.New("malformed spline point")
)

// Segment holds the four control points of one cubic Bezier piece.
type Segment [4]r3.Vec

// Path is a parsed spline ready for sampling.
type Path struct {
	Kind     Kind
	Points   []r3.Vec
	Closed   bool
	Segments []Segment
}

// At samples the path at u, clamped to [0,1].
func (p Path) At(u float64) r3.Vec {
	if p.Kind == KindBezier {
		if len(p.Segments) > 0 {
			return Bezier(p.Segments, u)
		}
		return BezierPoints(p.Points, u)
	}
	return CatmullRom(p.Points, u, p.Closed)
}

// ParseKind maps a spline object type name onto a Kind. An empty name is a
// Catmull-Rom spline.
func ParseKind(name string) (Kind, error) {
	switch strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "_", "") {
	case "", "catmullromspline", "catmullrom":
		return KindCatmullRom, nil
	case "bezierspline", "bezier":
		return KindBezier, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownType, name)
	}
}

// FromObject parses a project spline. Catmull-Rom paths need at least two
// points, Bezier paths need segments or at least four points.
func FromObject(obj project.SplineObject) (Path, error) {
	kind, err := ParseKind(obj.Type)
	if err != nil {
		return Path{}, err
	}
	path := Path{Kind: kind, Closed: obj.Closed}

	for i, raw := range obj.Points {
		v, ok := math3d.VecFromSlice(raw)
		if !ok {
			return Path{}, fmt.Errorf("%w: points[%d]", ErrMalformed, i)
		}
		path.Points = append(path.Points, v)
	}

	switch kind {
	case KindCatmullRom:
		if len(path.Points) < 2 {
			return Path{}, fmt.Errorf("%w: %d points", ErrDegenerate, len(path.Points))
		}
	case KindBezier:
		for i, seg := range obj.Segments {
			var s Segment
			for j, raw := range [4][]float64{seg.P0, seg.P1, seg.P2, seg.P3} {
				v, ok := math3d.VecFromSlice(raw)
				if !ok {
					return Path{}, fmt.Errorf("%w: segments[%d].p%d", ErrMalformed, i, j)
				}
				s[j] = v
			}
			path.Segments = append(path.Segments, s)
		}
		if len(path.Segments) == 0 && len(path.Points) < 4 {
			return Path{}, fmt.Errorf("%w: bezier needs segments or 4 points", ErrDegenerate)
		}
	}
	return path, nil
}

// Sample parses obj and samples it at u in one step.
func Sample(obj project.SplineObject, u float64) (r3.Vec, error) {
	path, err := FromObject(obj)
	if err != nil {
		return r3.Vec{}, err
	}
	return path.At(u), nil
}

// CatmullRom samples a uniform Catmull-Rom spline through points. Open
// splines have len-1 segments and clamp the stencil at the ends; closed
// splines wrap and have len segments. Fewer than two points yield the sole
// point or the origin.
func CatmullRom(points []r3.Vec, u float64, closed bool) r3.Vec {
	n := len(points)
	if n < 2 {
		if n == 1 {
			return points[0]
		}
		return r3.Vec{}
	}
	u = math3d.Clamp01(u)

	if closed {
		t := u * float64(n)
		fl := math.Floor(t)
		i := int(fl) % n
		at := func(idx int) r3.Vec { return points[((idx%n)+n)%n] }
		return catmullRom(at(i-1), at(i), at(i+1), at(i+2), t-fl)
	}

	segs := n - 1
	t := u * float64(segs)
	i := int(math.Floor(t))
	if i > segs-1 {
		i = segs - 1
	}
	local := t - float64(i)
	at := func(idx int) r3.Vec {
		if idx < 0 {
			idx = 0
		}
		if idx > n-1 {
			idx = n - 1
		}
		return points[idx]
	}
	return catmullRom(at(i-1), at(i), at(i+1), at(i+2), local)
}

func catmullRom(p0, p1, p2, p3 r3.Vec, u float64) r3.Vec {
	u2 := u * u
	u3 := u2 * u
	a := r3.Scale(2, p1)
	b := r3.Scale(u, r3.Sub(p2, p0))
	c := r3.Scale(u2, r3.Add(r3.Sub(r3.Scale(2, p0), r3.Scale(5, p1)), r3.Sub(r3.Scale(4, p2), p3)))
	d := r3.Scale(u3, r3.Add(r3.Sub(r3.Scale(3, p1), p0), r3.Sub(p3, r3.Scale(3, p2))))
	return r3.Scale(0.5, r3.Add(r3.Add(a, b), r3.Add(c, d)))
}

// Bezier samples a piecewise cubic Bezier. The segment is
// floor(u*len(segments)) clamped to the last one.
func Bezier(segments []Segment, u float64) r3.Vec {
	m := len(segments)
	if m == 0 {
		return r3.Vec{}
	}
	s := math3d.Clamp01(u) * float64(m)
	i := int(math.Floor(s))
	if i > m-1 {
		i = m - 1
	}
	seg := segments[i]
	return bezier3(seg[0], seg[1], seg[2], seg[3], s-float64(i))
}

// BezierPoints treats the first four points as a single cubic segment.
func BezierPoints(points []r3.Vec, u float64) r3.Vec {
	if len(points) < 4 {
		return r3.Vec{}
	}
	return bezier3(points[0], points[1], points[2], points[3], math3d.Clamp01(u))
}

func bezier3(p0, p1, p2, p3 r3.Vec, t float64) r3.Vec {
	mt := 1 - t
	b0 := mt * mt * mt
	b1 := 3 * mt * mt * t
	b2 := 3 * mt * t * t
	b3 := t * t * t
	return r3.Add(
		r3.Add(r3.Scale(b0, p0), r3.Scale(b1, p1)),
		r3.Add(r3.Scale(b2, p2), r3.Scale(b3, p3)),
	)
}
