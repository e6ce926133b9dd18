package spline

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/ivlev/camrig/internal/project"
)

func assertVec(t *testing.T, want, got r3.Vec) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, 1e-9, "x")
	assert.InDelta(t, want.Y, got.Y, 1e-9, "y")
	assert.InDelta(t, want.Z, got.Z, 1e-9, "z")
}

func TestCatmullRomOpenEndpoints(t *testing.T) {
	pts := []r3.Vec{{X: 0}, {X: 1, Y: 1}, {X: 2}, {X: 3, Z: 2}}

	assertVec(t, pts[0], CatmullRom(pts, 0, false))
	assertVec(t, pts[3], CatmullRom(pts, 1, false))
	// u=1/3 lands on the second control point of the three segments.
	assertVec(t, pts[1], CatmullRom(pts, 1.0/3.0, false))
	// Out of range parameters clamp.
	assertVec(t, pts[0], CatmullRom(pts, -2, false))
	assertVec(t, pts[3], CatmullRom(pts, 5, false))
}

func TestCatmullRomCollinearIsLinear(t *testing.T) {
	pts := []r3.Vec{{X: 0}, {X: 1}, {X: 2}, {X: 3}}
	assertVec(t, r3.Vec{X: 1.5}, CatmullRom(pts, 0.5, false))
}

func TestCatmullRomClosedWraps(t *testing.T) {
	pts := []r3.Vec{{X: 1}, {Z: 1}, {X: -1}, {Z: -1}}

	assertVec(t, pts[0], CatmullRom(pts, 0, true))
	assertVec(t, pts[2], CatmullRom(pts, 0.5, true))
	assertVec(t, pts[0], CatmullRom(pts, 1, true))
}

func TestCatmullRomDegenerate(t *testing.T) {
	assert.Equal(t, r3.Vec{}, CatmullRom(nil, 0.5, false))
	only := r3.Vec{X: 4, Y: 5, Z: 6}
	assert.Equal(t, only, CatmullRom([]r3.Vec{only}, 0.5, true))
}

func TestBezier(t *testing.T) {
	seg := Segment{{X: 0}, {X: 0, Y: 1}, {X: 1, Y: 1}, {X: 1}}

	assertVec(t, seg[0], Bezier([]Segment{seg}, 0))
	assertVec(t, seg[3], Bezier([]Segment{seg}, 1))
	assertVec(t, r3.Vec{X: 0.5, Y: 0.75}, Bezier([]Segment{seg}, 0.5))

	second := Segment{{X: 1}, {X: 2}, {X: 3}, {X: 4}}
	assertVec(t, r3.Vec{X: 1}, Bezier([]Segment{seg, second}, 0.5))
	assertVec(t, r3.Vec{X: 4}, Bezier([]Segment{seg, second}, 1))

	assertVec(t, r3.Vec{X: 0.5, Y: 0.75}, BezierPoints(seg[:], 0.5))
	assert.Equal(t, r3.Vec{}, BezierPoints(seg[:3], 0.5))
}

func TestFromObject(t *testing.T) {
	tests := []struct {
		name    string
		obj     project.SplineObject
		wantErr error
		kind    Kind
	}{
		{"default type", project.SplineObject{Points: [][]float64{{0, 0, 0}, {1, 0, 0}}}, nil, KindCatmullRom},
		{"catmull rom", project.SplineObject{Type: "CatmullRomSpline", Points: [][]float64{{0, 0, 0}, {1, 0, 0}}}, nil, KindCatmullRom},
		{"bezier points", project.SplineObject{Type: "BezierSpline", Points: [][]float64{{0, 0, 0}, {1, 0, 0}, {2, 0, 0}, {3, 0, 0}}}, nil, KindBezier},
		{"bezier segments", project.SplineObject{Type: "bezier", Segments: []project.BezierSegment{{
			P0: []float64{0, 0, 0}, P1: []float64{1, 0, 0}, P2: []float64{2, 0, 0}, P3: []float64{3, 0, 0},
		}}}, nil, KindBezier},
		{"one point", project.SplineObject{Points: [][]float64{{0, 0, 0}}}, ErrDegenerate, 0},
		{"short bezier", project.SplineObject{Type: "BezierSpline", Points: [][]float64{{0, 0, 0}, {1, 0, 0}}}, ErrDegenerate, 0},
		{"malformed point", project.SplineObject{Points: [][]float64{{0, 0}, {1, 0, 0}}}, ErrMalformed, 0},
		{"unknown type", project.SplineObject{Type: "NURBS"}, ErrUnknownType, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, err := FromObject(tt.obj)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.kind, path.Kind)
		})
	}
}

func TestSample(t *testing.T) {
	v, err := Sample(project.SplineObject{
		Type:   "BezierSpline",
		Points: [][]float64{{0, 0, 0}, {1, 0, 0}, {2, 0, 0}, {3, 0, 0}},
	}, 0.5)
	require.NoError(t, err)
	assertVec(t, r3.Vec{X: 1.5}, v)
}
