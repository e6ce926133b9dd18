// Package constraint resolves the per-frame constraint stack of a camera
// track: rail and orbit move the position, lookAtObject moves the target.
// Resolution failures leave the current value untouched.
package constraint

import (
	"errors"
	"io"
	"math"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/ivlev/camrig/internal/math3d"
	"github.com/ivlev/camrig/internal/project"
	"github.com/ivlev/camrig/internal/spline"
	"github.com/ivlev/camrig/internal/timeline"
)

// Channel names read by the constraints.
const (
	ChannelRailU        = "rail.u"
	ChannelOrbitRadius  = "orbit.radius"
	ChannelOrbitAzimuth = "orbit.azimuth_deg"
	ChannelOrbitElev    = "orbit.elevation_deg"
)

// MinOrbitRadius keeps orbits from collapsing onto the target.
const MinOrbitRadius = 1e-6

type pathResult struct {
	path spline.Path
	err  error
}

// Scene gives constraints read access to named objects. Parsed splines are
// cached for the lifetime of the Scene, so a Scene must not outlive one
// evaluation call.
type Scene struct {
	objects project.Objects
	paths   map[string]pathResult
	log     logrus.FieldLogger
}

// NewScene wraps the project objects. A nil logger discards output.
func NewScene(objects project.Objects, log logrus.FieldLogger) *Scene {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Scene{objects: objects, paths: make(map[string]pathResult), log: log}
}

// Path returns the parsed spline with the given id.
func (s *Scene) Path(id string) (spline.Path, error) {
	if r, ok := s.paths[id]; ok {
		return r.path, r.err
	}
	var r pathResult
	obj, ok := s.objects.Splines[id]
	if !ok {
		r.err = errMissing
	} else {
		r.path, r.err = spline.FromObject(obj)
	}
	s.paths[id] = r
	return r.path, r.err
}

// Null returns the position of the named null object.
func (s *Scene) Null(id string) (r3.Vec, bool) {
	return LookupNull(s.objects, id)
}

var errMissing = errors.New("spline not found")

// LookupNull returns the position of a null object. ok is false when the id
// is unknown or the position is not a finite 3-vector.
func LookupNull(objects project.Objects, id string) (r3.Vec, bool) {
	n, ok := objects.Nulls[id]
	if !ok {
		return r3.Vec{}, false
	}
	return math3d.VecFromSlice(n.Position)
}

// RailPosition samples the referenced spline at u (clamped to [0,1]) and
// adds the optional offset. ok is false when the spline is missing or
// degenerate.
func RailPosition(scene *Scene, p project.RailParams, u float64) (r3.Vec, bool) {
	if p.SplineID == "" {
		return r3.Vec{}, false
	}
	path, err := scene.Path(p.SplineID)
	if err != nil {
		scene.log.WithFields(logrus.Fields{
			"constraint": "rail",
			"spline_id":  p.SplineID,
		}).WithError(err).Debug("rail skipped")
		return r3.Vec{}, false
	}
	pos := path.At(math3d.Clamp01(u))
	if off, ok := math3d.VecFromSlice(p.Offset); ok {
		pos = r3.Add(pos, off)
	}
	return pos, true
}

// OrbitPosition places a point on a Y-up sphere around center. Radius is
// floored at MinOrbitRadius.
func OrbitPosition(center r3.Vec, radius, azimuthDeg, elevationDeg float64, offset r3.Vec) r3.Vec {
	r := math.Max(MinOrbitRadius, radius)
	az := azimuthDeg * math.Pi / 180
	el := elevationDeg * math.Pi / 180
	local := r3.Vec{
		X: r * math.Cos(el) * math.Sin(az),
		Y: r * math.Sin(el),
		Z: r * math.Cos(el) * math.Cos(az),
	}
	return r3.Add(r3.Add(center, local), offset)
}

// Apply runs the enabled constraints in stack order. The stack must already
// be sorted by Order. Each constraint sees the position and target produced
// by the one before it.
func Apply(stack []project.Constraint, scene *Scene, vals timeline.Values, pos, target r3.Vec) (r3.Vec, r3.Vec) {
	for _, c := range stack {
		if !c.Enabled {
			continue
		}
		switch p := c.Params.(type) {
		case project.RailParams:
			name := p.UChannel
			if name == "" {
				name = ChannelRailU
			}
			if np, ok := RailPosition(scene, p, vals.Get(name, 0)); ok {
				pos = np
			}
		case project.OrbitParams:
			pos = OrbitPosition(
				target,
				vals.Get(ChannelOrbitRadius, p.Radius),
				vals.Get(ChannelOrbitAzimuth, p.AzimuthDeg),
				vals.Get(ChannelOrbitElev, p.ElevationDeg),
				offsetOrZero(p.Offset),
			)
		case project.LookAtParams:
			if nt, ok := scene.Null(p.NullID); ok {
				target = nt
			} else {
				scene.log.WithFields(logrus.Fields{
					"constraint": "lookAtObject",
					"null_id":    p.NullID,
				}).Debug("look-at skipped")
			}
		}
	}
	return pos, target
}

func offsetOrZero(s []float64) r3.Vec {
	v, _ := math3d.VecFromSlice(s)
	return v
}
