// Package bake turns an evaluated camera range into explicit, optionally
// reduced, linear keyframes.
package bake

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/ivlev/camrig/internal/curve"
	"github.com/ivlev/camrig/internal/project"
	"github.com/ivlev/camrig/internal/rig"
	"github.com/ivlev/camrig/internal/shots"
)

// ErrInvalidRange is returned when End is before Start.
var ErrInvalidRange = rig.ErrInvalidRange

// Channel groups of the baked output.
const (
	GroupTransform = "camera.transform"
	GroupLens      = "camera.lens"
)

// Key is one baked keyframe.
type Key struct {
	T      int          `yaml:"t" json:"t"`
	V      float64      `yaml:"v" json:"v"`
	Interp curve.Interp `yaml:"interp" json:"interp"`
}

// Baked maps a channel group to its channels.
type Baked map[string]map[string][]Key

// Tolerances scale MaxError per channel family. Zero scales read as 1.
type Tolerances struct {
	Position float64
	Rotation float64
	Lens     float64
}

func scale(s float64) float64 {
	if s <= 0 {
		return 1
	}
	return s
}

// Options describe one bake call.
type Options struct {
	Start int
	End   int

	// Constraints, when set, apply to the whole range. Otherwise every
	// segment of constant shot constraints is filtered on its own.
	Constraints *project.CameraConstraints

	ReduceKeys        bool
	MaxError          float64
	Tolerances        Tolerances
	MaxKeysPerChannel int

	// Workers bounds concurrent channel reduction; <= 0 means no limit.
	Workers int
}

// Baker bakes the camera of one rig.
type Baker struct {
	rig *rig.Rig
	log logrus.FieldLogger
}

// Option configures a Baker.
type Option func(*Baker)

// WithLogger sets the baker logger. By default the rig's logger is used.
func WithLogger(l logrus.FieldLogger) Option {
	return func(b *Baker) {
		if l != nil {
			b.log = l
		}
	}
}

// New creates a baker for r.
func New(r *rig.Rig, opts ...Option) *Baker {
	b := &Baker{rig: r, log: r.Logger()}
	if b.log == nil {
		silent := logrus.New()
		silent.SetOutput(io.Discard)
		b.log = silent
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

type channelJob struct {
	group, name string
	family      float64
	values      []float64
}

// Bake samples every frame of [Start, End], applies the camera
// constraints and builds linear keys per channel, reducing them when
// ReduceKeys is set.
func (b *Baker) Bake(opts Options) (Baked, error) {
	if opts.End < opts.Start {
		return nil, fmt.Errorf("%w: end %d before start %d", ErrInvalidRange, opts.End, opts.Start)
	}
	started := time.Now()

	states, err := b.rig.EvaluateRange(opts.Start, opts.End)
	if err != nil {
		return nil, err
	}

	n := len(states)
	s := newSeries(states)

	if opts.Constraints != nil {
		applyConstraints(s, opts.Constraints)
	} else {
		tl := &b.rig.Project().Timeline
		for _, seg := range shots.Segmentize(tl, opts.Start, opts.End) {
			applyConstraints(s.slice(seg.Start-opts.Start, seg.End-opts.Start+1), seg.Constraints)
			b.log.WithFields(logrus.Fields{
				"start":       seg.Start,
				"end":         seg.End,
				"constrained": seg.Constraints != nil && seg.Constraints.IsEnabled(),
			}).Debug("segment filtered")
		}
	}

	tol := opts.Tolerances
	jobs := []channelJob{
		{GroupTransform, "position.x", tol.Position, component(s.pos, 0)},
		{GroupTransform, "position.y", tol.Position, component(s.pos, 1)},
		{GroupTransform, "position.z", tol.Position, component(s.pos, 2)},
		{GroupTransform, "target.x", tol.Position, component(s.target, 0)},
		{GroupTransform, "target.y", tol.Position, component(s.target, 1)},
		{GroupTransform, "target.z", tol.Position, component(s.target, 2)},
		{GroupTransform, "roll_deg", tol.Rotation, s.roll},
		{GroupLens, "focal_length_mm", tol.Lens, s.focal},
		{GroupLens, "focus_distance_m", tol.Lens, s.focus},
		{GroupLens, "aperture_f", tol.Lens, s.aperture},
	}

	results := make([][]Key, len(jobs))
	var g errgroup.Group
	if opts.Workers > 0 {
		g.SetLimit(opts.Workers)
	}
	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			keys, err := buildKeys(job, opts)
			if err != nil {
				return fmt.Errorf("%s/%s: %w", job.group, job.name, err)
			}
			results[i] = keys
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := Baked{GroupTransform: {}, GroupLens: {}}
	total := 0
	for i, job := range jobs {
		out[job.group][job.name] = results[i]
		total += len(results[i])
	}

	b.log.WithFields(logrus.Fields{
		"frames":   n,
		"keys":     total,
		"reduced":  opts.ReduceKeys,
		"duration": time.Since(started),
	}).Debug("bake finished")
	return out, nil
}

func buildKeys(job channelJob, opts Options) ([]Key, error) {
	pts := make([]Key, len(job.values))
	for i, v := range job.values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("non-finite value at frame %d", opts.Start+i)
		}
		pts[i] = Key{T: opts.Start + i, V: v, Interp: curve.Linear}
	}
	if !opts.ReduceKeys {
		return pts, nil
	}
	return reduce(pts, opts.MaxError*scale(job.family), opts.MaxKeysPerChannel), nil
}

func component(vs []r3.Vec, axis int) []float64 {
	out := make([]float64, len(vs))
	for i, v := range vs {
		switch axis {
		case 0:
			out[i] = v.X
		case 1:
			out[i] = v.Y
		default:
			out[i] = v.Z
		}
	}
	return out
}
