// Package rig evaluates the camera of a project at one frame or across a
// frame range.
package rig

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/ivlev/camrig/internal/constraint"
	"github.com/ivlev/camrig/internal/math3d"
	"github.com/ivlev/camrig/internal/modifier"
	"github.com/ivlev/camrig/internal/project"
	"github.com/ivlev/camrig/internal/timeline"
)

// CameraTrackID is the conventional id of the track driving the camera.
const CameraTrackID = "camera.transform"

// Channel names and defaults read by the rig.
const (
	ChannelFocal    = "focal_length_mm"
	ChannelFocus    = "focus_distance_m"
	ChannelAperture = "aperture_f"

	DefaultFocalMM   = 35.0
	DefaultFocusM    = 2.8
	DefaultApertureF = 2.8
)

var (
	DefaultPosition = r3.Vec{X: 0, Y: 1.5, Z: -6}
	DefaultTarget   = r3.Vec{X: 0, Y: 1.5, Z: 0}
)

// ErrInvalidRange is returned by range calls with end before start.
var ErrInvalidRange = errors.New("invalid frame range")

// CameraState is the evaluated camera at one frame.
type CameraState struct {
	Frame          int
	Position       r3.Vec
	Rotation       quat.Number
	Target         r3.Vec
	FocalLengthMM  float64
	FocusDistanceM float64
	ApertureF      float64
}

// FOVDeg returns the horizontal field of view for a full-frame sensor.
func (s CameraState) FOVDeg() float64 {
	return math3d.FocalToFOVDeg(s.FocalLengthMM, math3d.DefaultSensorWidthMM)
}

// EulerDeg returns the XYZ Euler angles of the rotation; x is the roll.
func (s CameraState) EulerDeg() (x, y, z float64) {
	return math3d.QuatToEulerXYZDeg(s.Rotation)
}

// Rig evaluates the camera track of a project. It keeps no state between
// calls.
type Rig struct {
	project *project.Project
	track   *project.Track
	log     logrus.FieldLogger
}

// Option configures a Rig.
type Option func(*Rig)

// WithLogger routes soft failures to l at debug level.
func WithLogger(l logrus.FieldLogger) Option {
	return func(r *Rig) {
		if l != nil {
			r.log = l
		}
	}
}

// New creates a rig for p. The project must be normalized.
func New(p *project.Project, opts ...Option) *Rig {
	silent := logrus.New()
	silent.SetOutput(io.Discard)

	r := &Rig{project: p, log: silent}
	for _, opt := range opts {
		opt(r)
	}
	r.track = CameraTrack(p.Timeline.Tracks)
	if r.track == nil {
		r.log.Debug("no camera track, using defaults")
	}
	return r
}

// Project returns the project the rig evaluates.
func (r *Rig) Project() *project.Project { return r.project }

// FPS returns the project frame rate.
func (r *Rig) FPS() int { return r.project.Meta.FPS }

// Logger returns the rig logger.
func (r *Rig) Logger() logrus.FieldLogger { return r.log }

// CameraTrack picks the track that drives the camera: the first one with
// the camera.transform id or a camera transform type, otherwise the first
// track. It returns nil for an empty list.
func CameraTrack(tracks []project.Track) *project.Track {
	for i := range tracks {
		if isCameraTrack(tracks[i]) {
			return &tracks[i]
		}
	}
	if len(tracks) > 0 {
		return &tracks[0]
	}
	return nil
}

func isCameraTrack(t project.Track) bool {
	if t.ID == CameraTrackID {
		return true
	}
	switch strings.ToLower(strings.ReplaceAll(t.Type, "_", "")) {
	case "cameratransformtrack", "cameratransform":
		return true
	}
	return false
}

type baseFrame struct {
	pos, target            r3.Vec
	focal, focus, aperture float64
}

func (r *Rig) evalBase(scene *constraint.Scene, frame int) baseFrame {
	if r.track == nil {
		return baseFrame{
			pos:      DefaultPosition,
			target:   DefaultTarget,
			focal:    DefaultFocalMM,
			focus:    DefaultFocusM,
			aperture: DefaultApertureF,
		}
	}
	vals := timeline.EvalTrack(*r.track, frame)
	pos := r3.Vec{
		X: vals.Get("position.x", DefaultPosition.X),
		Y: vals.Get("position.y", DefaultPosition.Y),
		Z: vals.Get("position.z", DefaultPosition.Z),
	}
	target := r3.Vec{
		X: vals.Get("target.x", DefaultTarget.X),
		Y: vals.Get("target.y", DefaultTarget.Y),
		Z: vals.Get("target.z", DefaultTarget.Z),
	}
	pos, target = constraint.Apply(r.track.Constraints, scene, vals, pos, target)
	return baseFrame{
		pos:      pos,
		target:   target,
		focal:    vals.Get(ChannelFocal, DefaultFocalMM),
		focus:    vals.Get(ChannelFocus, DefaultFocusM),
		aperture: vals.Get(ChannelAperture, DefaultApertureF),
	}
}

func (r *Rig) newScene() *constraint.Scene {
	return constraint.NewScene(r.project.Timeline.Objects, r.log)
}

func (r *Rig) modifiers() []project.Modifier {
	if r.track == nil {
		return nil
	}
	return r.track.Modifiers
}

// rollLocked reports whether an enabled horizonLock is on the stack.
func (r *Rig) rollLocked() bool {
	for _, m := range r.modifiers() {
		if _, ok := m.Params.(project.HorizonLockParams); ok && m.Enabled {
			return true
		}
	}
	return false
}

// Evaluate returns the camera at frame with channels and constraints
// applied. Range modifiers need temporal context and are skipped, except
// for the roll lock of horizonLock.
func (r *Rig) Evaluate(frame int) CameraState {
	b := r.evalBase(r.newScene(), frame)
	rot := math3d.LookAtRotation(b.pos, b.target, math3d.WorldUp)
	if r.rollLocked() {
		rot = math3d.LockRoll(rot)
	}
	return CameraState{
		Frame:          frame,
		Position:       b.pos,
		Rotation:       rot,
		Target:         b.target,
		FocalLengthMM:  b.focal,
		FocusDistanceM: b.focus,
		ApertureF:      b.aperture,
	}
}

// EvaluateRange evaluates every frame of [start, end] and runs the modifier
// stack across the whole range. Rotations are built last from the final
// positions and targets.
func (r *Rig) EvaluateRange(start, end int) ([]CameraState, error) {
	if end < start {
		return nil, fmt.Errorf("%w: end %d before start %d", ErrInvalidRange, end, start)
	}
	n := end - start + 1
	scene := r.newScene()

	frames := modifier.Frames{
		Positions: make([]r3.Vec, n),
		Targets:   make([]r3.Vec, n),
		Focals:    make([]float64, n),
	}
	bases := make([]baseFrame, n)
	for i := 0; i < n; i++ {
		b := r.evalBase(scene, start+i)
		bases[i] = b
		frames.Positions[i] = b.pos
		frames.Targets[i] = b.target
		frames.Focals[i] = b.focal
	}

	frames = modifier.Apply(r.modifiers(), frames, r.FPS())
	rots := frames.Rotations()

	out := make([]CameraState, n)
	for i := range out {
		out[i] = CameraState{
			Frame:          start + i,
			Position:       frames.Positions[i],
			Rotation:       rots[i],
			Target:         frames.Targets[i],
			FocalLengthMM:  frames.Focals[i],
			FocusDistanceM: bases[i].focus,
			ApertureF:      bases[i].aperture,
		}
	}
	r.log.WithFields(logrus.Fields{
		"start":     start,
		"end":       end,
		"modifiers": len(r.modifiers()),
	}).Debug("range evaluated")
	return out, nil
}

// Sample evaluates [start, end] and keeps every step-th frame starting at
// start. Modifiers still see the full range. A step below 1 is treated as 1.
func (r *Rig) Sample(start, end, step int) ([]CameraState, error) {
	states, err := r.EvaluateRange(start, end)
	if err != nil {
		return nil, err
	}
	if step <= 1 {
		return states, nil
	}
	out := make([]CameraState, 0, len(states)/step+1)
	for i := 0; i < len(states); i += step {
		out = append(out, states[i])
	}
	return out, nil
}
