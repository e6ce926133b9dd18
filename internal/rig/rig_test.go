package rig

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/ivlev/camrig/internal/math3d"
	"github.com/ivlev/camrig/internal/project"
)

func parse(t *testing.T, doc string) *project.Project {
	t.Helper()
	p, err := project.Parse([]byte(doc))
	require.NoError(t, err)
	return p
}

const lookAtProject = `
meta: {fps: 24, frames: 3}
timeline:
  objects:
    nulls: {hero: {type: Null, position: [3, 2, 1]}}
  tracks:
    - id: camera.transform
      type: CameraTransformTrack
      channels:
        position.x: {value: 0}
        position.y: {value: 1.5}
        position.z: {value: -6}
        target.x: {value: 0}
        target.y: {value: 1.5}
        target.z: {value: 0}
      constraints:
        - {type: LookAtObject, order: 0, enabled: true, params: {null_id: hero}}
`

func TestLookAtObjectTarget(t *testing.T) {
	r := New(parse(t, lookAtProject))

	cam := r.Evaluate(0)
	assert.Equal(t, r3.Vec{X: 3, Y: 2, Z: 1}, cam.Target)
	assert.Equal(t, r3.Vec{X: 0, Y: 1.5, Z: -6}, cam.Position)
	assert.InDelta(t, 1.0, quatNorm(cam.Rotation.Real, cam.Rotation.Imag, cam.Rotation.Jmag, cam.Rotation.Kmag), 1e-9)
}

func quatNorm(w, x, y, z float64) float64 {
	return w*w + x*x + y*y + z*z
}

func TestDefaultsWithoutTracks(t *testing.T) {
	r := New(parse(t, `meta: {fps: 24}`))

	cam := r.Evaluate(12)
	assert.Equal(t, 12, cam.Frame)
	assert.Equal(t, DefaultPosition, cam.Position)
	assert.Equal(t, DefaultTarget, cam.Target)
	assert.Equal(t, DefaultFocalMM, cam.FocalLengthMM)
	assert.Equal(t, DefaultFocusM, cam.FocusDistanceM)
	assert.Equal(t, DefaultApertureF, cam.ApertureF)
	assert.Equal(t, math3d.Identity, cam.Rotation)
	assert.InDelta(t, 54.43, cam.FOVDeg(), 0.01)
}

func TestCameraTrackSelection(t *testing.T) {
	tracks := []project.Track{
		{ID: "fx", Type: "generic"},
		{ID: "cam", Type: "CameraTransformTrack"},
		{ID: "camera.transform"},
	}
	assert.Equal(t, "cam", CameraTrack(tracks).ID)
	assert.Equal(t, "fx", CameraTrack(tracks[:1]).ID)
	assert.Nil(t, CameraTrack(nil))
}

func TestEvaluateRangeInvalid(t *testing.T) {
	r := New(parse(t, lookAtProject))

	_, err := r.EvaluateRange(10, 5)
	assert.True(t, errors.Is(err, ErrInvalidRange))

	states, err := r.EvaluateRange(4, 4)
	require.NoError(t, err)
	require.Len(t, states, 1)
	assert.Equal(t, 4, states[0].Frame)
}

const noiseProject = `
meta: {fps: 24, frames: 10}
timeline:
  tracks:
    - id: camera.transform
      type: CameraTransformTrack
      channels:
        position.x: {value: 0}
        position.y: {value: 1}
        position.z: {value: -6}
        target.x: {value: 0}
        target.y: {value: 1.5}
        target.z: {value: 0}
      modifiers:
        - {type: NoiseShake, order: 0, params: {seed: 123, amp_pos: 0.05, amp_tgt: 0.02}}
`

func TestNoiseShakeReproducible(t *testing.T) {
	p := parse(t, noiseProject)

	a, err := New(p).EvaluateRange(0, 9)
	require.NoError(t, err)
	b, err := New(p).EvaluateRange(0, 9)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.NotEqual(t, r3.Vec{X: 0, Y: 1, Z: -6}, a[3].Position)
}

func TestRangeMatchesSingleFrameWithoutModifiers(t *testing.T) {
	doc := `
timeline:
  tracks:
    - id: camera.transform
      channels:
        position.x: {keys: [{t: 0, v: 0, interp: linear}, {t: 20, v: 4, interp: linear}]}
        focal_length_mm: {keys: [{t: 0, v: 24}, {t: 20, v: 50}]}
`
	r := New(parse(t, doc))
	states, err := r.EvaluateRange(0, 20)
	require.NoError(t, err)
	for _, s := range states {
		single := r.Evaluate(s.Frame)
		assert.Equal(t, single, s, "frame %d", s.Frame)
	}
	assert.InDelta(t, 2.0, states[10].Position.X, 1e-12)
}

func TestHorizonLockZeroesRoll(t *testing.T) {
	doc := `
timeline:
  tracks:
    - id: camera.transform
      channels:
        position.x: {value: 0}
        position.y: {value: 0}
        position.z: {value: 0}
        target.x: {keys: [{t: 0, v: 1}, {t: 10, v: 2}]}
        target.y: {value: 0.5}
        target.z: {value: 1}
      modifiers:
        - {type: HorizonLock}
`
	r := New(parse(t, doc))
	states, err := r.EvaluateRange(0, 10)
	require.NoError(t, err)
	for _, s := range states {
		x, _, _ := s.EulerDeg()
		assert.InDelta(t, 0.0, x, 1e-9, "frame %d", s.Frame)
	}
	x, _, _ := r.Evaluate(5).EulerDeg()
	assert.InDelta(t, 0.0, x, 1e-9)
}

func TestEvaluateAppliesHorizonLockOnly(t *testing.T) {
	const tmpl = `
timeline:
  tracks:
    - id: camera.transform
      channels:
        position.x: {value: 0}
        position.y: {value: 5}
        position.z: {value: -6}
        target.x: {value: 4}
        target.y: {value: 0}
        target.z: {value: 0}
      modifiers:
        - {type: HorizonLock, enabled: %s}
        - {type: NoiseShake, params: {seed: 7, amp_pos: 0.5}}
`
	locked := New(parse(t, fmt.Sprintf(tmpl, "true")))
	free := New(parse(t, fmt.Sprintf(tmpl, "false")))

	x, _, _ := free.Evaluate(3).EulerDeg()
	require.Greater(t, math.Abs(x), 1.0)

	s := locked.Evaluate(3)
	x, _, _ = s.EulerDeg()
	assert.InDelta(t, 0.0, x, 1e-9)
	assert.Equal(t, math3d.LockRoll(free.Evaluate(3).Rotation), s.Rotation)

	// Noise stays a range-only modifier.
	assert.Equal(t, r3.Vec{X: 0, Y: 5, Z: -6}, s.Position)
	states, err := locked.EvaluateRange(0, 5)
	require.NoError(t, err)
	assert.NotEqual(t, s.Position, states[3].Position)
	x, _, _ = states[3].EulerDeg()
	assert.InDelta(t, 0.0, x, 1e-9)
}

func TestDollyZoomDrivesFocal(t *testing.T) {
	doc := `
meta: {fps: 24}
timeline:
  tracks:
    - id: camera.transform
      channels:
        position.z: {keys: [{t: 0, v: -5, interp: linear}, {t: 10, v: -10, interp: linear}]}
        position.y: {value: 1.5}
      modifiers:
        - {type: DollyZoom}
`
	states, err := New(parse(t, doc)).EvaluateRange(0, 10)
	require.NoError(t, err)
	assert.InDelta(t, 35.0, states[0].FocalLengthMM, 1e-12)
	assert.InDelta(t, 70.0, states[10].FocalLengthMM, 1e-9)
}

func TestSample(t *testing.T) {
	r := New(parse(t, lookAtProject))

	states, err := r.Sample(0, 10, 4)
	require.NoError(t, err)
	frames := make([]int, len(states))
	for i, s := range states {
		frames[i] = s.Frame
	}
	assert.Equal(t, []int{0, 4, 8}, frames)

	states, err = r.Sample(0, 3, 0)
	require.NoError(t, err)
	assert.Len(t, states, 4)
}
