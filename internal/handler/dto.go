package handler

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/ivlev/camrig/internal/project"
	"github.com/ivlev/camrig/internal/rig"
)

var (
	errNoProject     = errors.New("provide project or path")
	errRangeTooLarge = errors.New("frame range too large")
)

// ProjectSource names a project file or carries the project inline. The
// inline project wins when both are set.
type ProjectSource struct {
	Path    string          `json:"path"`
	Project json.RawMessage `json:"project"`
}

func (s ProjectSource) load() (*project.Project, error) {
	inline := bytes.TrimSpace(s.Project)
	switch {
	case len(inline) > 0 && !bytes.Equal(inline, []byte("null")):
		return project.Parse(inline)
	case s.Path != "":
		return project.Load(s.Path)
	default:
		return nil, errNoProject
	}
}

// LoadRequest asks for the project stored at Path.
type LoadRequest struct {
	Path string `json:"path" binding:"required"`
}

// SaveRequest stores Project at Path.
type SaveRequest struct {
	Path    string          `json:"path" binding:"required"`
	Project json.RawMessage `json:"project" binding:"required"`
}

// FrameRequest evaluates one frame.
type FrameRequest struct {
	ProjectSource
	Frame *int `json:"frame" binding:"required"`
}

// RangeRequest evaluates a frame range. A missing End means the last frame
// of the project.
type RangeRequest struct {
	ProjectSource
	Start int  `json:"start"`
	End   *int `json:"end"`
	Step  int  `json:"step"`
}

// CameraPathRequest samples the camera path at the project sample step.
// Apply defaults to true.
type CameraPathRequest struct {
	ProjectSource
	Start int   `json:"start"`
	End   *int  `json:"end"`
	Apply *bool `json:"apply"`
}

// BakeRequest bakes a frame range. ReduceKeys defaults to true and a zero
// MaxError to DefaultMaxError.
type BakeRequest struct {
	ProjectSource
	Start      int     `json:"start"`
	End        *int    `json:"end"`
	ReduceKeys *bool   `json:"reduce_keys"`
	MaxError   float64 `json:"max_error"`
	MaxKeys    int     `json:"max_keys"`
}

// DefaultMaxError is the reduction tolerance used when a bake request
// leaves it out.
const DefaultMaxError = 0.01

// CameraFrame is the wire form of an evaluated camera.
type CameraFrame struct {
	Frame          int        `yaml:"frame" json:"frame"`
	Position       [3]float64 `yaml:"position,flow" json:"position"`
	Target         [3]float64 `yaml:"target,flow" json:"target"`
	Rotation       [4]float64 `yaml:"rotation,flow" json:"rotation"`
	EulerDeg       [3]float64 `yaml:"euler_deg,flow" json:"euler_deg"`
	FocalLengthMM  float64    `yaml:"focal_length_mm" json:"focal_length_mm"`
	FOVDeg         float64    `yaml:"fov_deg" json:"fov_deg"`
	FocusDistanceM float64    `yaml:"focus_distance_m" json:"focus_distance_m"`
	ApertureF      float64    `yaml:"aperture_f" json:"aperture_f"`
}

// NewCameraFrame converts s. Rotation is ordered w, x, y, z.
func NewCameraFrame(s rig.CameraState) CameraFrame {
	x, y, z := s.EulerDeg()
	return CameraFrame{
		Frame:          s.Frame,
		Position:       [3]float64{s.Position.X, s.Position.Y, s.Position.Z},
		Target:         [3]float64{s.Target.X, s.Target.Y, s.Target.Z},
		Rotation:       [4]float64{s.Rotation.Real, s.Rotation.Imag, s.Rotation.Jmag, s.Rotation.Kmag},
		EulerDeg:       [3]float64{x, y, z},
		FocalLengthMM:  s.FocalLengthMM,
		FOVDeg:         s.FOVDeg(),
		FocusDistanceM: s.FocusDistanceM,
		ApertureF:      s.ApertureF,
	}
}

// NewCameraFrames converts every state.
func NewCameraFrames(states []rig.CameraState) []CameraFrame {
	out := make([]CameraFrame, len(states))
	for i, s := range states {
		out[i] = NewCameraFrame(s)
	}
	return out
}
