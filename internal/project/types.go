// Package project holds the camera project document model and its YAML/JSON
// boundary.
package project

import "github.com/ivlev/camrig/internal/curve"

// Default document values applied by Normalize.
const (
	DefaultFPS    = 24
	DefaultFrames = 180
	DefaultWidth  = 960
	DefaultHeight = 540
)

// Project represents a complete camera project
type Project struct {
	SchemaVersion string            `yaml:"schema_version,omitempty"`
	Meta          Meta              `yaml:"meta"`
	Assets        map[string]string `yaml:"assets,omitempty"`
	Timeline      Timeline          `yaml:"timeline"`
	Render        RenderConfig      `yaml:"render,omitempty"`
}

// Meta describes the frame grid of the project.
type Meta struct {
	Name       string `yaml:"name,omitempty"`
	FPS        int    `yaml:"fps"`
	Frames     int    `yaml:"frames"`
	Resolution [2]int `yaml:"resolution"`
}

// Timeline carries everything that varies over frames.
type Timeline struct {
	Markers           []Marker           `yaml:"markers,omitempty"`
	Cuts              []Cut              `yaml:"cuts,omitempty"`
	Shots             []Shot             `yaml:"shots,omitempty"`
	Tracks            []Track            `yaml:"tracks,omitempty"`
	Objects           Objects            `yaml:"objects,omitempty"`
	CameraConstraints *CameraConstraints `yaml:"camera_constraints,omitempty"`
}

// Objects are the named scene entities constraints refer to.
type Objects struct {
	Nulls   map[string]NullObject   `yaml:"nulls,omitempty"`
	Splines map[string]SplineObject `yaml:"splines,omitempty"`
}

// Marker is an annotation on the timeline. Markers never split shots.
type Marker struct {
	Frame int    `yaml:"frame"`
	Label string `yaml:"label,omitempty"`
}

// Cut marks a shot boundary.
type Cut struct {
	Frame          int    `yaml:"frame"`
	Transition     string `yaml:"transition,omitempty"`
	DurationFrames int    `yaml:"duration_frames,omitempty"`
}

// Shot is an inclusive frame range with optional per-shot settings.
type Shot struct {
	Start                     int                `yaml:"start"`
	End                       int                `yaml:"end"`
	RenderOverrides           map[string]any     `yaml:"render_overrides,omitempty"`
	CameraConstraintsOverride *CameraConstraints `yaml:"camera_constraints_override,omitempty"`

	// Typed overrides, mirrored into RenderOverrides by Normalize.
	PromptOverride         *string  `yaml:"prompt_override,omitempty"`
	NegativePromptOverride *string  `yaml:"negative_prompt_override,omitempty"`
	SeedOverride           *int64   `yaml:"seed_override,omitempty"`
	SamplerOverride        *string  `yaml:"sampler_override,omitempty"`
	StepsOverride          *int     `yaml:"steps_override,omitempty"`
	CFGOverride            *float64 `yaml:"cfg_override,omitempty"`
}

// mirrorOverrides copies the typed overrides into RenderOverrides.
func (s *Shot) mirrorOverrides() {
	set := func(key string, v any) {
		if s.RenderOverrides == nil {
			s.RenderOverrides = make(map[string]any)
		}
		s.RenderOverrides[key] = v
	}
	if s.PromptOverride != nil {
		set("prompt", *s.PromptOverride)
	}
	if s.NegativePromptOverride != nil {
		set("negative_prompt", *s.NegativePromptOverride)
	}
	if s.SeedOverride != nil {
		set("seed", *s.SeedOverride)
	}
	if s.SamplerOverride != nil {
		set("sampler", *s.SamplerOverride)
	}
	if s.StepsOverride != nil {
		set("steps", *s.StepsOverride)
	}
	if s.CFGOverride != nil {
		set("cfg", *s.CFGOverride)
	}
}

// Contains reports whether frame falls inside the shot.
func (s Shot) Contains(frame int) bool {
	return s.Start <= frame && frame <= s.End
}

// Track is a set of named channels plus the constraint and modifier stacks
// that act on them.
type Track struct {
	ID          string                   `yaml:"id"`
	Type        string                   `yaml:"type"`
	Channels    map[string]curve.Channel `yaml:"channels,omitempty"`
	Constraints []Constraint             `yaml:"constraints,omitempty"`
	Modifiers   []Modifier               `yaml:"modifiers,omitempty"`
}

// NullObject is a named point in space.
type NullObject struct {
	Type     string    `yaml:"type,omitempty"`
	Position []float64 `yaml:"position"`
}

// SplineObject is a named 3D path. Type is "catmull_rom" or "bezier".
type SplineObject struct {
	Type     string          `yaml:"type"`
	Points   [][]float64     `yaml:"points,omitempty"`
	Closed   bool            `yaml:"closed,omitempty"`
	Segments []BezierSegment `yaml:"segments,omitempty"`
}

// BezierSegment is one cubic piece of a bezier spline.
type BezierSegment struct {
	P0 []float64 `yaml:"p0"`
	P1 []float64 `yaml:"p1"`
	P2 []float64 `yaml:"p2"`
	P3 []float64 `yaml:"p3"`
}

// RenderConfig holds the downstream renderer settings. The engine never
// reads them beyond validation.
type RenderConfig struct {
	Backend  string   `yaml:"backend,omitempty"`
	Sampler  string   `yaml:"sampler,omitempty"`
	Steps    int      `yaml:"steps,omitempty"`
	CFG      float64  `yaml:"cfg,omitempty"`
	SeedMode SeedMode `yaml:"seed_mode,omitempty"`
	Prompts  Prompts  `yaml:"prompts,omitempty"`
}

// SeedMode controls how the renderer seeds frames.
type SeedMode struct {
	Mode      string `yaml:"mode,omitempty"`
	Seed      int64  `yaml:"seed,omitempty"`
	Increment int    `yaml:"increment,omitempty"`
}

// Prompts are the base prompts passed to the renderer.
type Prompts struct {
	Base     string `yaml:"base,omitempty"`
	Negative string `yaml:"negative,omitempty"`
}
