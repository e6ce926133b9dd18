package project

import "fmt"

// Camera constraint defaults applied when a field is not set.
const (
	DefaultMaxSpeedPos     = 2.0
	DefaultMaxAccelPos     = 0.5
	DefaultMaxSpeedTarget  = 2.0
	DefaultMaxAccelTarget  = 0.5
	DefaultMaxSpeedRollDeg = 5.0
	DefaultMaxSpeedFocalMM = 2.0
	DefaultSmoothingWindow = 0
	DefaultSampleStep      = 1
)

// CameraConstraints limits camera motion during baking. Nil fields are
// unset: they read as the defaults and do not take part in a merge.
type CameraConstraints struct {
	Enabled         *bool    `yaml:"enabled,omitempty" json:"enabled,omitempty"`
	MaxSpeedPos     *float64 `yaml:"max_speed_pos,omitempty" json:"max_speed_pos,omitempty"`
	MaxAccelPos     *float64 `yaml:"max_accel_pos,omitempty" json:"max_accel_pos,omitempty"`
	MaxSpeedTarget  *float64 `yaml:"max_speed_target,omitempty" json:"max_speed_target,omitempty"`
	MaxAccelTarget  *float64 `yaml:"max_accel_target,omitempty" json:"max_accel_target,omitempty"`
	MaxSpeedRollDeg *float64 `yaml:"max_speed_roll_deg,omitempty" json:"max_speed_roll_deg,omitempty"`
	MaxSpeedFocalMM *float64 `yaml:"max_speed_focal_mm,omitempty" json:"max_speed_focal_mm,omitempty"`
	SmoothingWindow *int     `yaml:"smoothing_window,omitempty" json:"smoothing_window,omitempty"`
	SampleStep      *int     `yaml:"sample_step,omitempty" json:"sample_step,omitempty"`
}

func (c *CameraConstraints) IsEnabled() bool {
	if c == nil || c.Enabled == nil {
		return true
	}
	return *c.Enabled
}

func (c *CameraConstraints) GetMaxSpeedPos() float64 {
	return floatOr(c, func(c *CameraConstraints) *float64 { return c.MaxSpeedPos }, DefaultMaxSpeedPos)
}

func (c *CameraConstraints) GetMaxAccelPos() float64 {
	return floatOr(c, func(c *CameraConstraints) *float64 { return c.MaxAccelPos }, DefaultMaxAccelPos)
}

func (c *CameraConstraints) GetMaxSpeedTarget() float64 {
	return floatOr(c, func(c *CameraConstraints) *float64 { return c.MaxSpeedTarget }, DefaultMaxSpeedTarget)
}

func (c *CameraConstraints) GetMaxAccelTarget() float64 {
	return floatOr(c, func(c *CameraConstraints) *float64 { return c.MaxAccelTarget }, DefaultMaxAccelTarget)
}

func (c *CameraConstraints) GetMaxSpeedRollDeg() float64 {
	return floatOr(c, func(c *CameraConstraints) *float64 { return c.MaxSpeedRollDeg }, DefaultMaxSpeedRollDeg)
}

func (c *CameraConstraints) GetMaxSpeedFocalMM() float64 {
	return floatOr(c, func(c *CameraConstraints) *float64 { return c.MaxSpeedFocalMM }, DefaultMaxSpeedFocalMM)
}

func (c *CameraConstraints) GetSmoothingWindow() int {
	if c == nil || c.SmoothingWindow == nil {
		return DefaultSmoothingWindow
	}
	return *c.SmoothingWindow
}

func (c *CameraConstraints) GetSampleStep() int {
	if c == nil || c.SampleStep == nil {
		return DefaultSampleStep
	}
	return *c.SampleStep
}

func floatOr(c *CameraConstraints, field func(*CameraConstraints) *float64, def float64) float64 {
	if c == nil {
		return def
	}
	if p := field(c); p != nil {
		return *p
	}
	return def
}

// Merge returns a copy of c with every field set in override taking
// precedence. Either side may be nil.
func (c *CameraConstraints) Merge(override *CameraConstraints) *CameraConstraints {
	if c == nil && override == nil {
		return nil
	}
	var out CameraConstraints
	if c != nil {
		out = *c
	}
	if override == nil {
		return &out
	}
	if override.Enabled != nil {
		out.Enabled = override.Enabled
	}
	if override.MaxSpeedPos != nil {
		out.MaxSpeedPos = override.MaxSpeedPos
	}
	if override.MaxAccelPos != nil {
		out.MaxAccelPos = override.MaxAccelPos
	}
	if override.MaxSpeedTarget != nil {
		out.MaxSpeedTarget = override.MaxSpeedTarget
	}
	if override.MaxAccelTarget != nil {
		out.MaxAccelTarget = override.MaxAccelTarget
	}
	if override.MaxSpeedRollDeg != nil {
		out.MaxSpeedRollDeg = override.MaxSpeedRollDeg
	}
	if override.MaxSpeedFocalMM != nil {
		out.MaxSpeedFocalMM = override.MaxSpeedFocalMM
	}
	if override.SmoothingWindow != nil {
		out.SmoothingWindow = override.SmoothingWindow
	}
	if override.SampleStep != nil {
		out.SampleStep = override.SampleStep
	}
	return &out
}

// Validate checks value ranges.
func (c *CameraConstraints) Validate() error {
	if c == nil {
		return nil
	}
	limits := []struct {
		name string
		v    *float64
	}{
		{"max_speed_pos", c.MaxSpeedPos},
		{"max_accel_pos", c.MaxAccelPos},
		{"max_speed_target", c.MaxSpeedTarget},
		{"max_accel_target", c.MaxAccelTarget},
		{"max_speed_roll_deg", c.MaxSpeedRollDeg},
		{"max_speed_focal_mm", c.MaxSpeedFocalMM},
	}
	for _, l := range limits {
		if l.v != nil && *l.v < 0 {
			return fmt.Errorf("%s must be non-negative, got %g", l.name, *l.v)
		}
	}
	if c.SmoothingWindow != nil && *c.SmoothingWindow < 0 {
		return fmt.Errorf("smoothing_window must be non-negative, got %d", *c.SmoothingWindow)
	}
	if c.SampleStep != nil && *c.SampleStep < 1 {
		return fmt.Errorf("sample_step must be at least 1, got %d", *c.SampleStep)
	}
	return nil
}

// Filled returns a copy with every unset field replaced by its default, so
// two values can be compared by what they enforce.
func (c *CameraConstraints) Filled() *CameraConstraints {
	if c == nil {
		return nil
	}
	enabled := c.IsEnabled()
	f := func(v float64) *float64 { return &v }
	i := func(v int) *int { return &v }
	return &CameraConstraints{
		Enabled:         &enabled,
		MaxSpeedPos:     f(c.GetMaxSpeedPos()),
		MaxAccelPos:     f(c.GetMaxAccelPos()),
		MaxSpeedTarget:  f(c.GetMaxSpeedTarget()),
		MaxAccelTarget:  f(c.GetMaxAccelTarget()),
		MaxSpeedRollDeg: f(c.GetMaxSpeedRollDeg()),
		MaxSpeedFocalMM: f(c.GetMaxSpeedFocalMM()),
		SmoothingWindow: i(c.GetSmoothingWindow()),
		SampleStep:      i(c.GetSampleStep()),
	}
}
