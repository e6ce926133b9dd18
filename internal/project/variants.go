package project

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	ErrUnknownConstraint = errors.New("unknown constraint type")
	ErrUnknownModifier   = errors.New("unknown modifier type")
	ErrInvalidParams     = errors.New("invalid params")
)

// ConstraintParams is implemented by the parameter block of each constraint
// type. The set is closed.
type ConstraintParams interface {
	constraintType() string
}

// RailParams pins the camera to a spline. It serves both Rail and FollowPath.
type RailParams struct {
	SplineID string    `yaml:"spline_id"`
	Offset   []float64 `yaml:"offset,omitempty"`
	UChannel string    `yaml:"u_channel,omitempty"`
}

// OrbitParams places the camera on a sphere around the current target.
// Channels orbit.radius, orbit.azimuth_deg and orbit.elevation_deg take
// precedence over these values.
type OrbitParams struct {
	Radius       float64   `yaml:"radius"`
	AzimuthDeg   float64   `yaml:"azimuth_deg"`
	ElevationDeg float64   `yaml:"elevation_deg"`
	Offset       []float64 `yaml:"offset,omitempty"`
}

// LookAtParams aims the camera at a null object.
type LookAtParams struct {
	NullID string `yaml:"null_id"`
}

func (RailParams) constraintType() string   { return "Rail" }
func (OrbitParams) constraintType() string  { return "Orbit" }
func (LookAtParams) constraintType() string { return "LookAtObject" }

// Constraint is one entry of a track's constraint stack.
type Constraint struct {
	Type    string
	Order   int
	Enabled bool
	Params  ConstraintParams
}

// NewConstraint builds an enabled constraint of the type implied by params.
func NewConstraint(order int, params ConstraintParams) Constraint {
	return Constraint{Type: params.constraintType(), Order: order, Enabled: true, Params: params}
}

type stackEntry struct {
	Type    string    `yaml:"type"`
	Order   int       `yaml:"order"`
	Enabled *bool     `yaml:"enabled,omitempty"`
	Params  yaml.Node `yaml:"params,omitempty"`
}

type stackEntryOut struct {
	Type    string `yaml:"type"`
	Order   int    `yaml:"order"`
	Enabled bool   `yaml:"enabled"`
	Params  any    `yaml:"params,omitempty"`
}

// canonicalType folds a type name so that "LookAtObject", "lookAtObject" and
// "look_at_object" compare equal.
func canonicalType(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.NewReplacer("_", "", "-", "", " ", "").Replace(name)
}

// decodeParams decodes n into a value pre-filled with defaults.
func decodeParams[T any](n *yaml.Node, v T) (T, error) {
	if n.IsZero() {
		return v, nil
	}
	if err := n.Decode(&v); err != nil {
		return v, err
	}
	return v, nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (c *Constraint) UnmarshalYAML(n *yaml.Node) error {
	var raw stackEntry
	if err := n.Decode(&raw); err != nil {
		return err
	}

	var (
		params ConstraintParams
		err    error
	)
	switch canonicalType(raw.Type) {
	case "rail", "followpath":
		params, err = decodeParams(&raw.Params, RailParams{})
	case "orbit":
		params, err = decodeParams(&raw.Params, DefaultOrbitParams())
	case "lookatobject", "lookat":
		params, err = decodeParams(&raw.Params, LookAtParams{})
	default:
		return fmt.Errorf("%w: %q", ErrUnknownConstraint, raw.Type)
	}
	if err != nil {
		return fmt.Errorf("constraint %s params: %w", raw.Type, err)
	}

	c.Type = raw.Type
	c.Order = raw.Order
	c.Enabled = raw.Enabled == nil || *raw.Enabled
	c.Params = params
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (c Constraint) MarshalYAML() (any, error) {
	t := c.Type
	if t == "" && c.Params != nil {
		t = c.Params.constraintType()
	}
	return stackEntryOut{Type: t, Order: c.Order, Enabled: c.Enabled, Params: c.Params}, nil
}

// DefaultOrbitParams returns the orbit used when params are omitted.
func DefaultOrbitParams() OrbitParams {
	return OrbitParams{Radius: 5}
}

// ModifierParams is implemented by the parameter block of each modifier
// type. The set is closed.
type ModifierParams interface {
	modifierType() string
}

// AimSpringParams smooths the target with a damped spring.
type AimSpringParams struct {
	Stiffness float64 `yaml:"stiffness"`
	Damping   float64 `yaml:"damping"`
}

// NoiseShakeParams adds seeded, low-passed jitter to position and target.
type NoiseShakeParams struct {
	Seed   int64   `yaml:"seed"`
	AmpPos float64 `yaml:"amp_pos"`
	AmpTgt float64 `yaml:"amp_tgt"`
	FreqHz float64 `yaml:"freq_hz"`
}

// HorizonLockParams zeroes roll in the final rotation.
type HorizonLockParams struct{}

// DollyZoomParams keeps subject size constant by driving focal length.
// A zero ReferenceDistanceM means the first frame's distance.
type DollyZoomParams struct {
	ReferenceFocalMM   float64 `yaml:"reference_focal_mm"`
	ReferenceDistanceM float64 `yaml:"reference_distance_m,omitempty"`
	MinFocalMM         float64 `yaml:"min_focal_mm"`
	MaxFocalMM         float64 `yaml:"max_focal_mm"`
}

func (AimSpringParams) modifierType() string   { return "AimSpring" }
func (NoiseShakeParams) modifierType() string  { return "NoiseShake" }
func (HorizonLockParams) modifierType() string { return "HorizonLock" }
func (DollyZoomParams) modifierType() string   { return "DollyZoom" }

// MaxSpringConstant bounds stiffness and damping of an aim spring.
const MaxSpringConstant = 1e6

// Validate rejects spring constants that are negative, non-finite or above
// MaxSpringConstant.
func (p AimSpringParams) Validate() error {
	check := func(name string, v float64) error {
		if math.IsNaN(v) || v < 0 || v > MaxSpringConstant {
			return fmt.Errorf("%w: %s must be within [0, %g], got %v", ErrInvalidParams, name, MaxSpringConstant, v)
		}
		return nil
	}
	if err := check("stiffness", p.Stiffness); err != nil {
		return err
	}
	return check("damping", p.Damping)
}

func DefaultAimSpringParams() AimSpringParams {
	return AimSpringParams{Stiffness: 18, Damping: 6}
}

func DefaultNoiseShakeParams() NoiseShakeParams {
	return NoiseShakeParams{AmpPos: 0.02, AmpTgt: 0.01, FreqHz: 6}
}

func DefaultDollyZoomParams() DollyZoomParams {
	return DollyZoomParams{ReferenceFocalMM: 35, MinFocalMM: 12, MaxFocalMM: 200}
}

// Modifier is one entry of a track's modifier stack.
type Modifier struct {
	Type    string
	Order   int
	Enabled bool
	Params  ModifierParams
}

// NewModifier builds an enabled modifier of the type implied by params.
func NewModifier(order int, params ModifierParams) Modifier {
	return Modifier{Type: params.modifierType(), Order: order, Enabled: true, Params: params}
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (m *Modifier) UnmarshalYAML(n *yaml.Node) error {
	var raw stackEntry
	if err := n.Decode(&raw); err != nil {
		return err
	}

	var (
		params ModifierParams
		err    error
	)
	switch canonicalType(raw.Type) {
	case "aimspring":
		var p AimSpringParams
		if p, err = decodeParams(&raw.Params, DefaultAimSpringParams()); err == nil {
			err = p.Validate()
		}
		params = p
	case "noiseshake":
		params, err = decodeParams(&raw.Params, DefaultNoiseShakeParams())
	case "horizonlock":
		params = HorizonLockParams{}
	case "dollyzoom":
		params, err = decodeParams(&raw.Params, DefaultDollyZoomParams())
	default:
		return fmt.Errorf("%w: %q", ErrUnknownModifier, raw.Type)
	}
	if err != nil {
		return fmt.Errorf("modifier %s params: %w", raw.Type, err)
	}

	m.Type = raw.Type
	m.Order = raw.Order
	m.Enabled = raw.Enabled == nil || *raw.Enabled
	m.Params = params
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (m Modifier) MarshalYAML() (any, error) {
	t := m.Type
	if t == "" && m.Params != nil {
		t = m.Params.modifierType()
	}
	out := stackEntryOut{Type: t, Order: m.Order, Enabled: m.Enabled}
	if _, empty := m.Params.(HorizonLockParams); !empty {
		out.Params = m.Params
	}
	return out, nil
}
