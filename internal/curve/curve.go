// Package curve evaluates keyframed scalar channels.
package curve

import (
	"errors"
	"fmt"
	"sort"
)

// Interp selects how the segment ending at a keyframe is interpolated.
type Interp string

const (
	Linear     Interp = "linear"
	Bezier     Interp = "bezier"
	CatmullRom Interp = "catmull_rom"
)

// ErrDuplicateKey is returned when a channel holds two keys at the same frame.
var ErrDuplicateKey = errors.New("duplicate keyframe")

// Handle is a bezier tangent expressed as (dt, dv): dt in normalized
// segment time, dv in absolute value units.
type Handle [2]float64

// DT returns the time component of the handle.
func (h Handle) DT() float64 { return h[0] }

// DV returns the value component of the handle.
func (h Handle) DV() float64 { return h[1] }

// Keyframe is a value pinned at a frame.
type Keyframe struct {
	T      int     `yaml:"t" json:"t"`
	V      float64 `yaml:"v" json:"v"`
	Interp Interp  `yaml:"interp,omitempty" json:"interp,omitempty"`
	InTan  *Handle `yaml:"in_tan,omitempty" json:"in_tan,omitempty"`
	OutTan *Handle `yaml:"out_tan,omitempty" json:"out_tan,omitempty"`
}

// Channel is either a sorted list of keys or a constant value.
type Channel struct {
	Keys  []Keyframe `yaml:"keys,omitempty" json:"keys,omitempty"`
	Value *float64   `yaml:"value,omitempty" json:"value,omitempty"`
}

// NewChannel builds a keyed channel, sorting the keys by frame.
func NewChannel(keys []Keyframe) (Channel, error) {
	ch := Channel{Keys: append([]Keyframe(nil), keys...)}
	if err := ch.Normalize(); err != nil {
		return Channel{}, err
	}
	return ch, nil
}

// Constant builds a channel that always evaluates to v.
func Constant(v float64) Channel {
	return Channel{Value: &v}
}

// Normalize sorts the keys ascending by frame and rejects duplicates.
func (c *Channel) Normalize() error {
	sort.SliceStable(c.Keys, func(i, j int) bool {
		return c.Keys[i].T < c.Keys[j].T
	})
	for i := 1; i < len(c.Keys); i++ {
		if c.Keys[i].T == c.Keys[i-1].T {
			return fmt.Errorf("%w at t=%d", ErrDuplicateKey, c.Keys[i].T)
		}
	}
	for _, k := range c.Keys {
		if k.T < 0 {
			return fmt.Errorf("keyframe frame must be non-negative, got %d", k.T)
		}
	}
	return nil
}

// Evaluate returns the channel value at frame. Keys take precedence over the
// constant value; def is used when the channel holds neither.
func (c Channel) Evaluate(frame int, def float64) float64 {
	if len(c.Keys) > 0 {
		return Evaluate(c.Keys, frame, def)
	}
	if c.Value != nil {
		return *c.Value
	}
	return def
}

// Evaluate interpolates sorted keys at frame. Frames outside the keyed range
// hold the first or last value; a frame landing on a key returns that key's
// value exactly. The interpolation mode of the right-hand key governs the
// segment.
func Evaluate(keys []Keyframe, frame int, def float64) float64 {
	if len(keys) == 0 {
		return def
	}
	if frame <= keys[0].T {
		return keys[0].V
	}
	last := len(keys) - 1
	if frame >= keys[last].T {
		return keys[last].V
	}

	lo, hi := 0, last
	for lo <= hi {
		mid := (lo + hi) / 2
		switch {
		case keys[mid].T == frame:
			return keys[mid].V
		case keys[mid].T < frame:
			lo = mid + 1
		default:
			hi = mid - 1
		}
	}
	i1 := lo
	i0 := i1 - 1
	k0, k1 := keys[i0], keys[i1]

	span := k1.T - k0.T
	if span < 1 {
		span = 1
	}
	u := clamp01(float64(frame-k0.T) / float64(span))

	switch k1.Interp {
	case Linear:
		return lerp(k0.V, k1.V, u)
	case Bezier, "":
		return evalBezier(k0, k1, u)
	case CatmullRom:
		p1, p2 := k0.V, k1.V
		p0, p3 := p1, p2
		if i0-1 >= 0 {
			p0 = keys[i0-1].V
		}
		if i1+1 < len(keys) {
			p3 = keys[i1+1].V
		}
		return catmullRom(u, p0, p1, p2, p3)
	default:
		return lerp(k0.V, k1.V, u)
	}
}

// lerp performs linear interpolation between a and b
func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

func catmullRom(u, p0, p1, p2, p3 float64) float64 {
	u2 := u * u
	u3 := u2 * u
	return 0.5 * (2*p1 +
		(-p0+p2)*u +
		(2*p0-5*p1+4*p2-p3)*u2 +
		(-p0+3*p1-3*p2+p3)*u3)
}
