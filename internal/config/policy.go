package config

import (
	"fmt"
	"sort"
	"strings"
)

// ValidationPolicy lists what the schema layer accepts without warning.
// It is passed explicitly so callers can validate against other renderer
// installs.
type ValidationPolicy struct {
	KnownSamplers       []string
	AllowedOverrideKeys []string
}

// DefaultValidationPolicy returns the policy for a stock A1111 Deforum setup.
func DefaultValidationPolicy() ValidationPolicy {
	return ValidationPolicy{
		KnownSamplers: []string{
			"Euler a",
			"Euler",
			"LMS",
			"Heun",
			"DPM2",
			"DPM2 a",
			"DPM++ 2S a",
			"DPM++ 2M",
			"DPM++ SDE",
			"DPM++ 2M Karras",
			"DPM++ SDE Karras",
			"DDIM",
			"UniPC",
		},
		AllowedOverrideKeys: []string{"sampler", "steps", "cfg", "seed_mode", "prompts", "negative_prompts"},
	}
}

// ValidateSampler returns a warning for sampler names outside the registry,
// or "" when the name is known or empty. Unknown samplers may still work
// depending on the renderer's extensions, so this never fails.
func (p ValidationPolicy) ValidateSampler(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	for _, s := range p.KnownSamplers {
		if s == name {
			return ""
		}
	}
	return fmt.Sprintf("sampler %q is not in the known sampler registry; it may still work depending on the renderer install", name)
}

// ValidateOverrides returns one warning per unknown override key plus a
// sampler warning when the overrides name an unknown sampler. Warnings are
// sorted by key for stable output.
func (p ValidationPolicy) ValidateOverrides(overrides map[string]any) []string {
	allowed := make(map[string]bool, len(p.AllowedOverrideKeys))
	for _, k := range p.AllowedOverrideKeys {
		allowed[k] = true
	}

	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var warns []string
	for _, k := range keys {
		if !allowed[k] {
			warns = append(warns, fmt.Sprintf("unknown override key: %s", k))
		}
	}
	if s, ok := overrides["sampler"].(string); ok {
		if w := p.ValidateSampler(s); w != "" {
			warns = append(warns, w)
		}
	}
	return warns
}
