package project

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ivlev/camrig/internal/config"
)

// Project file names looked up when Load is given a directory.
var projectFileNames = []string{"project.json", "project.yaml", "project.yml"}

// Load reads a project from a YAML or JSON file, or from the project file
// inside a directory.
func Load(path string) (*Project, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat project: %w", err)
	}
	if info.IsDir() {
		path, err = resolveProjectFile(path)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read project: %w", err)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

func resolveProjectFile(dir string) (string, error) {
	for _, name := range projectFileNames {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no project file found in %s: %w", dir, fs.ErrNotExist)
}

// Parse decodes a YAML or JSON document and normalizes it.
func Parse(data []byte) (*Project, error) {
	var p Project
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse project: %w", err)
	}
	if err := p.Normalize(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Write writes the project to path. A .json extension selects JSON,
// anything else YAML.
func Write(p *Project, path string) error {
	data, err := encode(p, path)
	if err != nil {
		return fmt.Errorf("failed to encode project: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

func encode(p *Project, path string) ([]byte, error) {
	if !strings.EqualFold(filepath.Ext(path), ".json") {
		return yaml.Marshal(p)
	}
	doc, err := p.Document()
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(doc, "", "  ")
}

// Save writes the project to path, or to project.json when path is a
// directory, creating parent directories. It returns the written file.
func Save(p *Project, path string) (string, error) {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, projectFileNames[0])
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create project dir: %w", err)
	}
	if err := Write(p, path); err != nil {
		return "", err
	}
	return path, nil
}

// Document returns the project as a generic document with the same keys
// as the project file.
func (p *Project) Document() (map[string]any, error) {
	data, err := yaml.Marshal(p)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Normalize fills meta defaults, sorts every ordered list and validates
// channels and constraint values. It is idempotent.
func (p *Project) Normalize() error {
	if p.Meta.FPS <= 0 {
		p.Meta.FPS = DefaultFPS
	}
	if p.Meta.Frames <= 0 {
		p.Meta.Frames = DefaultFrames
	}
	if p.Meta.Resolution == [2]int{} {
		p.Meta.Resolution = [2]int{DefaultWidth, DefaultHeight}
	}

	tl := &p.Timeline
	sort.SliceStable(tl.Markers, func(i, j int) bool { return tl.Markers[i].Frame < tl.Markers[j].Frame })
	sort.SliceStable(tl.Cuts, func(i, j int) bool { return tl.Cuts[i].Frame < tl.Cuts[j].Frame })
	sort.SliceStable(tl.Shots, func(i, j int) bool {
		if tl.Shots[i].Start != tl.Shots[j].Start {
			return tl.Shots[i].Start < tl.Shots[j].Start
		}
		return tl.Shots[i].End < tl.Shots[j].End
	})

	for i := range tl.Shots {
		s := &tl.Shots[i]
		s.mirrorOverrides()
		if s.End < s.Start {
			return fmt.Errorf("shot %d: end %d before start %d", i, s.End, s.Start)
		}
		if err := s.CameraConstraintsOverride.Validate(); err != nil {
			return fmt.Errorf("shot %d: %w", i, err)
		}
	}
	if err := tl.CameraConstraints.Validate(); err != nil {
		return fmt.Errorf("camera_constraints: %w", err)
	}

	for i := range tl.Tracks {
		tr := &tl.Tracks[i]
		for name, ch := range tr.Channels {
			if err := ch.Normalize(); err != nil {
				return fmt.Errorf("track %s channel %s: %w", tr.ID, name, err)
			}
			tr.Channels[name] = ch
		}
		sort.SliceStable(tr.Constraints, func(a, b int) bool { return tr.Constraints[a].Order < tr.Constraints[b].Order })
		sort.SliceStable(tr.Modifiers, func(a, b int) bool { return tr.Modifiers[a].Order < tr.Modifiers[b].Order })
	}
	return nil
}

// Validate returns non-fatal warnings about renderer settings.
func (p *Project) Validate(policy config.ValidationPolicy) []string {
	var warns []string
	if w := policy.ValidateSampler(p.Render.Sampler); w != "" {
		warns = append(warns, "render: "+w)
	}
	for i, s := range p.Timeline.Shots {
		for _, w := range policy.ValidateOverrides(s.RenderOverrides) {
			warns = append(warns, fmt.Sprintf("shot %d [%d-%d]: %s", i, s.Start, s.End, w))
		}
	}
	return warns
}
