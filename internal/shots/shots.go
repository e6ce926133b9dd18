// Package shots resolves the camera constraints in effect at each frame and
// splits frame ranges into segments and shots.
package shots

import (
	"github.com/google/go-cmp/cmp"

	"github.com/ivlev/camrig/internal/project"
)

// Segment is a maximal run of frames sharing the same effective
// constraints. Bounds are inclusive; Constraints may be nil.
type Segment struct {
	Start       int
	End         int
	Constraints *project.CameraConstraints
}

// Range is an inclusive frame range.
type Range struct {
	Start int
	End   int
}

// FindShot returns the first shot containing frame, or nil.
func FindShot(tl *project.Timeline, frame int) *project.Shot {
	for i := range tl.Shots {
		if tl.Shots[i].Contains(frame) {
			return &tl.Shots[i]
		}
	}
	return nil
}

// ConstraintsForFrame returns the global constraints overlaid with the
// override of the first shot containing frame. Either side may be absent;
// nil means no constraints apply.
func ConstraintsForFrame(tl *project.Timeline, frame int) *project.CameraConstraints {
	base := tl.CameraConstraints
	shot := FindShot(tl, frame)
	if shot == nil || shot.CameraConstraintsOverride == nil {
		return base
	}
	if base == nil {
		return shot.CameraConstraintsOverride
	}
	return base.Merge(shot.CameraConstraintsOverride)
}

// Equal compares constraints by the values they enforce.
func Equal(a, b *project.CameraConstraints) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return cmp.Equal(a.Filled(), b.Filled())
}

// Segmentize partitions [start, end] into contiguous segments of constant
// effective constraints. An empty range yields no segments.
func Segmentize(tl *project.Timeline, start, end int) []Segment {
	if end < start {
		return nil
	}
	var segs []Segment
	cur := ConstraintsForFrame(tl, start)
	segStart := start
	for f := start + 1; f <= end; f++ {
		c := ConstraintsForFrame(tl, f)
		if !Equal(c, cur) {
			segs = append(segs, Segment{Start: segStart, End: f - 1, Constraints: cur})
			segStart = f
			cur = c
		}
	}
	return append(segs, Segment{Start: segStart, End: end, Constraints: cur})
}

// SplitOnCuts splits [start, end] at every cut frame inside (start, end].
// A cut at frame f starts a new shot at f. Markers never split.
func SplitOnCuts(cuts []project.Cut, start, end int) []Range {
	if end < start {
		return nil
	}
	var out []Range
	cur := start
	for _, c := range cuts {
		if c.Frame <= cur || c.Frame > end {
			continue
		}
		out = append(out, Range{Start: cur, End: c.Frame - 1})
		cur = c.Frame
	}
	return append(out, Range{Start: cur, End: end})
}
