// Package timeline evaluates track channels at a frame.
package timeline

import "github.com/ivlev/camrig/internal/project"

// Values maps channel names to their value at one frame.
type Values map[string]float64

// Get returns the named value, or def when the channel is absent.
func (v Values) Get(name string, def float64) float64 {
	if x, ok := v[name]; ok {
		return x
	}
	return def
}

// Has reports whether the channel was evaluated.
func (v Values) Has(name string) bool {
	_, ok := v[name]
	return ok
}

// EvalTrack evaluates every channel of the track independently. Channels
// with neither keys nor a constant value read as 0.
func EvalTrack(track project.Track, frame int) Values {
	out := make(Values, len(track.Channels))
	for name, ch := range track.Channels {
		out[name] = ch.Evaluate(frame, 0)
	}
	return out
}

// EvalTracks folds several tracks into one set of values; a later track
// overwrites channels of the same name from earlier ones.
func EvalTracks(tracks []project.Track, frame int) Values {
	out := make(Values)
	for _, tr := range tracks {
		for name, v := range EvalTrack(tr, frame) {
			out[name] = v
		}
	}
	return out
}
