package beats

import (
	"fmt"
)

// DefaultTempoBPM seeds the synthetic fallback when no tempo could be
// estimated from the audio.
const DefaultTempoBPM = 120.0

// BeatTrack is the ordered beat timeline for one song. It is created once per
// job and read-only afterwards.
type BeatTrack struct {
	Times    []float64 // beat timestamps in seconds, ascending, first at 0.0
	TempoBPM float64
	Duration float64 // total audio duration in seconds

	// Synthetic is set when the track was generated from an estimated tempo
	// instead of detected onsets (low confidence or analyzer timeout).
	Synthetic bool
}

// AudioDecodeError is fatal: nothing downstream can be synchronized when the
// song cannot be decoded.
type AudioDecodeError struct {
	Path string
	Err  error
}

func (e *AudioDecodeError) Error() string {
	return fmt.Sprintf("decode audio %s: %v", e.Path, e.Err)
}

func (e *AudioDecodeError) Unwrap() error {
	return e.Err
}

// Synthetic builds an evenly spaced beat track for the given duration. The
// track always starts at 0.0 and is never empty.
func Synthetic(duration, bpm float64) BeatTrack {
	if bpm <= 0 {
		bpm = DefaultTempoBPM
	}
	if duration <= 0 {
		return BeatTrack{Times: []float64{0}, TempoBPM: bpm, Duration: duration, Synthetic: true}
	}

	interval := 60.0 / bpm
	times := make([]float64, 0, int(duration/interval)+1)
	for t := 0.0; t < duration; t += interval {
		times = append(times, t)
	}
	return BeatTrack{Times: times, TempoBPM: bpm, Duration: duration, Synthetic: true}
}

// IntervalAt returns the local beat interval around the given timestamp,
// falling back to the tempo-derived interval when the track is too sparse.
func (t BeatTrack) IntervalAt(at float64) float64 {
	fallback := 0.5
	if t.TempoBPM > 0 {
		fallback = 60.0 / t.TempoBPM
	}
	if len(t.Times) < 2 {
		return fallback
	}

	for i := 1; i < len(t.Times); i++ {
		if t.Times[i] > at {
			return t.Times[i] - t.Times[i-1]
		}
	}
	return t.Times[len(t.Times)-1] - t.Times[len(t.Times)-2]
}
