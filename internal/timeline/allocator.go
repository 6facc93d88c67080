package timeline

import (
	"errors"
	"fmt"
	"math"

	"github.com/tijender7/dancer-latest/internal/beats"
	"github.com/tijender7/dancer-latest/internal/media"
)

// ErrNoAssets is fatal: a timeline cannot be allocated without clips.
var ErrNoAssets = errors.New("no clip assets available")

// Policy selects the slot allocation strategy.
type Policy string

const (
	// PolicyEqualTime gives every clip one slot of duration/N, in catalog
	// order, strict no-repeat.
	PolicyEqualTime Policy = "equal_time"
	// PolicyBeatWeighted derives slot boundaries from beat timestamps and
	// assigns clips round-robin, cycling when there are more slots than
	// clips.
	PolicyBeatWeighted Policy = "beat_weighted"
)

// ParsePolicy validates a policy name from config or flags.
func ParsePolicy(value string) (Policy, error) {
	switch Policy(value) {
	case PolicyEqualTime, PolicyBeatWeighted:
		return Policy(value), nil
	case "":
		return PolicyEqualTime, nil
	}
	return "", fmt.Errorf("unknown allocation policy %q", value)
}

// Slot is a contiguous [Start, End) range of the final timeline bound to
// exactly one clip. Downstream stages may not reorder or resize slots.
type Slot struct {
	Index int
	Start float64
	End   float64
	Clip  media.ClipAsset

	// Cycling marks slots past the first full pass through the clip list
	// under PolicyBeatWeighted — the documented exception to no-repeat.
	Cycling bool
}

// Duration returns the slot length in seconds.
func (s Slot) Duration() float64 {
	return s.End - s.Start
}

// Options tunes allocation.
type Options struct {
	Policy Policy
	// TargetSlotSec drives the slot count under PolicyBeatWeighted.
	TargetSlotSec float64
	// MinSlotSec is the floor below which a slot merges into its
	// predecessor.
	MinSlotSec float64
}

// Allocate partitions the track duration into ordered slots, each bound to
// one clip. The final slot's end always equals the audio duration exactly;
// rounding remainder is absorbed there.
func Allocate(track beats.BeatTrack, clips []media.ClipAsset, opts Options) ([]Slot, error) {
	if len(clips) == 0 {
		return nil, ErrNoAssets
	}
	if track.Duration <= 0 {
		return nil, fmt.Errorf("allocate timeline: track duration %g is not positive", track.Duration)
	}

	var boundaries []float64
	switch opts.Policy {
	case PolicyEqualTime, "":
		boundaries = equalBoundaries(track.Duration, len(clips))
	case PolicyBeatWeighted:
		boundaries = beatBoundaries(track, opts.TargetSlotSec)
	default:
		return nil, fmt.Errorf("unknown allocation policy %q", opts.Policy)
	}

	boundaries = mergeShortSlots(boundaries, opts.MinSlotSec)

	slots := make([]Slot, 0, len(boundaries)-1)
	for i := 0; i < len(boundaries)-1; i++ {
		slot := Slot{
			Index: i,
			Start: boundaries[i],
			End:   boundaries[i+1],
			Clip:  clips[i%len(clips)],
		}
		if opts.Policy == PolicyBeatWeighted && i >= len(clips) {
			slot.Cycling = true
		}
		slots = append(slots, slot)
	}

	// Equal-time allocation is strict no-repeat: one slot per clip. Merging
	// can only shrink the slot count, which keeps that property.
	if (opts.Policy == PolicyEqualTime || opts.Policy == "") && len(slots) > len(clips) {
		return nil, fmt.Errorf("allocate timeline: %d slots for %d clips under equal_time", len(slots), len(clips))
	}

	return slots, nil
}

// equalBoundaries splits the duration into n equal slots; the final boundary
// is pinned to the duration so float accumulation cannot drift the total.
func equalBoundaries(duration float64, n int) []float64 {
	boundaries := make([]float64, n+1)
	slotDur := duration / float64(n)
	for i := 1; i < n; i++ {
		boundaries[i] = float64(i) * slotDur
	}
	boundaries[n] = duration
	return boundaries
}

// beatBoundaries derives the slot count from the target slot duration and
// snaps each interior boundary to the nearest beat timestamp.
func beatBoundaries(track beats.BeatTrack, targetSlotSec float64) []float64 {
	if targetSlotSec <= 0 {
		targetSlotSec = 5.0
	}

	count := int(math.Round(track.Duration / targetSlotSec))
	if count < 1 {
		count = 1
	}

	boundaries := make([]float64, 0, count+1)
	boundaries = append(boundaries, 0)
	for i := 1; i < count; i++ {
		ideal := float64(i) * track.Duration / float64(count)
		snapped := nearestBeat(track.Times, ideal)
		// Snapping can land on or before an earlier boundary; keep the
		// sequence strictly increasing and let the merge pass handle any
		// resulting runt slots.
		if snapped > boundaries[len(boundaries)-1] && snapped < track.Duration {
			boundaries = append(boundaries, snapped)
		}
	}
	boundaries = append(boundaries, track.Duration)
	return boundaries
}

func nearestBeat(beatTimes []float64, at float64) float64 {
	if len(beatTimes) == 0 {
		return at
	}
	best := beatTimes[0]
	bestDist := math.Abs(at - best)
	for _, t := range beatTimes[1:] {
		if d := math.Abs(at - t); d < bestDist {
			best = t
			bestDist = d
		}
	}
	return best
}

// mergeShortSlots removes the start boundary of every slot below the floor so
// the preceding slot absorbs the runt. The first slot has no predecessor, so
// it absorbs its successor instead.
func mergeShortSlots(boundaries []float64, minSlotSec float64) []float64 {
	if minSlotSec <= 0 || len(boundaries) <= 2 {
		return boundaries
	}

	out := append([]float64(nil), boundaries...)
	for i := 1; i < len(out); {
		if out[i]-out[i-1] >= minSlotSec || len(out) == 2 {
			i++
			continue
		}
		if i == 1 {
			out = append(out[:1], out[2:]...)
			continue
		}
		out = append(out[:i-1], out[i:]...)
	}
	return out
}
