package segment

import (
	"fmt"
	"math/rand"

	"github.com/tijender7/dancer-latest/internal/timeline"
)

// Direction is the playback direction of one sub-segment.
type Direction int

const (
	Forward Direction = iota
	Backward
)

func (d Direction) String() string {
	if d == Backward {
		return "backward"
	}
	return "forward"
}

// Effect tags a purely visual treatment attached to a sub-segment. Effects
// never alter segment timing.
type Effect string

const (
	EffectNone          Effect = ""
	EffectMirror        Effect = "mirror"
	EffectMonochrome    Effect = "monochrome"
	EffectContrastBoost Effect = "contrast_boost"
	EffectGammaShift    Effect = "gamma_shift"
)

var effectPool = []Effect{EffectMirror, EffectMonochrome, EffectContrastBoost, EffectGammaShift}

// SubSegment describes one contiguous stretch of the slot rendered in a
// single direction. Length is timeline seconds; the source material consumed
// is Length*Speed seconds starting at SourceOffset (running backwards from
// SourceOffset+Length*Speed when Direction is Backward).
type SubSegment struct {
	Direction    Direction
	SourceOffset float64
	Length       float64
	Speed        float64
	Effect       Effect
}

// SourceLength returns the seconds of source material the sub-segment reads.
func (s SubSegment) SourceLength() float64 {
	return s.Length * s.Speed
}

// Plan is the ordered sub-segment breakdown for one slot. Sub-segment lengths
// sum to the slot duration within one frame.
type Plan struct {
	Slot timeline.Slot
	Subs []SubSegment

	// Hold marks a degraded plan that freezes the clip's first frame for the
	// whole slot because no usable clip remained.
	Hold bool
}

// Duration returns the summed timeline length of the plan.
func (p Plan) Duration() float64 {
	var total float64
	for _, sub := range p.Subs {
		total += sub.Length
	}
	return total
}

// SkipClipError is non-fatal: the slot is reassigned to the next unused clip
// or filled with a hold frame, and the degradation is logged.
type SkipClipError struct {
	Path   string
	Reason string
}

func (e *SkipClipError) Error() string {
	return fmt.Sprintf("skip clip %s: %s", e.Path, e.Reason)
}

// Params tunes sub-segment synthesis. Values come straight from the
// configuration surface.
type Params struct {
	SubSegmentSec     float64
	EffectProbability float64
	Speed             SpeedParams
}

// SpeedParams scales playback speed inversely with the local beat interval.
type SpeedParams struct {
	Base           float64
	Min            float64
	Max            float64
	FastBeatSec    float64
	SlowBeatSec    float64
	FastMultiplier float64
	SlowMultiplier float64
}

// SpeedFor computes the slot's playback speed from its local beat interval,
// clamped to the configured bounds. Shorter intervals play faster.
func (p SpeedParams) SpeedFor(beatInterval float64) float64 {
	speed := p.Base
	if speed <= 0 {
		speed = 1.0
	}
	if beatInterval > 0 {
		if p.FastBeatSec > 0 && beatInterval <= p.FastBeatSec {
			speed *= orOne(p.FastMultiplier)
		} else if p.SlowBeatSec > 0 && beatInterval >= p.SlowBeatSec {
			speed *= orOne(p.SlowMultiplier)
		}
	}
	return clamp(speed, p.Min, p.Max)
}

// Build produces the slot's sub-segment plan: a deterministic ping-pong over
// the clip starting at offset 0, alternating forward/backward every
// SubSegmentSec of timeline, reflecting at the clip boundary when the read
// position would run past either end. The rng drives only effect selection;
// direction and offsets are fully determined by the slot and clip.
func Build(slot timeline.Slot, params Params, beatInterval float64, rng *rand.Rand) (Plan, error) {
	clip := slot.Clip
	if !clip.Readable {
		return Plan{}, &SkipClipError{Path: clip.Path, Reason: "clip is not readable"}
	}
	if clip.DurationSeconds <= 0 {
		return Plan{}, &SkipClipError{Path: clip.Path, Reason: "clip has zero duration"}
	}

	slotDur := slot.Duration()
	if slotDur <= 0 {
		return Plan{}, fmt.Errorf("slot %d has non-positive duration %g", slot.Index, slotDur)
	}

	subLen := params.SubSegmentSec
	if subLen <= 0 {
		subLen = 2.0
	}
	speed := params.Speed.SpeedFor(beatInterval)

	plan := Plan{Slot: slot}
	pos := 0.0 // read position in source seconds
	dir := Forward
	covered := 0.0
	const eps = 1e-9

	for covered < slotDur-eps {
		want := subLen
		if remaining := slotDur - covered; want > remaining {
			want = remaining
		}

		avail := clip.DurationSeconds - pos
		if dir == Backward {
			avail = pos
		}
		if avail <= eps {
			// Reflect at the boundary: reverse direction in place instead of
			// wrapping or truncating.
			dir = opposite(dir)
			avail = clip.DurationSeconds - pos
			if dir == Backward {
				avail = pos
			}
		}

		srcNeed := want * speed
		if srcNeed > avail {
			// Truncate at the clip boundary; the flip below reflects the
			// next sub-segment back into the clip.
			srcNeed = avail
			want = avail / speed
		}

		sub := SubSegment{
			Direction: dir,
			Length:    want,
			Speed:     speed,
		}
		if dir == Forward {
			sub.SourceOffset = pos
			pos += srcNeed
		} else {
			sub.SourceOffset = pos - srcNeed
			pos -= srcNeed
		}
		if params.EffectProbability > 0 && rng != nil && rng.Float64() < params.EffectProbability {
			sub.Effect = effectPool[rng.Intn(len(effectPool))]
		}

		plan.Subs = append(plan.Subs, sub)
		covered += want
		dir = opposite(dir)
	}

	// Pin the sum exactly to the slot duration; float accumulation across
	// many sub-segments must not leak past the one-frame tolerance.
	if len(plan.Subs) > 0 {
		if diff := slotDur - plan.Duration(); diff != 0 {
			plan.Subs[len(plan.Subs)-1].Length += diff
		}
	}

	return plan, nil
}

// HoldPlan fills a slot with its clip's first frame (or black when the clip
// is unreadable). Used when no replacement clip remains for a skipped slot.
func HoldPlan(slot timeline.Slot) Plan {
	return Plan{
		Slot: slot,
		Hold: true,
		Subs: []SubSegment{{
			Direction: Forward,
			Length:    slot.Duration(),
			Speed:     1.0,
		}},
	}
}

func opposite(d Direction) Direction {
	if d == Forward {
		return Backward
	}
	return Forward
}

func clamp(v, lo, hi float64) float64 {
	if lo > 0 && v < lo {
		return lo
	}
	if hi > 0 && v > hi {
		return hi
	}
	return v
}

func orOne(v float64) float64 {
	if v <= 0 {
		return 1.0
	}
	return v
}
