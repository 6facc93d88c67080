package config

import (
	"fmt"
)

// ValidationResult captures a single validation finding.
type ValidationResult struct {
	Level   string `json:"level"` // "error" or "warning"
	Message string `json:"message"`
}

// Validate runs all validations against the config and returns structured
// results. An empty slice means the config is usable as-is.
func (c Config) Validate() []ValidationResult {
	var results []ValidationResult
	results = append(results, c.validateCompile()...)
	results = append(results, c.validateCaptions()...)
	results = append(results, c.validateEncoder()...)
	return results
}

// HasErrors reports whether any result is at error level.
func HasErrors(results []ValidationResult) bool {
	for _, r := range results {
		if r.Level == "error" {
			return true
		}
	}
	return false
}

func (c Config) validateCompile() []ValidationResult {
	var results []ValidationResult

	switch c.Compile.Policy {
	case "equal_time", "beat_weighted":
	default:
		results = append(results, errorf("compile.policy must be equal_time or beat_weighted, got %q", c.Compile.Policy))
	}
	if c.Compile.SubSegmentSec <= 0 {
		results = append(results, errorf("compile.sub_segment_s must be positive, got %g", c.Compile.SubSegmentSec))
	}
	if c.Compile.TargetSlotSec <= 0 {
		results = append(results, errorf("compile.target_slot_s must be positive, got %g", c.Compile.TargetSlotSec))
	}
	if minSlot := c.Compile.MinSlotSecValue(); minSlot < 0 {
		results = append(results, errorf("compile.min_slot_s must not be negative, got %g", minSlot))
	}
	if c.Compile.CrossfadeSec < 0 {
		results = append(results, errorf("compile.crossfade_s must not be negative, got %g", c.Compile.CrossfadeSec))
	}
	if p := c.Compile.EffectProbabilityValue(); p < 0 || p > 1 {
		results = append(results, errorf("compile.effect_probability must be within [0,1], got %g", p))
	}

	speed := c.Compile.Speed
	if speed.Min <= 0 || speed.Max <= 0 || speed.Base <= 0 {
		results = append(results, errorf("compile.speed base/min/max must all be positive"))
	} else if speed.Min > speed.Max {
		results = append(results, errorf("compile.speed.min %g exceeds compile.speed.max %g", speed.Min, speed.Max))
	}
	if speed.FastBeatSec > 0 && speed.SlowBeatSec > 0 && speed.FastBeatSec >= speed.SlowBeatSec {
		results = append(results, ValidationResult{
			Level:   "warning",
			Message: fmt.Sprintf("compile.speed.fast_beat_s %g is not below slow_beat_s %g; speed modulation is effectively disabled", speed.FastBeatSec, speed.SlowBeatSec),
		})
	}

	return results
}

func (c Config) validateCaptions() []ValidationResult {
	var results []ValidationResult

	if c.Captions.WordsPerLine <= 0 {
		results = append(results, errorf("captions.words_per_line must be positive, got %d", c.Captions.WordsPerLine))
	}
	if c.Captions.HighlightOffset < 0 || c.Captions.HighlightOffset >= 1 {
		results = append(results, errorf("captions.highlight_offset_frac must be within [0,1), got %g", c.Captions.HighlightOffset))
	}
	if c.Captions.HighlightDuration <= 0 || c.Captions.HighlightDuration > 1 {
		results = append(results, errorf("captions.highlight_duration_frac must be within (0,1], got %g", c.Captions.HighlightDuration))
	}
	if c.Captions.HighlightOffset+c.Captions.HighlightDuration > 1 {
		results = append(results, ValidationResult{
			Level:   "warning",
			Message: "captions highlight offset + duration exceed the line; the sweep will be clipped at the line end",
		})
	}

	return results
}

func (c Config) validateEncoder() []ValidationResult {
	var results []ValidationResult

	if c.Video.Width <= 0 || c.Video.Height <= 0 {
		results = append(results, errorf("video dimensions must be positive, got %dx%d", c.Video.Width, c.Video.Height))
	}
	if c.Video.FPS <= 0 {
		results = append(results, errorf("video.fps must be positive, got %d", c.Video.FPS))
	}
	if c.Render.Concurrency < 0 {
		results = append(results, errorf("render.concurrency must not be negative, got %d", c.Render.Concurrency))
	}

	return results
}

func errorf(format string, args ...any) ValidationResult {
	return ValidationResult{Level: "error", Message: fmt.Sprintf(format, args...)}
}
