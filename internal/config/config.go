package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config captures the compilation, caption, and encoder configuration for a
// run. Values map onto the compilation engine's knobs; the loading mechanism
// is plain YAML at the run root.
type Config struct {
	Version  int            `yaml:"version"`
	Compile  CompileConfig  `yaml:"compile"`
	Captions CaptionsConfig `yaml:"captions"`
	Video    VideoConfig    `yaml:"video"`
	Audio    AudioConfig    `yaml:"audio"`
	Tools    ToolsConfig    `yaml:"tools"`
	Timeouts TimeoutsConfig `yaml:"timeouts"`
	Render   RenderConfig   `yaml:"render"`
}

// CompileConfig groups the timeline and synthesis parameters. MinSlotSec and
// EffectProbability are pointers because zero is a meaningful setting for
// both (no merge floor, no effects) and must survive defaulting.
type CompileConfig struct {
	Policy            string      `yaml:"policy"` // equal_time or beat_weighted
	SubSegmentSec     float64     `yaml:"sub_segment_s"`
	TargetSlotSec     float64     `yaml:"target_slot_s"`
	MinSlotSec        *float64    `yaml:"min_slot_s,omitempty"`
	CrossfadeSec      float64     `yaml:"crossfade_s"`
	EffectProbability *float64    `yaml:"effect_probability,omitempty"`
	Speed             SpeedConfig `yaml:"speed"`
}

// MinSlotSecValue returns the effective merge floor applying defaults.
func (c CompileConfig) MinSlotSecValue() float64 {
	if c.MinSlotSec == nil {
		return 0.75
	}
	return *c.MinSlotSec
}

// EffectProbabilityValue returns the effective effect probability applying
// defaults.
func (c CompileConfig) EffectProbabilityValue() float64 {
	if c.EffectProbability == nil {
		return 0.35
	}
	return *c.EffectProbability
}

// SpeedConfig controls beat-driven playback speed modulation.
type SpeedConfig struct {
	Base           float64 `yaml:"base"`
	Min            float64 `yaml:"min"`
	Max            float64 `yaml:"max"`
	FastBeatSec    float64 `yaml:"fast_beat_s"`
	SlowBeatSec    float64 `yaml:"slow_beat_s"`
	FastMultiplier float64 `yaml:"fast_multiplier"`
	SlowMultiplier float64 `yaml:"slow_multiplier"`
}

// CaptionsConfig controls karaoke caption grouping and styling.
type CaptionsConfig struct {
	Enabled           *bool   `yaml:"enabled,omitempty"`
	WordsPerLine      int     `yaml:"words_per_line"`
	HighlightOffset   float64 `yaml:"highlight_offset_frac"`
	HighlightDuration float64 `yaml:"highlight_duration_frac"`
	FontName          string  `yaml:"font_name"`
	FontSize          int     `yaml:"font_size"`
	MarginV           int     `yaml:"margin_v"`
	PrimaryColor      string  `yaml:"primary_color"`
	HighlightColor    string  `yaml:"highlight_color"`
	OutlineColor      string  `yaml:"outline_color"`
}

// EnabledValue returns the effective captions flag applying defaults.
func (c CaptionsConfig) EnabledValue() bool {
	if c.Enabled == nil {
		return true
	}
	return *c.Enabled
}

// VideoConfig contains video sizing and encoder information.
type VideoConfig struct {
	Width       int    `yaml:"width"`
	Height      int    `yaml:"height"`
	FPS         int    `yaml:"fps"`
	Codec       string `yaml:"codec"`
	Preset      string `yaml:"preset"`
	BitrateKbps int    `yaml:"bitrate_kbps"`
}

// AudioConfig describes audio encoding parameters for the final mux.
type AudioConfig struct {
	ACodec      string `yaml:"acodec"`
	BitrateKbps int    `yaml:"bitrate_kbps"`
	SampleRate  int    `yaml:"sample_rate"`
}

// ToolsConfig names the external binaries the compiler shells out to.
type ToolsConfig struct {
	FFmpeg  string `yaml:"ffmpeg"`
	FFprobe string `yaml:"ffprobe"`
	Whisper string `yaml:"whisper"`
	Model   string `yaml:"whisper_model"`
}

// TimeoutsConfig bounds collaborator calls in seconds. On timeout the job
// takes the documented degraded path instead of blocking.
type TimeoutsConfig struct {
	BeatsSec      int `yaml:"beats_s"`
	TranscribeSec int `yaml:"transcribe_s"`
}

// RenderConfig controls slot render execution.
type RenderConfig struct {
	Concurrency int `yaml:"concurrency"`
}

// Default returns the baseline configuration. The compilation constants match
// the tuning the legacy pipeline converged on.
func Default() Config {
	return Config{
		Version: 1,
		Compile: CompileConfig{
			Policy:            "equal_time",
			SubSegmentSec:     2.0,
			TargetSlotSec:     5.0,
			MinSlotSec:        floatPtr(0.75),
			CrossfadeSec:      0.15,
			EffectProbability: floatPtr(0.35),
			Speed: SpeedConfig{
				Base:           1.0,
				Min:            0.75,
				Max:            3.0,
				FastBeatSec:    0.4,
				SlowBeatSec:    0.8,
				FastMultiplier: 1.25,
				SlowMultiplier: 0.8,
			},
		},
		Captions: CaptionsConfig{
			Enabled:           boolPtr(true),
			WordsPerLine:      4,
			HighlightOffset:   0.1,
			HighlightDuration: 0.8,
			FontName:          "Arial",
			FontSize:          36,
			MarginV:           50,
			PrimaryColor:      "white",
			HighlightColor:    "yellow",
			OutlineColor:      "black",
		},
		Video: VideoConfig{
			Width:       1280,
			Height:      720,
			FPS:         24,
			Codec:       "libx264",
			Preset:      "medium",
			BitrateKbps: 5000,
		},
		Audio: AudioConfig{
			ACodec:      "aac",
			BitrateKbps: 192,
			SampleRate:  44100,
		},
		Tools: ToolsConfig{
			FFmpeg:  "ffmpeg",
			FFprobe: "ffprobe",
			Whisper: "whisper",
			Model:   "medium",
		},
		Timeouts: TimeoutsConfig{
			BeatsSec:      120,
			TranscribeSec: 600,
		},
		Render: RenderConfig{
			Concurrency: 0, // 0 = number of CPUs
		},
	}
}

// Load reads the YAML configuration from disk if it exists, otherwise returns
// the default configuration.
func Load(path string) (Config, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := Default()
			cfg.ApplyDefaults()
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

// ApplyDefaults ensures nested fields fall back to sensible defaults when the
// YAML omits them.
func (c *Config) ApplyDefaults() {
	defaults := Default()

	if c.Version == 0 {
		c.Version = defaults.Version
	}
	if c.Compile.Policy == "" {
		c.Compile.Policy = defaults.Compile.Policy
	}
	if c.Compile.SubSegmentSec == 0 {
		c.Compile.SubSegmentSec = defaults.Compile.SubSegmentSec
	}
	if c.Compile.TargetSlotSec == 0 {
		c.Compile.TargetSlotSec = defaults.Compile.TargetSlotSec
	}
	if c.Compile.MinSlotSec == nil {
		c.Compile.MinSlotSec = defaults.Compile.MinSlotSec
	}
	if c.Compile.CrossfadeSec == 0 {
		c.Compile.CrossfadeSec = defaults.Compile.CrossfadeSec
	}
	if c.Compile.EffectProbability == nil {
		c.Compile.EffectProbability = defaults.Compile.EffectProbability
	}
	if c.Compile.Speed.Base == 0 {
		c.Compile.Speed.Base = defaults.Compile.Speed.Base
	}
	if c.Compile.Speed.Min == 0 {
		c.Compile.Speed.Min = defaults.Compile.Speed.Min
	}
	if c.Compile.Speed.Max == 0 {
		c.Compile.Speed.Max = defaults.Compile.Speed.Max
	}
	if c.Compile.Speed.FastBeatSec == 0 {
		c.Compile.Speed.FastBeatSec = defaults.Compile.Speed.FastBeatSec
	}
	if c.Compile.Speed.SlowBeatSec == 0 {
		c.Compile.Speed.SlowBeatSec = defaults.Compile.Speed.SlowBeatSec
	}
	if c.Compile.Speed.FastMultiplier == 0 {
		c.Compile.Speed.FastMultiplier = defaults.Compile.Speed.FastMultiplier
	}
	if c.Compile.Speed.SlowMultiplier == 0 {
		c.Compile.Speed.SlowMultiplier = defaults.Compile.Speed.SlowMultiplier
	}
	if c.Captions.Enabled == nil {
		c.Captions.Enabled = boolPtr(true)
	}
	if c.Captions.WordsPerLine == 0 {
		c.Captions.WordsPerLine = defaults.Captions.WordsPerLine
	}
	if c.Captions.HighlightOffset == 0 {
		c.Captions.HighlightOffset = defaults.Captions.HighlightOffset
	}
	if c.Captions.HighlightDuration == 0 {
		c.Captions.HighlightDuration = defaults.Captions.HighlightDuration
	}
	if c.Captions.FontName == "" {
		c.Captions.FontName = defaults.Captions.FontName
	}
	if c.Captions.FontSize == 0 {
		c.Captions.FontSize = defaults.Captions.FontSize
	}
	if c.Captions.MarginV == 0 {
		c.Captions.MarginV = defaults.Captions.MarginV
	}
	if c.Captions.PrimaryColor == "" {
		c.Captions.PrimaryColor = defaults.Captions.PrimaryColor
	}
	if c.Captions.HighlightColor == "" {
		c.Captions.HighlightColor = defaults.Captions.HighlightColor
	}
	if c.Captions.OutlineColor == "" {
		c.Captions.OutlineColor = defaults.Captions.OutlineColor
	}
	if c.Video.Width == 0 {
		c.Video.Width = defaults.Video.Width
	}
	if c.Video.Height == 0 {
		c.Video.Height = defaults.Video.Height
	}
	if c.Video.FPS == 0 {
		c.Video.FPS = defaults.Video.FPS
	}
	if c.Video.Codec == "" {
		c.Video.Codec = defaults.Video.Codec
	}
	if c.Video.Preset == "" {
		c.Video.Preset = defaults.Video.Preset
	}
	if c.Video.BitrateKbps == 0 {
		c.Video.BitrateKbps = defaults.Video.BitrateKbps
	}
	if c.Audio.ACodec == "" {
		c.Audio.ACodec = defaults.Audio.ACodec
	}
	if c.Audio.BitrateKbps == 0 {
		c.Audio.BitrateKbps = defaults.Audio.BitrateKbps
	}
	if c.Audio.SampleRate == 0 {
		c.Audio.SampleRate = defaults.Audio.SampleRate
	}
	if c.Tools.FFmpeg == "" {
		c.Tools.FFmpeg = defaults.Tools.FFmpeg
	}
	if c.Tools.FFprobe == "" {
		c.Tools.FFprobe = defaults.Tools.FFprobe
	}
	if c.Tools.Whisper == "" {
		c.Tools.Whisper = defaults.Tools.Whisper
	}
	if c.Tools.Model == "" {
		c.Tools.Model = defaults.Tools.Model
	}
	if c.Timeouts.BeatsSec == 0 {
		c.Timeouts.BeatsSec = defaults.Timeouts.BeatsSec
	}
	if c.Timeouts.TranscribeSec == 0 {
		c.Timeouts.TranscribeSec = defaults.Timeouts.TranscribeSec
	}
}

// Marshal returns the YAML encoding of the configuration.
func (c Config) Marshal() ([]byte, error) {
	buf, err := yaml.Marshal(&c)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return buf, nil
}

// FrameSeconds returns the duration of one output frame, the tolerance unit
// for all duration bookkeeping.
func (c Config) FrameSeconds() float64 {
	if c.Video.FPS <= 0 {
		return 1.0 / 24.0
	}
	return 1.0 / float64(c.Video.FPS)
}

func boolPtr(v bool) *bool {
	return &v
}

func floatPtr(v float64) *float64 {
	return &v
}
