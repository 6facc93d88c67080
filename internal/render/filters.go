package render

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/tijender7/dancer-latest/internal/config"
	"github.com/tijender7/dancer-latest/internal/segment"
)

// BuildSlotFilterGraph constructs the ffmpeg filter_complex for one slot: the
// clip input is split per sub-segment, each branch trimmed to its source
// window, reversed when the sub-segment plays backward, retimed for speed and
// decorated with its effect, then all branches are concatenated and
// normalized to the output geometry. The graph's final label is "slot".
func BuildSlotFilterGraph(plan segment.Plan, cfg config.Config) (string, error) {
	if cfg.Video.Width <= 0 || cfg.Video.Height <= 0 {
		return "", errors.New("invalid video dimensions")
	}
	if cfg.Video.FPS <= 0 {
		return "", errors.New("invalid video fps")
	}
	if len(plan.Subs) == 0 {
		return "", fmt.Errorf("slot %d has no sub-segments", plan.Slot.Index)
	}

	var parts []string

	if plan.Hold {
		// Freeze the first frame for the slot duration.
		parts = append(parts, fmt.Sprintf(
			"[0:v]trim=end_frame=1,setpts=PTS-STARTPTS,tpad=stop_mode=clone:stop_duration=%s[held]",
			formatFloat(plan.Slot.Duration())))
		parts = append(parts, "[held]"+normalizeChain(cfg)+"[slot]")
		return strings.Join(parts, ";"), nil
	}

	n := len(plan.Subs)
	if n == 1 {
		parts = append(parts, "[0:v]"+subChain(plan.Subs[0])+"[b0]")
	} else {
		labels := make([]string, n)
		for i := range plan.Subs {
			labels[i] = fmt.Sprintf("[in%d]", i)
		}
		parts = append(parts, fmt.Sprintf("[0:v]split=%d%s", n, strings.Join(labels, "")))
		for i, sub := range plan.Subs {
			parts = append(parts, fmt.Sprintf("[in%d]%s[b%d]", i, subChain(sub), i))
		}
	}

	var concatIn strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&concatIn, "[b%d]", i)
	}
	if n > 1 {
		parts = append(parts, fmt.Sprintf("%sconcat=n=%d:v=1:a=0[cat]", concatIn.String(), n))
		parts = append(parts, "[cat]"+normalizeChain(cfg)+"[slot]")
	} else {
		parts = append(parts, "[b0]"+normalizeChain(cfg)+"[slot]")
	}

	return strings.Join(parts, ";"), nil
}

// subChain builds the per-branch filter chain for one sub-segment.
func subChain(sub segment.SubSegment) string {
	start := sub.SourceOffset
	end := sub.SourceOffset + sub.SourceLength()

	filters := []string{
		fmt.Sprintf("trim=start=%s:end=%s", formatFloat(start), formatFloat(end)),
		"setpts=PTS-STARTPTS",
	}
	if sub.Direction == segment.Backward {
		filters = append(filters, "reverse")
	}
	if sub.Speed > 0 && sub.Speed != 1.0 {
		filters = append(filters, fmt.Sprintf("setpts=PTS/%s", formatFloat(sub.Speed)))
	}
	if f := effectFilter(sub.Effect); f != "" {
		filters = append(filters, f)
	}
	return strings.Join(filters, ",")
}

// effectFilter maps an effect tag to its ffmpeg filter. Every effect is
// frame-local so segment timing is unaffected.
func effectFilter(e segment.Effect) string {
	switch e {
	case segment.EffectMirror:
		return "hflip"
	case segment.EffectMonochrome:
		return "hue=s=0"
	case segment.EffectContrastBoost:
		return "eq=contrast=1.3:saturation=1.2"
	case segment.EffectGammaShift:
		return "eq=gamma=1.25"
	default:
		return ""
	}
}

// normalizeChain scales and letterboxes to the output geometry and locks the
// frame rate so every slot concatenates cleanly.
func normalizeChain(cfg config.Config) string {
	return strings.Join([]string{
		fmt.Sprintf("scale=w=%d:h=%d:force_original_aspect_ratio=1:flags=lanczos", cfg.Video.Width, cfg.Video.Height),
		fmt.Sprintf("pad=w=%d:h=%d:x=(ow-iw)/2:y=(oh-ih)/2:color=black", cfg.Video.Width, cfg.Video.Height),
		"setsar=1",
		fmt.Sprintf("fps=%d", cfg.Video.FPS),
	}, ",")
}

// BuildSlotCmd assembles the ffmpeg arguments that render one slot to an
// intermediate file. Slots carry no audio; the song is mixed in at compose.
func BuildSlotCmd(plan segment.Plan, filterGraph, outputPath string, cfg config.Config) ([]string, error) {
	if strings.TrimSpace(outputPath) == "" {
		return nil, errors.New("output path is empty")
	}
	if strings.TrimSpace(filterGraph) == "" {
		return nil, errors.New("filter graph is empty")
	}

	args := []string{
		"-hide_banner",
		"-y",
	}

	if plan.Hold && !plan.Slot.Clip.Readable {
		// No usable frames at all: hold on black.
		args = append(args,
			"-f", "lavfi",
			"-i", fmt.Sprintf("color=c=black:s=%dx%d:r=%d:d=%s",
				cfg.Video.Width, cfg.Video.Height, cfg.Video.FPS, formatFloat(plan.Slot.Duration())),
		)
	} else {
		args = append(args, "-i", plan.Slot.Clip.Path)
	}

	args = append(args,
		"-filter_complex", filterGraph,
		"-map", "[slot]",
		"-an",
		"-t", formatFloat(plan.Slot.Duration()),
	)

	codec := strings.TrimSpace(cfg.Video.Codec)
	if codec == "" {
		codec = "libx264"
	}
	args = append(args, "-c:v", codec)
	if preset := strings.TrimSpace(cfg.Video.Preset); preset != "" {
		args = append(args, "-preset", preset)
	}
	if cfg.Video.BitrateKbps > 0 {
		args = append(args, "-b:v", fmt.Sprintf("%dk", cfg.Video.BitrateKbps))
	}
	args = append(args, "-pix_fmt", "yuv420p", outputPath)

	return args, nil
}

func formatFloat(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}
