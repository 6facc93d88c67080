package render

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/tijender7/dancer-latest/internal/config"
)

// BoundaryFades computes the crossfade duration for each boundary between
// adjacent slots. The configured duration is reduced to half the shorter
// neighbor so a fade never consumes more than half of either slot.
func BoundaryFades(slotDurations []float64, crossfade float64) []float64 {
	if len(slotDurations) < 2 {
		return nil
	}
	fades := make([]float64, len(slotDurations)-1)
	for i := range fades {
		f := crossfade
		if f < 0 {
			f = 0
		}
		if half := slotDurations[i] / 2; f > half {
			f = half
		}
		if half := slotDurations[i+1] / 2; f > half {
			f = half
		}
		fades[i] = f
	}
	return fades
}

// XfadeOffsets computes the xfade start offset for each boundary. Boundary i
// fades across the cut at cumulative slot time, centered by starting the
// transition half a fade early. With the clone padding applied by
// BuildComposeArgs this keeps the composed duration exactly equal to the sum
// of slot durations.
func XfadeOffsets(slotDurations, fades []float64) []float64 {
	offsets := make([]float64, len(fades))
	cum := 0.0
	for i, f := range fades {
		cum += slotDurations[i]
		offsets[i] = cum - f/2
	}
	return offsets
}

// ComposeInput is one rendered slot file in timeline order.
type ComposeInput struct {
	Path     string
	Duration float64
}

// ComposeSpec describes the final assembly: slot files, the song, optional
// subtitles, and the exact output duration.
type ComposeSpec struct {
	Slots         []ComposeInput
	AudioPath     string
	SubtitlesPath string
	Crossfade     float64
	TotalDuration float64
	OutputPath    string
}

// BuildComposeArgs assembles the ffmpeg invocation that crossfades the slot
// files into the final video with the song as its audio track. Each slot is
// padded with cloned boundary frames (half a fade on each faded side) so the
// xfade chain preserves every slot's full duration.
func BuildComposeArgs(spec ComposeSpec, cfg config.Config) ([]string, error) {
	n := len(spec.Slots)
	if n == 0 {
		return nil, errors.New("no slot inputs")
	}
	if strings.TrimSpace(spec.AudioPath) == "" {
		return nil, errors.New("audio path is empty")
	}
	if strings.TrimSpace(spec.OutputPath) == "" {
		return nil, errors.New("output path is empty")
	}

	durations := make([]float64, n)
	for i, in := range spec.Slots {
		if in.Duration <= 0 {
			return nil, fmt.Errorf("slot input %d has non-positive duration", i)
		}
		durations[i] = in.Duration
	}
	fades := BoundaryFades(durations, spec.Crossfade)
	offsets := XfadeOffsets(durations, fades)

	args := []string{"-hide_banner", "-y"}
	for _, in := range spec.Slots {
		args = append(args, "-i", in.Path)
	}
	args = append(args, "-i", spec.AudioPath)
	audioInput := n

	var graph []string
	for i := range spec.Slots {
		head, tail := 0.0, 0.0
		if i > 0 {
			head = fades[i-1] / 2
		}
		if i < n-1 {
			tail = fades[i] / 2
		}
		if head == 0 && tail == 0 {
			graph = append(graph, fmt.Sprintf("[%d:v]null[p%d]", i, i))
			continue
		}
		var pads []string
		if head > 0 {
			pads = append(pads, fmt.Sprintf("start_mode=clone:start_duration=%s", formatFloat(head)))
		}
		if tail > 0 {
			pads = append(pads, fmt.Sprintf("stop_mode=clone:stop_duration=%s", formatFloat(tail)))
		}
		graph = append(graph, fmt.Sprintf("[%d:v]tpad=%s[p%d]", i, strings.Join(pads, ":"), i))
	}

	last := "[p0]"
	for i := 0; i < n-1; i++ {
		out := fmt.Sprintf("[x%d]", i)
		if i == n-2 {
			out = "[vmix]"
		}
		graph = append(graph, fmt.Sprintf("%s[p%d]xfade=transition=fade:duration=%s:offset=%s%s",
			last, i+1, formatFloat(fades[i]), formatFloat(offsets[i]), out))
		last = out
	}
	if n == 1 {
		graph = append(graph, "[p0]null[vmix]")
	}

	if strings.TrimSpace(spec.SubtitlesPath) != "" {
		graph = append(graph, fmt.Sprintf("[vmix]ass=%s[vout]", escapeFilterPath(spec.SubtitlesPath)))
	} else {
		graph = append(graph, "[vmix]null[vout]")
	}

	args = append(args,
		"-filter_complex", strings.Join(graph, ";"),
		"-map", "[vout]",
		"-map", fmt.Sprintf("%d:a:0", audioInput),
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
	args = append(args, "-pix_fmt", "yuv420p", "-r", strconv.Itoa(cfg.Video.FPS))

	if acodec := strings.TrimSpace(cfg.Audio.ACodec); acodec != "" {
		args = append(args, "-c:a", acodec)
	}
	if cfg.Audio.BitrateKbps > 0 {
		args = append(args, "-b:a", fmt.Sprintf("%dk", cfg.Audio.BitrateKbps))
	}
	if cfg.Audio.SampleRate > 0 {
		args = append(args, "-ar", strconv.Itoa(cfg.Audio.SampleRate))
	}

	if spec.TotalDuration > 0 {
		args = append(args, "-t", formatFloat(spec.TotalDuration))
	}

	args = append(args, "-movflags", "+faststart", spec.OutputPath)
	return args, nil
}

func escapeFilterPath(value string) string {
	value = strings.ReplaceAll(value, `\`, `\\`)
	value = strings.ReplaceAll(value, ":", `\:`)
	value = strings.ReplaceAll(value, "'", `\'`)
	value = strings.ReplaceAll(value, ",", `\,`)
	return value
}
