package media

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ProbeInfo summarises the ffprobe metadata the compiler cares about.
type ProbeInfo struct {
	DurationSeconds float64
	FrameRate       float64
	HasVideo        bool
	HasAudio        bool
}

type ffprobeOutput struct {
	Format  ffprobeFormat   `json:"format"`
	Streams []ffprobeStream `json:"streams"`
}

type ffprobeFormat struct {
	FormatName string `json:"format_name"`
	Duration   string `json:"duration"`
}

type ffprobeStream struct {
	CodecType    string `json:"codec_type"`
	RFrameRate   string `json:"r_frame_rate"`
	AvgFrameRate string `json:"avg_frame_rate"`
}

// Probe runs ffprobe against target and parses the JSON report.
func Probe(ctx context.Context, runner Runner, ffprobe, target string) (ProbeInfo, error) {
	args := []string{
		"-v", "error",
		"-show_format",
		"-show_streams",
		"-print_format", "json",
		target,
	}

	result, runErr := runner.Run(ctx, ffprobe, args, RunOptions{})
	if runErr != nil {
		stderr := strings.TrimSpace(string(result.Stderr))
		if stderr != "" {
			return ProbeInfo{}, fmt.Errorf("ffprobe %s: %w: %s", target, runErr, stderr)
		}
		return ProbeInfo{}, fmt.Errorf("ffprobe %s: %w", target, runErr)
	}
	if len(result.Stdout) == 0 {
		return ProbeInfo{}, fmt.Errorf("ffprobe %s: produced no output", target)
	}

	var parsed ffprobeOutput
	if err := json.Unmarshal(result.Stdout, &parsed); err != nil {
		return ProbeInfo{}, fmt.Errorf("decode ffprobe output for %s: %w", target, err)
	}

	info := ProbeInfo{}
	if parsed.Format.Duration != "" {
		if v, err := strconv.ParseFloat(parsed.Format.Duration, 64); err == nil {
			info.DurationSeconds = v
		}
	}
	for _, stream := range parsed.Streams {
		switch stream.CodecType {
		case "video":
			info.HasVideo = true
			if info.FrameRate == 0 {
				info.FrameRate = parseFrameRate(stream.AvgFrameRate)
			}
			if info.FrameRate == 0 {
				info.FrameRate = parseFrameRate(stream.RFrameRate)
			}
		case "audio":
			info.HasAudio = true
		}
	}

	return info, nil
}

// parseFrameRate converts ffprobe's rational notation ("30000/1001") to a
// frames-per-second value.
func parseFrameRate(value string) float64 {
	value = strings.TrimSpace(value)
	if value == "" || value == "0/0" {
		return 0
	}
	num, den, found := strings.Cut(value, "/")
	if !found {
		if v, err := strconv.ParseFloat(value, 64); err == nil {
			return v
		}
		return 0
	}
	n, errN := strconv.ParseFloat(num, 64)
	d, errD := strconv.ParseFloat(den, 64)
	if errN != nil || errD != nil || d == 0 {
		return 0
	}
	return n / d
}
