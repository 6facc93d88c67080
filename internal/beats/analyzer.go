package beats

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"github.com/tijender7/dancer-latest/internal/media"
)

// analysisSampleRate is the mono PCM rate the song is decoded to before onset
// detection. Beat timing does not need more resolution than this.
const analysisSampleRate = 16000

// Analyzer detects beat timestamps and tempo for a song. It is consumed as a
// pure, replaceable collaborator by the compiler.
type Analyzer interface {
	Analyze(ctx context.Context, audioPath string) (BeatTrack, error)
}

// FFmpegAnalyzer decodes the song to PCM through ffmpeg and runs onset
// detection on the samples.
type FFmpegAnalyzer struct {
	Runner media.Runner
	FFmpeg string
}

// Analyze implements Analyzer. Decode failure returns *AudioDecodeError;
// low-confidence detection degrades to a synthetic track, never an error.
func (a *FFmpegAnalyzer) Analyze(ctx context.Context, audioPath string) (BeatTrack, error) {
	runner := a.Runner
	if runner == nil {
		runner = media.CmdRunner{}
	}
	ffmpeg := a.FFmpeg
	if ffmpeg == "" {
		ffmpeg = "ffmpeg"
	}

	args := []string{
		"-hide_banner",
		"-loglevel", "error",
		"-i", audioPath,
		"-vn",
		"-ac", "1",
		"-ar", "16000",
		"-f", "s16le",
		"pipe:1",
	}

	result, err := runner.Run(ctx, ffmpeg, args, media.RunOptions{})
	if err != nil {
		if stderr := strings.TrimSpace(string(result.Stderr)); stderr != "" {
			return BeatTrack{}, &AudioDecodeError{Path: audioPath, Err: wrapStderr(err, stderr)}
		}
		return BeatTrack{}, &AudioDecodeError{Path: audioPath, Err: err}
	}
	if len(result.Stdout) < 2 {
		return BeatTrack{}, &AudioDecodeError{Path: audioPath, Err: errEmptyDecode}
	}

	samples := decodePCM16(result.Stdout)
	track, _ := Detect(samples, analysisSampleRate)
	return track, nil
}

// decodePCM16 converts little-endian signed 16-bit PCM to [-1,1] floats.
func decodePCM16(raw []byte) []float64 {
	n := len(raw) / 2
	samples := make([]float64, n)
	for i := 0; i < n; i++ {
		v := int16(binary.LittleEndian.Uint16(raw[i*2:]))
		samples[i] = float64(v) / 32768.0
	}
	return samples
}

var errEmptyDecode = errors.New("ffmpeg produced no samples")

func wrapStderr(err error, stderr string) error {
	return fmt.Errorf("%w: %s", err, stderr)
}
