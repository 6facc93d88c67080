// Package transcribe runs a whisper-family CLI against the song and returns
// per-word timestamps for caption synchronization. Transcription is a
// best-effort collaborator: callers treat failures and timeouts as a degraded
// path, never as a fatal compile error.
package transcribe

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tijender7/dancer-latest/internal/captions"
	"github.com/tijender7/dancer-latest/internal/media"
)

// Transcriber produces word-level timestamps for an audio file.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) ([]captions.Word, error)
}

// DefaultModel balances speed against accuracy for song lyrics.
const DefaultModel = "small"

// WhisperTranscriber shells out to a whisper CLI that writes word-timestamped
// JSON next to the audio stem in OutputDir.
type WhisperTranscriber struct {
	Runner    media.Runner
	Binary    string
	Model     string
	OutputDir string
}

type word struct {
	Word  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

type segment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Words []word  `json:"words"`
}

type payload struct {
	Segments []segment `json:"segments"`
}

func (t *WhisperTranscriber) Transcribe(ctx context.Context, audioPath string) ([]captions.Word, error) {
	if t.Binary == "" {
		return nil, fmt.Errorf("transcribe: no whisper binary configured")
	}
	outDir := t.OutputDir
	if outDir == "" {
		outDir = filepath.Dir(audioPath)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("transcribe: ensure output dir: %w", err)
	}

	model := t.Model
	if model == "" {
		model = DefaultModel
	}
	args := []string{
		audioPath,
		"--model", model,
		"--output_format", "json",
		"--output_dir", outDir,
		"--word_timestamps", "True",
	}
	res, err := t.Runner.Run(ctx, t.Binary, args, media.RunOptions{})
	if err != nil {
		if msg := firstLine(string(res.Stderr)); msg != "" {
			return nil, fmt.Errorf("transcribe: run %s: %w: %s", t.Binary, err, msg)
		}
		return nil, fmt.Errorf("transcribe: run %s: %w", t.Binary, err)
	}

	jsonPath := filepath.Join(outDir, stem(audioPath)+".json")
	return LoadWords(jsonPath)
}

// LoadWords parses a whisper JSON transcript into flat word timestamps.
// Segments without per-word entries contribute nothing; the caption layer
// handles empty results.
func LoadWords(jsonPath string) ([]captions.Word, error) {
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, fmt.Errorf("transcribe: read transcript: %w", err)
	}
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("transcribe: parse transcript %s: %w", jsonPath, err)
	}
	var words []captions.Word
	for _, seg := range p.Segments {
		for _, w := range seg.Words {
			text := strings.TrimSpace(w.Word)
			if text == "" {
				continue
			}
			words = append(words, captions.Word{Text: text, Start: w.Start, End: w.End})
		}
	}
	return words, nil
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
