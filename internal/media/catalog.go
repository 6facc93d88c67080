package media

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const catalogVersion = 1

// ClipAsset is a handle to one source video clip. Assets are enumerated once
// from the discovery collaborator's resolved list and are immutable after
// that.
type ClipAsset struct {
	Path            string  `json:"path"`
	DurationSeconds float64 `json:"duration_seconds"`
	FrameRate       float64 `json:"frame_rate,omitempty"`
	Readable        bool    `json:"readable"`
}

// AudioAsset is the single selected song for a run.
type AudioAsset struct {
	Path            string  `json:"path"`
	DurationSeconds float64 `json:"duration_seconds"`
}

// Catalog is the read-only asset inventory a compilation job consumes. It is
// resolved once before the job starts; the core never scans the filesystem.
type Catalog struct {
	Version    int        `json:"version"`
	ResolvedAt time.Time  `json:"resolved_at"`
	Audio      AudioAsset `json:"audio"`
	Clips      []ClipAsset `json:"clips"`
}

// ReadableClips returns the clips that probed successfully, in catalog order.
func (c Catalog) ReadableClips() []ClipAsset {
	out := make([]ClipAsset, 0, len(c.Clips))
	for _, clip := range c.Clips {
		if clip.Readable && clip.DurationSeconds > 0 {
			out = append(out, clip)
		}
	}
	return out
}

// ResolveCatalog probes the supplied clip and audio paths and returns an
// ordered catalog. Unreadable clips are kept with Readable=false so the
// synthesizer can apply its skip policy; a failed audio probe is an error
// because nothing downstream can be synchronized without the song duration.
func ResolveCatalog(ctx context.Context, runner Runner, ffprobe string, clipPaths []string, audioPath string) (Catalog, error) {
	audioInfo, err := Probe(ctx, runner, ffprobe, audioPath)
	if err != nil {
		return Catalog{}, fmt.Errorf("probe audio: %w", err)
	}
	if audioInfo.DurationSeconds <= 0 {
		return Catalog{}, fmt.Errorf("probe audio: %s has no duration", audioPath)
	}

	catalog := Catalog{
		Version:    catalogVersion,
		ResolvedAt: time.Now().UTC(),
		Audio: AudioAsset{
			Path:            audioPath,
			DurationSeconds: audioInfo.DurationSeconds,
		},
		Clips: make([]ClipAsset, 0, len(clipPaths)),
	}

	for _, path := range clipPaths {
		clip := ClipAsset{Path: path}
		info, err := Probe(ctx, runner, ffprobe, path)
		if err == nil && info.HasVideo && info.DurationSeconds > 0 {
			clip.DurationSeconds = info.DurationSeconds
			clip.FrameRate = info.FrameRate
			clip.Readable = true
		}
		catalog.Clips = append(catalog.Clips, clip)
	}

	return catalog, nil
}

// SaveCatalog writes the catalog JSON atomically.
func SaveCatalog(path string, catalog Catalog) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure catalog dir: %w", err)
	}

	data, err := json.MarshalIndent(catalog, "", "  ")
	if err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp catalog: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace catalog: %w", err)
	}
	return nil
}

// LoadCatalog reads a previously saved catalog.
func LoadCatalog(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("read catalog: %w", err)
	}
	var catalog Catalog
	if err := json.Unmarshal(data, &catalog); err != nil {
		return Catalog{}, fmt.Errorf("decode catalog: %w", err)
	}
	return catalog, nil
}
