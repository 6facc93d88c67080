package media

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
)

// fakeRunner serves canned ffprobe JSON keyed by target path.
type fakeRunner struct {
	outputs map[string]string
	fail    map[string]bool
}

func (f fakeRunner) Run(_ context.Context, _ string, args []string, _ RunOptions) (RunResult, error) {
	target := args[len(args)-1]
	if f.fail[target] {
		return RunResult{Stderr: []byte("Invalid data found when processing input")}, errors.New("exit status 1")
	}
	out, ok := f.outputs[target]
	if !ok {
		return RunResult{}, fmt.Errorf("unexpected probe target %s", target)
	}
	return RunResult{Stdout: []byte(out)}, nil
}

const videoProbeJSON = `{
  "format": {"format_name": "mov,mp4,m4a", "duration": "12.480000"},
  "streams": [
    {"codec_type": "video", "r_frame_rate": "30000/1001", "avg_frame_rate": "30000/1001"},
    {"codec_type": "audio"}
  ]
}`

const audioProbeJSON = `{
  "format": {"format_name": "mp3", "duration": "180.250000"},
  "streams": [{"codec_type": "audio"}]
}`

func TestProbeParsesVideo(t *testing.T) {
	runner := fakeRunner{outputs: map[string]string{"/media/clip.mp4": videoProbeJSON}}

	info, err := Probe(context.Background(), runner, "ffprobe", "/media/clip.mp4")
	if err != nil {
		t.Fatalf("Probe error: %v", err)
	}
	if info.DurationSeconds != 12.48 {
		t.Fatalf("duration = %g, want 12.48", info.DurationSeconds)
	}
	if !info.HasVideo || !info.HasAudio {
		t.Fatalf("stream flags = video:%v audio:%v", info.HasVideo, info.HasAudio)
	}
	if info.FrameRate < 29.9 || info.FrameRate > 30.0 {
		t.Fatalf("frame rate = %g, want ~29.97", info.FrameRate)
	}
}

func TestProbeFailure(t *testing.T) {
	runner := fakeRunner{fail: map[string]bool{"/media/broken.mp4": true}}

	_, err := Probe(context.Background(), runner, "ffprobe", "/media/broken.mp4")
	if err == nil {
		t.Fatal("expected probe error")
	}
	if !strings.Contains(err.Error(), "Invalid data") {
		t.Fatalf("error should carry ffprobe stderr, got: %v", err)
	}
}

func TestParseFrameRate(t *testing.T) {
	cases := map[string]float64{
		"24/1":       24,
		"30000/1001": 30000.0 / 1001.0,
		"25":         25,
		"0/0":        0,
		"":           0,
		"oops":       0,
	}
	for input, want := range cases {
		if got := parseFrameRate(input); got != want {
			t.Fatalf("parseFrameRate(%q) = %g, want %g", input, got, want)
		}
	}
}

func TestResolveCatalogKeepsUnreadableClips(t *testing.T) {
	runner := fakeRunner{
		outputs: map[string]string{
			"/music/song.mp3":  audioProbeJSON,
			"/clips/good.mp4":  videoProbeJSON,
			"/clips/audio.mp4": audioProbeJSON, // no video stream
		},
		fail: map[string]bool{"/clips/corrupt.mp4": true},
	}

	catalog, err := ResolveCatalog(context.Background(), runner, "ffprobe",
		[]string{"/clips/good.mp4", "/clips/corrupt.mp4", "/clips/audio.mp4"}, "/music/song.mp3")
	if err != nil {
		t.Fatalf("ResolveCatalog error: %v", err)
	}

	if catalog.Audio.DurationSeconds != 180.25 {
		t.Fatalf("audio duration = %g, want 180.25", catalog.Audio.DurationSeconds)
	}
	if len(catalog.Clips) != 3 {
		t.Fatalf("expected all 3 clips kept, got %d", len(catalog.Clips))
	}
	if !catalog.Clips[0].Readable {
		t.Fatal("good clip marked unreadable")
	}
	if catalog.Clips[1].Readable || catalog.Clips[2].Readable {
		t.Fatal("corrupt or video-less clips marked readable")
	}

	readable := catalog.ReadableClips()
	if len(readable) != 1 || readable[0].Path != "/clips/good.mp4" {
		t.Fatalf("ReadableClips = %+v, want only the good clip", readable)
	}
}

func TestResolveCatalogAudioFailureIsFatal(t *testing.T) {
	runner := fakeRunner{fail: map[string]bool{"/music/song.mp3": true}}

	_, err := ResolveCatalog(context.Background(), runner, "ffprobe", []string{"/clips/good.mp4"}, "/music/song.mp3")
	if err == nil {
		t.Fatal("expected error when the song cannot be probed")
	}
}

func TestSaveLoadCatalogRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "meta", "catalog.json")

	original := Catalog{
		Version: 1,
		Audio:   AudioAsset{Path: "/music/song.mp3", DurationSeconds: 180.25},
		Clips: []ClipAsset{
			{Path: "/clips/good.mp4", DurationSeconds: 12.48, FrameRate: 29.97, Readable: true},
			{Path: "/clips/bad.mp4"},
		},
	}
	if err := SaveCatalog(path, original); err != nil {
		t.Fatalf("SaveCatalog error: %v", err)
	}

	loaded, err := LoadCatalog(path)
	if err != nil {
		t.Fatalf("LoadCatalog error: %v", err)
	}
	if loaded.Audio != original.Audio {
		t.Fatalf("audio round trip mismatch: %+v", loaded.Audio)
	}
	if len(loaded.Clips) != 2 || loaded.Clips[0] != original.Clips[0] {
		t.Fatalf("clips round trip mismatch: %+v", loaded.Clips)
	}

	if _, err := LoadCatalog(filepath.Join(dir, "missing.json")); err == nil {
		t.Fatal("expected error for missing catalog")
	}
}
