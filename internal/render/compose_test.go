package render

import (
	"math"
	"strings"
	"testing"

	"github.com/tijender7/dancer-latest/internal/config"
)

func TestBoundaryFades(t *testing.T) {
	fades := BoundaryFades([]float64{10, 10, 10}, 0.15)
	if len(fades) != 2 {
		t.Fatalf("expected 2 boundaries, got %d", len(fades))
	}
	for i, f := range fades {
		if f != 0.15 {
			t.Fatalf("fade %d = %g, want 0.15", i, f)
		}
	}

	// A short neighbor halves the fade at both of its boundaries.
	fades = BoundaryFades([]float64{10, 0.2, 10}, 0.15)
	if fades[0] != 0.1 || fades[1] != 0.1 {
		t.Fatalf("short-slot fades = %v, want [0.1 0.1]", fades)
	}

	if fades := BoundaryFades([]float64{10}, 0.15); fades != nil {
		t.Fatalf("single slot should have no fades, got %v", fades)
	}
}

func TestXfadeOffsets(t *testing.T) {
	durations := []float64{10, 8, 12}
	fades := BoundaryFades(durations, 0.15)
	offsets := XfadeOffsets(durations, fades)

	want := []float64{10 - 0.075, 18 - 0.075}
	for i := range want {
		if math.Abs(offsets[i]-want[i]) > 1e-9 {
			t.Fatalf("offset %d = %g, want %g", i, offsets[i], want[i])
		}
	}
}

// The padded xfade chain must preserve the exact summed slot duration: each
// slot gains half a fade of cloned frames per faded side, and each xfade
// consumes one full fade.
func TestComposePaddingPreservesDuration(t *testing.T) {
	durations := []float64{10, 0.2, 8, 12}
	fades := BoundaryFades(durations, 0.15)

	var total float64
	for i, d := range durations {
		head, tail := 0.0, 0.0
		if i > 0 {
			head = fades[i-1] / 2
		}
		if i < len(durations)-1 {
			tail = fades[i] / 2
		}
		total += d + head + tail
	}
	for _, f := range fades {
		total -= f
	}

	var want float64
	for _, d := range durations {
		want += d
	}
	if math.Abs(total-want) > 1e-9 {
		t.Fatalf("padded chain duration %g, want %g", total, want)
	}
}

func testComposeSpec() ComposeSpec {
	return ComposeSpec{
		Slots: []ComposeInput{
			{Path: "/work/slot_000.mp4", Duration: 10},
			{Path: "/work/slot_001.mp4", Duration: 8},
			{Path: "/work/slot_002.mp4", Duration: 12},
		},
		AudioPath:     "/music/song.mp3",
		Crossfade:     0.15,
		TotalDuration: 30,
		OutputPath:    "/out/dance_song.mp4",
	}
}

func TestBuildComposeArgs(t *testing.T) {
	cfg := config.Default()
	args, err := BuildComposeArgs(testComposeSpec(), cfg)
	if err != nil {
		t.Fatalf("BuildComposeArgs error: %v", err)
	}

	joined := strings.Join(args, " ")
	for _, want := range []string{
		"-i /work/slot_000.mp4",
		"-i /work/slot_001.mp4",
		"-i /work/slot_002.mp4",
		"-i /music/song.mp3",
		"xfade=transition=fade:duration=0.15:offset=9.925",
		"xfade=transition=fade:duration=0.15:offset=17.925",
		"tpad=stop_mode=clone:stop_duration=0.075",
		"tpad=start_mode=clone:start_duration=0.075",
		"-map [vout]",
		"-map 3:a:0",
		"-t 30",
		"-movflags +faststart",
		"/out/dance_song.mp4",
	} {
		if !strings.Contains(joined, want) {
			t.Fatalf("expected compose args to contain %q\nargs: %s", want, joined)
		}
	}

	assertArgPairs(t, args, [][]string{
		{"-c:v", "libx264"},
		{"-c:a", "aac"},
		{"-b:a", "192k"},
		{"-ar", "44100"},
		{"-r", "24"},
	})
}

func TestBuildComposeArgsSubtitles(t *testing.T) {
	cfg := config.Default()
	spec := testComposeSpec()
	spec.SubtitlesPath = "/work/captions.ass"

	args, err := BuildComposeArgs(spec, cfg)
	if err != nil {
		t.Fatalf("BuildComposeArgs error: %v", err)
	}
	joined := strings.Join(args, " ")
	if !strings.Contains(joined, `ass=`) {
		t.Fatalf("subtitle filter missing: %s", joined)
	}

	spec.SubtitlesPath = ""
	args, err = BuildComposeArgs(spec, cfg)
	if err != nil {
		t.Fatalf("BuildComposeArgs error: %v", err)
	}
	if strings.Contains(strings.Join(args, " "), "ass=") {
		t.Fatal("subtitle filter present without a subtitle file")
	}
}

func TestBuildComposeArgsSingleSlot(t *testing.T) {
	cfg := config.Default()
	spec := ComposeSpec{
		Slots:         []ComposeInput{{Path: "/work/slot_000.mp4", Duration: 30}},
		AudioPath:     "/music/song.mp3",
		Crossfade:     0.15,
		TotalDuration: 30,
		OutputPath:    "/out/dance_song.mp4",
	}

	args, err := BuildComposeArgs(spec, cfg)
	if err != nil {
		t.Fatalf("BuildComposeArgs error: %v", err)
	}
	joined := strings.Join(args, " ")
	if strings.Contains(joined, "xfade") {
		t.Fatalf("single slot must not crossfade: %s", joined)
	}
	if strings.Contains(joined, "tpad") {
		t.Fatalf("single slot needs no boundary padding: %s", joined)
	}
}

func TestBuildComposeArgsValidation(t *testing.T) {
	cfg := config.Default()

	if _, err := BuildComposeArgs(ComposeSpec{AudioPath: "a", OutputPath: "o"}, cfg); err == nil {
		t.Fatal("expected error for no slots")
	}

	spec := testComposeSpec()
	spec.AudioPath = ""
	if _, err := BuildComposeArgs(spec, cfg); err == nil {
		t.Fatal("expected error for missing audio")
	}

	spec = testComposeSpec()
	spec.Slots[1].Duration = 0
	if _, err := BuildComposeArgs(spec, cfg); err == nil {
		t.Fatal("expected error for zero-duration slot input")
	}
}
