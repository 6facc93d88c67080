package render

import (
	"strings"
	"testing"

	"github.com/tijender7/dancer-latest/internal/config"
	"github.com/tijender7/dancer-latest/internal/media"
	"github.com/tijender7/dancer-latest/internal/segment"
	"github.com/tijender7/dancer-latest/internal/timeline"
)

func testPlan() segment.Plan {
	slot := timeline.Slot{
		Index: 2,
		Start: 10,
		End:   16,
		Clip: media.ClipAsset{
			Path:            "/clips/dancer.mp4",
			DurationSeconds: 30,
			Readable:        true,
		},
	}
	return segment.Plan{
		Slot: slot,
		Subs: []segment.SubSegment{
			{Direction: segment.Forward, SourceOffset: 0, Length: 2, Speed: 1.0},
			{Direction: segment.Backward, SourceOffset: 0, Length: 2, Speed: 1.0, Effect: segment.EffectMirror},
			{Direction: segment.Forward, SourceOffset: 0, Length: 2, Speed: 1.25},
		},
	}
}

func TestBuildSlotFilterGraph(t *testing.T) {
	cfg := config.Default()
	graph, err := BuildSlotFilterGraph(testPlan(), cfg)
	if err != nil {
		t.Fatalf("BuildSlotFilterGraph error: %v", err)
	}

	expectations := []string{
		"[0:v]split=3[in0][in1][in2]",
		"trim=start=0:end=2",
		"setpts=PTS-STARTPTS",
		"reverse",
		"hflip",
		"trim=start=0:end=2.5",
		"setpts=PTS/1.25",
		"[b0][b1][b2]concat=n=3:v=1:a=0[cat]",
		"scale=w=1280:h=720",
		"pad=w=1280:h=720",
		"setsar=1",
		"fps=24",
		"[slot]",
	}
	for _, expected := range expectations {
		if !strings.Contains(graph, expected) {
			t.Fatalf("expected filter graph to contain %q\ngraph: %s", expected, graph)
		}
	}
}

func TestBuildSlotFilterGraphHold(t *testing.T) {
	cfg := config.Default()
	plan := segment.HoldPlan(timeline.Slot{
		Index: 0,
		Start: 0,
		End:   4,
		Clip:  media.ClipAsset{Path: "/clips/dancer.mp4", DurationSeconds: 30, Readable: true},
	})

	graph, err := BuildSlotFilterGraph(plan, cfg)
	if err != nil {
		t.Fatalf("BuildSlotFilterGraph error: %v", err)
	}
	for _, expected := range []string{
		"trim=end_frame=1",
		"tpad=stop_mode=clone:stop_duration=4",
		"[slot]",
	} {
		if !strings.Contains(graph, expected) {
			t.Fatalf("expected hold graph to contain %q\ngraph: %s", expected, graph)
		}
	}
	if strings.Contains(graph, "split") {
		t.Fatalf("hold graph should not split: %s", graph)
	}
}

func TestEffectFiltersAreTimingNeutral(t *testing.T) {
	// Effects map to frame-local filters only; none may change stream timing.
	forbidden := []string{"setpts", "trim", "tpad", "fps", "reverse"}
	for _, effect := range []segment.Effect{
		segment.EffectMirror,
		segment.EffectMonochrome,
		segment.EffectContrastBoost,
		segment.EffectGammaShift,
	} {
		filter := effectFilter(effect)
		if filter == "" {
			t.Fatalf("effect %q has no filter", effect)
		}
		for _, bad := range forbidden {
			if strings.Contains(filter, bad) {
				t.Fatalf("effect %q filter %q alters timing", effect, filter)
			}
		}
	}
	if effectFilter(segment.EffectNone) != "" {
		t.Fatal("no-effect should produce no filter")
	}
}

func TestBuildSlotCmd(t *testing.T) {
	cfg := config.Default()
	plan := testPlan()

	graph, err := BuildSlotFilterGraph(plan, cfg)
	if err != nil {
		t.Fatalf("BuildSlotFilterGraph error: %v", err)
	}
	args, err := BuildSlotCmd(plan, graph, "/work/slot_002.mp4", cfg)
	if err != nil {
		t.Fatalf("BuildSlotCmd error: %v", err)
	}

	includes := [][]string{
		{"-i", "/clips/dancer.mp4"},
		{"-filter_complex", graph},
		{"-map", "[slot]"},
		{"-t", "6"},
		{"-c:v", "libx264"},
		{"-preset", "medium"},
		{"-b:v", "5000k"},
		{"/work/slot_002.mp4"},
	}
	assertArgPairs(t, args, includes)

	found := false
	for _, arg := range args {
		if arg == "-an" {
			found = true
		}
	}
	if !found {
		t.Fatalf("slot render must drop audio, args: %#v", args)
	}
}

func assertArgPairs(t *testing.T, args []string, includes [][]string) {
	t.Helper()
	for _, pair := range includes {
		if len(pair) == 1 {
			found := false
			for _, arg := range args {
				if arg == pair[0] {
					found = true
					break
				}
			}
			if !found {
				t.Fatalf("expected args to include %q\nargs: %#v", pair[0], args)
			}
			continue
		}
		found := false
		for i := 0; i < len(args)-1; i++ {
			if args[i] == pair[0] && args[i+1] == pair[1] {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("expected args to include %q %q\nargs: %#v", pair[0], pair[1], args)
		}
	}
}
