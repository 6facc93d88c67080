package timeline

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/tijender7/dancer-latest/internal/beats"
	"github.com/tijender7/dancer-latest/internal/media"
)

func testClips(n int) []media.ClipAsset {
	clips := make([]media.ClipAsset, n)
	for i := range clips {
		clips[i] = media.ClipAsset{
			Path:            fmt.Sprintf("/clips/clip_%d.mp4", i+1),
			DurationSeconds: 30,
			Readable:        true,
		}
	}
	return clips
}

func TestAllocateEqualTime(t *testing.T) {
	track := beats.Synthetic(60, 120)
	slots, err := Allocate(track, testClips(5), Options{Policy: PolicyEqualTime})
	if err != nil {
		t.Fatalf("Allocate error: %v", err)
	}

	if len(slots) != 5 {
		t.Fatalf("expected 5 slots, got %d", len(slots))
	}
	for i, slot := range slots {
		if slot.Index != i {
			t.Fatalf("slot %d has index %d", i, slot.Index)
		}
		if math.Abs(slot.Duration()-12) > 1e-9 {
			t.Fatalf("slot %d duration = %g, want 12", i, slot.Duration())
		}
		if slot.Cycling {
			t.Fatalf("slot %d marked cycling under equal time", i)
		}
	}
	if slots[0].Start != 0 {
		t.Fatalf("first slot starts at %g", slots[0].Start)
	}
	if slots[4].End != 60 {
		t.Fatalf("final slot ends at %g, want exactly 60", slots[4].End)
	}

	// Every clip appears exactly once, in order.
	seen := map[string]int{}
	for _, slot := range slots {
		seen[slot.Clip.Path]++
	}
	for path, count := range seen {
		if count != 1 {
			t.Fatalf("clip %s assigned %d times", path, count)
		}
	}
}

func TestAllocateEqualTimeAbsorbsRemainder(t *testing.T) {
	track := beats.Synthetic(10, 120)
	slots, err := Allocate(track, testClips(3), Options{Policy: PolicyEqualTime})
	if err != nil {
		t.Fatalf("Allocate error: %v", err)
	}
	if len(slots) != 3 {
		t.Fatalf("expected 3 slots, got %d", len(slots))
	}
	var total float64
	for _, slot := range slots {
		total += slot.Duration()
	}
	if math.Abs(total-10) > 1e-9 {
		t.Fatalf("slot durations sum to %g, want 10", total)
	}
	if slots[2].End != 10 {
		t.Fatalf("final boundary is %g, want exactly the audio duration", slots[2].End)
	}
}

func TestAllocateNoAssets(t *testing.T) {
	track := beats.Synthetic(60, 120)

	if _, err := Allocate(track, nil, Options{Policy: PolicyEqualTime}); !errors.Is(err, ErrNoAssets) {
		t.Fatalf("expected ErrNoAssets, got %v", err)
	}
	if _, err := Allocate(track, []media.ClipAsset{}, Options{Policy: PolicyBeatWeighted, TargetSlotSec: 5}); !errors.Is(err, ErrNoAssets) {
		t.Fatalf("expected ErrNoAssets for beat weighted, got %v", err)
	}
}

func TestAllocateBeatWeightedCycles(t *testing.T) {
	track := beats.Synthetic(35, 120)
	slots, err := Allocate(track, testClips(3), Options{
		Policy:        PolicyBeatWeighted,
		TargetSlotSec: 5,
		MinSlotSec:    0.75,
	})
	if err != nil {
		t.Fatalf("Allocate error: %v", err)
	}
	if len(slots) != 7 {
		t.Fatalf("expected 7 slots for 35s at 5s target, got %d", len(slots))
	}

	wantClips := []string{
		"/clips/clip_1.mp4",
		"/clips/clip_2.mp4",
		"/clips/clip_3.mp4",
		"/clips/clip_1.mp4",
		"/clips/clip_2.mp4",
		"/clips/clip_3.mp4",
		"/clips/clip_1.mp4",
	}
	for i, slot := range slots {
		if slot.Clip.Path != wantClips[i] {
			t.Fatalf("slot %d assigned %s, want %s", i, slot.Clip.Path, wantClips[i])
		}
		cycling := i >= 3
		if slot.Cycling != cycling {
			t.Fatalf("slot %d cycling = %v, want %v", i, slot.Cycling, cycling)
		}
	}
}

func TestAllocateBeatWeightedSnapsToBeats(t *testing.T) {
	// 120 BPM grid: beats every 0.5s. Interior boundaries must land on them.
	track := beats.Synthetic(30, 120)
	slots, err := Allocate(track, testClips(4), Options{
		Policy:        PolicyBeatWeighted,
		TargetSlotSec: 5,
		MinSlotSec:    0.75,
	})
	if err != nil {
		t.Fatalf("Allocate error: %v", err)
	}

	for i, slot := range slots[:len(slots)-1] {
		onBeat := math.Mod(slot.End, 0.5)
		if onBeat > 1e-9 && 0.5-onBeat > 1e-9 {
			t.Fatalf("boundary %d at %g is not on a beat", i, slot.End)
		}
	}
	if slots[len(slots)-1].End != 30 {
		t.Fatalf("final boundary %g, want exactly 30", slots[len(slots)-1].End)
	}
}

func TestAllocateMergesShortSlots(t *testing.T) {
	// Beats at 0.5s intervals with a tight target force short slots that
	// must merge into their predecessor.
	track := beats.BeatTrack{
		Times:    []float64{0, 0.5, 1.0, 9.5, 10},
		TempoBPM: 120,
		Duration: 10,
	}
	slots, err := Allocate(track, testClips(10), Options{
		Policy:        PolicyBeatWeighted,
		TargetSlotSec: 1,
		MinSlotSec:    0.75,
	})
	if err != nil {
		t.Fatalf("Allocate error: %v", err)
	}

	for i, slot := range slots {
		if slot.Duration() < 0.75-1e-9 {
			t.Fatalf("slot %d duration %g below the merge floor", i, slot.Duration())
		}
	}
	var total float64
	for _, slot := range slots {
		total += slot.Duration()
	}
	if math.Abs(total-10) > 1e-9 {
		t.Fatalf("merged slots sum to %g, want 10", total)
	}
}

func TestMergeShortSlotsFoldsIntoPredecessor(t *testing.T) {
	cases := map[string]struct {
		boundaries []float64
		floor      float64
		want       []float64
	}{
		"runt folds backward": {
			// The runt [5, 5.2) loses its start boundary, so the preceding
			// slot grows to [0, 5.2).
			boundaries: []float64{0, 5, 5.2, 10},
			floor:      0.75,
			want:       []float64{0, 5.2, 10},
		},
		"runt first slot absorbs successor": {
			boundaries: []float64{0, 0.3, 5, 10},
			floor:      0.75,
			want:       []float64{0, 5, 10},
		},
		"runt final slot folds backward": {
			boundaries: []float64{0, 5, 9.8, 10},
			floor:      0.75,
			want:       []float64{0, 5, 10},
		},
		"consecutive runts collapse": {
			boundaries: []float64{0, 4, 4.2, 4.4, 10},
			floor:      0.75,
			want:       []float64{0, 4.4, 10},
		},
		"no floor keeps everything": {
			boundaries: []float64{0, 0.1, 10},
			floor:      0,
			want:       []float64{0, 0.1, 10},
		},
	}

	for name, tc := range cases {
		got := mergeShortSlots(tc.boundaries, tc.floor)
		if len(got) != len(tc.want) {
			t.Fatalf("%s: boundaries = %v, want %v", name, got, tc.want)
		}
		for i := range got {
			if math.Abs(got[i]-tc.want[i]) > 1e-9 {
				t.Fatalf("%s: boundaries = %v, want %v", name, got, tc.want)
			}
		}
	}
}

func TestParsePolicy(t *testing.T) {
	cases := map[string]struct {
		want    Policy
		wantErr bool
	}{
		"equal_time":    {want: PolicyEqualTime},
		"beat_weighted": {want: PolicyBeatWeighted},
		"":              {want: PolicyEqualTime},
		"mosaic":        {wantErr: true},
	}

	for input, tc := range cases {
		got, err := ParsePolicy(input)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("ParsePolicy(%q) expected error", input)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParsePolicy(%q) error: %v", input, err)
		}
		if got != tc.want {
			t.Fatalf("ParsePolicy(%q) = %q; want %q", input, got, tc.want)
		}
	}
}
