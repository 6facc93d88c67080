// Package compiler orchestrates one compilation job end to end: beat
// analysis, timeline allocation, sub-segment synthesis, slot rendering,
// caption synchronization, and the final crossfaded compose.
package compiler

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/tijender7/dancer-latest/internal/beats"
	"github.com/tijender7/dancer-latest/internal/captions"
	"github.com/tijender7/dancer-latest/internal/config"
	"github.com/tijender7/dancer-latest/internal/logx"
	"github.com/tijender7/dancer-latest/internal/media"
	"github.com/tijender7/dancer-latest/internal/paths"
	"github.com/tijender7/dancer-latest/internal/render"
	"github.com/tijender7/dancer-latest/internal/segment"
	"github.com/tijender7/dancer-latest/internal/timeline"
	"github.com/tijender7/dancer-latest/internal/transcribe"
)

// Warning codes for degraded-but-successful compilations.
const (
	WarnBeatDetectionLowConfidence = "beat_detection_low_confidence"
	WarnCaptionsUnavailable        = "captions_unavailable"
	WarnSkipClip                   = "skip_clip"
	WarnSlotsCycling               = "slots_cycling"
)

// Warning records one degradation the job worked around.
type Warning struct {
	Code   string `json:"code"`
	Detail string `json:"detail"`
}

// Result summarizes a completed compilation.
type Result struct {
	JobID      string    `json:"job_id"`
	OutputPath string    `json:"output_path"`
	Duration   float64   `json:"duration_seconds"`
	SlotCount  int       `json:"slot_count"`
	TempoBPM   float64   `json:"tempo_bpm"`
	Warnings   []Warning `json:"warnings,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Job runs one compilation against a resolved catalog. Collaborators are
// interfaces so tests can run the whole orchestration without external
// binaries.
type Job struct {
	ID          uuid.UUID
	Kind        string
	Paths       paths.RunPaths
	Config      config.Config
	Catalog     media.Catalog
	Analyzer    beats.Analyzer
	Transcriber transcribe.Transcriber
	Renderer    *render.Service
	Reporter    render.ProgressReporter
	Logger      *log.Logger

	// Seed overrides the job-derived effect seed when non-zero.
	Seed int64

	// Now stubs the clock for deterministic output naming in tests.
	Now func() time.Time
}

// NewJob builds a job with a fresh identity.
func NewJob(pp paths.RunPaths, cfg config.Config, catalog media.Catalog) *Job {
	return &Job{
		ID:      uuid.New(),
		Kind:    "dance",
		Paths:   pp,
		Config:  cfg,
		Catalog: catalog,
		Logger:  logx.Discard(),
		Now:     time.Now,
	}
}

// Run executes the full pipeline. Fatal conditions (undecodable audio, no
// usable clips, slot render failures) abort with an error and leave no final
// output; everything else degrades into Result.Warnings.
func (j *Job) Run(ctx context.Context) (Result, error) {
	result := Result{
		JobID:     j.ID.String(),
		StartedAt: j.now(),
	}

	track, warn, err := j.analyzeBeats(ctx)
	if err != nil {
		return result, err
	}
	if warn != nil {
		result.Warnings = append(result.Warnings, *warn)
	}
	result.TempoBPM = track.TempoBPM

	policy, err := timeline.ParsePolicy(j.Config.Compile.Policy)
	if err != nil {
		return result, err
	}
	slots, err := timeline.Allocate(track, j.Catalog.ReadableClips(), timeline.Options{
		Policy:        policy,
		TargetSlotSec: j.Config.Compile.TargetSlotSec,
		MinSlotSec:    j.Config.Compile.MinSlotSecValue(),
	})
	if err != nil {
		return result, err
	}
	result.SlotCount = len(slots)
	j.Logger.Printf("job %s: %d slots over %.2fs (%s policy)", j.ID, len(slots), track.Duration, policy)

	for _, slot := range slots {
		if slot.Cycling {
			result.Warnings = append(result.Warnings, Warning{
				Code:   WarnSlotsCycling,
				Detail: fmt.Sprintf("more slots than clips, clips repeat from slot %d", slot.Index),
			})
			break
		}
	}

	// Transcription overlaps with planning and slot rendering; the words are
	// only needed at compose time.
	captionCh := j.startTranscription(ctx)

	plans, skipWarnings := j.buildPlans(slots, track)
	result.Warnings = append(result.Warnings, skipWarnings...)

	renderResults := j.Renderer.RenderSlots(ctx, plans, render.Options{
		Concurrency: j.Config.Render.Concurrency,
		Reporter:    j.Reporter,
	})
	for _, rr := range renderResults {
		if rr.Err != nil {
			return result, fmt.Errorf("render slot %d: %w", rr.Index, rr.Err)
		}
	}

	subtitlesPath, capWarn := j.collectCaptions(captionCh)
	if capWarn != nil {
		result.Warnings = append(result.Warnings, *capWarn)
	}

	spec := render.ComposeSpec{
		AudioPath:     j.Catalog.Audio.Path,
		SubtitlesPath: subtitlesPath,
		Crossfade:     j.Config.Compile.CrossfadeSec,
		TotalDuration: track.Duration,
		OutputPath:    j.Paths.OutputFile(j.Kind, paths.SongName(j.Catalog.Audio.Path), result.StartedAt),
	}
	for i, rr := range renderResults {
		spec.Slots = append(spec.Slots, render.ComposeInput{
			Path:     rr.OutputPath,
			Duration: plans[i].Slot.Duration(),
		})
	}
	if err := j.Renderer.Compose(ctx, spec); err != nil {
		return result, err
	}

	result.OutputPath = spec.OutputPath
	result.Duration = track.Duration
	result.FinishedAt = j.now()
	j.Logger.Printf("job %s: wrote %s (%d warnings)", j.ID, result.OutputPath, len(result.Warnings))
	return result, nil
}

// analyzeBeats runs beat detection under its timeout. An undecodable song is
// fatal; detector failures and timeouts degrade to a synthetic grid.
func (j *Job) analyzeBeats(ctx context.Context) (beats.BeatTrack, *Warning, error) {
	audio := j.Catalog.Audio
	if audio.DurationSeconds <= 0 {
		return beats.BeatTrack{}, nil, fmt.Errorf("audio %s has no duration", audio.Path)
	}

	actx := ctx
	if t := j.Config.Timeouts.BeatsSec; t > 0 {
		var cancel context.CancelFunc
		actx, cancel = context.WithTimeout(ctx, time.Duration(t)*time.Second)
		defer cancel()
	}

	track, err := j.Analyzer.Analyze(actx, audio.Path)
	if err != nil {
		var decodeErr *beats.AudioDecodeError
		if errors.As(err, &decodeErr) {
			return beats.BeatTrack{}, nil, err
		}
		j.Logger.Printf("job %s: beat detection failed, using synthetic grid: %v", j.ID, err)
		track = beats.Synthetic(audio.DurationSeconds, beats.DefaultTempoBPM)
		return track, &Warning{
			Code:   WarnBeatDetectionLowConfidence,
			Detail: fmt.Sprintf("beat detection failed (%v), synthetic %g BPM grid", err, beats.DefaultTempoBPM),
		}, nil
	}

	// The catalog's probed duration is authoritative for output length.
	track.Duration = audio.DurationSeconds

	if track.Synthetic {
		return track, &Warning{
			Code:   WarnBeatDetectionLowConfidence,
			Detail: fmt.Sprintf("low-confidence detection, synthetic %g BPM grid", track.TempoBPM),
		}, nil
	}
	return track, nil, nil
}

// buildPlans synthesizes a sub-segment plan per slot. Unusable clips are
// swapped for the first readable clip not yet consumed by a swap; when none
// remains the slot freezes on a held frame.
func (j *Job) buildPlans(slots []timeline.Slot, track beats.BeatTrack) ([]segment.Plan, []Warning) {
	params := segment.Params{
		SubSegmentSec:     j.Config.Compile.SubSegmentSec,
		EffectProbability: j.Config.Compile.EffectProbabilityValue(),
		Speed: segment.SpeedParams{
			Base:           j.Config.Compile.Speed.Base,
			Min:            j.Config.Compile.Speed.Min,
			Max:            j.Config.Compile.Speed.Max,
			FastBeatSec:    j.Config.Compile.Speed.FastBeatSec,
			SlowBeatSec:    j.Config.Compile.Speed.SlowBeatSec,
			FastMultiplier: j.Config.Compile.Speed.FastMultiplier,
			SlowMultiplier: j.Config.Compile.Speed.SlowMultiplier,
		},
	}
	rng := rand.New(rand.NewSource(j.effectSeed()))

	var warnings []Warning
	skipped := make(map[string]bool)

	plans := make([]segment.Plan, 0, len(slots))
	for _, slot := range slots {
		interval := track.IntervalAt(slot.Start)
		plan, err := segment.Build(slot, params, interval, rng)
		if err == nil {
			plans = append(plans, plan)
			continue
		}

		var skip *segment.SkipClipError
		if !errors.As(err, &skip) {
			// Non-positive slot durations never leave the allocator; hold on
			// a frame rather than abandon the job.
			j.Logger.Printf("job %s: slot %d plan failed: %v", j.ID, slot.Index, err)
			plans = append(plans, segment.HoldPlan(slot))
			continue
		}

		skipped[skip.Path] = true
		warnings = append(warnings, Warning{
			Code:   WarnSkipClip,
			Detail: skip.Error(),
		})

		replaced := false
		for _, clip := range j.Catalog.ReadableClips() {
			if skipped[clip.Path] || clip.Path == slot.Clip.Path {
				continue
			}
			retry := slot
			retry.Clip = clip
			plan, err := segment.Build(retry, params, interval, rng)
			if err != nil {
				continue
			}
			plans = append(plans, plan)
			replaced = true
			break
		}
		if !replaced {
			j.Logger.Printf("job %s: slot %d has no replacement clip, holding frame", j.ID, slot.Index)
			plans = append(plans, segment.HoldPlan(slot))
		}
	}
	return plans, warnings
}

type captionOutcome struct {
	words []captions.Word
	err   error
}

// startTranscription kicks off word-level transcription in the background.
// The returned channel yields exactly one outcome, or nothing when captions
// are disabled or no transcriber is wired.
func (j *Job) startTranscription(ctx context.Context) <-chan captionOutcome {
	ch := make(chan captionOutcome, 1)
	if !j.Config.Captions.EnabledValue() || j.Transcriber == nil {
		close(ch)
		return ch
	}

	tctx := ctx
	var cancel context.CancelFunc
	if t := j.Config.Timeouts.TranscribeSec; t > 0 {
		tctx, cancel = context.WithTimeout(ctx, time.Duration(t)*time.Second)
	}

	go func() {
		defer close(ch)
		if cancel != nil {
			defer cancel()
		}
		words, err := j.Transcriber.Transcribe(tctx, j.Catalog.Audio.Path)
		ch <- captionOutcome{words: words, err: err}
	}()
	return ch
}

// collectCaptions waits for transcription and writes the ASS subtitle file.
// Every failure path returns an empty path plus a warning; the compilation
// proceeds without captions.
func (j *Job) collectCaptions(ch <-chan captionOutcome) (string, *Warning) {
	outcome, ok := <-ch
	if !ok {
		return "", nil
	}
	if outcome.err != nil {
		j.Logger.Printf("job %s: transcription failed: %v", j.ID, outcome.err)
		return "", &Warning{Code: WarnCaptionsUnavailable, Detail: outcome.err.Error()}
	}
	if len(outcome.words) == 0 {
		return "", &Warning{Code: WarnCaptionsUnavailable, Detail: "transcription produced no words"}
	}

	capCfg := j.Config.Captions
	lines := captions.BuildLines(outcome.words, capCfg.WordsPerLine)
	style := captions.DefaultStyle()
	style.FontName = capCfg.FontName
	style.FontSize = capCfg.FontSize
	style.MarginV = capCfg.MarginV
	style.PrimaryColor = captions.ASSColor(capCfg.PrimaryColor)
	style.HighlightColor = captions.ASSColor(capCfg.HighlightColor)
	style.OutlineColor = captions.ASSColor(capCfg.OutlineColor)
	style.PlayResX = j.Config.Video.Width
	style.PlayResY = j.Config.Video.Height
	style.HighlightOffset = capCfg.HighlightOffset
	style.HighlightDuration = capCfg.HighlightDuration

	script := captions.RenderASS(lines, style)
	path := j.Paths.CaptionsFile()
	if err := os.WriteFile(path, []byte(script), 0o644); err != nil {
		j.Logger.Printf("job %s: write captions: %v", j.ID, err)
		return "", &Warning{Code: WarnCaptionsUnavailable, Detail: fmt.Sprintf("write subtitle file: %v", err)}
	}
	return path, nil
}

// effectSeed derives the effect RNG seed from the job identity so reruns of
// the same job pick the same effects.
func (j *Job) effectSeed() int64 {
	if j.Seed != 0 {
		return j.Seed
	}
	h := fnv.New64a()
	h.Write([]byte(j.ID.String()))
	return int64(h.Sum64())
}

func (j *Job) now() time.Time {
	if j.Now != nil {
		return j.Now()
	}
	return time.Now()
}
