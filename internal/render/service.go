package render

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/tijender7/dancer-latest/internal/config"
	"github.com/tijender7/dancer-latest/internal/media"
	"github.com/tijender7/dancer-latest/internal/paths"
	"github.com/tijender7/dancer-latest/internal/segment"
)

// Service coordinates ffmpeg slot rendering and the final compose pass.
type Service struct {
	Paths  paths.RunPaths
	Config config.Config
	Runner media.Runner

	stdout io.Writer
	stderr io.Writer
}

// Options controls render execution behaviour.
type Options struct {
	Concurrency int
	Reporter    ProgressReporter
}

// Result captures the outcome of one slot render.
type Result struct {
	Index      int
	ClipPath   string
	OutputPath string
	LogPath    string
	Duration   float64
	Err        error
}

// ProgressReporter receives notifications as slots move through the pipeline.
type ProgressReporter interface {
	Start(plan segment.Plan)
	Complete(result Result)
}

// NewService prepares a renderer bound to a run root.
func NewService(pp paths.RunPaths, cfg config.Config, runner media.Runner) (*Service, error) {
	if runner == nil {
		runner = media.CmdRunner{}
	}
	if err := pp.EnsureDirs(); err != nil {
		return nil, err
	}
	return &Service{
		Paths:  pp,
		Config: cfg,
		Runner: runner,
	}, nil
}

// SetWriters configures optional stdout/stderr writers for progress messages.
func (s *Service) SetWriters(stdout, stderr io.Writer) {
	if s == nil {
		return
	}
	s.stdout = stdout
	s.stderr = stderr
}

// RenderSlots executes ffmpeg for every slot plan, bounded by the configured
// concurrency. Results are indexed by plan position; a failed slot carries
// its error and the compose step refuses to run on any failure.
func (s *Service) RenderSlots(ctx context.Context, plans []segment.Plan, opts Options) []Result {
	if s == nil {
		return []Result{{Err: errors.New("render service is nil")}}
	}

	results := make([]Result, len(plans))

	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	var (
		wg  sync.WaitGroup
		sem = make(chan struct{}, concurrency)
	)

	for i, plan := range plans {
		i, plan := i, plan
		if opts.Reporter != nil {
			opts.Reporter.Start(plan)
		}
		sem <- struct{}{}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			res := s.renderSlot(ctx, plan)
			results[i] = res
			if opts.Reporter != nil {
				opts.Reporter.Complete(res)
			}
		}()
	}

	wg.Wait()
	return results
}

func (s *Service) renderSlot(ctx context.Context, plan segment.Plan) Result {
	result := Result{
		Index:    plan.Slot.Index,
		ClipPath: plan.Slot.Clip.Path,
		Duration: plan.Slot.Duration(),
	}

	outputPath := s.Paths.SlotFile(plan.Slot.Index)
	logPath := s.Paths.SlotLogFile(plan.Slot.Index)
	result.OutputPath = outputPath
	result.LogPath = logPath

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		result.Err = fmt.Errorf("ensure work directory: %w", err)
		return result
	}

	filterGraph, err := BuildSlotFilterGraph(plan, s.Config)
	if err != nil {
		result.Err = fmt.Errorf("build slot filter graph: %w", err)
		return result
	}

	args, err := BuildSlotCmd(plan, filterGraph, outputPath, s.Config)
	if err != nil {
		result.Err = err
		return result
	}

	logFile, err := os.Create(logPath)
	if err != nil {
		result.Err = fmt.Errorf("open log file: %w", err)
		return result
	}
	defer logFile.Close()

	s.printf("rendering slot %03d (%s) -> %s\n", plan.Slot.Index, filepath.Base(plan.Slot.Clip.Path), filepath.Base(outputPath))

	runOpts := media.RunOptions{
		Dir:    s.Paths.Root,
		Stderr: logFile,
	}
	if s.stderr != nil {
		runOpts.Stderr = io.MultiWriter(logFile, s.stderr)
	}

	if _, err := s.Runner.Run(ctx, s.ffmpeg(), args, runOpts); err != nil {
		result.Err = fmt.Errorf("ffmpeg failed: %w (see %s)", err, logPath)
		_ = os.Remove(outputPath)
		return result
	}

	return result
}

// Compose crossfades the rendered slots into the final output. The encode
// targets a temporary sibling file which is renamed into place only on
// success, so a crashed or cancelled compose never leaves a plausible-looking
// output behind.
func (s *Service) Compose(ctx context.Context, spec ComposeSpec) error {
	if s == nil {
		return errors.New("render service is nil")
	}

	finalPath := spec.OutputPath
	tempPath := finalPath + ".partial.mp4"
	spec.OutputPath = tempPath

	args, err := BuildComposeArgs(spec, s.Config)
	if err != nil {
		return fmt.Errorf("build compose args: %w", err)
	}

	logPath := filepath.Join(s.Paths.LogsDir, "compose.log")
	logFile, err := os.Create(logPath)
	if err != nil {
		return fmt.Errorf("open compose log: %w", err)
	}
	defer logFile.Close()

	if err := os.MkdirAll(filepath.Dir(finalPath), 0o755); err != nil {
		return fmt.Errorf("ensure output directory: %w", err)
	}

	s.printf("composing %d slots -> %s\n", len(spec.Slots), filepath.Base(finalPath))

	runOpts := media.RunOptions{
		Dir:    s.Paths.Root,
		Stderr: logFile,
	}
	if s.stderr != nil {
		runOpts.Stderr = io.MultiWriter(logFile, s.stderr)
	}

	if _, err := s.Runner.Run(ctx, s.ffmpeg(), args, runOpts); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("ffmpeg compose failed: %w (see %s)", err, logPath)
	}

	if err := os.Rename(tempPath, finalPath); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("finalize output: %w", err)
	}

	return nil
}

func (s *Service) ffmpeg() string {
	if bin := s.Config.Tools.FFmpeg; bin != "" {
		return bin
	}
	return "ffmpeg"
}

func (s *Service) printf(format string, args ...any) {
	if s == nil || s.stdout == nil {
		return
	}
	fmt.Fprintf(s.stdout, format, args...)
}
