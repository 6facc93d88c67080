package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/tijender7/dancer-latest/internal/beats"
	"github.com/tijender7/dancer-latest/internal/compiler"
	"github.com/tijender7/dancer-latest/internal/config"
	"github.com/tijender7/dancer-latest/internal/logx"
	"github.com/tijender7/dancer-latest/internal/media"
	"github.com/tijender7/dancer-latest/internal/paths"
	"github.com/tijender7/dancer-latest/internal/render"
	"github.com/tijender7/dancer-latest/internal/transcribe"
	"github.com/tijender7/dancer-latest/internal/tui"
)

type compileFlags struct {
	song        string
	clips       []string
	kind        string
	policy      string
	seed        int64
	noCaptions  bool
	noProgress  bool
	concurrency int
}

func newCompileCmd() *cobra.Command {
	var flags compileFlags

	cmd := &cobra.Command{
		Use:   "compile",
		Short: "Compile a beat-synchronized dance video from the run catalog",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCompile(cmd, flags)
		},
	}

	cmd.Flags().StringVar(&flags.song, "song", "", "Song audio path (re-resolves the catalog with --clips)")
	cmd.Flags().StringSliceVar(&flags.clips, "clips", nil, "Clip files or directories (requires --song)")
	cmd.Flags().StringVar(&flags.kind, "kind", "dance", "Output filename prefix")
	cmd.Flags().StringVar(&flags.policy, "policy", "", "Timeline policy override (equal_time or beat_weighted)")
	cmd.Flags().Int64Var(&flags.seed, "seed", 0, "Effect seed override (0 derives from the job id)")
	cmd.Flags().BoolVar(&flags.noCaptions, "no-captions", false, "Skip transcription and captions")
	cmd.Flags().BoolVar(&flags.noProgress, "no-progress", false, "Disable the interactive progress display")
	cmd.Flags().IntVar(&flags.concurrency, "concurrency", 0, "Parallel slot renders (0 = CPU count)")

	return cmd
}

func runCompile(cmd *cobra.Command, flags compileFlags) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	pp, err := paths.Resolve(runRoot)
	if err != nil {
		return err
	}
	if err := pp.EnsureDirs(); err != nil {
		return err
	}

	cfg, err := config.Load(pp.ConfigFile)
	if err != nil {
		return err
	}
	applyCompileOverrides(&cfg, flags)

	if issues := cfg.Validate(); config.HasErrors(issues) {
		for _, issue := range issues {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", issue.Level, issue.Message)
		}
		return errors.New("configuration has errors")
	}

	logger, closer, err := logx.New(pp)
	if err != nil {
		return err
	}
	defer closer.Close()

	catalog, err := loadOrResolveCatalog(ctx, pp, cfg, flags)
	if err != nil {
		return err
	}

	renderer, err := render.NewService(pp, cfg, media.CmdRunner{})
	if err != nil {
		return err
	}

	job := compiler.NewJob(pp, cfg, catalog)
	job.Kind = flags.kind
	job.Seed = flags.seed
	job.Logger = logger
	job.Renderer = renderer
	job.Analyzer = &beats.FFmpegAnalyzer{Runner: media.CmdRunner{}, FFmpeg: cfg.Tools.FFmpeg}
	if cfg.Captions.EnabledValue() {
		job.Transcriber = &transcribe.WhisperTranscriber{
			Runner:    media.CmdRunner{},
			Binary:    cfg.Tools.Whisper,
			Model:     cfg.Tools.Model,
			OutputDir: pp.WorkDir,
		}
	}

	interactive := detectInteractiveProgress(cmd.OutOrStdout(), flags.noProgress || outputJSON)

	var result compiler.Result
	if interactive {
		model := tui.NewProgressModel("Compiling "+paths.SongName(catalog.Audio.Path), []tui.Column{
			{Header: "SLOT", Width: 4},
			{Header: "CLIP", Width: 32},
			{Header: "DURATION", Width: 9},
			{Header: "STATUS", Width: 10},
		})
		// RunWithWork cancels the job context when the display quits early
		// and waits for job.Run to return before handing back control, so
		// result and err are settled here.
		runErr := tui.RunWithWork(ctx, cmd.OutOrStdout(), model, func(ctx context.Context, send func(tea.Msg)) {
			job.Reporter = tui.NewSlotReporter(send)
			result, err = job.Run(ctx)
			if err != nil {
				send(tui.JobErrorMsg{Err: err})
			}
		})
		if err != nil {
			return err
		}
		if runErr != nil {
			return runErr
		}
	} else {
		renderer.SetWriters(cmd.OutOrStdout(), nil)
		result, err = job.Run(ctx)
		if err != nil {
			return err
		}
	}

	return writeCompileResult(cmd, result)
}

func applyCompileOverrides(cfg *config.Config, flags compileFlags) {
	if flags.policy != "" {
		cfg.Compile.Policy = flags.policy
	}
	if flags.noCaptions {
		disabled := false
		cfg.Captions.Enabled = &disabled
	}
	if flags.concurrency > 0 {
		cfg.Render.Concurrency = flags.concurrency
	}
	if cfg.Render.Concurrency <= 0 {
		cfg.Render.Concurrency = runtime.NumCPU()
	}
}

// loadOrResolveCatalog reuses the saved catalog unless --song names fresh
// assets, in which case the catalog is re-probed and re-saved.
func loadOrResolveCatalog(ctx context.Context, pp paths.RunPaths, cfg config.Config, flags compileFlags) (media.Catalog, error) {
	if flags.song == "" {
		catalog, err := media.LoadCatalog(pp.CatalogFile)
		if err != nil {
			return media.Catalog{}, fmt.Errorf("load catalog (run `dancevid catalog resolve` or pass --song/--clips): %w", err)
		}
		return catalog, nil
	}
	if len(flags.clips) == 0 {
		return media.Catalog{}, errors.New("--song requires --clips")
	}

	clipPaths, err := expandClipArgs(flags.clips)
	if err != nil {
		return media.Catalog{}, err
	}
	if len(clipPaths) == 0 {
		return media.Catalog{}, errors.New("no video files found in --clips")
	}

	catalog, err := media.ResolveCatalog(ctx, media.CmdRunner{}, cfg.Tools.FFprobe, clipPaths, flags.song)
	if err != nil {
		return media.Catalog{}, err
	}
	if err := media.SaveCatalog(pp.CatalogFile, catalog); err != nil {
		return media.Catalog{}, err
	}
	return catalog, nil
}

func writeCompileResult(cmd *cobra.Command, result compiler.Result) error {
	if outputJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	cmd.Printf("Compiled %s (%.2fs, %d slots, %.1f BPM)\n",
		result.OutputPath, result.Duration, result.SlotCount, result.TempoBPM)
	for _, warn := range result.Warnings {
		cmd.Printf("  warning [%s]: %s\n", warn.Code, warn.Detail)
	}
	return nil
}
