package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tijender7/dancer-latest/internal/beats"
	"github.com/tijender7/dancer-latest/internal/config"
	"github.com/tijender7/dancer-latest/internal/media"
	"github.com/tijender7/dancer-latest/internal/paths"
)

func newBeatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "beats <audio>",
		Short: "Run beat detection against a song and print the result",
		Args:  cobra.ExactArgs(1),
		RunE:  runBeats,
	}
	return cmd
}

func runBeats(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	pp, err := paths.Resolve(runRoot)
	if err != nil {
		return err
	}
	cfg, err := config.Load(pp.ConfigFile)
	if err != nil {
		return err
	}

	analyzer := &beats.FFmpegAnalyzer{
		Runner: media.CmdRunner{},
		FFmpeg: cfg.Tools.FFmpeg,
	}
	track, err := analyzer.Analyze(ctx, args[0])
	if err != nil {
		return err
	}

	if outputJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			TempoBPM  float64   `json:"tempo_bpm"`
			Duration  float64   `json:"duration_seconds"`
			BeatCount int       `json:"beat_count"`
			Synthetic bool      `json:"synthetic"`
			Times     []float64 `json:"times"`
		}{track.TempoBPM, track.Duration, len(track.Times), track.Synthetic, track.Times})
	}

	grid := "detected"
	if track.Synthetic {
		grid = "synthetic (low confidence)"
	}
	cmd.Printf("Tempo:    %.1f BPM (%s)\n", track.TempoBPM, grid)
	cmd.Printf("Duration: %.2fs\n", track.Duration)
	cmd.Printf("Beats:    %d\n", len(track.Times))
	if len(track.Times) > 0 {
		preview := track.Times
		if len(preview) > 8 {
			preview = preview[:8]
		}
		cmd.Printf("First:   ")
		for _, t := range preview {
			fmt.Fprintf(cmd.OutOrStdout(), " %.2f", t)
		}
		if len(track.Times) > 8 {
			fmt.Fprint(cmd.OutOrStdout(), " ...")
		}
		fmt.Fprintln(cmd.OutOrStdout())
	}
	return nil
}
