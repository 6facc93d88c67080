package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tijender7/dancer-latest/internal/config"
	"github.com/tijender7/dancer-latest/internal/logx"
	"github.com/tijender7/dancer-latest/internal/media"
	"github.com/tijender7/dancer-latest/internal/paths"
)

var videoExtensions = map[string]bool{
	".mp4":  true,
	".mov":  true,
	".mkv":  true,
	".webm": true,
	".avi":  true,
}

func newCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Probe and record the media assets for a run",
	}

	cmd.AddCommand(newCatalogResolveCmd())
	cmd.AddCommand(newCatalogShowCmd())
	return cmd
}

func newCatalogResolveCmd() *cobra.Command {
	var songPath string

	cmd := &cobra.Command{
		Use:   "resolve [clips...]",
		Short: "Probe the song and clips and save the run catalog",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCatalogResolve(cmd, songPath, args)
		},
	}

	cmd.Flags().StringVar(&songPath, "song", "", "Path to the song audio file")
	_ = cmd.MarkFlagRequired("song")
	return cmd
}

func newCatalogShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the saved run catalog",
		RunE:  runCatalogShow,
	}
}

func runCatalogResolve(cmd *cobra.Command, songPath string, clipArgs []string) error {
	ctx := cmd.Context()

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

	logger, closer, err := logx.New(pp)
	if err != nil {
		return err
	}
	defer closer.Close()

	clipPaths, err := expandClipArgs(clipArgs)
	if err != nil {
		return err
	}
	if len(clipPaths) == 0 {
		return fmt.Errorf("no video files found in %s", strings.Join(clipArgs, ", "))
	}
	logger.Printf("catalog resolve: song=%s clips=%d", songPath, len(clipPaths))

	catalog, err := media.ResolveCatalog(ctx, media.CmdRunner{}, cfg.Tools.FFprobe, clipPaths, songPath)
	if err != nil {
		return err
	}
	if err := media.SaveCatalog(pp.CatalogFile, catalog); err != nil {
		return err
	}

	readable := len(catalog.ReadableClips())
	logger.Printf("catalog resolve: %d/%d clips readable", readable, len(catalog.Clips))
	cmd.Printf("Cataloged %d clips (%d readable) and song %s (%.1fs)\n",
		len(catalog.Clips), readable, filepath.Base(songPath), catalog.Audio.DurationSeconds)
	return nil
}

func runCatalogShow(cmd *cobra.Command, _ []string) error {
	pp, err := paths.Resolve(runRoot)
	if err != nil {
		return err
	}

	catalog, err := media.LoadCatalog(pp.CatalogFile)
	if err != nil {
		return err
	}

	if outputJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(catalog)
	}

	rows := make([][]string, 0, len(catalog.Clips)+1)
	rows = append(rows, []string{
		"song",
		filepath.Base(catalog.Audio.Path),
		fmt.Sprintf("%.2f", catalog.Audio.DurationSeconds),
		"yes",
	})
	for _, clip := range catalog.Clips {
		readable := "yes"
		if !clip.Readable {
			readable = "no"
		}
		rows = append(rows, []string{
			"clip",
			filepath.Base(clip.Path),
			fmt.Sprintf("%.2f", clip.DurationSeconds),
			readable,
		})
	}

	fmt.Fprintln(cmd.OutOrStdout(), renderTable(
		[]string{"TYPE", "FILE", "DURATION", "READABLE"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
	))
	return nil
}

// expandClipArgs resolves clip arguments: files pass through, directories
// contribute their video files one level deep.
func expandClipArgs(args []string) ([]string, error) {
	var out []string
	for _, arg := range args {
		isDir, err := paths.DirExists(arg)
		if err != nil {
			return nil, fmt.Errorf("stat clip argument %s: %w", arg, err)
		}
		if !isDir {
			isFile, err := paths.FileExists(arg)
			if err != nil {
				return nil, fmt.Errorf("stat clip argument %s: %w", arg, err)
			}
			if !isFile {
				return nil, fmt.Errorf("clip argument %s does not exist", arg)
			}
			out = append(out, arg)
			continue
		}
		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, fmt.Errorf("read clip directory %s: %w", arg, err)
		}
		var found []string
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			if videoExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
				found = append(found, filepath.Join(arg, entry.Name()))
			}
		}
		sort.Strings(found)
		out = append(out, found...)
	}
	return out, nil
}
