package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// RunPaths captures canonical locations inside a run root. A run root is the
// directory a single compilation job works against; the discovery layer hands
// the core resolved clip and song paths, so nothing here scans for media.
type RunPaths struct {
	Root        string
	ConfigFile  string
	CompiledDir string
	WorkDir     string
	LogsDir     string
	MetaDir     string
	CatalogFile string
}

// Resolve determines the run root using the optional --run-root flag or the
// current working directory when the flag is empty.
func Resolve(runRootFlag string) (RunPaths, error) {
	var (
		root string
		err  error
	)

	if runRootFlag != "" {
		root, err = filepath.Abs(runRootFlag)
	} else {
		root, err = os.Getwd()
	}
	if err != nil {
		return RunPaths{}, fmt.Errorf("resolve run root: %w", err)
	}

	return newRunPaths(root), nil
}

func newRunPaths(root string) RunPaths {
	metaDir := filepath.Join(root, ".dancevid")
	return RunPaths{
		Root:        root,
		ConfigFile:  filepath.Join(root, "dancevid.yaml"),
		CompiledDir: filepath.Join(root, "music_video_compiled"),
		WorkDir:     filepath.Join(metaDir, "work"),
		LogsDir:     filepath.Join(root, "logs"),
		MetaDir:     metaDir,
		CatalogFile: filepath.Join(metaDir, "catalog.json"),
	}
}

// EnsureDirs creates the compiled/work/logs hierarchy alongside the hidden
// .dancevid metadata directory.
func (p RunPaths) EnsureDirs() error {
	dirs := []string{p.MetaDir, p.CompiledDir, p.WorkDir, p.LogsDir}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// OutputFile returns the deterministic compiled output path:
// <run_root>/music_video_compiled/<kind>_<song>_<timestamp>.mp4.
func (p RunPaths) OutputFile(kind, songName string, t time.Time) string {
	name := fmt.Sprintf("%s_%s_%s.mp4", sanitizeName(kind), sanitizeName(songName), t.Format("20060102_150405"))
	return filepath.Join(p.CompiledDir, name)
}

// SlotFile returns the work path for one rendered slot segment.
func (p RunPaths) SlotFile(index int) string {
	return filepath.Join(p.WorkDir, fmt.Sprintf("slot_%03d.mp4", index))
}

// SlotLogFile returns the ffmpeg log path for one slot render.
func (p RunPaths) SlotLogFile(index int) string {
	return filepath.Join(p.LogsDir, fmt.Sprintf("slot_%03d.log", index))
}

// CaptionsFile returns the work path for the generated ASS subtitle file.
func (p RunPaths) CaptionsFile() string {
	return filepath.Join(p.WorkDir, "captions.ass")
}

func sanitizeName(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "untitled"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "_", "\\", "_", ":", "_")
	return replacer.Replace(value)
}

// SongName derives the song label used in output filenames from an audio path.
func SongName(audioPath string) string {
	base := filepath.Base(audioPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// FileExists reports whether a path exists and is a regular file.
func FileExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.Mode().IsRegular(), nil
}

// DirExists reports whether a path exists and is a directory.
func DirExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.IsDir(), nil
}
