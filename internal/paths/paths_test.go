package paths

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestResolveExplicitRoot(t *testing.T) {
	root := t.TempDir()
	pp, err := Resolve(root)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}

	if pp.Root != root {
		t.Errorf("root = %s, want %s", pp.Root, root)
	}
	if pp.ConfigFile != filepath.Join(root, "dancevid.yaml") {
		t.Errorf("config file = %s", pp.ConfigFile)
	}
	if pp.CompiledDir != filepath.Join(root, "music_video_compiled") {
		t.Errorf("compiled dir = %s", pp.CompiledDir)
	}
	if pp.WorkDir != filepath.Join(root, ".dancevid", "work") {
		t.Errorf("work dir = %s", pp.WorkDir)
	}
	if pp.CatalogFile != filepath.Join(root, ".dancevid", "catalog.json") {
		t.Errorf("catalog file = %s", pp.CatalogFile)
	}
}

func TestResolveDefaultsToWorkingDirectory(t *testing.T) {
	pp, err := Resolve("")
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if pp.Root != wd {
		t.Errorf("root = %s, want working directory %s", pp.Root, wd)
	}
}

func TestEnsureDirs(t *testing.T) {
	pp, err := Resolve(t.TempDir())
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if err := pp.EnsureDirs(); err != nil {
		t.Fatalf("EnsureDirs error: %v", err)
	}

	for _, dir := range []string{pp.MetaDir, pp.CompiledDir, pp.WorkDir, pp.LogsDir} {
		ok, err := DirExists(dir)
		if err != nil {
			t.Fatalf("DirExists(%s): %v", dir, err)
		}
		if !ok {
			t.Errorf("directory %s not created", dir)
		}
	}
}

func TestOutputFileNaming(t *testing.T) {
	pp := newRunPaths("/run")
	when := time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)

	tests := []struct {
		kind string
		song string
		want string
	}{
		{"dance", "midnight_mix", "dance_midnight_mix_20260102_150405.mp4"},
		{"dance", "My Song: Live", "dance_My_Song__Live_20260102_150405.mp4"},
		{"dance", "", "dance_untitled_20260102_150405.mp4"},
	}

	for _, tt := range tests {
		got := pp.OutputFile(tt.kind, tt.song, when)
		want := filepath.Join("/run", "music_video_compiled", tt.want)
		if got != want {
			t.Errorf("OutputFile(%q, %q) = %s, want %s", tt.kind, tt.song, got, want)
		}
	}
}

func TestSlotFileFormatting(t *testing.T) {
	pp := newRunPaths("/run")
	if got := pp.SlotFile(7); filepath.Base(got) != "slot_007.mp4" {
		t.Errorf("SlotFile(7) = %s", got)
	}
	if got := pp.SlotLogFile(123); filepath.Base(got) != "slot_123.log" {
		t.Errorf("SlotLogFile(123) = %s", got)
	}
	if got := pp.CaptionsFile(); got != filepath.Join("/run", ".dancevid", "work", "captions.ass") {
		t.Errorf("CaptionsFile = %s", got)
	}
}

func TestSongName(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/music/midnight_mix.mp3", "midnight_mix"},
		{"/music/live set.wav", "live set"},
		{"song", "song"},
	}
	for _, tt := range tests {
		if got := SongName(tt.path); got != tt.want {
			t.Errorf("SongName(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "present.txt")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	ok, err := FileExists(path)
	if err != nil || !ok {
		t.Errorf("FileExists(existing) = %v, %v", ok, err)
	}
	ok, err = FileExists(filepath.Join(dir, "absent.txt"))
	if err != nil || ok {
		t.Errorf("FileExists(missing) = %v, %v", ok, err)
	}
	ok, err = FileExists(dir)
	if err != nil || ok {
		t.Errorf("FileExists(directory) = %v, %v", ok, err)
	}
}
