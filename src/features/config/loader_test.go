package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParse_AppliesDefaults(t *testing.T) {
	cfg, err := Parse(strings.NewReader("libraryPath: /srv/music\n"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.LibraryPath != "/srv/music" {
		t.Errorf("expected library path /srv/music, got %s", cfg.LibraryPath)
	}
	if cfg.Writeback.RetryDelay != 30*time.Second {
		t.Errorf("expected default retry delay 30s, got %s", cfg.Writeback.RetryDelay)
	}
	if cfg.Recycle.FinalPasses != 5 {
		t.Errorf("expected 5 final passes, got %d", cfg.Recycle.FinalPasses)
	}
	if cfg.Naming.DirectoryFormat != "artist_album" {
		t.Errorf("expected default directory format, got %s", cfg.Naming.DirectoryFormat)
	}
}

func TestParse_Durations(t *testing.T) {
	doc := `
libraryPath: /srv/music
writeback:
  retry_delay: 1m
  throttle: 25ms
recycle:
  final_passes: 3
  final_pause: 1s
`
	cfg, err := Parse(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.Writeback.RetryDelay != time.Minute {
		t.Errorf("expected 1m, got %s", cfg.Writeback.RetryDelay)
	}
	if cfg.Writeback.Throttle != 25*time.Millisecond {
		t.Errorf("expected 25ms, got %s", cfg.Writeback.Throttle)
	}
	if cfg.Recycle.FinalPasses != 3 || cfg.Recycle.FinalPause != time.Second {
		t.Errorf("unexpected recycle config %+v", cfg.Recycle)
	}
}

func TestParse_RejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"empty library":   "libraryPath: \"\"\n",
		"bad log level":   "libraryPath: /m\nlogger:\n  level: loud\n",
		"too many passes": "libraryPath: /m\nrecycle:\n  final_passes: 100\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse(strings.NewReader(doc)); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestLoad_CreatesDefaultFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("SOULWRITE_LIBRARY_PATH", filepath.Join(dir, "library"))
	path := filepath.Join(dir, "config.yaml")

	manager, err := Load(path)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected config file to be written: %v", err)
	}
	if _, err := os.Stat(manager.Get().LibraryPath); err != nil {
		t.Fatalf("expected library directory to be created: %v", err)
	}

	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("expected reload to succeed, got %v", err)
	}
	if reloaded.Get().Writeback.Throttle != 10*time.Millisecond {
		t.Errorf("expected throttle to round-trip, got %s", reloaded.Get().Writeback.Throttle)
	}
}
