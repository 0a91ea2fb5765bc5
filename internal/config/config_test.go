package config_test

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"bookpipe/internal/config"
)

func TestLoadConfigFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	data := []byte(`{
  "profile_dir": "/srv/profile",
  "downloads_dir": "/srv/downloads",
  "output_dir": "/srv/out",
  "headless": true,
  "download_wait": "5s",
  "freshness_window": "90s",
  "max_words": 1000,
  "post_commands": ["echo done"]
}`)

	dir := t.TempDir()
	path := filepath.Join(dir, "bookpipe.json")
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.ProfileDir != "/srv/profile" || cfg.DownloadsDir != "/srv/downloads" || cfg.OutputDir != "/srv/out" {
		t.Fatalf("unexpected dirs: %+v", cfg)
	}
	if !cfg.Headless {
		t.Fatalf("expected headless")
	}
	if cfg.DownloadWait != 5*time.Second || cfg.FreshnessWindow != 90*time.Second {
		t.Fatalf("unexpected durations: %s %s", cfg.DownloadWait, cfg.FreshnessWindow)
	}
	if cfg.MaxWords != 1000 {
		t.Fatalf("unexpected max words: %d", cfg.MaxWords)
	}
	if !reflect.DeepEqual(cfg.PostCommands, []string{"echo done"}) {
		t.Fatalf("unexpected post commands: %#v", cfg.PostCommands)
	}
	// untouched keys keep their defaults
	if cfg.ConvertTimeout != 60*time.Second || cfg.MinUnitChars != 100 {
		t.Fatalf("defaults lost: %+v", cfg)
	}
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.MaxWords != 350000 {
		t.Fatalf("expected default ceiling, got %d", cfg.MaxWords)
	}
	if cfg.DownloadWait != 20*time.Second || cfg.FreshnessWindow != 120*time.Second {
		t.Fatalf("unexpected default waits: %+v", cfg)
	}
	if !strings.HasPrefix(cfg.DownloadsDir, home) {
		t.Fatalf("downloads dir should live under home: %s", cfg.DownloadsDir)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "bookpipe.json")
	if err := os.WriteFile(path, []byte(`{"max_words": 1000}`), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("BOOKPIPE_MAX_WORDS", "2500")
	t.Setenv("BOOKPIPE_DOWNLOAD_WAIT", "3s")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.MaxWords != 2500 {
		t.Fatalf("env did not override file: %d", cfg.MaxWords)
	}
	if cfg.DownloadWait != 3*time.Second {
		t.Fatalf("env duration not applied: %s", cfg.DownloadWait)
	}
}

func TestLoadRejectsInvalidCeiling(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "bookpipe.json")
	if err := os.WriteFile(path, []byte(`{"max_words": 0}`), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := config.Load(path); err == nil || !strings.Contains(err.Error(), "max_words") {
		t.Fatalf("expected max_words error, got %v", err)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := config.Load(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("expected error for missing explicit config")
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg := config.Defaults()
	cfg.OutputDir = "/tmp/out"
	cfg.MaxWords = 4242
	cfg.DownloadWait = 7 * time.Second

	data, err := config.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `"download_wait": "7s"`) {
		t.Fatalf("durations should be human readable: %s", data)
	}

	path := filepath.Join(t.TempDir(), "bookpipe.json")
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatal(err)
	}
	loaded, err := config.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.MaxWords != 4242 || loaded.DownloadWait != 7*time.Second || loaded.OutputDir != "/tmp/out" {
		t.Fatalf("round trip mismatch: %+v", loaded)
	}
}

func TestSearchDirsUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, d := range config.SearchDirs() {
		key := strings.ToLower(filepath.Clean(d))
		if seen[key] {
			t.Fatalf("duplicate search dir %q", d)
		}
		seen[key] = true
	}
	if !seen["."] {
		t.Fatalf("working dir should be searched")
	}
}
