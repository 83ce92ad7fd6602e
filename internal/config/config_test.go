package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"photojobs/internal/config"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	prevDir, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prevDir); err != nil {
			t.Fatal(err)
		}
	})

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantPresets := filepath.Join(tempHome, ".config", "photojobs", "presets")
	if cfg.Paths.PresetsDir != wantPresets {
		t.Fatalf("unexpected presets dir: got %q want %q", cfg.Paths.PresetsDir, wantPresets)
	}
	if cfg.ExifTool.Binary != "exiftool" {
		t.Fatalf("unexpected exiftool binary: %q", cfg.ExifTool.Binary)
	}
	if cfg.ExifTool.TimeoutSeconds != 60 {
		t.Fatalf("unexpected exiftool timeout: %d", cfg.ExifTool.TimeoutSeconds)
	}
	if cfg.Workflow.Workers != 0 {
		t.Fatalf("unexpected workers: %d", cfg.Workflow.Workers)
	}
	if cfg.Scale.JPEGQuality != 95 {
		t.Fatalf("unexpected jpeg quality: %d", cfg.Scale.JPEGQuality)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.PresetsDir, cfg.Paths.LogDir, filepath.Dir(cfg.Paths.HistoryDB)} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
	}
}

func TestLoadReadsExplicitFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "photojobs.toml")
	content := strings.Join([]string{
		"[paths]",
		`presets_dir = "` + filepath.Join(dir, "presets") + `"`,
		"[exiftool]",
		`binary = "fake-exiftool"`,
		"timeout_seconds = 5",
		"[workflow]",
		"workers = 2",
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("unexpected resolution: exists=%v resolved=%q", exists, resolved)
	}
	if cfg.ExifTool.Binary != "fake-exiftool" || cfg.ExifTool.TimeoutSeconds != 5 {
		t.Fatalf("unexpected exiftool config: %+v", cfg.ExifTool)
	}
	if cfg.Workflow.Workers != 2 {
		t.Fatalf("unexpected workers: %d", cfg.Workflow.Workers)
	}
	if cfg.Logging.Format != "console" {
		t.Fatalf("expected default logging format, got %q", cfg.Logging.Format)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := config.Default()
	cfg.ExifTool.Binary = "   "
	cfg.Scale.JPEGQuality = 0
	if err := (&cfg).Validate(); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestWriteSampleRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := config.WriteSample(path); err != nil {
		t.Fatalf("first WriteSample failed: %v", err)
	}
	if err := config.WriteSample(path); err == nil {
		t.Fatal("expected error when overwriting existing config")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[exiftool]") {
		t.Fatalf("sample config missing exiftool section: %q", string(data))
	}
}
