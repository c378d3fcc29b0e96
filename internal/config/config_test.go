package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Optimizer.CacheSize != 24 {
		t.Errorf("expected cache size 24, got %d", cfg.Optimizer.CacheSize)
	}
	if cfg.Optimizer.Winding != "ccw" {
		t.Errorf("expected winding ccw, got %s", cfg.Optimizer.Winding)
	}
	if cfg.Optimizer.Strategy != "auto" {
		t.Errorf("expected strategy auto, got %s", cfg.Optimizer.Strategy)
	}
	if cfg.Optimizer.TargetClusters != 0 {
		t.Errorf("expected auto cluster count, got %d", cfg.Optimizer.TargetClusters)
	}

	if cfg.Overdraw.Optimizer != "auto" {
		t.Errorf("expected overdraw optimizer auto, got %s", cfg.Overdraw.Optimizer)
	}
	if cfg.Overdraw.Resolution != 256 {
		t.Errorf("expected resolution 256, got %d", cfg.Overdraw.Resolution)
	}
	if cfg.Overdraw.ViewpointsFile != "" {
		t.Errorf("expected built-in viewpoints, got %s", cfg.Overdraw.ViewpointsFile)
	}

	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level info, got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "" {
		t.Errorf("expected empty log file, got %s", cfg.Logging.LogFile)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "meshorder.yaml")

	yamlContent := `
optimizer:
  cache_size: 16
  winding: "cw"
  strategy: "tipsy"
  target_clusters: 8
  alpha: 1.5

overdraw:
  optimizer: "raytrace"
  resolution: 128
  viewpoints_file: "views.txt"

logging:
  level: "debug"
  log_file: "meshorder.log"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Optimizer.CacheSize != 16 {
		t.Errorf("expected cache size 16, got %d", cfg.Optimizer.CacheSize)
	}
	if cfg.Optimizer.Winding != "cw" {
		t.Errorf("expected winding cw, got %s", cfg.Optimizer.Winding)
	}
	if cfg.Optimizer.Strategy != "tipsy" {
		t.Errorf("expected strategy tipsy, got %s", cfg.Optimizer.Strategy)
	}
	if cfg.Optimizer.TargetClusters != 8 {
		t.Errorf("expected 8 target clusters, got %d", cfg.Optimizer.TargetClusters)
	}
	if cfg.Optimizer.Alpha != 1.5 {
		t.Errorf("expected alpha 1.5, got %f", cfg.Optimizer.Alpha)
	}

	if cfg.Overdraw.Optimizer != "raytrace" {
		t.Errorf("expected overdraw optimizer raytrace, got %s", cfg.Overdraw.Optimizer)
	}
	if cfg.Overdraw.Resolution != 128 {
		t.Errorf("expected resolution 128, got %d", cfg.Overdraw.Resolution)
	}
	if cfg.Overdraw.ViewpointsFile != "views.txt" {
		t.Errorf("expected viewpoints file views.txt, got %s", cfg.Overdraw.ViewpointsFile)
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level debug, got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "meshorder.log" {
		t.Errorf("expected log file meshorder.log, got %s", cfg.Logging.LogFile)
	}
}

func TestLoadMissingFileKeepsDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error = %v", err)
	}
	if cfg.Optimizer.CacheSize != 24 {
		t.Errorf("expected defaults, got cache size %d", cfg.Optimizer.CacheSize)
	}
}

func TestSaveToRoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "sub", "meshorder.yaml")

	in := Default()
	in.Optimizer.CacheSize = 32
	if err := in.SaveTo(path); err != nil {
		t.Fatalf("SaveTo() error = %v", err)
	}

	out, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if out.Optimizer.CacheSize != 32 {
		t.Errorf("round trip lost cache size: got %d", out.Optimizer.CacheSize)
	}
}
