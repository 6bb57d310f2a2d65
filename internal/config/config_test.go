package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
	}

	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("expected default host 0.0.0.0, got %s", cfg.Server.Host)
	}

	if cfg.Optimizer.TotalBudget != 120 {
		t.Errorf("expected default total budget 120, got %f", cfg.Optimizer.TotalBudget)
	}

	if cfg.Persistence.Backend != BackendFile {
		t.Errorf("expected default backend file, got %s", cfg.Persistence.Backend)
	}

	if cfg.Logging.Level != "info" {
		t.Errorf("expected default log level info, got %s", cfg.Logging.Level)
	}
}

func TestLoad(t *testing.T) {
	content := `
server:
  host: "127.0.0.1"
  port: 9090
  rate_limit:
    enabled: true
    requests_per_second: 5
    burst: 10

estimator:
  definition: "estimator.yaml"
  sharpe: true

optimizer:
  total_budget: 90

logging:
  level: "debug"
  format: "json"
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("expected host 127.0.0.1, got %s", cfg.Server.Host)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Server.Port)
	}

	if !cfg.Server.RateLimit.Enabled || cfg.Server.RateLimit.Burst != 10 {
		t.Errorf("expected rate limit enabled with burst 10, got %+v", cfg.Server.RateLimit)
	}

	if cfg.Estimator.Definition != "estimator.yaml" || !cfg.Estimator.Sharpe {
		t.Errorf("unexpected estimator config: %+v", cfg.Estimator)
	}

	if cfg.Optimizer.TotalBudget != 90 {
		t.Errorf("expected total budget 90, got %f", cfg.Optimizer.TotalBudget)
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level debug, got %s", cfg.Logging.Level)
	}

	// Check that defaults are preserved for unspecified values
	if cfg.Optimizer.MaxIter != 500 {
		t.Errorf("expected default max_iter 500, got %d", cfg.Optimizer.MaxIter)
	}
	if cfg.Grid.Step != 10 {
		t.Errorf("expected default grid step 10, got %f", cfg.Grid.Step)
	}
	if cfg.Grid.MaxCells != 1_000_000 {
		t.Errorf("expected default grid max_cells 1000000, got %d", cfg.Grid.MaxCells)
	}
}

func TestLoadInvalid(t *testing.T) {
	content := `
optimizer:
  total_budget: -1
grid:
  step: 0
`
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	if _, err := Load(configPath); err == nil {
		t.Error("expected validation error")
	}
}

func TestLoadFileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("expected error for non-existent file")
	}
}

func TestLoadOrDefault(t *testing.T) {
	// Empty path returns defaults
	cfg := LoadOrDefault("")
	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
	}

	// Non-existent file returns defaults
	cfg = LoadOrDefault("/nonexistent/path/config.yaml")
	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
	}
}
