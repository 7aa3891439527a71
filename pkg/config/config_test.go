package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestReadDefaults(t *testing.T) {
	cfg, err := Read("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ImagingAPIURL != "http://localhost:8080" {
		t.Errorf("default url: %s", cfg.ImagingAPIURL)
	}
	if cfg.PollInterval() != 2*time.Second {
		t.Errorf("default poll interval: %v", cfg.PollInterval())
	}
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "harness.yaml")
	content := `imaging_api_url: http://imaging:9000
manifest_path: /data/manifest.json
poll_timeout_sec: 120
poll_interval_ms: 500
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Read(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ImagingAPIURL != "http://imaging:9000" {
		t.Errorf("url not read: %s", cfg.ImagingAPIURL)
	}
	if cfg.ManifestPath != "/data/manifest.json" {
		t.Errorf("manifest not read: %s", cfg.ManifestPath)
	}
	if cfg.PollTimeout() != 2*time.Minute || cfg.PollInterval() != 500*time.Millisecond {
		t.Errorf("timings not read: %v %v", cfg.PollTimeout(), cfg.PollInterval())
	}
	// Unset fields keep their defaults.
	if cfg.MaxRetries != 3 {
		t.Errorf("max_retries default lost: %d", cfg.MaxRetries)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("IMAGING_API_URL", "http://override:1234")
	t.Setenv("POLL_TIMEOUT_SEC", "42")

	cfg, err := Read("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ImagingAPIURL != "http://override:1234" {
		t.Errorf("env override lost: %s", cfg.ImagingAPIURL)
	}
	if cfg.PollTimeoutSec != 42 {
		t.Errorf("poll timeout override lost: %d", cfg.PollTimeoutSec)
	}
}

func TestReadMissingFile(t *testing.T) {
	if _, err := Read(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
