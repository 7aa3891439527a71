// Package config loads the harness configuration: where the imaging service
// lives, where the fixture manifest is, and the timeout budgets of every
// network-facing call. Values come from a YAML file with environment
// variable overrides.
package config

import (
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v2"
)

type Config struct {
	ImagingAPIURL string `yaml:"imaging_api_url"`
	ManifestPath  string `yaml:"manifest_path"`

	UploadTimeoutSec  int `yaml:"upload_timeout_sec"`
	AnalyzeTimeoutSec int `yaml:"analyze_timeout_sec"`
	BatchTimeoutSec   int `yaml:"batch_timeout_sec"`

	PollTimeoutSec  int `yaml:"poll_timeout_sec"`
	PollIntervalMs  int `yaml:"poll_interval_ms"`
	MaxRetries      int `yaml:"max_retries"`
	RetryDelayMs    int `yaml:"retry_delay_ms"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		ImagingAPIURL:     "http://localhost:8080",
		ManifestPath:      "fixtures/manifest.json",
		UploadTimeoutSec:  60,
		AnalyzeTimeoutSec: 30,
		BatchTimeoutSec:   180,
		PollTimeoutSec:    300,
		PollIntervalMs:    2000,
		MaxRetries:        3,
		RetryDelayMs:      1000,
	}
}

// Read loads a config file and applies environment overrides. An empty path
// yields the defaults plus overrides.
func Read(filePath string) (*Config, error) {
	cfg := Default()

	if filePath != "" {
		content, err := os.ReadFile(filePath)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(content, &cfg); err != nil {
			return nil, err
		}
	}

	if v := os.Getenv("IMAGING_API_URL"); v != "" {
		cfg.ImagingAPIURL = v
	}
	if v := os.Getenv("FIXTURE_MANIFEST"); v != "" {
		cfg.ManifestPath = v
	}
	if v := os.Getenv("POLL_TIMEOUT_SEC"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.PollTimeoutSec = n
		}
	}

	return &cfg, nil
}

func (c *Config) UploadTimeout() time.Duration { return time.Duration(c.UploadTimeoutSec) * time.Second }

func (c *Config) AnalyzeTimeout() time.Duration {
	return time.Duration(c.AnalyzeTimeoutSec) * time.Second
}

func (c *Config) BatchTimeout() time.Duration { return time.Duration(c.BatchTimeoutSec) * time.Second }

func (c *Config) PollTimeout() time.Duration { return time.Duration(c.PollTimeoutSec) * time.Second }

func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

func (c *Config) RetryDelay() time.Duration { return time.Duration(c.RetryDelayMs) * time.Millisecond }
