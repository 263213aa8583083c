package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config is the application configuration loaded from merchdeck.toml.
// Connector credentials come from the environment (.env is honored) so
// they never land in the config file.
type Config struct {
	OpsPort int    `toml:"ops_port"`
	DropDir string `toml:"drop_dir"`

	Upstreams UpstreamsConfig `toml:"upstreams"`
	Pipeline  PipelineConfig  `toml:"pipeline"`
	License   LicenseConfig   `toml:"license"`
}

// UpstreamsConfig names the three upstream systems' endpoints.
type UpstreamsConfig struct {
	MasterData string `toml:"master_data"`
	Ecommerce  string `toml:"ecommerce"`
	ERP        string `toml:"erp"`
}

// PipelineConfig carries the bulk-media defaults.
type PipelineConfig struct {
	BatchSize           int     `toml:"batch_size"`
	DelayBetweenBatches int     `toml:"delay_between_batches_ms"`
	ImageQuality        float64 `toml:"image_quality"`
	TargetSizeKB        int     `toml:"target_size_kb"`
	ProcessImages       bool    `toml:"process_images"`
	UploadTimeout       int     `toml:"upload_timeout_ms"`
}

// LicenseConfig is the locally provisioned license state.
type LicenseConfig struct {
	Valid    bool     `toml:"valid"`
	Level    string   `toml:"level"`
	Features []string `toml:"features"`
	Expiry   string   `toml:"expiry"`
}

// Delay returns the configured inter-batch delay.
func (p PipelineConfig) Delay() time.Duration {
	return time.Duration(p.DelayBetweenBatches) * time.Millisecond
}

// UploadTimeoutDuration returns the per-item upload timeout.
func (p PipelineConfig) UploadTimeoutDuration() time.Duration {
	return time.Duration(p.UploadTimeout) * time.Millisecond
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		OpsPort: 7878,
		Pipeline: PipelineConfig{
			BatchSize:           3,
			DelayBetweenBatches: 2000,
			ImageQuality:        0.85,
			TargetSizeKB:        500,
			ProcessImages:       true,
			UploadTimeout:       30000,
		},
		License: LicenseConfig{Valid: true, Level: "standard", Features: []string{"bulk_media"}},
	}
}

// Load reads merchdeck.toml from dir, falling back to defaults when
// the file is absent. A present but malformed file is an error.
func Load(dir string) (*Config, error) {
	// Side effect: make .env values visible to the connectors.
	_ = godotenv.Load(filepath.Join(dir, ".env"))

	cfg := Default()
	path := filepath.Join(dir, "merchdeck.toml")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if cfg.Pipeline.BatchSize < 1 {
		return nil, fmt.Errorf("pipeline batch_size must be positive, got %d", cfg.Pipeline.BatchSize)
	}
	if cfg.Pipeline.ImageQuality <= 0 || cfg.Pipeline.ImageQuality > 1 {
		return nil, fmt.Errorf("pipeline image_quality must be in (0,1], got %v", cfg.Pipeline.ImageQuality)
	}
	return cfg, nil
}
