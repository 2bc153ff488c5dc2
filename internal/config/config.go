package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all engine configuration.
type Config struct {
	Storage       StorageConfig       `yaml:"storage"`
	Analysis      AnalysisConfig      `yaml:"analysis"`
	Applicability ApplicabilityConfig `yaml:"applicability"`
	Versioning    VersioningConfig    `yaml:"versioning"`
	Logging       LoggingConfig       `yaml:"logging"`
}

// StorageConfig holds settings for report persistence.
type StorageConfig struct {
	SQLitePath string `yaml:"sqlite_path"`
}

// AnalysisConfig holds settings for the conformance analyzer.
type AnalysisConfig struct {
	MaxFindings int  `yaml:"max_findings"` // findings strings per criterion (default: 5)
	CacheEnable bool `yaml:"cache_enable"` // read-through result cache
}

// ApplicabilityConfig holds settings for the N/A suggestion scanner.
type ApplicabilityConfig struct {
	FragmentCap int `yaml:"fragment_cap"` // max content fragments scanned per job (default: 50)
}

// VersioningConfig holds settings for report version numbering.
type VersioningConfig struct {
	MaxRetries   int           `yaml:"max_retries"`   // retries on version-number conflict (default: 3)
	RetryBackoff time.Duration `yaml:"retry_backoff"` // base backoff, multiplied by attempt (default: 100ms)
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Defaults returns a Config populated with sensible default values.
func Defaults() Config {
	return Config{
		Storage: StorageConfig{
			SQLitePath: "./confengine.db",
		},
		Analysis: AnalysisConfig{
			MaxFindings: 5,
			CacheEnable: true,
		},
		Applicability: ApplicabilityConfig{
			FragmentCap: 50,
		},
		Versioning: VersioningConfig{
			MaxRetries:   3,
			RetryBackoff: 100 * time.Millisecond,
		},
		Logging: LoggingConfig{
			Level: "INFO",
		},
	}
}

// Load reads a YAML configuration file from path and returns a Config.
// Values not specified in the file retain their defaults.
func Load(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config file: %w", err)
	}

	return cfg, nil
}
