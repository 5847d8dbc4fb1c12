// Package config loads engine settings: built-in defaults, then an optional
// YAML file, then HEALTHXP_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config holds everything the engine and CLI need at startup.
type Config struct {
	// DBPath overrides the default database location. Empty means default.
	DBPath string `yaml:"db_path"`

	// LogMode is "dev" (human-readable, debug) or "prod" (JSON, info).
	LogMode string `yaml:"log_mode" validate:"oneof=dev prod"`

	// DefaultTimezone is given to learners whose settings carry none.
	DefaultTimezone string `yaml:"default_timezone" validate:"required,timezone"`

	// SnapshotRetention is how many snapshots per learner survive pruning.
	SnapshotRetention int `yaml:"snapshot_retention" validate:"gte=1,lte=1000"`

	// DefaultModulesPerSpecialty is assumed for specialties missing from
	// Specialties when an event carries no module total.
	DefaultModulesPerSpecialty int `yaml:"default_modules_per_specialty" validate:"gte=1"`

	// Specialties maps specialty id to its number of modules in the content
	// catalog.
	Specialties map[string]int `yaml:"specialties" validate:"dive,keys,required,endkeys,gte=1"`

	Retry RetryConfig `yaml:"retry"`
}

// RetryConfig configures persistence retries.
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts" validate:"gte=1,lte=10"`
	InitialWait time.Duration `yaml:"initial_wait" validate:"gte=0"`
	MaxWait     time.Duration `yaml:"max_wait" validate:"gtefield=InitialWait"`
	Multiplier  float64       `yaml:"multiplier" validate:"gte=1"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		LogMode:                    "dev",
		DefaultTimezone:            "UTC",
		SnapshotRetention:          20,
		DefaultModulesPerSpecialty: 5,
		Specialties: map[string]int{
			"cardiology":       8,
			"dermatology":      5,
			"endocrinology":    6,
			"gastroenterology": 6,
			"mental-health":    6,
			"neurology":        6,
			"nutrition":        5,
			"oncology":         7,
			"pediatrics":       6,
			"pulmonology":      5,
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: 50 * time.Millisecond,
			MaxWait:     time.Second,
			Multiplier:  2.0,
		},
	}
}

// Load merges defaults, the YAML file at path (if any) and environment
// overrides, then validates the result. An empty path falls back to
// HEALTHXP_CONFIG. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("HEALTHXP_CONFIG")
	}
	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
	}

	if err := loadEnv(&cfg); err != nil {
		return cfg, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // File doesn't exist, use defaults
		}
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func loadEnv(cfg *Config) error {
	if v := os.Getenv("HEALTHXP_DB"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("HEALTHXP_LOG_MODE"); v != "" {
		cfg.LogMode = v
	}
	if v := os.Getenv("HEALTHXP_TIMEZONE"); v != "" {
		cfg.DefaultTimezone = v
	}
	if v := os.Getenv("HEALTHXP_SNAPSHOT_RETENTION"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("HEALTHXP_SNAPSHOT_RETENTION: %w", err)
		}
		cfg.SnapshotRetention = n
	}
	return nil
}

var validate = validator.New()

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) && len(ve) > 0 {
			fe := ve[0]
			return fmt.Errorf("%s: failed %q constraint", fe.Namespace(), fe.Tag())
		}
		return err
	}
	return nil
}

// ModulesFor returns the module total for a specialty.
func (c Config) ModulesFor(specialty string) int {
	if n, ok := c.Specialties[specialty]; ok {
		return n
	}
	return c.DefaultModulesPerSpecialty
}
