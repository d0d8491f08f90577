// Package config provides configuration loading and validation for the CLI
// and server.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-playground/validator/v10"
)

// Defaults applied when neither flag, env, nor config file sets a value.
const (
	DefaultModelType     = "ensemble"
	DefaultCVFolds       = 5
	DefaultRandomState   = 42
	DefaultAltDataWeight = 0.3
	DefaultPort          = 8080
	DefaultModelPath     = "models/credit_model.bin"

	// MinCVFolds is the smallest usable cross-validation fold count.
	MinCVFolds = 2
)

// Config represents the configuration that can be loaded from a JSON file.
// All fields are optional; missing values use defaults or must be provided
// via CLI flags.
type Config struct {
	ModelType     string  `json:"model_type,omitempty"`      // Model family key (rf, gb, xgb, lgb, nn, stacking, voting, ensemble)
	CVFolds       int     `json:"cv_folds,omitempty" validate:"omitempty,gte=2"`
	RandomState   int64   `json:"random_state,omitempty"`
	AltDataWeight float64 `json:"alt_data_weight,omitempty" validate:"gte=0,lte=1"`
	DatabaseURL   string  `json:"database_url,omitempty"` // PostgreSQL connection URL
	Port          int     `json:"port,omitempty" validate:"omitempty,gte=1,lte=65535"`
	ModelPath     string  `json:"model_path,omitempty"` // Trained bundle location
	Verbose       bool    `json:"verbose,omitempty"`    // Print detailed progress information
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the configuration has valid values. An unknown
// model type is not a config error; the model factory falls back to the
// default ensemble.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	return nil
}

// ApplyEnv overlays environment variables on unset fields. Flags merged
// afterwards still win.
func (c *Config) ApplyEnv() {
	if c.DatabaseURL == "" {
		c.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if c.ModelPath == "" {
		c.ModelPath = os.Getenv("MODEL_PATH")
	}
	if c.ModelType == "" {
		c.ModelType = os.Getenv("MODEL_TYPE")
	}
	if c.Port == 0 {
		if v, err := strconv.Atoi(os.Getenv("PORT")); err == nil {
			c.Port = v
		}
	}
}

// MergeWithDefaults returns a new Config with unset fields filled from
// defaults, then from the package-level default constants.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.ModelType == "" {
		result.ModelType = defaults.ModelType
	}
	if result.ModelType == "" {
		result.ModelType = DefaultModelType
	}

	if result.CVFolds == 0 {
		result.CVFolds = defaults.CVFolds
	}
	if result.CVFolds < MinCVFolds {
		result.CVFolds = DefaultCVFolds
	}

	if result.RandomState == 0 {
		if defaults.RandomState != 0 {
			result.RandomState = defaults.RandomState
		} else {
			result.RandomState = DefaultRandomState
		}
	}

	if result.AltDataWeight == 0 {
		if defaults.AltDataWeight > 0 {
			result.AltDataWeight = defaults.AltDataWeight
		} else {
			result.AltDataWeight = DefaultAltDataWeight
		}
	}

	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}

	if result.Port == 0 {
		result.Port = defaults.Port
	}
	if result.Port == 0 {
		result.Port = DefaultPort
	}

	if result.ModelPath == "" {
		result.ModelPath = defaults.ModelPath
	}
	if result.ModelPath == "" {
		result.ModelPath = DefaultModelPath
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}
