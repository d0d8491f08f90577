package main

import (
	"fmt"

	"github.com/jonathan/credit-scorer/internal/config"
)

// resolveConfig builds the effective configuration: JSON file (when given),
// then environment overlays, then flag overrides via apply, then defaults.
func resolveConfig(configPath string, apply func(cfg *config.Config)) (config.Config, error) {
	var cfg config.Config
	if configPath != "" {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return config.Config{}, fmt.Errorf("failed to load config: %w", err)
		}
		if err := loaded.Validate(); err != nil {
			return config.Config{}, err
		}
		cfg = *loaded
	}

	cfg.ApplyEnv()
	if apply != nil {
		apply(&cfg)
	}

	merged := cfg.MergeWithDefaults(config.Config{})
	if err := merged.Validate(); err != nil {
		return config.Config{}, err
	}
	return merged, nil
}
