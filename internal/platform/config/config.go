// Copyright (c) 2026 Lumina. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (client, registry) via constructors.
  - Zero Hidden State: No global variables are used to store config.

This ensures the application is Twelve-Factor compliant by storing config in the env.
*/
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// # Configuration Schema

// Config holds all runtime configuration for the Lumina gallery client.
type Config struct {

	// Gallery backend origin, e.g. http://127.0.0.1:8000
	APIBaseURL string `env:"GALLERY_API_URL" envDefault:"http://127.0.0.1:8000"`

	// Number of images requested per metadata page
	PageSize int `env:"GALLERY_PAGE_SIZE" envDefault:"20"`

	// Number of pages speculatively warmed beyond the one just loaded
	WarmupPages int `env:"GALLERY_WARMUP_PAGES" envDefault:"3"`

	// Upper bound on warm-up requests per second (advisory traffic)
	WarmupRatePerSecond float64 `env:"GALLERY_WARMUP_RATE" envDefault:"4"`

	// Directory export archives are written to
	ExportDir string `env:"GALLERY_EXPORT_DIR" envDefault:"."`

	// Maximum pages the shell's browse session walks before stopping
	MaxPages int `env:"GALLERY_MAX_PAGES" envDefault:"10"`

	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	Debug       bool   `env:"DEBUG"       envDefault:"false"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// Use the 'env' package to map environment variables to struct fields.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	return cfg, nil
}

// IsDevelopment reports whether the client is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the client is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
