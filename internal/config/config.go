// Package config loads VerseDeck settings from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/FocuswithJustin/VerseDeck/core/errors"
	"github.com/FocuswithJustin/VerseDeck/internal/logging"
	"github.com/FocuswithJustin/VerseDeck/internal/validation"
)

// Config holds runtime settings shared by the CLI and the web server.
type Config struct {
	Port           int           `env:"VERSEDECK_PORT"            envDefault:"8080"`
	OutputDir      string        `env:"VERSEDECK_OUTPUT_DIR"      envDefault:"./output"`
	PrimaryDB      string        `env:"VERSEDECK_PRIMARY_DB"      envDefault:"./data/dbs/kor_bible.db"`
	SecondaryDB    string        `env:"VERSEDECK_SECONDARY_DB"    envDefault:"./data/dbs/eng_bible.db"`
	SkeletonDir    string        `env:"VERSEDECK_SKELETON_DIR"`
	CacheTTL       time.Duration `env:"VERSEDECK_CACHE_TTL"       envDefault:"10m"`
	CacheEntries   int           `env:"VERSEDECK_CACHE_ENTRIES"   envDefault:"512"`
	BuildsPerMin   int           `env:"VERSEDECK_BUILDS_PER_MIN"  envDefault:"30"`
	BuildBurst     int           `env:"VERSEDECK_BUILD_BURST"     envDefault:"5"`
	DeckTTL        time.Duration `env:"VERSEDECK_DECK_TTL"        envDefault:"1h"`
	AllowedOrigins []string      `env:"VERSEDECK_ALLOWED_ORIGINS" envSeparator:","`
	LogLevel       string        `env:"VERSEDECK_LOG_LEVEL"       envDefault:"info"`
	LogFormat      string        `env:"VERSEDECK_LOG_FORMAT"      envDefault:"json"`
}

// Load reads the configuration from environment variables, applying
// defaults for unset ones.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &cfg, nil
}

// Merge overrides fields of c with the non-zero fields of o.
func (c *Config) Merge(o Config) {
	if o.Port != 0 {
		c.Port = o.Port
	}
	if o.OutputDir != "" {
		c.OutputDir = o.OutputDir
	}
	if o.PrimaryDB != "" {
		c.PrimaryDB = o.PrimaryDB
	}
	if o.SecondaryDB != "" {
		c.SecondaryDB = o.SecondaryDB
	}
	if o.SkeletonDir != "" {
		c.SkeletonDir = o.SkeletonDir
	}
	if o.CacheTTL != 0 {
		c.CacheTTL = o.CacheTTL
	}
	if o.CacheEntries != 0 {
		c.CacheEntries = o.CacheEntries
	}
	if o.BuildsPerMin != 0 {
		c.BuildsPerMin = o.BuildsPerMin
	}
	if o.BuildBurst != 0 {
		c.BuildBurst = o.BuildBurst
	}
	if o.DeckTTL != 0 {
		c.DeckTTL = o.DeckTTL
	}
	if len(o.AllowedOrigins) > 0 {
		c.AllowedOrigins = o.AllowedOrigins
	}
	if o.LogLevel != "" {
		c.LogLevel = o.LogLevel
	}
	if o.LogFormat != "" {
		c.LogFormat = o.LogFormat
	}
}

// Validate checks ports, paths and logging options.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return &errors.ValidationError{Field: "port", Value: fmt.Sprint(c.Port), Message: "must be between 1 and 65535"}
	}
	paths := []struct {
		field, value string
	}{
		{"output_dir", c.OutputDir},
		{"primary_db", c.PrimaryDB},
		{"secondary_db", c.SecondaryDB},
	}
	if c.SkeletonDir != "" {
		paths = append(paths, struct{ field, value string }{"skeleton_dir", c.SkeletonDir})
	}
	for _, p := range paths {
		if err := validation.ValidatePath(p.value); err != nil {
			return &errors.ValidationError{Field: p.field, Value: p.value, Message: "invalid path", Err: err}
		}
	}
	if c.CacheEntries < 0 {
		return errors.NewValidation("cache_entries", "must not be negative")
	}
	if c.BuildsPerMin < 0 || c.BuildBurst < 0 {
		return errors.NewValidation("builds_per_min", "rate limit must not be negative")
	}
	if c.DeckTTL < 0 {
		return errors.NewValidation("deck_ttl", "must not be negative")
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return &errors.ValidationError{Field: "log_level", Value: c.LogLevel, Message: "unknown level", Err: err}
	}
	if _, err := logging.ParseFormat(c.LogFormat); err != nil {
		return &errors.ValidationError{Field: "log_format", Value: c.LogFormat, Message: "unknown format", Err: err}
	}
	return nil
}

// Addr returns the listen address for Port.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
