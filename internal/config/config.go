// Package config loads the engine configuration from a YAML file, with
// environment variables (optionally from a .env file) overriding the global
// settings.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// TileSize is the pixel edge length of a slippy tile. Fixed by the tile
// server ecosystem.
const TileSize = 256

// TileTTL is how long a downloaded tile is served before it is refetched.
const TileTTL = 7 * 24 * time.Hour

// Source is one configured tile source: a display name and a list of
// equivalent mirror URL templates with {z}/{x}/{y} placeholders.
type Source struct {
	Name    string   `yaml:"name"`
	Enabled bool     `yaml:"enabled"`
	URLs    []string `yaml:"urls"`
}

type Config struct {
	UserAgent        string `yaml:"user_agent" env:"USER_AGENT"`
	CacheDir         string `yaml:"cache_dir" env:"CACHE_DIR"`
	RetrySeconds     int    `yaml:"retry_seconds" env:"RETRY_SECONDS"`
	Port             int    `yaml:"port" env:"PORT"`
	LogLevel         string `yaml:"log_level" env:"LOG_LEVEL"`
	PlaceholderImage string `yaml:"placeholder_image" env:"PLACEHOLDER_IMAGE"`
	VipsMaxCacheMB   int    `yaml:"vips_max_cache_mb" env:"VIPS_MAX_CACHE_MB"`
	VipsConcurrency  int    `yaml:"vips_concurrency" env:"VIPS_CONCURRENCY"`

	Sources []Source `yaml:"sources"`
}

// Load reads the config file at path (skipped when empty), then applies
// environment overrides.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		UserAgent:       "mapedit/0.1",
		CacheDir:        "cache",
		RetrySeconds:    4,
		Port:            8080,
		LogLevel:        "info",
		VipsMaxCacheMB:  256,
		VipsConcurrency: 1,
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	for _, src := range cfg.Sources {
		if src.Name == "" {
			return nil, fmt.Errorf("tile source without a name")
		}
		if src.Enabled && len(src.URLs) == 0 {
			return nil, fmt.Errorf("tile source %q enabled but has no mirror urls", src.Name)
		}
	}

	return cfg, nil
}

// RetryWindow returns the retry window as a duration.
func (c *Config) RetryWindow() time.Duration {
	return time.Duration(c.RetrySeconds) * time.Second
}

// EnabledSources filters the configured sources down to the enabled ones.
func (c *Config) EnabledSources() []Source {
	var enabled []Source
	for _, src := range c.Sources {
		if src.Enabled {
			enabled = append(enabled, src)
		}
	}
	return enabled
}
