// Package config provides configuration utilities for the application.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/Veraticus/mint-balance/internal/common"
)

// DefaultDir is the directory holding the config, settings and database.
const DefaultDir = "~/.config/mint"

// Config is the resolved application configuration.
type Config struct {
	DatabasePath string
	SettingsPath string
	Rates        RatesConfig
}

// RatesConfig configures the exchange rate sources.
type RatesConfig struct {
	PrimaryURL   string
	SecondaryURL string
	AccessKey    string
	Base         string
	Required     []string
	Timeout      time.Duration
}

// SetDefaults registers default values on the global viper instance.
func SetDefaults() {
	viper.SetDefault("database.path", DefaultPath("mint.db"))
	viper.SetDefault("settings.path", DefaultPath("settings.yaml"))
	viper.SetDefault("rates.timeout", "5s")
	viper.SetDefault("rates.base", "RUB")
	viper.SetDefault("rates.required", []string{"RUB", "USD", "EUR"})
	viper.SetDefault("rates.primary_url", "https://api.exchangerate.host/latest")
	viper.SetDefault("rates.secondary_url", "https://open.er-api.com/v6/latest/USD")
}

// Load reads the configuration from viper.
func Load() (*Config, error) {
	cfg := &Config{
		DatabasePath: ExpandPath(viper.GetString("database.path")),
		SettingsPath: ExpandPath(viper.GetString("settings.path")),
		Rates: RatesConfig{
			PrimaryURL:   viper.GetString("rates.primary_url"),
			SecondaryURL: viper.GetString("rates.secondary_url"),
			AccessKey:    viper.GetString("rates.access_key"),
			Base:         strings.ToUpper(viper.GetString("rates.base")),
			Required:     upper(viper.GetStringSlice("rates.required")),
			Timeout:      viper.GetDuration("rates.timeout"),
		},
	}

	// XRATE_KEY is the conventional name for the exchangerate.host key.
	if cfg.Rates.AccessKey == "" {
		cfg.Rates.AccessKey = viper.GetString("xrate_key")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that required values are present.
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("%w: database.path", common.ErrMissingConfig)
	}
	if c.SettingsPath == "" {
		return fmt.Errorf("%w: settings.path", common.ErrMissingConfig)
	}
	if c.Rates.Timeout <= 0 {
		return fmt.Errorf("%w: rates.timeout must be positive", common.ErrInvalidConfig)
	}
	if c.Rates.Base == "" {
		return fmt.Errorf("%w: rates.base", common.ErrMissingConfig)
	}
	return nil
}

// LoadEnv loads variables from the given .env files, skipping missing ones.
// Variables already set in the environment win.
func LoadEnv(paths ...string) error {
	for _, path := range paths {
		path = ExpandPath(path)
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
		slog.Debug("loaded environment file", "path", path)
	}
	return nil
}

func upper(codes []string) []string {
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		if c = strings.ToUpper(strings.TrimSpace(c)); c != "" {
			out = append(out, c)
		}
	}
	return out
}
