// Package config loads edmctl settings from edmctl.yaml, EDMCTL_* environment
// variables and command-line flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by edmctl.
const EnvPrefix = "EDMCTL"

// Config represents the edmctl configuration
type Config struct {
	LogLevel   string        `mapstructure:"log_level"`
	Geospatial bool          `mapstructure:"geospatial"`
	Catalog    CatalogConfig `mapstructure:"catalog"`
}

// CatalogConfig selects the catalog database used by import and export.
type CatalogConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

// New returns a viper instance with edmctl defaults and environment binding.
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault("log_level", "warn")
	v.SetDefault("geospatial", false)
	v.SetDefault("catalog.driver", "sqlite")
	v.SetDefault("catalog.dsn", "edm-catalog.db")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the config file into v and decodes the result. An empty path
// searches edmctl.yaml in the working directory and tolerates its absence;
// an explicit path must exist.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("edmctl")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log_level '%s': %w", c.LogLevel, err)
	}
	return level, nil
}

func validateConfig(cfg *Config) error {
	if _, err := cfg.Level(); err != nil {
		return err
	}
	switch cfg.Catalog.Driver {
	case "sqlite", "sqlite3", "postgres", "postgresql":
	default:
		return fmt.Errorf("catalog.driver must be sqlite or postgres, got: %s", cfg.Catalog.Driver)
	}
	if cfg.Catalog.DSN == "" {
		return fmt.Errorf("catalog.dsn is required")
	}
	return nil
}
