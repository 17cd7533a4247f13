// Package config loads meterimport settings from an optional config file
// and METERIMPORT_* environment variables.
package config

import (
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"

	"github.com/jwulff/meterimport/internal/ingest"
)

// EnvPrefix prefixes environment overrides: "ingest.day_first" is read
// from METERIMPORT_INGEST_DAY_FIRST.
const EnvPrefix = "METERIMPORT"

// Config is the full application configuration.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Log      LogConfig      `mapstructure:"log"`
	Ingest   IngestConfig   `mapstructure:"ingest"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type LogConfig struct {
	JSON  bool   `mapstructure:"json"`
	Level string `mapstructure:"level"`
}

type IngestConfig struct {
	// MmolThreshold: glucose values below it are read as mmol/L.
	MmolThreshold float64 `mapstructure:"mmol_threshold"`
	DayFirst      bool    `mapstructure:"day_first"`
	// Timezone is an IANA zone name for timestamps without one. Empty means local.
	Timezone string `mapstructure:"timezone"`
}

// SetDefaults registers the default for every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("database.path", "meterimport.db")
	v.SetDefault("log.json", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("ingest.mmol_threshold", ingest.DefaultMmolThreshold)
	v.SetDefault("ingest.day_first", false)
	v.SetDefault("ingest.timezone", "")
}

// Load reads configuration. An explicit path must exist; with no path a
// meterimport.{yaml,toml,json} in the working directory is used if present.
func Load(path string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "failed to read config file %s", path)
		}
	} else {
		v.SetConfigName("meterimport")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, errors.Wrap(err, "failed to read config file")
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values viper cannot type-check.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return errors.WithHint(errors.New("database.path is empty"),
			"set database.path or METERIMPORT_DATABASE_PATH")
	}
	if c.Ingest.MmolThreshold <= 0 {
		return errors.Newf("ingest.mmol_threshold must be positive, got %v", c.Ingest.MmolThreshold)
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return errors.WithHint(errors.Wrap(err, "invalid log.level"),
			"use one of debug, info, warn, error")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location returns the zone for timestamps that carry none.
func (c *Config) Location() (*time.Location, error) {
	if c.Ingest.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Ingest.Timezone)
	if err != nil {
		return nil, errors.WithHintf(errors.Wrap(err, "invalid ingest.timezone"),
			"use an IANA zone name such as %q", "Europe/Berlin")
	}
	return loc, nil
}

// EngineOptions translates the ingest settings into engine options.
func (c *Config) EngineOptions() ([]ingest.Option, error) {
	loc, err := c.Location()
	if err != nil {
		return nil, err
	}
	return []ingest.Option{
		ingest.WithLocation(loc),
		ingest.WithDayFirst(c.Ingest.DayFirst),
		ingest.WithUnitPolicy(ingest.MmolThresholdPolicy(c.Ingest.MmolThreshold)),
	}, nil
}
