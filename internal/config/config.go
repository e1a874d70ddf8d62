package config

import (
	"fmt"
	"strings"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"github.com/sw33tLie/dasha/pkg/dasha"
)

// EphemerisConfig points at the positions service used by `chart add --fetch`
// and transit lookups.
type EphemerisConfig struct {
	URL     string        `mapstructure:"url"`
	Retries int           `mapstructure:"retries"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type SandhiConfig struct {
	Fraction float64 `mapstructure:"fraction"`
}

type ServerConfig struct {
	Listen   string `mapstructure:"listen"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// Config holds all runtime configuration.
// Values are populated from .dasha.yaml, DASHA_* env vars, and CLI flags.
type Config struct {
	YearBasis     string          `mapstructure:"year_basis"`
	HorizonCycles float64         `mapstructure:"horizon_cycles"`
	Depth         int             `mapstructure:"depth"`
	Concurrency   int             `mapstructure:"concurrency"`
	DBPath        string          `mapstructure:"db_path"`
	Ephemeris     EphemerisConfig `mapstructure:"ephemeris"`
	Sandhi        SandhiConfig    `mapstructure:"sandhi"`
	Server        ServerConfig    `mapstructure:"server"`
}

// SetDefaults registers the built-in defaults and the DASHA_ environment
// binding on the global viper instance.
func SetDefaults() {
	viper.SetEnvPrefix("DASHA")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("year_basis", string(dasha.Gregorian))
	viper.SetDefault("horizon_cycles", dasha.DefaultHorizonCycles)
	viper.SetDefault("depth", dasha.DefaultDepth)
	viper.SetDefault("concurrency", 6)
	viper.SetDefault("db_path", "~/.config/dasha/dasha.sqlite")
	viper.SetDefault("ephemeris.url", "")
	viper.SetDefault("ephemeris.retries", 3)
	viper.SetDefault("ephemeris.timeout", 10*time.Second)
	viper.SetDefault("sandhi.fraction", dasha.DefaultSandhiFraction)
	viper.SetDefault("server.listen", ":8080")
	viper.SetDefault("server.username", "")
	viper.SetDefault("server.password", "")
}

// Load reads configuration from viper, applying built-in defaults for any
// values not set by config file, environment, or flags.
func Load() (Config, error) {
	SetDefaults()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	path, err := homedir.Expand(cfg.DBPath)
	if err != nil {
		return cfg, fmt.Errorf("db_path: %w", err)
	}
	cfg.DBPath = path
	return cfg, nil
}

func (c Config) Validate() error {
	if _, err := dasha.ParseYearBasis(c.YearBasis); err != nil {
		return fmt.Errorf("year_basis: %w", err)
	}
	if c.HorizonCycles <= 0 {
		return fmt.Errorf("horizon_cycles must be positive, got %v", c.HorizonCycles)
	}
	if c.Depth < 1 || c.Depth > 5 {
		return fmt.Errorf("depth must be between 1 and 5, got %d", c.Depth)
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency)
	}
	if c.Sandhi.Fraction <= 0 || c.Sandhi.Fraction >= 0.5 {
		return fmt.Errorf("sandhi.fraction must be in (0, 0.5), got %v", c.Sandhi.Fraction)
	}
	if c.Ephemeris.Retries < 0 {
		return fmt.Errorf("ephemeris.retries must not be negative")
	}
	return nil
}

// Options converts the configuration into tree construction options.
func (c Config) Options() dasha.Options {
	basis, _ := dasha.ParseYearBasis(c.YearBasis)
	return dasha.Options{
		YearBasis:     basis,
		HorizonCycles: c.HorizonCycles,
		Depth:         c.Depth,
	}
}
