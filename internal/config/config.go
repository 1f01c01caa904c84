// Package config loads runtime settings for the wcdgeom command from the
// environment.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"

	"github.com/signalsfoundry/wcd-geometry/internal/observability"
	"github.com/signalsfoundry/wcd-geometry/model"
)

// Config is the full runtime configuration.
type Config struct {
	CatalogPath string `env:"WCD_CATALOG" envDefault:"configs/catalog.yaml"`
	DeviceType  string `env:"WCD_TYPE" envDefault:"WCD"`
	Kind        string `env:"WCD_KIND"`
	Name        string `env:"WCD_NAME" envDefault:"detector"`
	Seed        uint64 `env:"WCD_SEED" envDefault:"1"`
	Variant     string `env:"WCD_VARIANT" envDefault:"true"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`

	// MetricsAddr enables the /metrics endpoint when non-empty.
	MetricsAddr string `env:"WCD_METRICS_ADDR"`

	Tracing observability.TracingConfig
}

// Load reads the configuration from the process environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, cfg.Validate()
}

// LoadFromEnviron reads the configuration from the given variables only.
func LoadFromEnviron(environ map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environ}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate checks values the environment parser cannot.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.CatalogPath) == "" {
		errs = append(errs, errors.New("WCD_CATALOG is required"))
	}
	if strings.TrimSpace(c.DeviceType) == "" {
		errs = append(errs, errors.New("WCD_TYPE is required"))
	}
	if _, err := model.ParseVariant(c.Variant); err != nil {
		errs = append(errs, fmt.Errorf("WCD_VARIANT: %w", err))
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT %q: want text or json", c.LogFormat))
	}
	if r := c.Tracing.SampleRatio; r < 0 || r > 1 {
		errs = append(errs, fmt.Errorf("WCD_TRACING_SAMPLE_RATIO %v outside [0, 1]", r))
	}
	return errors.Join(errs...)
}

// ResolveVariant returns the placement variant frames are printed for.
func (c Config) ResolveVariant() (model.Variant, error) {
	return model.ParseVariant(c.Variant)
}
