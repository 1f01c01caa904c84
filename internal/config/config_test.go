package config

import (
	"strings"
	"testing"

	"github.com/signalsfoundry/wcd-geometry/model"
)

func TestLoadFromEnvironDefaults(t *testing.T) {
	cfg, err := LoadFromEnviron(map[string]string{})
	if err != nil {
		t.Fatalf("LoadFromEnviron: %v", err)
	}
	if cfg.CatalogPath != "configs/catalog.yaml" {
		t.Fatalf("CatalogPath = %q", cfg.CatalogPath)
	}
	if cfg.DeviceType != "WCD" || cfg.Seed != 1 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Tracing.Enabled || cfg.Tracing.Exporter != "stdout" || cfg.Tracing.SampleRatio != 1 {
		t.Fatalf("unexpected tracing defaults: %+v", cfg.Tracing)
	}
	v, err := cfg.ResolveVariant()
	if err != nil || v != model.VariantTrue {
		t.Fatalf("ResolveVariant = %v, %v; want true", v, err)
	}
}

func TestLoadFromEnvironOverrides(t *testing.T) {
	cfg, err := LoadFromEnviron(map[string]string{
		"WCD_CATALOG":              "/tmp/cat.yaml",
		"WCD_TYPE":                 "mPMT",
		"WCD_KIND":                 "MR",
		"WCD_SEED":                 "42",
		"WCD_VARIANT":              "design",
		"LOG_FORMAT":               "json",
		"WCD_TRACING_ENABLED":      "true",
		"WCD_TRACING_SAMPLE_RATIO": "0.25",
		"WCD_METRICS_ADDR":         ":9464",
	})
	if err != nil {
		t.Fatalf("LoadFromEnviron: %v", err)
	}
	if cfg.CatalogPath != "/tmp/cat.yaml" || cfg.DeviceType != "mPMT" || cfg.Kind != "MR" || cfg.Seed != 42 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if !cfg.Tracing.Enabled || cfg.Tracing.SampleRatio != 0.25 {
		t.Fatalf("unexpected tracing config: %+v", cfg.Tracing)
	}
	if cfg.MetricsAddr != ":9464" {
		t.Fatalf("MetricsAddr = %q", cfg.MetricsAddr)
	}
}

func TestLoadFromEnvironErrors(t *testing.T) {
	cases := map[string]map[string]string{
		"bad seed":    {"WCD_SEED": "not-a-number"},
		"bad variant": {"WCD_VARIANT": "sideways"},
		"bad format":  {"LOG_FORMAT": "xml"},
		"bad ratio":   {"WCD_TRACING_SAMPLE_RATIO": "2"},
	}
	for name, environ := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := LoadFromEnviron(environ); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestLoadFromEnvironParseErrorPrefix(t *testing.T) {
	_, err := LoadFromEnviron(map[string]string{"WCD_SEED": "-1"})
	if err == nil || !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env error, got %v", err)
	}
}
