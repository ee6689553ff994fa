package config

import (
	"fmt"
	"os"
	"reflect"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML and environment values can use
// "15s" style strings.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped standard duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config holds the full deployment configuration. Values are resolved in
// three layers: built-in defaults, then an optional YAML file, then
// environment variables.
type Config struct {
	Addr            string   `yaml:"addr" env:"BIBLE_MCP_ADDR"`
	ProviderURL     string   `yaml:"provider_url" env:"BIBLE_API_URL"`
	APIKey          string   `yaml:"api_key" env:"BIBLE_API_KEY"`
	BibleID         string   `yaml:"bible_id" env:"BIBLE_ID"`
	LogLevel        string   `yaml:"log_level" env:"BIBLE_MCP_LOG_LEVEL"`
	RequestTimeout  Duration `yaml:"request_timeout" env:"BIBLE_API_TIMEOUT"`
	MetricsInterval Duration `yaml:"metrics_interval" env:"BIBLE_MCP_METRICS_INTERVAL"`
}

func defaults() *Config {
	return &Config{
		Addr:            ":8080",
		ProviderURL:     "https://api.scripture.api.bible",
		BibleID:         "de4e12af7f28f599-02", // KJV
		LogLevel:        "info",
		RequestTimeout:  Duration(15 * time.Second),
		MetricsInterval: Duration(60 * time.Second),
	}
}

// Load resolves the configuration. path may be empty to skip the file
// layer. The provider API key is required.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	opts := env.Options{FuncMap: map[reflect.Type]env.ParserFunc{
		reflect.TypeOf(Duration(0)): func(v string) (interface{}, error) {
			d, err := time.ParseDuration(v)
			if err != nil {
				return nil, fmt.Errorf("invalid duration %q: %w", v, err)
			}
			return Duration(d), nil
		},
	}}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if cfg.APIKey == "" {
		return nil, fmt.Errorf("provider API key is required (BIBLE_API_KEY or api_key)")
	}
	return cfg, nil
}
