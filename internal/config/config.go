// Package config loads service configuration purely from the process
// environment; there is no config file.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config holds every value the service needs to start.
type Config struct {
	Host          string `mapstructure:"HOST"`
	Port          int    `mapstructure:"PORT"`
	Region        string `mapstructure:"REGION"`
	DBURL         string `mapstructure:"DB_URL"`
	DBDC          string `mapstructure:"DB_DC"`
	ParallelFiles int    `mapstructure:"PARALLEL_FILES"`
	DBParallelism int    `mapstructure:"DB_PARALLELISM"`
	SchemaFile    string `mapstructure:"SCHEMA_FILE"`
	LogLevel      string `mapstructure:"LOG_LEVEL"`
	LogFormat     string `mapstructure:"LOG_FORMAT"`
	OTLPEndpoint  string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

var envKeys = []string{
	"HOST", "PORT", "REGION", "DB_URL", "DB_DC",
	"PARALLEL_FILES", "DB_PARALLELISM", "SCHEMA_FILE",
	"LOG_LEVEL", "LOG_FORMAT", "OTEL_EXPORTER_OTLP_ENDPOINT",
}

// Load reads configuration from the environment. Required fields
// (those with no sensible default) are validated explicitly and
// reported as a single *ConfigError.
func Load() (*Config, error) {
	v := viper.New()
	v.SetDefault("HOST", "0.0.0.0")
	v.SetDefault("PORT", 8080)
	v.SetDefault("PARALLEL_FILES", 4)
	v.SetDefault("DB_PARALLELISM", 8)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.AutomaticEnv()
	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, &ConfigError{Err: fmt.Errorf("binding %s: %w", key, err)}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, &ConfigError{Err: fmt.Errorf("unmarshalling config: %w", err)}
	}

	if err := cfg.validate(); err != nil {
		return nil, &ConfigError{Err: err}
	}
	return &cfg, nil
}

func (c Config) validate() error {
	required := map[string]string{
		"REGION":      c.Region,
		"DB_URL":      c.DBURL,
		"DB_DC":       c.DBDC,
		"SCHEMA_FILE": c.SchemaFile,
	}
	for key, val := range required {
		if val == "" {
			return fmt.Errorf("missing required environment variable %s", key)
		}
	}
	return nil
}

// ConfigError wraps any configuration load/validation failure. It is
// always fatal at startup.
type ConfigError struct{ Err error }

func (e *ConfigError) Error() string { return fmt.Sprintf("config error: %v", e.Err) }
func (e *ConfigError) Unwrap() error { return e.Err }
