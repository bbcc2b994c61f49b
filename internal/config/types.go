// Package config loads postfilter configuration from defaults, a YAML file,
// POSTFILTER_ environment variables and command-line flags.
package config

import (
	"github.com/nainya/postfilter/internal/logger"
	"github.com/nainya/postfilter/pkg/filter"
)

// Default values
const (
	DefaultGRPCPort      = 50061
	DefaultMetricsPort   = 9091
	DefaultLogLevel      = "info"
	DefaultNumericPolicy = "lenient"
	DefaultQueryLimit    = 100
)

// Config is the complete postfilter configuration
type Config struct {
	GRPCPort    int             `koanf:"grpc_port"`
	MetricsPort int             `koanf:"metrics_port"`
	Log         LogConfig       `koanf:"log"`
	Filter      FilterConfig    `koanf:"filter"`
	Query       QueryConfig     `koanf:"query"`
	Blacklist   BlacklistConfig `koanf:"blacklist"`

	// File is the config file that was loaded, if any
	File string `koanf:"-"`
}

// LogConfig configures the logger
type LogConfig struct {
	Level  string `koanf:"level"`
	Pretty bool   `koanf:"pretty"`
}

// FilterConfig configures filter evaluation
type FilterConfig struct {
	NumericPolicy string `koanf:"numeric_policy"`
}

// QueryConfig configures the batch engine
type QueryConfig struct {
	Concurrency int `koanf:"concurrency"` // 0 = GOMAXPROCS
	Limit       int `koanf:"limit"`
}

// BlacklistConfig holds entries applied to every batch query
type BlacklistConfig struct {
	Entries []string `koanf:"entries"`
	Invert  bool     `koanf:"invert"`
}

// Default returns the configuration used when nothing overrides it
func Default() *Config {
	return &Config{
		GRPCPort:    DefaultGRPCPort,
		MetricsPort: DefaultMetricsPort,
		Log:         LogConfig{Level: DefaultLogLevel},
		Filter:      FilterConfig{NumericPolicy: DefaultNumericPolicy},
		Query:       QueryConfig{Limit: DefaultQueryLimit},
		Blacklist:   BlacklistConfig{Invert: true},
	}
}

// LoggerConfig converts the log section for logger.NewLogger
func (c *Config) LoggerConfig() logger.Config {
	return logger.Config{
		Level:  c.Log.Level,
		Pretty: c.Log.Pretty,
	}
}

// Evaluator builds a filter evaluator from the filter section. Call
// Validate first; an invalid policy falls back to lenient.
func (c *Config) Evaluator() *filter.Evaluator {
	policy, _ := filter.ParseNumericPolicy(c.Filter.NumericPolicy)
	return filter.New(filter.WithNumericPolicy(policy))
}
