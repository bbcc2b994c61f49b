package config

import (
	"fmt"
	"strings"

	"github.com/nainya/postfilter/pkg/filter"
)

var logLevels = []string{"trace", "debug", "info", "warn", "error", "disabled"}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.GRPCPort < 1 || c.GRPCPort > 65535 {
		return fmt.Errorf("grpc_port must be between 1 and 65535, got %d", c.GRPCPort)
	}
	if c.MetricsPort < 0 || c.MetricsPort > 65535 {
		return fmt.Errorf("metrics_port must be between 0 and 65535, got %d", c.MetricsPort)
	}
	if c.MetricsPort != 0 && c.MetricsPort == c.GRPCPort {
		return fmt.Errorf("metrics_port and grpc_port must differ, both are %d", c.GRPCPort)
	}

	level := strings.ToLower(c.Log.Level)
	valid := false
	for _, l := range logLevels {
		if level == l {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("unknown log level %q (valid: %s)", c.Log.Level, strings.Join(logLevels, ", "))
	}

	if _, err := filter.ParseNumericPolicy(c.Filter.NumericPolicy); err != nil {
		return fmt.Errorf("filter.numeric_policy: %w", err)
	}
	if c.Query.Concurrency < 0 {
		return fmt.Errorf("query.concurrency must not be negative, got %d", c.Query.Concurrency)
	}
	if c.Query.Limit < 0 {
		return fmt.Errorf("query.limit must not be negative, got %d", c.Query.Limit)
	}
	return nil
}
