package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix is the prefix of environment variables read by Load.
// A double underscore separates nesting levels: POSTFILTER_LOG__LEVEL sets log.level.
const EnvPrefix = "POSTFILTER_"

// flagKeys maps command-line flags to config keys. Other flags are ignored.
var flagKeys = map[string]string{
	"grpc-port":        "grpc_port",
	"metrics-port":     "metrics_port",
	"log-level":        "log.level",
	"log-pretty":       "log.pretty",
	"numeric-policy":   "filter.numeric_policy",
	"concurrency":      "query.concurrency",
	"invert-blacklist": "blacklist.invert",
}

// findConfigFile finds the config file to use.
// Priority: explicit path > postfilter.yaml > postfilter.yml
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range []string{"postfilter.yaml", "postfilter.yml"} {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// envKey transforms POSTFILTER_LOG__LEVEL into log.level
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(key, "__", ".")
}

// Load loads configuration from defaults, file, environment variables and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults.
// Only flags that were explicitly set override lower layers.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Load defaults
	def := Default()
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"grpc_port":             def.GRPCPort,
		"metrics_port":          def.MetricsPort,
		"log.level":             def.Log.Level,
		"log.pretty":            def.Log.Pretty,
		"filter.numeric_policy": def.Filter.NumericPolicy,
		"query.concurrency":     def.Query.Concurrency,
		"query.limit":           def.Query.Limit,
		"blacklist.entries":     []string{},
		"blacklist.invert":      def.Blacklist.Invert,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Load config file
	used := findConfigFile(cfgFile)
	if used != "" {
		if err := k.Load(file.Provider(used), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", used, err)
		}
	}

	// 3. Load environment variables
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Load flags
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// 5. Unmarshal into Config struct
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.File = used

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}
