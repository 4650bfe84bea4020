package config

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/alexanderramin/estima/internal/estimate"
	"github.com/alexanderramin/estima/internal/graph"
	"github.com/alexanderramin/estima/internal/llm"
)

// EnvPrefix is prepended to every environment override, e.g. ESTIMA_DB_PATH
// or ESTIMA_LLM_API_KEY.
const EnvPrefix = "ESTIMA"

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Config holds all runtime configuration. Values come from built-in
// defaults, an optional YAML file, ESTIMA_* env vars and CLI flags, in
// increasing precedence.
type Config struct {
	DBPath   string          `mapstructure:"db_path"`
	Listen   string          `mapstructure:"listen"`
	Remote   string          `mapstructure:"remote"`
	Project  string          `mapstructure:"project"`
	Fanout   int             `mapstructure:"fanout"`
	Seed     bool            `mapstructure:"seed_defaults"`
	Log      LogConfig       `mapstructure:"log"`
	LLM      llm.Config      `mapstructure:"llm"`
	Estimate estimate.Params `mapstructure:"estimate"`
}

// flagKeys maps CLI flag names to config keys.
var flagKeys = map[string]string{
	"db":        "db_path",
	"listen":    "listen",
	"remote":    "remote",
	"project":   "project",
	"log-level": "log.level",
	"fanout":    "fanout",
}

func setDefaults(v *viper.Viper) {
	est := estimate.DefaultParams()
	ai := llm.DefaultConfig()

	v.SetDefault("db_path", "estima.db")
	v.SetDefault("listen", ":8080")
	v.SetDefault("remote", "")
	v.SetDefault("project", "")
	v.SetDefault("fanout", graph.DefaultFanout)
	v.SetDefault("seed_defaults", true)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("llm.enabled", ai.Enabled)
	v.SetDefault("llm.log_calls", ai.LogCalls)
	v.SetDefault("llm.endpoint", ai.Endpoint)
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.model", ai.Model)
	v.SetDefault("llm.timeout", ai.Timeout)
	v.SetDefault("llm.max_retries", ai.MaxRetries)

	v.SetDefault("estimate.optimistic_multiplier", est.OptimisticMultiplier)
	v.SetDefault("estimate.pessimistic_multiplier", est.PessimisticMultiplier)
	v.SetDefault("estimate.legacy_multiplier", est.LegacyMultiplier)
	v.SetDefault("estimate.uncertainty_coefficients", est.UncertaintyCoefficients)
	v.SetDefault("estimate.uiux_coefficients", est.UIUXCoefficients)
	v.SetDefault("estimate.default_levels", est.DefaultLevels)
}

// Load reads configuration. An empty path looks for estima.yaml in the
// working directory and skips the file when there is none; an explicit
// path must exist. flags may be nil.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("estima")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("reading config: %w", err)
			}
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, fmt.Errorf("binding flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	cfg.fillMissing()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// fillMissing restores default map entries a config file map replaced.
func (c *Config) fillMissing() {
	est := estimate.DefaultParams()
	c.Estimate.UncertaintyCoefficients = withDefaults(c.Estimate.UncertaintyCoefficients, est.UncertaintyCoefficients)
	c.Estimate.UIUXCoefficients = withDefaults(c.Estimate.UIUXCoefficients, est.UIUXCoefficients)
	c.Estimate.DefaultLevels = withDefaults(c.Estimate.DefaultLevels, est.DefaultLevels)
	c.LLM.Tasks = withDefaults(c.LLM.Tasks, llm.DefaultConfig().Tasks)
}

func withDefaults[K comparable, V any](got, defaults map[K]V) map[K]V {
	out := maps.Clone(defaults)
	maps.Copy(out, got)
	return out
}

func (c Config) Validate() error {
	if c.Fanout < 1 {
		return fmt.Errorf("fanout must be at least 1, got %d", c.Fanout)
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log format must be text or json, got %q", c.Log.Format)
	}
	if c.LLM.Enabled && c.LLM.Endpoint == "" {
		return errors.New("llm.endpoint is required when llm is enabled")
	}
	return nil
}

// SlogLevel parses Log.Level.
func (c Config) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", c.Log.Level, err)
	}
	return lvl, nil
}
