package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variable overrides (XMLDOC2JSON_PARSE_WORKERS, ...).
const EnvPrefix = "XMLDOC2JSON"

// Loader provides configuration loading capabilities.
type Loader interface {
	// Load loads configuration from file, environment variables and flags.
	// Priority: defaults → config file → environment variables → flags (flags win)
	Load() (*Config, error)
}

type loader struct {
	rootDir    string
	configFile string
	envFile    string
	flags      *pflag.FlagSet
	flagKeys   map[string]string
}

// Option customizes a loader.
type Option func(*loader)

// WithConfigFile reads the given file instead of searching for .xmldoc2json.yaml.
func WithConfigFile(path string) Option {
	return func(l *loader) {
		l.configFile = path
	}
}

// WithEnvFile exports the variables of a .env file before reading the
// environment. Without it no .env file is read.
func WithEnvFile(path string) Option {
	return func(l *loader) {
		l.envFile = path
	}
}

// WithFlags binds command-line flags onto config keys.
// flagKeys maps a config key (e.g. "parse.workers") to a flag name (e.g. "workers").
// Flags override every other source only when set on the command line.
func WithFlags(flags *pflag.FlagSet, flagKeys map[string]string) Option {
	return func(l *loader) {
		l.flags = flags
		l.flagKeys = flagKeys
	}
}

// NewLoader creates a new configuration loader rooted at rootDir.
// rootDir is searched for .xmldoc2json.yaml.
func NewLoader(rootDir string, opts ...Option) Loader {
	l := &loader{
		rootDir: rootDir,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load loads configuration with the following priority (highest to lowest):
// 1. Command-line flags that were set
// 2. Environment variables (XMLDOC2JSON_*), including those from WithEnvFile
// 3. Config file (--config, or .xmldoc2json.yaml in the root or home directory)
// 4. Default values
func (l *loader) Load() (*Config, error) {
	if l.envFile != "" {
		// The file was asked for explicitly, so a missing one is an error
		if err := godotenv.Load(l.envFile); err != nil {
			return nil, fmt.Errorf("failed to load env file %s: %w", l.envFile, err)
		}
	}

	v := viper.New()

	if l.configFile != "" {
		v.SetConfigFile(l.configFile)
	} else {
		v.SetConfigName(".xmldoc2json")
		v.SetConfigType("yaml")
		v.AddConfigPath(l.rootDir)
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
	}

	// Enable environment variable overrides
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	// Replace . with _ in env var names (e.g., XMLDOC2JSON_INPUT_MODE)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Bind environment variables to config keys
	for _, key := range configKeys {
		v.BindEnv(key)
	}

	setDefaults(v)

	for key, name := range l.flagKeys {
		if l.flags == nil {
			break
		}
		if f := l.flags.Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
			}
		}
	}

	// Try to read config file
	if err := v.ReadInConfig(); err != nil {
		// Config file not found is acceptable - we'll use defaults + env vars
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

var configKeys = []string{
	"input.mode",
	"input.pattern",
	"input.segments",
	"output.path",
	"parse.workers",
	"parse.cache_capacity",
	"watch.enabled",
	"watch.debounce_ms",
}

// setDefaults configures viper with default values.
func setDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("input.mode", defaults.Input.Mode)
	v.SetDefault("input.pattern", defaults.Input.Pattern)
	v.SetDefault("input.segments", defaults.Input.Segments)

	v.SetDefault("output.path", defaults.Output.Path)

	v.SetDefault("parse.workers", defaults.Parse.Workers)
	v.SetDefault("parse.cache_capacity", defaults.Parse.CacheCapacity)

	v.SetDefault("watch.enabled", defaults.Watch.Enabled)
	v.SetDefault("watch.debounce_ms", defaults.Watch.DebounceMS)
}
