package config

import (
	"github.com/mvp-joe/xmldoc2json/internal/aggregator"
	"github.com/mvp-joe/xmldoc2json/internal/discovery"
)

// Config represents the complete xmldoc2json configuration.
// It can be loaded from .xmldoc2json.yaml with environment variable overrides.
type Config struct {
	Input  InputConfig  `yaml:"input" mapstructure:"input"`
	Output OutputConfig `yaml:"output" mapstructure:"output"`
	Parse  ParseConfig  `yaml:"parse" mapstructure:"parse"`
	Watch  WatchConfig  `yaml:"watch" mapstructure:"watch"`
}

// InputConfig defines how the input path is read and which files are selected.
type InputConfig struct {
	Mode     string   `yaml:"mode" mapstructure:"mode"`         // "auto", "file" or "dir"
	Pattern  string   `yaml:"pattern" mapstructure:"pattern"`   // glob matched against file names
	Segments []string `yaml:"segments" mapstructure:"segments"` // directory names a file must live under
}

// OutputConfig defines where the JSON document goes.
type OutputConfig struct {
	Path string `yaml:"path" mapstructure:"path"` // empty means stdout
}

// ParseConfig tunes the parsing pass.
type ParseConfig struct {
	Workers       int `yaml:"workers" mapstructure:"workers"`               // concurrent file parsers
	CacheCapacity int `yaml:"cache_capacity" mapstructure:"cache_capacity"` // files kept in the record cache (watch mode)
}

// WatchConfig configures regeneration on file changes.
type WatchConfig struct {
	Enabled    bool `yaml:"enabled" mapstructure:"enabled"`
	DebounceMS int  `yaml:"debounce_ms" mapstructure:"debounce_ms"` // quiet period before regenerating
}

// Default returns a configuration that reproduces the plain single-pass behavior.
func Default() *Config {
	return &Config{
		Input: InputConfig{
			Mode:     string(aggregator.ModeAuto),
			Pattern:  discovery.DefaultPattern,
			Segments: append([]string(nil), discovery.DefaultSegments...),
		},
		Output: OutputConfig{
			Path: "",
		},
		Parse: ParseConfig{
			Workers:       1,
			CacheCapacity: aggregator.DefaultCacheCapacity,
		},
		Watch: WatchConfig{
			Enabled:    false,
			DebounceMS: 500,
		},
	}
}

// ToAggregatorConfig converts a Config to an aggregator.Config.
// Progress and cache are supplied by the caller.
func (c *Config) ToAggregatorConfig() aggregator.Config {
	mode, _ := aggregator.ParseMode(c.Input.Mode)
	return aggregator.Config{
		Mode:     mode,
		Pattern:  c.Input.Pattern,
		Segments: c.Input.Segments,
		Workers:  c.Parse.Workers,
	}
}
