package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gobwas/glob"

	"github.com/mvp-joe/xmldoc2json/internal/aggregator"
)

var (
	// ErrInvalidMode indicates an unsupported input mode
	ErrInvalidMode = errors.New("invalid input mode")

	// ErrInvalidPattern indicates a file pattern that does not compile
	ErrInvalidPattern = errors.New("invalid file pattern")

	// ErrEmptySegments indicates no directory segments were configured
	ErrEmptySegments = errors.New("empty directory segments")

	// ErrInvalidWorkers indicates a non-positive worker count
	ErrInvalidWorkers = errors.New("invalid worker count")

	// ErrInvalidCacheCapacity indicates a non-positive cache capacity
	ErrInvalidCacheCapacity = errors.New("invalid cache capacity")

	// ErrInvalidDebounce indicates a non-positive watch debounce
	ErrInvalidDebounce = errors.New("invalid watch debounce")

	// ErrWatchWithoutOutput indicates watch mode was enabled without an output file
	ErrWatchWithoutOutput = errors.New("watch requires an output file")
)

// Validate checks that the configuration is valid and complete.
func Validate(cfg *Config) error {
	var errs []error

	if err := validateInput(&cfg.Input); err != nil {
		errs = append(errs, err)
	}

	if err := validateParse(&cfg.Parse); err != nil {
		errs = append(errs, err)
	}

	if err := validateWatch(&cfg.Watch, &cfg.Output); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

func validateInput(cfg *InputConfig) error {
	var errs []error

	if _, err := aggregator.ParseMode(cfg.Mode); err != nil {
		errs = append(errs, fmt.Errorf("%w: %v", ErrInvalidMode, err))
	}

	if strings.TrimSpace(cfg.Pattern) == "" {
		errs = append(errs, fmt.Errorf("%w: pattern is required", ErrInvalidPattern))
	} else if _, err := glob.Compile(cfg.Pattern); err != nil {
		errs = append(errs, fmt.Errorf("%w: %q: %v", ErrInvalidPattern, cfg.Pattern, err))
	}

	if len(cfg.Segments) == 0 {
		errs = append(errs, fmt.Errorf("%w: at least one segment required", ErrEmptySegments))
	}
	for _, s := range cfg.Segments {
		if strings.TrimSpace(s) == "" || strings.ContainsAny(s, `/\`) {
			errs = append(errs, fmt.Errorf("%w: segment %q must be a single directory name", ErrEmptySegments, s))
		}
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

func validateParse(cfg *ParseConfig) error {
	var errs []error

	if cfg.Workers <= 0 {
		errs = append(errs, fmt.Errorf("%w: workers must be positive, got %d", ErrInvalidWorkers, cfg.Workers))
	}

	if cfg.CacheCapacity <= 0 {
		errs = append(errs, fmt.Errorf("%w: cache_capacity must be positive, got %d", ErrInvalidCacheCapacity, cfg.CacheCapacity))
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

func validateWatch(cfg *WatchConfig, out *OutputConfig) error {
	if !cfg.Enabled {
		return nil
	}

	var errs []error

	if cfg.DebounceMS <= 0 {
		errs = append(errs, fmt.Errorf("%w: debounce_ms must be positive, got %d", ErrInvalidDebounce, cfg.DebounceMS))
	}

	if strings.TrimSpace(out.Path) == "" {
		errs = append(errs, fmt.Errorf("%w: set output.path", ErrWatchWithoutOutput))
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

// joinErrors combines multiple errors into a single error with clear formatting.
// The result still matches each sentinel with errors.Is.
func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}

	if len(errs) == 1 {
		return errs[0]
	}

	return &validationError{errs: errs}
}

type validationError struct {
	errs []error
}

func (e *validationError) Error() string {
	msgs := make([]string, 0, len(e.errs))
	for _, err := range e.errs {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}

func (e *validationError) Unwrap() []error {
	return e.errs
}
