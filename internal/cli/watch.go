package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/mvp-joe/xmldoc2json/internal/aggregator"
	"github.com/mvp-joe/xmldoc2json/internal/config"
	"github.com/mvp-joe/xmldoc2json/internal/discovery"
	"github.com/mvp-joe/xmldoc2json/internal/watcher"
)

type watchSession struct {
	agg    *aggregator.Aggregator
	cache  *aggregator.RecordCache
	cfg    *config.Config
	path   string
	logger *log.Logger
}

// runWatch writes the output once, then regenerates it after every batch of
// changes until ctx is cancelled. A failed regeneration is logged and leaves
// the previous output in place.
func runWatch(ctx context.Context, s watchSession) error {
	if s.path == "" {
		return fmt.Errorf("watch mode requires an input path")
	}

	s.logger.Println("Performing initial conversion...")
	if err := s.regenerate(ctx); err != nil {
		return fmt.Errorf("initial conversion failed: %w", err)
	}

	dirs, match, err := s.watchTargets()
	if err != nil {
		return err
	}

	debounce := time.Duration(s.cfg.Watch.DebounceMS) * time.Millisecond
	fw, err := watcher.NewFileWatcher(dirs, match, debounce)
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fw.Stop()

	// Regenerations run serially on the watcher goroutine
	err = fw.Start(ctx, func(files []string) {
		for _, f := range files {
			s.cache.Invalidate(f)
		}
		s.logger.Printf("Detected %d changed file(s), regenerating...", len(files))
		if err := s.regenerate(ctx); err != nil {
			s.logger.Printf("Regeneration failed: %v", err)
			if ctx.Err() == nil {
				fmt.Fprintf(os.Stderr, "xmldoc2json: %v\n", err)
			}
		}
	})
	if err != nil {
		return fmt.Errorf("failed to start file watcher: %w", err)
	}

	s.logger.Println("Watching for changes (Ctrl+C to stop)...")
	<-ctx.Done()
	s.logger.Println("Watch mode stopped")
	return nil
}

func (s watchSession) regenerate(ctx context.Context) error {
	data, err := convert(ctx, s.agg, s.path)
	if err != nil {
		return err
	}
	if data == nil {
		s.logger.Printf("Nothing to convert at %s", s.path)
		return nil
	}
	if err := writeFileAtomic(s.cfg.Output.Path, data); err != nil {
		return err
	}
	s.logger.Printf("Wrote %s", s.cfg.Output.Path)
	return nil
}

// watchTargets returns the directories to watch and the filter for changed
// paths. A directory input is watched with the configured file selection; a
// file input is watched through its parent directory.
func (s watchSession) watchTargets() ([]string, watcher.MatchFunc, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot watch %s: %w", s.path, err)
	}

	if !info.IsDir() {
		target := filepath.Clean(s.path)
		return []string{filepath.Dir(target)}, func(p string) bool {
			return filepath.Clean(p) == target
		}, nil
	}

	selector, err := discovery.NewSelector(s.cfg.Input.Pattern, s.cfg.Input.Segments)
	if err != nil {
		return nil, nil, err
	}
	return []string{s.path}, selector.Matches, nil
}
