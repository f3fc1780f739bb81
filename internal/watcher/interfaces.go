// Package watcher notifies callers when class definition files change.
package watcher

import "context"

// FileWatcher monitors documentation files for changes with debouncing.
type FileWatcher interface {
	// Start begins watching, calling callback with each debounced batch of changed files.
	Start(ctx context.Context, callback func(files []string)) error

	// Stop stops the file watcher and cleans up resources.
	Stop() error
}

// MatchFunc reports whether a changed path is relevant.
type MatchFunc func(path string) bool
