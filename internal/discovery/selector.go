package discovery

import (
	"errors"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
)

// DefaultPattern matches class definition documents by file name.
const DefaultPattern = "*.xml"

// DefaultSegments are the directory names that hold class definition documents.
var DefaultSegments = []string{"classes", "doc_classes"}

// Selector picks class definition files under a root path.
type Selector struct {
	glob     glob.Glob
	segments map[string]bool
}

// NewSelector compiles pattern (matched against base names) and records the
// directory segments a selected path must contain.
func NewSelector(pattern string, segments []string) (*Selector, error) {
	g, err := glob.Compile(pattern)
	if err != nil {
		return nil, err
	}

	segMap := make(map[string]bool, len(segments))
	for _, s := range segments {
		segMap[s] = true
	}

	return &Selector{
		glob:     g,
		segments: segMap,
	}, nil
}

// Select returns the candidate files for root.
//
// A regular file is returned as-is. A directory is walked recursively and
// every file whose name matches the pattern and whose directory path
// contains one of the segments is returned, sorted lexicographically.
// A root that does not exist yields no files and no error. Entries that
// cannot be read are skipped with a warning, so one unreadable directory
// does not hide the rest of the tree.
func (s *Selector) Select(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	if !info.IsDir() {
		return []string{root}, nil
	}

	files := []string{}
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return skipWalkError(path, d, err)
		}
		if d.IsDir() {
			return nil
		}
		if s.Matches(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

// skipWalkError logs a walk error and tells WalkDir how to continue:
// an unreadable directory is pruned and any other entry is passed over.
func skipWalkError(path string, d fs.DirEntry, err error) error {
	log.Printf("Warning: skipping %s: %v", path, err)
	if d != nil && d.IsDir() {
		return filepath.SkipDir
	}
	return nil
}

// Matches reports whether path passes both the name pattern and the segment filter.
func (s *Selector) Matches(path string) bool {
	if !s.glob.Match(filepath.Base(path)) {
		return false
	}
	return s.inSegment(filepath.Dir(path))
}

// inSegment checks whether any component of dir is one of the configured segments.
func (s *Selector) inSegment(dir string) bool {
	for _, part := range strings.Split(filepath.ToSlash(dir), "/") {
		if s.segments[part] {
			return true
		}
	}
	return false
}
