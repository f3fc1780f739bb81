package aggregator

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mvp-joe/xmldoc2json/internal/discovery"
	"github.com/mvp-joe/xmldoc2json/internal/docdata"
	"github.com/mvp-joe/xmldoc2json/internal/xmldom"
)

// Config configures an Aggregator.
type Config struct {
	Mode     Mode
	Pattern  string   // file name glob for directory mode
	Segments []string // directory names a selected file must live under
	Workers  int      // files parsed concurrently; values below 2 parse sequentially
	Progress ProgressReporter
	Cache    *RecordCache // optional
}

// Aggregator parses every selected class definition file into one Document.
type Aggregator struct {
	mode     Mode
	workers  int
	selector *discovery.Selector
	progress ProgressReporter
	cache    *RecordCache

	progressMu sync.Mutex
}

// New creates an Aggregator. Zero values in cfg fall back to defaults.
func New(cfg Config) (*Aggregator, error) {
	mode := cfg.Mode
	if mode == "" {
		mode = ModeAuto
	}
	if _, err := ParseMode(string(mode)); err != nil {
		return nil, err
	}

	pattern := cfg.Pattern
	if pattern == "" {
		pattern = discovery.DefaultPattern
	}
	segments := cfg.Segments
	if len(segments) == 0 {
		segments = discovery.DefaultSegments
	}
	selector, err := discovery.NewSelector(pattern, segments)
	if err != nil {
		return nil, fmt.Errorf("invalid file pattern %q: %w", pattern, err)
	}

	progress := cfg.Progress
	if progress == nil {
		progress = &NoOpProgressReporter{}
	}

	return &Aggregator{
		mode:     mode,
		workers:  cfg.Workers,
		selector: selector,
		progress: progress,
		cache:    cfg.Cache,
	}, nil
}

// Run parses the input at path and returns the aggregated document.
//
// An empty path, or a path that does not exist outside ModeFile, is a no-op
// and returns a nil document with no error. Any failure aborts the run and
// no document is returned.
func (a *Aggregator) Run(ctx context.Context, path string) (*docdata.Document, error) {
	startTime := time.Now()

	if path == "" {
		return nil, nil
	}

	mode, files, err := a.selectFiles(path)
	if err != nil || files == nil {
		return nil, err
	}

	a.report(func(p ProgressReporter) { p.OnFileProcessingStart(len(files)) })

	stats := &Stats{Mode: mode}
	results, err := a.parseAll(ctx, files, mode, stats)
	if err != nil {
		return nil, err
	}

	doc := docdata.NewDocument(mode.Version())
	for _, classes := range results {
		for _, c := range classes {
			if doc.Add(c) {
				stats.DuplicatesReplaced++
			}
			stats.ClassesParsed++
		}
	}

	stats.FilesProcessed = len(files)
	stats.ProcessingTimeSeconds = time.Since(startTime).Seconds()
	a.report(func(p ProgressReporter) { p.OnComplete(stats) })

	return doc, nil
}

// selectFiles resolves the effective mode and the files to parse.
// A nil file list with a nil error means there is nothing to do.
func (a *Aggregator) selectFiles(path string) (Mode, []string, error) {
	a.report(func(p ProgressReporter) { p.OnDiscoveryStart(path) })

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && a.mode != ModeFile {
			return a.mode, nil, nil
		}
		return a.mode, nil, &FileError{File: path, Err: err}
	}

	mode := a.mode
	if mode == ModeAuto {
		mode = ModeDir
		if !info.IsDir() {
			mode = ModeFile
		}
	}

	var files []string
	switch mode {
	case ModeFile:
		if info.IsDir() {
			return mode, nil, &FileError{File: path, Err: errors.New("is a directory")}
		}
		files = []string{path}
	default:
		files, err = a.selector.Select(path)
		if err != nil {
			return mode, nil, &FileError{File: path, Err: err}
		}
		if files == nil {
			return mode, nil, nil
		}
	}

	a.report(func(p ProgressReporter) { p.OnDiscoveryComplete(len(files)) })
	return mode, files, nil
}

// parseAll parses files and returns their classes indexed like files, so the
// merge order does not depend on scheduling.
func (a *Aggregator) parseAll(ctx context.Context, files []string, mode Mode, stats *Stats) ([][]*docdata.ClassRecord, error) {
	results := make([][]*docdata.ClassRecord, len(files))
	var hits int
	var hitsMu sync.Mutex

	parseOne := func(ctx context.Context, i int) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		classes, cached, err := a.parseFile(files[i], mode)
		if err != nil {
			return err
		}
		results[i] = classes
		if cached {
			hitsMu.Lock()
			hits++
			hitsMu.Unlock()
		}
		a.report(func(p ProgressReporter) { p.OnFileProcessed(files[i]) })
		return nil
	}

	if a.workers < 2 {
		for i := range files {
			if err := parseOne(ctx, i); err != nil {
				return nil, err
			}
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(a.workers)
		for i := range files {
			g.Go(func() error {
				return parseOne(gctx, i)
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	stats.CacheHits = hits
	return results, nil
}

// parseFile reads one file and returns the classes it defines.
func (a *Aggregator) parseFile(path string, mode Mode) ([]*docdata.ClassRecord, bool, error) {
	var info os.FileInfo
	if a.cache != nil {
		var err error
		info, err = os.Stat(path)
		if err != nil {
			return nil, false, &FileError{File: path, Err: err}
		}
		if classes, ok := a.cache.Get(path, info); ok {
			return classes, true, nil
		}
	}

	root, err := xmldom.ParseFile(path)
	if err != nil {
		return nil, false, &FileError{File: path, Err: err}
	}

	classes, err := classesOf(root, mode)
	if err != nil {
		return nil, false, &FileError{File: path, Err: err}
	}

	if a.cache != nil {
		a.cache.Put(path, info, classes)
	}
	return classes, false, nil
}

// classesOf extracts the class elements of a parsed document. In directory
// mode the root is the class. In file mode every child of the root is a class,
// unless the root is itself a single <class>.
func classesOf(root *xmldom.Element, mode Mode) ([]*docdata.ClassRecord, error) {
	elems := []*xmldom.Element{root}
	if mode == ModeFile && root.Name != "class" {
		elems = root.Children
	}

	classes := make([]*docdata.ClassRecord, 0, len(elems))
	for _, el := range elems {
		c, err := docdata.ParseClass(el)
		if err != nil {
			return nil, err
		}
		classes = append(classes, c)
	}
	return classes, nil
}

func (a *Aggregator) report(fn func(ProgressReporter)) {
	a.progressMu.Lock()
	defer a.progressMu.Unlock()
	fn(a.progress)
}
