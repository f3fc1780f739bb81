package cli

import (
	"fmt"
	"io"
	"log"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/mvp-joe/xmldoc2json/internal/aggregator"
)

// CLIProgressReporter implements progress reporting with a progress bar.
// Everything goes to out so stdout stays reserved for the JSON document.
type CLIProgressReporter struct {
	out            io.Writer
	logger         *log.Logger
	fileBar        *progressbar.ProgressBar
	totalFiles     int
	processedFiles int
}

// NewCLIProgressReporter creates a new CLI progress reporter.
func NewCLIProgressReporter(out io.Writer, logger *log.Logger) *CLIProgressReporter {
	return &CLIProgressReporter{
		out:    out,
		logger: logger,
	}
}

func (c *CLIProgressReporter) OnDiscoveryStart(root string) {
	c.logger.Printf("Discovering class files in %s...", root)
}

func (c *CLIProgressReporter) OnDiscoveryComplete(files int) {
	c.logger.Printf("Found %s class files", formatNumber(files))
}

func (c *CLIProgressReporter) OnFileProcessingStart(totalFiles int) {
	c.totalFiles = totalFiles
	c.processedFiles = 0

	c.fileBar = progressbar.NewOptions(totalFiles,
		progressbar.OptionSetWriter(c.out),
		progressbar.OptionSetDescription("Parsing files"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("files/s"),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(c.out)
		}),
	)
}

func (c *CLIProgressReporter) OnFileProcessed(fileName string) {
	if c.fileBar != nil {
		c.processedFiles++
		c.fileBar.Add(1)
	}
}

func (c *CLIProgressReporter) OnComplete(stats *aggregator.Stats) {
	if c.fileBar != nil {
		c.fileBar.Finish()
		c.fileBar = nil
	}

	fmt.Fprintf(c.out, "✓ Converted %s classes from %s files in %.1fs (%s mode)\n",
		formatNumber(stats.ClassesParsed),
		formatNumber(stats.FilesProcessed),
		stats.ProcessingTimeSeconds,
		stats.Mode)
	if stats.DuplicatesReplaced > 0 {
		fmt.Fprintf(c.out, "  Duplicates replaced: %s\n", formatNumber(stats.DuplicatesReplaced))
	}
	if stats.CacheHits > 0 {
		fmt.Fprintf(c.out, "  Cached files:        %s\n", formatNumber(stats.CacheHits))
	}
}

// formatNumber formats integer with thousand separators.
// Examples: 1234 -> "1,234", 1234567 -> "1,234,567"
func formatNumber(n int) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}

	str := fmt.Sprintf("%d", n)
	var result string
	for i, c := range str {
		if i > 0 && (len(str)-i)%3 == 0 {
			result += ","
		}
		result += string(c)
	}
	return result
}
