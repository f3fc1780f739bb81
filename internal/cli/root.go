package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/xmldoc2json/internal/aggregator"
	"github.com/mvp-joe/xmldoc2json/internal/config"
	"github.com/mvp-joe/xmldoc2json/internal/docdata"
)

type rootOptions struct {
	cfgFile string
	envFile string
	verbose bool
}

// flagKeys maps config keys onto the root command's flags.
var flagKeys = map[string]string{
	"input.mode":     "mode",
	"input.pattern":  "pattern",
	"input.segments": "segments",
	"output.path":    "output",
	"parse.workers":  "workers",
	"watch.enabled":  "watch",
}

// NewRootCmd builds the xmldoc2json command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	defaults := config.Default()

	cmd := &cobra.Command{
		Use:   "xmldoc2json [path]",
		Short: "Convert XML class reference documentation into one JSON document",
		Long: `xmldoc2json reads engine class reference XML and prints a single JSON
document holding every class, keyed by class name.

The path may be:
  - a single XML file whose root element holds every class (file mode)
  - a directory tree with one class per file under "classes" or
    "doc_classes" directories (directory mode)

Without a path nothing is printed.

Examples:
  # Convert an engine source tree
  xmldoc2json ~/src/godot > classes.json

  # Convert one aggregated file
  xmldoc2json --mode file classes.xml

  # Regenerate the output whenever a class file changes
  xmldoc2json ~/src/godot --output classes.json --watch
`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd, opts, args)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "config file (default is .xmldoc2json.yaml in the working or home directory)")
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", "", "export variables from this .env file before reading XMLDOC2JSON_* overrides")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log progress to stderr")

	flags := cmd.Flags()
	flags.String("mode", defaults.Input.Mode, "input mode: auto, file or dir")
	flags.StringP("output", "o", defaults.Output.Path, "write JSON to this file instead of stdout")
	flags.Int("workers", defaults.Parse.Workers, "number of files parsed concurrently")
	flags.Bool("watch", defaults.Watch.Enabled, "regenerate --output whenever an input file changes")
	flags.String("pattern", defaults.Input.Pattern, "file name glob for directory mode")
	flags.StringSlice("segments", defaults.Input.Segments, "directory names a class file must live under")

	cmd.AddCommand(newVersionCmd())
	return cmd
}

// Execute runs the root command and exits non-zero on failure.
// This is called by main.main().
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func runConvert(cmd *cobra.Command, opts *rootOptions, args []string) error {
	// Handle interrupt signals gracefully
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}

	loaderOpts := []config.Option{config.WithFlags(cmd.Flags(), flagKeys)}
	if opts.cfgFile != "" {
		loaderOpts = append(loaderOpts, config.WithConfigFile(opts.cfgFile))
	}
	if opts.envFile != "" {
		loaderOpts = append(loaderOpts, config.WithEnvFile(opts.envFile))
	}
	cfg, err := config.NewLoader(rootDir, loaderOpts...).Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := log.New(io.Discard, "", 0)
	var progress aggregator.ProgressReporter = &aggregator.NoOpProgressReporter{}
	if opts.verbose {
		logger = log.New(cmd.ErrOrStderr(), "", log.LstdFlags)
		progress = NewCLIProgressReporter(cmd.ErrOrStderr(), logger)
	}

	var path string
	if len(args) == 1 {
		path = args[0]
	}

	aggCfg := cfg.ToAggregatorConfig()
	aggCfg.Progress = progress

	if cfg.Watch.Enabled {
		cache, err := aggregator.NewRecordCache(cfg.Parse.CacheCapacity)
		if err != nil {
			return fmt.Errorf("failed to create record cache: %w", err)
		}
		defer cache.Close()
		aggCfg.Cache = cache

		agg, err := aggregator.New(aggCfg)
		if err != nil {
			return err
		}
		return runWatch(ctx, watchSession{
			agg:    agg,
			cache:  cache,
			cfg:    cfg,
			path:   path,
			logger: logger,
		})
	}

	agg, err := aggregator.New(aggCfg)
	if err != nil {
		return err
	}

	data, err := convert(ctx, agg, path)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("conversion cancelled")
		}
		return err
	}
	if data == nil {
		return nil
	}

	if cfg.Output.Path == "" {
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}
	if err := writeFileAtomic(cfg.Output.Path, data); err != nil {
		return err
	}
	logger.Printf("Wrote %s", cfg.Output.Path)
	return nil
}

// convert runs agg over path and returns the encoded document, or nil when
// there was nothing to convert. Nothing is returned unless the whole run succeeds.
func convert(ctx context.Context, agg *aggregator.Aggregator, path string) ([]byte, error) {
	doc, err := agg.Run(ctx, path)
	if err != nil || doc == nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := docdata.Encode(&buf, doc); err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	return buf.Bytes(), nil
}

// writeFileAtomic replaces path with data via a temporary file in the same directory.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
