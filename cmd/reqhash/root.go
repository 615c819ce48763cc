// Package main provides the entry point for the reqhash CLI.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/reqhash/internal/cache"
	"github.com/nao1215/reqhash/internal/config"
	"github.com/nao1215/reqhash/internal/hashgen"
	"github.com/nao1215/reqhash/internal/index"
	reqlog "github.com/nao1215/reqhash/internal/log"
	"github.com/nao1215/reqhash/internal/model"
	"github.com/nao1215/reqhash/internal/pipeline"
	"github.com/nao1215/reqhash/internal/report"
	"github.com/nao1215/reqhash/internal/reqfile"
)

// NewRootCmd creates the root command for reqhash.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reqhash <requirements-file>",
		Short: "Annotate a requirements file with index URLs and integrity hashes",
		Long: `reqhash reads a Python requirements file, checks each package against the
configured package indexes, and writes the list back with two annotations
per specifier: the --index-url of the index that hosts the package, and
one --hash entry per matching distribution artifact.

The preferred index (-p) is probed before the default index (-d); a package
present on both resolves to the preferred one. Packages found in no index
are emitted unchanged and reported as warnings.

Examples:
  # Annotate against PyPI and print to stdout
  reqhash requirements.txt

  # Prefer a private mirror, write to a file
  reqhash requirements.txt -p https://mirror.example/simple -o requirements.locked.txt

  # Only use digests the index publishes; never download artifacts
  reqhash requirements.txt --no-download

  # Emit a Markdown resolution report next to the output
  reqhash requirements.txt -o locked.txt --markdown --report report.md

Configuration file (.reqhash) example:
  indexes:
    https://mirror.example/simple:
      headers:
        Authorization: "Bearer my-token"
  packages:
    internal-lib:
      index: https://mirror.example/simple`,
		Args:          cobra.ExactArgs(1),
		RunE:          runRootCmd,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       getVersion(),
	}

	// Output and index selection flags
	cmd.Flags().StringP("output", "o", "",
		"Write annotated requirements to this file (default: stdout)")
	cmd.Flags().StringP("preferred-index", "p", "",
		"Index probed before the default index")
	cmd.Flags().StringP("default-index", "d", config.DefaultIndexURL,
		"Fallback package index")

	// Hashing flags
	cmd.Flags().StringP("algorithm", "a", config.DefaultAlgorithm,
		fmt.Sprintf("Digest algorithm for hash entries (one of: %v)", model.SupportedAlgorithms()))
	cmd.Flags().Bool("no-download", false,
		"Only use digests published by the index; never download artifacts")

	// Network flags
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Per-request HTTP timeout")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .reqhash in current or home directory)")

	// Cache flags
	cmd.Flags().Bool("cache", false,
		"Cache probe results and digests in a local SQLite database")
	cmd.Flags().String("cache-dir", config.XDGCacheDir(),
		"Directory for the cache database")
	cmd.Flags().Duration("cache-ttl", config.DefaultCacheTTL,
		"Lifetime of cached probe results and digests")

	// Report flags
	cmd.Flags().String("report", "",
		"Write a resolution report to this file")
	cmd.Flags().BoolP("json", "j", false,
		"Resolution report in JSON (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Resolution report in Markdown (mutually exclusive with --json)")

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Subcommands
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runRootCmd executes the annotation run.
func runRootCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// Logs go to stderr so the annotated requirements on stdout stay clean.
	logger := reqlog.NewSecureLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Info("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return run(ctx, cfg, logger)
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.InputFile = args[0]

	var err error

	if cfg.OutputFile, err = cmd.Flags().GetString("output"); err != nil {
		return nil, err
	}
	if cfg.PreferredIndex, err = cmd.Flags().GetString("preferred-index"); err != nil {
		return nil, err
	}
	if cfg.DefaultIndex, err = cmd.Flags().GetString("default-index"); err != nil {
		return nil, err
	}
	if cfg.Algorithm, err = cmd.Flags().GetString("algorithm"); err != nil {
		return nil, err
	}
	if cfg.NoDownload, err = cmd.Flags().GetBool("no-download"); err != nil {
		return nil, err
	}
	if cfg.Timeout, err = cmd.Flags().GetDuration("timeout"); err != nil {
		return nil, err
	}
	if cfg.ConfigFilePath, err = cmd.Flags().GetString("config"); err != nil {
		return nil, err
	}
	if cfg.EnableCache, err = cmd.Flags().GetBool("cache"); err != nil {
		return nil, err
	}
	if cfg.CacheDir, err = cmd.Flags().GetString("cache-dir"); err != nil {
		return nil, err
	}
	if cfg.CacheTTL, err = cmd.Flags().GetDuration("cache-ttl"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = cmd.Flags().GetString("report"); err != nil {
		return nil, err
	}
	if cfg.JSONReport, err = cmd.Flags().GetBool("json"); err != nil {
		return nil, err
	}
	if cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown"); err != nil {
		return nil, err
	}
	cfg.Verbose = getVerboseFlag(cmd)

	// Load index and package overrides from the config file.
	// If the user explicitly specified a path, a missing file is an error.
	// Without an explicit path, a missing file means empty overrides.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		cfg.Indexes, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	} else if explicitConfigPath {
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	} else {
		cfg.Indexes = &config.File{
			Indexes:  make(map[string]config.IndexConfig),
			Packages: make(map[string]config.PackageConfig),
		}
	}

	cfg.PreferredIndex = config.NormalizeIndexURL(cfg.PreferredIndex)
	cfg.DefaultIndex = config.NormalizeIndexURL(cfg.DefaultIndex)

	return cfg, nil
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// run parses the input, executes the pipeline, and writes the output.
func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	doc, err := reqfile.ParseFile(cfg.InputFile)
	if err != nil {
		return err
	}

	logger.Info("parsed requirements",
		"source", cfg.InputFile,
		"packages", len(doc.Specifiers()),
	)

	var store *cache.Store
	if cfg.EnableCache {
		store, err = cache.Open(cfg.CacheDir, cache.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open cache: %w", err)
		}
		defer store.Close()
		logger.Info("cache opened", "dir", cfg.CacheDir)
	}

	client := index.NewClient(
		index.WithTimeout(cfg.Timeout),
		index.WithUserAgent(cfg.UserAgent),
		index.WithMaxBodySize(cfg.MaxIndexBodySize),
		index.WithHeaderFunc(indexHeaders(cfg.Indexes)),
		index.WithTimeoutFunc(indexTimeouts(cfg.Indexes)),
		index.WithLogger(logger),
	)

	hasher := hashgen.New(client,
		hashgen.WithAlgorithm(cfg.Algorithm),
		hashgen.WithDownload(!cfg.NoDownload),
		hashgen.WithMaxArtifactSize(cfg.MaxArtifactSize),
		hashgen.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
		hashgen.WithLogger(logger),
	)

	// Per-package failures are recorded as document warnings inside the
	// steps; an error returned by a step (no index answering at all,
	// cancellation) aborts the run.
	p := pipeline.New(
		pipeline.WithLogger(logger),
	)
	p.AddSteps(pipeline.DefaultSteps(client, hasher, cfg, store, logger)...)

	start := time.Now()
	if err := p.Execute(ctx, doc); err != nil {
		return err
	}
	logger.Info("pipeline completed",
		"elapsed", time.Since(start).Round(time.Millisecond),
		"warnings", len(doc.Warnings),
	)

	if err := writeOutput(cfg, doc); err != nil {
		return err
	}

	if err := writeReport(cfg, doc); err != nil {
		return err
	}

	// Warnings are non-fatal but must be visible even without -v.
	for _, w := range doc.Warnings {
		if w.Package != "" {
			fmt.Fprintf(os.Stderr, "warning: %s: %s\n", w.Package, w.Reason)
		} else {
			fmt.Fprintf(os.Stderr, "warning: %s\n", w.Reason)
		}
	}

	return nil
}

// indexHeaders builds the per-index header hook from the config file.
func indexHeaders(f *config.File) func(indexURL string) map[string]string {
	return func(indexURL string) map[string]string {
		if f == nil {
			return nil
		}
		return f.GetIndexConfig(indexURL).Headers
	}
}

// indexTimeouts builds the per-index timeout hook from the config file.
func indexTimeouts(f *config.File) func(indexURL string) time.Duration {
	return func(indexURL string) time.Duration {
		if f == nil {
			return 0
		}
		return time.Duration(f.GetIndexConfig(indexURL).TimeoutSeconds) * time.Second
	}
}

// writeOutput writes the annotated requirements to the output file or stdout.
func writeOutput(cfg *config.Config, doc *model.Document) error {
	if cfg.OutputFile != "" {
		return reqfile.WriteFile(cfg.OutputFile, doc)
	}
	_, err := reqfile.Write(os.Stdout, doc)
	return err
}

// writeReport writes the optional resolution report.
// Format selection: --json, --markdown, or plain text when only --report
// is given. The report goes to --report when set, otherwise to stdout
// (Validate guarantees the requirements went to a file in that case).
func writeReport(cfg *config.Config, doc *model.Document) error {
	if !cfg.JSONReport && !cfg.MarkdownReport && cfg.ReportFile == "" {
		return nil
	}

	output := os.Stdout
	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create report directory: %w", err)
			}
		}
		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create report file: %w", err)
		}
		defer f.Close()
		output = f
	}

	summary := model.NewSummary(doc)

	var w report.Writer
	switch {
	case cfg.JSONReport:
		w = report.NewJSONWriter(output, report.WithPrettyPrint(), report.WithVersion(getVersion()))
	case cfg.MarkdownReport:
		w = report.NewMarkdownWriter(output)
	default:
		w = report.NewTextWriter(output, report.WithVerboseText(cfg.Verbose))
	}

	if _, err := w.Write(summary); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
