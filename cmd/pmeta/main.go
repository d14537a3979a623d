// Package main provides the pmeta CLI entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/matsen/papermeta/internal/config"
	"github.com/matsen/papermeta/internal/crossref"
	"github.com/matsen/papermeta/internal/importer"
	"github.com/matsen/papermeta/internal/logging"
	"github.com/matsen/papermeta/internal/openalex"
	"github.com/matsen/papermeta/internal/resolver"
	"github.com/matsen/papermeta/internal/storage"
)

// Version is set at build time via ldflags
var Version = "dev"

var (
	// humanOutput controls whether to use human-readable output
	humanOutput bool

	libraryFlag string
	verbose     bool
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		// Print the error since we have SilenceErrors: true
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "pmeta",
	Short: "Extract bibliographic metadata and generate citations",
	Long: `pmeta extracts bibliographic metadata from PDF and EPUB files,
enriches it from CrossRef (by DOI) and OpenAlex (by title), and renders
Harvard references, in-text citations and BibTeX.

Papers are stored in git-versionable JSONL with an ephemeral SQLite index.
All commands output JSON by default; pass --human for text.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	// Load .env file if present (for PMETA_MAILTO and friends)
	_ = godotenv.Load()

	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().StringVar(&libraryFlag, "library", "", "Path to the paper library (default: library_path or search upward)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log lookup diagnostics to stderr")
	rootCmd.Version = Version
}

// mustLoadConfig loads the global configuration, exits on error.
func mustLoadConfig() *config.GlobalConfig {
	cfg, err := config.LoadGlobalConfig()
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	return cfg
}

// mustFindLibrary locates the library root, exits on error.
func mustFindLibrary() string {
	root, err := config.ResolveLibrary(libraryFlag)
	if err != nil {
		if humanOutput {
			fmt.Fprintln(os.Stderr, config.HelpfulConfigMessage())
			os.Exit(ExitConfigError)
		}
		exitWithError(ExitConfigError, "%v", err)
	}
	return root
}

// findLibrary is mustFindLibrary for commands that work without a library.
func findLibrary() (string, bool) {
	root, err := config.ResolveLibrary(libraryFlag)
	return root, err == nil
}

// mustOpenDatabase opens the SQLite index, exits on error.
// The caller is responsible for calling Close() on the returned DB.
func mustOpenDatabase(root string) *storage.DB {
	if err := os.MkdirAll(config.CachePath(root), 0755); err != nil {
		exitWithError(ExitError, "creating cache directory: %v", err)
	}
	db, err := storage.OpenDB(config.DBPath(root))
	if err != nil {
		exitWithError(ExitError, "opening database: %v", err)
	}
	return db
}

// mustNewLogger builds the diagnostic logger from config and --verbose.
func mustNewLogger(cfg *config.GlobalConfig) *zap.Logger {
	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	logger, err := logging.New(level)
	if err != nil {
		exitWithError(ExitConfigError, "configuring logger: %v", err)
	}
	return logger
}

// pipeline bundles the importer with the resources it holds open.
type pipeline struct {
	importer *importer.Importer
	logger   *zap.Logger
	cache    *storage.LookupCache
}

func (p *pipeline) Close() {
	if p.cache != nil {
		p.cache.Close()
	}
	_ = p.logger.Sync()
}

// mustNewPipeline wires the registry clients, the optional lookup cache
// under root and the importer. root may be empty when no library exists.
func mustNewPipeline(cfg *config.GlobalConfig, root string) *pipeline {
	logger := mustNewLogger(cfg)

	timeout, err := cfg.Timeout()
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}

	works := crossref.NewClient(
		crossref.WithBaseURL(cfg.CrossrefURL),
		crossref.WithMailto(cfg.Mailto),
	)
	search := openalex.NewClient(
		openalex.WithBaseURL(cfg.OpenAlexURL),
		openalex.WithMailto(cfg.Mailto),
	)

	p := &pipeline{logger: logger}
	opts := []resolver.Option{
		resolver.WithLogger(logger),
		resolver.WithSimilarityThreshold(cfg.SimilarityThreshold),
		resolver.WithLookupTimeout(timeout),
	}

	if cfg.Cache && root != "" {
		cache, err := openLookupCache(root)
		if err != nil {
			logger.Warn("lookup cache unavailable", zap.Error(err))
		} else {
			p.cache = cache
			opts = append(opts, resolver.WithCache(cache))
		}
	}

	p.importer = importer.New(
		resolver.New(works, search, opts...),
		importer.WithLogger(logger),
		importer.WithMinTitleLength(cfg.MinTitleLength),
	)
	return p
}

func openLookupCache(root string) (*storage.LookupCache, error) {
	if err := os.MkdirAll(config.CachePath(root), 0755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	return storage.OpenCache(config.LookupCachePath(root), storage.DefaultCacheTTL)
}

// mustRefreshIndex rebuilds the SQLite index after the JSONL changed.
func mustRefreshIndex(root string) {
	db := mustOpenDatabase(root)
	defer db.Close()
	if _, err := db.RebuildFromJSONL(config.PapersPath(root)); err != nil {
		exitWithError(ExitDataError, "rebuilding index: %v", err)
	}
}
