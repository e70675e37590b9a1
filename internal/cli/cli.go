// Package cli implements the qarchsearch command-line interface.
//
// # Commands
//
//   - search: find minimal-depth, minimal-SWAP mappings per edge budget
//   - device: show or render a coupling graph
//   - verify: replay a result file against its inputs
//   - cache: manage the result cache
//   - serve: run the HTTP API
//   - completion: shell completion scripts
//
// All commands support --verbose (-v) for debug-level logging and
// --config for a TOML file whose values flags override.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/qarchsearch/pkg/buildinfo"
	"github.com/matzehuels/qarchsearch/pkg/cache"
	"github.com/matzehuels/qarchsearch/pkg/pipeline"
	"github.com/matzehuels/qarchsearch/pkg/sink"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "qarchsearch"

	// cacheDirEnv overrides the cache directory.
	cacheDirEnv = "QARCHSEARCH_CACHE_DIR"

	// defaultOutputDir receives result files when --output-dir is not set.
	defaultOutputDir = "results"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// configPath is bound to the persistent --config flag.
	configPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// SetLogFormat switches the logger between text, json and logfmt output.
func (c *CLI) SetLogFormat(format string) error {
	f, err := parseLogFormat(format)
	if err != nil {
		return err
	}
	c.Logger.SetFormatter(f)
	return nil
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "qarchsearch finds qubit mappings and coupling extensions for quantum circuits",
		Long: `qarchsearch maps a quantum circuit onto a device coupling graph with minimal
depth and SWAP count, and explores which optional coupling edges are worth
adding by solving once per candidate-edge budget.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "TOML config file (flags take precedence)")

	root.AddCommand(c.searchCommand())
	root.AddCommand(c.deviceCommand())
	root.AddCommand(c.verifyCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// backendOpts selects the cache and result sinks of a runner.
type backendOpts struct {
	noCache   bool
	cacheDir  string
	redisURL  string
	outputDir string
	mongoURI  string
}

// newRunner creates a pipeline runner for CLI use. The caller closes it.
func (c *CLI) newRunner(ctx context.Context, opts backendOpts) (*pipeline.Runner, error) {
	cch, err := newCache(ctx, opts)
	if err != nil {
		return nil, err
	}

	var sinks []sink.Sink
	if opts.outputDir != "" {
		dir := sink.NewDir(opts.outputDir)
		dir.Logger = c.Logger
		sinks = append(sinks, dir)
	}
	if opts.mongoURI != "" {
		m, err := sink.NewMongo(ctx, sink.MongoConfig{URI: opts.mongoURI})
		if err != nil {
			_ = cch.Close()
			return nil, err
		}
		c.Logger.Debug("mongo sink connected", "database", sink.DefaultDatabase)
		sinks = append(sinks, m)
	}

	var snk sink.Sink
	if len(sinks) > 0 {
		snk = sink.Multi(sinks...)
	}
	return pipeline.NewRunner(cch, nil, snk, c.Logger), nil
}

// newCache picks the cache backend: none, Redis when a URL is given, the
// file cache otherwise. An unusable cache directory disables caching.
func newCache(ctx context.Context, opts backendOpts) (cache.Cache, error) {
	if opts.noCache {
		return cache.NewNullCache(), nil
	}
	if opts.redisURL != "" {
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{URL: opts.redisURL})
		if err != nil {
			return nil, err
		}
		return rc, nil
	}
	dir := opts.cacheDir
	if dir == "" {
		d, err := cacheDir()
		if err != nil {
			return cache.NewNullCache(), nil
		}
		dir = d
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		return nil, err
	}
	return fc, nil
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory. QARCHSEARCH_CACHE_DIR overrides
// the per-user default (~/.cache/qarchsearch on Linux).
func cacheDir() (string, error) {
	if dir := os.Getenv(cacheDirEnv); dir != "" {
		return filepath.Clean(dir), nil
	}
	return cache.DefaultDir()
}
