package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/qarchsearch/pkg/circuit"
	"github.com/matzehuels/qarchsearch/pkg/io"
	"github.com/matzehuels/qarchsearch/pkg/pipeline"
	"github.com/matzehuels/qarchsearch/pkg/search"
)

// searchFlags holds the command-line flags of the search command.
type searchFlags struct {
	device       string
	depsFile     string
	durations    string
	benchmark    string
	outputDir    string
	timeout      time.Duration
	maxDoublings int
	initialBound int
	swapDuration int
	preprocess   bool
	verify       bool
	refresh      bool
	noCache      bool
	redisURL     string
	mongoURI     string
}

// searchCommand creates the search command.
func (c *CLI) searchCommand() *cobra.Command {
	var flags searchFlags

	cmd := &cobra.Command{
		Use:   "search <circuit.qasm|circuit.json>",
		Short: "Find minimal-depth, minimal-SWAP mappings for every candidate-edge budget",
		Long: `Search maps the circuit onto the device once per candidate-edge budget,
from no extra edges up to all candidates. Each solved budget is written to
<output-dir>/extra_edge_<n>.json.`,
		Example: `  qarchsearch search adder.qasm --device grid2x3
  qarchsearch search prog.json --device chip.toml --timeout 60s --preprocess`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, backend, err := c.searchOptions(cmd, args[0], flags)
			if err != nil {
				return err
			}
			return c.runSearch(cmd.Context(), opts, backend)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.device, "device", "d", "", "built-in device (lineN, ringN, gridRxC) or TOML file")
	f.StringVar(&flags.depsFile, "deps", "", "JSON file with explicit gate dependency pairs")
	f.StringVar(&flags.durations, "durations", "", "gate durations in layers, e.g. cx=2,swap=3")
	f.StringVar(&flags.benchmark, "benchmark", "", "benchmark name in results (default: file name)")
	f.StringVarP(&flags.outputDir, "output-dir", "o", defaultOutputDir, "directory for extra_edge_<n>.json files")
	f.DurationVar(&flags.timeout, "timeout", 0, "limit for every single solver check (0 = none)")
	f.IntVar(&flags.maxDoublings, "max-doublings", search.DefaultMaxDoublings, "depth-bound doublings per budget before giving up")
	f.IntVar(&flags.initialBound, "initial-bound", 0, "initial depth bound (0 = derived from the circuit)")
	f.IntVar(&flags.swapDuration, "swap-duration", search.DefaultSwapDuration, "layers an inserted SWAP occupies")
	f.BoolVar(&flags.preprocess, "preprocess", false, "run a depth pass with all candidates first")
	f.BoolVar(&flags.verify, "verify", false, "replay every result against the inputs")
	f.BoolVar(&flags.refresh, "refresh", false, "ignore cached reports")
	f.BoolVar(&flags.noCache, "no-cache", false, "disable caching")
	f.StringVar(&flags.redisURL, "redis-url", "", "cache reports in Redis instead of on disk")
	f.StringVar(&flags.mongoURI, "mongo-uri", "", "also store results in MongoDB")
	_ = cmd.MarkFlagRequired("device")
	_ = cmd.RegisterFlagCompletionFunc("device", completeDevices)

	return cmd
}

// searchOptions merges the config file and flags into pipeline options.
func (c *CLI) searchOptions(cmd *cobra.Command, program string, flags searchFlags) (pipeline.Options, backendOpts, error) {
	fc, err := c.loadConfig()
	if err != nil {
		return pipeline.Options{}, backendOpts{}, err
	}

	cfg := fc.Search
	override(cmd, "timeout", &cfg.Timeout, flags.timeout)
	override(cmd, "max-doublings", &cfg.MaxDoublings, flags.maxDoublings)
	override(cmd, "initial-bound", &cfg.InitialBoundDepth, flags.initialBound)
	override(cmd, "swap-duration", &cfg.SwapDuration, flags.swapDuration)
	override(cmd, "preprocess", &cfg.Preprocess, flags.preprocess)

	backend := backendOpts{
		noCache:   flags.noCache,
		cacheDir:  fc.Cache.Dir,
		redisURL:  fc.Cache.RedisURL,
		outputDir: orDefault(fc.Output.Dir, defaultOutputDir),
		mongoURI:  fc.Output.MongoURI,
	}
	override(cmd, "redis-url", &backend.redisURL, flags.redisURL)
	override(cmd, "output-dir", &backend.outputDir, flags.outputDir)
	override(cmd, "mongo-uri", &backend.mongoURI, flags.mongoURI)

	durations, err := circuit.ParseDurations(flags.durations)
	if err != nil {
		return pipeline.Options{}, backendOpts{}, err
	}
	var deps []circuit.Pair
	if flags.depsFile != "" {
		deps, err = circuit.LoadDependencies(flags.depsFile)
		if err != nil {
			return pipeline.Options{}, backendOpts{}, err
		}
	}

	opts := pipeline.Options{
		Program:      program,
		Device:       flags.device,
		Durations:    durations,
		Dependencies: deps,
		Benchmark:    flags.benchmark,
		Config:       cfg,
		Refresh:      flags.refresh,
		Verify:       flags.verify,
	}
	return opts, backend, nil
}

func (c *CLI) runSearch(ctx context.Context, opts pipeline.Options, backend backendOpts) error {
	logger := loggerFromContext(ctx)
	runner, err := c.newRunner(ctx, backend)
	if err != nil {
		return err
	}
	defer func() {
		if err := runner.Close(context.Background()); err != nil {
			logger.Warn("close backends", "err", err)
		}
	}()

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Searching %s", opts.Program))
	opts.Config.Progress = spinnerProgress{s: spinner}
	opts.Logger = logger
	prog := newProgress(logger)
	spinner.Start()
	res, err := runner.Execute(ctx, opts)
	spinner.Stop()
	if err != nil {
		if res != nil && res.Report != nil && len(res.Report.Results) > 0 {
			printReport(res.Report)
		}
		return err
	}
	prog.done("Search finished")

	report := res.Report
	printNewline()
	fmt.Fprintln(out, StyleTitle.Render(fmt.Sprintf("%s on %s", res.Request.Benchmark, res.Request.Device.Name)))
	printSearchStats(report, res.CacheHit)
	printReport(report)

	if len(report.Results) == 0 {
		printWarning("No budget produced a result")
		return nil
	}
	if best := report.Best(); best != nil {
		printSuccess("Best: budget %d, depth %d, %d swaps", best.Budget, best.D, best.SwapCount)
	}
	if opts.Verify {
		printSuccess("Verified %d results", len(report.Results))
	}
	if backend.outputDir != "" {
		for _, r := range report.Results {
			printFile(filepath.Join(backend.outputDir, io.FileName(r.Budget)))
		}
	}
	return nil
}
