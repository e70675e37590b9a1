package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/qarchsearch/pkg/cache"
	"github.com/matzehuels/qarchsearch/pkg/circuit"
	"github.com/matzehuels/qarchsearch/pkg/errors"
	"github.com/matzehuels/qarchsearch/pkg/observability"
	"github.com/matzehuels/qarchsearch/pkg/schedule"
	"github.com/matzehuels/qarchsearch/pkg/search"
	"github.com/matzehuels/qarchsearch/pkg/sink"
)

// cacheKeyType labels search reports in cache hooks.
const cacheKeyType = "search"

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use it to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache, sink and logger - it
// doesn't store results. Multiple goroutines can safely use the same
// Runner with different options provided the cache and sink are safe for
// concurrent use.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Sink   sink.Sink
	Logger *log.Logger
}

// NewRunner creates a runner.
// If keyer is nil, a DefaultKeyer is used.
// If c is nil, a NullCache is used (caching disabled).
// snk may be nil, in which case results are only returned.
func NewRunner(c cache.Cache, keyer cache.Keyer, snk sink.Sink, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Sink:   snk,
		Logger: logger,
	}
}

// Execute runs load → cached search → verify → sink.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	loadStart := time.Now()
	req, err := Load(opts)
	if err != nil {
		return nil, err
	}
	res := &Result{Request: req}
	res.Stats.LoadTime = time.Since(loadStart)
	single, double := req.Circuit.Counts()
	r.Logger.Info("loaded inputs",
		"benchmark", req.Benchmark,
		"qubits", req.Circuit.Qubits,
		"single", single,
		"double", double,
		"device", req.Device.Name,
		"candidates", len(req.Device.Candidates))

	res.Key, err = r.Key(req)
	if err != nil {
		return nil, fmt.Errorf("cache key: %w", err)
	}

	searchStart := time.Now()
	report, hit, err := r.SearchWithCacheInfo(ctx, req, res.Key, opts.Refresh)
	res.Report, res.CacheHit = report, hit
	res.Stats.SearchTime = time.Since(searchStart)
	if err != nil {
		return res, err
	}
	r.Logger.Info("search finished",
		"results", len(report.Results),
		"failures", len(report.Failures),
		"cached", hit,
		"duration", res.Stats.SearchTime)

	if opts.Verify {
		if err := VerifyReport(req, report); err != nil {
			return res, err
		}
		r.Logger.Info("verified results", "count", len(report.Results))
	}

	if r.Sink != nil && len(report.Results) > 0 {
		sinkStart := time.Now()
		meta := sink.Meta{
			Key:       res.Key,
			Benchmark: req.Benchmark,
			Arch:      req.Device.Name,
			CreatedAt: time.Now().UTC(),
		}
		if err := r.Sink.Write(ctx, meta, report.Results); err != nil {
			return res, fmt.Errorf("write results: %w", err)
		}
		res.Stats.SinkTime = time.Since(sinkStart)
	}
	return res, nil
}

// Key derives the cache key of a request.
func (r *Runner) Key(req search.Request) (string, error) {
	circuitHash, deviceHash, err := requestHashes(req)
	if err != nil {
		return "", err
	}
	cfg := req.Config
	cfg.SetDefaults()
	// Key the relation the search enforces, so an explicit empty list and
	// the nil default never share an entry.
	pairs := req.Dependencies
	if pairs == nil {
		pairs = circuit.DefaultDependencies(req.Circuit.Gates)
	}
	var deps [][2]int
	for _, d := range pairs {
		deps = append(deps, [2]int(d))
	}
	return r.Keyer.SearchKey(circuitHash, deviceHash, cache.SearchKeyOpts{
		Dependencies:      deps,
		Benchmark:         req.Benchmark,
		Timeout:           cfg.Timeout,
		MaxDoublings:      cfg.MaxDoublings,
		InitialBoundDepth: cfg.InitialBoundDepth,
		Preprocess:        cfg.Preprocess,
		SwapDuration:      cfg.SwapDuration,
	}), nil
}

// SearchWithCacheInfo returns the cached report for key or runs the search
// and caches it. Reports that contain unproven results or indeterminate
// failures depend on timing and are not cached.
func (r *Runner) SearchWithCacheInfo(ctx context.Context, req search.Request, key string, refresh bool) (*search.Report, bool, error) {
	hooks := observability.Cache()
	if !refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			report, err := decodeReport(data)
			if err == nil {
				hooks.OnCacheHit(ctx, cacheKeyType)
				return report, true, nil
			}
			r.Logger.Warn("discarding unreadable cache entry", "key", key, "err", err)
		} else if err != nil {
			r.Logger.Warn("cache lookup failed", "err", err)
		}
		hooks.OnCacheMiss(ctx, cacheKeyType)
	}

	report, err := search.Search(ctx, req)
	if err != nil {
		return report, false, err
	}

	if cacheable(report) {
		data, err := encodeReport(report)
		if err == nil {
			err = r.Cache.Set(ctx, key, data, cache.DefaultTTL)
		}
		if err != nil {
			r.Logger.Warn("cache store failed", "err", err)
		} else {
			hooks.OnCacheSet(ctx, cacheKeyType, len(data))
		}
	}
	return report, false, nil
}

// Close releases resources held by the runner.
func (r *Runner) Close(ctx context.Context) error {
	var err error
	if r.Sink != nil {
		err = r.Sink.Close(ctx)
	}
	if r.Cache != nil {
		if cerr := r.Cache.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

// VerifyReport checks every result of report against the request.
func VerifyReport(req search.Request, report *search.Report) error {
	deps := req.Dependencies
	if deps == nil {
		deps = circuit.DefaultDependencies(req.Circuit.Gates)
	}
	for _, res := range report.Results {
		if err := schedule.Verify(res, req.Circuit, req.Device, deps); err != nil {
			return fmt.Errorf("budget %d: %w", res.Budget, err)
		}
	}
	return nil
}

func cacheable(report *search.Report) bool {
	for _, f := range report.Failures {
		if f.Code == errors.ErrCodeIndeterminate {
			return false
		}
	}
	for _, r := range report.Results {
		if !r.Proven {
			return false
		}
	}
	return true
}

// =============================================================================
// Cache encoding
// =============================================================================

// cachedReport carries the result fields that the JSON record omits.
type cachedReport struct {
	Report  *search.Report `json:"report"`
	Budgets []cachedBudget `json:"budgets"`
}

type cachedBudget struct {
	Budget int  `json:"budget"`
	Swaps  int  `json:"swaps"`
	Proven bool `json:"proven"`
}

func encodeReport(report *search.Report) ([]byte, error) {
	c := cachedReport{Report: report, Budgets: make([]cachedBudget, len(report.Results))}
	for i, r := range report.Results {
		c.Budgets[i] = cachedBudget{Budget: r.Budget, Swaps: r.SwapCount, Proven: r.Proven}
	}
	return json.Marshal(c)
}

func decodeReport(data []byte) (*search.Report, error) {
	var c cachedReport
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	if c.Report == nil || len(c.Budgets) != len(c.Report.Results) {
		return nil, fmt.Errorf("malformed cached report")
	}
	for i, r := range c.Report.Results {
		r.Budget, r.SwapCount, r.Proven = c.Budgets[i].Budget, c.Budgets[i].Swaps, c.Budgets[i].Proven
	}
	for i, f := range c.Report.Failures {
		c.Report.Failures[i].Err = errors.New(f.Code, "%s", f.Message)
	}
	return c.Report, nil
}
