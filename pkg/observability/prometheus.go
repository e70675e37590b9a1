package observability

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	StageLabel   = "stage"
	StatusLabel  = "status"
	OutcomeLabel = "outcome"
	KeyLabel     = "key_type"

	Succeeded = "succeeded"
	Failed    = "failed"
)

// Prometheus records hook events as Prometheus metrics. It implements
// [SearchHooks], [CacheHooks] and [JobHooks].
type Prometheus struct {
	checks       *prometheus.CounterVec
	checkSeconds *prometheus.HistogramVec
	restarts     prometheus.Counter
	budgets      *prometheus.CounterVec
	budgetDepth  prometheus.Histogram
	budgetSwaps  prometheus.Histogram
	searches     *prometheus.CounterVec
	cacheOps     *prometheus.CounterVec
	cacheBytes   prometheus.Counter
	jobs         *prometheus.CounterVec
	jobSeconds   prometheus.Histogram
	jobsInFlight prometheus.Gauge
}

var (
	_ SearchHooks = (*Prometheus)(nil)
	_ CacheHooks  = (*Prometheus)(nil)
	_ JobHooks    = (*Prometheus)(nil)
)

// NewPrometheus creates the collectors and registers them with reg.
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	p := &Prometheus{
		checks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "qarchsearch_solver_checks_total",
			Help: "Solver checks by search stage and outcome",
		}, []string{StageLabel, StatusLabel}),
		checkSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "qarchsearch_solver_check_seconds",
			Help:    "Wall time of solver checks",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{StageLabel}),
		restarts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "qarchsearch_depth_restarts_total",
			Help: "Depth-bound doublings that rebuilt the encoding",
		}),
		budgets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "qarchsearch_budgets_total",
			Help: "Candidate-edge budgets searched, by outcome",
		}, []string{OutcomeLabel}),
		budgetDepth: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "qarchsearch_result_depth",
			Help:    "Compacted depth of solved budgets",
			Buckets: prometheus.LinearBuckets(2, 4, 12),
		}),
		budgetSwaps: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "qarchsearch_result_swaps",
			Help:    "SWAP count of solved budgets",
			Buckets: prometheus.LinearBuckets(0, 2, 12),
		}),
		searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "qarchsearch_searches_total",
			Help: "Completed searches, by outcome",
		}, []string{OutcomeLabel}),
		cacheOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "qarchsearch_cache_operations_total",
			Help: "Cache operations by key type and result",
		}, []string{KeyLabel, StatusLabel}),
		cacheBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "qarchsearch_cache_written_bytes_total",
			Help: "Bytes written to the result cache",
		}),
		jobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "qarchsearch_jobs_total",
			Help: "API jobs by final status",
		}, []string{StatusLabel}),
		jobSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "qarchsearch_job_seconds",
			Help:    "Wall time of API jobs",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 10),
		}),
		jobsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "qarchsearch_jobs_in_flight",
			Help: "API jobs accepted but not finished",
		}),
	}
	reg.MustRegister(
		p.checks, p.checkSeconds, p.restarts, p.budgets, p.budgetDepth, p.budgetSwaps,
		p.searches, p.cacheOps, p.cacheBytes, p.jobs, p.jobSeconds, p.jobsInFlight,
	)
	return p
}

func outcome(err error) string {
	if err != nil {
		return Failed
	}
	return Succeeded
}

func (p *Prometheus) OnSearchStart(context.Context, string, int, int) {}

func (p *Prometheus) OnCheck(_ context.Context, stage, status string, d time.Duration) {
	p.checks.WithLabelValues(stage, status).Inc()
	p.checkSeconds.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *Prometheus) OnRestart(context.Context, int) { p.restarts.Inc() }

func (p *Prometheus) OnBudgetComplete(_ context.Context, _ int, depth, swaps int, _ time.Duration, err error) {
	p.budgets.WithLabelValues(outcome(err)).Inc()
	if err == nil {
		p.budgetDepth.Observe(float64(depth))
		p.budgetSwaps.Observe(float64(swaps))
	}
}

func (p *Prometheus) OnSearchComplete(_ context.Context, _ int, _ time.Duration, err error) {
	p.searches.WithLabelValues(outcome(err)).Inc()
}

func (p *Prometheus) OnCacheHit(_ context.Context, keyType string) {
	p.cacheOps.WithLabelValues(keyType, "hit").Inc()
}

func (p *Prometheus) OnCacheMiss(_ context.Context, keyType string) {
	p.cacheOps.WithLabelValues(keyType, "miss").Inc()
}

func (p *Prometheus) OnCacheSet(_ context.Context, keyType string, size int) {
	p.cacheOps.WithLabelValues(keyType, "set").Inc()
	p.cacheBytes.Add(float64(size))
}

func (p *Prometheus) OnJobSubmitted(context.Context, string) { p.jobsInFlight.Inc() }

func (p *Prometheus) OnJobComplete(_ context.Context, _ string, status string, d time.Duration) {
	p.jobsInFlight.Dec()
	p.jobs.WithLabelValues(status).Inc()
	p.jobSeconds.Observe(d.Seconds())
}
