// Package observability provides hooks for metrics and tracing.
//
// This package enables optional instrumentation without adding hard
// dependencies on specific observability backends to the search itself.
// Consumers register hooks at startup to receive events about searches,
// solver checks, cache operations and API jobs.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// [Prometheus] implements every hook interface on top of
// github.com/prometheus/client_golang.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    m := observability.NewPrometheus(prometheus.DefaultRegisterer)
//	    observability.SetSearchHooks(m)
//	    observability.SetCacheHooks(m)
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Search().OnCheck(ctx, "depth", "unsat", elapsed)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Search Hooks
// =============================================================================

// SearchHooks receives events from the architecture search.
type SearchHooks interface {
	// OnSearchStart is called once per search before any solver work.
	OnSearchStart(ctx context.Context, arch string, gates, candidates int)
	// OnCheck is called after every solver check. stage is "preprocess",
	// "depth" or "swap"; status is "sat", "unsat" or "unknown".
	OnCheck(ctx context.Context, stage, status string, duration time.Duration)
	// OnRestart is called when the depth bound doubles and the encoding is
	// rebuilt.
	OnRestart(ctx context.Context, bound int)
	// OnBudgetComplete is called once per candidate-edge budget. err is
	// non-nil when the budget produced no result.
	OnBudgetComplete(ctx context.Context, budget, depth, swaps int, duration time.Duration, err error)
	// OnSearchComplete is called once per search.
	OnSearchComplete(ctx context.Context, results int, duration time.Duration, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// Job Hooks
// =============================================================================

// JobHooks receives events from the HTTP job API.
type JobHooks interface {
	// OnJobSubmitted records an accepted job.
	OnJobSubmitted(ctx context.Context, id string)

	// OnJobComplete records a finished job; status is "done" or "failed".
	OnJobComplete(ctx context.Context, id, status string, duration time.Duration)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopSearchHooks is a no-op implementation of SearchHooks.
type NoopSearchHooks struct{}

func (NoopSearchHooks) OnSearchStart(context.Context, string, int, int)        {}
func (NoopSearchHooks) OnCheck(context.Context, string, string, time.Duration) {}
func (NoopSearchHooks) OnRestart(context.Context, int)                         {}
func (NoopSearchHooks) OnBudgetComplete(context.Context, int, int, int, time.Duration, error) {
}
func (NoopSearchHooks) OnSearchComplete(context.Context, int, time.Duration, error) {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopJobHooks is a no-op implementation of JobHooks.
type NoopJobHooks struct{}

func (NoopJobHooks) OnJobSubmitted(context.Context, string)                       {}
func (NoopJobHooks) OnJobComplete(context.Context, string, string, time.Duration) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	searchHooks SearchHooks = NoopSearchHooks{}
	cacheHooks  CacheHooks  = NoopCacheHooks{}
	jobHooks    JobHooks    = NoopJobHooks{}
	hooksMu     sync.RWMutex
)

// SetSearchHooks registers custom search hooks.
// This should be called once at application startup before any search.
func SetSearchHooks(h SearchHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		searchHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetJobHooks registers custom job hooks.
func SetJobHooks(h JobHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		jobHooks = h
	}
}

// Search returns the registered search hooks.
func Search() SearchHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return searchHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Jobs returns the registered job hooks.
func Jobs() JobHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return jobHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	searchHooks = NoopSearchHooks{}
	cacheHooks = NoopCacheHooks{}
	jobHooks = NoopJobHooks{}
}
