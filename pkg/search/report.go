package search

import (
	"time"

	"github.com/matzehuels/qarchsearch/pkg/errors"
	"github.com/matzehuels/qarchsearch/pkg/schedule"
	"github.com/matzehuels/qarchsearch/pkg/smt"
)

// Report collects the outcome of a search.
type Report struct {
	// Results holds one entry per solved budget, in budget order.
	Results []*schedule.TopologyResult `json:"results"`
	// Failures holds the budgets that produced no result.
	Failures []Failure `json:"failures,omitempty"`
	// LowerBound is the depth found by the pre-processing pass, or -1 when
	// the pass did not run.
	LowerBound int `json:"lower_bound"`
	// Restarts counts depth-bound doublings over all budgets.
	Restarts int           `json:"restarts"`
	Stats    smt.Stats     `json:"stats"`
	Duration time.Duration `json:"duration"`
}

// Failure is a budget the search gave up on.
type Failure struct {
	Budget  int         `json:"budget"`
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
	Err     error       `json:"-"`
}

func newFailure(budget int, err error) Failure {
	return Failure{Budget: budget, Code: errors.GetCode(err), Message: err.Error(), Err: err}
}

func (f Failure) Error() string { return f.Message }

// Best returns the result with the fewest SWAPs, or nil when there are no
// results. SWAP ties go to the smaller depth, then to the smaller budget.
func (r *Report) Best() *schedule.TopologyResult {
	var best *schedule.TopologyResult
	for _, res := range r.Results {
		if best == nil || res.SwapCount < best.SwapCount ||
			(res.SwapCount == best.SwapCount && res.D < best.D) {
			best = res
		}
	}
	return best
}

func addStats(a, b smt.Stats) smt.Stats {
	return smt.Stats{
		Vars:    max(a.Vars, b.Vars),
		Clauses: a.Clauses + b.Clauses,
		Checks:  a.Checks + b.Checks,
		Sat:     a.Sat + b.Sat,
		Unsat:   a.Unsat + b.Unsat,
		Unknown: a.Unknown + b.Unknown,
	}
}
