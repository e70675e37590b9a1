package search

import (
	"github.com/matzehuels/qarchsearch/pkg/schedule"
	"github.com/matzehuels/qarchsearch/pkg/smt"
)

// Progress receives search events as they happen. Calls are made from the
// goroutine running [Search].
type Progress interface {
	// BudgetStarted is called before the depth search of a budget.
	BudgetStarted(budget int)
	// DepthTried is called after every depth check.
	DepthTried(budget, depth int, status smt.Status)
	// Restarted is called when the depth bound doubles.
	Restarted(budget, bound int)
	// SwapsImproved is called when a schedule with fewer SWAPs is found.
	SwapsImproved(budget, swaps int)
	// BudgetFinished is called once per budget with its result or failure.
	BudgetFinished(budget int, result *schedule.TopologyResult, err error)
}

// NoopProgress ignores all events.
type NoopProgress struct{}

func (NoopProgress) BudgetStarted(int)                                   {}
func (NoopProgress) DepthTried(int, int, smt.Status)                     {}
func (NoopProgress) Restarted(int, int)                                  {}
func (NoopProgress) SwapsImproved(int, int)                              {}
func (NoopProgress) BudgetFinished(int, *schedule.TopologyResult, error) {}
