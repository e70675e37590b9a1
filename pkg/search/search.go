// Package search finds, for every candidate-edge budget, a qubit mapping
// and SWAP schedule of minimal depth and, at that depth, minimal SWAP count.
//
// # Algorithm
//
// For numE = 0, 1, ..., len(Candidates) the search opens a solver scope
// limiting the used candidate edges to numE and runs two nested loops:
//
//  1. Depth: the transition depth "tight" grows from its lower bound until
//     every gate fits at or before it. The encoding is built for a fixed
//     number of layers (the bound); when tight reaches it, the bound
//     doubles and the encoding is rebuilt on a fresh solver.
//  2. SWAPs: with the depth locked, the SWAP bound shrinks one below the
//     best count until the solver proves no smaller count exists.
//
// The scope is closed before the next budget. The loop stops early once
// numE reaches [EarlyExitBudget] and the used edge count stops growing.
//
// # Usage
//
//	report, err := search.Search(ctx, search.Request{
//	    Circuit: c,
//	    Device:  device.Grid(2, 3),
//	    Config:  search.Config{Timeout: time.Minute},
//	})
//	for _, r := range report.Results {
//	    fmt.Println(r)
//	}
package search

import (
	"context"
	"fmt"
	"time"

	"github.com/matzehuels/qarchsearch/pkg/circuit"
	"github.com/matzehuels/qarchsearch/pkg/device"
	"github.com/matzehuels/qarchsearch/pkg/encode"
	"github.com/matzehuels/qarchsearch/pkg/errors"
	"github.com/matzehuels/qarchsearch/pkg/observability"
	"github.com/matzehuels/qarchsearch/pkg/schedule"
	"github.com/matzehuels/qarchsearch/pkg/smt"
)

// Check stages reported to hooks.
const (
	StagePreprocess = "preprocess"
	StageDepth      = "depth"
	StageSwap       = "swap"
)

// Request is the immutable input of one search.
type Request struct {
	Circuit *circuit.Circuit
	Device  *device.Device
	// Dependencies orders gates; nil means the full collision relation.
	Dependencies []circuit.Pair
	// Benchmark names the program in the result records.
	Benchmark string
	Config    Config
}

// newSystem creates the solver for one encoding build.
var newSystem = func(opts ...smt.Option) smt.System { return smt.NewGini(opts...) }

// Search runs the architecture search described in the package comment.
//
// Input errors are returned before any solver call. Budgets that fail to
// converge or hit an indeterminate check are recorded in
// [Report.Failures] and the search continues. If ctx is cancelled the
// partial report is returned together with the wrapped context error.
func Search(ctx context.Context, req Request) (*Report, error) {
	cfg := req.Config
	if err := cfg.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	deps := req.Dependencies
	if deps == nil && req.Circuit != nil {
		deps = circuit.DefaultDependencies(req.Circuit.Gates)
		cfg.Logger.Debug("no dependencies given, using full collision relation", "pairs", len(deps))
	}
	p := encode.Problem{Circuit: req.Circuit, Device: req.Device, Dependencies: deps}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	s := &searcher{req: req, cfg: cfg, problem: p}
	return s.run(ctx)
}

// searcher holds the working state of one Search call.
type searcher struct {
	req     Request
	cfg     Config
	problem encode.Problem
	report  *Report
}

// session is one solver plus the encoding built on it. Depth is the
// current bound; budget is the candidate-edge budget whose scope is open,
// or -1.
type session struct {
	sys    smt.System
	enc    *encode.Encoding
	opts   []encode.Option
	depth  int
	budget int
}

func (s *searcher) run(ctx context.Context) (*Report, error) {
	start := time.Now()
	c, dev := s.problem.Circuit, s.problem.Device
	logger := s.cfg.Logger
	s.report = &Report{LowerBound: -1}
	hooks := observability.Search()
	hooks.OnSearchStart(ctx, dev.Name, len(c.Gates), len(dev.Candidates))

	if s.cfg.MemoryLimit > 0 {
		logger.Warn("memory limit is not enforced by the solver backend", "limit_mib", s.cfg.MemoryLimit)
	}

	bound := s.initialBound()
	logger.Debug("search configured",
		"gates", len(c.Gates),
		"qubits", c.Qubits,
		"physical", dev.Qubits,
		"edges", len(dev.Edges),
		"candidates", len(dev.Candidates),
		"bound", bound)

	floor := 0
	if s.cfg.Preprocess {
		depth, b, err := s.preprocess(ctx, bound)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return s.finish(ctx, start, fmt.Errorf("search canceled: %w", ctxErr))
			}
			logger.Warn("pre-processing failed, starting from depth 0", "err", err)
		} else {
			floor, bound = depth, b
			s.report.LowerBound = depth
			logger.Info("pre-processing done", "depth", depth)
		}
	}

	sess, err := s.newSession(bound)
	if err != nil {
		return s.finish(ctx, start, err)
	}

	var prev *schedule.TopologyResult
	for numE := 0; numE <= len(dev.Candidates); numE++ {
		if err := ctx.Err(); err != nil {
			s.report.Stats = addStats(s.report.Stats, sess.sys.Stats())
			return s.finish(ctx, start, fmt.Errorf("search canceled: %w", err))
		}
		res, err := s.searchBudget(ctx, sess, numE, floor)
		if perr := s.exitBudget(sess); perr != nil {
			return s.finish(ctx, start, perr)
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				s.report.Stats = addStats(s.report.Stats, sess.sys.Stats())
				return s.finish(ctx, start, fmt.Errorf("search canceled: %w", ctxErr))
			}
			logger.Warn("budget failed", "extra_edges", numE, "err", err)
			s.report.Failures = append(s.report.Failures, newFailure(numE, err))
			continue
		}
		s.report.Results = append(s.report.Results, res)
		logger.Info("budget solved",
			"extra_edges", numE,
			"used", res.ExtraEdgeNum,
			"depth", res.D,
			"swaps", res.SwapCount,
			"proven", res.Proven)

		if numE >= EarlyExitBudget && prev != nil && res.ExtraEdgeNum <= prev.ExtraEdgeNum {
			logger.Debug("used edges stopped growing, stopping", "extra_edges", numE)
			break
		}
		prev = res
	}
	s.report.Stats = addStats(s.report.Stats, sess.sys.Stats())
	return s.finish(ctx, start, nil)
}

func (s *searcher) finish(ctx context.Context, start time.Time, err error) (*Report, error) {
	s.report.Duration = time.Since(start)
	observability.Search().OnSearchComplete(ctx, len(s.report.Results), s.report.Duration, err)
	s.cfg.Logger.Debug("solver totals", "stats", s.report.Stats.String())
	return s.report, err
}

// initialBound is the configured bound or a multiple of the push-forward
// depth, never below one layer.
func (s *searcher) initialBound() int {
	if s.cfg.InitialBoundDepth > 0 {
		return s.cfg.InitialBoundDepth
	}
	c := s.problem.Circuit
	return max(DefaultBoundFactor*circuit.PushForwardDepth(c.Gates, c.Qubits), 1)
}

func (s *searcher) newSession(depth int, opts ...encode.Option) (*session, error) {
	sess := &session{opts: opts, budget: -1}
	if err := s.rebuild(sess, depth); err != nil {
		return nil, err
	}
	return sess, nil
}

// rebuild replaces the session's solver with a fresh one encoding depth
// layers and reopens the budget scope if one was open. On error the
// session is left unchanged.
func (s *searcher) rebuild(sess *session, depth int) error {
	var solverOpts []smt.Option
	if s.cfg.Timeout > 0 {
		solverOpts = append(solverOpts, smt.WithTimeout(s.cfg.Timeout))
	}
	sys := newSystem(solverOpts...)
	enc, err := encode.New(sys, s.problem, depth, sess.opts...)
	if err != nil {
		return err
	}
	if sess.sys != nil {
		s.report.Stats = addStats(s.report.Stats, sess.sys.Stats())
	}
	sess.sys, sess.enc, sess.depth = sys, enc, depth
	if sess.budget >= 0 {
		sess.sys.Push()
		sess.sys.Assert(sess.enc.EdgeBudget(sess.budget))
	}
	return nil
}

func (s *searcher) enterBudget(sess *session, numE int) {
	sess.budget = numE
	sess.sys.Push()
	sess.sys.Assert(sess.enc.EdgeBudget(numE))
}

// exitBudget closes the budget scope and checks that no other scope leaked.
func (s *searcher) exitBudget(sess *session) error {
	if sess.budget < 0 {
		return nil
	}
	sess.budget = -1
	if err := sess.sys.Pop(); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "close budget scope")
	}
	if d := sess.sys.Depth(); d != 0 {
		return errors.New(errors.ErrCodeInternal, "%d solver scopes left open after budget", d)
	}
	return nil
}

// preprocess runs one depth search on an encoding without edge
// bookkeeping. It returns the depth found and the bound it was found at.
func (s *searcher) preprocess(ctx context.Context, bound int) (int, int, error) {
	sess, err := s.newSession(bound, encode.WithoutEdgeUsage())
	if err != nil {
		return 0, 0, err
	}
	depth, _, err := s.minimizeDepth(ctx, sess, 0, StagePreprocess)
	s.report.Stats = addStats(s.report.Stats, sess.sys.Stats())
	if err != nil {
		return 0, 0, err
	}
	return depth, sess.depth, nil
}

// searchBudget runs the depth and SWAP loops for one budget. The caller
// closes the budget scope.
func (s *searcher) searchBudget(ctx context.Context, sess *session, numE, floor int) (*schedule.TopologyResult, error) {
	start := time.Now()
	hooks := observability.Search()
	s.cfg.Progress.BudgetStarted(numE)
	s.enterBudget(sess, numE)

	res, err := s.solveBudget(ctx, sess, numE, floor)
	depth, swaps := 0, 0
	if res != nil {
		depth, swaps = res.D, res.SwapCount
	}
	hooks.OnBudgetComplete(ctx, numE, depth, swaps, time.Since(start), err)
	s.cfg.Progress.BudgetFinished(numE, res, err)
	return res, err
}

func (s *searcher) solveBudget(ctx context.Context, sess *session, numE, floor int) (*schedule.TopologyResult, error) {
	tight, res, err := s.minimizeDepth(ctx, sess, floor, StageDepth)
	if err != nil {
		return nil, err
	}
	enc := sess.enc
	best := enc.Snapshot(res.Model, tight)
	enc.LockDepth(tight)
	s.cfg.Logger.Debug("depth locked", "extra_edges", numE, "tight", tight, "swaps", best.SwapCount())

	proven := true
	for best.SwapCount() > 0 {
		sess.sys.Push()
		sess.sys.Assert(enc.SwapBound(best.SwapCount() - 1))
		r := s.check(ctx, sess, StageSwap)
		if r.Status == smt.Sat {
			best = enc.Snapshot(r.Model, tight)
			s.cfg.Progress.SwapsImproved(numE, best.SwapCount())
			s.cfg.Logger.Debug("fewer swaps", "extra_edges", numE, "swaps", best.SwapCount())
		}
		if err := sess.sys.Pop(); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "close swap scope")
		}
		if r.Status == smt.Unsat {
			break
		}
		if r.Status == smt.Unknown {
			proven = false
			s.cfg.Logger.Warn("swap minimisation indeterminate, keeping best", "extra_edges", numE, "swaps", best.SwapCount())
			break
		}
	}

	out, err := schedule.Compact(s.problem.Circuit, s.problem.Device, s.problem.Dependencies, best, schedule.Options{
		Benchmark:    s.req.Benchmark,
		SwapDuration: s.cfg.SwapDuration,
	})
	if err != nil {
		return nil, err
	}
	out.Budget = numE
	out.Proven = proven
	return out, nil
}

// minimizeDepth finds the smallest tight at or above from such that every
// gate fits at or before transition layer tight. It returns the model of
// that check.
func (s *searcher) minimizeDepth(ctx context.Context, sess *session, from int, stage string) (int, smt.Result, error) {
	tight := from
	doublings := 0
	for {
		if tight >= sess.depth {
			if doublings >= s.cfg.MaxDoublings {
				return 0, smt.Result{}, errors.New(errors.ErrCodeNonConvergence,
					"depth bound %d exhausted after %d doublings", sess.depth, doublings)
			}
			doublings++
			next := max(sess.depth*2, tight+1)
			if err := s.rebuild(sess, next); err != nil {
				return 0, smt.Result{}, err
			}
			s.report.Restarts++
			if stage != StagePreprocess {
				s.cfg.Progress.Restarted(sess.budget, next)
			}
			observability.Search().OnRestart(ctx, next)
			s.cfg.Logger.Debug("depth bound doubled", "bound", next, "stage", stage)
		}

		res := s.check(ctx, sess, stage, sess.enc.DepthBound(tight)...)
		if stage != StagePreprocess {
			s.cfg.Progress.DepthTried(sess.budget, tight, res.Status)
		}
		switch res.Status {
		case smt.Sat:
			return tight, res, nil
		case smt.Unsat:
			tight++
		default:
			return 0, smt.Result{}, errors.New(errors.ErrCodeIndeterminate,
				"solver could not decide depth %d", tight)
		}
	}
}

func (s *searcher) check(ctx context.Context, sess *session, stage string, assumptions ...smt.Bool) smt.Result {
	start := time.Now()
	res := sess.sys.Check(ctx, assumptions...)
	elapsed := time.Since(start)
	observability.Search().OnCheck(ctx, stage, res.Status.String(), elapsed)
	s.cfg.Logger.Debug("check", "stage", stage, "status", res.Status, "elapsed", elapsed)
	return res
}
