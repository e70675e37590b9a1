package smt

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-air/gini"
	"github.com/go-air/gini/logic"
	"github.com/go-air/gini/z"
)

// DefaultPollInterval is how often a running check looks at its deadline
// and context.
const DefaultPollInterval = 5 * time.Millisecond

// Option configures a gini-backed System.
type Option func(*Gini)

// WithTimeout bounds every Check. Zero means no limit.
func WithTimeout(d time.Duration) Option {
	return func(s *Gini) { s.timeout = d }
}

// WithPollInterval overrides [DefaultPollInterval].
func WithPollInterval(d time.Duration) Option {
	return func(s *Gini) {
		if d > 0 {
			s.poll = d
		}
	}
}

// Gini is a [System] backed by github.com/go-air/gini.
type Gini struct {
	g     *gini.Gini
	c     *logic.C
	marks []int8

	scopes []scope
	cards  map[string]*logic.CardSort

	timeout time.Duration
	poll    time.Duration
	stats   Stats
}

type scope struct {
	act  z.Lit
	used bool
}

var _ System = (*Gini)(nil)

// NewGini returns an empty constraint system.
func NewGini(opts ...Option) *Gini {
	s := &Gini{
		g:     gini.New(),
		c:     logic.NewCCap(1 << 12),
		cards: map[string]*logic.CardSort{},
		poll:  DefaultPollInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.encode(s.c.T)
	return s
}

// ============================================================================
// Terms
// ============================================================================

func (s *Gini) True() Bool  { return Bool(s.c.T) }
func (s *Gini) False() Bool { return Bool(s.c.F) }

func (s *Gini) NewBool() Bool { return Bool(s.c.Lit()) }

func (s *Gini) NewBitVec(width int) BitVec {
	v := make(BitVec, width)
	for i := range v {
		v[i] = s.NewBool()
	}
	return v
}

func (s *Gini) Not(a Bool) Bool { return Bool(z.Lit(a).Not()) }

func (s *Gini) And(xs ...Bool) Bool { return Bool(s.c.Ands(lits(xs)...)) }

func (s *Gini) Or(xs ...Bool) Bool { return Bool(s.c.Ors(lits(xs)...)) }

func (s *Gini) Implies(a, b Bool) Bool { return Bool(s.c.Implies(z.Lit(a), z.Lit(b))) }

func (s *Gini) Iff(a, b Bool) Bool { return Bool(s.c.Xor(z.Lit(a), z.Lit(b)).Not()) }

// AtMostK builds one sorting network per distinct literal set and reads
// every bound off it.
func (s *Gini) AtMostK(xs []Bool, k int) Bool {
	if k < 0 {
		return s.False()
	}
	if k >= len(xs) {
		return s.True()
	}
	key := cardKey(xs)
	cs, ok := s.cards[key]
	if !ok {
		cs = s.c.CardSort(lits(xs))
		s.cards[key] = cs
	}
	return Bool(cs.Leq(k))
}

func cardKey(xs []Bool) string {
	var b strings.Builder
	for _, x := range xs {
		fmt.Fprintf(&b, "%d,", x)
	}
	return b.String()
}

func lits(xs []Bool) []z.Lit {
	out := make([]z.Lit, len(xs))
	for i, x := range xs {
		out[i] = z.Lit(x)
	}
	return out
}

// ============================================================================
// Assertions and scopes
// ============================================================================

// Assert implements [System].
func (s *Gini) Assert(fs ...Bool) {
	for _, f := range fs {
		m := z.Lit(f)
		if m == s.c.T {
			continue
		}
		s.encode(m)
		if len(s.scopes) == 0 {
			s.clause(m)
			continue
		}
		top := &s.scopes[len(s.scopes)-1]
		top.used = true
		s.clause(top.act.Not(), m)
	}
}

// Push implements [System].
func (s *Gini) Push() {
	s.scopes = append(s.scopes, scope{act: s.c.Lit()})
}

// Pop implements [System].
func (s *Gini) Pop() error {
	if len(s.scopes) == 0 {
		return ErrNoScope
	}
	top := s.scopes[len(s.scopes)-1]
	s.scopes = s.scopes[:len(s.scopes)-1]
	if top.used {
		s.clause(top.act.Not())
	}
	return nil
}

// Depth implements [System].
func (s *Gini) Depth() int { return len(s.scopes) }

// encode adds the Tseitin definitions of every node reachable from roots
// that has not been encoded yet.
func (s *Gini) encode(roots ...z.Lit) {
	s.marks, _ = s.c.CnfSince(adder{s}, s.marks, roots...)
}

// adder streams circuit definitions into the solver and counts clauses.
type adder struct{ s *Gini }

func (a adder) Add(m z.Lit) {
	if m == z.LitNull {
		a.s.stats.Clauses++
	}
	a.s.g.Add(m)
}

func (s *Gini) clause(ms ...z.Lit) {
	a := adder{s}
	for _, m := range ms {
		a.Add(m)
	}
	a.Add(z.LitNull)
}

// ============================================================================
// Checking
// ============================================================================

// Check implements [System]. The solve runs in gini's background goroutine
// and is stopped when the timeout expires or ctx is done; both cases yield
// Unknown.
func (s *Gini) Check(ctx context.Context, assumptions ...Bool) Result {
	s.stats.Checks++

	assume := make([]z.Lit, 0, len(s.scopes)+len(assumptions))
	for _, sc := range s.scopes {
		if sc.used {
			assume = append(assume, sc.act)
		}
	}
	for _, a := range assumptions {
		m := z.Lit(a)
		s.encode(m)
		assume = append(assume, m)
	}

	if ctx.Err() != nil {
		s.stats.Unknown++
		return Result{Status: Unknown}
	}
	s.g.Assume(assume...)
	res := s.solve(ctx)

	switch res {
	case 1:
		s.stats.Sat++
		return Result{Status: Sat, Model: giniModel{s}}
	case -1:
		s.stats.Unsat++
		return Result{Status: Unsat}
	default:
		s.stats.Unknown++
		return Result{Status: Unknown}
	}
}

func (s *Gini) solve(ctx context.Context) int {
	if s.timeout <= 0 && ctx.Done() == nil {
		return s.g.Solve()
	}

	var deadline <-chan time.Time
	if s.timeout > 0 {
		timer := time.NewTimer(s.timeout)
		defer timer.Stop()
		deadline = timer.C
	}
	ticker := time.NewTicker(s.poll)
	defer ticker.Stop()

	solve := s.g.GoSolve()
	for {
		if res, done := solve.Test(); done {
			return res
		}
		select {
		case <-ctx.Done():
			return solve.Stop()
		case <-deadline:
			return solve.Stop()
		case <-ticker.C:
		}
	}
}

// Stats implements [System].
func (s *Gini) Stats() Stats {
	st := s.stats
	st.Vars = int(s.g.MaxVar())
	return st
}

type giniModel struct{ s *Gini }

func (m giniModel) Bool(b Bool) bool {
	l := z.Lit(b)
	if l == m.s.c.T {
		return true
	}
	if l == m.s.c.F {
		return false
	}
	// Variables the solver never saw are unconstrained; read them as false.
	if l.Var() > m.s.g.MaxVar() {
		return !l.IsPos()
	}
	return m.s.g.Value(l)
}

func (m giniModel) Uint(v BitVec) uint64 {
	var out uint64
	for i, b := range v {
		if m.Bool(b) {
			out |= 1 << uint(i)
		}
	}
	return out
}
