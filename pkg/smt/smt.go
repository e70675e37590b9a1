package smt

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-air/gini/z"
)

// Bool is a propositional term.
type Bool z.Lit

// BitVec is a fixed-width unsigned bitvector, least significant bit first.
type BitVec []Bool

// Width returns the number of bits in v.
func (v BitVec) Width() int { return len(v) }

// Status is the outcome of a checked query.
type Status int

const (
	Unknown Status = iota
	Sat
	Unsat
)

func (s Status) String() string {
	switch s {
	case Sat:
		return "sat"
	case Unsat:
		return "unsat"
	default:
		return "unknown"
	}
}

// Model gives read access to a satisfying assignment.
type Model interface {
	Bool(b Bool) bool
	Uint(v BitVec) uint64
}

// Result is the tagged outcome of [System.Check]. Model is non-nil only
// when Status is Sat.
type Result struct {
	Status Status
	Model  Model
}

// Builder constructs terms. Construction never fails and never touches the
// solver; terms are hash-consed, so building the same term twice yields the
// same value.
type Builder interface {
	True() Bool
	False() Bool
	NewBool() Bool
	NewBitVec(width int) BitVec

	Not(a Bool) Bool
	And(xs ...Bool) Bool
	Or(xs ...Bool) Bool
	Implies(a, b Bool) Bool
	Iff(a, b Bool) Bool

	// Eq reports x = y. Operands of different widths are zero-extended.
	Eq(x, y BitVec) Bool
	// ULT reports x < y, unsigned.
	ULT(x, y BitVec) Bool
	// ULE reports x ≤ y, unsigned.
	ULE(x, y BitVec) Bool
	// EqConst reports x = c. It is constant false when c does not fit.
	EqConst(x BitVec, c int) Bool
	// ULTConst reports x < c.
	ULTConst(x BitVec, c int) Bool
	// ULEConst reports x ≤ c.
	ULEConst(x BitVec, c int) Bool

	// AtMostK reports that at most k of xs are true.
	AtMostK(xs []Bool, k int) Bool
}

// System is an incremental constraint system.
type System interface {
	Builder

	// Assert adds fs to the innermost open scope, or permanently when no
	// scope is open.
	Assert(fs ...Bool)
	// Push opens a new assertion scope.
	Push()
	// Pop discards the innermost scope and everything asserted in it.
	Pop() error
	// Depth returns the number of open scopes.
	Depth() int
	// Check decides the conjunction of all live assertions and
	// assumptions. Assumptions hold for this call only.
	Check(ctx context.Context, assumptions ...Bool) Result
	// Stats returns solver counters.
	Stats() Stats
}

// Stats counts work done by a [System].
type Stats struct {
	Vars    int // highest solver variable in use
	Clauses int // clauses added, including definitions
	Checks  int
	Sat     int
	Unsat   int
	Unknown int
}

func (s Stats) String() string {
	return fmt.Sprintf("vars=%d clauses=%d checks=%d (sat=%d unsat=%d unknown=%d)",
		s.Vars, s.Clauses, s.Checks, s.Sat, s.Unsat, s.Unknown)
}

// ErrNoScope is returned by Pop when no scope is open.
var ErrNoScope = errors.New("smt: pop without matching push")
