// Package smt is the constraint layer of the architecture search: Boolean
// and fixed-width unsigned bitvector terms, incremental assertion scopes,
// cardinality constraints and checked queries with a tri-state outcome.
//
// # Backend
//
// [NewGini] returns a [System] backed by the gini SAT solver. Terms are
// built as an and-inverter graph (github.com/go-air/gini/logic) and
// Tseitin-encoded into the solver on demand, so only the cone of asserted
// or assumed terms ever reaches the clause database. Bitvectors are
// bit-blasted, least significant bit first. Cardinality constraints use
// sorting networks and are shared between identical literal sets.
//
// # Scopes
//
// [System.Push] opens a scope guarded by a fresh activation literal. Terms
// asserted inside the scope are added as clauses (¬act ∨ f); [System.Check]
// assumes the activation literals of all open scopes, and [System.Pop]
// retires the scope by asserting ¬act permanently. Learned clauses survive
// a pop, which is what makes repeated budget/depth/swap queries cheap.
//
// # Outcomes
//
// [System.Check] returns a [Result] whose Status is [Sat], [Unsat] or
// [Unknown]. Unknown is produced when the per-check timeout expires or the
// context is cancelled; callers must never treat it as Unsat. The [Model]
// of a Sat result reads live solver state and is valid only until the next
// Check.
package smt
