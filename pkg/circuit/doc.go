// Package circuit provides the program IR consumed by the architecture
// search: logical qubits, an ordered list of one- and two-qubit gates, and
// the pairwise relations derived from them.
//
// # Gates
//
// A [Gate] is an ordered tuple of one or two logical qubit indices, a
// lower-case name and a duration in layers (zero means one layer). Gate
// order in [Circuit.Gates] is program order; every relation in this
// package is expressed in terms of those indices.
//
// # Relations
//
// [Collision] lists every pair of gates that share a qubit operand.
// [Dependency] lists only immediate reuse pairs: for each qubit, the gate
// that last touched it and the next gate to touch it. [PushForwardDepth]
// is a cheap lower bound on the schedule depth derived from the same
// per-qubit bookkeeping.
//
// When a caller supplies no explicit dependency list the search uses the
// full collision relation (see [DefaultDependencies]). That relation is a
// superset of the immediate-reuse relation; it is stronger than necessary
// and costs more constraints, but it is what the search has always done.
//
// # Loading
//
// [ParseQASM] reads the OpenQASM 2.0 subset the search needs (qreg, one-
// and two-qubit gate applications with optional parameters). Declarations
// that do not affect routing (creg, measure, barrier, reset) are skipped.
// [ReadJSON] reads a JSON IR that may also carry a duration map and an
// explicit dependency list.
package circuit
