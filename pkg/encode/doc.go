// Package encode turns a routing problem (circuit, device, dependency
// relation) and a depth bound into constraints over an [smt.System].
//
// # Variables
//
// For a bound D, with Q logical qubits, P physical qubits and E edges
// (base edges followed by candidates):
//
//	Pi[q][t]     bitvector, physical position of logical q at layer t
//	Space[l]     bitvector, qubit (1q gate) or edge index (2q gate) of gate l
//	Time[l]      bitvector, transition layer of gate l
//	Sigma[e][t]  SWAP on edge e completes at layer t
//	Used[c]      candidate c is used by some gate or SWAP
//
// Pi and Space are ⌈log2(max(E,P))⌉+1 bits wide, Time is ⌈log2(D)⌉+1 bits
// wide. Widths are recomputed for every bound.
//
// # Constraint families
//
// [New] asserts, permanently on the given system:
//
//  1. injective mapping per layer
//  2. gate/mapping consistency, and Time[l] < D
//  3. dependency ordering Time[g1] ≤ Time[g2]
//  4. no two SWAPs on incident edges in the same layer
//  5. mapping evolution through SWAPs, none completing at layer D-1
//  6. edge usage Used[c] ⇔ some gate or SWAP occupies candidate c
//  7. at most one used candidate per conflict set
//
// Families 6 and 7 are omitted under [WithoutEdgeUsage], which leaves every
// candidate available; the search uses that for its pre-processing pass.
//
// Queries that change between solver calls (depth bounds, SWAP and edge
// budgets) are returned as terms for the caller to assume or assert in a
// scope.
package encode
