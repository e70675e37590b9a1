// Package schedule turns a solver solution into a physical schedule.
//
// Solver layers are transitions: gates sharing a transition layer run on
// the mapping of that layer, then the SWAPs of the layer move qubits to the
// next mapping. [Compact] replays those blocks in order against
// per-physical-qubit counters so every operation starts as early as its
// operands (and dependency predecessors) allow.
//
// Layer 0 of a compacted schedule is the placement layer holding the
// initial mapping; operations occupy layers 1 and up, so the reported depth
// D counts the placement layer. Inserted SWAPs are named [SwapName]; input
// gate names are always lower case, so they never collide.
//
// [Replay] recomputes the final mapping from a schedule and [Verify] checks
// a result against its circuit and device.
package schedule
