package encode

import (
	"github.com/matzehuels/qarchsearch/pkg/device"
	"github.com/matzehuels/qarchsearch/pkg/smt"
)

// DepthBound returns, per gate, the term Time[l] ≤ tight. The search
// assumes them for a single check rather than asserting them.
func (enc *Encoding) DepthBound(tight int) []smt.Bool {
	out := make([]smt.Bool, len(enc.Time))
	for l, v := range enc.Time {
		out[l] = enc.sys.ULEConst(v, tight)
	}
	return out
}

// LockDepth asserts the depth bound in the current scope and forbids SWAPs
// completing at or after tight, where they could not affect any gate.
func (enc *Encoding) LockDepth(tight int) {
	s := enc.sys
	s.Assert(enc.DepthBound(tight)...)
	for k := range enc.Sigma {
		for t := max(tight, 0); t < enc.Depth; t++ {
			s.Assert(s.Not(enc.Sigma[k][t]))
		}
	}
}

// Swaps returns all SWAP variables, edge-major.
func (enc *Encoding) Swaps() []smt.Bool {
	out := make([]smt.Bool, 0, len(enc.Sigma)*enc.Depth)
	for _, row := range enc.Sigma {
		out = append(out, row...)
	}
	return out
}

// SwapBound returns the term "at most k SWAPs".
func (enc *Encoding) SwapBound(k int) smt.Bool {
	return enc.sys.AtMostK(enc.Swaps(), k)
}

// EdgeBudget returns the term "at most k candidate edges used". Without
// edge usage it is constant true.
func (enc *Encoding) EdgeBudget(k int) smt.Bool {
	if enc.Used == nil {
		return enc.sys.True()
	}
	return enc.sys.AtMostK(enc.Used, k)
}

// HasEdgeUsage reports whether families 6 and 7 were asserted.
func (enc *Encoding) HasEdgeUsage() bool { return enc.Used != nil }

// Edges returns the edge index space (base edges, then candidates).
func (enc *Encoding) Edges() []device.Edge { return enc.edges }

// Swap is a SWAP completing on edge index Edge at transition layer Layer.
type Swap struct {
	Edge  int
	Layer int
}

// Solution is a solver model copied out of the system, so it stays valid
// after the next check.
type Solution struct {
	// Tight is the largest transition layer in use.
	Tight int
	Time  []int
	Space []int
	// Mapping[t][q] is the physical qubit of logical q at layer t, for
	// t in [0, Tight].
	Mapping [][]int
	// Swaps are ordered by layer, then edge index.
	Swaps []Swap
	// UsedCandidates lists candidate positions occupied by a gate or SWAP,
	// ascending.
	UsedCandidates []int
}

// SwapCount returns the number of SWAPs in the solution.
func (s *Solution) SwapCount() int { return len(s.Swaps) }

// Snapshot reads the model for a schedule whose gates all run at or before
// layer tight.
func (enc *Encoding) Snapshot(m smt.Model, tight int) *Solution {
	tight = min(max(tight, 0), enc.Depth-1)
	sol := &Solution{
		Tight: tight,
		Time:  make([]int, len(enc.Time)),
		Space: make([]int, len(enc.Space)),
	}
	for l := range enc.Time {
		sol.Time[l] = int(m.Uint(enc.Time[l]))
		sol.Space[l] = int(m.Uint(enc.Space[l]))
	}

	sol.Mapping = make([][]int, tight+1)
	for t := range sol.Mapping {
		sol.Mapping[t] = make([]int, len(enc.Pi))
		for q := range enc.Pi {
			sol.Mapping[t][q] = int(m.Uint(enc.Pi[q][t]))
		}
	}

	base := len(enc.p.Device.Edges)
	used := make([]bool, len(enc.p.Device.Candidates))
	for t := 0; t < tight; t++ {
		for k := range enc.Sigma {
			if m.Bool(enc.Sigma[k][t]) {
				sol.Swaps = append(sol.Swaps, Swap{Edge: k, Layer: t})
				if k >= base {
					used[k-base] = true
				}
			}
		}
	}
	for l, g := range enc.p.Circuit.Gates {
		if g.IsTwoQubit() && sol.Space[l] >= base && sol.Space[l] < len(enc.edges) {
			used[sol.Space[l]-base] = true
		}
	}
	for c, u := range used {
		if u {
			sol.UsedCandidates = append(sol.UsedCandidates, c)
		}
	}
	return sol
}
