package circuit

// Collision returns every pair (g, g') with g < g' whose gates share at
// least one qubit operand. Pairs are emitted in lexicographic index order.
//
// Time complexity is O(G²) in the number of gates.
func Collision(gates []Gate) []Pair {
	var pairs []Pair
	for g := 0; g < len(gates); g++ {
		for h := g + 1; h < len(gates); h++ {
			if sharesQubit(gates[g], gates[h]) {
				pairs = append(pairs, Pair{g, h})
			}
		}
	}
	return pairs
}

// Dependency returns the immediate reuse relation: for every gate and every
// operand qubit that an earlier gate already touched, the pair
// (last gate on that qubit, current gate). Transitive pairs are not
// emitted. qubitCount bounds the operand indices.
//
// When a two-qubit gate follows another gate on both of its operands the
// pair is emitted once per operand, matching program order.
func Dependency(gates []Gate, qubitCount int) []Pair {
	last := make([]int, qubitCount)
	for i := range last {
		last[i] = -1
	}

	var pairs []Pair
	for l, g := range gates {
		for _, q := range g.Qubits {
			if last[q] >= 0 {
				pairs = append(pairs, Pair{last[q], l})
			}
			last[q] = l
		}
	}
	return pairs
}

// DefaultDependencies is the relation used when the caller supplies none:
// the full collision relation. It contains the immediate reuse relation
// and therefore orders the same gates, at the cost of O(G²) constraints.
func DefaultDependencies(gates []Gate) []Pair {
	return Collision(gates)
}

// PushForwardDepth returns a lower bound on the depth of any schedule of
// gates: each gate starts once all of its operands are free and keeps them
// busy for its duration. The result is the largest per-qubit finish time.
func PushForwardDepth(gates []Gate, qubitCount int) int {
	busy := make([]int, qubitCount)
	depth := 0
	for _, g := range gates {
		start := 0
		for _, q := range g.Qubits {
			start = max(start, busy[q])
		}
		finish := start + g.Layers()
		for _, q := range g.Qubits {
			busy[q] = finish
		}
		depth = max(depth, finish)
	}
	return depth
}

func sharesQubit(a, b Gate) bool {
	for _, p := range a.Qubits {
		for _, q := range b.Qubits {
			if p == q {
				return true
			}
		}
	}
	return false
}
