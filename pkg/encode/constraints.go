package encode

import "github.com/matzehuels/qarchsearch/pkg/smt"

// injectiveMapping: every logical qubit sits on a real physical qubit and
// no two share one.
func (enc *Encoding) injectiveMapping() {
	s := enc.sys
	phys := enc.p.Device.Qubits
	for t := 0; t < enc.Depth; t++ {
		for q := range enc.Pi {
			s.Assert(s.ULTConst(enc.Pi[q][t], phys))
			for r := q + 1; r < len(enc.Pi); r++ {
				s.Assert(s.Not(s.Eq(enc.Pi[q][t], enc.Pi[r][t])))
			}
		}
	}
}

// gateConsistency ties each gate to the mapping at its layer: a one-qubit
// gate sits on its operand's position, a two-qubit gate on an edge whose
// endpoints hold both operands.
func (enc *Encoding) gateConsistency() {
	s := enc.sys
	for l, g := range enc.p.Circuit.Gates {
		s.Assert(s.ULTConst(enc.Time[l], enc.Depth))

		if !g.IsTwoQubit() {
			q := g.Qubits[0]
			for t := 0; t < enc.Depth; t++ {
				s.Assert(s.Implies(enc.at(l, t), s.Eq(enc.Pi[q][t], enc.Space[l])))
			}
			continue
		}

		s.Assert(s.ULTConst(enc.Space[l], len(enc.edges)))
		q0, q1 := g.Qubits[0], g.Qubits[1]
		for t := 0; t < enc.Depth; t++ {
			at := enc.at(l, t)
			for k, e := range enc.edges {
				on := s.And(at, s.EqConst(enc.Space[l], k))
				straight := s.And(s.EqConst(enc.Pi[q0][t], e.A), s.EqConst(enc.Pi[q1][t], e.B))
				flipped := s.And(s.EqConst(enc.Pi[q0][t], e.B), s.EqConst(enc.Pi[q1][t], e.A))
				s.Assert(s.Implies(on, s.Or(straight, flipped)))
			}
		}
	}
}

// at reports that gate l executes at layer t.
func (enc *Encoding) at(l, t int) smt.Bool {
	return enc.sys.EqConst(enc.Time[l], t)
}

func (enc *Encoding) dependencyOrder() {
	s := enc.sys
	for _, d := range enc.p.Dependencies {
		s.Assert(s.ULE(enc.Time[d[0]], enc.Time[d[1]]))
	}
}

// swapExclusivity forbids two SWAPs on edges sharing an endpoint from
// completing in the same layer.
func (enc *Encoding) swapExclusivity() {
	s := enc.sys
	for t := 0; t < enc.Depth; t++ {
		for k, e := range enc.edges {
			for j := k + 1; j < len(enc.edges); j++ {
				if e.Overlaps(enc.edges[j]) {
					s.Assert(s.Or(s.Not(enc.Sigma[k][t]), s.Not(enc.Sigma[j][t])))
				}
			}
		}
	}
}

// mappingEvolution carries Pi from layer t to t+1: frozen unless a SWAP
// incident to the qubit's position completes at t, exchanged across the
// edge when one does. No SWAP completes at the last layer.
func (enc *Encoding) mappingEvolution() {
	s := enc.sys
	last := enc.Depth - 1
	for k := range enc.edges {
		s.Assert(s.Not(enc.Sigma[k][last]))
	}

	for t := 0; t < last; t++ {
		for q := range enc.Pi {
			cur, next := enc.Pi[q][t], enc.Pi[q][t+1]
			for k, e := range enc.edges {
				swap := enc.Sigma[k][t]
				s.Assert(s.Implies(s.And(swap, s.EqConst(cur, e.A)), s.EqConst(next, e.B)))
				s.Assert(s.Implies(s.And(swap, s.EqConst(cur, e.B)), s.EqConst(next, e.A)))
			}
			for p, edges := range enc.incident {
				quiet := make([]smt.Bool, 0, len(edges)+1)
				quiet = append(quiet, s.EqConst(cur, p))
				for _, k := range edges {
					quiet = append(quiet, s.Not(enc.Sigma[k][t]))
				}
				s.Assert(s.Implies(s.And(quiet...), s.Eq(next, cur)))
			}
		}
	}
}

// edgeUsage defines Used[c] as "some two-qubit gate runs on candidate c or
// some SWAP completes on it".
func (enc *Encoding) edgeUsage() {
	s := enc.sys
	base := len(enc.p.Device.Edges)
	for c := range enc.Used {
		k := base + c
		var uses []smt.Bool
		for l, g := range enc.p.Circuit.Gates {
			if g.IsTwoQubit() {
				uses = append(uses, s.EqConst(enc.Space[l], k))
			}
		}
		uses = append(uses, enc.Sigma[k]...)
		s.Assert(s.Iff(enc.Used[c], s.Or(uses...)))
	}
}

func (enc *Encoding) conflictExclusivity() {
	s := enc.sys
	for _, set := range enc.p.Device.ConflictIndices() {
		switch len(set) {
		case 0, 1:
		case 2:
			s.Assert(s.Or(s.Not(enc.Used[set[0]]), s.Not(enc.Used[set[1]])))
		default:
			used := make([]smt.Bool, len(set))
			for i, c := range set {
				used[i] = enc.Used[c]
			}
			s.Assert(s.AtMostK(used, 1))
		}
	}
}
