package schedule

import (
	"slices"

	"github.com/matzehuels/qarchsearch/pkg/circuit"
	"github.com/matzehuels/qarchsearch/pkg/device"
	"github.com/matzehuels/qarchsearch/pkg/errors"
)

// Replay applies the SWAPs of r, in layer order, to its initial mapping and
// returns the resulting logical→physical mapping. physical is the number of
// physical qubits of the device.
func Replay(r *TopologyResult, physical int) ([]int, error) {
	m, err := newMapping(r.InitialMapping, physical)
	if err != nil {
		return nil, err
	}
	for _, op := range r.Ops() {
		if op.Name != SwapName {
			continue
		}
		if err := m.swap(op); err != nil {
			return nil, err
		}
	}
	return m.logical, nil
}

// mapping tracks both directions of an injective placement.
type mapping struct {
	logical  []int // logical -> physical
	physical []int // physical -> logical, -1 when free
}

func newMapping(initial []int, physical int) (*mapping, error) {
	m := &mapping{logical: append([]int(nil), initial...), physical: make([]int, physical)}
	for p := range m.physical {
		m.physical[p] = -1
	}
	for q, p := range initial {
		if p < 0 || p >= physical {
			return nil, invalid("initial mapping places q%d on p%d outside [0,%d)", q, p, physical)
		}
		if m.physical[p] >= 0 {
			return nil, invalid("initial mapping places q%d and q%d on p%d", m.physical[p], q, p)
		}
		m.physical[p] = q
	}
	return m, nil
}

func (m *mapping) swap(op Op) error {
	if len(op.Qubits) != 2 {
		return invalid("layer %d: SWAP on %v", op.Layer, op.Qubits)
	}
	a, b := op.Qubits[0], op.Qubits[1]
	if a < 0 || b < 0 || a >= len(m.physical) || b >= len(m.physical) || a == b {
		return invalid("layer %d: SWAP on %v out of range", op.Layer, op.Qubits)
	}
	qa, qb := m.physical[a], m.physical[b]
	m.physical[a], m.physical[b] = qb, qa
	if qa >= 0 {
		m.logical[qa] = b
	}
	if qb >= 0 {
		m.logical[qb] = a
	}
	return nil
}

func invalid(format string, args ...any) error {
	return errors.New(errors.ErrCodeInvalidInput, "schedule: "+format, args...)
}

// Verify checks r against the circuit and device it claims to solve:
//   - the initial mapping is injective and the replayed final mapping
//     matches r.FinalMapping
//   - every circuit gate appears exactly once, on the current positions of
//     its logical operands
//   - two-qubit gates and SWAPs run on base edges or on listed extra edges,
//     which must be candidates, at most one per conflict set
//   - dependency predecessors never run after their successors
//   - D, g1, g2 and extra_edge_num agree with the schedule
func Verify(r *TopologyResult, c *circuit.Circuit, dev *device.Device, deps []circuit.Pair) error {
	if len(r.InitialMapping) != c.Qubits {
		return invalid("initial mapping has %d entries, circuit has %d qubits", len(r.InitialMapping), c.Qubits)
	}
	if r.D != len(r.Gates) || len(r.Gates) != len(r.GateSpec) {
		return invalid("D=%d but schedule has %d/%d layers", r.D, len(r.Gates), len(r.GateSpec))
	}
	for layer := range r.Gates {
		if len(r.Gates[layer]) != len(r.GateSpec[layer]) {
			return invalid("layer %d has %d names for %d operand lists", layer, len(r.Gates[layer]), len(r.GateSpec[layer]))
		}
	}
	if r.ExtraEdgeNum != len(r.ExtraEdge) {
		return invalid("extra_edge_num=%d but %d extra edges listed", r.ExtraEdgeNum, len(r.ExtraEdge))
	}

	allowed, err := allowedEdges(r, dev)
	if err != nil {
		return err
	}

	m, err := newMapping(r.InitialMapping, dev.Qubits)
	if err != nil {
		return err
	}

	layerOf := make([]int, len(c.Gates))
	for l := range layerOf {
		layerOf[l] = -1
	}
	swaps := 0
	busy := make([]int, dev.Qubits)
	for _, op := range r.Ops() {
		for _, p := range op.Qubits {
			if p < 0 || p >= dev.Qubits {
				return invalid("layer %d: %s on p%d outside device", op.Layer, op.Name, p)
			}
			if busy[p] >= op.Layer {
				return invalid("layer %d: p%d already busy", op.Layer, p)
			}
			busy[p] = op.Layer
		}
		if len(op.Qubits) == 2 && !allowed[device.Edge{A: op.Qubits[0], B: op.Qubits[1]}.Normalize()] {
			return invalid("layer %d: %s on (%d,%d), not a coupling", op.Layer, op.Name, op.Qubits[0], op.Qubits[1])
		}

		if op.Name == SwapName {
			if err := m.swap(op); err != nil {
				return err
			}
			swaps++
			continue
		}

		logical := make([]int, len(op.Qubits))
		for i, p := range op.Qubits {
			if logical[i] = m.physical[p]; logical[i] < 0 {
				return invalid("layer %d: %s on empty p%d", op.Layer, op.Name, p)
			}
		}
		l := matchGate(c, layerOf, op.Name, logical)
		if l < 0 {
			return invalid("layer %d: %s on logical %v matches no pending gate", op.Layer, op.Name, logical)
		}
		layerOf[l] = op.Layer
		// Multi-layer gates keep their qubits busy past the start layer.
		for _, p := range op.Qubits {
			busy[p] = op.Layer + c.Gates[l].Layers() - 1
		}
	}

	for l, layer := range layerOf {
		if layer < 0 {
			return invalid("gate %d (%s) is not scheduled", l, c.Gates[l].Name)
		}
	}
	for _, d := range deps {
		if layerOf[d[0]] > layerOf[d[1]] {
			return invalid("dependency (%d,%d) violated: layer %d after %d", d[0], d[1], layerOf[d[0]], layerOf[d[1]])
		}
	}
	if !slices.Equal(m.logical, r.FinalMapping) {
		return invalid("replayed final mapping %v, result says %v", m.logical, r.FinalMapping)
	}

	single, double := c.Counts()
	if r.G1 != single || r.G2 != double+swaps {
		return invalid("g1=%d g2=%d, schedule has %d and %d", r.G1, r.G2, single, double+swaps)
	}
	if r.M != c.Qubits {
		return invalid("M=%d, circuit has %d qubits", r.M, c.Qubits)
	}
	return nil
}

// matchGate returns the first unscheduled gate with the given name and
// logical operands, or -1. Gates sharing name and operands also share a
// qubit, so program order is schedule order among them.
func matchGate(c *circuit.Circuit, layerOf []int, name string, logical []int) int {
	for l, g := range c.Gates {
		if layerOf[l] >= 0 || g.Name != name || !slices.Equal(g.Qubits, logical) {
			continue
		}
		return l
	}
	return -1
}

func allowedEdges(r *TopologyResult, dev *device.Device) (map[device.Edge]bool, error) {
	allowed := map[device.Edge]bool{}
	for _, e := range dev.Edges {
		allowed[e.Normalize()] = true
	}
	candidates := map[device.Edge]bool{}
	for _, e := range dev.Candidates {
		candidates[e.Normalize()] = true
	}
	extra := map[device.Edge]bool{}
	for _, e := range r.ExtraEdge {
		if !candidates[e.Normalize()] {
			return nil, invalid("extra edge %s is not a candidate of %s", e, dev.Name)
		}
		extra[e.Normalize()] = true
		allowed[e.Normalize()] = true
	}
	for i, set := range dev.Conflicts {
		n := 0
		for _, e := range set {
			if extra[e.Normalize()] {
				n++
			}
		}
		if n > 1 {
			return nil, invalid("conflict set %d has %d enabled edges", i, n)
		}
	}
	return allowed, nil
}
