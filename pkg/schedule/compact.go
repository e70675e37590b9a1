package schedule

import (
	"github.com/matzehuels/qarchsearch/pkg/circuit"
	"github.com/matzehuels/qarchsearch/pkg/device"
	"github.com/matzehuels/qarchsearch/pkg/encode"
	"github.com/matzehuels/qarchsearch/pkg/errors"
)

// Options configures [Compact].
type Options struct {
	Benchmark string
	// SwapDuration is the number of layers an inserted SWAP occupies.
	// Zero means one.
	SwapDuration int
}

type placed struct {
	name   string
	qubits []int
	start  int
}

// Compact builds the physical schedule of sol.
func Compact(c *circuit.Circuit, dev *device.Device, deps []circuit.Pair, sol *encode.Solution, opts Options) (*TopologyResult, error) {
	if err := checkSolution(c, dev, sol); err != nil {
		return nil, err
	}
	swapLayers := max(opts.SwapDuration, 1)
	edges := dev.AllEdges()

	preds := make([][]int, len(c.Gates))
	for _, d := range deps {
		preds[d[1]] = append(preds[d[1]], d[0])
	}

	counters := make([]int, dev.Qubits)
	layerOf := make([]int, len(c.Gates))
	var ops []placed
	finish := 0

	place := func(name string, qubits []int, layers int, after int) int {
		start := after
		for _, p := range qubits {
			start = max(start, counters[p]+1)
		}
		end := start + layers - 1
		for _, p := range qubits {
			counters[p] = end
		}
		finish = max(finish, end)
		ops = append(ops, placed{name: name, qubits: qubits, start: start})
		return start
	}

	for t := 0; t <= sol.Tight; t++ {
		mapping := sol.Mapping[t]
		for l, g := range c.Gates {
			if sol.Time[l] != t {
				continue
			}
			qubits := make([]int, len(g.Qubits))
			for i, q := range g.Qubits {
				qubits[i] = mapping[q]
			}
			after := 1
			for _, p := range preds[l] {
				after = max(after, layerOf[p])
			}
			layerOf[l] = place(g.Name, qubits, g.Layers(), after)
		}
		for _, sw := range sol.Swaps {
			if sw.Layer != t {
				continue
			}
			e := edges[sw.Edge]
			place(SwapName, []int{e.A, e.B}, swapLayers, 1)
		}
	}

	depth := finish + 1
	r := &TopologyResult{
		Arch:           dev.Name,
		M:              c.Qubits,
		D:              depth,
		Benchmark:      opts.Benchmark,
		Gates:          make([][]string, depth),
		GateSpec:       make([][][]int, depth),
		InitialMapping: append([]int(nil), sol.Mapping[0]...),
		FinalMapping:   append([]int(nil), sol.Mapping[sol.Tight]...),
		SwapCount:      sol.SwapCount(),
		Proven:         true,
	}
	for layer := range r.Gates {
		r.Gates[layer] = []string{}
		r.GateSpec[layer] = [][]int{}
	}
	for _, op := range ops {
		r.Gates[op.start] = append(r.Gates[op.start], op.name)
		r.GateSpec[op.start] = append(r.GateSpec[op.start], op.qubits)
	}

	single, double := c.Counts()
	r.G1 = single
	r.G2 = double + r.SwapCount

	r.ExtraEdge = make([]device.Edge, 0, len(sol.UsedCandidates))
	for _, ci := range sol.UsedCandidates {
		r.ExtraEdge = append(r.ExtraEdge, dev.Candidates[ci])
	}
	r.ExtraEdgeNum = len(r.ExtraEdge)
	return r, nil
}

// checkSolution guards the index arithmetic of Compact against a solution
// that does not belong to c and dev.
func checkSolution(c *circuit.Circuit, dev *device.Device, sol *encode.Solution) error {
	bad := func(format string, args ...any) error {
		return errors.New(errors.ErrCodeInternal, "solution does not match problem: "+format, args...)
	}
	if sol == nil || sol.Tight < 0 || len(sol.Mapping) != sol.Tight+1 {
		return bad("missing mapping layers")
	}
	if len(sol.Time) != len(c.Gates) || len(sol.Space) != len(c.Gates) {
		return bad("%d gate times for %d gates", len(sol.Time), len(c.Gates))
	}
	for t, m := range sol.Mapping {
		if len(m) != c.Qubits {
			return bad("layer %d maps %d qubits, want %d", t, len(m), c.Qubits)
		}
		for _, p := range m {
			if p < 0 || p >= dev.Qubits {
				return bad("layer %d maps to physical qubit %d", t, p)
			}
		}
	}
	for l, t := range sol.Time {
		if t < 0 || t > sol.Tight {
			return bad("gate %d at layer %d outside [0,%d]", l, t, sol.Tight)
		}
	}
	for _, sw := range sol.Swaps {
		if sw.Edge < 0 || sw.Edge >= dev.EdgeCount() || sw.Layer < 0 || sw.Layer > sol.Tight {
			return bad("swap %+v out of range", sw)
		}
	}
	for _, ci := range sol.UsedCandidates {
		if ci < 0 || ci >= len(dev.Candidates) {
			return bad("candidate %d out of range", ci)
		}
	}
	return nil
}
