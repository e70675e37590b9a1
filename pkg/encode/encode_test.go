package encode

import (
	"context"
	"testing"

	"github.com/matzehuels/qarchsearch/pkg/circuit"
	"github.com/matzehuels/qarchsearch/pkg/device"
	"github.com/matzehuels/qarchsearch/pkg/errors"
	"github.com/matzehuels/qarchsearch/pkg/smt"
)

func problem(t *testing.T, dev *device.Device, qubits int, gates [][]int) Problem {
	t.Helper()
	c, err := circuit.New(qubits, gates, nil)
	if err != nil {
		t.Fatal(err)
	}
	p := Problem{Circuit: c, Device: dev, Dependencies: circuit.DefaultDependencies(c.Gates)}
	if err := p.Validate(); err != nil {
		t.Fatal(err)
	}
	return p
}

func build(t *testing.T, p Problem, depth int, opts ...Option) (*smt.Gini, *Encoding) {
	t.Helper()
	sys := smt.NewGini()
	enc, err := New(sys, p, depth, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return sys, enc
}

func status(sys smt.System, assumptions ...smt.Bool) smt.Status {
	return sys.Check(context.Background(), assumptions...).Status
}

func TestWidth(t *testing.T) {
	tests := []struct{ n, want int }{
		{0, 1}, {1, 1}, {2, 2}, {3, 3}, {4, 3}, {5, 4}, {8, 4}, {9, 5}, {24, 6},
	}
	for _, tt := range tests {
		if got := Width(tt.n); got != tt.want {
			t.Errorf("Width(%d) = %d, want %d", tt.n, got, tt.want)
		}
	}
}

// triangle needs all three pairs of a 3-qubit line to interact.
var triangle = [][]int{{0, 1}, {1, 2}, {0, 2}}

func TestScenarioFitsLine(t *testing.T) {
	p := problem(t, device.Line(3), 3, [][]int{{2}, {1, 2}, {2}, {0, 1}})
	sys, enc := build(t, p, 4)

	if st := status(sys, append(enc.DepthBound(0), enc.SwapBound(0))...); st != smt.Sat {
		t.Fatalf("depth 0 without swaps: %v, want sat", st)
	}
	enc.LockDepth(0)
	res := sys.Check(context.Background(), enc.SwapBound(0))
	if res.Status != smt.Sat {
		t.Fatalf("locked: %v", res.Status)
	}
	sol := enc.Snapshot(res.Model, 0)
	checkSolution(t, p, enc, sol)
	if sol.SwapCount() != 0 || len(sol.UsedCandidates) != 0 {
		t.Errorf("swaps=%d used=%v", sol.SwapCount(), sol.UsedCandidates)
	}
}

func TestTriangleNeedsSwapOnLine(t *testing.T) {
	p := problem(t, device.Line(3), 3, triangle)
	sys, enc := build(t, p, 4)

	for tight := 0; tight < 4; tight++ {
		if st := status(sys, append(enc.DepthBound(tight), enc.SwapBound(0))...); st != smt.Unsat {
			t.Errorf("tight=%d without swaps: %v, want unsat", tight, st)
		}
	}
	if st := status(sys, append(enc.DepthBound(0), enc.SwapBound(1))...); st != smt.Unsat {
		t.Errorf("tight=0 with one swap: %v, want unsat", st)
	}

	sys.Push()
	enc.LockDepth(1)
	res := sys.Check(context.Background(), enc.SwapBound(1))
	if res.Status != smt.Sat {
		t.Fatalf("tight=1 with one swap: %v, want sat", res.Status)
	}
	sol := enc.Snapshot(res.Model, 1)
	checkSolution(t, p, enc, sol)
	if sol.SwapCount() != 1 {
		t.Errorf("SwapCount = %d, want 1", sol.SwapCount())
	}
	if err := sys.Pop(); err != nil {
		t.Fatal(err)
	}
}

func TestCandidateEdgeRemovesSwap(t *testing.T) {
	dev := device.Line(3)
	dev.Candidates = []device.Edge{{A: 0, B: 2}}
	p := problem(t, dev, 3, triangle)
	sys, enc := build(t, p, 4)

	if st := status(sys, append(enc.DepthBound(2), enc.SwapBound(0), enc.EdgeBudget(0))...); st != smt.Unsat {
		t.Errorf("budget 0: %v, want unsat", st)
	}
	res := sys.Check(context.Background(), append(enc.DepthBound(2), enc.SwapBound(0), enc.EdgeBudget(1))...)
	if res.Status != smt.Sat {
		t.Fatalf("budget 1: %v, want sat", res.Status)
	}
	sol := enc.Snapshot(res.Model, 2)
	checkSolution(t, p, enc, sol)
	if len(sol.UsedCandidates) != 1 || sol.UsedCandidates[0] != 0 {
		t.Errorf("UsedCandidates = %v, want [0]", sol.UsedCandidates)
	}
	if !res.Model.Bool(enc.Used[0]) {
		t.Error("Used[0] false although the candidate carries a gate")
	}
}

func TestConflictExclusivity(t *testing.T) {
	triple := device.Line(4)
	triple.Candidates = []device.Edge{{A: 0, B: 2}, {A: 1, B: 3}, {A: 0, B: 3}}
	triple.Conflicts = [][]device.Edge{{{A: 0, B: 2}, {A: 1, B: 3}, {A: 0, B: 3}}}
	pair := device.Line(4)
	pair.Candidates = []device.Edge{{A: 0, B: 2}, {A: 1, B: 3}}
	pair.Conflicts = [][]device.Edge{{{A: 0, B: 2}, {A: 1, B: 3}}}

	for _, dev := range []*device.Device{triple, pair} {
		p := problem(t, dev, 2, [][]int{{0, 1}})
		sys, enc := build(t, p, 3)
		if st := status(sys, enc.Used[0]); st != smt.Sat {
			t.Errorf("%d candidates, one used: %v, want sat", len(dev.Candidates), st)
		}
		if st := status(sys, enc.Used[0], enc.Used[1]); st != smt.Unsat {
			t.Errorf("%d candidates, two used: %v, want unsat", len(dev.Candidates), st)
		}
	}
}

func TestWithoutEdgeUsage(t *testing.T) {
	dev := device.Line(3)
	dev.Candidates = []device.Edge{{A: 0, B: 2}}
	p := problem(t, dev, 3, triangle)
	sys, enc := build(t, p, 4, WithoutEdgeUsage())

	if enc.HasEdgeUsage() || enc.Used != nil {
		t.Fatal("edge usage declared")
	}
	if enc.EdgeBudget(0) != sys.True() {
		t.Error("EdgeBudget must be unconstrained")
	}
	if st := status(sys, append(enc.DepthBound(2), enc.SwapBound(0))...); st != smt.Sat {
		t.Errorf("all candidates available: %v, want sat", st)
	}
}

func TestNoSwapAtLastLayer(t *testing.T) {
	p := problem(t, device.Line(3), 3, triangle)
	sys, enc := build(t, p, 2)
	// With two layers the only SWAP slot is layer 0, and the gates then
	// need layers 0 and 1; a SWAP at layer 1 would be useless and is
	// forbidden.
	last := make([]smt.Bool, 0, len(enc.Sigma))
	for k := range enc.Sigma {
		last = append(last, enc.Sigma[k][1])
	}
	if st := status(sys, sys.Or(last...)); st != smt.Unsat {
		t.Errorf("swap at last layer: %v, want unsat", st)
	}
}

func TestNewErrors(t *testing.T) {
	p := problem(t, device.Line(2), 2, [][]int{{0, 1}})
	if _, err := New(smt.NewGini(), p, 0); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("depth 0: err = %v", err)
	}
	if _, err := New(smt.NewGini(), p, 1<<62); !errors.Is(err, errors.ErrCodeBitwidthOverflow) {
		t.Errorf("huge depth: err = %v", err)
	}
}

func TestProblemValidate(t *testing.T) {
	c, err := circuit.New(3, [][]int{{0, 1}, {1, 2}}, nil)
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name string
		p    Problem
		code errors.Code
	}{
		{"no device", Problem{Circuit: c}, errors.ErrCodeInvalidDevice},
		{"too small", Problem{Circuit: c, Device: device.Line(2)}, errors.ErrCodeInvalidDevice},
		{"bad device", Problem{Circuit: c, Device: &device.Device{Qubits: 3, Edges: []device.Edge{{A: 0, B: 0}}}}, errors.ErrCodeInvalidDevice},
		{"bad dependency", Problem{Circuit: c, Device: device.Line(3), Dependencies: []circuit.Pair{{1, 0}}}, errors.ErrCodeInvalidDependency},
		{"bad circuit", Problem{Circuit: &circuit.Circuit{}, Device: device.Line(3)}, errors.ErrCodeInvalidCircuit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errors.GetCode(tt.p.Validate()); got != tt.code {
				t.Errorf("code = %q, want %q", got, tt.code)
			}
		})
	}
}

// checkSolution verifies the properties every extracted solution must
// have: injective mappings, gates on their operands' positions, SWAPs that
// exchange exactly their endpoints, and dependency order.
func checkSolution(t *testing.T, p Problem, enc *Encoding, sol *Solution) {
	t.Helper()
	edges := enc.Edges()

	for layer, m := range sol.Mapping {
		seen := map[int]bool{}
		for q, phys := range m {
			if phys < 0 || phys >= p.Device.Qubits || seen[phys] {
				t.Fatalf("layer %d: mapping %v not injective at q%d", layer, m, q)
			}
			seen[phys] = true
		}
	}

	for l, g := range p.Circuit.Gates {
		layer := sol.Time[l]
		if layer > sol.Tight {
			t.Fatalf("gate %d at layer %d beyond %d", l, layer, sol.Tight)
		}
		m := sol.Mapping[layer]
		if !g.IsTwoQubit() {
			if sol.Space[l] != m[g.Qubits[0]] {
				t.Errorf("gate %d on p%d, operand at p%d", l, sol.Space[l], m[g.Qubits[0]])
			}
			continue
		}
		e := edges[sol.Space[l]]
		a, b := m[g.Qubits[0]], m[g.Qubits[1]]
		if (device.Edge{A: a, B: b}).Normalize() != e.Normalize() {
			t.Errorf("gate %d on %v, operands at (%d,%d)", l, e, a, b)
		}
	}

	for layer := 0; layer < sol.Tight; layer++ {
		want := append([]int(nil), sol.Mapping[layer]...)
		for _, sw := range sol.Swaps {
			if sw.Layer != layer {
				continue
			}
			e := edges[sw.Edge]
			for q, phys := range want {
				switch phys {
				case e.A:
					want[q] = e.B
				case e.B:
					want[q] = e.A
				}
			}
		}
		for q := range want {
			if want[q] != sol.Mapping[layer+1][q] {
				t.Fatalf("layer %d->%d: mapping %v, want %v", layer, layer+1, sol.Mapping[layer+1], want)
			}
		}
	}

	for _, d := range p.Dependencies {
		if sol.Time[d[0]] > sol.Time[d[1]] {
			t.Errorf("dependency %v violated: %d > %d", d, sol.Time[d[0]], sol.Time[d[1]])
		}
	}
}
