package schedule

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/matzehuels/qarchsearch/pkg/circuit"
	"github.com/matzehuels/qarchsearch/pkg/device"
	"github.com/matzehuels/qarchsearch/pkg/encode"
	"github.com/matzehuels/qarchsearch/pkg/errors"
)

func mustCircuit(t *testing.T, qubits int, gates [][]int, names []string) *circuit.Circuit {
	t.Helper()
	c, err := circuit.New(qubits, gates, names)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func scenario(t *testing.T) (*circuit.Circuit, *device.Device, *encode.Solution) {
	c := mustCircuit(t, 3, [][]int{{2}, {1, 2}, {2}, {0, 1}}, []string{"h", "cx", "tdg", "cx"})
	sol := &encode.Solution{
		Tight:   0,
		Time:    []int{0, 0, 0, 0},
		Space:   []int{2, 1, 2, 0},
		Mapping: [][]int{{0, 1, 2}},
	}
	return c, device.Line(3), sol
}

// triangle on a line needs one SWAP: CX(0,1) and CX(1,2) at layer 0, swap
// p0/p1, then CX(0,2) at layer 1.
func triangle(t *testing.T) (*circuit.Circuit, *device.Device, *encode.Solution) {
	c := mustCircuit(t, 3, [][]int{{0, 1}, {1, 2}, {0, 2}}, []string{"cx", "cx", "cx"})
	sol := &encode.Solution{
		Tight:   1,
		Time:    []int{0, 0, 1},
		Space:   []int{0, 1, 1},
		Mapping: [][]int{{0, 1, 2}, {1, 0, 2}},
		Swaps:   []encode.Swap{{Edge: 0, Layer: 0}},
	}
	return c, device.Line(3), sol
}

func TestCompactScenario(t *testing.T) {
	c, dev, sol := scenario(t)
	deps := circuit.DefaultDependencies(c.Gates)
	r, err := Compact(c, dev, deps, sol, Options{Benchmark: "scenario"})
	if err != nil {
		t.Fatalf("Compact: %v", err)
	}
	if r.D != 4 {
		t.Errorf("D = %d, want 4", r.D)
	}
	wantGates := [][]string{{}, {"h"}, {"cx"}, {"tdg", "cx"}}
	if !reflect.DeepEqual(r.Gates, wantGates) {
		t.Errorf("Gates = %v, want %v", r.Gates, wantGates)
	}
	wantSpec := [][][]int{{}, {{2}}, {{1, 2}}, {{2}, {0, 1}}}
	if !reflect.DeepEqual(r.GateSpec, wantSpec) {
		t.Errorf("GateSpec = %v, want %v", r.GateSpec, wantSpec)
	}
	if r.G1 != 2 || r.G2 != 2 || r.SwapCount != 0 || r.ExtraEdgeNum != 0 || r.M != 3 || r.Arch != "line3" {
		t.Errorf("result = %+v", r)
	}
	if err := Verify(r, c, dev, deps); err != nil {
		t.Errorf("Verify: %v", err)
	}
}

func TestCompactWithSwap(t *testing.T) {
	tests := []struct {
		name     string
		duration int
		depth    int
		swapAt   int
	}{
		{"unit swap", 0, 5, 3},
		{"long swap", 3, 7, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, dev, sol := triangle(t)
			deps := circuit.DefaultDependencies(c.Gates)
			r, err := Compact(c, dev, deps, sol, Options{SwapDuration: tt.duration})
			if err != nil {
				t.Fatalf("Compact: %v", err)
			}
			if r.D != tt.depth {
				t.Errorf("D = %d, want %d (gates %v)", r.D, tt.depth, r.Gates)
			}
			if !reflect.DeepEqual(r.Gates[tt.swapAt], []string{SwapName}) {
				t.Errorf("layer %d = %v, want the SWAP", tt.swapAt, r.Gates[tt.swapAt])
			}
			if r.G2 != 4 || r.SwapCount != 1 {
				t.Errorf("g2=%d swaps=%d", r.G2, r.SwapCount)
			}
			if !reflect.DeepEqual(r.FinalMapping, []int{1, 0, 2}) {
				t.Errorf("FinalMapping = %v", r.FinalMapping)
			}
			final, err := Replay(r, dev.Qubits)
			if err != nil || !reflect.DeepEqual(final, r.FinalMapping) {
				t.Errorf("Replay = %v, %v", final, err)
			}
			if err := Verify(r, c, dev, deps); err != nil {
				t.Errorf("Verify: %v", err)
			}
		})
	}
}

func TestCompactDurations(t *testing.T) {
	c, dev, sol := scenario(t)
	if err := c.ApplyDurations(map[string]int{"cx": 2}); err != nil {
		t.Fatal(err)
	}
	deps := circuit.DefaultDependencies(c.Gates)
	r, err := Compact(c, dev, deps, sol, Options{})
	if err != nil {
		t.Fatal(err)
	}
	// h@1, cx@2..3, tdg@4 and cx@4..5
	if r.D != 6 {
		t.Errorf("D = %d, want 6 (%v)", r.D, r.Gates)
	}
	if err := Verify(r, c, dev, deps); err != nil {
		t.Errorf("Verify: %v", err)
	}
}

func TestCompactExplicitDependency(t *testing.T) {
	c := mustCircuit(t, 4, [][]int{{0, 1}, {0, 1}, {2, 3}}, []string{"cx", "cx", "cz"})
	dev := device.Line(4)
	sol := &encode.Solution{
		Time:    []int{0, 0, 0},
		Space:   []int{0, 0, 2},
		Mapping: [][]int{{0, 1, 2, 3}},
	}
	deps := []circuit.Pair{{0, 1}, {1, 2}}
	r, err := Compact(c, dev, deps, sol, Options{})
	if err != nil {
		t.Fatal(err)
	}
	// cz shares no qubit with the second cx but may not precede it.
	if !reflect.DeepEqual(r.Gates, [][]string{{}, {"cx"}, {"cx", "cz"}}) {
		t.Errorf("Gates = %v", r.Gates)
	}
	if err := Verify(r, c, dev, deps); err != nil {
		t.Errorf("Verify: %v", err)
	}
}

func TestCompactCandidate(t *testing.T) {
	c := mustCircuit(t, 3, [][]int{{0, 1}, {1, 2}, {0, 2}}, []string{"cx", "cx", "cx"})
	dev := device.Line(3)
	dev.Candidates = []device.Edge{{A: 0, B: 2}}
	sol := &encode.Solution{
		Time:           []int{0, 0, 0},
		Space:          []int{0, 1, 2},
		Mapping:        [][]int{{0, 1, 2}},
		UsedCandidates: []int{0},
	}
	deps := circuit.DefaultDependencies(c.Gates)
	r, err := Compact(c, dev, deps, sol, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if r.ExtraEdgeNum != 1 || r.ExtraEdge[0] != (device.Edge{A: 0, B: 2}) {
		t.Errorf("ExtraEdge = %v", r.ExtraEdge)
	}
	if r.D != 4 || r.SwapCount != 0 {
		t.Errorf("D=%d swaps=%d", r.D, r.SwapCount)
	}
	if err := Verify(r, c, dev, deps); err != nil {
		t.Errorf("Verify: %v", err)
	}

	data, err := json.Marshal(r)
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{`"arch"`, `"M"`, `"D"`, `"g1"`, `"g2"`, `"extra_edge_num"`, `"extra_edge":[[0,2]]`,
		`"benchmark"`, `"gates"`, `"gate_spec"`, `"initial_mapping"`, `"final_mapping"`} {
		if !strings.Contains(string(data), key) {
			t.Errorf("JSON missing %s: %s", key, data)
		}
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatal(err)
	}
	if len(fields) != 12 {
		t.Errorf("JSON has %d fields, want 12", len(fields))
	}
}

func TestCompactRejectsForeignSolution(t *testing.T) {
	c, dev, sol := scenario(t)
	sol.Time = sol.Time[:2]
	if _, err := Compact(c, dev, nil, sol, Options{}); !errors.Is(err, errors.ErrCodeInternal) {
		t.Errorf("short times: err = %v", err)
	}

	c, dev, sol = triangle(t)
	sol.Swaps[0].Edge = 7
	if _, err := Compact(c, dev, nil, sol, Options{}); !errors.Is(err, errors.ErrCodeInternal) {
		t.Errorf("bad swap edge: err = %v", err)
	}
}

func TestVerifyDetectsTampering(t *testing.T) {
	tests := []struct {
		name   string
		tamper func(r *TopologyResult, dev *device.Device)
		want   string
	}{
		{"final mapping", func(r *TopologyResult, _ *device.Device) { r.FinalMapping = []int{0, 1, 2} }, "final mapping"},
		{"not a coupling", func(r *TopologyResult, _ *device.Device) { r.GateSpec[1][0] = []int{0, 2} }, "not a coupling"},
		{"missing gate", func(r *TopologyResult, _ *device.Device) {
			r.Gates[4], r.GateSpec[4] = []string{}, [][]int{}
		}, "not scheduled"},
		{"wrong operands", func(r *TopologyResult, _ *device.Device) { r.GateSpec[1][0] = []int{1, 0} }, "matches no pending gate"},
		{"counts", func(r *TopologyResult, _ *device.Device) { r.G2 = 3 }, "g1="},
		{"depth", func(r *TopologyResult, _ *device.Device) { r.D = 9 }, "layers"},
		{"non-injective", func(r *TopologyResult, _ *device.Device) { r.InitialMapping = []int{0, 0, 2} }, "initial mapping"},
		{"extra not candidate", func(r *TopologyResult, _ *device.Device) {
			r.ExtraEdge = []device.Edge{{A: 0, B: 2}}
			r.ExtraEdgeNum = 1
		}, "not a candidate"},
		{"conflict", func(r *TopologyResult, dev *device.Device) {
			dev.Candidates = []device.Edge{{A: 0, B: 2}, {A: 2, B: 0}}
			dev.Conflicts = [][]device.Edge{{{A: 0, B: 2}, {A: 2, B: 0}}}
			r.ExtraEdge = []device.Edge{{A: 0, B: 2}, {A: 2, B: 0}}
			r.ExtraEdgeNum = 2
		}, "conflict set"},
		{"busy qubit", func(r *TopologyResult, _ *device.Device) {
			r.Gates[2] = append(r.Gates[2], r.Gates[3]...)
			r.GateSpec[2] = append(r.GateSpec[2], r.GateSpec[3]...)
			r.Gates[3], r.GateSpec[3] = []string{}, [][]int{}
		}, "busy"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, dev, sol := triangle(t)
			deps := circuit.DefaultDependencies(c.Gates)
			r, err := Compact(c, dev, deps, sol, Options{})
			if err != nil {
				t.Fatal(err)
			}
			tt.tamper(r, dev)
			err = Verify(r, c, dev, deps)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Verify = %v, want error containing %q", err, tt.want)
			}
		})
	}
}

func TestReplayRejectsBadInitialMapping(t *testing.T) {
	r := &TopologyResult{InitialMapping: []int{0, 5}}
	if _, err := Replay(r, 3); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("err = %v", err)
	}
}
