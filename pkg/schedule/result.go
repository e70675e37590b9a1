package schedule

import (
	"fmt"

	"github.com/matzehuels/qarchsearch/pkg/device"
)

// SwapName is the gate name of inserted SWAPs.
const SwapName = "SWAP"

// TopologyResult is one solved candidate-edge budget. Its JSON form is the
// extra_edge_{n}.json record.
type TopologyResult struct {
	Arch           string        `json:"arch"`
	M              int           `json:"M"`
	D              int           `json:"D"`
	G1             int           `json:"g1"`
	G2             int           `json:"g2"`
	ExtraEdgeNum   int           `json:"extra_edge_num"`
	ExtraEdge      []device.Edge `json:"extra_edge"`
	Benchmark      string        `json:"benchmark"`
	Gates          [][]string    `json:"gates"`
	GateSpec       [][][]int     `json:"gate_spec"`
	InitialMapping []int         `json:"initial_mapping"`
	FinalMapping   []int         `json:"final_mapping"`

	// Budget is the candidate-edge budget this result was found under.
	Budget int `json:"-"`
	// SwapCount is the number of inserted SWAPs.
	SwapCount int `json:"-"`
	// Proven is false when the SWAP search stopped on an indeterminate
	// check, so a smaller count may exist.
	Proven bool `json:"-"`
}

// Op is one scheduled operation on physical qubits.
type Op struct {
	Name   string
	Qubits []int
	Layer  int
}

// Ops flattens the schedule in layer order.
func (r *TopologyResult) Ops() []Op {
	var out []Op
	for layer, names := range r.Gates {
		for i, name := range names {
			out = append(out, Op{Name: name, Qubits: r.GateSpec[layer][i], Layer: layer})
		}
	}
	return out
}

// String summarises a result on one line.
func (r *TopologyResult) String() string {
	return fmt.Sprintf("%s budget=%d depth=%d swaps=%d extra=%v", r.Arch, r.Budget, r.D, r.SwapCount, r.ExtraEdge)
}
