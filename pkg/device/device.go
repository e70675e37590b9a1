package device

import (
	"encoding/json"
	"fmt"

	"github.com/matzehuels/qarchsearch/pkg/errors"
)

// Edge is an undirected coupling between two physical qubits.
type Edge struct {
	A, B int
}

// Normalize returns e with its endpoints in ascending order.
func (e Edge) Normalize() Edge {
	if e.A > e.B {
		return Edge{e.B, e.A}
	}
	return e
}

// Touches reports whether p is an endpoint of e.
func (e Edge) Touches(p int) bool { return e.A == p || e.B == p }

// Overlaps reports whether e and o share an endpoint.
func (e Edge) Overlaps(o Edge) bool { return e.Touches(o.A) || e.Touches(o.B) }

func (e Edge) String() string { return fmt.Sprintf("(%d,%d)", e.A, e.B) }

// MarshalJSON encodes e as a two-element array.
func (e Edge) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{e.A, e.B})
}

// UnmarshalJSON decodes a two-element array.
func (e *Edge) UnmarshalJSON(data []byte) error {
	var pair [2]int
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	e.A, e.B = pair[0], pair[1]
	return nil
}

// Device is a coupling graph with optional candidate edges.
type Device struct {
	Name       string   `json:"name"`
	Qubits     int      `json:"qubits"`
	Edges      []Edge   `json:"edges"`
	Candidates []Edge   `json:"candidates,omitempty"`
	Conflicts  [][]Edge `json:"conflicts,omitempty"`
}

// AllEdges returns base edges followed by candidate edges.
func (d *Device) AllEdges() []Edge {
	out := make([]Edge, 0, len(d.Edges)+len(d.Candidates))
	out = append(out, d.Edges...)
	return append(out, d.Candidates...)
}

// EdgeCount returns the size of the edge index space.
func (d *Device) EdgeCount() int { return len(d.Edges) + len(d.Candidates) }

// CandidateIndex returns the position of the candidate at edge index k, and
// false when k addresses a base edge.
func (d *Device) CandidateIndex(k int) (int, bool) {
	if k < len(d.Edges) || k >= d.EdgeCount() {
		return -1, false
	}
	return k - len(d.Edges), true
}

// IndexOf returns the edge index of e, ignoring orientation, or -1.
func (d *Device) IndexOf(e Edge) int {
	n := e.Normalize()
	for k, f := range d.AllEdges() {
		if f.Normalize() == n {
			return k
		}
	}
	return -1
}

// ConflictIndices returns each conflict set as candidate positions
// (indices into Candidates, not into the edge index space).
func (d *Device) ConflictIndices() [][]int {
	out := make([][]int, 0, len(d.Conflicts))
	for _, set := range d.Conflicts {
		idx := make([]int, 0, len(set))
		for _, e := range set {
			if k := d.IndexOf(e); k >= len(d.Edges) {
				idx = append(idx, k-len(d.Edges))
			}
		}
		out = append(out, idx)
	}
	return out
}

// Validate checks the device on its own: at least one qubit, edges inside
// [0,Qubits) without self-loops or duplicates (across base and candidate
// edges), and conflict sets made only of candidate edges.
func (d *Device) Validate() error {
	if d == nil {
		return errors.New(errors.ErrCodeInvalidDevice, "device is missing")
	}
	if d.Qubits < 1 {
		return errors.New(errors.ErrCodeInvalidDevice, "device %q must have at least one qubit", d.Name)
	}

	seen := map[Edge]string{}
	check := func(kind string, i int, e Edge) error {
		if e.A < 0 || e.A >= d.Qubits || e.B < 0 || e.B >= d.Qubits {
			return errors.New(errors.ErrCodeInvalidDevice, "%s edge %d %s outside [0,%d)", kind, i, e, d.Qubits)
		}
		if e.A == e.B {
			return errors.New(errors.ErrCodeInvalidDevice, "%s edge %d %s is a self-loop", kind, i, e)
		}
		if prev, dup := seen[e.Normalize()]; dup {
			return errors.New(errors.ErrCodeInvalidDevice, "%s edge %d %s duplicates a %s edge", kind, i, e, prev)
		}
		seen[e.Normalize()] = kind
		return nil
	}
	for i, e := range d.Edges {
		if err := check("base", i, e); err != nil {
			return err
		}
	}
	for i, e := range d.Candidates {
		if err := check("candidate", i, e); err != nil {
			return err
		}
	}

	for i, set := range d.Conflicts {
		for _, e := range set {
			if seen[e.Normalize()] != "candidate" {
				return errors.New(errors.ErrCodeInvalidDevice, "conflict set %d member %s is not a candidate edge", i, e)
			}
		}
	}
	return nil
}

// CheckFits reports an error when the device has fewer physical qubits than
// the program has logical qubits.
func (d *Device) CheckFits(logical int) error {
	if d.Qubits < logical {
		return errors.New(errors.ErrCodeInvalidDevice,
			"device %q has %d physical qubits, program needs %d", d.Name, d.Qubits, logical)
	}
	return nil
}

// WithCandidates returns a copy of d whose candidates are restricted to the
// given subset. Conflict sets are filtered accordingly and dropped when
// fewer than two members remain.
func (d *Device) WithCandidates(keep []Edge) *Device {
	allowed := map[Edge]bool{}
	for _, e := range keep {
		allowed[e.Normalize()] = true
	}
	out := &Device{Name: d.Name, Qubits: d.Qubits, Edges: append([]Edge(nil), d.Edges...)}
	for _, e := range d.Candidates {
		if allowed[e.Normalize()] {
			out.Candidates = append(out.Candidates, e)
		}
	}
	for _, set := range d.Conflicts {
		var kept []Edge
		for _, e := range set {
			if allowed[e.Normalize()] {
				kept = append(kept, e)
			}
		}
		if len(kept) > 1 {
			out.Conflicts = append(out.Conflicts, kept)
		}
	}
	return out
}
