package circuit

import (
	"strings"

	"github.com/matzehuels/qarchsearch/pkg/errors"
)

// Gate is a single operation of the program.
type Gate struct {
	Name     string // lower-case gate name, e.g. "cx"
	Qubits   []int  // one or two logical qubit indices, in operand order
	Duration int    // layers occupied; zero means one layer
}

// Arity returns the number of qubit operands.
func (g Gate) Arity() int { return len(g.Qubits) }

// IsTwoQubit reports whether g acts on two qubits.
func (g Gate) IsTwoQubit() bool { return len(g.Qubits) == 2 }

// Layers returns the number of layers g occupies, which is its Duration
// or 1 when no duration was set.
func (g Gate) Layers() int {
	if g.Duration <= 0 {
		return 1
	}
	return g.Duration
}

// Pair is an ordered pair of gate indices.
// For dependency pairs, gate Pair[0] must not execute after gate Pair[1].
type Pair [2]int

// Circuit is a program over Qubits logical qubits.
// The zero value is an empty circuit with no qubits, which fails Validate.
type Circuit struct {
	Qubits int
	Gates  []Gate
}

// New builds a circuit from the front-end triple (qubit count, gate qubit
// tuples, gate names) and validates it. names may be nil, in which case
// gates are named "g".
func New(qubits int, gateQubits [][]int, names []string) (*Circuit, error) {
	if names != nil && len(names) != len(gateQubits) {
		return nil, errors.New(errors.ErrCodeInvalidCircuit,
			"%d gate names for %d gates", len(names), len(gateQubits))
	}
	c := &Circuit{Qubits: qubits, Gates: make([]Gate, len(gateQubits))}
	for i, qs := range gateQubits {
		name := "g"
		if names != nil {
			name = strings.ToLower(names[i])
		}
		c.Gates[i] = Gate{Name: name, Qubits: append([]int(nil), qs...)}
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks that the circuit is well formed:
//   - at least one logical qubit
//   - every gate has a name and one or two operands
//   - operands are in range and, for two-qubit gates, distinct
//   - durations are not negative
func (c *Circuit) Validate() error {
	if c == nil {
		return errors.New(errors.ErrCodeInvalidCircuit, "circuit is nil")
	}
	if c.Qubits < 1 {
		return errors.New(errors.ErrCodeInvalidCircuit, "circuit must have at least one qubit, got %d", c.Qubits)
	}
	for l, g := range c.Gates {
		if g.Name == "" {
			return errors.New(errors.ErrCodeInvalidCircuit, "gate %d has no name", l)
		}
		if g.Arity() < 1 || g.Arity() > 2 {
			return errors.New(errors.ErrCodeInvalidCircuit,
				"gate %d (%s) has %d operands; only one- and two-qubit gates are supported", l, g.Name, g.Arity())
		}
		for _, q := range g.Qubits {
			if q < 0 || q >= c.Qubits {
				return errors.New(errors.ErrCodeInvalidCircuit,
					"gate %d (%s) uses qubit %d outside [0,%d)", l, g.Name, q, c.Qubits)
			}
		}
		if g.IsTwoQubit() && g.Qubits[0] == g.Qubits[1] {
			return errors.New(errors.ErrCodeInvalidCircuit,
				"gate %d (%s) uses qubit %d twice", l, g.Name, g.Qubits[0])
		}
		if g.Duration < 0 {
			return errors.New(errors.ErrCodeInvalidDuration,
				"gate %d (%s) has negative duration %d", l, g.Name, g.Duration)
		}
	}
	return nil
}

// ApplyDurations sets the duration of every gate whose name appears in
// durations. Names are matched case-insensitively. Durations must be
// positive.
func (c *Circuit) ApplyDurations(durations map[string]int) error {
	normalized := make(map[string]int, len(durations))
	for name, d := range durations {
		if d < 1 {
			return errors.New(errors.ErrCodeInvalidDuration, "duration for %q must be positive, got %d", name, d)
		}
		normalized[strings.ToLower(name)] = d
	}
	for i := range c.Gates {
		if d, ok := normalized[c.Gates[i].Name]; ok {
			c.Gates[i].Duration = d
		}
	}
	return nil
}

// GateQubits returns the operand tuples of all gates in program order.
func (c *Circuit) GateQubits() [][]int {
	out := make([][]int, len(c.Gates))
	for i, g := range c.Gates {
		out[i] = g.Qubits
	}
	return out
}

// GateNames returns the names of all gates in program order.
func (c *Circuit) GateNames() []string {
	out := make([]string, len(c.Gates))
	for i, g := range c.Gates {
		out[i] = g.Name
	}
	return out
}

// Counts returns the number of one-qubit and two-qubit gates.
func (c *Circuit) Counts() (single, double int) {
	for _, g := range c.Gates {
		if g.IsTwoQubit() {
			double++
		} else {
			single++
		}
	}
	return single, double
}

// ValidateDependencies checks an explicit dependency list against a
// circuit with gateCount gates. Each pair must reference existing gates and
// point forward in program order.
func ValidateDependencies(deps []Pair, gateCount int) error {
	for i, d := range deps {
		if d[0] < 0 || d[0] >= gateCount || d[1] < 0 || d[1] >= gateCount {
			return errors.New(errors.ErrCodeInvalidDependency,
				"dependency %d (%d,%d) references a gate outside [0,%d)", i, d[0], d[1], gateCount)
		}
		if d[0] >= d[1] {
			return errors.New(errors.ErrCodeInvalidDependency,
				"dependency %d (%d,%d) must point forward in program order", i, d[0], d[1])
		}
	}
	return nil
}
