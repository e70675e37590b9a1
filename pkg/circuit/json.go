package circuit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/matzehuels/qarchsearch/pkg/errors"
)

// Program bundles a circuit with the optional inputs a front end may
// attach to it.
type Program struct {
	Circuit *Circuit
	// Dependencies is the explicit dependency relation, or nil to use
	// [DefaultDependencies].
	Dependencies []Pair
}

type programJSON struct {
	Qubits       int                    `json:"qubits"`
	Gates        []gateJSON             `json:"gates"`
	Durations    map[string]json.Number `json:"durations,omitempty"`
	Dependencies []Pair                 `json:"dependencies,omitempty"`
}

type gateJSON struct {
	Name   string `json:"name"`
	Qubits []int  `json:"qubits"`
}

// ReadJSON decodes a JSON program IR:
//
//	{
//	  "qubits": 3,
//	  "gates": [{"name": "h", "qubits": [2]}, {"name": "cx", "qubits": [1, 2]}],
//	  "durations": {"cx": 2},
//	  "dependencies": [[0, 1]]
//	}
//
// durations and dependencies are optional. Durations must be positive
// integers; a fractional value is rejected with ErrCodeInvalidDuration.
func ReadJSON(r io.Reader) (*Program, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var in programJSON
	if err := dec.Decode(&in); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidCircuit, err, "decode program")
	}

	c := &Circuit{Qubits: in.Qubits, Gates: make([]Gate, len(in.Gates))}
	for i, g := range in.Gates {
		c.Gates[i] = Gate{Name: strings.ToLower(g.Name), Qubits: g.Qubits}
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	durations, err := parseDurations(in.Durations)
	if err != nil {
		return nil, err
	}
	if err := c.ApplyDurations(durations); err != nil {
		return nil, err
	}

	if in.Dependencies != nil {
		if err := ValidateDependencies(in.Dependencies, len(c.Gates)); err != nil {
			return nil, err
		}
	}
	return &Program{Circuit: c, Dependencies: in.Dependencies}, nil
}

// WriteJSON encodes p in the format accepted by [ReadJSON].
// Per-gate durations are folded back into a name-keyed map; gates sharing a
// name are assumed to share a duration.
func WriteJSON(p *Program, w io.Writer) error {
	out := programJSON{
		Qubits:       p.Circuit.Qubits,
		Gates:        make([]gateJSON, len(p.Circuit.Gates)),
		Dependencies: p.Dependencies,
	}
	for i, g := range p.Circuit.Gates {
		out.Gates[i] = gateJSON{Name: g.Name, Qubits: g.Qubits}
		if g.Duration > 0 {
			if out.Durations == nil {
				out.Durations = map[string]json.Number{}
			}
			out.Durations[g.Name] = json.Number(fmt.Sprint(g.Duration))
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ParseDurations parses "name=layers" assignments such as "cx=2,swap=3".
// Empty input yields an empty map.
func ParseDurations(spec string) (map[string]int, error) {
	raw := map[string]json.Number{}
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, value, ok := strings.Cut(part, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, errors.New(errors.ErrCodeInvalidDuration, "duration %q must have the form name=layers", part)
		}
		raw[strings.TrimSpace(name)] = json.Number(strings.TrimSpace(value))
	}
	return parseDurations(raw)
}

func parseDurations(raw map[string]json.Number) (map[string]int, error) {
	out := make(map[string]int, len(raw))
	for name, n := range raw {
		f, err := n.Float64()
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidDuration, err, "duration for %q", name)
		}
		if f != math.Trunc(f) || f < 1 || f > math.MaxInt32 {
			return nil, errors.New(errors.ErrCodeInvalidDuration, "duration for %q must be a positive integer, got %s", name, n)
		}
		out[name] = int(f)
	}
	return out, nil
}

// Load reads a program from path. Files ending in ".json" are decoded with
// [ReadJSON]; everything else is parsed as OpenQASM.
func Load(path string) (*Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "program %s", path)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if strings.HasSuffix(strings.ToLower(path), ".json") {
		return ReadJSON(bytes.NewReader(data))
	}
	c, err := ParseQASM(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return &Program{Circuit: c}, nil
}

// ReadDependencies decodes a JSON list of gate index pairs such as
// [[0, 1], [1, 3]]. Indices are checked against the circuit later.
func ReadDependencies(r io.Reader) ([]Pair, error) {
	var deps []Pair
	if err := json.NewDecoder(r).Decode(&deps); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidDependency, err, "decode dependencies")
	}
	if deps == nil {
		deps = []Pair{}
	}
	return deps, nil
}

// LoadDependencies reads a dependency list from path.
func LoadDependencies(path string) ([]Pair, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "dependencies %s", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadDependencies(f)
}
