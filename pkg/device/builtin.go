package device

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/matzehuels/qarchsearch/pkg/errors"
)

// Line returns n qubits coupled in a chain 0-1-...-(n-1) with no
// candidates.
func Line(n int) *Device {
	d := &Device{Name: fmt.Sprintf("line%d", n), Qubits: n}
	for p := 0; p+1 < n; p++ {
		d.Edges = append(d.Edges, Edge{p, p + 1})
	}
	return d
}

// Ring returns a line of n qubits closed into a cycle. For n < 3 the
// closing edge would duplicate an existing one and is omitted.
func Ring(n int) *Device {
	d := Line(n)
	d.Name = fmt.Sprintf("ring%d", n)
	if n >= 3 {
		d.Edges = append(d.Edges, Edge{n - 1, 0})
	}
	return d
}

// Grid returns a rows×cols nearest-neighbour lattice. Qubit (r, c) has index
// r*cols+c. Each unit square contributes its two diagonals as candidate
// edges; the diagonals of one square cross and form a conflict set.
func Grid(rows, cols int) *Device {
	d := &Device{Name: fmt.Sprintf("grid%dx%d", rows, cols), Qubits: rows * cols}
	at := func(r, c int) int { return r*cols + c }

	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if c+1 < cols {
				d.Edges = append(d.Edges, Edge{at(r, c), at(r, c+1)})
			}
			if r+1 < rows {
				d.Edges = append(d.Edges, Edge{at(r, c), at(r+1, c)})
			}
		}
	}
	for r := 0; r+1 < rows; r++ {
		for c := 0; c+1 < cols; c++ {
			diag := Edge{at(r, c), at(r+1, c+1)}
			anti := Edge{at(r, c+1), at(r+1, c)}
			d.Candidates = append(d.Candidates, diag, anti)
			d.Conflicts = append(d.Conflicts, []Edge{diag, anti})
		}
	}
	return d
}

var builtinRegex = regexp.MustCompile(`^(line|ring)(\d+)$|^grid(\d+)x(\d+)$`)

// maxBuiltinQubits bounds generated devices; larger lattices are never
// tractable for the search anyway.
const maxBuiltinQubits = 1024

// Lookup resolves a built-in device name: "lineN", "ringN" or "gridRxC".
func Lookup(name string) (*Device, error) {
	m := builtinRegex.FindStringSubmatch(name)
	if m == nil {
		return nil, errors.New(errors.ErrCodeDeviceNotFound, "unknown device %q (want lineN, ringN or gridRxC)", name)
	}

	var d *Device
	switch {
	case m[1] != "":
		n, _ := strconv.Atoi(m[2])
		if n < 1 || n > maxBuiltinQubits {
			return nil, errors.New(errors.ErrCodeInvalidDevice, "device %q: size must be in [1,%d]", name, maxBuiltinQubits)
		}
		if m[1] == "line" {
			d = Line(n)
		} else {
			d = Ring(n)
		}
	default:
		rows, _ := strconv.Atoi(m[3])
		cols, _ := strconv.Atoi(m[4])
		if rows < 1 || cols < 1 || rows*cols > maxBuiltinQubits {
			return nil, errors.New(errors.ErrCodeInvalidDevice, "device %q: size must be in [1,%d]", name, maxBuiltinQubits)
		}
		d = Grid(rows, cols)
	}
	return d, nil
}

// Builtins lists example names accepted by [Lookup].
func Builtins() []string {
	return []string{"line5", "ring6", "grid2x2", "grid2x3", "grid3x3"}
}
