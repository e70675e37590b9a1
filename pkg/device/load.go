package device

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/qarchsearch/pkg/errors"
)

// file is the TOML layout of a device description:
//
//	name   = "falcon-lite"
//	qubits = 4
//	edges  = [[0, 1], [1, 2], [2, 3]]
//	candidates = [[0, 2], [1, 3]]
//	conflicts  = [[[0, 2], [1, 3]]]
type file struct {
	Name       string    `toml:"name"`
	Qubits     int       `toml:"qubits"`
	Edges      [][]int   `toml:"edges"`
	Candidates [][]int   `toml:"candidates,omitempty"`
	Conflicts  [][][]int `toml:"conflicts,omitempty"`
}

// Decode reads a TOML device description from r and validates it.
func Decode(r io.Reader) (*Device, error) {
	var f file
	md, err := toml.NewDecoder(r).Decode(&f)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidDevice, err, "decode device")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, errors.New(errors.ErrCodeInvalidDevice, "unknown device key %q", undecoded[0].String())
	}

	d := &Device{Name: f.Name, Qubits: f.Qubits}
	if d.Edges, err = toEdges("edges", f.Edges); err != nil {
		return nil, err
	}
	if d.Candidates, err = toEdges("candidates", f.Candidates); err != nil {
		return nil, err
	}
	for _, set := range f.Conflicts {
		edges, err := toEdges("conflicts", set)
		if err != nil {
			return nil, err
		}
		d.Conflicts = append(d.Conflicts, edges)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

func toEdges(key string, pairs [][]int) ([]Edge, error) {
	var out []Edge
	for i, p := range pairs {
		if len(p) != 2 {
			return nil, errors.New(errors.ErrCodeInvalidDevice, "%s[%d] must have two endpoints, got %d", key, i, len(p))
		}
		out = append(out, Edge{p[0], p[1]})
	}
	return out, nil
}

// Load reads a TOML device file. A missing name defaults to the file's base
// name without extension.
func Load(path string) (*Device, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "device %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidDevice, err, "open %s", path)
	}
	defer f.Close()

	d, err := Decode(f)
	if err != nil {
		return nil, err
	}
	if d.Name == "" {
		d.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return d, nil
}

// Resolve treats ref as a file path when it names an existing file or ends
// in ".toml", and as a built-in name otherwise.
func Resolve(ref string) (*Device, error) {
	if strings.HasSuffix(ref, ".toml") {
		return Load(ref)
	}
	if info, err := os.Stat(ref); err == nil && !info.IsDir() {
		return Load(ref)
	}
	return Lookup(ref)
}

// Encode writes d as TOML in the layout accepted by [Decode].
func Encode(d *Device, w io.Writer) error {
	f := file{Name: d.Name, Qubits: d.Qubits, Edges: fromEdges(d.Edges), Candidates: fromEdges(d.Candidates)}
	for _, set := range d.Conflicts {
		f.Conflicts = append(f.Conflicts, fromEdges(set))
	}
	return toml.NewEncoder(w).Encode(f)
}

func fromEdges(edges []Edge) [][]int {
	out := make([][]int, len(edges))
	for i, e := range edges {
		out[i] = []int{e.A, e.B}
	}
	return out
}
