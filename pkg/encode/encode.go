package encode

import (
	"math/bits"

	"github.com/matzehuels/qarchsearch/pkg/circuit"
	"github.com/matzehuels/qarchsearch/pkg/device"
	"github.com/matzehuels/qarchsearch/pkg/errors"
	"github.com/matzehuels/qarchsearch/pkg/smt"
)

// MaxWidth is the widest bitvector the encoder will build.
const MaxWidth = 62

// Problem is the read-only input of an encoding.
type Problem struct {
	Circuit      *circuit.Circuit
	Device       *device.Device
	Dependencies []circuit.Pair
}

// Validate checks the problem as a whole. It is the last point at which
// input errors are reported; nothing after it touches the solver with
// unchecked data.
func (p Problem) Validate() error {
	if p.Device == nil {
		return errors.New(errors.ErrCodeInvalidDevice, "no device configured")
	}
	if err := p.Circuit.Validate(); err != nil {
		return err
	}
	if err := p.Device.Validate(); err != nil {
		return err
	}
	if err := p.Device.CheckFits(p.Circuit.Qubits); err != nil {
		return err
	}
	return circuit.ValidateDependencies(p.Dependencies, len(p.Circuit.Gates))
}

type options struct {
	edgeUsage bool
}

// Option configures [New].
type Option func(*options)

// WithoutEdgeUsage skips edge-usage bookkeeping and conflict exclusivity.
// Every candidate edge is then freely usable and [Encoding.EdgeBudget]
// is unconstrained.
func WithoutEdgeUsage() Option {
	return func(o *options) { o.edgeUsage = false }
}

// Encoding holds the variables of one build. It is discarded when the
// depth bound grows.
type Encoding struct {
	sys   smt.System
	p     Problem
	edges []device.Edge
	// incident[p] lists edge indices touching physical qubit p.
	incident [][]int

	Depth      int
	SpaceWidth int
	TimeWidth  int

	Pi    [][]smt.BitVec // [q][t]
	Space []smt.BitVec   // [l]
	Time  []smt.BitVec   // [l]
	Sigma [][]smt.Bool   // [e][t]
	Used  []smt.Bool     // [c], nil without edge usage
}

// Width returns ⌈log2(n)⌉+1, the bit width used for values below n.
func Width(n int) int {
	if n < 1 {
		return 1
	}
	return bits.Len(uint(n-1)) + 1
}

// New declares variables for a depth bound and asserts all constraint
// families on sys. p must already be valid.
func New(sys smt.System, p Problem, depth int, opts ...Option) (*Encoding, error) {
	o := options{edgeUsage: true}
	for _, opt := range opts {
		opt(&o)
	}
	if depth < 1 {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "depth bound must be at least 1, got %d", depth)
	}

	dev := p.Device
	enc := &Encoding{
		sys:        sys,
		p:          p,
		edges:      dev.AllEdges(),
		Depth:      depth,
		SpaceWidth: Width(max(dev.EdgeCount(), dev.Qubits)),
		TimeWidth:  Width(depth),
	}
	if err := enc.checkWidths(); err != nil {
		return nil, err
	}
	enc.incident = make([][]int, dev.Qubits)
	for k, e := range enc.edges {
		enc.incident[e.A] = append(enc.incident[e.A], k)
		enc.incident[e.B] = append(enc.incident[e.B], k)
	}

	enc.declare(o.edgeUsage)
	enc.injectiveMapping()
	enc.gateConsistency()
	enc.dependencyOrder()
	enc.swapExclusivity()
	enc.mappingEvolution()
	if o.edgeUsage {
		enc.edgeUsage()
		enc.conflictExclusivity()
	}
	return enc, nil
}

// checkWidths guards against constants that would wrap: every constant the
// encoding compares against must be representable.
func (enc *Encoding) checkWidths() error {
	for _, w := range []int{enc.SpaceWidth, enc.TimeWidth} {
		if w > MaxWidth {
			return errors.New(errors.ErrCodeBitwidthOverflow, "bit width %d exceeds %d", w, MaxWidth)
		}
	}
	fits := func(c, width int) bool { return c < 1<<uint(width) }
	if !fits(enc.p.Device.Qubits, enc.SpaceWidth) || !fits(enc.p.Device.EdgeCount(), enc.SpaceWidth) {
		return errors.New(errors.ErrCodeBitwidthOverflow,
			"device size (P=%d, E=%d) does not fit %d bits", enc.p.Device.Qubits, enc.p.Device.EdgeCount(), enc.SpaceWidth)
	}
	if !fits(enc.Depth, enc.TimeWidth) {
		return errors.New(errors.ErrCodeBitwidthOverflow, "depth bound %d does not fit %d bits", enc.Depth, enc.TimeWidth)
	}
	return nil
}

func (enc *Encoding) declare(edgeUsage bool) {
	s := enc.sys
	q, g := enc.p.Circuit.Qubits, len(enc.p.Circuit.Gates)

	enc.Pi = make([][]smt.BitVec, q)
	for i := range enc.Pi {
		enc.Pi[i] = make([]smt.BitVec, enc.Depth)
		for t := range enc.Pi[i] {
			enc.Pi[i][t] = s.NewBitVec(enc.SpaceWidth)
		}
	}
	enc.Space = make([]smt.BitVec, g)
	enc.Time = make([]smt.BitVec, g)
	for l := 0; l < g; l++ {
		enc.Space[l] = s.NewBitVec(enc.SpaceWidth)
		enc.Time[l] = s.NewBitVec(enc.TimeWidth)
	}
	enc.Sigma = make([][]smt.Bool, len(enc.edges))
	for k := range enc.Sigma {
		enc.Sigma[k] = make([]smt.Bool, enc.Depth)
		for t := range enc.Sigma[k] {
			enc.Sigma[k][t] = s.NewBool()
		}
	}
	if edgeUsage {
		enc.Used = make([]smt.Bool, len(enc.p.Device.Candidates))
		for c := range enc.Used {
			enc.Used[c] = s.NewBool()
		}
	}
}
