package circuit

import (
	"bufio"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/matzehuels/qarchsearch/pkg/errors"
)

// Pre-compiled regexps for QASM parsing.
var (
	qregRegex    = regexp.MustCompile(`^qreg\s+(\w+)\s*\[\s*(\d+)\s*\]$`)
	gateRegex    = regexp.MustCompile(`^([A-Za-z_]\w*)\s*(\([^)]*\))?\s+(.+)$`)
	operandRegex = regexp.MustCompile(`^(\w+)\s*\[\s*(\d+)\s*\]$`)
)

// skipped lists statements that do not influence routing.
var skipped = map[string]bool{
	"OPENQASM": true,
	"include":  true,
	"creg":     true,
	"measure":  true,
	"barrier":  true,
	"reset":    true,
}

type register struct {
	offset int
	size   int
}

// ParseQASM reads an OpenQASM 2.0 program and returns its circuit.
//
// Several quantum registers are concatenated in declaration order, so
// "qreg a[2]; qreg b[3];" yields logical qubits a[0..1] = 0..1 and
// b[0..2] = 2..4. Gate parameters are accepted and discarded. Custom gate
// definitions, classical control and gates on three or more qubits are
// rejected with ErrCodeInvalidCircuit.
func ParseQASM(r io.Reader) (*Circuit, error) {
	registers := map[string]register{}
	c := &Circuit{}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if i := strings.Index(line, "//"); i >= 0 {
			line = line[:i]
		}
		for _, stmt := range strings.Split(line, ";") {
			stmt = strings.TrimSpace(stmt)
			if stmt == "" {
				continue
			}
			if err := parseStatement(stmt, registers, c); err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidCircuit, err, "line %d", lineNo)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidCircuit, err, "read qasm")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// ParseQASMString is a convenience wrapper around [ParseQASM].
func ParseQASMString(src string) (*Circuit, error) {
	return ParseQASM(strings.NewReader(src))
}

func parseStatement(stmt string, registers map[string]register, c *Circuit) error {
	keyword := stmt
	if i := strings.IndexAny(stmt, " \t([{"); i >= 0 {
		keyword = stmt[:i]
	}
	if skipped[keyword] {
		return nil
	}

	switch keyword {
	case "qreg":
		m := qregRegex.FindStringSubmatch(stmt)
		if m == nil {
			return errors.New(errors.ErrCodeInvalidCircuit, "malformed qreg: %q", stmt)
		}
		if _, dup := registers[m[1]]; dup {
			return errors.New(errors.ErrCodeInvalidCircuit, "duplicate qreg %q", m[1])
		}
		size, _ := strconv.Atoi(m[2])
		registers[m[1]] = register{offset: c.Qubits, size: size}
		c.Qubits += size
		return nil
	case "gate", "opaque", "if":
		return errors.New(errors.ErrCodeInvalidCircuit, "unsupported statement %q", keyword)
	}

	m := gateRegex.FindStringSubmatch(stmt)
	if m == nil {
		return errors.New(errors.ErrCodeInvalidCircuit, "malformed statement: %q", stmt)
	}
	var qubits []int
	for _, arg := range strings.Split(m[3], ",") {
		q, err := resolveOperand(strings.TrimSpace(arg), registers)
		if err != nil {
			return err
		}
		qubits = append(qubits, q)
	}
	c.Gates = append(c.Gates, Gate{Name: strings.ToLower(m[1]), Qubits: qubits})
	return nil
}

func resolveOperand(arg string, registers map[string]register) (int, error) {
	m := operandRegex.FindStringSubmatch(arg)
	if m == nil {
		return 0, errors.New(errors.ErrCodeInvalidCircuit, "operand %q must index a qubit register", arg)
	}
	reg, ok := registers[m[1]]
	if !ok {
		return 0, errors.New(errors.ErrCodeInvalidCircuit, "unknown register %q", m[1])
	}
	idx, _ := strconv.Atoi(m[2])
	if idx >= reg.size {
		return 0, errors.New(errors.ErrCodeInvalidCircuit, "%s[%d] out of range (size %d)", m[1], idx, reg.size)
	}
	return reg.offset + idx, nil
}
