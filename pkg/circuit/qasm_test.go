package circuit

import (
	"reflect"
	"testing"

	"github.com/matzehuels/qarchsearch/pkg/errors"
)

func TestParseQASM(t *testing.T) {
	src := `OPENQASM 2.0;
include "qelib1.inc";
qreg q[3];
creg c[3];
h q[2]; // prepare
cx q[1], q[2];
tdg q[2];
rz(pi/4) q[0];
barrier q;
cx q[0],q[1];
measure q[0] -> c[0];
`
	c, err := ParseQASMString(src)
	if err != nil {
		t.Fatalf("ParseQASM: %v", err)
	}
	if c.Qubits != 3 {
		t.Errorf("Qubits = %d, want 3", c.Qubits)
	}
	wantNames := []string{"h", "cx", "tdg", "rz", "cx"}
	if got := c.GateNames(); !reflect.DeepEqual(got, wantNames) {
		t.Errorf("GateNames = %v, want %v", got, wantNames)
	}
	wantQubits := [][]int{{2}, {1, 2}, {2}, {0}, {0, 1}}
	if got := c.GateQubits(); !reflect.DeepEqual(got, wantQubits) {
		t.Errorf("GateQubits = %v, want %v", got, wantQubits)
	}
}

func TestParseQASMMultipleRegisters(t *testing.T) {
	c, err := ParseQASMString("qreg a[2]; qreg b[3]; cx a[1],b[0]; x b[2];")
	if err != nil {
		t.Fatalf("ParseQASM: %v", err)
	}
	if c.Qubits != 5 {
		t.Errorf("Qubits = %d, want 5", c.Qubits)
	}
	if got := c.GateQubits(); !reflect.DeepEqual(got, [][]int{{1, 2}, {4}}) {
		t.Errorf("GateQubits = %v", got)
	}
}

func TestParseQASMErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"unknown register", "qreg q[2]; cx q[0],r[1];"},
		{"out of range", "qreg q[2]; x q[2];"},
		{"duplicate register", "qreg q[2]; qreg q[1];"},
		{"three qubits", "qreg q[3]; ccx q[0],q[1],q[2];"},
		{"custom gate", "qreg q[1]; gate foo a { x a; }"},
		{"classical control", "qreg q[1]; creg c[1]; if(c==1) x q[0];"},
		{"whole register operand", "qreg q[2]; h q;"},
		{"no qubits", "OPENQASM 2.0;"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseQASMString(tt.src)
			if !errors.Is(err, errors.ErrCodeInvalidCircuit) {
				t.Errorf("err = %v, want INVALID_CIRCUIT", err)
			}
		})
	}
}
