package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/matzehuels/qarchsearch/pkg/cache"
	"github.com/matzehuels/qarchsearch/pkg/circuit"
	"github.com/matzehuels/qarchsearch/pkg/device"
	"github.com/matzehuels/qarchsearch/pkg/errors"
	"github.com/matzehuels/qarchsearch/pkg/search"
	"github.com/matzehuels/qarchsearch/pkg/sink"
)

const scenarioQASM = `OPENQASM 2.0;
include "qelib1.inc";
qreg q[3];
h q[2];
cx q[1],q[2];
tdg q[2];
cx q[0],q[1];
`

func writeProgram(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.qasm")
	if err := os.WriteFile(path, []byte(scenarioQASM), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestValidateAndSetDefaults(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		code errors.Code
	}{
		{"no program", Options{Device: "line3"}, errors.ErrCodeInvalidInput},
		{"both programs", Options{Program: "a.qasm", QASM: "qreg q[1];", Device: "line3"}, errors.ErrCodeInvalidInput},
		{"no device", Options{QASM: "qreg q[1];"}, errors.ErrCodeInvalidDevice},
		{"bad config", Options{QASM: "qreg q[1];", Device: "line3", Config: search.Config{MaxDoublings: -1}}, errors.ErrCodeInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults()
			if got := errors.GetCode(err); got != tt.code {
				t.Errorf("code = %q, want %q (err=%v)", got, tt.code, err)
			}
		})
	}

	opts := Options{Program: "bench/adder_n4.qasm", Device: "line5"}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults: %v", err)
	}
	if opts.Benchmark != "adder_n4" || opts.Logger == nil || opts.Config.MaxDoublings != search.DefaultMaxDoublings {
		t.Errorf("defaults not applied: %+v", opts)
	}
}

func TestLoad(t *testing.T) {
	opts := Options{
		QASM:         scenarioQASM,
		Device:       "line3",
		Durations:    map[string]int{"cx": 2},
		Dependencies: []circuit.Pair{{1, 3}},
		Benchmark:    "scenario",
	}
	req, err := Load(opts)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if req.Device.Name != "line3" || req.Circuit.Gates[1].Duration != 2 || len(req.Dependencies) != 1 {
		t.Errorf("request = %+v", req)
	}

	opts.DeviceSpec = device.Ring(4)
	req, err = Load(opts)
	if err != nil || req.Device.Name != "ring4" {
		t.Errorf("DeviceSpec ignored: %v, %v", req.Device, err)
	}

	if _, err := Load(Options{QASM: scenarioQASM, Device: "hexagon"}); !errors.Is(err, errors.ErrCodeDeviceNotFound) {
		t.Errorf("unknown device err = %v", err)
	}
}

func TestExecuteCaches(t *testing.T) {
	ctx := context.Background()
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	out := t.TempDir()
	runner := NewRunner(c, nil, sink.NewDir(out), nil)
	opts := Options{Program: writeProgram(t), Device: "line3", Verify: true}

	first, err := runner.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if first.CacheHit {
		t.Error("first run should miss the cache")
	}
	if len(first.Report.Results) != 1 || first.Report.Results[0].D != 4 {
		t.Fatalf("report = %+v", first.Report)
	}
	if _, err := os.Stat(filepath.Join(out, "extra_edge_0.json")); err != nil {
		t.Errorf("sink did not write: %v", err)
	}

	second, err := runner.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("Execute (cached): %v", err)
	}
	if !second.CacheHit || second.Key != first.Key {
		t.Errorf("second run: hit=%v key=%s vs %s", second.CacheHit, second.Key, first.Key)
	}
	got := second.Report.Results[0]
	if got.Budget != 0 || got.SwapCount != 0 || !got.Proven || got.D != 4 {
		t.Errorf("cached result lost fields: %+v", got)
	}

	opts.Refresh = true
	third, err := runner.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("Execute (refresh): %v", err)
	}
	if third.CacheHit {
		t.Error("refresh should bypass the cache")
	}
}

func TestKeyDependsOnConfig(t *testing.T) {
	runner := NewRunner(nil, nil, nil, nil)
	req, err := Load(Options{QASM: scenarioQASM, Device: "line3"})
	if err != nil {
		t.Fatal(err)
	}
	k1, err := runner.Key(req)
	if err != nil {
		t.Fatal(err)
	}
	req.Config.Preprocess = true
	k2, _ := runner.Key(req)
	req.Config.Preprocess = false
	req.Device = device.Line(4)
	k3, _ := runner.Key(req)
	if k1 == k2 || k1 == k3 || k2 == k3 {
		t.Errorf("keys should differ: %s %s %s", k1, k2, k3)
	}
	// Explicit defaults and zero values describe the same search.
	req.Device = device.Line(3)
	req.Config.MaxDoublings = search.DefaultMaxDoublings
	if k4, _ := runner.Key(req); k4 != k1 {
		t.Errorf("default MaxDoublings changed the key")
	}
}

func TestEncodeDecodeReport(t *testing.T) {
	report := &search.Report{
		Failures: []search.Failure{{Budget: 2, Code: errors.ErrCodeNonConvergence, Message: "exhausted"}},
	}
	data, err := encodeReport(report)
	if err != nil {
		t.Fatal(err)
	}
	got, err := decodeReport(data)
	if err != nil {
		t.Fatalf("decodeReport: %v", err)
	}
	if len(got.Failures) != 1 || !errors.Is(got.Failures[0].Err, errors.ErrCodeNonConvergence) {
		t.Errorf("failures = %+v", got.Failures)
	}
	if _, err := decodeReport([]byte(`{"report":null}`)); err == nil {
		t.Error("malformed entry should fail")
	}
}

func TestCacheable(t *testing.T) {
	if !cacheable(&search.Report{}) {
		t.Error("empty report should be cacheable")
	}
	if cacheable(&search.Report{Failures: []search.Failure{{Code: errors.ErrCodeIndeterminate}}}) {
		t.Error("indeterminate report should not be cached")
	}
}

func TestKeyDependsOnDependencies(t *testing.T) {
	runner := NewRunner(nil, nil, nil, nil)
	req, err := Load(Options{QASM: scenarioQASM, Device: "line3"})
	if err != nil {
		t.Fatal(err)
	}
	if req.Dependencies != nil {
		t.Fatalf("Dependencies = %v, want nil default", req.Dependencies)
	}
	def, err := runner.Key(req)
	if err != nil {
		t.Fatal(err)
	}

	req.Dependencies = []circuit.Pair{}
	none, _ := runner.Key(req)
	if none == def {
		t.Errorf("no dependencies and default dependencies share key %s", def)
	}

	// The default is the collision relation, spelled out or not.
	req.Dependencies = circuit.DefaultDependencies(req.Circuit.Gates)
	if explicit, _ := runner.Key(req); explicit != def {
		t.Errorf("explicit collision relation key %s, want %s", explicit, def)
	}
}

func TestExecuteDependencyCacheSeparation(t *testing.T) {
	tests := []struct {
		name  string
		first []circuit.Pair
		then  []circuit.Pair
	}{
		{"none then default", []circuit.Pair{}, nil},
		{"default then none", nil, []circuit.Pair{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			c, err := cache.NewFileCache(t.TempDir())
			if err != nil {
				t.Fatal(err)
			}
			runner := NewRunner(c, nil, nil, nil)

			first, err := runner.Execute(ctx, Options{QASM: scenarioQASM, Device: "line3", Dependencies: tt.first})
			if err != nil {
				t.Fatalf("Execute: %v", err)
			}
			second, err := runner.Execute(ctx, Options{QASM: scenarioQASM, Device: "line3", Dependencies: tt.then, Verify: true})
			if err != nil {
				t.Fatalf("Execute: %v", err)
			}
			if second.CacheHit || second.Key == first.Key {
				t.Errorf("second run reused %s (hit=%v)", first.Key, second.CacheHit)
			}
		})
	}
}
