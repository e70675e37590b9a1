// Package pipeline runs a complete architecture search from user inputs:
// load the program and device, consult the result cache, search, verify
// and hand the results to sinks.
//
// This package holds the logic shared by the CLI and the HTTP API so that
// both treat inputs, cache keys and defaults identically.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, sink.NewDir("out"), logger)
//	res, err := runner.Execute(ctx, pipeline.Options{
//	    Program: "adder.qasm",
//	    Device:  "grid2x3",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, r := range res.Report.Results {
//	    fmt.Println(r)
//	}
package pipeline

import (
	"bytes"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/qarchsearch/pkg/cache"
	"github.com/matzehuels/qarchsearch/pkg/circuit"
	"github.com/matzehuels/qarchsearch/pkg/device"
	"github.com/matzehuels/qarchsearch/pkg/errors"
	"github.com/matzehuels/qarchsearch/pkg/search"
)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options describes one search request. It supports JSON serialization for
// API requests.
type Options struct {
	// Program is a path to an OpenQASM or JSON program. Exactly one of
	// Program and QASM must be set.
	Program string `json:"program,omitempty"`
	// QASM is inline OpenQASM source.
	QASM string `json:"qasm,omitempty"`

	// Device is a built-in device name or a TOML file path. DeviceSpec
	// takes precedence when set.
	Device     string         `json:"device,omitempty"`
	DeviceSpec *device.Device `json:"device_spec,omitempty"`

	// Durations overrides gate durations by gate name.
	Durations map[string]int `json:"durations,omitempty"`
	// Dependencies overrides the dependency relation of the program.
	Dependencies []circuit.Pair `json:"dependencies,omitempty"`
	// Benchmark names the program in results. Defaults to the program
	// file name without extension.
	Benchmark string `json:"benchmark,omitempty"`

	Config search.Config `json:"config"`

	// Refresh skips the cache lookup but still stores the new report.
	Refresh bool `json:"refresh,omitempty"`
	// Verify replays every result against the inputs before returning.
	Verify bool `json:"verify,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`
}

// ValidateAndSetDefaults checks required fields and applies defaults.
func (o *Options) ValidateAndSetDefaults() error {
	if (o.Program == "") == (o.QASM == "") {
		return errors.New(errors.ErrCodeInvalidInput, "exactly one of program and qasm is required")
	}
	if o.Device == "" && o.DeviceSpec == nil {
		return errors.New(errors.ErrCodeInvalidDevice, "device is required")
	}
	if o.Benchmark == "" {
		if o.Program != "" {
			o.Benchmark = strings.TrimSuffix(filepath.Base(o.Program), filepath.Ext(o.Program))
		} else {
			o.Benchmark = "inline"
		}
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if o.Config.Logger == nil {
		o.Config.Logger = o.Logger
	}
	return o.Config.ValidateAndSetDefaults()
}

// Load turns options into a search request. It reads files but does not
// touch the solver.
func Load(opts Options) (search.Request, error) {
	var prog *circuit.Program
	if opts.Program != "" {
		p, err := circuit.Load(opts.Program)
		if err != nil {
			return search.Request{}, err
		}
		prog = p
	} else {
		c, err := circuit.ParseQASMString(opts.QASM)
		if err != nil {
			return search.Request{}, err
		}
		prog = &circuit.Program{Circuit: c}
	}
	if err := prog.Circuit.ApplyDurations(opts.Durations); err != nil {
		return search.Request{}, err
	}

	dev := opts.DeviceSpec
	if dev == nil {
		d, err := device.Resolve(opts.Device)
		if err != nil {
			return search.Request{}, err
		}
		dev = d
	}

	deps := prog.Dependencies
	if opts.Dependencies != nil {
		deps = opts.Dependencies
	}
	return search.Request{
		Circuit:      prog.Circuit,
		Device:       dev,
		Dependencies: deps,
		Benchmark:    opts.Benchmark,
		Config:       opts.Config,
	}, nil
}

// =============================================================================
// Result
// =============================================================================

// Result contains the outputs of a pipeline run.
type Result struct {
	Request search.Request
	Report  *search.Report
	// Key is the cache key of the request.
	Key string
	// CacheHit reports whether Report came from the cache.
	CacheHit bool
	Stats    Stats
}

// Stats contains pipeline execution timings.
type Stats struct {
	LoadTime   time.Duration
	SearchTime time.Duration
	SinkTime   time.Duration
}

// requestHashes returns content hashes of the circuit and device, used to
// build the cache key.
func requestHashes(req search.Request) (circuitHash, deviceHash string, err error) {
	var cbuf, dbuf bytes.Buffer
	if err := circuit.WriteJSON(&circuit.Program{Circuit: req.Circuit}, &cbuf); err != nil {
		return "", "", err
	}
	if err := device.Encode(req.Device, &dbuf); err != nil {
		return "", "", err
	}
	return cache.Hash(cbuf.Bytes()), cache.Hash(dbuf.Bytes()), nil
}
