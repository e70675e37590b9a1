// Package pkg provides the libraries behind qarchsearch.
//
// # Overview
//
// qarchsearch places the logical qubits of a circuit onto a device coupling
// graph, schedules the gates and inserts SWAPs so that every two-qubit gate
// runs on coupled qubits. It minimises depth first and SWAP count second,
// once for every budget of optional coupling edges, which shows how much
// each added edge is worth.
//
// # Architecture
//
// The data flow of one search:
//
//	OpenQASM / JSON program         TOML / built-in device
//	         ↓                                ↓
//	    [circuit] package               [device] package
//	         └──────────────┬────────────────┘
//	                        ↓
//	            [encode] package (constraints on an [smt] system)
//	                        ↓
//	            [search] package (depth, then SWAP minimisation per budget)
//	                        ↓
//	            [schedule] package (compacted timeline, replay check)
//	                        ↓
//	            [io] / [sink] (extra_edge_{n}.json, MongoDB)
//
// [pipeline] wires the steps together with a report [cache] and is shared by
// the CLI and the HTTP [api]. [observability] exposes hooks and Prometheus
// collectors for checks, budgets, cache use and jobs.
//
// # Quick Start
//
//	c, _ := circuit.ParseQASMString(src)
//	dev, _ := device.Lookup("grid2x3")
//	report, err := search.Search(ctx, search.Request{
//	    Circuit:   c,
//	    Device:    dev,
//	    Benchmark: "adder",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, r := range report.Results {
//	    fmt.Println(r)
//	}
//
// # Main Packages
//
// [circuit] - Gates, QASM and JSON loaders, collision and dependency
// relations, push-forward depth.
//
// [device] - Coupling graphs with optional candidate edges and conflict
// sets; built-in line, ring and grid generators; DOT and SVG rendering.
//
// [smt] - Boolean and bit-vector terms bit-blasted onto the gini SAT solver,
// with scoped assertions and tri-state checks.
//
// [encode] - The mapping, scheduling and SWAP constraints of one search
// session.
//
// [search] - The per-budget search loop: depth-bound doubling, depth
// minimisation, SWAP minimisation and early exit.
//
// [schedule] - Timeline compaction into result records and independent
// verification by replay.
//
// [errors] - Error codes shared by every package.
//
// # Testing
//
//	go test ./pkg/...                    # All tests
//	go test -run Example ./pkg/...       # Examples only
//
// Redis and MongoDB tests run when QARCHSEARCH_TEST_REDIS_URL and
// QARCHSEARCH_TEST_MONGO_URI are set.
package pkg
