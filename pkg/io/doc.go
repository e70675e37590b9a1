// Package io reads and writes search results as JSON.
//
// # Overview
//
// Every solved candidate-edge budget is stored as one record named
// extra_edge_{n}.json, where n is the budget. The record has exactly these
// fields:
//
//	{
//	  "arch": "grid2x3",
//	  "M": 3,
//	  "D": 4,
//	  "g1": 2,
//	  "g2": 2,
//	  "extra_edge_num": 0,
//	  "extra_edge": [],
//	  "benchmark": "adder",
//	  "gates": [[], ["h"], ["cx"], ["tdg", "cx"]],
//	  "gate_spec": [[], [[2]], [[1, 2]], [[2], [0, 1]]],
//	  "initial_mapping": [0, 1, 2],
//	  "final_mapping": [0, 1, 2]
//	}
//
// Layer 0 of gates and gate_spec is the placement layer and is always
// empty. gate_spec holds physical qubits. Inserted SWAPs appear under the
// gate name "SWAP".
//
// # Import
//
// Use [ImportResult] to read a record from a file path, [ReadResult] to
// read from any io.Reader, or [ImportDir] to read every record of a
// directory in budget order.
//
// # Export
//
// Use [ExportDir] to write a whole report, [ExportResult] to write one
// record to a file, or [WriteResult] to write to any io.Writer. Budgets are
// taken from the result, so records written and read back keep their file
// names.
package io
