package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/matzehuels/qarchsearch/pkg/schedule"
)

// FileName returns the record name for a candidate-edge budget.
func FileName(budget int) string {
	return fmt.Sprintf("extra_edge_%d.json", budget)
}

// WriteResult encodes r as an indented JSON record.
func WriteResult(r *schedule.TopologyResult, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportResult writes r to a JSON file at path.
// This is a convenience wrapper around [WriteResult] for file-based output.
func ExportResult(r *schedule.TopologyResult, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteResult(r, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ExportDir writes every result to dir as extra_edge_{budget}.json,
// creating dir if needed. It returns the written paths in input order.
func ExportDir(results []*schedule.TopologyResult, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", dir, err)
	}
	paths := make([]string, 0, len(results))
	for _, r := range results {
		path := filepath.Join(dir, FileName(r.Budget))
		if err := ExportResult(r, path); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}
