package sink

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/qarchsearch/pkg/io"
	"github.com/matzehuels/qarchsearch/pkg/schedule"
)

// Dir writes results as extra_edge_{n}.json files.
type Dir struct {
	Path   string
	Logger *log.Logger
}

// NewDir creates a directory sink. The directory is created on first
// write.
func NewDir(path string) *Dir {
	return &Dir{Path: path}
}

// Write exports results to the directory.
func (d *Dir) Write(ctx context.Context, meta Meta, results []*schedule.TopologyResult) error {
	paths, err := io.ExportDir(results, d.Path)
	if err != nil {
		return err
	}
	if d.Logger != nil {
		for _, p := range paths {
			d.Logger.Debug("wrote result", "path", p)
		}
	}
	return nil
}

// Close does nothing.
func (d *Dir) Close(context.Context) error { return nil }

var _ Sink = (*Dir)(nil)
