package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/matzehuels/qarchsearch/pkg/errors"
	"github.com/matzehuels/qarchsearch/pkg/schedule"
)

var recordName = regexp.MustCompile(`^extra_edge_(\d+)\.json$`)

// ReadResult decodes one JSON record. Unknown fields are rejected, and
// the layer arrays must agree with D.
//
// Budget is not part of the record; it is set from extra_edge_num and
// overwritten by [ImportResult] when the file name carries one. Proven is
// set to true since a record carries no proof status.
func ReadResult(r io.Reader) (*schedule.TopologyResult, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	var res schedule.TopologyResult
	if err := dec.Decode(&res); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode result")
	}
	if len(res.Gates) != res.D || len(res.GateSpec) != res.D {
		return nil, errors.New(errors.ErrCodeInvalidInput,
			"result has %d gate layers and %d spec layers for depth %d", len(res.Gates), len(res.GateSpec), res.D)
	}
	for layer := range res.Gates {
		if len(res.Gates[layer]) != len(res.GateSpec[layer]) {
			return nil, errors.New(errors.ErrCodeInvalidInput,
				"layer %d has %d names and %d operand lists", layer, len(res.Gates[layer]), len(res.GateSpec[layer]))
		}
	}
	for _, names := range res.Gates {
		for _, name := range names {
			if name == schedule.SwapName {
				res.SwapCount++
			}
		}
	}
	res.Budget = res.ExtraEdgeNum
	res.Proven = true
	return &res, nil
}

// ImportResult reads a record from path.
func ImportResult(path string) (*schedule.TopologyResult, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "result %s", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	r, err := ReadResult(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if m := recordName.FindStringSubmatch(filepath.Base(path)); m != nil {
		r.Budget, _ = strconv.Atoi(m[1])
	}
	return r, nil
}

// ImportDir reads every extra_edge_{n}.json record in dir, ordered by n.
// Other files are ignored.
func ImportDir(dir string) ([]*schedule.TopologyResult, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "result directory %s", dir)
		}
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}
	var out []*schedule.TopologyResult
	for _, e := range entries {
		if e.IsDir() || !recordName.MatchString(e.Name()) {
			continue
		}
		r, err := ImportResult(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Budget < out[j].Budget })
	return out, nil
}
