package sink

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/matzehuels/qarchsearch/pkg/device"
	"github.com/matzehuels/qarchsearch/pkg/io"
	"github.com/matzehuels/qarchsearch/pkg/schedule"
)

func result(budget int) *schedule.TopologyResult {
	return &schedule.TopologyResult{
		Arch:           "line3",
		M:              2,
		D:              2,
		G2:             1,
		ExtraEdge:      []device.Edge{},
		Gates:          [][]string{{}, {"cx"}},
		GateSpec:       [][][]int{{}, {{0, 1}}},
		InitialMapping: []int{0, 1},
		FinalMapping:   []int{0, 1},
		Budget:         budget,
		Proven:         true,
	}
}

func TestDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	s := NewDir(dir)
	if err := s.Write(context.Background(), Meta{}, []*schedule.TopologyResult{result(0), result(1)}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	for _, name := range []string{"extra_edge_0.json", "extra_edge_1.json"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}
	got, err := io.ImportDir(dir)
	if err != nil || len(got) != 2 {
		t.Fatalf("ImportDir = %v, %v", got, err)
	}
}

type failing struct{ closed bool }

func (f *failing) Write(context.Context, Meta, []*schedule.TopologyResult) error {
	return errors.New("disk full")
}

func (f *failing) Close(context.Context) error {
	f.closed = true
	return nil
}

func TestMulti(t *testing.T) {
	dir := t.TempDir()
	bad := &failing{}
	s := Multi(bad, nil, NewDir(dir))
	err := s.Write(context.Background(), Meta{}, []*schedule.TopologyResult{result(0)})
	if err == nil || err.Error() != "disk full" {
		t.Errorf("Write err = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "extra_edge_0.json")); err != nil {
		t.Errorf("later sink skipped after failure: %v", err)
	}
	if err := s.Close(context.Background()); err != nil || !bad.closed {
		t.Errorf("Close = %v, closed = %v", err, bad.closed)
	}
}

func TestDocumentRoundTrip(t *testing.T) {
	r := result(1)
	r.ExtraEdge = []device.Edge{{A: 0, B: 2}}
	r.ExtraEdgeNum = 1
	r.SwapCount = 2
	doc := toDocument("search:abc", time.Unix(0, 0), r)
	if doc.ID != "search:abc/1" || doc.Key != "search:abc" || doc.ExtraEdge[0] != [2]int{0, 2} {
		t.Errorf("doc = %+v", doc)
	}
	if got := fromDocument(doc); !reflect.DeepEqual(got, r) {
		t.Errorf("round trip:\n got %+v\nwant %+v", got, r)
	}
}

func TestMongo(t *testing.T) {
	uri := os.Getenv("QARCHSEARCH_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("QARCHSEARCH_TEST_MONGO_URI not set")
	}
	ctx := context.Background()
	m, err := NewMongo(ctx, MongoConfig{URI: uri, Database: "qarchsearch_test"})
	if err != nil {
		t.Fatalf("NewMongo: %v", err)
	}
	defer m.Close(ctx)

	key := "test:" + time.Now().Format(time.RFC3339Nano)
	results := []*schedule.TopologyResult{result(1), result(0)}
	if err := m.Write(ctx, Meta{Key: key}, results); err != nil {
		t.Fatalf("Write: %v", err)
	}
	// A second write replaces instead of duplicating.
	if err := m.Write(ctx, Meta{Key: key}, results); err != nil {
		t.Fatalf("Write again: %v", err)
	}
	got, err := m.Find(ctx, key)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(got) != 2 || got[0].Budget != 0 || got[1].Budget != 1 {
		t.Errorf("Find = %v", got)
	}
}

func TestNewMongoRequiresURI(t *testing.T) {
	if _, err := NewMongo(context.Background(), MongoConfig{}); err == nil {
		t.Error("empty uri should fail")
	}
}
