package sink

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/matzehuels/qarchsearch/pkg/device"
	"github.com/matzehuels/qarchsearch/pkg/schedule"
)

const (
	// DefaultDatabase is the MongoDB database used when none is configured.
	DefaultDatabase = "qarchsearch"
	// DefaultCollection holds one document per solved budget.
	DefaultCollection = "results"
)

// MongoConfig configures [NewMongo].
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
}

// Mongo upserts results into a MongoDB collection. Documents are keyed by
// request key and budget, so repeating a search overwrites its documents.
type Mongo struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// document is the stored form of one result. The record fields keep the
// names of the JSON record.
type document struct {
	ID        string    `bson:"_id"`
	Key       string    `bson:"request_key"`
	Budget    int       `bson:"budget"`
	Swaps     int       `bson:"swaps"`
	Proven    bool      `bson:"proven"`
	CreatedAt time.Time `bson:"created_at"`

	Arch           string     `bson:"arch"`
	M              int        `bson:"M"`
	D              int        `bson:"D"`
	G1             int        `bson:"g1"`
	G2             int        `bson:"g2"`
	ExtraEdgeNum   int        `bson:"extra_edge_num"`
	ExtraEdge      [][2]int   `bson:"extra_edge"`
	Benchmark      string     `bson:"benchmark"`
	Gates          [][]string `bson:"gates"`
	GateSpec       [][][]int  `bson:"gate_spec"`
	InitialMapping []int      `bson:"initial_mapping"`
	FinalMapping   []int      `bson:"final_mapping"`
}

// NewMongo connects to MongoDB and verifies the connection.
func NewMongo(ctx context.Context, cfg MongoConfig) (*Mongo, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("mongo uri is required")
	}
	if cfg.Database == "" {
		cfg.Database = DefaultDatabase
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return &Mongo{
		client: client,
		coll:   client.Database(cfg.Database).Collection(cfg.Collection),
	}, nil
}

// Write upserts one document per result.
func (m *Mongo) Write(ctx context.Context, meta Meta, results []*schedule.TopologyResult) error {
	created := meta.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	for _, r := range results {
		doc := toDocument(meta.Key, created, r)
		_, err := m.coll.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
		if err != nil {
			return fmt.Errorf("store budget %d: %w", r.Budget, err)
		}
	}
	return nil
}

// Find returns the stored results of a request, ordered by budget.
func (m *Mongo) Find(ctx context.Context, key string) ([]*schedule.TopologyResult, error) {
	cur, err := m.coll.Find(ctx, bson.M{"request_key": key}, options.Find().SetSort(bson.D{{Key: "budget", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find results: %w", err)
	}
	var docs []document
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode results: %w", err)
	}
	out := make([]*schedule.TopologyResult, len(docs))
	for i, d := range docs {
		out[i] = fromDocument(d)
	}
	return out, nil
}

// Close disconnects the client.
func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

func documentID(key string, budget int) string {
	return fmt.Sprintf("%s/%d", key, budget)
}

func toDocument(key string, created time.Time, r *schedule.TopologyResult) document {
	extra := make([][2]int, len(r.ExtraEdge))
	for i, e := range r.ExtraEdge {
		extra[i] = [2]int{e.A, e.B}
	}
	return document{
		ID:             documentID(key, r.Budget),
		Key:            key,
		Budget:         r.Budget,
		Swaps:          r.SwapCount,
		Proven:         r.Proven,
		CreatedAt:      created,
		Arch:           r.Arch,
		M:              r.M,
		D:              r.D,
		G1:             r.G1,
		G2:             r.G2,
		ExtraEdgeNum:   r.ExtraEdgeNum,
		ExtraEdge:      extra,
		Benchmark:      r.Benchmark,
		Gates:          r.Gates,
		GateSpec:       r.GateSpec,
		InitialMapping: r.InitialMapping,
		FinalMapping:   r.FinalMapping,
	}
}

func fromDocument(d document) *schedule.TopologyResult {
	extra := make([]device.Edge, len(d.ExtraEdge))
	for i, e := range d.ExtraEdge {
		extra[i] = device.Edge{A: e[0], B: e[1]}
	}
	return &schedule.TopologyResult{
		Arch:           d.Arch,
		M:              d.M,
		D:              d.D,
		G1:             d.G1,
		G2:             d.G2,
		ExtraEdgeNum:   d.ExtraEdgeNum,
		ExtraEdge:      extra,
		Benchmark:      d.Benchmark,
		Gates:          d.Gates,
		GateSpec:       d.GateSpec,
		InitialMapping: d.InitialMapping,
		FinalMapping:   d.FinalMapping,
		Budget:         d.Budget,
		SwapCount:      d.Swaps,
		Proven:         d.Proven,
	}
}

var _ Sink = (*Mongo)(nil)
