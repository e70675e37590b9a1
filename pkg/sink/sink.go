// Package sink persists search results.
//
// # Overview
//
// A sink receives the results of one search together with metadata that
// identifies the request. Two sinks are provided:
//
//   - [Dir]: writes extra_edge_{n}.json records to a directory
//   - [Mongo]: upserts one document per budget into a MongoDB collection
//
// [Multi] fans a write out to several sinks.
//
// Basic usage:
//
//	s := sink.Multi(sink.NewDir("out"), mongoSink)
//	defer s.Close(ctx)
//	err := s.Write(ctx, sink.Meta{Key: key}, report.Results)
package sink

import (
	"context"
	"errors"
	"time"

	"github.com/matzehuels/qarchsearch/pkg/schedule"
)

// Meta identifies the request a set of results belongs to.
type Meta struct {
	// Key is the cache key of the request.
	Key       string
	Benchmark string
	Arch      string
	CreatedAt time.Time
}

// Sink stores search results.
type Sink interface {
	Write(ctx context.Context, meta Meta, results []*schedule.TopologyResult) error
	Close(ctx context.Context) error
}

type multi []Sink

// Multi returns a sink writing to every non-nil sink in order. Write and
// Close visit all sinks and join their errors.
func Multi(sinks ...Sink) Sink {
	var m multi
	for _, s := range sinks {
		if s != nil {
			m = append(m, s)
		}
	}
	return m
}

func (m multi) Write(ctx context.Context, meta Meta, results []*schedule.TopologyResult) error {
	var errs []error
	for _, s := range m {
		errs = append(errs, s.Write(ctx, meta, results))
	}
	return errors.Join(errs...)
}

func (m multi) Close(ctx context.Context) error {
	var errs []error
	for _, s := range m {
		errs = append(errs, s.Close(ctx))
	}
	return errors.Join(errs...)
}
