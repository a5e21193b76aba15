// Copyright (C) 2021-2022  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

// Package memstore implements pkg/kvstore.Store as an in-process sorted
// map, with no filesystem I/O. It exists for the core's unit tests, which
// want a fast, disposable store with the exact same contract as
// pkg/kvstore/boltstore — the same two-implementations-of-a-storage-shaped-
// interface pattern the teacher uses for its virtual filesystem backings.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/datawire/depindex/pkg/kvstore"
)

// Store is an in-memory kvstore.Store. The zero value is not usable; use
// New.
type Store struct {
	mu   sync.Mutex
	data map[string][]byte
}

var _ kvstore.Store = (*Store)(nil)

// New returns an empty memstore.
func New() *Store {
	return &Store{data: make(map[string][]byte)}
}

func (s *Store) Batch(ctx context.Context, ops []kvstore.Op) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, op := range ops {
		switch op.Kind {
		case kvstore.OpPut:
			s.data[string(op.Key)] = append([]byte(nil), op.Value...)
		case kvstore.OpDel:
			delete(s.data, string(op.Key))
		default:
			return fmt.Errorf("memstore.Batch: unknown op kind %d", op.Kind)
		}
	}
	return nil
}

func (s *Store) Get(ctx context.Context, key []byte) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[string(key)]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (s *Store) Del(ctx context.Context, key []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, string(key))
	return nil
}

// Scan snapshots the matching keys at call time; a concurrent write after
// Scan returns does not affect the stream already in flight, mirroring a
// bbolt read transaction's isolation.
func (s *Store) Scan(ctx context.Context, opts kvstore.ScanOptions) (kvstore.RecordStream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		if len(opts.GT) > 0 && k <= string(opts.GT) {
			continue
		}
		if len(opts.LT) > 0 && k >= string(opts.LT) {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if opts.Limit > 0 && len(keys) > opts.Limit {
		keys = keys[:opts.Limit]
	}
	recs := make([]kvstore.Record, len(keys))
	for i, k := range keys {
		recs[i] = kvstore.Record{
			Key:   []byte(k),
			Value: append([]byte(nil), s.data[k]...),
		}
	}
	s.mu.Unlock()
	return &recordStream{records: recs}, nil
}

func (s *Store) Close() error {
	return nil
}

type recordStream struct {
	records []kvstore.Record
	pos     int
	closed  bool
}

func (r *recordStream) Next(ctx context.Context) (kvstore.Record, bool, error) {
	if err := ctx.Err(); err != nil {
		return kvstore.Record{}, false, err
	}
	if r.closed || r.pos >= len(r.records) {
		return kvstore.Record{}, false, nil
	}
	rec := r.records[r.pos]
	r.pos++
	return rec, true, nil
}

func (r *recordStream) Close() error {
	r.closed = true
	return nil
}
