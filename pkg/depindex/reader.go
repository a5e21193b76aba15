// Copyright (C) 2021-2022  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package depindex

import (
	"context"
	"fmt"

	"github.com/datawire/depindex/pkg/kvstore"
	"github.com/datawire/depindex/pkg/rangeexpr"
)

// Query runs a range-overlap query (§4.5): every package that declares a
// dependency on name whose range overlaps rangeStr is streamed back as a
// full manifest document, in the underlying store's scan order.
func (db *DB) Query(ctx context.Context, name, rangeStr string, opts QueryOptions) (*QueryStream, error) {
	d, err := rangeexpr.ParseRange(rangeStr)
	if err != nil {
		return nil, newInvalidQueryRange(rangeStr, err)
	}
	bounds, err := rangeexpr.NormalizeQuery(d)
	if err != nil {
		return nil, newInvalidQueryRange(rangeStr, err)
	}

	kind := opts.kind()
	var prefix string
	if opts.All {
		prefix = indexScanPrefix(kind, name)
	} else {
		prefix = indexLatestScanPrefix(kind, name)
	}

	gt := []byte(prefix)
	if opts.GT != "" {
		gt = []byte(prefix + escapeName(opts.GT))
	}
	lt := append([]byte(prefix), 0xFF)

	raw, err := db.store.Scan(ctx, kvstore.ScanOptions{GT: gt, LT: lt, Limit: opts.Limit})
	if err != nil {
		return nil, wrapStoreErr("Query", err)
	}

	return &QueryStream{
		raw:    raw,
		db:     db,
		kind:   kind,
		name:   name,
		bounds: bounds,
		all:    opts.All,
		prefix: prefix,
	}, nil
}

// QueryStream is a lazy, pull-based sequence of manifests matching a Query.
// It is finite and not restartable; a consumer that stops calling Next
// before EOF must still call Close to release the underlying scan.
type QueryStream struct {
	raw    kvstore.RecordStream
	db     *DB
	kind   Kind
	name   string
	bounds rangeexpr.Bounds
	all    bool
	prefix string
	closed bool
}

// Next returns the next matching manifest, or (nil, false, nil) once the
// stream is exhausted.
func (s *QueryStream) Next(ctx context.Context) (*Manifest, bool, error) {
	if s.closed {
		return nil, false, nil
	}
	for {
		rec, ok, err := s.raw.Next(ctx)
		if err != nil {
			return nil, false, wrapStoreErr("Query", err)
		}
		if !ok {
			return nil, false, nil
		}
		if s.all {
			m, matched, err := s.nextPerVersion(ctx, rec)
			if err != nil {
				return nil, false, err
			}
			if matched {
				return m, true, nil
			}
			continue
		}
		m, matched, err := s.nextLatest(ctx, rec)
		if err != nil {
			return nil, false, err
		}
		if matched {
			return m, true, nil
		}
	}
}

func (s *QueryStream) nextPerVersion(ctx context.Context, rec kvstore.Record) (*Manifest, bool, error) {
	dependent, version, ok := splitIndexKey(s.prefix, rec.Key)
	if !ok {
		return nil, false, nil
	}
	enc, err := decodeIndexValue(rec.Value)
	if err != nil {
		return nil, false, nil
	}
	if !s.bounds.Wildcard && !rangeexpr.Overlap(enc, s.bounds) {
		return nil, false, nil
	}
	// Per-version records never change once written, so (per §4.5 step
	// 6 and the resolved open question in DESIGN.md) there is no
	// re-validation against the manifest on this path.
	v, found, err := s.db.store.Get(ctx, keyPkg(dependent, version))
	if err != nil {
		return nil, false, wrapStoreErr("Query", err)
	}
	if !found {
		return nil, false, nil
	}
	m, err := decodeManifest(v)
	if err != nil {
		return nil, false, fmt.Errorf("depindex: Query: %w", err)
	}
	return m, true, nil
}

func (s *QueryStream) nextLatest(ctx context.Context, rec kvstore.Record) (*Manifest, bool, error) {
	dependent, ok := splitIndexLatestKey(s.prefix, rec.Key)
	if !ok {
		return nil, false, nil
	}
	val, err := decodeIndexLatestValue(rec.Value)
	if err != nil {
		return nil, false, nil
	}
	if !s.bounds.Wildcard && !rangeexpr.Overlap(val.Sets, s.bounds) {
		return nil, false, nil
	}

	v, found, err := s.db.store.Get(ctx, keyPkgLatest(dependent))
	if err != nil {
		return nil, false, wrapStoreErr("Query", err)
	}
	if !found {
		return nil, false, nil
	}
	m, err := decodeManifest(v)
	if err != nil {
		return nil, false, fmt.Errorf("depindex: Query: %w", err)
	}

	if declaresDependency(m, s.kind, s.name) {
		return m, true, nil
	}

	if err := s.db.cleanup(ctx, s.kind, s.name, dependent, m.Version); err != nil {
		return nil, false, err
	}
	return nil, false, nil
}

func declaresDependency(m *Manifest, kind Kind, name string) bool {
	deps := m.Dependencies
	if kind == KindDev {
		deps = m.DevDependencies
	}
	_, ok := deps[name]
	return ok
}

// Close releases the underlying scan. Safe to call more than once, and
// safe to call before the stream is exhausted.
func (s *QueryStream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.raw.Close()
}

// Collect drains the stream into a slice, for callers that want a one-shot
// result rather than pull-based iteration.
func (s *QueryStream) Collect(ctx context.Context) ([]*Manifest, error) {
	defer s.Close()
	var out []*Manifest
	for {
		m, ok, err := s.Next(ctx)
		if err != nil {
			return out, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, m)
	}
}
