// Copyright (C) 2021-2022  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

// Package kvstore defines the ordered key-value store contract the
// range-overlap index is built on: atomic multi-key batch writes, point
// reads, point deletes, and ordered forward range scans. pkg/depindex is
// written only against this interface; pkg/kvstore/boltstore and
// pkg/kvstore/memstore are its two implementations.
package kvstore

import "context"

// OpKind distinguishes a batch operation's effect.
type OpKind int

const (
	OpPut OpKind = iota
	OpDel
)

// Op is a single write within a Batch: a put or a delete of Key.
// Value is ignored for OpDel.
type Op struct {
	Kind  OpKind
	Key   []byte
	Value []byte
}

// ScanOptions bounds a Scan to the open key range (GT, LT): both bounds are
// exclusive. The scan is optionally capped at Limit records. An empty GT/LT
// means unbounded on that side.
type ScanOptions struct {
	GT    []byte
	LT    []byte
	Limit int
}

// Record is one (key, value) pair yielded by a RecordStream.
type Record struct {
	Key   []byte
	Value []byte
}

// RecordStream is a forward, ascending-key-order cursor over a Scan's
// results. Next returns (Record{}, false, nil) once exhausted. Close must be
// called once the caller is done, whether or not the stream was drained;
// it is safe to call more than once.
type RecordStream interface {
	Next(ctx context.Context) (Record, bool, error)
	Close() error
}

// Store is the ordered key-value store contract required by §6: atomic
// multi-key batch writes, point reads, point deletes, and ordered forward
// range scans.
type Store interface {
	// Batch applies ops atomically: either all of them become visible, or
	// none do.
	Batch(ctx context.Context, ops []Op) error
	// Get reads a single key. found is false if the key is absent.
	Get(ctx context.Context, key []byte) (value []byte, found bool, err error)
	// Scan returns an ascending-key-order stream of the records in
	// opts's bounds.
	Scan(ctx context.Context, opts ScanOptions) (RecordStream, error)
	// Del deletes a single key. Deleting an absent key is not an error.
	Del(ctx context.Context, key []byte) error
	// Close releases any resources (file handles, connections) held by
	// the store.
	Close() error
}
