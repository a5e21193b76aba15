// Copyright (C) 2021-2022  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

// Package depindex implements the range-overlap dependency index: given a
// corpus of package manifests, it answers "which packages declare a
// dependency on X whose range overlaps version V (or range R)?" without
// scanning every dependent, by combining a lexicographically-packed version
// codec (pkg/rangeexpr) with an ordered key-value store (pkg/kvstore).
package depindex

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"

	"github.com/datawire/depindex/pkg/kvstore"
	"github.com/datawire/depindex/pkg/manifest"
)

// Manifest is the document the index stores and returns: a package name,
// version, and its declared dependency ranges.
type Manifest = manifest.Manifest

// DB is a long-lived handle owning the underlying store, the latest-version
// cache, and the Writer Mutex (§4.7, §4.6, §9 "model them as explicitly
// owned fields of a long-lived database handle"). All operations are
// methods on DB rather than package-level functions with implicit globals.
type DB struct {
	store kvstore.Store
	cache *latestVersionCache
	wmu   *semaphore.Weighted
}

// Option configures a DB at construction time.
type Option func(*DB)

// WithCacheCapacity overrides the latest-version cache's capacity (default
// 1000).
func WithCacheCapacity(capacity int) Option {
	return func(db *DB) { db.cache = newLatestVersionCache(capacity) }
}

// Open wraps an already-opened kvstore.Store in a DB. The caller owns the
// store's lifetime (Close it themselves); DB.Close is a convenience that
// forwards to it.
func Open(store kvstore.Store, opts ...Option) *DB {
	db := &DB{
		store: store,
		cache: newLatestVersionCache(defaultCacheCapacity),
		wmu:   semaphore.NewWeighted(1),
	}
	for _, opt := range opts {
		opt(db)
	}
	return db
}

// Close releases the underlying store.
func (db *DB) Close() error {
	return db.store.Close()
}

func (db *DB) lock(ctx context.Context) error {
	if err := db.wmu.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("depindex: acquiring writer mutex: %w", err)
	}
	return nil
}

func (db *DB) unlock() {
	db.wmu.Release(1)
}
