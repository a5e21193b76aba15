// Copyright (C) 2021-2022  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package depindex

import (
	"context"
	"fmt"

	"github.com/datawire/dlib/dlog"

	"github.com/datawire/depindex/pkg/kvstore"
	"github.com/datawire/depindex/pkg/pkgver"
	"github.com/datawire/depindex/pkg/rangeexpr"
)

// Store ingests a manifest (§4.4): determines whether it is the latest
// known version of manifest.Name, then atomically writes the manifest
// itself plus forward-index entries for every dependency and
// devDependency whose declared range parses.
//
// A declared range that fails to parse drops only that one dependency from
// the index (logged as a warning); the manifest itself is always written.
func (db *DB) Store(ctx context.Context, m *Manifest) error {
	if err := db.lock(ctx); err != nil {
		return err
	}
	defer db.unlock()

	isLatest, err := db.checkLatest(ctx, m)
	if err != nil {
		return err
	}

	ops, err := db.buildStoreBatch(ctx, m, isLatest)
	if err != nil {
		return err
	}

	if err := db.store.Batch(ctx, ops); err != nil {
		return wrapStoreErr("Store", err)
	}

	if isLatest {
		db.cache.Set(m.Name, m.Version)
	}
	return nil
}

// checkLatest reports whether m.Version is strictly greater than the
// currently-known latest version of m.Name, consulting the cache first and
// falling back to the store on a cache miss.
func (db *DB) checkLatest(ctx context.Context, m *Manifest) (bool, error) {
	if cur, found := db.cache.Get(m.Name); found {
		return versionGreater(m.Version, cur), nil
	}
	v, found, err := db.store.Get(ctx, keyLatestVersion(m.Name))
	if err != nil {
		return false, wrapStoreErr("Store: reading latest version", err)
	}
	if !found {
		return true, nil
	}
	return versionGreater(m.Version, string(v)), nil
}

// versionGreater reports whether a is numerically greater than b using the
// bignum-safe tuple comparison (§4.4 step 2); an unparseable operand loses
// the comparison rather than panicking, since the index must still accept
// manifests with a malformed version string.
func versionGreater(a, b string) bool {
	av, err := pkgver.Parse(a)
	if err != nil {
		return false
	}
	bv, err := pkgver.Parse(b)
	if err != nil {
		return true
	}
	return pkgver.Compare(av, bv) > 0
}

func (db *DB) buildStoreBatch(ctx context.Context, m *Manifest, isLatest bool) ([]kvstore.Op, error) {
	var ops []kvstore.Op

	indexOps, err := db.buildIndexOps(ctx, m, KindDep, m.Dependencies, isLatest)
	if err != nil {
		return nil, err
	}
	ops = append(ops, indexOps...)

	indexOps, err = db.buildIndexOps(ctx, m, KindDev, m.DevDependencies, isLatest)
	if err != nil {
		return nil, err
	}
	ops = append(ops, indexOps...)

	manifestBytes, err := encodeManifest(m)
	if err != nil {
		return nil, fmt.Errorf("depindex: Store: %w", err)
	}
	ops = append(ops, kvstore.Op{Kind: kvstore.OpPut, Key: keyPkg(m.Name, m.Version), Value: manifestBytes})

	if isLatest {
		ops = append(ops,
			kvstore.Op{Kind: kvstore.OpPut, Key: keyPkgLatest(m.Name), Value: manifestBytes},
			kvstore.Op{Kind: kvstore.OpPut, Key: keyLatestVersion(m.Name), Value: []byte(m.Version)},
		)
	}
	return ops, nil
}

func (db *DB) buildIndexOps(ctx context.Context, m *Manifest, kind Kind, deps map[string]string, isLatest bool) ([]kvstore.Op, error) {
	var ops []kvstore.Op
	for dep, rangeStr := range deps {
		enc, err := parseAndEncode(rangeStr)
		if err != nil {
			dlog.Warnf(ctx, "%v", &UnparseableStoredRange{
				Dependent: m.Name,
				Kind:      kind,
				Dep:       dep,
				Range:     rangeStr,
				Err:       err,
			})
			continue
		}

		value, err := encodeIndexValue(enc)
		if err != nil {
			return nil, fmt.Errorf("depindex: Store: %w", err)
		}
		ops = append(ops, kvstore.Op{
			Kind:  kvstore.OpPut,
			Key:   keyIndex(kind, dep, m.Name, m.Version),
			Value: value,
		})

		if isLatest {
			latestValue, err := encodeIndexLatestValue(latestIndexValue{Version: m.Version, Sets: enc})
			if err != nil {
				return nil, fmt.Errorf("depindex: Store: %w", err)
			}
			ops = append(ops, kvstore.Op{
				Kind:  kvstore.OpPut,
				Key:   keyIndexLatest(kind, dep, m.Name),
				Value: latestValue,
			})
		}
	}
	return ops, nil
}

func parseAndEncode(rangeStr string) (rangeexpr.EncodedRange, error) {
	d, err := rangeexpr.ParseRange(rangeStr)
	if err != nil {
		return rangeexpr.EncodedRange{}, err
	}
	return rangeexpr.Encode(d)
}
