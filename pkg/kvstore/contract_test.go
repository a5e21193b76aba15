// Copyright (C) 2021-2022  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package kvstore_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datawire/depindex/pkg/kvstore"
	"github.com/datawire/depindex/pkg/kvstore/boltstore"
	"github.com/datawire/depindex/pkg/kvstore/memstore"
)

// testStores exercises every pkg/kvstore.Store implementation against the
// same contract, so a regression in one backend's Scan bounds or Batch
// atomicity shows up regardless of which store a caller happens to use.
func testStores(t *testing.T) map[string]kvstore.Store {
	t.Helper()
	bolt, err := boltstore.Open(filepath.Join(t.TempDir(), "test.bolt"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = bolt.Close() })
	return map[string]kvstore.Store{
		"memstore":  memstore.New(),
		"boltstore": bolt,
	}
}

func TestStoreGetPutDel(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	for name, store := range testStores(t) {
		name, store := name, store
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, found, err := store.Get(ctx, []byte("missing"))
			require.NoError(t, err)
			assert.False(t, found)

			require.NoError(t, store.Batch(ctx, []kvstore.Op{
				{Kind: kvstore.OpPut, Key: []byte("k1"), Value: []byte("v1")},
			}))
			v, found, err := store.Get(ctx, []byte("k1"))
			require.NoError(t, err)
			require.True(t, found)
			assert.Equal(t, []byte("v1"), v)

			require.NoError(t, store.Del(ctx, []byte("k1")))
			_, found, err = store.Get(ctx, []byte("k1"))
			require.NoError(t, err)
			assert.False(t, found)
		})
	}
}

func TestStoreBatchAtomicity(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	for name, store := range testStores(t) {
		name, store := name, store
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			require.NoError(t, store.Batch(ctx, []kvstore.Op{
				{Kind: kvstore.OpPut, Key: []byte("a"), Value: []byte("1")},
				{Kind: kvstore.OpPut, Key: []byte("b"), Value: []byte("2")},
			}))
			for _, k := range []string{"a", "b"} {
				_, found, err := store.Get(ctx, []byte(k))
				require.NoError(t, err)
				assert.True(t, found)
			}
		})
	}
}

func TestStoreScanOrderAndBounds(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	for name, store := range testStores(t) {
		name, store := name, store
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			keys := []string{"a", "b", "c", "d", "e"}
			ops := make([]kvstore.Op, len(keys))
			for i, k := range keys {
				ops[i] = kvstore.Op{Kind: kvstore.OpPut, Key: []byte(k), Value: []byte(k)}
			}
			require.NoError(t, store.Batch(ctx, ops))

			stream, err := store.Scan(ctx, kvstore.ScanOptions{GT: []byte("a"), LT: []byte("e")})
			require.NoError(t, err)
			defer stream.Close()

			var got []string
			for {
				rec, ok, err := stream.Next(ctx)
				require.NoError(t, err)
				if !ok {
					break
				}
				got = append(got, string(rec.Key))
			}
			assert.Equal(t, []string{"b", "c", "d"}, got)
		})
	}
}

func TestStoreScanLimit(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	for name, store := range testStores(t) {
		name, store := name, store
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			for _, k := range []string{"a", "b", "c"} {
				require.NoError(t, store.Batch(ctx, []kvstore.Op{
					{Kind: kvstore.OpPut, Key: []byte(k), Value: []byte(k)},
				}))
			}
			stream, err := store.Scan(ctx, kvstore.ScanOptions{Limit: 2})
			require.NoError(t, err)
			defer stream.Close()

			var got []string
			for {
				rec, ok, err := stream.Next(ctx)
				require.NoError(t, err)
				if !ok {
					break
				}
				got = append(got, string(rec.Key))
			}
			assert.Len(t, got, 2)
		})
	}
}
