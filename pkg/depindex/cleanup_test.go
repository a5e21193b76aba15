// Copyright (C) 2021-2022  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package depindex_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datawire/depindex/pkg/depindex"
	"github.com/datawire/depindex/pkg/kvstore/memstore"
)

// TestCleanupPreservesManifest is property 6 / the second resolved open
// question: cleanup removes only the stale !index-latest! entry, never the
// dependent's own manifest records.
func TestCleanupPreservesManifest(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := depindex.Open(memstore.New())

	require.NoError(t, db.Store(ctx, &depindex.Manifest{
		Name: "a", Version: "1.0.0",
		Dependencies: map[string]string{"b": "^1.2.0"},
	}))
	require.NoError(t, db.Store(ctx, &depindex.Manifest{
		Name: "a", Version: "2.0.0",
	}))

	// Triggers cleanup of the now-stale !index-latest!dep!b!a entry.
	stream, err := db.Query(ctx, "b", "1.5.0", depindex.QueryOptions{})
	require.NoError(t, err)
	got, err := stream.Collect(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)

	// The dependent's own per-version index entry for "b" must survive
	// the cleanup: only the latest-index entry is stale, not the
	// per-version one.
	allStream, err := db.Query(ctx, "b", "1.5.0", depindex.QueryOptions{All: true})
	require.NoError(t, err)
	allGot, err := allStream.Collect(ctx)
	require.NoError(t, err)
	require.Len(t, allGot, 1, "per-version index entry must survive the latest-index cleanup")
	assert.Equal(t, "1.0.0", allGot[0].Version)

	// A second identical query still comes back empty.
	stream2, err := db.Query(ctx, "b", "1.5.0", depindex.QueryOptions{})
	require.NoError(t, err)
	got2, err := stream2.Collect(ctx)
	require.NoError(t, err)
	assert.Empty(t, got2)
}
