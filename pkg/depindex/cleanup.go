// Copyright (C) 2021-2022  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package depindex

import "context"

// cleanup implements the lazy-cleanup protocol (§4.5.1): a latest-scan
// candidate whose current manifest no longer declares the queried
// dependency has its stale !index-latest! entry removed, unless the
// dependent's latest version has moved again since the candidate was
// observed (in which case cleanup aborts and does nothing, leaving the
// race to a future query).
func (db *DB) cleanup(ctx context.Context, kind Kind, dep, dependent, seenVersion string) error {
	if err := db.lock(ctx); err != nil {
		return err
	}
	defer db.unlock()

	cur, found, err := db.store.Get(ctx, keyLatestVersion(dependent))
	if err != nil {
		return wrapStoreErr("cleanup", err)
	}
	if !found || string(cur) != seenVersion {
		return nil
	}

	if err := db.store.Del(ctx, keyIndexLatest(kind, dep, dependent)); err != nil {
		return wrapStoreErr("cleanup", err)
	}
	return nil
}
