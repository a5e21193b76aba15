// Copyright (C) 2021-2022  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package depindex

import (
	"container/list"
	"sync"
)

// defaultCacheCapacity bounds the latest-version cache (§4.6).
const defaultCacheCapacity = 1000

// latestVersionCache is a bounded name→version mapping, evicted by
// recency. It is populated only on write (§4.6: "not populated on
// query-time reads, to avoid caching stale pointers").
type latestVersionCache struct {
	mu       sync.Mutex
	capacity int
	entries  map[string]*list.Element
	order    *list.List // front = most recently used
}

type cacheEntry struct {
	name    string
	version string
}

func newLatestVersionCache(capacity int) *latestVersionCache {
	if capacity <= 0 {
		capacity = defaultCacheCapacity
	}
	return &latestVersionCache{
		capacity: capacity,
		entries:  make(map[string]*list.Element),
		order:    list.New(),
	}
}

// Get returns the cached latest version for name, if present.
func (c *latestVersionCache) Get(name string) (version string, found bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.entries[name]
	if !ok {
		return "", false
	}
	c.order.MoveToFront(el)
	return el.Value.(*cacheEntry).version, true
}

// Set records name's latest version, evicting the least-recently-used entry
// if the cache is at capacity.
func (c *latestVersionCache) Set(name, version string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[name]; ok {
		el.Value.(*cacheEntry).version = version
		c.order.MoveToFront(el)
		return
	}
	el := c.order.PushFront(&cacheEntry{name: name, version: version})
	c.entries[name] = el
	if c.order.Len() > c.capacity {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.entries, oldest.Value.(*cacheEntry).name)
		}
	}
}
