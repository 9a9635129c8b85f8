/*
Copyright 2025 Tradepost Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package poller

import "sync"

// DedupCache remembers which change records have already been dispatched, so
// a record redelivered by an overlapping fetch is not handled twice. Each
// poller owns its cache; nothing is shared between pollers.
//
// Keys are evicted oldest-first once the cache exceeds its capacity. The
// capacity only needs to cover the redelivery window of a few fetch batches.
type DedupCache struct {
	mu       sync.Mutex
	capacity int
	seen     map[string]struct{}
	order    []string
}

const defaultDedupCapacity = 4096

// NewDedupCache creates a cache holding up to capacity keys. A non-positive
// capacity falls back to the default.
func NewDedupCache(capacity int) *DedupCache {
	if capacity <= 0 {
		capacity = defaultDedupCapacity
	}
	return &DedupCache{
		capacity: capacity,
		seen:     make(map[string]struct{}, capacity),
	}
}

// Seen reports whether key has been marked.
func (d *DedupCache) Seen(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.seen[key]
	return ok
}

// Mark records key as dispatched, evicting the oldest key if the cache is
// full.
func (d *DedupCache) Mark(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[key]; ok {
		return
	}
	if len(d.order) >= d.capacity {
		oldest := d.order[0]
		d.order = d.order[1:]
		delete(d.seen, oldest)
	}
	d.seen[key] = struct{}{}
	d.order = append(d.order, key)
}
