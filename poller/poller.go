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

// Package poller implements the client side of the change feed: a ticker
// driven loop that fetches change batches, deduplicates redeliveries,
// dispatches each record to a handler exactly once, and advances persistent
// per-entity watermarks only after the handler succeeds.
package poller

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/tradepost-hq/tradepost/model"
)

// Handler consumes a single change record. Returning an error stops dispatch
// for that entity; the record is redelivered on a later poll because the
// watermark does not advance past it.
type Handler func(entity string, record *model.ChangeRecord) error

// Fetcher is the transport the poller pulls batches through. *Client
// satisfies it.
type Fetcher interface {
	FetchChanges(ctx context.Context, watermarks map[string]time.Time) (map[string][]*model.ChangeRecord, error)
}

// Poller drives the fetch/dispatch loop. Create one with New; a Poller owns
// its watermark store and dedup cache and shares nothing with other pollers.
type Poller struct {
	fetcher  Fetcher
	store    *WatermarkStore
	dedup    *DedupCache
	handler  Handler
	entities []string
	interval time.Duration
}

// Config assembles a Poller.
type Config struct {
	Fetcher  Fetcher
	Store    *WatermarkStore
	Handler  Handler
	Entities []string      // defaults to every feed entity
	Interval time.Duration // defaults to 5s
	DedupCap int
}

func New(cfg Config) *Poller {
	entities := cfg.Entities
	if len(entities) == 0 {
		entities = model.FeedEntities
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Poller{
		fetcher:  cfg.Fetcher,
		store:    cfg.Store,
		dedup:    NewDedupCache(cfg.DedupCap),
		handler:  cfg.Handler,
		entities: entities,
		interval: interval,
	}
}

// Start runs the poll loop until ctx is cancelled. At most one fetch is in
// flight at a time: ticks that fire while a poll is running are dropped, not
// queued.
func (p *Poller) Start(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := p.pollOnce(ctx); err != nil {
				if ctx.Err() != nil {
					return
				}
				logrus.Errorf("poll failed: %v", err)
			}
			// Drop the tick that may have fired while polling.
			select {
			case <-ticker.C:
			default:
			}
		case <-ctx.Done():
			return
		}
	}
}

// pollOnce performs one fetch/dispatch cycle. A fetch error leaves every
// watermark untouched; a handler error stops dispatch for its entity only.
func (p *Poller) pollOnce(ctx context.Context) error {
	watermarks := make(map[string]time.Time, len(p.entities))
	for _, entity := range p.entities {
		watermarks[entity] = p.store.Get(entity)
	}

	batches, err := p.fetcher.FetchChanges(ctx, watermarks)
	if err != nil {
		return errors.Wrap(err, "fetch failed, watermarks unchanged")
	}
	// Results fetched across a cancellation are discarded.
	if ctx.Err() != nil {
		return ctx.Err()
	}

	for _, entity := range p.entities {
		records, ok := batches[entity]
		if !ok {
			// The server omitted this entity, so its query failed there.
			// The watermark stays put and the next poll retries.
			continue
		}
		p.dispatch(entity, records)
	}
	return nil
}

func (p *Poller) dispatch(entity string, records []*model.ChangeRecord) {
	// The server already orders batches by change time; sorting again keeps
	// the oldest-first guarantee even against a misbehaving server.
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].UpdatedAt.Before(records[j].UpdatedAt)
	})

	for _, record := range records {
		key := record.CompositeKey()
		if p.dedup.Seen(key) {
			// Already dispatched on an earlier poll; just move the
			// watermark along.
			p.store.Advance(entity, record.UpdatedAt)
			continue
		}
		if err := p.handler(entity, record); err != nil {
			logrus.Errorf("handler failed for %s %s, will redeliver: %v", entity, record.EntityID, err)
			return
		}
		p.dedup.Mark(key)
		p.store.Advance(entity, record.UpdatedAt)
	}
}
