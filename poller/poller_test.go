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

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/tradepost-hq/tradepost/model"
)

type fakeFetcher struct {
	batches []map[string][]*model.ChangeRecord
	err     error
	calls   int
}

func (f *fakeFetcher) FetchChanges(_ context.Context, _ map[string]time.Time) (map[string][]*model.ChangeRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	batch := f.batches[f.calls]
	if f.calls < len(f.batches)-1 {
		f.calls++
	}
	return batch, nil
}

func record(id, status string, ts time.Time) *model.ChangeRecord {
	return &model.ChangeRecord{
		EntityID:   id,
		Status:     status,
		ChangeType: model.ChangeTypeCreated,
		CreatedAt:  ts,
		UpdatedAt:  ts,
	}
}

func TestPollOnce_DispatchesInOrderAndAdvancesWatermark(t *testing.T) {
	t1 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Minute)
	t3 := t2.Add(time.Minute)

	fetcher := &fakeFetcher{batches: []map[string][]*model.ChangeRecord{{
		"offers": {record("off_3", "pending", t3), record("off_1", "pending", t1), record("off_2", "pending", t2)},
	}}}

	var dispatched []string
	p := New(Config{
		Fetcher:  fetcher,
		Store:    NewWatermarkStore(""),
		Entities: []string{"offers"},
		Handler: func(entity string, r *model.ChangeRecord) error {
			dispatched = append(dispatched, r.EntityID)
			return nil
		},
	})

	assert.NoError(t, p.pollOnce(context.Background()))
	assert.Equal(t, []string{"off_1", "off_2", "off_3"}, dispatched)
	assert.True(t, p.store.Get("offers").Equal(t3))
}

func TestPollOnce_RedeliveredRecordsDispatchOnce(t *testing.T) {
	t1 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Minute)
	t3 := t2.Add(time.Minute)

	// The second batch redelivers t2's record alongside the new t3 record.
	fetcher := &fakeFetcher{batches: []map[string][]*model.ChangeRecord{
		{"offers": {record("off_1", "pending", t1), record("off_2", "pending", t2)}},
		{"offers": {record("off_2", "pending", t2), record("off_3", "pending", t3)}},
	}}

	counts := map[string]int{}
	p := New(Config{
		Fetcher:  fetcher,
		Store:    NewWatermarkStore(""),
		Entities: []string{"offers"},
		Handler: func(entity string, r *model.ChangeRecord) error {
			counts[r.EntityID]++
			return nil
		},
	})

	assert.NoError(t, p.pollOnce(context.Background()))
	assert.NoError(t, p.pollOnce(context.Background()))

	assert.Equal(t, 1, counts["off_1"])
	assert.Equal(t, 1, counts["off_2"])
	assert.Equal(t, 1, counts["off_3"])
	assert.True(t, p.store.Get("offers").Equal(t3))
}

func TestPollOnce_StatusChangeIsANewDispatch(t *testing.T) {
	t1 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Minute)

	fetcher := &fakeFetcher{batches: []map[string][]*model.ChangeRecord{
		{"offers": {record("off_1", "pending", t1)}},
		{"offers": {record("off_1", "accepted", t2)}},
	}}

	var statuses []string
	p := New(Config{
		Fetcher:  fetcher,
		Store:    NewWatermarkStore(""),
		Entities: []string{"offers"},
		Handler: func(entity string, r *model.ChangeRecord) error {
			statuses = append(statuses, r.Status)
			return nil
		},
	})

	assert.NoError(t, p.pollOnce(context.Background()))
	assert.NoError(t, p.pollOnce(context.Background()))
	assert.Equal(t, []string{"pending", "accepted"}, statuses)
}

func TestPollOnce_HandlerFailureHoldsWatermark(t *testing.T) {
	t1 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Minute)

	fetcher := &fakeFetcher{batches: []map[string][]*model.ChangeRecord{{
		"offers": {record("off_1", "pending", t1), record("off_2", "pending", t2)},
	}}}

	p := New(Config{
		Fetcher:  fetcher,
		Store:    NewWatermarkStore(""),
		Entities: []string{"offers"},
		Handler: func(entity string, r *model.ChangeRecord) error {
			if r.EntityID == "off_2" {
				return errors.New("downstream unavailable")
			}
			return nil
		},
	})

	assert.NoError(t, p.pollOnce(context.Background()))

	// The first record landed, the failed one holds the watermark at t1 so
	// it is redelivered next poll.
	assert.True(t, p.store.Get("offers").Equal(t1))
	assert.False(t, p.dedup.Seen(record("off_2", "pending", t2).CompositeKey()))
}

func TestPollOnce_FetchFailureLeavesWatermarksUntouched(t *testing.T) {
	store := NewWatermarkStore("")
	t0 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	store.Advance("offers", t0)

	p := New(Config{
		Fetcher:  &fakeFetcher{err: errors.New("connection refused")},
		Store:    store,
		Entities: []string{"offers"},
		Handler: func(entity string, r *model.ChangeRecord) error {
			t.Fatal("handler must not run on fetch failure")
			return nil
		},
	})

	assert.Error(t, p.pollOnce(context.Background()))
	assert.True(t, store.Get("offers").Equal(t0))
}

func TestPollOnce_OmittedEntityRetriesLater(t *testing.T) {
	t1 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	store := NewWatermarkStore("")
	store.Advance("listings", t1)

	// The server dropped the listings key: its delta query failed there.
	fetcher := &fakeFetcher{batches: []map[string][]*model.ChangeRecord{{
		"offers": {record("off_1", "pending", t1)},
	}}}

	p := New(Config{
		Fetcher:  fetcher,
		Store:    store,
		Entities: []string{"listings", "offers"},
		Handler: func(entity string, r *model.ChangeRecord) error {
			return nil
		},
	})

	assert.NoError(t, p.pollOnce(context.Background()))
	assert.True(t, store.Get("listings").Equal(t1))
	assert.True(t, store.Get("offers").Equal(t1))
}

func TestStart_StopsOnContextCancel(t *testing.T) {
	fetcher := &fakeFetcher{batches: []map[string][]*model.ChangeRecord{{}}}
	p := New(Config{
		Fetcher:  fetcher,
		Store:    NewWatermarkStore(""),
		Interval: time.Millisecond,
		Handler: func(entity string, r *model.ChangeRecord) error {
			return nil
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Start(ctx)
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop after context cancellation")
	}
}
