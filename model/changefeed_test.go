package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClassifyChange(t *testing.T) {
	created := time.Now()

	assert.Equal(t, ChangeTypeCreated, ClassifyChange(created, created))
	assert.Equal(t, ChangeTypeStatusChanged, ClassifyChange(created, created.Add(time.Minute)))
}

func TestCompositeKey_DistinguishesStatusTransitions(t *testing.T) {
	now := time.Now()
	pending := &ChangeRecord{EntityID: "off_1", Status: OfferStatusPending, UpdatedAt: now}
	accepted := &ChangeRecord{EntityID: "off_1", Status: OfferStatusAccepted, UpdatedAt: now.Add(time.Second)}
	duplicate := &ChangeRecord{EntityID: "off_1", Status: OfferStatusPending, UpdatedAt: now}

	assert.NotEqual(t, pending.CompositeKey(), accepted.CompositeKey())
	assert.Equal(t, pending.CompositeKey(), duplicate.CompositeKey())
}

func TestIsFeedEntity(t *testing.T) {
	for _, e := range FeedEntities {
		assert.True(t, IsFeedEntity(e))
	}
	assert.False(t, IsFeedEntity("users"))
	assert.False(t, IsFeedEntity(""))
}
