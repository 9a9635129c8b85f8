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

package model

import (
	"fmt"
	"time"
)

// ChangeType classifies a change-feed row.
type ChangeType string

const (
	ChangeTypeCreated       ChangeType = "created"
	ChangeTypeStatusChanged ChangeType = "status_changed"
)

// Change-feed entity names as they appear on the wire. Unknown names in a
// feed request are ignored, which keeps the request format forward-compatible.
const (
	EntityListings = "listings"
	EntityOffers   = "offers"
	EntityOrders   = "orders"
	EntityPayments = "payments"
	EntityLogs     = "logs"
)

// FeedEntities lists every entity type the change feed serves, in the order
// the feed assembles them.
var FeedEntities = []string{EntityListings, EntityOffers, EntityOrders, EntityPayments, EntityLogs}

// IsFeedEntity reports whether name is a known change-feed entity type.
func IsFeedEntity(name string) bool {
	for _, e := range FeedEntities {
		if e == name {
			return true
		}
	}
	return false
}

// ChangeRecord is the ephemeral wire entity carried between the change-feed
// endpoint and a client dispatcher. It is never persisted. Entity holds the
// full row (a *Listing, *Offer, *Order, *Payment or *AuditLog) and is
// serialized inline with the envelope fields.
type ChangeRecord struct {
	EntityID   string      `json:"id"`
	Status     string      `json:"status,omitempty"`
	ChangeType ChangeType  `json:"change_type"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
	Entity     interface{} `json:"entity,omitempty"`
}

// CompositeKey derives the dedup identity of a change row. Two rows with the
// same id, status and change timestamp are the same observation even when the
// server returns them twice across overlapping watermark windows.
func (c *ChangeRecord) CompositeKey() string {
	return fmt.Sprintf("%s|%s|%d", c.EntityID, c.Status, c.UpdatedAt.UnixNano())
}

// ClassifyChange derives the change type from a row's timestamps: a row whose
// updated_at still equals its created_at has never been mutated since insert.
func ClassifyChange(createdAt, updatedAt time.Time) ChangeType {
	if updatedAt.Equal(createdAt) {
		return ChangeTypeCreated
	}
	return ChangeTypeStatusChanged
}
