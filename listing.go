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

package tradepost

import (
	"context"
	"fmt"
	"time"

	"github.com/tradepost-hq/tradepost/internal/apierror"
	"github.com/tradepost-hq/tradepost/model"
)

// listingCacheTTL bounds staleness for cached listing reads. Status
// transitions invalidate the key eagerly, so the TTL only covers out-of-band
// database changes.
const listingCacheTTL = 5 * time.Minute

// CreateListing creates a new listing in "pending" status. Listings must be
// approved by a moderator before they can receive offers.
func (t *Tradepost) CreateListing(ctx context.Context, listing *model.Listing) (*model.Listing, error) {
	ctx, span := tracer.Start(ctx, "Creating listing")
	defer span.End()

	if listing.Title == "" {
		return nil, apierror.NewAPIError(apierror.ErrBadRequest, "listing title is required", nil)
	}
	if listing.AskingPrice.IsNegative() {
		return nil, apierror.NewAPIError(apierror.ErrBadRequest, "asking price cannot be negative", nil)
	}
	listing.Status = model.ListingStatusPending

	created, err := t.datasource.CreateListing(ctx, listing)
	if err != nil {
		return nil, logAndRecordError(span, "create listing error", err)
	}
	t.logAction(ctx, listing.OwnerID, "listing", created.ListingID, "listing.created", map[string]interface{}{
		"title":        created.Title,
		"asking_price": created.AskingPrice.String(),
	})
	go func() {
		if err := t.SendWebhook(NewWebhook{Event: EventListingCreated, Payload: created}); err != nil {
			notifyError(err)
		}
	}()
	return created, nil
}

// GetListing retrieves a single listing by ID, reading through the cache.
func (t *Tradepost) GetListing(ctx context.Context, id string) (*model.Listing, error) {
	key := fmt.Sprintf("listing:%s", id)
	var cached model.Listing
	if err := t.cache.Get(ctx, key, &cached); err == nil && cached.ListingID != "" {
		return &cached, nil
	}

	listing, err := t.datasource.GetListingByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := t.cache.Set(ctx, key, listing, listingCacheTTL); err != nil {
		notifyError(err)
	}
	return listing, nil
}

// GetAllListings retrieves a page of listings.
func (t *Tradepost) GetAllListings(ctx context.Context, limit, offset int) ([]*model.Listing, error) {
	return t.datasource.GetAllListings(ctx, limit, offset)
}

// ApproveListing transitions a listing from "pending" to "approved", opening it
// to offers. Approving a listing that is not pending fails with a conflict.
func (t *Tradepost) ApproveListing(ctx context.Context, id, actorID string) (*model.Listing, error) {
	ctx, span := tracer.Start(ctx, "Approving listing")
	defer span.End()

	return t.transitionListing(ctx, id, actorID, model.ListingStatusPending, model.ListingStatusApproved, "listing.approved")
}

// RejectListing transitions a listing from "pending" to "rejected".
func (t *Tradepost) RejectListing(ctx context.Context, id, actorID string) (*model.Listing, error) {
	ctx, span := tracer.Start(ctx, "Rejecting listing")
	defer span.End()

	return t.transitionListing(ctx, id, actorID, model.ListingStatusPending, model.ListingStatusRejected, "listing.rejected")
}

// MarkListingSold transitions a listing from "approved" to "sold" after its
// winning offer materializes into an order. The transition is guarded, so a
// listing that is already sold is left untouched.
func (t *Tradepost) MarkListingSold(ctx context.Context, id, actorID string) (*model.Listing, error) {
	ctx, span := tracer.Start(ctx, "Marking listing sold")
	defer span.End()

	listing, err := t.transitionListing(ctx, id, actorID, model.ListingStatusApproved, model.ListingStatusSold, "listing.sold")
	if err != nil {
		return nil, err
	}
	if err := t.SendWebhook(NewWebhook{Event: EventListingSold, Payload: listing}); err != nil {
		notifyError(err)
	}
	return listing, nil
}

func (t *Tradepost) transitionListing(ctx context.Context, id, actorID, fromStatus, toStatus, action string) (*model.Listing, error) {
	applied, err := t.datasource.UpdateListingStatus(ctx, id, fromStatus, toStatus)
	if err != nil {
		return nil, err
	}
	listing, err := t.datasource.GetListingByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !applied {
		if listing.Status == toStatus {
			// Another actor already applied this transition.
			return listing, nil
		}
		return nil, apierror.NewAPIError(apierror.ErrConflict,
			fmt.Sprintf("listing %s is %s, expected %s", id, listing.Status, fromStatus), nil)
	}
	t.logAction(ctx, actorID, "listing", id, action, map[string]interface{}{
		"from": fromStatus,
		"to":   toStatus,
	})
	if err := t.cache.Delete(ctx, fmt.Sprintf("listing:%s", id)); err != nil {
		notifyError(err)
	}
	return listing, nil
}
