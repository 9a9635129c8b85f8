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
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"

	"github.com/tradepost-hq/tradepost/internal/apierror"
	redlock "github.com/tradepost-hq/tradepost/internal/lock"
	"github.com/tradepost-hq/tradepost/internal/notification"
	"github.com/tradepost-hq/tradepost/model"
)

func logAndRecordError(span trace.Span, msg string, err error) error {
	span.RecordError(err)
	logrus.Error(msg, err)
	return fmt.Errorf("%s: %w", msg, err)
}

func notifyError(err error) {
	logrus.Error(err)
	notification.NotifyError(err)
}

// CreateOffer places a new pending offer on a listing. Offers are only
// accepted on approved listings.
func (t *Tradepost) CreateOffer(ctx context.Context, offer *model.Offer) (*model.Offer, error) {
	ctx, span := tracer.Start(ctx, "Creating offer")
	defer span.End()

	if !offer.Amount.IsPositive() {
		return nil, apierror.NewAPIError(apierror.ErrBadRequest, "offer amount must be positive", nil)
	}
	listing, err := t.datasource.GetListingByID(ctx, offer.ListingID)
	if err != nil {
		return nil, logAndRecordError(span, "fetch listing error", err)
	}
	if !listing.CanReceiveOffers() {
		return nil, apierror.NewAPIError(apierror.ErrConflict,
			fmt.Sprintf("listing %s is %s and cannot receive offers", listing.ListingID, listing.Status), nil)
	}
	offer.SellerID = listing.OwnerID
	offer.Status = model.OfferStatusPending

	created, err := t.datasource.CreateOffer(ctx, offer)
	if err != nil {
		return nil, logAndRecordError(span, "create offer error", err)
	}
	t.logAction(ctx, offer.BidderID, "offer", created.OfferID, "offer.created", map[string]interface{}{
		"listing_id": created.ListingID,
		"amount":     created.Amount.String(),
	})
	go func() {
		if err := t.SendWebhook(NewWebhook{Event: EventOfferCreated, Payload: created}); err != nil {
			notifyError(err)
		}
	}()
	return created, nil
}

// GetOffer retrieves a single offer by ID.
func (t *Tradepost) GetOffer(ctx context.Context, id string) (*model.Offer, error) {
	return t.datasource.GetOfferByID(ctx, id)
}

// GetOffersByListing retrieves all offers placed on a listing.
func (t *Tradepost) GetOffersByListing(ctx context.Context, listingID string) ([]*model.Offer, error) {
	return t.datasource.GetOffersByListing(ctx, listingID)
}

// acquireResolutionLock takes the per-listing lock that keeps concurrent
// resolvers from doing duplicate work. A held lock is not a failure: the
// guarded transition in ApplyOfferResolution is the real arbiter, so the
// caller proceeds without the lock and converges on the same outcome. Only
// transport errors are returned.
func (t *Tradepost) acquireResolutionLock(ctx context.Context, span trace.Span, listingID string) (*redlock.Locker, error) {
	locker := redlock.NewLocker(t.redis, fmt.Sprintf("resolve:%s", listingID), model.GenerateUUIDWithSuffix("loc"))
	err := locker.Lock(ctx, time.Minute)
	if errors.Is(err, redlock.ErrHeld) {
		span.AddEvent("resolution lock held by a concurrent resolver")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return locker, nil
}

// releaseResolutionLock releases the lock when this resolver holds one.
func (t *Tradepost) releaseResolutionLock(ctx context.Context, locker *redlock.Locker) {
	if locker == nil {
		return
	}
	if err := locker.Unlock(ctx); err != nil {
		logrus.Error("failed to release resolution lock", err)
	}
}

// ResolveListingOffers resolves all pending offers on a listing: the highest
// offer is accepted and every other pending offer is rejected, in one database
// transaction. The winner is chosen by amount, then earliest creation time,
// then offer ID, so concurrent resolutions always converge on the same offer.
//
// The per-listing lock narrows the window in which two resolvers do duplicate
// work; correctness does not depend on it. The guarded transition inside
// ApplyOfferResolution is what guarantees at most one accepted offer, and a
// resolver that loses the race simply returns the offer the winner accepted.
func (t *Tradepost) ResolveListingOffers(ctx context.Context, listingID, actorID string) (*model.Offer, error) {
	ctx, span := tracer.Start(ctx, "Resolving listing offers")
	defer span.End()

	locker, err := t.acquireResolutionLock(ctx, span, listingID)
	if err != nil {
		return nil, logAndRecordError(span, "lock acquisition error", err)
	}
	defer t.releaseResolutionLock(ctx, locker)

	pending, err := t.datasource.GetPendingOffersByListing(ctx, listingID)
	if err != nil {
		return nil, logAndRecordError(span, "fetch pending offers error", err)
	}
	if len(pending) == 0 {
		// Nothing to resolve. If a previous resolution already accepted an
		// offer, return it so retries are idempotent.
		return t.acceptedOffer(ctx, listingID)
	}

	winner := model.HighestOffer(pending)
	return t.resolve(ctx, span, winner, pending, actorID)
}

// AcceptOffer accepts a specific pending offer and rejects its pending
// siblings. Accepting an already-accepted offer is an idempotent no-op;
// accepting a rejected offer is a conflict.
func (t *Tradepost) AcceptOffer(ctx context.Context, offerID, actorID string) (*model.Offer, error) {
	ctx, span := tracer.Start(ctx, "Accepting offer")
	defer span.End()

	offer, err := t.datasource.GetOfferByID(ctx, offerID)
	if err != nil {
		return nil, logAndRecordError(span, "fetch offer error", err)
	}
	switch offer.Status {
	case model.OfferStatusAccepted:
		return offer, nil
	case model.OfferStatusRejected:
		return nil, apierror.NewAPIError(apierror.ErrConflict,
			fmt.Sprintf("offer %s has already been rejected", offerID), nil)
	}

	locker, err := t.acquireResolutionLock(ctx, span, offer.ListingID)
	if err != nil {
		return nil, logAndRecordError(span, "lock acquisition error", err)
	}
	defer t.releaseResolutionLock(ctx, locker)

	pending, err := t.datasource.GetPendingOffersByListing(ctx, offer.ListingID)
	if err != nil {
		return nil, logAndRecordError(span, "fetch pending offers error", err)
	}
	return t.resolve(ctx, span, offer, pending, actorID)
}

// resolve applies the guarded accept-and-reject transition and runs the
// post-resolution actions. When the guarded accept reports no rows changed,
// another resolver got there first and the offer it accepted is returned
// instead.
func (t *Tradepost) resolve(ctx context.Context, span trace.Span, winner *model.Offer, pending []*model.Offer, actorID string) (*model.Offer, error) {
	applied, rejected, err := t.datasource.ApplyOfferResolution(ctx, winner.ListingID, winner.OfferID)
	if err != nil {
		return nil, logAndRecordError(span, "apply resolution error", err)
	}
	if !applied {
		span.AddEvent("resolution already applied by a concurrent resolver")
		return t.acceptedOffer(ctx, winner.ListingID)
	}

	winner.Status = model.OfferStatusAccepted
	losers := make([]*model.Offer, 0, len(pending))
	for _, offer := range pending {
		if offer.OfferID != winner.OfferID {
			offer.Status = model.OfferStatusRejected
			losers = append(losers, offer)
		}
	}
	t.postResolutionActions(ctx, winner, losers, actorID, rejected)
	return winner, nil
}

func (t *Tradepost) postResolutionActions(ctx context.Context, winner *model.Offer, losers []*model.Offer, actorID string, rejected int64) {
	t.logAction(ctx, actorID, "offer", winner.OfferID, "offer.accepted", map[string]interface{}{
		"listing_id":      winner.ListingID,
		"amount":          winner.Amount.String(),
		"rejected_offers": rejected,
	})
	for _, loser := range losers {
		t.logAction(ctx, actorID, "offer", loser.OfferID, "offer.rejected", map[string]interface{}{
			"listing_id": loser.ListingID,
			"outbid_by":  winner.OfferID,
		})
	}

	if err := t.queue.queueOrder(winner); err != nil {
		notifyError(err)
	}
	if err := t.cache.Delete(ctx, fmt.Sprintf("listing:%s", winner.ListingID)); err != nil {
		notifyError(err)
	}

	go func() {
		if err := t.SendWebhook(NewWebhook{Event: EventOfferAccepted, Payload: winner}); err != nil {
			notifyError(err)
		}
		for _, loser := range losers {
			if err := t.SendWebhook(NewWebhook{Event: EventOfferRejected, Payload: loser}); err != nil {
				notifyError(err)
			}
		}
	}()
}

// acceptedOffer returns the accepted offer on a listing, or nil when no offer
// has been accepted yet.
func (t *Tradepost) acceptedOffer(ctx context.Context, listingID string) (*model.Offer, error) {
	offers, err := t.datasource.GetOffersByListing(ctx, listingID)
	if err != nil {
		return nil, err
	}
	for _, offer := range offers {
		if offer.Status == model.OfferStatusAccepted {
			return offer, nil
		}
	}
	return nil, nil
}

// RejectOffer rejects a single pending offer without touching its siblings.
// Rejecting an already-rejected offer is an idempotent no-op.
func (t *Tradepost) RejectOffer(ctx context.Context, offerID, actorID string) (*model.Offer, error) {
	ctx, span := tracer.Start(ctx, "Rejecting offer")
	defer span.End()

	applied, err := t.datasource.RejectOffer(ctx, offerID)
	if err != nil {
		return nil, logAndRecordError(span, "reject offer error", err)
	}
	offer, err := t.datasource.GetOfferByID(ctx, offerID)
	if err != nil {
		return nil, logAndRecordError(span, "fetch offer error", err)
	}
	if !applied {
		if offer.Status == model.OfferStatusRejected {
			return offer, nil
		}
		return nil, apierror.NewAPIError(apierror.ErrConflict,
			fmt.Sprintf("offer %s is %s and cannot be rejected", offerID, offer.Status), nil)
	}
	t.logAction(ctx, actorID, "offer", offerID, "offer.rejected", map[string]interface{}{
		"listing_id": offer.ListingID,
	})
	go func() {
		if err := t.SendWebhook(NewWebhook{Event: EventOfferRejected, Payload: offer}); err != nil {
			notifyError(err)
		}
	}()
	return offer, nil
}
