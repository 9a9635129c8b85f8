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

package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/lib/pq"

	"github.com/tradepost-hq/tradepost/internal/apierror"
	"github.com/tradepost-hq/tradepost/model"
)

func (d Datasource) CreateOffer(ctx context.Context, offer *model.Offer) (*model.Offer, error) {
	metaDataJSON, err := json.Marshal(offer.MetaData)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to marshal metadata", err)
	}

	offer.OfferID = model.GenerateUUIDWithSuffix("off")
	offer.Status = model.OfferStatusPending
	offer.CreatedAt = time.Now()
	offer.UpdatedAt = offer.CreatedAt

	_, err = d.Conn.ExecContext(ctx, `
		INSERT INTO tradepost.offers (offer_id, listing_id, bidder_id, seller_id, amount, status, message, created_at, updated_at, meta_data)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8, $9)
	`, offer.OfferID, offer.ListingID, offer.BidderID, offer.SellerID, offer.Amount, offer.Status, offer.Message, offer.CreatedAt, metaDataJSON)

	if err != nil {
		pqErr, ok := err.(*pq.Error)
		if ok {
			switch pqErr.Code.Name() {
			case "unique_violation":
				return nil, apierror.NewAPIError(apierror.ErrConflict, "Offer with this ID already exists", err)
			case "foreign_key_violation":
				return nil, apierror.NewAPIError(apierror.ErrNotFound, "Listing not found for offer", err)
			default:
				return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Database error occurred", err)
			}
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to create offer", err)
	}

	return offer, nil
}

func (d Datasource) GetOfferByID(ctx context.Context, id string) (*model.Offer, error) {
	offer := model.Offer{}

	row := d.Conn.QueryRowContext(ctx, `
		SELECT offer_id, listing_id, bidder_id, seller_id, amount, status, COALESCE(message, ''), created_at, updated_at
		FROM tradepost.offers
		WHERE offer_id = $1
	`, id)

	err := row.Scan(&offer.OfferID, &offer.ListingID, &offer.BidderID, &offer.SellerID,
		&offer.Amount, &offer.Status, &offer.Message, &offer.CreatedAt, &offer.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, "Offer not found", err)
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve offer", err)
	}

	return &offer, nil
}

func (d Datasource) GetOffersByListing(ctx context.Context, listingID string) ([]*model.Offer, error) {
	return d.queryOffers(ctx, `
		SELECT offer_id, listing_id, bidder_id, seller_id, amount, status, COALESCE(message, ''), created_at, updated_at
		FROM tradepost.offers
		WHERE listing_id = $1
		ORDER BY created_at ASC, offer_id ASC
	`, listingID)
}

// GetPendingOffersByListing returns the listing's pending offers already in
// resolution order: highest amount first, then earliest bid, then offer ID.
// The first row, if any, is the winner every resolution trigger must agree on.
func (d Datasource) GetPendingOffersByListing(ctx context.Context, listingID string) ([]*model.Offer, error) {
	return d.queryOffers(ctx, `
		SELECT offer_id, listing_id, bidder_id, seller_id, amount, status, COALESCE(message, ''), created_at, updated_at
		FROM tradepost.offers
		WHERE listing_id = $1 AND status = 'pending'
		ORDER BY amount DESC, created_at ASC, offer_id ASC
	`, listingID)
}

func (d Datasource) queryOffers(ctx context.Context, query string, args ...interface{}) ([]*model.Offer, error) {
	rows, err := d.Conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve offers", err)
	}
	defer rows.Close()

	offers := []*model.Offer{}
	for rows.Next() {
		offer := model.Offer{}
		err = rows.Scan(&offer.OfferID, &offer.ListingID, &offer.BidderID, &offer.SellerID,
			&offer.Amount, &offer.Status, &offer.Message, &offer.CreatedAt, &offer.UpdatedAt)
		if err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan offer data", err)
		}
		offers = append(offers, &offer)
	}

	if err = rows.Err(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Error occurred while iterating over offers", err)
	}

	return offers, nil
}

// ApplyOfferResolution performs the whole set-transition for one listing as a
// single transaction: the winner moves pending→accepted, every other pending
// offer on the listing moves pending→rejected. Both updates are guarded by
// status = 'pending', so a concurrent resolution that already transitioned
// the rows makes the winner update match zero rows; the transaction is then
// rolled back and (false, 0, nil) is returned, which callers must treat as
// "already resolved", not as an error.
func (d Datasource) ApplyOfferResolution(ctx context.Context, listingID, winnerID string) (bool, int64, error) {
	tx, err := d.Conn.BeginTx(ctx, nil)
	if err != nil {
		return false, 0, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to begin resolution transaction", err)
	}

	result, err := tx.ExecContext(ctx, `
		UPDATE tradepost.offers
		SET status = 'accepted', updated_at = NOW()
		WHERE offer_id = $1 AND listing_id = $2 AND status = 'pending'
	`, winnerID, listingID)
	if err != nil {
		_ = tx.Rollback()
		return false, 0, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to accept winning offer", err)
	}

	accepted, err := result.RowsAffected()
	if err != nil {
		_ = tx.Rollback()
		return false, 0, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to read accept result", err)
	}
	if accepted == 0 {
		// Lost the race: another trigger already transitioned the winner.
		_ = tx.Rollback()
		return false, 0, nil
	}

	result, err = tx.ExecContext(ctx, `
		UPDATE tradepost.offers
		SET status = 'rejected', updated_at = NOW()
		WHERE listing_id = $1 AND status = 'pending' AND offer_id <> $2
	`, listingID, winnerID)
	if err != nil {
		_ = tx.Rollback()
		return false, 0, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to reject competing offers", err)
	}

	rejected, err := result.RowsAffected()
	if err != nil {
		_ = tx.Rollback()
		return false, 0, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to read reject result", err)
	}

	if err := tx.Commit(); err != nil {
		return false, 0, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to commit resolution", err)
	}

	return true, rejected, nil
}

// RejectOffer transitions a single offer pending→rejected. Returns false
// without error when the offer was no longer pending.
func (d Datasource) RejectOffer(ctx context.Context, offerID string) (bool, error) {
	result, err := d.Conn.ExecContext(ctx, `
		UPDATE tradepost.offers
		SET status = 'rejected', updated_at = NOW()
		WHERE offer_id = $1 AND status = 'pending'
	`, offerID)
	if err != nil {
		return false, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to reject offer", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to read reject result", err)
	}
	return affected == 1, nil
}
