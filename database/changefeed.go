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
	"time"

	"github.com/tradepost-hq/tradepost/internal/apierror"
	"github.com/tradepost-hq/tradepost/model"
)

// Delta queries for the change feed. Every query selects rows whose change
// timestamp is strictly greater than the supplied watermark, ordered
// ascending by that timestamp so a client can advance its watermark to the
// last row it processed. Results are capped at limit; rows beyond the cap
// are picked up by the next poll because the watermark only advances past
// rows actually returned.

func (d Datasource) GetListingChanges(ctx context.Context, since time.Time, limit int) ([]*model.ChangeRecord, error) {
	rows, err := d.Conn.QueryContext(ctx, `
		SELECT listing_id, owner_id, title, COALESCE(description, ''), asking_price, status, created_at, updated_at
		FROM tradepost.listings
		WHERE updated_at > $1
		ORDER BY updated_at ASC
		LIMIT $2
	`, since, limit)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to query listing changes", err)
	}
	defer rows.Close()

	changes := []*model.ChangeRecord{}
	for rows.Next() {
		listing := model.Listing{}
		err = rows.Scan(&listing.ListingID, &listing.OwnerID, &listing.Title, &listing.Description,
			&listing.AskingPrice, &listing.Status, &listing.CreatedAt, &listing.UpdatedAt)
		if err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan listing change", err)
		}
		changes = append(changes, &model.ChangeRecord{
			EntityID:   listing.ListingID,
			Status:     listing.Status,
			ChangeType: model.ClassifyChange(listing.CreatedAt, listing.UpdatedAt),
			CreatedAt:  listing.CreatedAt,
			UpdatedAt:  listing.UpdatedAt,
			Entity:     &listing,
		})
	}
	if err = rows.Err(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Error occurred while iterating over listing changes", err)
	}
	return changes, nil
}

func (d Datasource) GetOfferChanges(ctx context.Context, since time.Time, limit int) ([]*model.ChangeRecord, error) {
	rows, err := d.Conn.QueryContext(ctx, `
		SELECT offer_id, listing_id, bidder_id, seller_id, amount, status, COALESCE(message, ''), created_at, updated_at
		FROM tradepost.offers
		WHERE updated_at > $1
		ORDER BY updated_at ASC
		LIMIT $2
	`, since, limit)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to query offer changes", err)
	}
	defer rows.Close()

	changes := []*model.ChangeRecord{}
	for rows.Next() {
		offer := model.Offer{}
		err = rows.Scan(&offer.OfferID, &offer.ListingID, &offer.BidderID, &offer.SellerID,
			&offer.Amount, &offer.Status, &offer.Message, &offer.CreatedAt, &offer.UpdatedAt)
		if err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan offer change", err)
		}
		changes = append(changes, &model.ChangeRecord{
			EntityID:   offer.OfferID,
			Status:     offer.Status,
			ChangeType: model.ClassifyChange(offer.CreatedAt, offer.UpdatedAt),
			CreatedAt:  offer.CreatedAt,
			UpdatedAt:  offer.UpdatedAt,
			Entity:     &offer,
		})
	}
	if err = rows.Err(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Error occurred while iterating over offer changes", err)
	}
	return changes, nil
}

func (d Datasource) GetOrderChanges(ctx context.Context, since time.Time, limit int) ([]*model.ChangeRecord, error) {
	rows, err := d.Conn.QueryContext(ctx, `
		SELECT order_id, listing_id, offer_id, buyer_id, seller_id, amount, status, created_at, updated_at
		FROM tradepost.orders
		WHERE updated_at > $1
		ORDER BY updated_at ASC
		LIMIT $2
	`, since, limit)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to query order changes", err)
	}
	defer rows.Close()

	changes := []*model.ChangeRecord{}
	for rows.Next() {
		order := model.Order{}
		err = rows.Scan(&order.OrderID, &order.ListingID, &order.OfferID, &order.BuyerID,
			&order.SellerID, &order.Amount, &order.Status, &order.CreatedAt, &order.UpdatedAt)
		if err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan order change", err)
		}
		changes = append(changes, &model.ChangeRecord{
			EntityID:   order.OrderID,
			Status:     order.Status,
			ChangeType: model.ClassifyChange(order.CreatedAt, order.UpdatedAt),
			CreatedAt:  order.CreatedAt,
			UpdatedAt:  order.UpdatedAt,
			Entity:     &order,
		})
	}
	if err = rows.Err(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Error occurred while iterating over order changes", err)
	}
	return changes, nil
}

func (d Datasource) GetPaymentChanges(ctx context.Context, since time.Time, limit int) ([]*model.ChangeRecord, error) {
	rows, err := d.Conn.QueryContext(ctx, `
		SELECT payment_id, order_id, payer_id, amount, status, COALESCE(reference, ''), created_at, updated_at
		FROM tradepost.payments
		WHERE updated_at > $1
		ORDER BY updated_at ASC
		LIMIT $2
	`, since, limit)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to query payment changes", err)
	}
	defer rows.Close()

	changes := []*model.ChangeRecord{}
	for rows.Next() {
		payment := model.Payment{}
		err = rows.Scan(&payment.PaymentID, &payment.OrderID, &payment.PayerID,
			&payment.Amount, &payment.Status, &payment.Reference, &payment.CreatedAt, &payment.UpdatedAt)
		if err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan payment change", err)
		}
		changes = append(changes, &model.ChangeRecord{
			EntityID:   payment.PaymentID,
			Status:     payment.Status,
			ChangeType: model.ClassifyChange(payment.CreatedAt, payment.UpdatedAt),
			CreatedAt:  payment.CreatedAt,
			UpdatedAt:  payment.UpdatedAt,
			Entity:     &payment,
		})
	}
	if err = rows.Err(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Error occurred while iterating over payment changes", err)
	}
	return changes, nil
}

// GetLogChanges feeds the append-only audit log. Log rows are never updated,
// so created_at is the delta column and every row classifies as "created".
func (d Datasource) GetLogChanges(ctx context.Context, since time.Time, limit int) ([]*model.ChangeRecord, error) {
	rows, err := d.Conn.QueryContext(ctx, `
		SELECT log_id, COALESCE(actor_id, ''), entity_type, entity_id, action, created_at
		FROM tradepost.logs
		WHERE created_at > $1
		ORDER BY created_at ASC
		LIMIT $2
	`, since, limit)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to query log changes", err)
	}
	defer rows.Close()

	changes := []*model.ChangeRecord{}
	for rows.Next() {
		entry := model.AuditLog{}
		err = rows.Scan(&entry.LogID, &entry.ActorID, &entry.EntityType, &entry.EntityID,
			&entry.Action, &entry.CreatedAt)
		if err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan log change", err)
		}
		changes = append(changes, &model.ChangeRecord{
			EntityID:   entry.LogID,
			ChangeType: model.ChangeTypeCreated,
			CreatedAt:  entry.CreatedAt,
			UpdatedAt:  entry.CreatedAt,
			Entity:     &entry,
		})
	}
	if err = rows.Err(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Error occurred while iterating over log changes", err)
	}
	return changes, nil
}
