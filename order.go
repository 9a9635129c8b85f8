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

	"github.com/tradepost-hq/tradepost/internal/apierror"
	"github.com/tradepost-hq/tradepost/model"
)

// MaterializeOrder records the order for an accepted offer and marks its
// listing sold. It is the body of the order queue worker and is safe to
// retry: the order table's unique offer constraint swallows duplicates and
// the listing transition is guarded.
func (t *Tradepost) MaterializeOrder(ctx context.Context, offerID string) (*model.Order, error) {
	ctx, span := tracer.Start(ctx, "Materializing order")
	defer span.End()

	offer, err := t.datasource.GetOfferByID(ctx, offerID)
	if err != nil {
		return nil, logAndRecordError(span, "fetch offer error", err)
	}
	if offer.Status != model.OfferStatusAccepted {
		return nil, apierror.NewAPIError(apierror.ErrConflict,
			fmt.Sprintf("offer %s is %s, only accepted offers produce orders", offerID, offer.Status), nil)
	}

	order, err := t.datasource.RecordOrder(ctx, model.NewOrderFromOffer(offer))
	if err != nil {
		var apiErr apierror.APIError
		if errors.As(err, &apiErr) && apiErr.Code == apierror.ErrConflict {
			// A previous attempt already recorded this order.
			span.AddEvent("order already recorded")
		} else {
			return nil, logAndRecordError(span, "record order error", err)
		}
	}
	if order != nil {
		t.logAction(ctx, offer.BidderID, "order", order.OrderID, "order.created", map[string]interface{}{
			"listing_id": order.ListingID,
			"offer_id":   order.OfferID,
			"amount":     order.Amount.String(),
		})
	}

	if _, err := t.MarkListingSold(ctx, offer.ListingID, offer.SellerID); err != nil {
		return nil, logAndRecordError(span, "mark listing sold error", err)
	}
	return order, nil
}

// GetOrder retrieves a single order by ID.
func (t *Tradepost) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	return t.datasource.GetOrderByID(ctx, id)
}

// GetAllOrders retrieves a page of orders.
func (t *Tradepost) GetAllOrders(ctx context.Context, limit, offset int) ([]*model.Order, error) {
	return t.datasource.GetAllOrders(ctx, limit, offset)
}
