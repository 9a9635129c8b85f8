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

	"github.com/tradepost-hq/tradepost/model"
)

// IDataSource defines the interface for data source operations, grouping related functionalities.
type IDataSource interface {
	listing    // Interface for listing-related operations
	offer      // Interface for offer-related operations
	order      // Interface for order-related operations
	payment    // Interface for payment-related operations
	auditLog   // Interface for audit-log operations
	changeFeed // Interface for change-feed delta queries
}

// listing defines methods for handling listings.
type listing interface {
	CreateListing(ctx context.Context, listing *model.Listing) (*model.Listing, error)      // Creates a new listing
	GetListingByID(ctx context.Context, id string) (*model.Listing, error)                  // Retrieves a listing by ID
	GetAllListings(ctx context.Context, limit, offset int) ([]*model.Listing, error)        // Retrieves all listings
	UpdateListingStatus(ctx context.Context, id, fromStatus, toStatus string) (bool, error) // Conditionally transitions a listing's status
}

// offer defines methods for handling offers, including the guarded set-transition
// that resolves a listing's competing offers.
type offer interface {
	CreateOffer(ctx context.Context, offer *model.Offer) (*model.Offer, error)                 // Creates a new pending offer
	GetOfferByID(ctx context.Context, id string) (*model.Offer, error)                         // Retrieves an offer by ID
	GetOffersByListing(ctx context.Context, listingID string) ([]*model.Offer, error)          // Retrieves all offers on a listing
	GetPendingOffersByListing(ctx context.Context, listingID string) ([]*model.Offer, error)   // Retrieves pending offers in resolution order
	ApplyOfferResolution(ctx context.Context, listingID, winnerID string) (bool, int64, error) // Atomically accepts the winner and rejects siblings
	RejectOffer(ctx context.Context, offerID string) (bool, error)                             // Conditionally rejects a single pending offer
}

// order defines methods for handling orders.
type order interface {
	RecordOrder(ctx context.Context, order *model.Order) (*model.Order, error)   // Records an order produced by an accepted offer
	GetOrderByID(ctx context.Context, id string) (*model.Order, error)           // Retrieves an order by ID
	GetAllOrders(ctx context.Context, limit, offset int) ([]*model.Order, error) // Retrieves all orders
}

// payment defines methods for handling payments.
type payment interface {
	RecordPayment(ctx context.Context, payment *model.Payment) (*model.Payment, error) // Records a payment against an order
	GetAllPayments(ctx context.Context, limit, offset int) ([]*model.Payment, error)   // Retrieves all payments
}

// auditLog defines methods for the append-only audit log.
type auditLog interface {
	RecordAuditLog(ctx context.Context, entry *model.AuditLog) error                // Appends an audit record
	GetAuditLogs(ctx context.Context, limit, offset int) ([]*model.AuditLog, error) // Retrieves audit records, newest first
}

// changeFeed defines per-entity delta queries: rows changed strictly after the
// supplied watermark, ascending by change time, capped at limit.
type changeFeed interface {
	GetListingChanges(ctx context.Context, since time.Time, limit int) ([]*model.ChangeRecord, error)
	GetOfferChanges(ctx context.Context, since time.Time, limit int) ([]*model.ChangeRecord, error)
	GetOrderChanges(ctx context.Context, since time.Time, limit int) ([]*model.ChangeRecord, error)
	GetPaymentChanges(ctx context.Context, since time.Time, limit int) ([]*model.ChangeRecord, error)
	GetLogChanges(ctx context.Context, since time.Time, limit int) ([]*model.ChangeRecord, error)
}
