package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	ListingStatusPending  = "pending"
	ListingStatusApproved = "approved"
	ListingStatusRejected = "rejected"
	ListingStatusSold     = "sold"
)

// Listing represents an item put up for sale on the marketplace.
// Offers reference a listing; when one offer is accepted the listing
// transitions to "sold".
type Listing struct {
	ListingID   string                 `json:"listing_id"`
	OwnerID     string                 `json:"owner_id"`
	Title       string                 `json:"title"`
	Description string                 `json:"description,omitempty"`
	AskingPrice decimal.Decimal        `json:"asking_price"`
	Status      string                 `json:"status"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
	MetaData    map[string]interface{} `json:"meta_data,omitempty"`
}

// CanReceiveOffers reports whether the listing is in a state that accepts new bids.
func (l *Listing) CanReceiveOffers() bool {
	return l.Status == ListingStatusApproved
}
