package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	OrderStatusPending   = "pending"
	OrderStatusPaid      = "paid"
	OrderStatusCancelled = "cancelled"
)

// Order is produced downstream of an accepted offer. Tradepost records
// orders and surfaces them through the change feed; settlement is handled
// by an external collaborator.
type Order struct {
	OrderID   string                 `json:"order_id"`
	ListingID string                 `json:"listing_id"`
	OfferID   string                 `json:"offer_id"`
	BuyerID   string                 `json:"buyer_id"`
	SellerID  string                 `json:"seller_id"`
	Amount    decimal.Decimal        `json:"amount"`
	Status    string                 `json:"status"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`
	MetaData  map[string]interface{} `json:"meta_data,omitempty"`
}

// NewOrderFromOffer builds the order that materializes an accepted offer.
func NewOrderFromOffer(offer *Offer) *Order {
	return &Order{
		OrderID:   GenerateUUIDWithSuffix("ord"),
		ListingID: offer.ListingID,
		OfferID:   offer.OfferID,
		BuyerID:   offer.BidderID,
		SellerID:  offer.SellerID,
		Amount:    offer.Amount,
		Status:    OrderStatusPending,
	}
}
