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
	"time"

	"github.com/shopspring/decimal"
)

const (
	OfferStatusPending  = "pending"
	OfferStatusAccepted = "accepted"
	OfferStatusRejected = "rejected"
)

// Offer represents a buyer's bid on a listing. An offer is created as
// "pending" and transitions exactly once to "accepted" or "rejected";
// both states are terminal. For any listing at most one offer is ever
// "accepted".
type Offer struct {
	OfferID   string                 `json:"offer_id"`
	ListingID string                 `json:"listing_id"`
	BidderID  string                 `json:"bidder_id"`
	SellerID  string                 `json:"seller_id"`
	Amount    decimal.Decimal        `json:"amount"`
	Status    string                 `json:"status"`
	Message   string                 `json:"message,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`
	MetaData  map[string]interface{} `json:"meta_data,omitempty"`
}

// IsTerminal reports whether the offer has reached a final state.
func (o *Offer) IsTerminal() bool {
	return o.Status == OfferStatusAccepted || o.Status == OfferStatusRejected
}

// Outbids reports whether o beats other under the resolution ordering:
// higher amount wins; on equal amounts the earlier bid wins; equal
// timestamps fall back to the lexicographically smaller offer ID so that
// two racing resolution triggers always converge on the same winner.
func (o *Offer) Outbids(other *Offer) bool {
	switch o.Amount.Cmp(other.Amount) {
	case 1:
		return true
	case -1:
		return false
	}
	if !o.CreatedAt.Equal(other.CreatedAt) {
		return o.CreatedAt.Before(other.CreatedAt)
	}
	return o.OfferID < other.OfferID
}

// HighestOffer selects the winning offer from a set of competing offers.
// Returns nil for an empty set. The selection is deterministic for any
// permutation of the input.
func HighestOffer(offers []*Offer) *Offer {
	var winner *Offer
	for _, offer := range offers {
		if winner == nil || offer.Outbids(winner) {
			winner = offer
		}
	}
	return winner
}
