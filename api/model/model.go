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
	"errors"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/shopspring/decimal"

	"github.com/tradepost-hq/tradepost/model"
)

// CreateListing is the request body for POST /listings.
type CreateListing struct {
	OwnerID     string                 `json:"owner_id"`
	Title       string                 `json:"title"`
	Description string                 `json:"description"`
	AskingPrice decimal.Decimal        `json:"asking_price"`
	MetaData    map[string]interface{} `json:"meta_data"`
}

func (l *CreateListing) ValidateCreateListing() error {
	return validation.ValidateStruct(l,
		validation.Field(&l.OwnerID, validation.Required),
		validation.Field(&l.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&l.AskingPrice, validation.By(positiveAmount(l.AskingPrice))),
	)
}

func (l *CreateListing) ToListing() *model.Listing {
	return &model.Listing{
		OwnerID:     l.OwnerID,
		Title:       l.Title,
		Description: l.Description,
		AskingPrice: l.AskingPrice,
		MetaData:    l.MetaData,
	}
}

// CreateOffer is the request body for POST /offers.
type CreateOffer struct {
	ListingID string                 `json:"listing_id"`
	BidderID  string                 `json:"bidder_id"`
	Amount    decimal.Decimal        `json:"amount"`
	Message   string                 `json:"message"`
	MetaData  map[string]interface{} `json:"meta_data"`
}

func (o *CreateOffer) ValidateCreateOffer() error {
	return validation.ValidateStruct(o,
		validation.Field(&o.ListingID, validation.Required),
		validation.Field(&o.BidderID, validation.Required),
		validation.Field(&o.Amount, validation.By(positiveAmount(o.Amount))),
	)
}

func (o *CreateOffer) ToOffer() *model.Offer {
	return &model.Offer{
		ListingID: o.ListingID,
		BidderID:  o.BidderID,
		Amount:    o.Amount,
		Message:   o.Message,
		MetaData:  o.MetaData,
	}
}

// RecordPayment is the request body for POST /payments.
type RecordPayment struct {
	OrderID   string                 `json:"order_id"`
	PayerID   string                 `json:"payer_id"`
	Amount    decimal.Decimal        `json:"amount"`
	Status    string                 `json:"status"`
	Reference string                 `json:"reference"`
	MetaData  map[string]interface{} `json:"meta_data"`
}

func (p *RecordPayment) ValidateRecordPayment() error {
	return validation.ValidateStruct(p,
		validation.Field(&p.OrderID, validation.Required),
		validation.Field(&p.PayerID, validation.Required),
		validation.Field(&p.Amount, validation.By(positiveAmount(p.Amount))),
		validation.Field(&p.Status, validation.In("", model.PaymentStatusInitiated, model.PaymentStatusSettled, model.PaymentStatusFailed)),
	)
}

func (p *RecordPayment) ToPayment() *model.Payment {
	return &model.Payment{
		OrderID:   p.OrderID,
		PayerID:   p.PayerID,
		Amount:    p.Amount,
		Status:    p.Status,
		Reference: p.Reference,
		MetaData:  p.MetaData,
	}
}

// ChangesRequest is the request body for POST /changes: a map of entity name
// to RFC3339 watermark. Unknown entity names are ignored so older servers and
// newer clients can coexist.
type ChangesRequest map[string]string

// Watermarks parses the request into per-entity watermark times. A missing or
// empty value means "from the beginning". A malformed timestamp fails the
// whole request.
func (r ChangesRequest) Watermarks() (map[string]time.Time, error) {
	watermarks := make(map[string]time.Time, len(r))
	for entity, raw := range r {
		if !model.IsFeedEntity(entity) {
			continue
		}
		if raw == "" {
			watermarks[entity] = time.Time{}
			continue
		}
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, fmt.Errorf("invalid watermark for %s: %q is not an RFC3339 timestamp", entity, raw)
		}
		watermarks[entity] = ts
	}
	return watermarks, nil
}

func positiveAmount(amount decimal.Decimal) validation.RuleFunc {
	return func(value interface{}) error {
		if !amount.IsPositive() {
			return errors.New("amount must be greater than zero")
		}
		return nil
	}
}
