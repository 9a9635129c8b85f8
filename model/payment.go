package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	PaymentStatusInitiated = "initiated"
	PaymentStatusSettled   = "settled"
	PaymentStatusFailed    = "failed"
)

// Payment is a record of money movement against an order. Settlement logic
// lives outside Tradepost; payments are recorded here and consumed as a
// change-feed entity.
type Payment struct {
	PaymentID string                 `json:"payment_id"`
	OrderID   string                 `json:"order_id"`
	PayerID   string                 `json:"payer_id"`
	Amount    decimal.Decimal        `json:"amount"`
	Status    string                 `json:"status"`
	Reference string                 `json:"reference,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`
	MetaData  map[string]interface{} `json:"meta_data,omitempty"`
}
