package database

import (
	"context"
	"encoding/json"
	"time"

	"github.com/lib/pq"

	"github.com/tradepost-hq/tradepost/internal/apierror"
	"github.com/tradepost-hq/tradepost/model"
)

func (d Datasource) RecordPayment(ctx context.Context, payment *model.Payment) (*model.Payment, error) {
	metaDataJSON, err := json.Marshal(payment.MetaData)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to marshal metadata", err)
	}

	payment.PaymentID = model.GenerateUUIDWithSuffix("pay")
	if payment.Status == "" {
		payment.Status = model.PaymentStatusInitiated
	}
	payment.CreatedAt = time.Now()
	payment.UpdatedAt = payment.CreatedAt

	_, err = d.Conn.ExecContext(ctx, `
		INSERT INTO tradepost.payments (payment_id, order_id, payer_id, amount, status, reference, created_at, updated_at, meta_data)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7, $8)
	`, payment.PaymentID, payment.OrderID, payment.PayerID, payment.Amount, payment.Status, payment.Reference, payment.CreatedAt, metaDataJSON)

	if err != nil {
		pqErr, ok := err.(*pq.Error)
		if ok && pqErr.Code.Name() == "foreign_key_violation" {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, "Order not found for payment", err)
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to record payment", err)
	}

	return payment, nil
}

func (d Datasource) GetAllPayments(ctx context.Context, limit, offset int) ([]*model.Payment, error) {
	rows, err := d.Conn.QueryContext(ctx, `
		SELECT payment_id, order_id, payer_id, amount, status, COALESCE(reference, ''), created_at, updated_at
		FROM tradepost.payments
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve payments", err)
	}
	defer rows.Close()

	payments := []*model.Payment{}
	for rows.Next() {
		payment := model.Payment{}
		err = rows.Scan(&payment.PaymentID, &payment.OrderID, &payment.PayerID,
			&payment.Amount, &payment.Status, &payment.Reference, &payment.CreatedAt, &payment.UpdatedAt)
		if err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan payment data", err)
		}
		payments = append(payments, &payment)
	}

	if err = rows.Err(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Error occurred while iterating over payments", err)
	}

	return payments, nil
}
