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

	"github.com/tradepost-hq/tradepost/internal/apierror"
	"github.com/tradepost-hq/tradepost/model"
)

// RecordPayment records a payment reported by an external settlement
// collaborator against an order. The payment surfaces to pollers through the
// change feed.
func (t *Tradepost) RecordPayment(ctx context.Context, payment *model.Payment) (*model.Payment, error) {
	ctx, span := tracer.Start(ctx, "Recording payment")
	defer span.End()

	if !payment.Amount.IsPositive() {
		return nil, apierror.NewAPIError(apierror.ErrBadRequest, "payment amount must be positive", nil)
	}
	order, err := t.datasource.GetOrderByID(ctx, payment.OrderID)
	if err != nil {
		return nil, logAndRecordError(span, "fetch order error", err)
	}

	if payment.Status == "" {
		payment.Status = model.PaymentStatusInitiated
	}
	recorded, err := t.datasource.RecordPayment(ctx, payment)
	if err != nil {
		return nil, logAndRecordError(span, "record payment error", err)
	}
	t.logAction(ctx, payment.PayerID, "payment", recorded.PaymentID, "payment.recorded", map[string]interface{}{
		"order_id": order.OrderID,
		"amount":   recorded.Amount.String(),
		"status":   recorded.Status,
	})
	return recorded, nil
}

// GetAllPayments retrieves a page of payments.
func (t *Tradepost) GetAllPayments(ctx context.Context, limit, offset int) ([]*model.Payment, error) {
	return t.datasource.GetAllPayments(ctx, limit, offset)
}

// GetAuditLogs retrieves a page of audit records.
func (t *Tradepost) GetAuditLogs(ctx context.Context, limit, offset int) ([]*model.AuditLog, error) {
	return t.datasource.GetAuditLogs(ctx, limit, offset)
}
