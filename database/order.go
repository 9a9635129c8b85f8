package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/lib/pq"

	"github.com/tradepost-hq/tradepost/internal/apierror"
	"github.com/tradepost-hq/tradepost/model"
)

func (d Datasource) RecordOrder(ctx context.Context, order *model.Order) (*model.Order, error) {
	metaDataJSON, err := json.Marshal(order.MetaData)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to marshal metadata", err)
	}

	if order.OrderID == "" {
		order.OrderID = model.GenerateUUIDWithSuffix("ord")
	}
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt

	_, err = d.Conn.ExecContext(ctx, `
		INSERT INTO tradepost.orders (order_id, listing_id, offer_id, buyer_id, seller_id, amount, status, created_at, updated_at, meta_data)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8, $9)
	`, order.OrderID, order.ListingID, order.OfferID, order.BuyerID, order.SellerID, order.Amount, order.Status, order.CreatedAt, metaDataJSON)

	if err != nil {
		pqErr, ok := err.(*pq.Error)
		if ok && pqErr.Code.Name() == "unique_violation" {
			// The offer already has an order: a redundant materialization
			// attempt after a duplicate resolution trigger. Surface it as a
			// conflict so the worker can drop the task.
			return nil, apierror.NewAPIError(apierror.ErrConflict, "Order already recorded for this offer", err)
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to record order", err)
	}

	return order, nil
}

func (d Datasource) GetOrderByID(ctx context.Context, id string) (*model.Order, error) {
	order := model.Order{}

	row := d.Conn.QueryRowContext(ctx, `
		SELECT order_id, listing_id, offer_id, buyer_id, seller_id, amount, status, created_at, updated_at
		FROM tradepost.orders
		WHERE order_id = $1
	`, id)

	err := row.Scan(&order.OrderID, &order.ListingID, &order.OfferID, &order.BuyerID,
		&order.SellerID, &order.Amount, &order.Status, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, "Order not found", err)
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve order", err)
	}

	return &order, nil
}

func (d Datasource) GetAllOrders(ctx context.Context, limit, offset int) ([]*model.Order, error) {
	rows, err := d.Conn.QueryContext(ctx, `
		SELECT order_id, listing_id, offer_id, buyer_id, seller_id, amount, status, created_at, updated_at
		FROM tradepost.orders
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve orders", err)
	}
	defer rows.Close()

	orders := []*model.Order{}
	for rows.Next() {
		order := model.Order{}
		err = rows.Scan(&order.OrderID, &order.ListingID, &order.OfferID, &order.BuyerID,
			&order.SellerID, &order.Amount, &order.Status, &order.CreatedAt, &order.UpdatedAt)
		if err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan order data", err)
		}
		orders = append(orders, &order)
	}

	if err = rows.Err(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Error occurred while iterating over orders", err)
	}

	return orders, nil
}
