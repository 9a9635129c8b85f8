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
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/tradepost-hq/tradepost/internal/apierror"
	"github.com/tradepost-hq/tradepost/model"
)

func TestCreateOffer_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}

	offer := &model.Offer{
		ListingID: "lst_1",
		BidderID:  "usr_buyer",
		SellerID:  "usr_seller",
		Amount:    decimal.RequireFromString("150.00"),
		Message:   "Will pick up today",
	}

	mock.ExpectExec("INSERT INTO tradepost.offers").
		WithArgs(sqlmock.AnyArg(), offer.ListingID, offer.BidderID, offer.SellerID,
			offer.Amount, model.OfferStatusPending, offer.Message, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	created, err := ds.CreateOffer(context.Background(), offer)
	assert.NoError(t, err)
	assert.NotEmpty(t, created.OfferID)
	assert.Equal(t, model.OfferStatusPending, created.Status)
	assert.WithinDuration(t, time.Now(), created.CreatedAt, time.Second)
	assert.True(t, created.UpdatedAt.Equal(created.CreatedAt))
}

func TestCreateOffer_ListingMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}

	mock.ExpectExec("INSERT INTO tradepost.offers").
		WillReturnError(&pq.Error{Code: "23503", Message: "foreign_key_violation"})

	_, err = ds.CreateOffer(context.Background(), &model.Offer{ListingID: "lst_missing"})
	assert.Error(t, err)
	apiErr, ok := err.(apierror.APIError)
	assert.True(t, ok)
	assert.Equal(t, apierror.ErrNotFound, apiErr.Code)
}

func TestGetPendingOffersByListing_ResolutionOrder(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}
	now := time.Now()

	rows := sqlmock.NewRows([]string{"offer_id", "listing_id", "bidder_id", "seller_id", "amount", "status", "message", "created_at", "updated_at"}).
		AddRow("off_b", "lst_1", "usr_2", "usr_s", "150", "pending", "", now.Add(2*time.Second), now.Add(2*time.Second)).
		AddRow("off_c", "lst_1", "usr_3", "usr_s", "150", "pending", "", now.Add(3*time.Second), now.Add(3*time.Second)).
		AddRow("off_a", "lst_1", "usr_1", "usr_s", "100", "pending", "", now.Add(time.Second), now.Add(time.Second))

	mock.ExpectQuery("SELECT offer_id, listing_id, bidder_id, seller_id, amount, status").
		WithArgs("lst_1").
		WillReturnRows(rows)

	offers, err := ds.GetPendingOffersByListing(context.Background(), "lst_1")
	assert.NoError(t, err)
	assert.Len(t, offers, 3)
	// Ordered by amount desc, created_at asc: the first row is the winner.
	assert.Equal(t, "off_b", offers[0].OfferID)
}

func TestApplyOfferResolution_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE tradepost.offers").
		WithArgs("off_winner", "lst_1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE tradepost.offers").
		WithArgs("lst_1", "off_winner").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	applied, rejected, err := ds.ApplyOfferResolution(context.Background(), "lst_1", "off_winner")
	assert.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, int64(2), rejected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyOfferResolution_LostRaceIsNoOp(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}

	// The winner row was already transitioned by a concurrent trigger: the
	// guarded update matches zero rows and the transaction rolls back
	// without touching the siblings.
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE tradepost.offers").
		WithArgs("off_winner", "lst_1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	applied, rejected, err := ds.ApplyOfferResolution(context.Background(), "lst_1", "off_winner")
	assert.NoError(t, err)
	assert.False(t, applied)
	assert.Equal(t, int64(0), rejected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyOfferResolution_RejectFailureRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE tradepost.offers").
		WithArgs("off_winner", "lst_1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE tradepost.offers").
		WithArgs("lst_1", "off_winner").
		WillReturnError(&pq.Error{Code: "57014", Message: "query_canceled"})
	mock.ExpectRollback()

	applied, _, err := ds.ApplyOfferResolution(context.Background(), "lst_1", "off_winner")
	assert.Error(t, err)
	assert.False(t, applied)
	// The accept must not survive a failed reject: never a committed
	// half-transition.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRejectOffer_AlreadyTerminal(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}

	mock.ExpectExec("UPDATE tradepost.offers").
		WithArgs("off_1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	applied, err := ds.RejectOffer(context.Background(), "off_1")
	assert.NoError(t, err)
	assert.False(t, applied)
}

func TestGetOfferByID_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}

	mock.ExpectQuery("SELECT offer_id, listing_id").
		WithArgs("off_missing").
		WillReturnRows(sqlmock.NewRows([]string{"offer_id"}))

	_, err = ds.GetOfferByID(context.Background(), "off_missing")
	assert.Error(t, err)
	apiErr, ok := err.(apierror.APIError)
	assert.True(t, ok)
	assert.Equal(t, apierror.ErrNotFound, apiErr.Code)
}
