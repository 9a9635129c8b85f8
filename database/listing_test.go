package database

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/tradepost-hq/tradepost/internal/apierror"
	"github.com/tradepost-hq/tradepost/model"
)

func TestCreateListing_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}

	listing := &model.Listing{
		OwnerID:     "usr_seller",
		Title:       "Road bike",
		AskingPrice: decimal.RequireFromString("420.00"),
		MetaData:    map[string]interface{}{"condition": "used"},
	}

	metaDataJSON, err := json.Marshal(listing.MetaData)
	assert.NoError(t, err)

	mock.ExpectExec("INSERT INTO tradepost.listings").
		WithArgs(sqlmock.AnyArg(), listing.OwnerID, listing.Title, "", listing.AskingPrice,
			model.ListingStatusPending, sqlmock.AnyArg(), metaDataJSON).
		WillReturnResult(sqlmock.NewResult(1, 1))

	created, err := ds.CreateListing(context.Background(), listing)
	assert.NoError(t, err)
	assert.NotEmpty(t, created.ListingID)
	assert.Equal(t, model.ListingStatusPending, created.Status)
	assert.WithinDuration(t, time.Now(), created.CreatedAt, time.Second)
}

func TestCreateListing_UniqueViolation(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}

	mock.ExpectExec("INSERT INTO tradepost.listings").
		WillReturnError(&pq.Error{Code: "23505", Message: "unique_violation"})

	_, err = ds.CreateListing(context.Background(), &model.Listing{Title: "Road bike"})
	assert.Error(t, err)
	apiErr, ok := err.(apierror.APIError)
	assert.True(t, ok)
	assert.Equal(t, apierror.ErrConflict, apiErr.Code)
}

func TestUpdateListingStatus_GuardMiss(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}

	mock.ExpectExec("UPDATE tradepost.listings").
		WithArgs(model.ListingStatusSold, "lst_1", model.ListingStatusApproved).
		WillReturnResult(sqlmock.NewResult(0, 0))

	applied, err := ds.UpdateListingStatus(context.Background(), "lst_1", model.ListingStatusApproved, model.ListingStatusSold)
	assert.NoError(t, err)
	assert.False(t, applied)
}

func TestGetListingByID_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}

	mock.ExpectQuery("SELECT listing_id, owner_id").
		WithArgs("lst_missing").
		WillReturnRows(sqlmock.NewRows([]string{"listing_id"}))

	_, err = ds.GetListingByID(context.Background(), "lst_missing")
	assert.Error(t, err)
	apiErr, ok := err.(apierror.APIError)
	assert.True(t, ok)
	assert.Equal(t, apierror.ErrNotFound, apiErr.Code)
}
