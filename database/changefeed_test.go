package database

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"github.com/tradepost-hq/tradepost/model"
)

func TestGetOfferChanges_ClassifiesRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}
	since := time.Now().Add(-time.Minute)
	created := time.Now()
	updated := created.Add(10 * time.Second)

	rows := sqlmock.NewRows([]string{"offer_id", "listing_id", "bidder_id", "seller_id", "amount", "status", "message", "created_at", "updated_at"}).
		AddRow("off_new", "lst_1", "usr_1", "usr_s", "100", "pending", "", created, created).
		AddRow("off_resolved", "lst_1", "usr_2", "usr_s", "150", "accepted", "", created, updated)

	mock.ExpectQuery("SELECT offer_id, listing_id, bidder_id").
		WithArgs(since, 200).
		WillReturnRows(rows)

	changes, err := ds.GetOfferChanges(context.Background(), since, 200)
	assert.NoError(t, err)
	assert.Len(t, changes, 2)

	assert.Equal(t, model.ChangeTypeCreated, changes[0].ChangeType)
	assert.Equal(t, "off_new", changes[0].EntityID)

	assert.Equal(t, model.ChangeTypeStatusChanged, changes[1].ChangeType)
	assert.Equal(t, model.OfferStatusAccepted, changes[1].Status)

	offer, ok := changes[1].Entity.(*model.Offer)
	assert.True(t, ok)
	assert.Equal(t, "off_resolved", offer.OfferID)
}

func TestGetListingChanges_Empty(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}
	since := time.Now()

	mock.ExpectQuery("SELECT listing_id, owner_id, title").
		WithArgs(since, 200).
		WillReturnRows(sqlmock.NewRows([]string{"listing_id", "owner_id", "title", "description", "asking_price", "status", "created_at", "updated_at"}))

	changes, err := ds.GetListingChanges(context.Background(), since, 200)
	assert.NoError(t, err)
	assert.Empty(t, changes)
}

func TestGetLogChanges_AlwaysCreated(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}
	since := time.Time{}
	now := time.Now()

	rows := sqlmock.NewRows([]string{"log_id", "actor_id", "entity_type", "entity_id", "action", "created_at"}).
		AddRow("log_1", "usr_admin", "offers", "off_1", "offer.accepted", now)

	mock.ExpectQuery("SELECT log_id").
		WithArgs(since, 50).
		WillReturnRows(rows)

	changes, err := ds.GetLogChanges(context.Background(), since, 50)
	assert.NoError(t, err)
	assert.Len(t, changes, 1)
	assert.Equal(t, model.ChangeTypeCreated, changes[0].ChangeType)
	assert.True(t, changes[0].UpdatedAt.Equal(changes[0].CreatedAt))
}
