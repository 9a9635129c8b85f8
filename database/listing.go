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

func (d Datasource) CreateListing(ctx context.Context, listing *model.Listing) (*model.Listing, error) {
	metaDataJSON, err := json.Marshal(listing.MetaData)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to marshal metadata", err)
	}

	listing.ListingID = model.GenerateUUIDWithSuffix("lst")
	listing.CreatedAt = time.Now()
	listing.UpdatedAt = listing.CreatedAt
	if listing.Status == "" {
		listing.Status = model.ListingStatusPending
	}

	_, err = d.Conn.ExecContext(ctx, `
		INSERT INTO tradepost.listings (listing_id, owner_id, title, description, asking_price, status, created_at, updated_at, meta_data)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7, $8)
	`, listing.ListingID, listing.OwnerID, listing.Title, listing.Description, listing.AskingPrice, listing.Status, listing.CreatedAt, metaDataJSON)

	if err != nil {
		pqErr, ok := err.(*pq.Error)
		if ok {
			switch pqErr.Code.Name() {
			case "unique_violation":
				return nil, apierror.NewAPIError(apierror.ErrConflict, "Listing with this ID already exists", err)
			default:
				return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Database error occurred", err)
			}
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to create listing", err)
	}

	return listing, nil
}

func (d Datasource) GetListingByID(ctx context.Context, id string) (*model.Listing, error) {
	listing := model.Listing{}

	row := d.Conn.QueryRowContext(ctx, `
		SELECT listing_id, owner_id, title, COALESCE(description, ''), asking_price, status, created_at, updated_at, meta_data
		FROM tradepost.listings
		WHERE listing_id = $1
	`, id)

	var metaDataJSON []byte
	err := row.Scan(&listing.ListingID, &listing.OwnerID, &listing.Title, &listing.Description,
		&listing.AskingPrice, &listing.Status, &listing.CreatedAt, &listing.UpdatedAt, &metaDataJSON)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, "Listing not found", err)
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve listing", err)
	}

	if len(metaDataJSON) > 0 {
		if err := json.Unmarshal(metaDataJSON, &listing.MetaData); err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to unmarshal metadata", err)
		}
	}

	return &listing, nil
}

func (d Datasource) GetAllListings(ctx context.Context, limit, offset int) ([]*model.Listing, error) {
	rows, err := d.Conn.QueryContext(ctx, `
		SELECT listing_id, owner_id, title, COALESCE(description, ''), asking_price, status, created_at, updated_at
		FROM tradepost.listings
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve listings", err)
	}
	defer rows.Close()

	listings := []*model.Listing{}

	for rows.Next() {
		listing := model.Listing{}
		err = rows.Scan(&listing.ListingID, &listing.OwnerID, &listing.Title, &listing.Description,
			&listing.AskingPrice, &listing.Status, &listing.CreatedAt, &listing.UpdatedAt)
		if err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan listing data", err)
		}
		listings = append(listings, &listing)
	}

	if err = rows.Err(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Error occurred while iterating over listings", err)
	}

	return listings, nil
}

// UpdateListingStatus transitions a listing's status only if it currently
// holds fromStatus. Returns false without error when the guard does not
// match, so callers can treat a lost race as already-applied.
func (d Datasource) UpdateListingStatus(ctx context.Context, id, fromStatus, toStatus string) (bool, error) {
	result, err := d.Conn.ExecContext(ctx, `
		UPDATE tradepost.listings
		SET status = $1, updated_at = NOW()
		WHERE listing_id = $2 AND status = $3
	`, toStatus, id, fromStatus)
	if err != nil {
		return false, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to update listing status", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to read update result", err)
	}
	return affected == 1, nil
}
