package database

import (
	"database/sql"
	"log"
	"sync"

	"github.com/tradepost-hq/tradepost/config"
)

// Declare a package-level variable to hold the singleton instance.
// Ensure the instance is not accessible outside the package.
var instance *Datasource
var once sync.Once

type Datasource struct {
	Conn *sql.DB
}

func NewDataSource(configuration *config.Configuration) (IDataSource, error) {
	con, err := GetDBConnection(configuration)
	if err != nil {
		return nil, err
	}
	return con, nil
}

// GetDBConnection provides a global access point to the instance and initializes it if it's not already.
func GetDBConnection(configuration *config.Configuration) (*Datasource, error) {
	var err error
	once.Do(func() {
		con, errConn := ConnectDB(configuration.DataSource.Dns)
		if errConn != nil {
			err = errConn
			return
		}
		instance = &Datasource{Conn: con}
	})
	if err != nil {
		return nil, err
	}
	return instance, nil
}

func ConnectDB(dns string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dns)
	if err != nil {
		return nil, err
	}
	err = db.Ping()
	if err != nil {
		log.Printf("database Connection error ❌: %v", err)
		return nil, err
	}
	err = createSchema(db)
	if err != nil {
		return nil, err
	}
	err = createListingTable(db)
	if err != nil {
		return nil, err
	}
	err = createOfferTable(db)
	if err != nil {
		return nil, err
	}
	err = createOrderTable(db)
	if err != nil {
		return nil, err
	}
	err = createPaymentTable(db)
	if err != nil {
		return nil, err
	}
	err = createAuditLogTable(db)
	if err != nil {
		return nil, err
	}
	return db, nil
}

func createSchema(db *sql.DB) error {
	_, err := db.Exec(`CREATE SCHEMA IF NOT EXISTS tradepost`)
	return err
}

// createListingTable creates a PostgreSQL table for the Listing struct
func createListingTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS tradepost.listings (
			id SERIAL PRIMARY KEY,
			listing_id TEXT NOT NULL UNIQUE,
			owner_id TEXT NOT NULL,
			title TEXT NOT NULL,
			description TEXT,
			asking_price NUMERIC(20,4) NOT NULL,
			status TEXT NOT NULL CHECK (status IN ('pending', 'approved', 'rejected', 'sold')),
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP NOT NULL DEFAULT NOW(),
			meta_data JSONB
		);
		CREATE INDEX IF NOT EXISTS idx_listings_updated_at ON tradepost.listings (updated_at)
	`)
	if err != nil {
		log.Printf("Error creating listings table: %v", err)
	}
	return err
}

// createOfferTable creates a PostgreSQL table for the Offer struct.
// The partial unique index is the database-level backstop for the
// one-accepted-offer-per-listing invariant.
func createOfferTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS tradepost.offers (
			id SERIAL PRIMARY KEY,
			offer_id TEXT NOT NULL UNIQUE,
			listing_id TEXT NOT NULL REFERENCES tradepost.listings(listing_id),
			bidder_id TEXT NOT NULL,
			seller_id TEXT NOT NULL,
			amount NUMERIC(20,4) NOT NULL,
			status TEXT NOT NULL CHECK (status IN ('pending', 'accepted', 'rejected')),
			message TEXT,
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP NOT NULL DEFAULT NOW(),
			meta_data JSONB
		);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_offers_one_accepted
			ON tradepost.offers (listing_id) WHERE status = 'accepted';
		CREATE INDEX IF NOT EXISTS idx_offers_updated_at ON tradepost.offers (updated_at);
		CREATE INDEX IF NOT EXISTS idx_offers_listing_pending ON tradepost.offers (listing_id) WHERE status = 'pending'
	`)
	if err != nil {
		log.Printf("Error creating offers table: %v", err)
	}
	return err
}

// createOrderTable creates a PostgreSQL table for the Order struct
func createOrderTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS tradepost.orders (
			id SERIAL PRIMARY KEY,
			order_id TEXT NOT NULL UNIQUE,
			listing_id TEXT NOT NULL REFERENCES tradepost.listings(listing_id),
			offer_id TEXT NOT NULL UNIQUE REFERENCES tradepost.offers(offer_id),
			buyer_id TEXT NOT NULL,
			seller_id TEXT NOT NULL,
			amount NUMERIC(20,4) NOT NULL,
			status TEXT NOT NULL CHECK (status IN ('pending', 'paid', 'cancelled')),
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP NOT NULL DEFAULT NOW(),
			meta_data JSONB
		);
		CREATE INDEX IF NOT EXISTS idx_orders_updated_at ON tradepost.orders (updated_at)
	`)
	if err != nil {
		log.Printf("Error creating orders table: %v", err)
	}
	return err
}

// createPaymentTable creates a PostgreSQL table for the Payment struct
func createPaymentTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS tradepost.payments (
			id SERIAL PRIMARY KEY,
			payment_id TEXT NOT NULL UNIQUE,
			order_id TEXT NOT NULL REFERENCES tradepost.orders(order_id),
			payer_id TEXT NOT NULL,
			amount NUMERIC(20,4) NOT NULL,
			status TEXT NOT NULL CHECK (status IN ('initiated', 'settled', 'failed')),
			reference TEXT,
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP NOT NULL DEFAULT NOW(),
			meta_data JSONB
		);
		CREATE INDEX IF NOT EXISTS idx_payments_updated_at ON tradepost.payments (updated_at)
	`)
	if err != nil {
		log.Printf("Error creating payments table: %v", err)
	}
	return err
}

// createAuditLogTable creates a PostgreSQL table for the AuditLog struct.
// Rows are append-only; there is no updated_at column.
func createAuditLogTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS tradepost.logs (
			id BIGSERIAL PRIMARY KEY,
			log_id TEXT NOT NULL UNIQUE,
			actor_id TEXT,
			entity_type TEXT NOT NULL,
			entity_id TEXT NOT NULL,
			action TEXT NOT NULL,
			details JSONB,
			created_at TIMESTAMP NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_logs_created_at ON tradepost.logs (created_at)
	`)
	if err != nil {
		log.Printf("Error creating logs table: %v", err)
	}
	return err
}
