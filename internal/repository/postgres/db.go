package postgres

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// InitDB opens the connection and runs the idempotent schema migration.
func InitDB(dsn string, log *zap.Logger) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := migrateDB(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Info("database connected and migrated")
	return db, nil
}

func migrateDB(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS products (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			price TEXT NOT NULL DEFAULT '',
			original_price TEXT NOT NULL DEFAULT '',
			cost TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			images JSONB NOT NULL DEFAULT '[]',
			category TEXT NOT NULL DEFAULT '',
			stock INT NOT NULL DEFAULT 0,
			wholesale_price TEXT NOT NULL DEFAULT '',
			min_wholesale_qty INT NOT NULL DEFAULT 0,
			allow_add_to_cart BOOLEAN NOT NULL DEFAULT FALSE,
			discount_label TEXT NOT NULL DEFAULT '',
			best_seller BOOLEAN NOT NULL DEFAULT FALSE,
			reviews JSONB NOT NULL DEFAULT '[]'
		);

		CREATE TABLE IF NOT EXISTS categories (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			image TEXT NOT NULL DEFAULT ''
		);

		CREATE TABLE IF NOT EXISTS settings (
			id TEXT PRIMARY KEY,
			store_name TEXT NOT NULL DEFAULT '',
			primary_color TEXT NOT NULL DEFAULT '',
			hero_image TEXT NOT NULL DEFAULT '',
			favicon TEXT NOT NULL DEFAULT '',
			sheet_url TEXT NOT NULL DEFAULT '',
			telegram_chat_id TEXT NOT NULL DEFAULT '',
			phone_number TEXT NOT NULL DEFAULT '',
			facebook_pixel_id TEXT NOT NULL DEFAULT '',
			tiktok_pixel_id TEXT NOT NULL DEFAULT '',
			admin_password TEXT NOT NULL DEFAULT '',
			suspended BOOLEAN NOT NULL DEFAULT FALSE,
			paid BOOLEAN NOT NULL DEFAULT FALSE,
			trial_started_at TIMESTAMPTZ
		);

		CREATE TABLE IF NOT EXISTS orders (
			key TEXT PRIMARY KEY,
			tenant TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			date_local TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'New',
			store_name TEXT NOT NULL DEFAULT '',
			telegram_chat_id TEXT NOT NULL DEFAULT '',
			customer_name TEXT NOT NULL,
			customer_phone TEXT NOT NULL,
			customer_city TEXT NOT NULL DEFAULT '',
			items_summary TEXT NOT NULL DEFAULT '',
			total TEXT NOT NULL DEFAULT '0',
			shop_source TEXT NOT NULL DEFAULT ''
		);

		CREATE INDEX IF NOT EXISTS idx_orders_tenant_created
			ON orders (tenant, created_at DESC);
	`)
	return err
}
