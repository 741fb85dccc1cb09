package db

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// sqliteSchema mirrors the goose migrations with sqlite types: uuids, arrays and decimals are TEXT.
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		display_name TEXT NOT NULL,
		roles TEXT NOT NULL DEFAULT '{}',
		discount_profile_id TEXT,
		manager_user_id TEXT,
		shipping_department_id TEXT,
		has_full_access BOOLEAN NOT NULL DEFAULT 0,
		product_group_access_ids TEXT NOT NULL DEFAULT '{}',
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE IF NOT EXISTS discount_profiles (
		id TEXT PRIMARY KEY,
		tier TEXT NOT NULL,
		name TEXT NOT NULL,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE IF NOT EXISTS discount_profile_entries (
		id TEXT PRIMARY KEY,
		profile_id TEXT NOT NULL,
		product_group_id TEXT NOT NULL,
		percent TEXT NOT NULL,
		UNIQUE (profile_id, product_group_id)
	)`,
	`CREATE TABLE IF NOT EXISTS special_discounts (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		product_group_id TEXT NOT NULL,
		percent TEXT NOT NULL,
		active BOOLEAN NOT NULL DEFAULT 1,
		created_at DATETIME
	)`,
	`CREATE TABLE IF NOT EXISTS product_groups (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		created_at DATETIME
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		id TEXT PRIMARY KEY,
		code TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		group_id TEXT NOT NULL,
		base_price TEXT NOT NULL,
		weight TEXT NOT NULL DEFAULT '0',
		volume TEXT NOT NULL DEFAULT '0',
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE IF NOT EXISTS branches (
		id TEXT PRIMARY KEY,
		code TEXT NOT NULL UNIQUE,
		display_name TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS availability_rows (
		product_id TEXT NOT NULL,
		branch_id TEXT NOT NULL,
		quantity TEXT NOT NULL,
		as_of DATETIME NOT NULL,
		PRIMARY KEY (product_id, branch_id)
	)`,
	`CREATE TABLE IF NOT EXISTS carts (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL UNIQUE,
		version INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE IF NOT EXISTS cart_items (
		id TEXT PRIMARY KEY,
		cart_id TEXT NOT NULL,
		product_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		quantity TEXT NOT NULL,
		unit_price TEXT NOT NULL,
		unit_price_with_discount TEXT NOT NULL,
		discount_percent TEXT NOT NULL DEFAULT '0',
		created_at DATETIME,
		updated_at DATETIME,
		UNIQUE (cart_id, product_id)
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id TEXT PRIMARY KEY,
		order_number INTEGER NOT NULL UNIQUE,
		created_by_user_id TEXT NOT NULL,
		manager_user_id TEXT,
		shipping_department_id TEXT,
		order_type TEXT NOT NULL,
		payment_method TEXT NOT NULL,
		comment TEXT,
		total_quantity TEXT NOT NULL,
		total_weight TEXT NOT NULL,
		total_volume TEXT NOT NULL,
		total_original TEXT NOT NULL,
		total_discounted TEXT NOT NULL,
		source_cart_id TEXT NOT NULL,
		source_cart_version INTEGER NOT NULL,
		created_at DATETIME NOT NULL,
		UNIQUE (source_cart_id, source_cart_version)
	)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		id TEXT PRIMARY KEY,
		order_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		product_id TEXT NOT NULL,
		product_code TEXT NOT NULL,
		product_name TEXT NOT NULL,
		quantity TEXT NOT NULL,
		unit_price TEXT NOT NULL,
		unit_price_with_discount TEXT NOT NULL,
		discount_percent TEXT NOT NULL,
		weight TEXT NOT NULL,
		volume TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS outbox_events (
		id TEXT PRIMARY KEY,
		event_type TEXT NOT NULL,
		aggregate_type TEXT NOT NULL,
		aggregate_id TEXT NOT NULL,
		payload TEXT NOT NULL,
		created_at DATETIME,
		attempt_count INTEGER NOT NULL DEFAULT 0,
		last_attempt_at DATETIME,
		last_error TEXT,
		published_at DATETIME,
		parked_at DATETIME,
		park_reason TEXT
	)`,
}

// EnsureSQLiteSchema creates any missing table on a sqlite connection. Postgres deployments
// use the goose migrations instead.
func EnsureSQLiteSchema(ctx context.Context, conn *gorm.DB) error {
	for _, stmt := range sqliteSchema {
		if err := conn.WithContext(ctx).Exec(stmt).Error; err != nil {
			return fmt.Errorf("apply sqlite schema: %w", err)
		}
	}
	return nil
}
