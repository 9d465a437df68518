package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS products (
        id          BIGSERIAL PRIMARY KEY,
        owner_id    BIGINT NOT NULL,
        name        TEXT NOT NULL,
        category    TEXT,
        firma       TEXT,
        code        TEXT,
        quantity    BIGINT NOT NULL DEFAULT 0,
        cost_price  DOUBLE PRECISION,
        sale_price  DOUBLE PRECISION,
        currency    VARCHAR(3) NOT NULL DEFAULT 'UZS',
        created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
    )`,
	`ALTER TABLE products ADD COLUMN IF NOT EXISTS firma TEXT`,
	`ALTER TABLE products ADD COLUMN IF NOT EXISTS currency VARCHAR(3) NOT NULL DEFAULT 'UZS'`,
	`CREATE INDEX IF NOT EXISTS idx_products_owner_id ON products(owner_id)`,
	`CREATE INDEX IF NOT EXISTS idx_products_code ON products(code)`,
}

// Migrate creates the products table and its indexes when missing.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range schema {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return tx.Commit()
}
