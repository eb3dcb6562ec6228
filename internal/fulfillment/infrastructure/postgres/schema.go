package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS products (
		id             TEXT PRIMARY KEY,
		name           TEXT NOT NULL,
		type           TEXT NOT NULL,
		available      INT NOT NULL DEFAULT 0,
		lead_time_days INT NOT NULL DEFAULT 0,
		expiry_date    TIMESTAMPTZ,
		season_start   TIMESTAMPTZ,
		season_end     TIMESTAMPTZ,
		updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id         TEXT PRIMARY KEY,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS order_products (
		order_id   TEXT NOT NULL REFERENCES orders(id),
		product_id TEXT NOT NULL REFERENCES products(id),
		PRIMARY KEY (order_id, product_id)
	)`,
	`CREATE TABLE IF NOT EXISTS notification_outbox (
		id             BIGSERIAL PRIMARY KEY,
		type           TEXT NOT NULL,
		product_name   TEXT NOT NULL,
		lead_time_days INT NOT NULL DEFAULT 0,
		expired_at     TIMESTAMPTZ,
		status         TEXT NOT NULL DEFAULT 'pending',
		relay_id       TEXT,
		lease_until    TIMESTAMPTZ,
		retry_count    INT NOT NULL DEFAULT 0,
		last_error     TEXT,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS notification_outbox_pending_idx
		ON notification_outbox (id) WHERE status = 'pending'`,
}

// Migrate bootstraps the schema. Statements are idempotent so every instance
// can run them on startup.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
