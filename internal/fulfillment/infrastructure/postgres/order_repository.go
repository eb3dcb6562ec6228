package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stockroom-io/fulfillment-service/internal/fulfillment/domain"
)

type OrderRepository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewOrderRepository(log *slog.Logger, pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{log: log, pool: pool}
}

func (r *OrderRepository) FindOrderWithProducts(ctx context.Context, orderID string) (domain.Order, error) {
	var o domain.Order
	err := r.pool.QueryRow(ctx, `SELECT id, created_at FROM orders WHERE id=$1`, orderID).
		Scan(&o.ID, &o.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Order{}, fmt.Errorf("order %s: %w", orderID, domain.ErrOrderNotFound)
	}
	if err != nil {
		return domain.Order{}, fmt.Errorf("%w: load order %s: %v", domain.ErrPersistence, orderID, err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT p.id, p.name, p.type, p.available, p.lead_time_days,
		       p.expiry_date, p.season_start, p.season_end, p.updated_at
		FROM products p
		JOIN order_products op ON op.product_id = p.id
		WHERE op.order_id = $1
		ORDER BY p.id`, orderID)
	if err != nil {
		return domain.Order{}, fmt.Errorf("%w: load order %s items: %v", domain.ErrPersistence, orderID, err)
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return domain.Order{}, fmt.Errorf("%w: scan order %s item: %v", domain.ErrPersistence, orderID, err)
		}
		o.Products = append(o.Products, p)
	}
	if err := rows.Err(); err != nil {
		return domain.Order{}, fmt.Errorf("%w: load order %s items: %v", domain.ErrPersistence, orderID, err)
	}
	return o, nil
}

// Save upserts the order row and its line-item associations in one
// transaction. Product records themselves are owned by the catalog.
func (r *OrderRepository) Save(ctx context.Context, o domain.Order) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("%w: save order %s: %v", domain.ErrPersistence, o.ID, err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	createdAt := o.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err = tx.Exec(ctx, `INSERT INTO orders (id, created_at) VALUES ($1,$2) ON CONFLICT (id) DO NOTHING`,
		o.ID, createdAt)
	if err != nil {
		return fmt.Errorf("%w: save order %s: %v", domain.ErrPersistence, o.ID, err)
	}

	batch := &pgx.Batch{}
	for _, p := range o.Products {
		batch.Queue(`INSERT INTO order_products (order_id, product_id) VALUES ($1,$2) ON CONFLICT DO NOTHING`,
			o.ID, p.ID)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("%w: save order %s items: %v", domain.ErrPersistence, o.ID, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: save order %s: %v", domain.ErrPersistence, o.ID, err)
	}
	return nil
}
