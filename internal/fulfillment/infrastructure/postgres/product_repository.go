package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stockroom-io/fulfillment-service/internal/fulfillment/domain"
)

type ProductRepository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewProductRepository(log *slog.Logger, pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{log: log, pool: pool}
}

func (r *ProductRepository) Update(ctx context.Context, p domain.Product) error {
	return r.write(ctx, p)
}

func (r *ProductRepository) DecrementStock(ctx context.Context, p domain.Product) error {
	p.Available--
	return r.write(ctx, p)
}

func (r *ProductRepository) SetOutOfStock(ctx context.Context, p domain.Product) error {
	p.Available = 0
	return r.write(ctx, p)
}

// write issues the single full-record update every mutation ends in.
func (r *ProductRepository) write(ctx context.Context, p domain.Product) error {
	ct, err := r.pool.Exec(ctx, `
		UPDATE products
		SET name=$2, type=$3, available=$4, lead_time_days=$5,
		    expiry_date=$6, season_start=$7, season_end=$8, updated_at=$9
		WHERE id=$1`,
		p.ID, p.Name, string(p.Type), p.Available, p.LeadTimeDays,
		nullableTime(p.ExpiryDate), nullableTime(p.SeasonStart), nullableTime(p.SeasonEnd),
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("%w: update product %s: %v", domain.ErrPersistence, p.ID, err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("%w: product %s does not exist", domain.ErrPersistence, p.ID)
	}
	return nil
}

// Create seeds a catalog record. The fulfillment core never calls this; it
// exists for catalog ingestion and tests.
func (r *ProductRepository) Create(ctx context.Context, p domain.Product) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO products (id, name, type, available, lead_time_days, expiry_date, season_start, season_end, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (id) DO UPDATE SET
			name=$2, type=$3, available=$4, lead_time_days=$5,
			expiry_date=$6, season_start=$7, season_end=$8, updated_at=$9`,
		p.ID, p.Name, string(p.Type), p.Available, p.LeadTimeDays,
		nullableTime(p.ExpiryDate), nullableTime(p.SeasonStart), nullableTime(p.SeasonEnd),
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("%w: create product %s: %v", domain.ErrPersistence, p.ID, err)
	}
	return nil
}

// Find loads one product by id, mainly for tests and diagnostics.
func (r *ProductRepository) Find(ctx context.Context, id string) (domain.Product, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, type, available, lead_time_days, expiry_date, season_start, season_end, updated_at
		FROM products WHERE id=$1`, id)
	p, err := scanProduct(row)
	if err != nil {
		return domain.Product{}, fmt.Errorf("%w: find product %s: %v", domain.ErrPersistence, id, err)
	}
	return p, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (domain.Product, error) {
	var (
		p          domain.Product
		typ        string
		expiry     *time.Time
		seasonFrom *time.Time
		seasonTo   *time.Time
	)
	err := row.Scan(&p.ID, &p.Name, &typ, &p.Available, &p.LeadTimeDays, &expiry, &seasonFrom, &seasonTo, &p.UpdatedAt)
	if err != nil {
		return domain.Product{}, err
	}
	p.Type = domain.ProductType(typ)
	if expiry != nil {
		p.ExpiryDate = *expiry
	}
	if seasonFrom != nil {
		p.SeasonStart = *seasonFrom
	}
	if seasonTo != nil {
		p.SeasonEnd = *seasonTo
	}
	return p, nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
