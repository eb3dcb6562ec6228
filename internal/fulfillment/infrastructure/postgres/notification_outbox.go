package postgres

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stockroom-io/fulfillment-service/internal/fulfillment/domain"
	"github.com/stockroom-io/fulfillment-service/pkg/outbox"
)

// NotificationOutbox is the notification sink. Sending means inserting a
// pending row; the relay publishes it to Kafka later. Insert failures are
// logged and dropped, never surfaced to the fulfillment path.
type NotificationOutbox struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewNotificationOutbox(log *slog.Logger, pool *pgxpool.Pool) *NotificationOutbox {
	return &NotificationOutbox{log: log, pool: pool}
}

func (s *NotificationOutbox) SendDelayNotification(ctx context.Context, leadTimeDays int, productName string) {
	s.enqueue(ctx, outbox.Notification{
		Type:         string(domain.NotificationDelay),
		ProductName:  productName,
		LeadTimeDays: leadTimeDays,
	})
}

func (s *NotificationOutbox) SendOutOfStockNotification(ctx context.Context, productName string) {
	s.enqueue(ctx, outbox.Notification{
		Type:        string(domain.NotificationOutOfStock),
		ProductName: productName,
	})
}

func (s *NotificationOutbox) SendExpirationNotification(ctx context.Context, productName string, expiredAt time.Time) {
	n := outbox.Notification{
		Type:        string(domain.NotificationExpiration),
		ProductName: productName,
	}
	if !expiredAt.IsZero() {
		n.ExpiredAt = &expiredAt
	}
	s.enqueue(ctx, n)
}

func (s *NotificationOutbox) enqueue(ctx context.Context, n outbox.Notification) {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO notification_outbox (type, product_name, lead_time_days, expired_at, status)
		VALUES ($1,$2,$3,$4,'pending')`,
		n.Type, n.ProductName, n.LeadTimeDays, n.ExpiredAt)
	if err != nil {
		s.log.Error("notification enqueue failed", "type", n.Type, "product", n.ProductName, "err", err)
	}
}

// LockBatch claims up to batchSize pending rows for this relay under a lease.
func (s *NotificationOutbox) LockBatch(ctx context.Context, relayID string, batchSize int, lease time.Duration) ([]outbox.Notification, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	rows, err := tx.Query(ctx, `
		SELECT id, type, product_name, lead_time_days, expired_at, created_at
		FROM notification_outbox
		WHERE status = 'pending'
		ORDER BY id
		FOR UPDATE SKIP LOCKED
		LIMIT $1`, batchSize)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var batch []outbox.Notification
	for rows.Next() {
		var n outbox.Notification
		if err := rows.Scan(&n.ID, &n.Type, &n.ProductName, &n.LeadTimeDays, &n.ExpiredAt, &n.CreatedAt); err != nil {
			return nil, err
		}
		batch = append(batch, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(batch) == 0 {
		return nil, tx.Commit(ctx)
	}

	ids := make([]int64, 0, len(batch))
	for _, n := range batch {
		ids = append(ids, n.ID)
	}
	_, err = tx.Exec(ctx, `
		UPDATE notification_outbox
		SET status='in_progress', relay_id=$1, lease_until=now() + $2::interval
		WHERE id = ANY($3)`, relayID, lease.String(), ids)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return batch, nil
}

func (s *NotificationOutbox) MarkSent(ctx context.Context, ids []int64) error {
	_, err := s.pool.Exec(ctx, `UPDATE notification_outbox SET status='sent' WHERE id = ANY($1)`, ids)
	return err
}

func (s *NotificationOutbox) MarkFailed(ctx context.Context, id int64, errMsg string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE notification_outbox
		SET status='failed', last_error=$2, retry_count=retry_count+1
		WHERE id=$1`, id, errMsg)
	return err
}

func (s *NotificationOutbox) ExtendLease(ctx context.Context, relayID string, ids []int64, lease time.Duration) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE notification_outbox
		SET lease_until=now() + $1::interval
		WHERE id = ANY($2) AND relay_id=$3`, lease.String(), ids, relayID)
	return err
}
