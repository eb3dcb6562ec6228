package integration

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	segkafka "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockroom-io/fulfillment-service/internal/fulfillment/application"
	"github.com/stockroom-io/fulfillment-service/internal/fulfillment/domain"
	fulfillpg "github.com/stockroom-io/fulfillment-service/internal/fulfillment/infrastructure/postgres"
	"github.com/stockroom-io/fulfillment-service/pkg/idempotency"
	"github.com/stockroom-io/fulfillment-service/pkg/outbox"
)

func TestFulfillmentFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test")
	}
	ctx := context.Background()

	env, err := Setup(ctx)
	require.NoError(t, err)
	defer env.Teardown(ctx)

	pool, err := pgxpool.New(ctx, env.PGURL)
	require.NoError(t, err)
	defer pool.Close()
	require.NoError(t, fulfillpg.Migrate(ctx, pool))

	log := slog.New(slog.DiscardHandler)
	products := fulfillpg.NewProductRepository(log, pool)
	orders := fulfillpg.NewOrderRepository(log, pool)
	notifier := fulfillpg.NewNotificationOutbox(log, pool)
	processor := application.NewProcessor(orders, application.NewEngine(products, notifier))

	now := time.Now().UTC()
	seed := []domain.Product{
		{ID: "p-normal", Name: "USB cable", Type: domain.TypeNormal, Available: 10, LeadTimeDays: 15},
		{ID: "p-seasonal", Name: "Watermelon", Type: domain.TypeSeasonal, Available: 3, LeadTimeDays: 5,
			SeasonStart: now.AddDate(0, 0, -10), SeasonEnd: now.AddDate(0, 0, 30)},
		{ID: "p-expired", Name: "Milk", Type: domain.TypeExpirable, Available: 6, LeadTimeDays: 90,
			ExpiryDate: now.AddDate(0, 0, -2)},
	}
	for _, p := range seed {
		require.NoError(t, products.Create(ctx, p))
	}
	require.NoError(t, orders.Save(ctx, domain.Order{ID: "o1", Products: seed}))

	orderID, err := processor.Process(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, "o1", orderID)

	normal, err := products.Find(ctx, "p-normal")
	require.NoError(t, err)
	assert.Equal(t, 9, normal.Available)

	seasonal, err := products.Find(ctx, "p-seasonal")
	require.NoError(t, err)
	assert.Equal(t, 2, seasonal.Available)

	expired, err := products.Find(ctx, "p-expired")
	require.NoError(t, err)
	assert.Equal(t, 0, expired.Available)

	t.Run("unknown order", func(t *testing.T) {
		_, err := processor.Process(ctx, "missing")
		assert.ErrorIs(t, err, domain.ErrOrderNotFound)
	})

	t.Run("expiration notification relayed to kafka", func(t *testing.T) {
		batch, err := notifier.LockBatch(ctx, "it-relay", 10, time.Minute)
		require.NoError(t, err)
		require.Len(t, batch, 1)
		assert.Equal(t, string(domain.NotificationExpiration), batch[0].Type)
		assert.Equal(t, "Milk", batch[0].ProductName)

		writer := &segkafka.Writer{
			Addr:                   segkafka.TCP(env.KafkaAddr...),
			Balancer:               &segkafka.LeastBytes{},
			RequiredAcks:           segkafka.RequireAll,
			AllowAutoTopicCreation: true,
		}
		defer writer.Close()
		dispatch := outbox.NewDispatcher(log, writer, "fulfillment.notifications")
		require.NoError(t, dispatch.Dispatch(ctx, batch[0]))
		require.NoError(t, notifier.MarkSent(ctx, []int64{batch[0].ID}))

		reader := segkafka.NewReader(segkafka.ReaderConfig{
			Brokers: env.KafkaAddr,
			Topic:   "fulfillment.notifications",
			MaxWait: time.Second,
		})
		defer reader.Close()

		readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		msg, err := reader.FetchMessage(readCtx)
		require.NoError(t, err)

		var body struct {
			Type        string `json:"type"`
			ProductName string `json:"product_name"`
		}
		require.NoError(t, json.Unmarshal(msg.Value, &body))
		assert.Equal(t, "expiration", body.Type)
		assert.Equal(t, "Milk", body.ProductName)

		var status string
		require.NoError(t, pool.QueryRow(ctx, `SELECT status FROM notification_outbox WHERE id=$1`, batch[0].ID).Scan(&status))
		assert.Equal(t, "sent", status)
	})

	t.Run("idempotency store claims offsets once", func(t *testing.T) {
		opts, err := redis.ParseURL(env.RedisURL)
		require.NoError(t, err)
		rdb := redis.NewClient(opts)
		defer rdb.Close()

		idem := idempotency.NewStore(rdb, time.Minute)
		key := idem.Key("orders.placed", 0, 42)

		seen, err := idem.Seen(ctx, key)
		require.NoError(t, err)
		assert.False(t, seen)

		seen, err = idem.Seen(ctx, key)
		require.NoError(t, err)
		assert.True(t, seen)
	})
}
