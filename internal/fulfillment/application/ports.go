package application

import (
	"context"
	"time"

	"github.com/stockroom-io/fulfillment-service/internal/fulfillment/domain"
)

type ProductRepository interface {
	// Update persists the full product record by id.
	Update(ctx context.Context, p domain.Product) error
	// DecrementStock lowers the available quantity by one and persists the
	// resulting state in a single write. Callers only invoke it when the
	// quantity is positive.
	DecrementStock(ctx context.Context, p domain.Product) error
	// SetOutOfStock forces the available quantity to zero and persists.
	SetOutOfStock(ctx context.Context, p domain.Product) error
}

type OrderRepository interface {
	// FindOrderWithProducts loads an order together with its resolved line
	// items, or domain.ErrOrderNotFound.
	FindOrderWithProducts(ctx context.Context, orderID string) (domain.Order, error)
	Save(ctx context.Context, o domain.Order) error
}

// Notifier is a fire-and-forget sink: implementations deal with their own
// failures, callers never see them.
type Notifier interface {
	SendDelayNotification(ctx context.Context, leadTimeDays int, productName string)
	SendOutOfStockNotification(ctx context.Context, productName string)
	SendExpirationNotification(ctx context.Context, productName string, expiredAt time.Time)
}
