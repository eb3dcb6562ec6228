package application

import (
	"context"
	"fmt"
	"time"

	"github.com/stockroom-io/fulfillment-service/internal/fulfillment/domain"
)

// Engine decides and executes the fulfillment action for a single product:
// decrement stock, flag a restock delay, mark it out of stock, or do nothing.
// Each application performs at most one persistence write and at most one
// notification.
type Engine struct {
	products ProductRepository
	notifier Notifier
	now      func() time.Time
}

func NewEngine(products ProductRepository, notifier Notifier) *Engine {
	return &Engine{
		products: products,
		notifier: notifier,
		now:      time.Now,
	}
}

// Apply dispatches on the product type. The type set is closed; anything else
// is a data-integrity violation upstream.
func (e *Engine) Apply(ctx context.Context, p domain.Product) error {
	switch p.Type {
	case domain.TypeNormal:
		return e.applyNormal(ctx, p)
	case domain.TypeSeasonal:
		return e.applySeasonal(ctx, p)
	case domain.TypeExpirable:
		return e.applyExpirable(ctx, p)
	default:
		return fmt.Errorf("%w: %q", domain.ErrUnsupportedProductType, p.Type)
	}
}

func (e *Engine) applyNormal(ctx context.Context, p domain.Product) error {
	if p.Available > 0 {
		return e.products.DecrementStock(ctx, p)
	}
	if p.LeadTimeDays > 0 {
		return e.notifyDelay(ctx, p, p.LeadTimeDays)
	}
	return nil
}

func (e *Engine) applySeasonal(ctx context.Context, p domain.Product) error {
	now := e.now()
	if p.InSeason(now) && p.Available > 0 {
		return e.products.DecrementStock(ctx, p)
	}
	return e.handleSeasonalOutOfStock(ctx, p, now)
}

// handleSeasonalOutOfStock covers every seasonal case where the fast path did
// not decrement: out of season in either direction, or in season with nothing
// left on the shelf.
func (e *Engine) handleSeasonalOutOfStock(ctx context.Context, p domain.Product, now time.Time) error {
	restock := now.AddDate(0, 0, p.LeadTimeDays)
	if restock.After(p.SeasonEnd) {
		e.notifier.SendOutOfStockNotification(ctx, p.Name)
		return e.products.SetOutOfStock(ctx, p)
	}
	if p.SeasonStart.After(now) {
		e.notifier.SendOutOfStockNotification(ctx, p.Name)
		// The record is written back unchanged so updated_at still
		// reflects the fulfillment attempt.
		return e.products.Update(ctx, p)
	}
	return e.notifyDelay(ctx, p, p.LeadTimeDays)
}

func (e *Engine) applyExpirable(ctx context.Context, p domain.Product) error {
	now := e.now()
	if p.Available > 0 && !p.Expired(now) {
		return e.products.DecrementStock(ctx, p)
	}
	e.notifier.SendExpirationNotification(ctx, p.Name, p.ExpiryDate)
	return e.products.SetOutOfStock(ctx, p)
}

// notifyDelay persists the lead time before dispatching the notification, so
// a lost notification never leaves the stored state behind.
func (e *Engine) notifyDelay(ctx context.Context, p domain.Product, leadTimeDays int) error {
	p.LeadTimeDays = leadTimeDays
	if err := e.products.Update(ctx, p); err != nil {
		return err
	}
	e.notifier.SendDelayNotification(ctx, leadTimeDays, p.Name)
	return nil
}
